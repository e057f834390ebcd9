// Package typeset turns the small subset of TeX math markup used in plot
// labels (e.g. "$R^2$", "$\mathrm{RMSE}$") into plain display text.
package typeset

import (
	"strings"
	"unicode/utf8"
)

var superscripts = map[rune]rune{
	'0': '⁰', '1': '¹', '2': '²', '3': '³', '4': '⁴',
	'5': '⁵', '6': '⁶', '7': '⁷', '8': '⁸', '9': '⁹',
	'+': '⁺', '-': '⁻', '=': '⁼', '(': '⁽', ')': '⁾',
	'n': 'ⁿ', 'i': 'ⁱ',
}

var subscripts = map[rune]rune{
	'0': '₀', '1': '₁', '2': '₂', '3': '₃', '4': '₄',
	'5': '₅', '6': '₆', '7': '₇', '8': '₈', '9': '₉',
	'+': '₊', '-': '₋', '=': '₌', '(': '₍', ')': '₎',
}

var symbols = map[string]string{
	"alpha": "α", "beta": "β", "gamma": "γ", "delta": "δ", "epsilon": "ε",
	"zeta": "ζ", "eta": "η", "theta": "θ", "iota": "ι", "kappa": "κ",
	"lambda": "λ", "mu": "μ", "nu": "ν", "xi": "ξ", "pi": "π", "rho": "ρ",
	"sigma": "σ", "tau": "τ", "upsilon": "υ", "phi": "φ", "chi": "χ",
	"psi": "ψ", "omega": "ω",
	"Gamma": "Γ", "Delta": "Δ", "Theta": "Θ", "Lambda": "Λ", "Sigma": "Σ",
	"Phi": "Φ", "Psi": "Ψ", "Omega": "Ω",
	"circ": "°", "degree": "°", "pm": "±", "times": "×", "cdot": "·",
	"le": "≤", "leq": "≤", "ge": "≥", "geq": "≥", "approx": "≈",
	"%": "%", "$": "$", "_": "_", "&": "&", "#": "#", "{": "{", "}": "}",
}

// Font commands whose braced argument is emitted without the command. The
// value reports whether the argument is typeset as text (spaces kept).
var passthrough = map[string]bool{
	"mathrm": false, "mathit": false, "mathbf": false, "mathsf": false,
	"operatorname": false,
	"text": true, "textrm": true, "textbf": true, "textit": true,
}

// Plain renders s as display text. Text outside "$...$" is kept verbatim
// apart from escaped characters; math segments are simplified and, as in
// TeX, spaces inside them are dropped unless spelled as \, or \;.
func Plain(s string) string {
	if !strings.ContainsAny(s, `$\`) {
		return s
	}
	var b strings.Builder
	p := parser{src: s}
	p.run(&b)
	return strings.TrimSpace(collapseSpaces(b.String()))
}

type parser struct {
	src  string
	pos  int
	math bool
}

func (p *parser) run(b *strings.Builder) {
	for p.pos < len(p.src) {
		r, size := utf8.DecodeRuneInString(p.src[p.pos:])
		switch {
		case r == '$':
			p.math = !p.math
			p.pos += size
		case r == '\\':
			p.pos += size
			b.WriteString(p.command())
		case p.math && (r == '^' || r == '_'):
			p.pos += size
			b.WriteString(p.script(r == '^'))
		case p.math && (r == '{' || r == '}' || r == ' '):
			p.pos += size
		default:
			b.WriteRune(r)
			p.pos += size
		}
	}
}

// command consumes the name after a backslash and returns its rendering.
func (p *parser) command() string {
	if p.pos >= len(p.src) {
		return ""
	}
	c := p.src[p.pos]
	if !isLetter(c) {
		p.pos++
		switch c {
		case ',', ';', ':', ' ', '!':
			if c == '!' {
				return ""
			}
			return " "
		case '\\':
			return "\n"
		}
		if s, ok := symbols[string(c)]; ok {
			return s
		}
		return string(c)
	}
	start := p.pos
	for p.pos < len(p.src) && isLetter(p.src[p.pos]) {
		p.pos++
	}
	name := p.src[start:p.pos]
	if textual, ok := passthrough[name]; ok {
		if textual {
			return Plain(p.group())
		}
		return Plain("$" + p.group() + "$")
	}
	if name == "quad" || name == "qquad" {
		return " "
	}
	if s, ok := symbols[name]; ok {
		return s
	}
	return name
}

// group returns the content of a braced group, or a single character.
func (p *parser) group() string {
	for p.pos < len(p.src) && p.src[p.pos] == ' ' {
		p.pos++
	}
	if p.pos >= len(p.src) {
		return ""
	}
	if p.src[p.pos] != '{' {
		r, size := utf8.DecodeRuneInString(p.src[p.pos:])
		p.pos += size
		return string(r)
	}
	depth := 0
	start := p.pos + 1
	for ; p.pos < len(p.src); p.pos++ {
		switch p.src[p.pos] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				out := p.src[start:p.pos]
				p.pos++
				return out
			}
		}
	}
	return p.src[start:]
}

func (p *parser) script(super bool) string {
	body := Plain("$" + p.group() + "$")
	table := subscripts
	if super {
		table = superscripts
	}
	var b strings.Builder
	for _, r := range body {
		m, ok := table[r]
		if !ok {
			// No Unicode form for the whole run, fall back to caret notation.
			if super {
				return "^" + body
			}
			return "_" + body
		}
		b.WriteRune(m)
	}
	return b.String()
}

func isLetter(c byte) bool {
	return ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}

func collapseSpaces(s string) string {
	var b strings.Builder
	prevSpace := false
	for _, r := range s {
		if r == ' ' {
			if prevSpace {
				continue
			}
			prevSpace = true
		} else {
			prevSpace = false
		}
		b.WriteRune(r)
	}
	return b.String()
}
