// Package score holds the regression scores annotated on a plot.
package score

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/aclements/go-moremath/stats"
	"gopkg.in/yaml.v3"

	"github.com/lcz-tools/predplot/internal/typeset"
)

// DefaultPrecision is the number of decimals used when none is configured.
const DefaultPrecision = 2

// Score is a single named metric.
type Score struct {
	Name  string  `json:"name" yaml:"name"`
	Value float64 `json:"value" yaml:"value"`
}

// Set is an ordered collection of scores. Insertion order is display order.
type Set []Score

// Add appends a score, replacing the value of an existing score with the
// same name in place.
func (s *Set) Add(name string, value float64) {
	for i := range *s {
		if (*s)[i].Name == name {
			(*s)[i].Value = value
			return
		}
	}
	*s = append(*s, Score{Name: name, Value: value})
}

// Get returns the value of the named score.
func (s Set) Get(name string) (float64, bool) {
	for _, sc := range s {
		if sc.Name == name {
			return sc.Value, true
		}
	}
	return 0, false
}

// Names returns the score names in display order.
func (s Set) Names() []string {
	names := make([]string, len(s))
	for i, sc := range s {
		names[i] = sc.Name
	}
	return names
}

// Line formats one score as "<name>: <value>" with a fixed number of
// decimals. TeX markup in the name is rendered as plain text.
func (sc Score) Line(precision int) string {
	if precision < 0 {
		precision = DefaultPrecision
	}
	return typeset.Plain(sc.Name) + ": " + strconv.FormatFloat(sc.Value, 'f', precision, 64)
}

// Lines formats every score in order.
func (s Set) Lines(precision int) []string {
	lines := make([]string, len(s))
	for i, sc := range s {
		lines[i] = sc.Line(precision)
	}
	return lines
}

// Text joins Lines with line breaks.
func (s Set) Text(precision int) string {
	return strings.Join(s.Lines(precision), "\n")
}

// UnmarshalYAML accepts either a mapping (order preserved) or a sequence of
// {name, value} objects.
func (s *Set) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.MappingNode:
		out := make(Set, 0, len(node.Content)/2)
		for i := 0; i+1 < len(node.Content); i += 2 {
			var v float64
			if err := node.Content[i+1].Decode(&v); err != nil {
				return fmt.Errorf("score %q: %w", node.Content[i].Value, err)
			}
			out.Add(node.Content[i].Value, v)
		}
		*s = out
		return nil
	case yaml.SequenceNode:
		var items []Score
		if err := node.Decode(&items); err != nil {
			return err
		}
		*s = Set(items)
		return nil
	}
	return fmt.Errorf("scores must be a mapping or a sequence, got line %d", node.Line)
}

// UnmarshalJSON accepts either an object (key order preserved) or an array
// of {name, value} objects.
func (s *Set) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var items []Score
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return err
		}
		*s = Set(items)
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*s = nil
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("scores must be an object or an array")
	}
	out := Set{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := keyTok.(string)
		var v float64
		if err := dec.Decode(&v); err != nil {
			return fmt.Errorf("score %q: %w", key, err)
		}
		out.Add(key, v)
	}
	*s = out
	return nil
}

// MarshalJSON writes the set as an object in display order.
func (s Set) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, sc := range s {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(sc.Name)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(sc.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Metric names produced by Compute.
const (
	R2   = "R2"
	RMSE = "RMSE"
	MAE  = "MAE"
	Bias = "Bias"
)

// ErrLengthMismatch is returned when actual and predicted differ in length.
var ErrLengthMismatch = errors.New("actual and predicted lengths differ")

// Compute derives the standard regression scores from paired values:
// coefficient of determination, root mean squared error, mean absolute
// error and mean bias (predicted minus actual).
func Compute(actual, predicted []float64) (Set, error) {
	if len(actual) != len(predicted) {
		return nil, ErrLengthMismatch
	}
	if len(actual) == 0 {
		return nil, errors.New("no values to score")
	}

	n := len(actual)
	residuals := make([]float64, n)
	squared := make([]float64, n)
	absolute := make([]float64, n)
	for i := range actual {
		r := predicted[i] - actual[i]
		residuals[i] = r
		squared[i] = r * r
		absolute[i] = math.Abs(r)
	}

	mean := stats.Mean(actual)
	var ssTot float64
	for _, a := range actual {
		ssTot += (a - mean) * (a - mean)
	}
	mse := stats.Mean(squared)

	r2 := math.NaN()
	if ssTot > 0 {
		r2 = 1 - mse*float64(n)/ssTot
	}

	var out Set
	out.Add(R2, r2)
	out.Add(RMSE, math.Sqrt(mse))
	out.Add(MAE, stats.Mean(absolute))
	out.Add(Bias, stats.Mean(residuals))
	return out, nil
}

// Finite returns a copy of s without NaN or infinite values.
func (s Set) Finite() Set {
	out := make(Set, 0, len(s))
	for _, sc := range s {
		if math.IsNaN(sc.Value) || math.IsInf(sc.Value, 0) {
			continue
		}
		out = append(out, sc)
	}
	return out
}
