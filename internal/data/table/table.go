// Package table reads observation tables (actual, predicted, class) from
// delimited text files.
package table

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/lcz-tools/predplot/internal/data/source"
	"github.com/lcz-tools/predplot/internal/palette"
	"github.com/lcz-tools/predplot/internal/plot"
)

// Columns names the header fields to read. Matching ignores case and
// surrounding whitespace.
type Columns struct {
	Actual    string `yaml:"actual"`
	Predicted string `yaml:"predicted"`
	// Class is optional; when the header has no such column every row is
	// unclassed.
	Class string `yaml:"class"`
}

// DefaultColumns returns the conventional column names.
func DefaultColumns() Columns {
	return Columns{Actual: "actual", Predicted: "predicted", Class: "class"}
}

func (c Columns) withDefaults() Columns {
	d := DefaultColumns()
	if c.Actual == "" {
		c.Actual = d.Actual
	}
	if c.Predicted == "" {
		c.Predicted = d.Predicted
	}
	if c.Class == "" {
		c.Class = d.Class
	}
	return c
}

// Error reports a malformed table cell or header.
type Error struct {
	Source string
	Line   int
	Column string
	Err    error
}

func (e *Error) Error() string {
	switch {
	case e.Line > 0 && e.Column != "":
		return fmt.Sprintf("%s:%d: column %s: %v", e.Source, e.Line, e.Column, e.Err)
	case e.Line > 0:
		return fmt.Sprintf("%s:%d: %v", e.Source, e.Line, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Source, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

var (
	// ErrMissingColumn is returned when a required column is absent.
	ErrMissingColumn = errors.New("missing column")
	// ErrMissingValue is returned for an empty numeric cell.
	ErrMissingValue = errors.New("missing value")
)

// Read loads rows from path. Files ending in .tsv are tab separated, all
// others comma separated; .gz and .zst files are decompressed.
func Read(path string, cols Columns) ([]plot.Row, error) {
	rc, err := source.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open table: %w", err)
	}
	defer rc.Close()

	comma := ','
	if source.Ext(path) == ".tsv" {
		comma = '\t'
	}
	return Decode(rc, path, comma, cols)
}

// Decode reads rows from r. name labels errors.
func Decode(r io.Reader, name string, comma rune, cols Columns) ([]plot.Row, error) {
	cols = cols.withDefaults()

	cr := csv.NewReader(r)
	cr.Comma = comma
	cr.Comment = '#'
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, &Error{Source: name, Err: errors.New("empty table")}
	}
	if err != nil {
		return nil, &Error{Source: name, Err: err}
	}

	index := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimPrefix(h, "\ufeff")
		index[strings.ToLower(strings.TrimSpace(h))] = i
	}
	lookup := func(col string) (int, bool) {
		i, ok := index[strings.ToLower(strings.TrimSpace(col))]
		return i, ok
	}

	actualIdx, ok := lookup(cols.Actual)
	if !ok {
		return nil, &Error{Source: name, Line: 1, Column: cols.Actual, Err: ErrMissingColumn}
	}
	predIdx, ok := lookup(cols.Predicted)
	if !ok {
		return nil, &Error{Source: name, Line: 1, Column: cols.Predicted, Err: ErrMissingColumn}
	}
	classIdx, hasClass := lookup(cols.Class)

	var rows []plot.Row
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &Error{Source: name, Err: err}
		}
		line, _ := cr.FieldPos(0)

		actual, err := parseFloat(record[actualIdx])
		if err != nil {
			return nil, &Error{Source: name, Line: line, Column: cols.Actual, Err: err}
		}
		predicted, err := parseFloat(record[predIdx])
		if err != nil {
			return nil, &Error{Source: name, Line: line, Column: cols.Predicted, Err: err}
		}
		row := plot.Row{Actual: actual, Predicted: predicted}
		if hasClass {
			row.Class = palette.ParseCode(record[classIdx])
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func parseFloat(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrMissingValue
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", s)
	}
	return v, nil
}
