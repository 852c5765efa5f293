package core

// row.go implements Row and row assembly.
//
// Assembly is driven by the template, not the input: declared columns are
// visited in declared order, input cells with no matching column are
// ignored, and every column failure of a row is collected into a single
// RowError.

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
)

// Row is one assembled record: column name to canonical value. Cells are
// written once; a second write under the same name is rejected.
type Row struct {
	template *Template
	line     int
	names    []string
	values   map[string]any
}

// NewRow returns an empty row for t.
func NewRow(t *Template) *Row {
	n := 0
	if t != nil {
		n = t.Len()
	}
	return &Row{template: t, names: make([]string, 0, n), values: make(map[string]any, n)}
}

// ToRow assembles cells into a row.
func (t *Template) ToRow(cells map[string]CellValue) (*Row, error) {
	return t.Assemble(0, cells)
}

// Assemble assembles cells into a row attributed to a source line. A line
// of 0 means the row is not tied to a line.
func (t *Template) Assemble(line int, cells map[string]CellValue) (*Row, error) {
	row := NewRow(t)
	row.line = line
	var errs []error

	for _, name := range t.order {
		col := t.columns[name]
		cell, ok := cells[name]
		if !ok {
			if col.Required {
				errs = append(errs, &Error{
					Kind:     KindNotFound,
					Template: t.name,
					Line:     line,
					Column:   name,
					Msg:      "required column not found",
				})
			}
			continue
		}

		v, err := Coerce(cell, col.Type)
		if err != nil {
			errs = append(errs, attribute(err, t.name, line, name, cell))
			continue
		}
		if err := row.AddCell(name, v); err != nil {
			errs = append(errs, attribute(err, t.name, line, name, cell))
		}
	}

	// Only coerced columns reach the constraint check.
	if t.isConstrained() {
		errs = append(errs, t.checkConstraints(line, row, cells)...)
	}
	if len(errs) > 0 {
		return nil, &RowError{Template: t.name, Line: line, Errs: errs}
	}
	return row, nil
}

func attribute(err error, template string, line int, column string, cell CellValue) error {
	e, ok := err.(*Error)
	if !ok {
		return &Error{Kind: KindConversion, Template: template, Line: line, Column: column, Value: cell.Display(), Err: err}
	}
	e = e.at(template, line, column)
	if e.Value == "" {
		e.Value = cell.Display()
	}
	return e
}

// AddCell stores value under name. A second write under the same name fails
// with a DuplicateKey error and the first value stays.
func (r *Row) AddCell(name string, value any) error {
	if _, exists := r.values[name]; exists {
		return &Error{
			Kind:   KindDuplicateKey,
			Column: name,
			Msg:    fmt.Sprintf("attempted to add a second column named %q", name),
		}
	}
	r.values[name] = value
	r.names = append(r.names, name)
	return nil
}

// Cell returns the value stored under name.
func (r *Row) Cell(name string) (any, error) {
	v, ok := r.values[name]
	if !ok {
		return nil, &Error{
			Kind:   KindNotFound,
			Line:   r.line,
			Column: name,
			Msg:    "no such cell; options are: " + strings.Join(r.names, ", "),
		}
	}
	return v, nil
}

// CellInto decodes the named cell into dst, which must be a pointer. The
// value is first checked against the column's schema when the row has a
// template.
func (r *Row) CellInto(name string, dst any) error {
	v, err := r.Cell(name)
	if err != nil {
		return err
	}
	if r.template != nil {
		if err := r.template.checkCell(name, v, r.line); err != nil {
			return err
		}
	}
	return decodeInto(v, dst, r.line, name)
}

// Line returns the source line the row came from, or 0.
func (r *Row) Line() int { return r.line }

// Template returns the template that produced the row.
func (r *Row) Template() *Template { return r.template }

// Len returns the number of stored cells.
func (r *Row) Len() int { return len(r.names) }

// Names returns the stored column names in insertion order.
func (r *Row) Names() []string { return slices.Clone(r.names) }

// Values returns a copy of the stored values.
func (r *Row) Values() map[string]any {
	out := make(map[string]any, len(r.values))
	for k, v := range r.values {
		out[k] = v
	}
	return out
}

// MarshalJSON encodes the row as an object with keys in insertion order.
func (r *Row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range r.names {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(r.values[name])
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", name, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Decode fills dst, a pointer to a struct or map, from the row. Struct
// fields are matched by their json tags.
func (r *Row) Decode(dst any) error {
	return decodeInto(r.values, dst, r.line, "")
}

// Deserialize decodes the row into a new T.
func Deserialize[T any](r *Row) (T, error) {
	var out T
	err := r.Decode(&out)
	return out, err
}

// DecodeWith builds a T from the row's canonical map using build. It is the
// alternative to Deserialize for types that cannot be decoded from tags.
func DecodeWith[T any](r *Row, build func(map[string]any) (T, error)) (T, error) {
	out, err := build(r.Values())
	if err != nil {
		var zero T
		if _, ok := err.(*Error); ok {
			return zero, err
		}
		return zero, &Error{Kind: KindConversion, Line: r.line, Msg: "could not build value from row", Err: err}
	}
	return out, nil
}

func decodeInto(v, dst any, line int, column string) error {
	data, err := json.Marshal(v)
	if err != nil {
		return &Error{Kind: KindConversion, Line: line, Column: column, Msg: "could not encode value", Err: err}
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return &Error{Kind: KindConversion, Line: line, Column: column, Msg: fmt.Sprintf("could not decode into %T", dst), Err: err}
	}
	return nil
}
