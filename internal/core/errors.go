package core

// errors.go defines the error taxonomy shared by every stage of row
// conversion.
//
// Three shapes cover all failures:
//   - *Error: one failure, classified by Kind and attributed to a template,
//     line and column where known
//   - *RowError: every column failure of one row, collected rather than
//     stopping at the first
//   - *ErrorGroup: every row failure of a batch
//
// All of them work with errors.Is against the Err* sentinels and with
// errors.As, so callers never parse messages.

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Kind classifies an Error.
type Kind uint8

const (
	KindNotFound Kind = iota + 1
	KindDuplicateKey
	KindConversion
	KindBadValue
	KindNotImplemented
	KindParse
)

// Sentinels matched by errors.Is for each Kind.
var (
	ErrNotFound       = errors.New("not found")
	ErrDuplicateKey   = errors.New("duplicate key")
	ErrConversion     = errors.New("conversion error")
	ErrBadValue       = errors.New("bad value")
	ErrNotImplemented = errors.New("not implemented")
	ErrParse          = errors.New("parse error")
)

func (k Kind) String() string {
	if s := k.sentinel(); s != nil {
		return s.Error()
	}
	return "Kind(" + strconv.Itoa(int(k)) + ")"
}

func (k Kind) sentinel() error {
	switch k {
	case KindNotFound:
		return ErrNotFound
	case KindDuplicateKey:
		return ErrDuplicateKey
	case KindConversion:
		return ErrConversion
	case KindBadValue:
		return ErrBadValue
	case KindNotImplemented:
		return ErrNotImplemented
	case KindParse:
		return ErrParse
	}
	return nil
}

// Error is a single classified failure.
type Error struct {
	Kind     Kind
	Template string // template name, if any
	Line     int    // 1-based data line, 0 when not tied to a line
	Column   string // column name, if any
	Value    string // offending cell as the user typed it
	Msg      string
	Err      error // underlying cause
}

func (e *Error) Error() string {
	if e.Line > 0 {
		return "line " + strconv.Itoa(e.Line) + ": " + e.detail()
	}
	return e.detail()
}

// detail renders everything except the line number.
func (e *Error) detail() string {
	var b strings.Builder
	if e.Column != "" {
		b.WriteString("column ")
		b.WriteString(strconv.Quote(e.Column))
		b.WriteString(": ")
	}
	if e.Msg != "" {
		b.WriteString(e.Msg)
	} else {
		b.WriteString(e.Kind.String())
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Is matches the sentinel of the error's Kind.
func (e *Error) Is(target error) bool {
	return target != nil && target == e.Kind.sentinel()
}

func (e *Error) Unwrap() error { return e.Err }

// at returns a copy attributed to the given row position.
func (e *Error) at(template string, line int, column string) *Error {
	c := *e
	if c.Template == "" {
		c.Template = template
	}
	if c.Line == 0 {
		c.Line = line
	}
	if c.Column == "" {
		c.Column = column
	}
	return &c
}

// KindOf returns the Kind of the first *Error in err's tree, or 0.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// RowError collects every failure of one row.
type RowError struct {
	Template string
	Line     int
	Errs     []error
}

func (e *RowError) Error() string {
	var b strings.Builder
	if e.Line > 0 {
		b.WriteString("line ")
		b.WriteString(strconv.Itoa(e.Line))
		b.WriteString(": ")
	}
	if len(e.Errs) > 1 {
		b.WriteString(strconv.Itoa(len(e.Errs)))
		b.WriteString(" errors: ")
	}
	for i, err := range e.Errs {
		if i > 0 {
			b.WriteString("; ")
		}
		var ce *Error
		if errors.As(err, &ce) {
			b.WriteString(ce.detail())
			continue
		}
		b.WriteString(err.Error())
	}
	return b.String()
}

func (e *RowError) Unwrap() []error { return e.Errs }

// Columns lists the columns the row's failures are attributed to.
func (e *RowError) Columns() []string {
	var cols []string
	for _, err := range e.Errs {
		var ce *Error
		if errors.As(err, &ce) && ce.Column != "" {
			cols = append(cols, ce.Column)
		}
	}
	return cols
}

// ErrorGroup is an ordered collection of errors. The zero value is empty
// and ready to use.
type ErrorGroup[E error] struct {
	errs []E
}

// Add appends err.
func (g *ErrorGroup[E]) Add(err E) { g.errs = append(g.errs, err) }

// Len returns the number of collected errors.
func (g *ErrorGroup[E]) Len() int {
	if g == nil {
		return 0
	}
	return len(g.errs)
}

// Errors returns the collected errors in insertion order.
func (g *ErrorGroup[E]) Errors() []E {
	if g == nil {
		return nil
	}
	return g.errs
}

func (g *ErrorGroup[E]) Error() string {
	if len(g.errs) == 1 {
		return g.errs[0].Error()
	}
	lines := make([]string, len(g.errs))
	for i, err := range g.errs {
		lines[i] = err.Error()
	}
	return fmt.Sprintf("%d errors occurred:\n  - %s", len(g.errs), strings.Join(lines, "\n  - "))
}

func (g *ErrorGroup[E]) Unwrap() []error {
	out := make([]error, len(g.errs))
	for i, err := range g.errs {
		out[i] = err
	}
	return out
}

// ErrOrNil returns the group as an error, or nil if it is empty.
func (g *ErrorGroup[E]) ErrOrNil() error {
	if g.Len() == 0 {
		return nil
	}
	return g
}

// Failure is the flat, operator-facing view of one attributed error.
type Failure struct {
	Line    int    `json:"line,omitempty"`
	Column  string `json:"column,omitempty"`
	Value   string `json:"value,omitempty"`
	Kind    string `json:"kind,omitempty"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

// Failures flattens err into one Failure per leaf. Row errors expand into
// their column errors; groups expand into their members.
func Failures(err error) []Failure {
	if err == nil {
		return nil
	}
	var out []Failure
	var walk func(err error, line int)
	walk = func(err error, line int) {
		switch e := err.(type) {
		case *Error:
			f := Failure{Line: e.Line, Column: e.Column, Value: e.Value, Kind: e.Kind.String(), Code: e.Kind.Code(), Message: e.Msg}
			if f.Line == 0 {
				f.Line = line
			}
			if e.Err != nil {
				if f.Message == "" {
					f.Message = e.Err.Error()
				} else {
					f.Message += ": " + e.Err.Error()
				}
			}
			out = append(out, f)
		case *RowError:
			for _, child := range e.Errs {
				walk(child, e.Line)
			}
		case interface{ Unwrap() []error }:
			for _, child := range e.Unwrap() {
				walk(child, line)
			}
		default:
			var ce *Error
			if errors.As(err, &ce) {
				walk(ce, line)
				return
			}
			out = append(out, Failure{Line: line, Message: err.Error()})
		}
	}
	walk(err, 0)
	return out
}
