package core

// cell.go defines CellValue, the value a record source produces for one
// position of a record before any template is applied.
//
// Sources never decide what a cell means. A CSV reader only knows that a
// field was blank ("" -> Empty) or carried text (Raw); a spreadsheet reader
// additionally knows when a cell was stored as a number or a string. The
// coercion engine turns these into canonical values once a column type is
// known.

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// CellKind discriminates the CellValue variants.
type CellKind uint8

const (
	// CellNull means the record has no column at this position.
	CellNull CellKind = iota
	// CellEmpty means the column is present but explicitly blank.
	CellEmpty
	// CellRaw is unparsed text as read from the source.
	CellRaw
	// CellNumber is a numeric value the source already typed.
	CellNumber
	// CellString is text the source knows to be a string.
	CellString
)

func (k CellKind) String() string {
	switch k {
	case CellNull:
		return "null"
	case CellEmpty:
		return "empty"
	case CellRaw:
		return "raw"
	case CellNumber:
		return "number"
	case CellString:
		return "string"
	default:
		return fmt.Sprintf("CellKind(%d)", uint8(k))
	}
}

// CellValue is an immutable tagged cell. The zero value is Null.
type CellValue struct {
	kind  CellKind
	text  string
	i     int64
	f     float64
	isInt bool
}

// NullCell returns a cell for a position the record does not have.
func NullCell() CellValue { return CellValue{kind: CellNull} }

// EmptyCell returns a present-but-blank cell.
func EmptyCell() CellValue { return CellValue{kind: CellEmpty} }

// RawCell returns an unparsed text cell.
func RawCell(s string) CellValue { return CellValue{kind: CellRaw, text: s} }

// StringCell returns a known-text cell.
func StringCell(s string) CellValue { return CellValue{kind: CellString, text: s} }

// IntCell returns an integral number cell.
func IntCell(i int64) CellValue { return CellValue{kind: CellNumber, i: i, isInt: true} }

// FloatCell returns a floating point number cell.
func FloatCell(f float64) CellValue { return CellValue{kind: CellNumber, f: f} }

// CellsFromStrings maps a record of plain fields to cells: "" becomes Empty
// and everything else Raw.
func CellsFromStrings(fields []string) []CellValue {
	cells := make([]CellValue, len(fields))
	for i, f := range fields {
		if f == "" {
			cells[i] = EmptyCell()
			continue
		}
		cells[i] = RawCell(f)
	}
	return cells
}

// Kind reports the variant.
func (c CellValue) Kind() CellKind { return c.kind }

// IsNull reports whether the cell is Null.
func (c CellValue) IsNull() bool { return c.kind == CellNull }

// IsEmpty reports whether the cell is Empty.
func (c CellValue) IsEmpty() bool { return c.kind == CellEmpty }

// Text returns the text of a Raw or String cell.
func (c CellValue) Text() (string, bool) {
	if c.kind == CellRaw || c.kind == CellString {
		return c.text, true
	}
	return "", false
}

// Int returns the value of an integral Number cell.
func (c CellValue) Int() (int64, bool) {
	if c.kind == CellNumber && c.isInt {
		return c.i, true
	}
	return 0, false
}

// Float returns the value of any Number cell as a float64.
func (c CellValue) Float() (float64, bool) {
	if c.kind != CellNumber {
		return 0, false
	}
	if c.isInt {
		return float64(c.i), true
	}
	return c.f, true
}

// numeric returns the canonical Go value of a Number cell.
func (c CellValue) numeric() any {
	if c.isInt {
		return c.i
	}
	return c.f
}

// Display renders the cell the way a user typed it. Null and Empty render
// as the empty string.
func (c CellValue) Display() string {
	switch c.kind {
	case CellRaw, CellString:
		return c.text
	case CellNumber:
		if c.isInt {
			return strconv.FormatInt(c.i, 10)
		}
		return formatFloat(c.f)
	default:
		return ""
	}
}

// String renders the variant and payload for diagnostics, e.g. Raw("abc").
func (c CellValue) String() string {
	switch c.kind {
	case CellNull:
		return "Null"
	case CellEmpty:
		return "Empty"
	case CellRaw:
		return "Raw(" + strconv.Quote(c.text) + ")"
	case CellString:
		return "String(" + strconv.Quote(c.text) + ")"
	case CellNumber:
		return "Number(" + c.Display() + ")"
	default:
		return c.kind.String()
	}
}

// Equal reports whether two cells hold the same variant and payload.
func (c CellValue) Equal(o CellValue) bool {
	if c.kind != o.kind {
		return false
	}
	switch c.kind {
	case CellRaw, CellString:
		return c.text == o.text
	case CellNumber:
		if c.isInt && o.isInt {
			return c.i == o.i
		}
		a, _ := c.Float()
		b, _ := o.Float()
		return a == b
	default:
		return true
	}
}

func formatFloat(f float64) string {
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if len(s) > 24 {
		s = strconv.FormatFloat(f, 'g', -1, 64)
	}
	return strings.TrimSuffix(s, ".")
}
