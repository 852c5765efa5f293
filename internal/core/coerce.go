package core

// coerce.go converts cells into canonical values for a declared column type.
//
// Canonical values are nil, bool, int64, float64, string, []any and
// map[string]any. Raw cells come straight from loosely formatted files, so
// numeric parsing of Raw text tolerates the usual spreadsheet artifacts:
//   - Currency symbols and thousands separators ("$1,234.50")
//   - Accounting negatives ("(12.50)")
//   - Surrounding whitespace
//
// String cells were typed as text by the source and are parsed strictly.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// numericRegex matches integers, decimals, and scientific notation after
// cleanup.
var numericRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// Coerce converts cell into a canonical value for decl.
//
// With no declared type the value is guessed. A single type either converts
// or fails with a ConversionError naming that type. A union tries each
// member in declared order and returns the first success; if all fail the
// ConversionError names every attempted type and wraps each attempt's error.
func Coerce(cell CellValue, decl TypeDecl) (any, error) {
	if decl.IsZero() {
		return guess(cell), nil
	}

	if len(decl) == 1 {
		v, err := coerceTo(cell, decl[0])
		trace(cell, decl[0], err)
		if err != nil {
			return nil, &Error{
				Kind:  KindConversion,
				Value: cell.Display(),
				Msg:   fmt.Sprintf("could not convert %s into %s", cell, decl[0]),
				Err:   err,
			}
		}
		return v, nil
	}

	attempts := make(unionError, 0, len(decl))
	for _, t := range decl {
		v, err := coerceTo(cell, t)
		trace(cell, t, err)
		if err == nil {
			return v, nil
		}
		attempts = append(attempts, fmt.Errorf("as %s: %w", t, err))
	}
	return nil, &Error{
		Kind:  KindConversion,
		Value: cell.Display(),
		Msg:   fmt.Sprintf("could not convert %s into any of %s", cell, decl),
		Err:   attempts,
	}
}

// unionError holds one error per attempted union member.
type unionError []error

func (u unionError) Error() string {
	parts := make([]string, len(u))
	for i, err := range u {
		parts[i] = err.Error()
	}
	return strings.Join(parts, "; ")
}

func (u unionError) Unwrap() []error { return u }

func trace(cell CellValue, t Type, err error) {
	logger := slog.Default()
	if !logger.Enabled(context.Background(), slog.LevelDebug) {
		return
	}
	logger.Debug("coerce attempt", "cell", cell.String(), "type", string(t), "ok", err == nil)
}

func coerceTo(cell CellValue, t Type) (any, error) {
	switch t {
	case TypeNull:
		if cell.kind == CellNull || cell.kind == CellEmpty {
			return nil, nil
		}
		return nil, errors.New("cannot reasonably convert a value into null")
	case TypeInteger:
		return toInteger(cell)
	case TypeNumber:
		return toNumber(cell)
	case TypeString:
		return toString(cell)
	case TypeBoolean:
		return toBoolean(cell)
	case TypeArray, TypeObject:
		return toStructured(cell, t)
	default:
		return nil, fmt.Errorf("unsupported type %q", t)
	}
}

func guess(cell CellValue) any {
	switch cell.kind {
	case CellNumber:
		return cell.numeric()
	case CellString:
		return cell.text
	case CellRaw:
		s := strings.TrimSpace(cell.text)
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return i
		}
		if numericRegex.MatchString(s) {
			if f, err := strconv.ParseFloat(s, 64); err == nil {
				return f
			}
		}
		return cell.text
	default:
		return nil
	}
}

// numericText extracts the text to parse as a number. Raw text goes
// through the lenient cleanup, String text is only trimmed.
func numericText(cell CellValue, what string) (string, error) {
	switch cell.kind {
	case CellRaw:
		return normalizeNumeric(cell.text), nil
	case CellString:
		return strings.TrimSpace(cell.text), nil
	case CellNull:
		return "", fmt.Errorf("%ss may not be null", what)
	case CellEmpty:
		return "", fmt.Errorf("an empty cell is not a valid %s", what)
	default:
		return "", fmt.Errorf("unexpected %s cell", cell.kind)
	}
}

func toInteger(cell CellValue) (any, error) {
	if cell.kind == CellNumber {
		if cell.isInt {
			return cell.i, nil
		}
		return integral(cell.f, formatFloat(cell.f))
	}

	s, err := numericText(cell, "integer")
	if err != nil {
		return nil, err
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i, nil
	}
	if numericRegex.MatchString(s) {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return integral(f, strconv.Quote(cell.text))
		}
	}
	return nil, fmt.Errorf("%q is not an integer", cell.text)
}

// integral converts a whole float to int64. text is the value as the
// caller saw it, used in errors so rounding never shows.
func integral(f float64, text string) (any, error) {
	if f != math.Trunc(f) {
		return nil, fmt.Errorf("%s is not an integer", text)
	}
	if f < math.MinInt64 || f >= math.MaxInt64 {
		return nil, fmt.Errorf("%s is out of int64 range", text)
	}
	return int64(f), nil
}

func toNumber(cell CellValue) (any, error) {
	if cell.kind == CellNumber {
		return cell.numeric(), nil
	}

	s, err := numericText(cell, "number")
	if err != nil {
		return nil, err
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i, nil
	}
	if !numericRegex.MatchString(s) {
		return nil, fmt.Errorf("%q is not a number", cell.text)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("%q is out of range: %w", cell.text, err)
	}
	return f, nil
}

// toString passes text through and stringifies numbers. Null is rejected
// and Empty becomes nil.
func toString(cell CellValue) (any, error) {
	switch cell.kind {
	case CellRaw, CellString:
		return cell.text, nil
	case CellNumber:
		return cell.Display(), nil
	case CellEmpty:
		return nil, nil
	default:
		return nil, errors.New("strings may not be null")
	}
}

func toBoolean(cell CellValue) (any, error) {
	switch cell.kind {
	case CellRaw, CellString:
		if b, ok := parseBool(cell.text); ok {
			return b, nil
		}
		return nil, fmt.Errorf("%q must be yes/no, true/false, or 1/0", cell.text)
	case CellNumber:
		f, _ := cell.Float()
		switch f {
		case 0:
			return false, nil
		case 1:
			return true, nil
		}
		return nil, fmt.Errorf("%s is not 0 or 1", cell.Display())
	case CellEmpty:
		return nil, errors.New("an empty cell is not a boolean")
	default:
		return nil, errors.New("booleans may not be null")
	}
}

func toStructured(cell CellValue, t Type) (any, error) {
	text, ok := cell.Text()
	if !ok {
		return nil, fmt.Errorf("a %s cell cannot hold an %s", cell.kind, t)
	}
	var v any
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &v); err != nil {
		return nil, fmt.Errorf("invalid JSON %s: %w", t, err)
	}
	switch v.(type) {
	case []any:
		if t == TypeArray {
			return v, nil
		}
	case map[string]any:
		if t == TypeObject {
			return v, nil
		}
	}
	return nil, fmt.Errorf("JSON value is not an %s", t)
}

// normalizeNumeric strips currency symbols and thousands separators and
// turns accounting negatives "(123.45)" into "-123.45".
func normalizeNumeric(s string) string {
	s = strings.TrimSpace(s)

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}

	s = strings.NewReplacer("$", "", "€", "", "£", "", ",", "").Replace(s)
	s = strings.TrimSpace(s)

	if negative {
		s = "-" + s
	}
	return s
}

// parseBool accepts true/false, yes/no, t/f, y/n and 1/0 in any case.
func parseBool(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "t", "yes", "y", "1":
		return true, true
	case "false", "f", "no", "n", "0":
		return false, true
	}
	return false, false
}

// cleanHeader removes spreadsheet artifacts from a header cell: whitespace,
// an Excel formula prefix (="...") and surrounding quotes.
func cleanHeader(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "=\"") && strings.HasSuffix(s, "\"") {
		s = s[2 : len(s)-1]
	} else if strings.HasPrefix(s, "=") {
		s = s[1:]
	}
	return strings.TrimSpace(strings.Trim(s, `"'`))
}
