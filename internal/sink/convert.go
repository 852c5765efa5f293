package sink

// convert.go turns canonical row values into pgtype values for COPY.
//
// Values arrive already coerced (int64, float64, string, bool, []any,
// map[string]any or nil), so conversion only bridges Go and PostgreSQL
// representations. nil always becomes NULL.

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/JonMunkholm/sheetrow/internal/core"
)

func encodeRow(ingestID uuid.UUID, cols []*core.Column, row *core.Row) ([]any, error) {
	values := row.Values()
	var template string
	if row.Template() != nil {
		template = row.Template().Name()
	}
	out := make([]any, 0, len(cols)+2)
	out = append(out, toPgUUID(ingestID), pgtype.Int4{Int32: int32(row.Line()), Valid: true})
	for _, c := range cols {
		v, err := encodeValue(ColumnType(c), values[c.Name])
		if err != nil {
			return nil, &core.Error{
				Kind:     core.KindConversion,
				Template: template,
				Line:     row.Line(),
				Column:   c.Name,
				Value:    fmt.Sprint(values[c.Name]),
				Msg:      "cannot store value",
				Err:      err,
			}
		}
		out = append(out, v)
	}
	return out, nil
}

func encodeValue(pgType string, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	switch pgType {
	case "bigint":
		return toPgInt8(v)
	case "numeric":
		return toPgNumeric(v)
	case "boolean":
		b, ok := v.(bool)
		if !ok {
			return nil, fmt.Errorf("expected boolean, got %T", v)
		}
		return pgtype.Bool{Bool: b, Valid: true}, nil
	case "date":
		return toPgDate(v)
	case "jsonb":
		data, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		return json.RawMessage(data), nil
	}
	return toPgText(v), nil
}

// toPgUUID converts a uuid.UUID to pgtype.UUID.
func toPgUUID(id uuid.UUID) pgtype.UUID {
	return pgtype.UUID{Bytes: id, Valid: true}
}

func toPgInt8(v any) (pgtype.Int8, error) {
	switch n := v.(type) {
	case int64:
		return pgtype.Int8{Int64: n, Valid: true}, nil
	case float64:
		if n == float64(int64(n)) {
			return pgtype.Int8{Int64: int64(n), Valid: true}, nil
		}
	}
	return pgtype.Int8{}, fmt.Errorf("expected integer, got %T", v)
}

// toPgNumeric converts an int64 or float64 to pgtype.Numeric through its
// decimal text so no binary float error is stored.
func toPgNumeric(v any) (pgtype.Numeric, error) {
	var s string
	switch n := v.(type) {
	case int64:
		s = strconv.FormatInt(n, 10)
	case float64:
		s = strconv.FormatFloat(n, 'f', -1, 64)
	default:
		return pgtype.Numeric{}, fmt.Errorf("expected number, got %T", v)
	}

	var num pgtype.Numeric
	if err := num.Scan(s); err != nil {
		return pgtype.Numeric{}, err
	}
	return num, nil
}

func toPgDate(v any) (pgtype.Date, error) {
	s, ok := v.(string)
	if !ok {
		return pgtype.Date{}, fmt.Errorf("expected date text, got %T", v)
	}
	t, err := core.ParseDate(s)
	if err != nil {
		return pgtype.Date{}, err
	}
	return pgtype.Date{Time: t, Valid: true}, nil
}

// toPgText converts any canonical value to pgtype.Text.
func toPgText(v any) pgtype.Text {
	switch s := v.(type) {
	case string:
		return pgtype.Text{String: s, Valid: true}
	case int64:
		return pgtype.Text{String: strconv.FormatInt(s, 10), Valid: true}
	case float64:
		return pgtype.Text{String: strconv.FormatFloat(s, 'f', -1, 64), Valid: true}
	}
	return pgtype.Text{String: fmt.Sprint(v), Valid: true}
}
