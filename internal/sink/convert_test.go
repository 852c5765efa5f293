package sink

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/sheetrow/internal/core"
)

func TestEncodeValue(t *testing.T) {
	tests := []struct {
		name    string
		pgType  string
		input   any
		want    any
		wantErr bool
	}{
		{name: "nil is NULL", pgType: "bigint", input: nil, want: nil},
		{name: "bigint", pgType: "bigint", input: int64(42), want: pgtype.Int8{Int64: 42, Valid: true}},
		{name: "bigint from whole float", pgType: "bigint", input: float64(7), want: pgtype.Int8{Int64: 7, Valid: true}},
		{name: "bigint from fraction", pgType: "bigint", input: 7.5, wantErr: true},
		{name: "boolean", pgType: "boolean", input: true, want: pgtype.Bool{Bool: true, Valid: true}},
		{name: "boolean from text", pgType: "boolean", input: "yes", wantErr: true},
		{name: "text", pgType: "text", input: "abc", want: pgtype.Text{String: "abc", Valid: true}},
		{name: "text from int", pgType: "text", input: int64(5), want: pgtype.Text{String: "5", Valid: true}},
		{name: "text from float", pgType: "text", input: 2.5, want: pgtype.Text{String: "2.5", Valid: true}},
		{name: "jsonb", pgType: "jsonb", input: []any{int64(1), "a"}, want: json.RawMessage(`[1,"a"]`)},
		{name: "date", pgType: "date", input: "3/15/2024", want: pgtype.Date{Time: time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), Valid: true}},
		{name: "bad date", pgType: "date", input: "soon", wantErr: true},
		{name: "numeric from text", pgType: "numeric", input: "1.5", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := encodeValue(tt.pgType, tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestToPgNumeric(t *testing.T) {
	tests := []struct {
		input any
		want  float64
	}{
		{int64(100), 100},
		{0.1, 0.1},
		{-1234.5678, -1234.5678},
	}
	for _, tt := range tests {
		num, err := toPgNumeric(tt.input)
		require.NoError(t, err)
		f, err := num.Float64Value()
		require.NoError(t, err)
		assert.InDelta(t, tt.want, f.Float64, 1e-9)
	}
}

func TestEncodeRow_AttributesFailure(t *testing.T) {
	tpl, err := core.NewTemplate("orders", nil)
	require.NoError(t, err)
	require.NoError(t, tpl.AddColumn("when", &core.Schema{Type: core.Single(core.TypeString), Format: "date"}, false))

	row := core.NewRow(tpl)
	require.NoError(t, row.AddCell("when", "not a date"))

	_, err = encodeRow(uuid.Nil, tpl.Columns(), row)
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrConversion)

	var e *core.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, "when", e.Column)
	assert.Equal(t, "orders", e.Template)
}
