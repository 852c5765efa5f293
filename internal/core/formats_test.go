package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{input: "2024-03-15", want: "2024-03-15"},
		{input: "3/15/2024", want: "2024-03-15"},
		{input: "03/15/2024", want: "2024-03-15"},
		{input: "15.03.2024", wantErr: true},
		{input: "Mar 15, 2024", want: "2024-03-15"},
		{input: "15 Mar 2024", want: "2024-03-15"},
		{input: "20240315", want: "2024-03-15"},
		{input: "3/15/24", want: "2024-03-15"},
		{input: "1/1/99", want: "1999-01-01"},
		{input: "yesterday", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseDate(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrConversion)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Format(time.DateOnly))
		})
	}
}

func TestNormalizeUSState(t *testing.T) {
	tests := []struct {
		input  string
		want   string
		wantOK bool
	}{
		{"California", "CA", true},
		{" new york ", "NY", true},
		{"tx", "TX", true},
		{"Ontario", "Ontario", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := NormalizeUSState(tt.input)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantOK, ok)
		})
	}
}

func TestCustomFormatsInConstraints(t *testing.T) {
	tpl, err := NewTemplate("addresses", nil)
	require.NoError(t, err)
	require.NoError(t, tpl.AddColumn("state", &Schema{Type: Single(TypeString), Format: FormatUSState}, true))
	require.NoError(t, tpl.AddColumn("since", &Schema{Type: Single(TypeString), Format: FormatLooseDate}, false))

	_, err = tpl.ToRow(map[string]CellValue{"state": RawCell("Texas"), "since": RawCell("1/2/2020")})
	require.NoError(t, err)

	_, err = tpl.Assemble(3, map[string]CellValue{"state": RawCell("Narnia"), "since": RawCell("someday")})
	require.Error(t, err)
	var rowErr *RowError
	require.ErrorAs(t, err, &rowErr)
	assert.ElementsMatch(t, []string{"state", "since"}, rowErr.Columns())
}
