package source

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/sheetrow/internal/core"
)

func peopleTemplate(t *testing.T) *core.Template {
	t.Helper()
	tpl, err := core.NewTemplate("people", nil)
	require.NoError(t, err)
	require.NoError(t, tpl.AddColumn("name", core.ColumnSchema(core.Single(core.TypeString)), true))
	require.NoError(t, tpl.AddColumn("age", core.ColumnSchema(core.Single(core.TypeInteger)), true))
	return tpl
}

func TestCSV_EndToEnd(t *testing.T) {
	src, err := NewCSV("people.csv", strings.NewReader("name,age\nAlice,30\nBob,notanumber\n"), Options{})
	require.NoError(t, err)

	res, err := core.NewReader(src, core.ReaderOptions{Template: peopleTemplate(t)}).Collect()
	require.NoError(t, err)

	require.Len(t, res.Items(), 1)
	assert.Equal(t, map[string]any{"name": "Alice", "age": int64(30)}, res.Items()[0].Values())

	failures := res.Failures()
	require.Len(t, failures, 1)
	assert.Equal(t, 2, failures[0].Line)
	assert.Equal(t, "age", failures[0].Column)
	assert.Equal(t, "notanumber", failures[0].Value)
	assert.Equal(t, 2, len(res.Items())+len(res.Errors()))
}

func TestCSV_Records(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		opts   Options
		header []string
		want   [][]core.CellValue
	}{
		{
			name:   "empty field is Empty",
			input:  "a,b\n1,\n",
			header: []string{"a", "b"},
			want:   [][]core.CellValue{{core.RawCell("1"), core.EmptyCell()}},
		},
		{
			name:   "quoted fields",
			input:  "a,b\n\"x, y\",\"say \"\"hi\"\"\"\n",
			header: []string{"a", "b"},
			want:   [][]core.CellValue{{core.RawCell("x, y"), core.RawCell(`say "hi"`)}},
		},
		{
			name:   "semicolon delimiter",
			input:  "a;b\n1;2\n",
			opts:   Options{Delimiter: ';'},
			header: []string{"a", "b"},
			want:   [][]core.CellValue{{core.RawCell("1"), core.RawCell("2")}},
		},
		{
			name:   "comments skipped",
			input:  "a\n# note\n1\n",
			opts:   Options{Comment: '#'},
			header: []string{"a"},
			want:   [][]core.CellValue{{core.RawCell("1")}},
		},
		{
			name:   "trim space",
			input:  "a,b\n  1 , \n",
			opts:   Options{TrimSpace: true},
			header: []string{"a", "b"},
			want:   [][]core.CellValue{{core.RawCell("1"), core.EmptyCell()}},
		},
		{
			name:   "flexible field count",
			input:  "a,b\n1\n1,2,3\n",
			opts:   Options{Flexible: true},
			header: []string{"a", "b"},
			want: [][]core.CellValue{
				{core.RawCell("1")},
				{core.RawCell("1"), core.RawCell("2"), core.RawCell("3")},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src, err := NewCSV("in.csv", strings.NewReader(tt.input), tt.opts)
			require.NoError(t, err)

			header, err := src.ReadHeader()
			require.NoError(t, err)
			assert.Equal(t, tt.header, header)

			var got [][]core.CellValue
			for {
				rec, err := src.ReadRecord()
				if err == io.EOF {
					break
				}
				require.NoError(t, err)
				got = append(got, rec)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCSV_MalformedRecordSpoilsOneLine(t *testing.T) {
	src, err := NewCSV("bad.csv", strings.NewReader("name,age\nAlice,30\nBob\nCarol,41\n"), Options{})
	require.NoError(t, err)

	res, err := core.NewReader(src, core.ReaderOptions{Template: peopleTemplate(t)}).Collect()
	require.NoError(t, err)

	assert.Len(t, res.Items(), 2)
	require.Len(t, res.Errors(), 1)
	assert.ErrorIs(t, res.Errors()[0], core.ErrParse)

	failures := res.Failures()
	require.Len(t, failures, 1)
	assert.Equal(t, 2, failures[0].Line)
	assert.Equal(t, "Bob", failures[0].Value)
}

func TestCSV_BlankLinesAreNotRecords(t *testing.T) {
	src, err := NewCSV("people.csv", strings.NewReader("name,age\nAlice,30\n\nBob,notanumber\n"), Options{})
	require.NoError(t, err)

	res, err := core.NewReader(src, core.ReaderOptions{Template: peopleTemplate(t)}).Collect()
	require.NoError(t, err)
	require.Len(t, res.Items(), 1)

	failures := res.Failures()
	require.Len(t, failures, 1)
	assert.Equal(t, 2, failures[0].Line, "lines count data records, as in XLSX")
}

func TestCSV_BOMDoesNotLeakIntoHeader(t *testing.T) {
	input := "\xEF\xBB\xBFname,age\nAlice,30\n"
	src, err := NewCSV("bom.csv", strings.NewReader(input), Options{})
	require.NoError(t, err)

	row, err := core.NewReader(src, core.ReaderOptions{Template: peopleTemplate(t)}).Next()
	require.NoError(t, err)
	assert.Equal(t, "Alice", row.Values()["name"])
}

func TestCSV_Latin1(t *testing.T) {
	src, err := NewCSV("l1.csv", strings.NewReader("name,age\nJos\xe9,30\n"), Options{Charset: "latin1"})
	require.NoError(t, err)

	row, err := core.NewReader(src, core.ReaderOptions{Template: peopleTemplate(t)}).Next()
	require.NoError(t, err)
	assert.Equal(t, "José", row.Values()["name"])
}

func TestCSV_TooLargeIsTerminal(t *testing.T) {
	input := "name,age\n" + strings.Repeat("Alice,30\n", 1000)
	src, err := NewCSV("big.csv", strings.NewReader(input), Options{MaxBytes: 64})
	require.NoError(t, err)

	_, err = core.NewReader(src, core.ReaderOptions{Template: peopleTemplate(t)}).Collect()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTooLarge)
	assert.Equal(t, "SRC001", core.MapError(err).Code)
}

type closeCounter struct {
	io.Reader
	closed int
}

func (c *closeCounter) Close() error {
	c.closed++
	return nil
}

func TestCSV_CloseOnce(t *testing.T) {
	rc := &closeCounter{Reader: strings.NewReader("a\n")}
	src, err := NewCSV("c.csv", rc, Options{})
	require.NoError(t, err)

	require.NoError(t, src.Close())
	require.NoError(t, src.Close())
	assert.Equal(t, 1, rc.closed)
}

func TestCSV_DelimiterEqualsComment(t *testing.T) {
	_, err := NewCSV("x.csv", strings.NewReader(""), Options{Delimiter: '#', Comment: '#'})
	assert.ErrorIs(t, err, core.ErrBadValue)
}
