package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/sheetrow/internal/ingest"
)

const ordersDef = `name: orders
fields:
  - name: id
    type: integer
    required: true
  - name: amount
    type: numeric
    allow_empty: true
  - name: name
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// run executes the root command and returns stdout, stderr and the error.
func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestValidate(t *testing.T) {
	dir := t.TempDir()
	def := writeFile(t, dir, "orders.yaml", ordersDef)
	good := writeFile(t, dir, "good.csv", "id,amount,name\n1,9.5,ann\n2,,bob\n")
	bad := writeFile(t, dir, "bad.csv", "id,amount,name\n1,9.5,ann\nx,2,bob\n3,,cy\n")

	t.Run("all lines pass", func(t *testing.T) {
		out, _, err := run(t, "validate", good, "--schema", def)
		require.NoError(t, err)
		assert.Contains(t, out, "template orders, 2 lines, 2 ok, 0 failed")
	})

	t.Run("failed line", func(t *testing.T) {
		failed := filepath.Join(dir, "failed.csv")
		out, _, err := run(t, "validate", bad, "-s", def, "--failed", failed)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "1 of 3 lines failed")
		assert.Contains(t, out, "line 2, id")
		assert.Contains(t, out, `(value "x")`)

		data, err := os.ReadFile(failed)
		require.NoError(t, err)
		lines := strings.Split(strings.TrimSpace(string(data)), "\n")
		require.Len(t, lines, 2)
		assert.Equal(t, "_line,_column,_value,_code,_error", lines[0])
		assert.True(t, strings.HasPrefix(lines[1], "2,id,x,"), lines[1])
	})

	t.Run("strict rejects the file", func(t *testing.T) {
		_, _, err := run(t, "validate", bad, "-s", def, "--strict")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "rejected in strict mode")
	})

	t.Run("json report", func(t *testing.T) {
		out, _, err := run(t, "validate", bad, "-s", def, "-f", "json", "-w", "3")
		require.Error(t, err)

		var report ingest.Report
		require.NoError(t, json.Unmarshal([]byte(out), &report))
		assert.Equal(t, 3, report.Lines)
		assert.Equal(t, 2, report.Succeeded)
		assert.Equal(t, 1, report.Failed)
		assert.True(t, report.DryRun)
	})

	t.Run("template from directory", func(t *testing.T) {
		out, _, err := run(t, "validate", good, "--templates-dir", dir, "-t", "orders")
		require.NoError(t, err)
		assert.Contains(t, out, "2 ok")
	})

	t.Run("synthesized template", func(t *testing.T) {
		out, _, err := run(t, "validate", bad)
		require.NoError(t, err)
		assert.Contains(t, out, "template bad.csv, 3 lines, 3 ok")
	})

	t.Run("missing required header", func(t *testing.T) {
		noID := writeFile(t, dir, "noid.csv", "amount,name\n1,ann\n")
		out, _, err := run(t, "validate", noID, "-s", def)
		require.Error(t, err)
		assert.Contains(t, out, "HDR001")
	})
}

func TestValidate_Errors(t *testing.T) {
	dir := t.TempDir()
	def := writeFile(t, dir, "orders.yaml", ordersDef)
	csv := writeFile(t, dir, "orders.csv", "id\n1\n")

	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "template and schema", args: []string{"validate", csv, "-t", "orders", "-s", def}, want: "either --template or --schema"},
		{name: "unknown template", args: []string{"validate", csv, "-t", "nope"}, want: "template not found"},
		{name: "bad format", args: []string{"validate", csv, "-f", "xml"}, want: "unsupported format"},
		{name: "unsupported file", args: []string{"validate", filepath.Join(dir, "orders.pdf")}, want: "unsupported file type"},
		{name: "bad delimiter", args: []string{"validate", csv, "--delimiter", ";;"}, want: "single character"},
		{name: "no file", args: []string{"validate"}, want: "accepts 1 arg"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := run(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestConvert(t *testing.T) {
	dir := t.TempDir()
	def := writeFile(t, dir, "orders.yaml", ordersDef)
	src := writeFile(t, dir, "orders.tsv", "ID\tAmount\tName\n1\t9.5\tann\nx\t\tbob\n3\t\tcy\n")

	out, errOut, err := run(t, "convert", src, "-s", def, "-i")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 3 lines failed")
	assert.Contains(t, errOut, "line 2: id:")

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.JSONEq(t, `{"id":1,"amount":9.5,"name":"ann"}`, lines[0])
	assert.JSONEq(t, `{"id":3,"amount":null,"name":"cy"}`, lines[1])
}

func TestInfer(t *testing.T) {
	dir := t.TempDir()
	src := writeFile(t, dir, "export.csv", "Customer,Total\nann,1\n")

	out, _, err := run(t, "infer", src)
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Equal(t, "export", doc["title"])
	assert.Equal(t, []any{"Customer", "Total"}, doc["x-columns"])

	out, _, err = run(t, "infer", src, "--name", "totals", "--format", "yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "title: totals")
	assert.True(t, strings.HasSuffix(out, "\n") && !strings.HasSuffix(out, "\n\n"))
}

func TestTemplatesAndSchema(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "orders.yaml", ordersDef)

	out, _, err := run(t, "templates", "--templates-dir", dir, "--no-builtins")
	require.NoError(t, err)
	assert.Equal(t, "orders\tid*, amount, name\n", out)

	out, _, err = run(t, "templates")
	require.NoError(t, err)
	assert.Contains(t, out, "anrok_transactions\t")

	out, _, err = run(t, "schema", "orders", "--templates-dir", dir)
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Equal(t, []any{"id"}, doc["required"])

	_, _, err = run(t, "schema", "missing")
	require.Error(t, err)
}

func TestSingleRune(t *testing.T) {
	tests := []struct {
		in      string
		want    rune
		wantErr bool
	}{
		{in: "", want: 0},
		{in: ";", want: ';'},
		{in: `\t`, want: '\t'},
		{in: "|", want: '|'},
		{in: "ab", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := singleRune("delimiter", tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
