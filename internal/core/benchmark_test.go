package core

import (
	"context"
	"fmt"
	"testing"
)

// ============================================================================
// Coercion Benchmarks
// ============================================================================

// BenchmarkCoerce_Number covers the spreadsheet number forms seen on import.
func BenchmarkCoerce_Number(b *testing.B) {
	cells := []CellValue{
		RawCell("123"),
		RawCell("-456.78"),
		RawCell("$1,234.56"),
		RawCell("1,234,567.89"),
		RawCell("  999.99  "),
		FloatCell(12.5),
	}
	decl := Union(TypeNumber)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for _, c := range cells {
			_, _ = Coerce(c, decl)
		}
	}
}

// BenchmarkCoerce_Union measures the ordered member trial of a union.
func BenchmarkCoerce_Union(b *testing.B) {
	decl := Union(TypeInteger, TypeNumber, TypeBoolean, TypeString, TypeNull)
	cells := []CellValue{RawCell("42"), RawCell("4.2"), RawCell("true"), RawCell("text"), RawCell("")}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for _, c := range cells {
			_, _ = Coerce(c, decl)
		}
	}
}

// BenchmarkParseDate covers the loose-date layouts.
func BenchmarkParseDate(b *testing.B) {
	inputs := []string{
		"2024-01-15",
		"01/15/2024",
		"20240115",
		"1/5/24",
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for _, s := range inputs {
			_, _ = ParseDate(s)
		}
	}
}

// ============================================================================
// Row Assembly Benchmarks
// ============================================================================

func benchTemplate(b *testing.B, columns int) (*Template, map[string]CellValue) {
	b.Helper()
	t, err := NewTemplate("bench", nil)
	if err != nil {
		b.Fatal(err)
	}
	cells := make(map[string]CellValue, columns)
	for i := 0; i < columns; i++ {
		name := fmt.Sprintf("col_%d", i)
		var col *Schema
		switch i % 3 {
		case 0:
			col = &Schema{Type: Union(TypeInteger)}
			cells[name] = RawCell(fmt.Sprint(i))
		case 1:
			col = &Schema{Type: Union(TypeNumber, TypeNull)}
			cells[name] = RawCell("")
		default:
			col = &Schema{Type: Union(TypeString)}
			cells[name] = RawCell("value")
		}
		if err := t.AddColumn(name, col, i == 0); err != nil {
			b.Fatal(err)
		}
	}
	return t, cells
}

// BenchmarkAssemble is called once per line during an ingest.
func BenchmarkAssemble(b *testing.B) {
	t, cells := benchTemplate(b, 12)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := t.Assemble(i+1, cells); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkAssemble_Large benchmarks with many columns.
func BenchmarkAssemble_Large(b *testing.B) {
	t, cells := benchTemplate(b, 100)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := t.Assemble(i+1, cells); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkReconcile is called once per file to match the header line.
func BenchmarkReconcile(b *testing.B) {
	t, _ := benchTemplate(b, 50)
	observed, err := t.Headers()
	if err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, _, err := Reconcile("bench.csv", observed, t, ReconcileOptions{CaseInsensitive: true}); err != nil {
			b.Fatal(err)
		}
	}
}

// ============================================================================
// Fold Benchmarks
// ============================================================================

func BenchmarkFoldParallel(b *testing.B) {
	t, cells := benchTemplate(b, 12)
	lines := make([]map[string]CellValue, 1000)
	for i := range lines {
		lines[i] = cells
	}
	op := func(_ context.Context, i int, c map[string]CellValue) (*Row, error) {
		return t.Assemble(i+1, c)
	}

	for _, workers := range []int{1, 4} {
		b.Run(fmt.Sprintf("workers=%d", workers), func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				if _, err := FoldParallel(context.Background(), lines, workers, op); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
