// Package core converts loosely typed tabular records into validated rows.
//
// The package has no transport or storage dependencies. Record sources
// (CSV, XLSX) live in internal/source; persistence lives in internal/sink.
//
// # Pipeline
//
//	RecordSource -> Reader (header reconciliation) -> Template.Assemble
//	             -> Coerce per column -> Row | RowError -> BatchResult
//
// # Templates
//
// A [Template] declares columns: a name, a [TypeDecl] (one type, an ordered
// union, or nothing), and a required flag. Templates are built from a
// JSON-Schema style [Schema] document, from a Go struct with [FromType], or
// from a header line with [FromHeaders]:
//
//	t, err := core.FromType(Person{})
//	row, err := t.ToRow(map[string]core.CellValue{
//	    "name": core.RawCell("Alice"),
//	    "age":  core.RawCell("30"),
//	})
//	p, err := core.Deserialize[Person](row)
//
// # Cells
//
// A [CellValue] distinguishes Null (no such column in this record) from
// Empty (column present, blank). The distinction matters: a string column
// accepts Empty as a missing value but rejects Null.
//
// # Batches
//
// [Fold], [FoldSeq] and [FoldParallel] never stop at the first failure.
// Every input ends up either in [BatchResult.Items] or in
// [BatchResult.Err], each failure attributed to its line and column.
// Callers pick the policy:
//
//	res, err := reader.Collect()
//	rows, err := res.Strict()       // all or nothing
//	rows, failed := res.Items(), res.Failures() // keep what converted
//
// # Errors
//
// Every failure is an [*Error] with a [Kind] that matches one of the
// sentinels ([ErrNotFound], [ErrDuplicateKey], [ErrConversion],
// [ErrBadValue], [ErrNotImplemented], [ErrParse]) via errors.Is. [MapError]
// turns any of them into a user message with a support code.
package core
