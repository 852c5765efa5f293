package ingest

import (
	"encoding/csv"
	"io"
	"strconv"
)

// FailedHeader is the header line of a failed-rows export.
var FailedHeader = []string{"_line", "_column", "_value", "_code", "_error"}

// WriteFailed writes a report's failures as CSV, one line per failed cell.
func WriteFailed(w io.Writer, r Report) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(FailedHeader); err != nil {
		return err
	}
	for _, f := range r.Failures {
		record := []string{strconv.Itoa(f.Line), f.Column, f.Value, f.Code, f.Message}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
