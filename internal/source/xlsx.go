package source

// xlsx.go reads one worksheet of an Excel workbook as records.
//
// Workbook cells carry their own types, so they are handed to the reader
// already classified: numeric cells become Number, text cells become
// String, and booleans, dates and formula results stay Raw for the template
// to coerce. Blank cells are Empty. Rows with no values at all are skipped.

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/sheetrow/internal/core"
)

// XLSX is a core.RecordSource over a worksheet.
type XLSX struct {
	name   string
	file   *excelize.File
	sheet  string
	rows   *excelize.Rows
	row    int // worksheet row of the last record read
	width  int
	closed bool
}

// NewXLSX opens a workbook from r and positions it on opts.Sheet, or on the
// first sheet when that is empty.
func NewXLSX(name string, r io.Reader, opts Options) (*XLSX, error) {
	counted := NewCountingReader(r, opts.Size, opts.MaxBytes)
	f, err := excelize.OpenReader(counted)
	if err != nil {
		return nil, fmt.Errorf("open workbook %s: %w", name, err)
	}

	sheet := opts.Sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			_ = f.Close()
			return nil, &core.Error{Kind: core.KindBadValue, Msg: fmt.Sprintf("workbook %q has no worksheets", name)}
		}
		sheet = sheets[0]
	}
	if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		_ = f.Close()
		return nil, &core.Error{
			Kind:  core.KindNotFound,
			Value: sheet,
			Msg:   fmt.Sprintf("worksheet %q not found in %q; options are: %s", sheet, name, strings.Join(f.GetSheetList(), ", ")),
		}
	}

	rows, err := f.Rows(sheet)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("read worksheet %s: %w", sheet, err)
	}
	return &XLSX{name: name, file: f, sheet: sheet, rows: rows}, nil
}

// Name returns the source name.
func (x *XLSX) Name() string { return x.name }

// Sheet returns the worksheet being read.
func (x *XLSX) Sheet() string { return x.sheet }

// next advances to the next row that holds at least one value.
func (x *XLSX) next() ([]string, error) {
	for x.rows.Next() {
		x.row++
		cols, err := x.rows.Columns(excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, &core.Error{Kind: core.KindParse, Msg: fmt.Sprintf("worksheet row %d", x.row), Err: err}
		}
		for _, c := range cols {
			if strings.TrimSpace(c) != "" {
				return cols, nil
			}
		}
	}
	if err := x.rows.Error(); err != nil {
		return nil, err
	}
	return nil, io.EOF
}

// ReadHeader returns the first non-blank row as column names.
func (x *XLSX) ReadHeader() ([]string, error) {
	cols, err := x.next()
	if err != nil {
		return nil, err
	}
	x.width = len(cols)
	return cols, nil
}

// ReadRecord returns the next non-blank row with typed cells. Trailing
// blank cells up to the header width are Empty.
func (x *XLSX) ReadRecord() ([]core.CellValue, error) {
	cols, err := x.next()
	if err != nil {
		return nil, err
	}

	width := max(len(cols), x.width)
	cells := make([]core.CellValue, width)
	for i := range cells {
		if i >= len(cols) || cols[i] == "" {
			cells[i] = core.EmptyCell()
			continue
		}
		cells[i] = x.cell(i+1, cols[i])
	}
	return cells, nil
}

func (x *XLSX) cell(col int, raw string) core.CellValue {
	ref, err := excelize.CoordinatesToCellName(col, x.row)
	if err != nil {
		return core.RawCell(raw)
	}
	typ, err := x.file.GetCellType(x.sheet, ref)
	if err != nil {
		return core.RawCell(raw)
	}

	switch typ {
	case excelize.CellTypeSharedString, excelize.CellTypeInlineString:
		return core.StringCell(raw)
	case excelize.CellTypeNumber, excelize.CellTypeUnset:
		if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
			return core.IntCell(i)
		}
		if f, err := strconv.ParseFloat(raw, 64); err == nil {
			return core.FloatCell(f)
		}
		return core.RawCell(raw)
	case excelize.CellTypeBool:
		if raw == "1" {
			return core.RawCell("true")
		}
		if raw == "0" {
			return core.RawCell("false")
		}
	}
	return core.RawCell(raw)
}

// Close releases the worksheet iterator and the workbook. It is safe to
// call more than once.
func (x *XLSX) Close() error {
	if x.closed {
		return nil
	}
	x.closed = true
	rowsErr := x.rows.Close()
	if err := x.file.Close(); err != nil {
		return err
	}
	return rowsErr
}
