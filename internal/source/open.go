// Package source provides record sources for the row reader: delimited
// text through encoding/csv and Excel workbooks through excelize.
package source

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/JonMunkholm/sheetrow/internal/core"
)

// Kind names a source format.
type Kind string

const (
	KindCSV  Kind = "csv"
	KindTSV  Kind = "tsv"
	KindXLSX Kind = "xlsx"
)

// KindOf picks the format from a file name's extension.
func KindOf(name string) (Kind, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv", ".txt":
		return KindCSV, nil
	case ".tsv", ".tab":
		return KindTSV, nil
	case ".xlsx", ".xlsm":
		return KindXLSX, nil
	}
	return "", &core.Error{
		Kind:  core.KindBadValue,
		Value: name,
		Msg:   fmt.Sprintf("unsupported file type %q", filepath.Ext(name)),
	}
}

// New returns a source of the given kind over r.
func New(kind Kind, name string, r io.Reader, opts Options) (core.RecordSource, error) {
	switch kind {
	case KindCSV:
		return NewCSV(name, r, opts)
	case KindTSV:
		if opts.Delimiter == 0 {
			opts.Delimiter = '\t'
		}
		return NewCSV(name, r, opts)
	case KindXLSX:
		src, err := NewXLSX(name, r, opts)
		if c, ok := r.(io.Closer); ok {
			_ = c.Close()
		}
		if err != nil {
			return nil, err
		}
		return src, nil
	}
	return nil, &core.Error{Kind: core.KindBadValue, Value: string(kind), Msg: fmt.Sprintf("unsupported file type %q", kind)}
}

// Detect is New with the kind chosen from name.
func Detect(name string, r io.Reader, opts Options) (core.RecordSource, error) {
	kind, err := KindOf(name)
	if err != nil {
		return nil, err
	}
	return New(kind, name, r, opts)
}

// Open opens the file at path and returns a source for it. The file is
// closed with the source.
func Open(path string, opts Options) (core.RecordSource, error) {
	kind, err := KindOf(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	if opts.Size == 0 {
		if info, err := f.Stat(); err == nil {
			opts.Size = info.Size()
		}
	}

	src, err := New(kind, filepath.Base(path), f, opts)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return src, nil
}
