package source

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/JonMunkholm/sheetrow/internal/core"
)

// Options configures a record source. Zero values give RFC 4180 CSV in
// UTF-8 with a fixed field count.
type Options struct {
	Delimiter  rune   // field separator, ',' when zero
	Comment    rune   // lines starting with this rune are skipped
	LazyQuotes bool   // tolerate bare quotes inside fields
	TrimSpace  bool   // trim surrounding whitespace from every field
	Flexible   bool   // allow records with a varying number of fields
	Charset    string // input encoding, UTF-8 when empty
	Sheet      string // worksheet for spreadsheet sources, first when empty
	Size       int64  // total input size, if known, for progress
	MaxBytes   int64  // reject input past this many bytes, 0 for no limit
}

// CSV is a core.RecordSource over delimited text.
type CSV struct {
	name    string
	reader  *csv.Reader
	counter *CountingReader
	closer  io.Closer
	trim    bool
	closed  bool
}

// NewCSV returns a CSV source reading r. If r is an io.Closer it is closed
// with the source.
func NewCSV(name string, r io.Reader, opts Options) (*CSV, error) {
	text, counter, err := Prepare(r, opts.Charset, opts.Size, opts.MaxBytes)
	if err != nil {
		return nil, err
	}

	cr := csv.NewReader(text)
	if opts.Delimiter != 0 {
		cr.Comma = opts.Delimiter
	}
	cr.Comment = opts.Comment
	cr.LazyQuotes = opts.LazyQuotes
	if opts.Flexible {
		cr.FieldsPerRecord = -1
	}
	if cr.Comma == cr.Comment {
		return nil, &core.Error{Kind: core.KindBadValue, Msg: fmt.Sprintf("delimiter and comment character are both %q", cr.Comma)}
	}

	c := &CSV{name: name, reader: cr, counter: counter, trim: opts.TrimSpace}
	if closer, ok := r.(io.Closer); ok {
		c.closer = closer
	}
	return c, nil
}

// Name returns the source name used in messages and synthesized templates.
func (c *CSV) Name() string { return c.name }

// BytesRead returns the number of raw bytes consumed so far.
func (c *CSV) BytesRead() int64 { return c.counter.BytesRead }

// Progress returns read progress as a percentage when the size is known.
func (c *CSV) Progress() int { return c.counter.Progress() }

// ReadHeader reads the first record as column names. Errors are returned
// unchanged; a broken header ends the stream.
func (c *CSV) ReadHeader() ([]string, error) {
	rec, err := c.reader.Read()
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// ReadRecord reads the next record. Malformed records come back as
// core.KindParse errors so the reader can skip to the next one.
func (c *CSV) ReadRecord() ([]core.CellValue, error) {
	rec, err := c.reader.Read()
	if err != nil {
		var pe *csv.ParseError
		if errors.As(err, &pe) {
			return nil, &core.Error{
				Kind:  core.KindParse,
				Value: strings.Join(rec, string(c.reader.Comma)),
				Msg:   fmt.Sprintf("malformed record at input line %d", pe.StartLine),
				Err:   pe.Err,
			}
		}
		return nil, err
	}
	if c.trim {
		for i := range rec {
			rec[i] = strings.TrimSpace(rec[i])
		}
	}
	return core.CellsFromStrings(rec), nil
}

// Close closes the underlying reader if it is closable. It is safe to call
// more than once.
func (c *CSV) Close() error {
	if c.closed || c.closer == nil {
		c.closed = true
		return nil
	}
	c.closed = true
	return c.closer.Close()
}
