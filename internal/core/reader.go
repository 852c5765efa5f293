package core

// reader.go implements Reader, a pull iterator that turns a record source
// into assembled rows.
//
// Lifecycle:
//
//	Unopened -> HeadersRead -> Reconciled -> Streaming -> Closed
//	                 \______________\_____________________-> Failed
//
// Header problems are terminal: the reader moves to Failed and every later
// call returns the same error. Record problems are not: a bad record yields
// a RowError carrying its line and the next call moves on.

import (
	"errors"
	"fmt"
	"io"
	"iter"
)

// RecordSource supplies records to a Reader. ReadRecord returns io.EOF after
// the last record. A ReadRecord error of Kind KindParse spoils only that
// record; any other error ends the stream.
type RecordSource interface {
	Name() string
	ReadHeader() ([]string, error)
	ReadRecord() ([]CellValue, error)
	Close() error
}

// ReaderState is the lifecycle position of a Reader.
type ReaderState uint8

const (
	StateUnopened ReaderState = iota
	StateHeadersRead
	StateReconciled
	StateStreaming
	StateClosed
	StateFailed
)

func (s ReaderState) String() string {
	switch s {
	case StateUnopened:
		return "unopened"
	case StateHeadersRead:
		return "headers-read"
	case StateReconciled:
		return "reconciled"
	case StateStreaming:
		return "streaming"
	case StateClosed:
		return "closed"
	case StateFailed:
		return "failed"
	}
	return fmt.Sprintf("ReaderState(%d)", uint8(s))
}

// ReaderOptions configures a Reader.
type ReaderOptions struct {
	// Template is the declared template, or nil to synthesize one from the
	// header line.
	Template *Template
	ReconcileOptions
}

// Record is one positional record mapped to column names.
type Record struct {
	Line  int
	Cells map[string]CellValue
}

// Reader pulls rows from a RecordSource.
type Reader struct {
	src      RecordSource
	opts     ReaderOptions
	state    ReaderState
	observed []string
	template *Template
	headers  []string
	line     int
	err      error
}

// NewReader returns a reader over src. Nothing is read until the first call
// that needs the header.
func NewReader(src RecordSource, opts ReaderOptions) *Reader {
	return &Reader{src: src, opts: opts}
}

// State returns the lifecycle position.
func (r *Reader) State() ReaderState { return r.state }

// Line returns the number of data records consumed so far. The first record
// after the header is line 1.
func (r *Reader) Line() int { return r.line }

// Template returns the governing template, reading the header if needed.
func (r *Reader) Template() (*Template, error) {
	if err := r.open(); err != nil {
		return nil, err
	}
	return r.template, nil
}

// Headers returns the effective header order, reading the header if needed.
func (r *Reader) Headers() ([]string, error) {
	if err := r.open(); err != nil {
		return nil, err
	}
	return r.headers, nil
}

func (r *Reader) open() error {
	switch r.state {
	case StateFailed:
		return r.err
	case StateUnopened:
	default:
		return nil
	}

	if !r.opts.NoHeaders {
		observed, err := r.src.ReadHeader()
		if err != nil {
			if errors.Is(err, io.EOF) {
				err = &Error{Kind: KindBadValue, Msg: fmt.Sprintf("source %q has no header row", r.src.Name())}
			}
			return r.fail(err)
		}
		r.observed = observed
	}
	r.state = StateHeadersRead

	t, headers, err := Reconcile(r.src.Name(), r.observed, r.opts.Template, r.opts.ReconcileOptions)
	if err != nil {
		return r.fail(err)
	}
	r.template = t
	r.headers = headers
	r.state = StateReconciled
	return nil
}

func (r *Reader) fail(err error) error {
	r.state = StateFailed
	r.err = err
	_ = r.src.Close()
	return err
}

// NextRecord returns the next record mapped to column names without
// assembling it. Positions past the end of a short record are Null.
func (r *Reader) NextRecord() (Record, error) {
	if err := r.open(); err != nil {
		return Record{}, err
	}
	if r.state == StateClosed {
		return Record{}, io.EOF
	}
	r.state = StateStreaming

	fields, err := r.src.ReadRecord()
	if errors.Is(err, io.EOF) {
		r.state = StateClosed
		_ = r.src.Close()
		return Record{}, io.EOF
	}
	r.line++
	if err != nil {
		var e *Error
		if errors.As(err, &e) && e.Kind == KindParse {
			return Record{Line: r.line}, &RowError{
				Template: r.template.name,
				Line:     r.line,
				Errs:     []error{e.at(r.template.name, r.line, "")},
			}
		}
		return Record{}, r.fail(fmt.Errorf("read %s line %d: %w", r.src.Name(), r.line, err))
	}

	cells := make(map[string]CellValue, len(r.headers))
	for i, h := range r.headers {
		if i < len(fields) {
			cells[h] = fields[i]
			continue
		}
		cells[h] = NullCell()
	}
	return Record{Line: r.line, Cells: cells}, nil
}

// Next returns the next assembled row. It returns io.EOF after the last
// record; a *RowError means only that line failed.
func (r *Reader) Next() (*Row, error) {
	rec, err := r.NextRecord()
	if err != nil {
		return nil, err
	}
	return r.template.Assemble(rec.Line, rec.Cells)
}

// Terminal reports whether err, returned by Next, ends the stream.
func Terminal(err error) bool {
	if err == nil {
		return false
	}
	var re *RowError
	return !errors.As(err, &re)
}

// All yields every row or row error. A terminal error is yielded once and
// ends the sequence.
func (r *Reader) All() iter.Seq2[*Row, error] {
	return func(yield func(*Row, error) bool) {
		for {
			row, err := r.Next()
			if errors.Is(err, io.EOF) {
				return
			}
			if !yield(row, err) || Terminal(err) {
				return
			}
		}
	}
}

// Collect folds the whole stream. The returned error is a terminal error
// only; per-line failures are in the result.
func (r *Reader) Collect() (BatchResult[*Row], error) {
	var b BatchResult[*Row]
	for {
		row, err := r.Next()
		if errors.Is(err, io.EOF) {
			return b, nil
		}
		if Terminal(err) {
			return b, err
		}
		b.push(row, err)
	}
}

// Close releases the source. It is safe to call more than once.
func (r *Reader) Close() error {
	if r.state == StateClosed || r.state == StateFailed {
		return nil
	}
	r.state = StateClosed
	return r.src.Close()
}

// Slurp reads every row from src and decodes each into a T.
func Slurp[T any](src RecordSource, opts ReaderOptions) (BatchResult[T], error) {
	r := NewReader(src, opts)
	defer r.Close()

	var b BatchResult[T]
	for row, err := range r.All() {
		if Terminal(err) {
			return b, err
		}
		if err != nil {
			var zero T
			b.push(zero, err)
			continue
		}
		v, err := Deserialize[T](row)
		b.push(v, err)
	}
	return b, nil
}
