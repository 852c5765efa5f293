package source

// stream.go prepares raw upload bytes for record parsing without loading the
// file into memory.
//
// Prepare stacks two layers over the input:
//
//   - CountingReader on the raw bytes: tracks progress and enforces the
//     size limit
//   - a golang.org/x/text decoder: converts the declared charset to UTF-8,
//     strips a leading byte order mark and replaces invalid sequences with
//     U+FFFD
//
// The BOM must go before the first header is parsed, otherwise Windows
// exports leak U+FEFF into the first column name.

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/JonMunkholm/sheetrow/internal/core"
)

// ErrTooLarge is returned once a source reads past its byte limit.
var ErrTooLarge = errors.New("file too large")

// CountingReader wraps an io.Reader to track bytes read.
type CountingReader struct {
	reader    io.Reader
	BytesRead int64
	Total     int64 // If known (0 if unknown)
	Limit     int64 // 0 means unlimited
}

// NewCountingReader creates a counting reader with optional total size and
// byte limit.
func NewCountingReader(r io.Reader, total, limit int64) *CountingReader {
	return &CountingReader{reader: r, Total: total, Limit: limit}
}

// Read implements io.Reader.
func (r *CountingReader) Read(p []byte) (int, error) {
	n, err := r.reader.Read(p)
	r.BytesRead += int64(n)
	if r.Limit > 0 && r.BytesRead > r.Limit {
		return n, fmt.Errorf("%w: exceeds %d bytes", ErrTooLarge, r.Limit)
	}
	return n, err
}

// Progress returns the read progress as a percentage (0-100).
// Returns 0 if total is unknown.
func (r *CountingReader) Progress() int {
	if r.Total <= 0 {
		return 0
	}
	p := int(r.BytesRead * 100 / r.Total)
	if p > 100 {
		return 100
	}
	return p
}

// Decoder returns a transformer that converts charset to UTF-8. Any
// WHATWG encoding label is accepted ("latin1", "windows-1252",
// "iso-8859-15", "shift_jis", ...); the empty string means UTF-8.
func Decoder(charset string) (transform.Transformer, error) {
	name := strings.ToLower(strings.TrimSpace(charset))
	switch name {
	case "", "utf-8", "utf8":
		return unicode.BOMOverride(unicode.UTF8.NewDecoder()), nil
	}

	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, &core.Error{
			Kind:  core.KindBadValue,
			Value: charset,
			Msg:   fmt.Sprintf("unsupported charset %q", charset),
		}
	}
	return unicode.BOMOverride(enc.NewDecoder()), nil
}

// Prepare wraps r for parsing: bytes are counted against limit, decoded
// from charset and stripped of a BOM. The counter is returned for progress
// reporting.
func Prepare(r io.Reader, charset string, total, limit int64) (io.Reader, *CountingReader, error) {
	dec, err := Decoder(charset)
	if err != nil {
		return nil, nil, err
	}
	counter := NewCountingReader(r, total, limit)
	return transform.NewReader(counter, dec), counter, nil
}
