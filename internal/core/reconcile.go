package core

// reconcile.go settles which template governs a stream and in what order
// its record positions map to columns.
//
// Three situations are covered:
//  1. Headers and a declared template: the headers are validated against the
//     template, and the effective order is the observed order.
//  2. Headers and no template: a template is synthesized from the headers,
//     every column a non-required string.
//  3. No header line: the template's declared order is the effective order;
//     without a template there is nothing to go on.

import (
	"fmt"
	"strings"
)

// ReconcileOptions tunes Reconcile.
type ReconcileOptions struct {
	// NoHeaders means the source has no header line.
	NoHeaders bool
	// CaseInsensitive matches observed headers to declared columns ignoring
	// case. Matched headers are rewritten to the declared spelling.
	CaseInsensitive bool
}

// Reconcile returns the governing template and the effective header order.
func Reconcile(source string, observed []string, declared *Template, opts ReconcileOptions) (*Template, []string, error) {
	if opts.NoHeaders {
		if declared == nil {
			return nil, nil, &Error{
				Kind: KindNotImplemented,
				Msg:  fmt.Sprintf("source %q has no header row and no template; column names cannot be derived", source),
			}
		}
		headers, err := declared.Headers()
		if err != nil {
			return nil, nil, err
		}
		return declared, headers, nil
	}

	headers, err := cleanHeaders(source, observed)
	if err != nil {
		return nil, nil, err
	}

	if declared == nil {
		t, err := FromHeaders(source, headers)
		if err != nil {
			return nil, nil, err
		}
		return t, headers, nil
	}

	if opts.CaseInsensitive {
		headers, err = foldHeaders(declared, headers)
		if err != nil {
			return nil, nil, err
		}
	}
	if err := uniqueHeaders(source, headers, declared); err != nil {
		return nil, nil, err
	}
	if err := declared.ValidateHeaders(headers); err != nil {
		return nil, nil, err
	}
	return declared, headers, nil
}

func cleanHeaders(source string, observed []string) ([]string, error) {
	headers := make([]string, len(observed))
	blank := true
	for i, h := range observed {
		headers[i] = cleanHeader(h)
		if headers[i] != "" {
			blank = false
		}
	}
	if blank {
		return nil, &Error{Kind: KindBadValue, Msg: fmt.Sprintf("source %q has an empty header row", source)}
	}
	return headers, nil
}

// uniqueHeaders rejects a declared column appearing twice. Repeated headers
// the template does not declare are ignored like any other extra column.
func uniqueHeaders(source string, headers []string, t *Template) error {
	seen := make(map[string]bool, len(headers))
	var errs ErrorGroup[error]
	for _, h := range headers {
		if _, declared := t.columns[h]; !declared {
			continue
		}
		if seen[h] {
			errs.Add(&Error{Kind: KindDuplicateKey, Column: h, Msg: fmt.Sprintf("duplicate header %q in source %q", h, source)})
		}
		seen[h] = true
	}
	return errs.ErrOrNil()
}

// foldHeaders rewrites observed headers to the declared spelling of the
// column they match case-insensitively. Unmatched headers are kept.
func foldHeaders(t *Template, observed []string) ([]string, error) {
	index := make(map[string]string, t.Len())
	for _, name := range t.order {
		index[strings.ToLower(name)] = name
	}

	out := make([]string, len(observed))
	claimed := make(map[string]string, len(observed))
	var errs ErrorGroup[error]
	for i, h := range observed {
		declared, ok := index[strings.ToLower(h)]
		if !ok {
			out[i] = h
			continue
		}
		if prev, taken := claimed[declared]; taken {
			errs.Add(&Error{
				Kind:     KindDuplicateKey,
				Template: t.name,
				Column:   declared,
				Msg:      fmt.Sprintf("headers %q and %q both match column %q", prev, h, declared),
			})
			continue
		}
		claimed[declared] = h
		out[i] = declared
	}
	if err := errs.ErrOrNil(); err != nil {
		return nil, err
	}
	return out, nil
}
