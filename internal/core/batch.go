package core

// batch.go implements the batch accumulation protocol.
//
// A fold applies an operation to every input and never stops early: each
// input lands in exactly one of the two channels (successes, in input
// order, or errors, in input order). Whether any error fails the batch is
// the caller's decision, expressed by calling Strict or by reading Items and
// Err separately.

import (
	"context"
	"iter"

	"golang.org/x/sync/errgroup"
)

// BatchResult holds the outcome of a fold.
type BatchResult[U any] struct {
	items []U
	errs  *ErrorGroup[error]
	total int
}

func (b *BatchResult[U]) push(u U, err error) {
	b.total++
	if err != nil {
		if b.errs == nil {
			b.errs = &ErrorGroup[error]{}
		}
		b.errs.Add(err)
		return
	}
	b.items = append(b.items, u)
}

// Items returns the successes in input order.
func (b BatchResult[U]) Items() []U { return b.items }

// Errors returns the failures in input order.
func (b BatchResult[U]) Errors() []error { return b.errs.Errors() }

// Err returns the failures as an *ErrorGroup, or nil if there were none.
func (b BatchResult[U]) Err() error {
	if b.errs == nil {
		return nil
	}
	return b.errs.ErrOrNil()
}

// Total returns the number of inputs folded.
func (b BatchResult[U]) Total() int { return b.total }

// OK reports whether every input succeeded.
func (b BatchResult[U]) OK() bool { return b.errs.Len() == 0 }

// Strict returns the successes only if there were no failures.
func (b BatchResult[U]) Strict() ([]U, error) {
	if err := b.Err(); err != nil {
		return nil, err
	}
	return b.items, nil
}

// Failures flattens every failure for reporting.
func (b BatchResult[U]) Failures() []Failure { return Failures(b.Err()) }

// Merge appends other's outcome after b's.
func (b *BatchResult[U]) Merge(other BatchResult[U]) {
	b.items = append(b.items, other.items...)
	b.total += other.total
	for _, err := range other.errs.Errors() {
		if b.errs == nil {
			b.errs = &ErrorGroup[error]{}
		}
		b.errs.Add(err)
	}
}

// Fold applies op to every item.
func Fold[T, U any](items []T, op func(int, T) (U, error)) BatchResult[U] {
	var b BatchResult[U]
	for i, item := range items {
		u, err := op(i, item)
		b.push(u, err)
	}
	return b
}

// FoldSeq applies op to every item of seq.
func FoldSeq[T, U any](seq iter.Seq[T], op func(int, T) (U, error)) BatchResult[U] {
	var b BatchResult[U]
	i := 0
	for item := range seq {
		u, err := op(i, item)
		b.push(u, err)
		i++
	}
	return b
}

// FoldResults accumulates a sequence of already computed results.
func FoldResults[U any](seq iter.Seq2[U, error]) BatchResult[U] {
	var b BatchResult[U]
	for u, err := range seq {
		b.push(u, err)
	}
	return b
}

// FoldParallel applies op to every item using up to workers goroutines.
// Results are merged in input order, so the outcome matches Fold. The only
// error returned is ctx's, when the context ends before every item ran.
func FoldParallel[T, U any](ctx context.Context, items []T, workers int, op func(context.Context, int, T) (U, error)) (BatchResult[U], error) {
	if workers <= 1 {
		return Fold(items, func(i int, item T) (U, error) { return op(ctx, i, item) }), ctx.Err()
	}

	results := make([]U, len(items))
	errs := make([]error, len(items))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, item := range items {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i], errs[i] = op(gctx, i, item)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return BatchResult[U]{}, err
	}
	if err := ctx.Err(); err != nil {
		return BatchResult[U]{}, err
	}

	var b BatchResult[U]
	for i := range items {
		b.push(results[i], errs[i])
	}
	return b, nil
}
