package core

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseAll(_ int, s string) (int, error) { return strconv.Atoi(s) }

func TestFold_NeverShortCircuits(t *testing.T) {
	inputs := []string{"1", "x", "3", "y", "5"}

	res := Fold(inputs, parseAll)

	assert.Equal(t, []int{1, 3, 5}, res.Items())
	assert.Len(t, res.Errors(), 2)
	assert.Equal(t, len(inputs), len(res.Items())+len(res.Errors()))
	assert.Equal(t, len(inputs), res.Total())
	assert.False(t, res.OK())

	var group *ErrorGroup[error]
	require.ErrorAs(t, res.Err(), &group)
	assert.Equal(t, 2, group.Len())
}

func TestFold_AllSucceed(t *testing.T) {
	res := Fold([]string{"1", "2"}, parseAll)
	assert.NoError(t, res.Err())
	assert.True(t, res.OK())

	items, err := res.Strict()
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, items)
}

func TestFold_Empty(t *testing.T) {
	res := Fold(nil, parseAll)
	assert.Empty(t, res.Items())
	assert.NoError(t, res.Err())
	assert.Equal(t, 0, res.Total())
}

func TestBatchResult_StrictVersusLenient(t *testing.T) {
	res := Fold([]string{"1", "bad"}, parseAll)

	items, err := res.Strict()
	assert.Nil(t, items)
	require.Error(t, err)

	assert.Equal(t, []int{1}, res.Items(), "lenient callers still see the successes")
}

func TestFoldSeq(t *testing.T) {
	res := FoldSeq(slices.Values([]string{"4", "q", "6"}), parseAll)
	assert.Equal(t, []int{4, 6}, res.Items())
	assert.Len(t, res.Errors(), 1)
}

func TestFoldResults(t *testing.T) {
	seq := func(yield func(int, error) bool) {
		_ = yield(1, nil) && yield(0, errors.New("boom")) && yield(3, nil)
	}
	res := FoldResults(seq)
	assert.Equal(t, []int{1, 3}, res.Items())
	assert.Equal(t, 3, res.Total())
}

func TestBatchResult_Merge(t *testing.T) {
	a := Fold([]string{"1", "x"}, parseAll)
	b := Fold([]string{"y", "4"}, parseAll)
	a.Merge(b)

	assert.Equal(t, []int{1, 4}, a.Items())
	assert.Len(t, a.Errors(), 2)
	assert.Equal(t, 4, a.Total())
}

func TestFoldParallel_PreservesOrder(t *testing.T) {
	inputs := make([]string, 200)
	for i := range inputs {
		if i%7 == 0 {
			inputs[i] = "bad" + strconv.Itoa(i)
			continue
		}
		inputs[i] = strconv.Itoa(i)
	}

	op := func(_ context.Context, i int, s string) (int, error) {
		if i%3 == 0 {
			time.Sleep(time.Microsecond)
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return 0, fmt.Errorf("item %d: %w", i, err)
		}
		return n, nil
	}

	parallel, err := FoldParallel(context.Background(), inputs, 8, op)
	require.NoError(t, err)
	sequential := Fold(inputs, func(i int, s string) (int, error) { return op(context.Background(), i, s) })

	assert.Equal(t, sequential.Items(), parallel.Items())
	require.Len(t, parallel.Errors(), len(sequential.Errors()))
	for i := range sequential.Errors() {
		assert.Equal(t, sequential.Errors()[i].Error(), parallel.Errors()[i].Error())
	}
	assert.Equal(t, len(inputs), parallel.Total())
}

func TestFoldParallel_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := FoldParallel(ctx, []string{"1", "2", "3"}, 2, func(_ context.Context, i int, s string) (int, error) {
		return strconv.Atoi(s)
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFailures_FlattensRowErrors(t *testing.T) {
	group := &ErrorGroup[error]{}
	group.Add(&RowError{Line: 2, Errs: []error{
		&Error{Kind: KindConversion, Column: "age", Value: "notanumber", Msg: "could not convert"},
		&Error{Kind: KindNotFound, Column: "name", Msg: "required column not found"},
	}})
	group.Add(errors.New("plain"))

	got := Failures(group)
	require.Len(t, got, 3)
	assert.Equal(t, Failure{Line: 2, Column: "age", Value: "notanumber", Kind: "conversion error", Code: "VAL001", Message: "could not convert"}, got[0])
	assert.Equal(t, 2, got[1].Line)
	assert.Equal(t, Failure{Message: "plain"}, got[2])
}
