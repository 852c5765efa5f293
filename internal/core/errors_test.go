package core

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_Message(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "kind only",
			err:  &Error{Kind: KindNotImplemented},
			want: "not implemented",
		},
		{
			name: "column and message",
			err:  &Error{Kind: KindConversion, Column: "age", Msg: "could not convert Raw(\"x\") into integer"},
			want: `column "age": could not convert Raw("x") into integer`,
		},
		{
			name: "line column and cause",
			err:  &Error{Kind: KindBadValue, Line: 3, Column: "tier", Msg: "bad", Err: errors.New("must be one of free, pro")},
			want: `line 3: column "tier": bad: must be one of free, pro`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestError_IsMatchesKindSentinel(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", &Error{Kind: KindDuplicateKey, Msg: "dup"})

	assert.ErrorIs(t, err, ErrDuplicateKey)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Equal(t, KindDuplicateKey, KindOf(err))
	assert.Equal(t, Kind(0), KindOf(errors.New("plain")))
}

func TestError_UnwrapReachesCause(t *testing.T) {
	cause := errors.New("root cause")
	err := &Error{Kind: KindConversion, Err: cause}
	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, ErrConversion)
}

func TestError_AtKeepsExistingAttribution(t *testing.T) {
	base := &Error{Kind: KindBadValue, Column: "a"}
	got := base.at("tpl", 7, "b")

	assert.Equal(t, "tpl", got.Template)
	assert.Equal(t, 7, got.Line)
	assert.Equal(t, "a", got.Column)
	assert.Equal(t, 0, base.Line, "original is not modified")
}

func TestRowError(t *testing.T) {
	err := &RowError{Line: 5, Errs: []error{
		&Error{Kind: KindNotFound, Line: 5, Column: "name", Msg: "required column not found"},
		&Error{Kind: KindConversion, Line: 5, Column: "age", Msg: "could not convert"},
	}}

	assert.Equal(t, `line 5: 2 errors: column "name": required column not found; column "age": could not convert`, err.Error())
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, err, ErrConversion)
	assert.Equal(t, []string{"name", "age"}, err.Columns())

	single := &RowError{Line: 1, Errs: []error{errors.New("bad quoting")}}
	assert.Equal(t, "line 1: bad quoting", single.Error())
}

func TestErrorGroup(t *testing.T) {
	var nilGroup *ErrorGroup[error]
	assert.Equal(t, 0, nilGroup.Len())
	assert.Nil(t, nilGroup.Errors())

	var g ErrorGroup[*Error]
	assert.NoError(t, g.ErrOrNil())

	g.Add(&Error{Kind: KindBadValue, Msg: "one"})
	assert.Equal(t, "one", g.ErrOrNil().Error())

	g.Add(&Error{Kind: KindNotFound, Msg: "two"})
	err := g.ErrOrNil()
	require.Error(t, err)
	assert.Equal(t, "2 errors occurred:\n  - one\n  - two", err.Error())
	assert.ErrorIs(t, err, ErrBadValue)
	assert.ErrorIs(t, err, ErrNotFound)

	var target *Error
	require.ErrorAs(t, err, &target)
	assert.Equal(t, "one", target.Msg)
}

func TestFailures_CauseIsAppended(t *testing.T) {
	err := &Error{Kind: KindConversion, Line: 4, Msg: "could not convert", Err: errors.New("as integer: no")}
	got := Failures(fmt.Errorf("wrapped: %w", err))

	require.Len(t, got, 1)
	assert.Equal(t, 4, got[0].Line)
	assert.Equal(t, "could not convert: as integer: no", got[0].Message)
	assert.Nil(t, Failures(nil))
}
