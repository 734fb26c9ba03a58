package wal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBind_DefineRejectsRedefinitionInSameFrame(t *testing.T) {
	ev := NewEvaluator()

	_, err := evalSrc(t, ev, "(define x 1)")
	require.NoError(t, err)

	_, err = evalSrc(t, ev, "(define x 2)")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAlreadyDefined)
}

func TestBind_LetSimultaneousBindingsDontSeeEachOther(t *testing.T) {
	ev := NewEvaluator()

	_, err := evalSrc(t, ev, "(define x 100)")
	require.NoError(t, err)

	out, err := evalSrc(t, ev, "(let ([x 1] [y x]) y)")
	require.NoError(t, err)
	assert.Equal(t, int64(100), out.Int, "y's binding expression sees the enclosing x, not the sibling binding")
}

func TestBind_LetBodyEvaluatesSequentiallyReturningLast(t *testing.T) {
	ev := NewEvaluator()

	out, err := evalSrc(t, ev, "(let ([x 1]) x (+ x 1) (+ x 2))")
	require.NoError(t, err)
	assert.Equal(t, int64(3), out.Int)
}

func TestBind_SetMutatesNearestBinding(t *testing.T) {
	ev := NewEvaluator()

	_, err := evalSrc(t, ev, "(define x 1)")
	require.NoError(t, err)

	out, err := evalSrc(t, ev, "(set (x 2))")
	require.NoError(t, err)
	assert.Equal(t, int64(2), out.Int)

	out, err = evalSrc(t, ev, "x")
	require.NoError(t, err)
	assert.Equal(t, int64(2), out.Int)
}

func TestBind_SetUnboundNameErrors(t *testing.T) {
	ev := NewEvaluator()

	_, err := evalSrc(t, ev, "(set (never_defined 1))")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrWriteUnbound)
}

func TestBind_AliasRedirectsReadsOnly(t *testing.T) {
	ev := NewEvaluator()

	_, err := evalSrc(t, ev, "(define real 42)")
	require.NoError(t, err)

	_, err = evalSrc(t, ev, "(alias short real)")
	require.NoError(t, err)

	out, err := evalSrc(t, ev, "short")
	require.NoError(t, err)
	assert.Equal(t, int64(42), out.Int)
}

func TestBind_UnaliasRemovesRedirect(t *testing.T) {
	ev := NewEvaluator()

	_, err := evalSrc(t, ev, "(define real 42)")
	require.NoError(t, err)
	_, err = evalSrc(t, ev, "(alias short real)")
	require.NoError(t, err)

	_, err = evalSrc(t, ev, "(unalias short)")
	require.NoError(t, err)

	_, err = evalSrc(t, ev, "short")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUndefinedSymbol)
}

func TestBind_UnaliasUnknownNameErrors(t *testing.T) {
	ev := NewEvaluator()

	_, err := evalSrc(t, ev, "(unalias never_aliased)")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUndefinedSymbol)
}
