package wal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func evalSrc(t *testing.T, ev *Evaluator, src string) (Value, error) {
	t.Helper()

	v, err := ReadSexpr(src)
	require.NoError(t, err)

	return ev.Eval(ev.Root, v)
}

func TestEval_SelfEvaluatingAtoms(t *testing.T) {
	ev := NewEvaluator()

	for _, src := range []string{"42", "3.5", `"hi"`, "true", "false"} {
		t.Run(src, func(t *testing.T) {
			out, err := evalSrc(t, ev, src)
			require.NoError(t, err)
			assert.NotEqual(t, KindNil, out.Kind)
		})
	}
}

func TestEval_UndefinedSymbolErrors(t *testing.T) {
	ev := NewEvaluator()

	_, err := evalSrc(t, ev, "some_undefined_name")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUndefinedSymbol)
}

func TestEval_DefineThenReadBack(t *testing.T) {
	ev := NewEvaluator()

	_, err := evalSrc(t, ev, "(define x 5)")
	require.NoError(t, err)

	out, err := evalSrc(t, ev, "x")
	require.NoError(t, err)
	assert.Equal(t, int64(5), out.Int)
}

func TestEval_ClosureCallBindsParams(t *testing.T) {
	ev := NewEvaluator()

	_, err := evalSrc(t, ev, "(define add (fn (a b) (+ a b)))")
	require.NoError(t, err)

	out, err := evalSrc(t, ev, "(add 3 4)")
	require.NoError(t, err)
	assert.Equal(t, int64(7), out.Int)
}

func TestEval_ClosureArityMismatch(t *testing.T) {
	ev := NewEvaluator()

	_, err := evalSrc(t, ev, "(define add (fn (a b) (+ a b)))")
	require.NoError(t, err)

	_, err = evalSrc(t, ev, "(add 1)")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrArity)
}

func TestEval_VariadicClosureCollectsRest(t *testing.T) {
	ev := NewEvaluator()

	_, err := evalSrc(t, ev, "(define pack (fn rest rest))")
	require.NoError(t, err)

	out, err := evalSrc(t, ev, "(pack 1 2 3)")
	require.NoError(t, err)
	require.Equal(t, KindList, out.Kind)
	assert.Len(t, out.List, 3)
}

func TestEval_ApplyingNonCallableErrors(t *testing.T) {
	ev := NewEvaluator()

	_, err := evalSrc(t, ev, "(define x 5)")
	require.NoError(t, err)

	_, err = evalSrc(t, ev, "(x 1 2)")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotCallable)
}

func TestEval_DefmacroExpandsAtCallSite(t *testing.T) {
	ev := NewEvaluator()

	_, err := evalSrc(t, ev, "(defmacro twice (x) (list (quote +) x x))")
	require.NoError(t, err)

	out, err := evalSrc(t, ev, "(twice 21)")
	require.NoError(t, err)
	assert.Equal(t, int64(42), out.Int)
}

func TestEval_SelfRecursiveMacroTripsDepthGuardThroughApply(t *testing.T) {
	// Regression test: Apply's KindMacro case must bound recursion that
	// re-enters through Eval/Apply (a macro whose body calls itself by
	// name), not just expander.expand's own internal recursion. A macro
	// constructed this way never terminates, so without the evaluator-level
	// macroDepth counter this would recurse until a stack overflow instead
	// of returning ErrMaxDepthExceeded.
	ev := NewEvaluator(WithConfig(Config{
		ScopeSeparator:     DefaultScopeSeparator,
		MaxExpansionDepth:  16,
		MaxDefinitionDepth: DefaultMaxDefinitionDepth,
	}))

	_, err := evalSrc(t, ev, "(defmacro loop () (loop))")
	require.NoError(t, err)

	_, err = evalSrc(t, ev, "(loop)")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMaxDepthExceeded)
}

func TestEval_ResetClearsDefinitionsAndGlobals(t *testing.T) {
	ev := NewEvaluator()

	_, err := evalSrc(t, ev, "(define x 5)")
	require.NoError(t, err)

	ev.Reset()

	_, err = evalSrc(t, ev, "x")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUndefinedSymbol)

	out, err := evalSrc(t, ev, "CS")
	require.NoError(t, err)
	assert.Equal(t, "", out.Str)
}

func TestEval_AliasRedirectsSymbolLookup(t *testing.T) {
	ev := NewEvaluator()

	_, err := evalSrc(t, ev, "(define real_signal 9)")
	require.NoError(t, err)

	ev.aliases["short"] = "real_signal"

	out, err := evalSrc(t, ev, "short")
	require.NoError(t, err)
	assert.Equal(t, int64(9), out.Int)
}

func TestEval_BuiltinDispatchesByNameWithoutEnvBinding(t *testing.T) {
	// `+` dispatches through the builtins table directly by symbol name at
	// the call site, so it is always available regardless of env contents.
	ev := NewEvaluator()

	out, err := evalSrc(t, ev, "(+ 1 2)")
	require.NoError(t, err)
	assert.Equal(t, int64(3), out.Int)
}
