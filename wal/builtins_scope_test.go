package wal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScope_InScopeSetsAndRestoresCS(t *testing.T) {
	ev := NewEvaluator()

	out, err := evalSrc(t, ev, "(in-scope (quote top) CS)")
	require.NoError(t, err)
	assert.Equal(t, "top", out.Str)

	cs, err := evalSrc(t, ev, "CS")
	require.NoError(t, err)
	assert.Equal(t, "", cs.Str, "CS is restored after in-scope returns")
}

func TestScope_InScopeRestoresOnError(t *testing.T) {
	ev := NewEvaluator()

	_, err := evalSrc(t, ev, "(in-scope (quote top) (some_undefined_name))")
	require.Error(t, err)

	cs, err := evalSrc(t, ev, "CS")
	require.NoError(t, err)
	assert.Equal(t, "", cs.Str)
}

func TestScope_SetScopeRejectsUnknownScope(t *testing.T) {
	ev := NewEvaluator()

	_, err := evalSrc(t, ev, "(set-scope never_a_real_scope)")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrKindMismatch)
}

func TestScope_UnsetScopeClearsCS(t *testing.T) {
	ev := NewEvaluator()

	_, err := evalSrc(t, ev, "(in-scope (quote top) (unset-scope))")
	require.NoError(t, err)

	cs, err := evalSrc(t, ev, "CS")
	require.NoError(t, err)
	assert.Equal(t, "", cs.Str)
}

func TestScope_AllScopesWithNoTracesReturnsEmptyList(t *testing.T) {
	ev := NewEvaluator()

	out, err := evalSrc(t, ev, "(all-scopes CS)")
	require.NoError(t, err)
	require.Equal(t, KindList, out.Kind)
	assert.Empty(t, out.List)
}

func TestScope_GroupsWithNoTracesReturnsEmptyList(t *testing.T) {
	ev := NewEvaluator()

	out, err := evalSrc(t, ev, `(groups ".valid")`)
	require.NoError(t, err)
	require.Equal(t, KindList, out.Kind)
	assert.Empty(t, out.List)
}

func TestScope_GroupsReturnsLexicographicallySortedPrefixes(t *testing.T) {
	ev := NewEvaluator()

	_, err := evalSrc(t, ev, "(new-trace t 1)")
	require.NoError(t, err)

	for _, src := range []string{
		"(in-scope (quote cpu) (defsig clk 1))",
		"(in-scope (quote cpu) (defsig rst 0))",
		"(in-scope (quote apu) (defsig clk 1))",
		"(in-scope (quote apu) (defsig rst 0))",
		"(in-scope (quote gpu) (defsig clk 1))",
	} {
		_, err := evalSrc(t, ev, src)
		require.NoError(t, err)
	}

	// gpu has no .rst signal, so only apu and cpu qualify; run several
	// times since Go map iteration order is randomized per run.
	for i := 0; i < 10; i++ {
		out, err := evalSrc(t, ev, `(groups ".clk" ".rst")`)
		require.NoError(t, err)
		require.Equal(t, KindList, out.Kind)
		require.Len(t, out.List, 2)
		assert.Equal(t, "apu", out.List[0].Str)
		assert.Equal(t, "cpu", out.List[1].Str)
	}
}

func TestScope_InGroupSetsCGAndDerivedCS(t *testing.T) {
	ev := NewEvaluator()

	out, err := evalSrc(t, ev, "(in-group (quote cpu) CG)")
	require.NoError(t, err)
	assert.Equal(t, "cpu", out.Str)

	cg, err := evalSrc(t, ev, "CG")
	require.NoError(t, err)
	assert.Equal(t, "", cg.Str, "CG is restored after in-group returns")
}

func TestScope_InGroupsRunsOncePerGroupReturningLast(t *testing.T) {
	ev := NewEvaluator()

	out, err := evalSrc(t, ev, `(in-groups (list (quote a) (quote b)) CG)`)
	require.NoError(t, err)
	assert.Equal(t, "b", out.Str)
}

func TestScope_InGroupsRejectsEmptyList(t *testing.T) {
	ev := NewEvaluator()

	_, err := evalSrc(t, ev, "(in-groups (list) CG)")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrKindMismatch)
}

func TestScope_ResolveScopeUnknownSignalErrors(t *testing.T) {
	ev := NewEvaluator()

	_, err := evalSrc(t, ev, "(resolve-scope never_a_real_signal)")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUndefinedSymbol)
}

func TestScope_ResolveGroupUnknownSignalErrors(t *testing.T) {
	ev := NewEvaluator()

	_, err := evalSrc(t, ev, "(resolve-group never_a_real_signal)")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUndefinedSymbol)
}
