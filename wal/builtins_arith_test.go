package wal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArith_Add(t *testing.T) {
	ev := NewEvaluator()

	tests := []struct {
		src  string
		want Value
	}{
		{"(+)", Int(0)},
		{"(+ 1 2 3)", Int(6)},
		{"(+ 1 2.5)", Float(3.5)},
		{`(+ "a" "b" "c")`, String("abc")},
		{"(+ (list 1 2) (list 3))", List(Int(1), Int(2), Int(3))},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			out, err := evalSrc(t, ev, tt.src)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(out), "got %s", Format(out))
		})
	}
}

func TestArith_AddRejectsNonNumericWithoutStringOrList(t *testing.T) {
	ev := NewEvaluator()

	_, err := evalSrc(t, ev, "(+ true 1)")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrKindMismatch)
}

func TestArith_SubUnaryNegates(t *testing.T) {
	ev := NewEvaluator()

	out, err := evalSrc(t, ev, "(- 5)")
	require.NoError(t, err)
	assert.Equal(t, int64(-5), out.Int)
}

func TestArith_SubRequiresAtLeastOneArg(t *testing.T) {
	ev := NewEvaluator()

	_, err := evalSrc(t, ev, "(-)")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrArity)
}

func TestArith_MulZeroIdentity(t *testing.T) {
	ev := NewEvaluator()

	out, err := evalSrc(t, ev, "(*)")
	require.NoError(t, err)
	assert.Equal(t, int64(1), out.Int)
}

func TestArith_DivExactIntegerStaysInt(t *testing.T) {
	ev := NewEvaluator()

	out, err := evalSrc(t, ev, "(/ 10 2)")
	require.NoError(t, err)
	require.Equal(t, KindInt, out.Kind)
	assert.Equal(t, int64(5), out.Int)
}

func TestArith_DivInexactPromotesToFloat(t *testing.T) {
	ev := NewEvaluator()

	out, err := evalSrc(t, ev, "(/ 10 3)")
	require.NoError(t, err)
	require.Equal(t, KindFloat, out.Kind)
	assert.InDelta(t, 3.3333333, out.Float, 1e-5)
}

func TestArith_DivByZeroErrors(t *testing.T) {
	ev := NewEvaluator()

	_, err := evalSrc(t, ev, "(/ 1 0)")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDivideByZero)
}

func TestArith_Exp(t *testing.T) {
	ev := NewEvaluator()

	out, err := evalSrc(t, ev, "(** 2 10)")
	require.NoError(t, err)
	assert.Equal(t, int64(1024), out.Int)
}

func TestArith_FloorCeilRound(t *testing.T) {
	ev := NewEvaluator()

	floor, err := evalSrc(t, ev, "(floor 3.7)")
	require.NoError(t, err)
	assert.Equal(t, int64(3), floor.Int)

	ceil, err := evalSrc(t, ev, "(ceil 3.2)")
	require.NoError(t, err)
	assert.Equal(t, int64(4), ceil.Int)

	round, err := evalSrc(t, ev, "(round 3.5)")
	require.NoError(t, err)
	assert.Equal(t, int64(4), round.Int)
}

func TestArith_Mod(t *testing.T) {
	ev := NewEvaluator()

	out, err := evalSrc(t, ev, "(mod 7 3)")
	require.NoError(t, err)
	assert.Equal(t, int64(1), out.Int)

	_, err = evalSrc(t, ev, "(mod 7 0)")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDivideByZero)
}

func TestArith_EqComparesAllAgainstFirst(t *testing.T) {
	ev := NewEvaluator()

	out, err := evalSrc(t, ev, "(= 1 1 1)")
	require.NoError(t, err)
	assert.True(t, out.Bool)

	out, err = evalSrc(t, ev, "(= 1 1 2)")
	require.NoError(t, err)
	assert.False(t, out.Bool)
}

func TestArith_Neq(t *testing.T) {
	ev := NewEvaluator()

	out, err := evalSrc(t, ev, "(!= 1 2)")
	require.NoError(t, err)
	assert.True(t, out.Bool)
}

func TestArith_Comparisons(t *testing.T) {
	ev := NewEvaluator()

	cases := map[string]bool{
		"(> 2 1)":  true,
		"(< 2 1)":  false,
		"(>= 2 2)": true,
		"(<= 1 2)": true,
	}

	for src, want := range cases {
		t.Run(src, func(t *testing.T) {
			out, err := evalSrc(t, ev, src)
			require.NoError(t, err)
			assert.Equal(t, want, out.Bool)
		})
	}
}

func TestArith_AndOrShortCircuit(t *testing.T) {
	ev := NewEvaluator()

	out, err := evalSrc(t, ev, "(&& true false (some_undefined_name))")
	require.NoError(t, err, "should short-circuit before evaluating the undefined symbol")
	assert.False(t, out.Bool)

	out, err = evalSrc(t, ev, "(|| false true (some_undefined_name))")
	require.NoError(t, err, "should short-circuit before evaluating the undefined symbol")
	assert.True(t, out.Bool)
}

func TestArith_Not(t *testing.T) {
	ev := NewEvaluator()

	out, err := evalSrc(t, ev, "(! false)")
	require.NoError(t, err)
	assert.True(t, out.Bool)
}
