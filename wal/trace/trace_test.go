package trace

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrace_StepWithinBounds(t *testing.T) {
	tr := NewVirtualTrace("t", 3, nil)

	assert.Equal(t, 0, tr.Index())
	assert.Equal(t, 3, tr.MaxIndex())

	assert.True(t, tr.Step(2))
	assert.Equal(t, 2, tr.Index())

	assert.False(t, tr.Step(5), "stepping past MaxIndex leaves the index unchanged and reports false")
	assert.Equal(t, 2, tr.Index())

	assert.False(t, tr.Step(-10), "stepping below zero leaves the index unchanged")
	assert.Equal(t, 2, tr.Index())
}

func TestTrace_TsReadsCurrentTimestamp(t *testing.T) {
	tr := NewVirtualTrace("t", 4, nil)

	assert.Equal(t, int64(0), tr.Ts())
	require.True(t, tr.Step(3))
	assert.Equal(t, int64(3), tr.Ts())
}

func TestTrace_SetSamplingPointsRestrictsAndResetsIndex(t *testing.T) {
	tr := NewVirtualTrace("t", 9, nil)
	require.True(t, tr.Step(5))

	tr.SetSamplingPoints([]int{0, 2, 4})

	assert.Equal(t, 0, tr.Index(), "sampling resets the current index")
	assert.Equal(t, 2, tr.MaxIndex())
}

func TestTrace_SetSamplingPointsDropsOutOfRangeAndDuplicateIndices(t *testing.T) {
	tr := NewVirtualTrace("t", 4, nil)

	tr.SetSamplingPoints([]int{0, 0, 10, 2})

	assert.Equal(t, 1, tr.MaxIndex(), "out-of-range index dropped, duplicate collapsed")
}

func TestTrace_ContainsSpecialSignal(t *testing.T) {
	tr := NewVirtualTrace("t", 4, nil)

	assert.True(t, tr.Contains("INDEX"))
	assert.False(t, tr.Contains("never_a_signal"))
}

func TestTrace_SignalValueSpecialNames(t *testing.T) {
	tr := NewVirtualTrace("t", 4, nil)
	require.True(t, tr.Step(2))

	v, err := tr.SignalValue("INDEX", 0, "")
	require.NoError(t, err)
	assert.Equal(t, int64(2), v.Int)

	v, err = tr.SignalValue("MAX-INDEX", 0, "")
	require.NoError(t, err)
	assert.Equal(t, int64(4), v.Int)

	v, err = tr.SignalValue("TRACE-NAME", 0, "")
	require.NoError(t, err)
	assert.Equal(t, "t", v.Str)
}

func TestTrace_SignalValueClampsOffsetToMaxIndex(t *testing.T) {
	tr := NewVirtualTrace("t", 3, nil)

	v, err := tr.SignalValue("INDEX", 100, "")
	require.NoError(t, err)
	// the requested relative index clamps, but INDEX itself reports the
	// trace's actual (unmoved) current index rather than the clamped one.
	assert.Equal(t, int64(0), v.Int)
}

func TestTrace_SignalValueNegativeOffsetErrors(t *testing.T) {
	tr := NewVirtualTrace("t", 3, nil)

	_, err := tr.SignalValue("INDEX", -1, "")
	require.Error(t, err)
}

func TestTrace_SignalValueDecodesRawData(t *testing.T) {
	tr := NewVirtualTrace("t", 3, nil)
	tr.SetSignal("sig", 0, "101")

	v, err := tr.SignalValue("sig", 0, "")
	require.NoError(t, err)
	assert.Equal(t, VInt, v.Kind)
	assert.Equal(t, int64(5), v.Int)
}

func TestTrace_SignalValueFallsBackToRawString(t *testing.T) {
	tr := NewVirtualTrace("t", 3, nil)
	tr.SetSignal("sig", 0, "xz")

	v, err := tr.SignalValue("sig", 0, "")
	require.NoError(t, err)
	assert.Equal(t, VString, v.Kind)
	assert.Equal(t, "xz", v.Str)
}

func TestTrace_AllSignalsIncludesVirtual(t *testing.T) {
	tr := NewVirtualTrace("t", 3, nil)
	tr.SetSignal("raw", 0, "1")
	tr.AddVirtualSignal("computed", NewVirtualSignal("computed", nil, stubEvaluator{v: IntValue(1)}))

	assert.ElementsMatch(t, []string{"raw", "computed"}, tr.AllSignals())
}

func TestTrace_LocalSignalsFiltersByScope(t *testing.T) {
	tr := NewVirtualTrace("t", 3, nil)
	tr.SetSignal("clk", 0, "1")

	v, err := tr.SignalValue("LOCAL-SIGNALS", 0, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"clk"}, v.List)
}

type stubEvaluator struct{ v Value }

func (s stubEvaluator) EvalSignal(body any) (Value, error) { return s.v, nil }
