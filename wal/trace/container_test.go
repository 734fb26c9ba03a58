package trace

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func addVirtual(t *testing.T, c *Container, tid string, maxIndex int) *Trace {
	t.Helper()

	tr := NewVirtualTrace(tid, maxIndex, c)
	require.NoError(t, c.AddTrace(tid, tr))

	return tr
}

func TestContainer_LoadUnknownExtensionErrors(t *testing.T) {
	c := NewContainer()

	_, err := c.Load("trace.bin", "")
	require.Error(t, err)
}

func TestContainer_AddTraceRejectsDuplicateID(t *testing.T) {
	c := NewContainer()
	addVirtual(t, c, "t0", 3)

	err := c.AddTrace("t0", NewVirtualTrace("t0", 3, c))
	require.Error(t, err)
}

func TestContainer_UnloadRemovesFromOrderAndMap(t *testing.T) {
	c := NewContainer()
	addVirtual(t, c, "t0", 3)

	c.Unload("t0")

	assert.Nil(t, c.Trace("t0"))
	assert.Empty(t, c.TraceIDs())
}

func TestContainer_ResolveSingleTraceByBareName(t *testing.T) {
	c := NewContainer()
	tr := addVirtual(t, c, "t0", 3)
	tr.SetSignal("clk", 0, "1")

	assert.True(t, c.Contains("clk"))
	assert.False(t, c.Contains("never"))
}

func TestContainer_ResolveAmbiguousWithMultipleTraces(t *testing.T) {
	c := NewContainer()
	addVirtual(t, c, "t0", 3)
	addVirtual(t, c, "t1", 3)

	_, err := c.SignalValue("INDEX", 0, "")
	require.Error(t, err)
}

func TestContainer_ResolveCrossTraceByScopeSeparator(t *testing.T) {
	c := NewContainer()
	addVirtual(t, c, "t0", 3)
	addVirtual(t, c, "t1", 5)

	v, err := c.SignalValue("t1"+ScopeSeparator+"MAX-INDEX", 0, "")
	require.NoError(t, err)
	assert.Equal(t, int64(5), v.Int)
}

func TestContainer_ResolveUnknownTraceIDErrors(t *testing.T) {
	c := NewContainer()
	addVirtual(t, c, "t0", 3)

	_, err := c.SignalValue("ghost"+ScopeSeparator+"INDEX", 0, "")
	require.Error(t, err)
}

func TestContainer_StepAllOrByID(t *testing.T) {
	c := NewContainer()
	addVirtual(t, c, "t0", 3)
	addVirtual(t, c, "t1", 1)

	ended := c.Step(1, "")
	assert.Empty(t, ended)

	ended = c.Step(5, "t1")
	assert.Equal(t, []string{"t1"}, ended)
}

func TestContainer_StoreAndRestoreIndices(t *testing.T) {
	c := NewContainer()
	tr := addVirtual(t, c, "t0", 9)

	c.StoreIndices()
	require.True(t, tr.Step(4))
	assert.Equal(t, 4, tr.Index())

	c.RestoreIndices()
	assert.Equal(t, 0, tr.Index())
}

func TestContainer_RestoreIndicesWithEmptyStackIsNoOp(t *testing.T) {
	c := NewContainer()
	tr := addVirtual(t, c, "t0", 9)
	require.True(t, tr.Step(3))

	c.RestoreIndices()
	assert.Equal(t, 3, tr.Index(), "no snapshot exists, so the index is untouched")
}

func TestContainer_ResetAllClearsIndicesAndSnapshots(t *testing.T) {
	c := NewContainer()
	tr := addVirtual(t, c, "t0", 9)
	require.True(t, tr.Step(5))
	c.StoreIndices()

	c.ResetAll()

	assert.Equal(t, 0, tr.Index())
	c.RestoreIndices()
	assert.Equal(t, 0, tr.Index(), "ResetAll drops pending snapshots")
}

func TestContainer_SignalsPrefixedWhenMultipleTracesLoaded(t *testing.T) {
	c := NewContainer()
	tr0 := addVirtual(t, c, "t0", 3)
	tr0.SetSignal("clk", 0, "1")
	tr1 := addVirtual(t, c, "t1", 3)
	tr1.SetSignal("rst", 0, "0")

	sigs := c.Signals()
	assert.Contains(t, sigs, "t0^clk")
	assert.Contains(t, sigs, "t1^rst")
}

func TestContainer_SignalsUnprefixedForSingleTrace(t *testing.T) {
	c := NewContainer()
	tr := addVirtual(t, c, "t0", 3)
	tr.SetSignal("clk", 0, "1")

	assert.Equal(t, []string{"clk"}, c.Signals())
}

func TestContainer_GroupsFindsCommonPrefixes(t *testing.T) {
	c := NewContainer()
	tr := addVirtual(t, c, "t0", 3)
	tr.SetSignal("cpu.clk", 0, "1")
	tr.SetSignal("cpu.rst", 0, "0")
	tr.SetSignal("gpu.clk", 0, "1")

	groups := c.Groups([]string{".clk", ".rst"})
	assert.Equal(t, []string{"cpu"}, groups)
}

func TestContainer_GroupsWithNoPatternsReturnsNil(t *testing.T) {
	c := NewContainer()

	assert.Nil(t, c.Groups(nil))
}

func TestContainer_AddVirtualSignalRoutesToResolvedTrace(t *testing.T) {
	c := NewContainer()
	c.SetEvaluator(stubEvaluator{v: IntValue(99)})
	addVirtual(t, c, "t0", 3)

	require.NoError(t, c.AddVirtualSignal("answer", nil))

	v, err := c.SignalValue("answer", 0, "")
	require.NoError(t, err)
	assert.Equal(t, int64(99), v.Int)
}
