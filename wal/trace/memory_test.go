package trace

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemBackend_SetSignalRegistersOnFirstWrite(t *testing.T) {
	b := newMemBackend(4)

	assert.False(t, b.Contains("clk"))

	b.SetSignal("clk", 0, "1")

	assert.True(t, b.Contains("clk"))
	assert.Equal(t, []string{"clk"}, b.RawSignals())

	w, err := b.SignalWidth("clk")
	require.NoError(t, err)
	assert.Equal(t, 1, w)
}

func TestMemBackend_SetSignalGrowsWidthForWiderBinaryValue(t *testing.T) {
	b := newMemBackend(4)

	b.SetSignal("bus", 0, "1")
	b.SetSignal("bus", 1, "1010")

	w, err := b.SignalWidth("bus")
	require.NoError(t, err)
	assert.Equal(t, 4, w)
}

func TestMemBackend_SetSignalIgnoresNonBinaryForWidth(t *testing.T) {
	b := newMemBackend(4)

	b.SetSignal("sig", 0, "1")
	b.SetSignal("sig", 1, "hello")

	w, err := b.SignalWidth("sig")
	require.NoError(t, err)
	assert.Equal(t, 1, w, "a non-binary value does not widen the inferred width")
}

func TestMemBackend_AccessSignalDataDefaultsToX(t *testing.T) {
	b := newMemBackend(4)
	b.SetSignal("sig", 0, "1")

	v, err := b.AccessSignalData("sig", 2)
	require.NoError(t, err)
	assert.Equal(t, "x", v)

	v, err = b.AccessSignalData("never", 0)
	require.NoError(t, err)
	assert.Equal(t, "x", v)
}

func TestMemBackend_SignalWidthUnknownSignalErrors(t *testing.T) {
	b := newMemBackend(4)

	_, err := b.SignalWidth("never")
	require.Error(t, err)
}

func TestMemBackend_ScopesAlwaysEmpty(t *testing.T) {
	b := newMemBackend(4)
	b.SetSignal("clk", 0, "1")

	assert.Nil(t, b.Scopes())
}

func TestNewVirtualTrace_ZeroMaxIndexStillHasOneSample(t *testing.T) {
	tr := NewVirtualTrace("t", -1, nil)

	assert.Equal(t, 0, tr.MaxIndex())
}
