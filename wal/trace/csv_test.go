package trace

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCSV = "Time [s],clk,count\n" +
	"0.0,1,0\n" +
	"0.000000001,0,3\n" +
	"0.000000002,1,1\n"

func TestLoadCSV_ParsesHeaderAndSignals(t *testing.T) {
	tr, err := loadCSV(strings.NewReader(sampleCSV), "t0", "sample.csv", nil)
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"clk", "count"}, tr.RawSignals())
	assert.Empty(t, tr.Scopes(), "CSV traces carry no module hierarchy")
	assert.Equal(t, 2, tr.MaxIndex())
}

func TestLoadCSV_ConvertsSecondsToNanoseconds(t *testing.T) {
	tr, err := loadCSV(strings.NewReader(sampleCSV), "t0", "sample.csv", nil)
	require.NoError(t, err)

	v, err := tr.SignalValue("TS", 1, "")
	require.NoError(t, err)
	assert.Equal(t, int64(1), v.Int)
}

func TestLoadCSV_AccessSignalDataByIndex(t *testing.T) {
	tr, err := loadCSV(strings.NewReader(sampleCSV), "t0", "sample.csv", nil)
	require.NoError(t, err)

	v, err := tr.SignalValue("count", 1, "")
	require.NoError(t, err)
	assert.Equal(t, int64(3), v.Int)
}

func TestLoadCSV_SignalWidthInferredFromWidestValue(t *testing.T) {
	tr, err := loadCSV(strings.NewReader(sampleCSV), "t0", "sample.csv", nil)
	require.NoError(t, err)

	w, err := tr.SignalWidth("count")
	require.NoError(t, err)
	assert.Equal(t, 3, w)
}

func TestLoadCSV_EmptyHeaderErrors(t *testing.T) {
	_, err := loadCSV(strings.NewReader(""), "t0", "empty.csv", nil)
	require.Error(t, err)
}

func TestLoadCSV_UnknownSignalErrors(t *testing.T) {
	tr, err := loadCSV(strings.NewReader(sampleCSV), "t0", "sample.csv", nil)
	require.NoError(t, err)

	_, err = tr.SignalValue("never", 0, "")
	require.Error(t, err)
}
