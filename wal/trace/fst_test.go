package trace

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func putU32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}

func putU64(buf *bytes.Buffer, v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	buf.Write(b[:])
}

func putString(buf *bytes.Buffer, s string) {
	putU32(buf, uint32(len(s)))
	buf.WriteString(s)
}

// buildFST assembles the minimal binary container loadFST understands:
// one scope, two signals, two timestamps.
func buildFST(t *testing.T) []byte {
	t.Helper()

	var buf bytes.Buffer

	buf.WriteString("FST1")

	putU32(&buf, 1)
	putString(&buf, "top")

	putU32(&buf, 2)
	putString(&buf, "clk")
	putU32(&buf, 1)
	putString(&buf, "bus")
	putU32(&buf, 4)

	putU32(&buf, 2)
	putU64(&buf, 0)
	putU64(&buf, 5)

	// signal 0 (clk) values, one per timestamp
	putString(&buf, "1")
	putString(&buf, "0")

	// signal 1 (bus) values, one per timestamp
	putString(&buf, "0000")
	putString(&buf, "1010")

	return buf.Bytes()
}

func TestLoadFST_ParsesScopesSignalsAndValues(t *testing.T) {
	tr, err := loadFST(bytes.NewReader(buildFST(t)), "t0", "sample.fst", nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"top"}, tr.Scopes())
	assert.ElementsMatch(t, []string{"clk", "bus"}, tr.RawSignals())
	assert.Equal(t, 1, tr.MaxIndex())

	w, err := tr.SignalWidth("bus")
	require.NoError(t, err)
	assert.Equal(t, 4, w)

	v, err := tr.SignalValue("clk", 0, "")
	require.NoError(t, err)
	assert.Equal(t, int64(1), v.Int)

	v, err = tr.SignalValue("bus", 1, "")
	require.NoError(t, err)
	assert.Equal(t, int64(10), v.Int)
}

func TestLoadFST_BadMagicErrors(t *testing.T) {
	_, err := loadFST(bytes.NewReader([]byte("XXXX")), "t0", "bad.fst", nil)
	require.Error(t, err)
}

func TestLoadFST_TruncatedStreamErrors(t *testing.T) {
	data := buildFST(t)

	_, err := loadFST(bytes.NewReader(data[:len(data)-4]), "t0", "sample.fst", nil)
	require.Error(t, err)
}

func TestLoadFST_UnknownSignalErrors(t *testing.T) {
	tr, err := loadFST(bytes.NewReader(buildFST(t)), "t0", "sample.fst", nil)
	require.NoError(t, err)

	_, err = tr.SignalValue("never", 0, "")
	require.Error(t, err)
}

func TestLoadFST_CachesDecodedValues(t *testing.T) {
	tr, err := loadFST(bytes.NewReader(buildFST(t)), "t0", "sample.fst", nil)
	require.NoError(t, err)

	v1, err := tr.SignalValue("clk", 0, "")
	require.NoError(t, err)

	v2, err := tr.SignalValue("clk", 0, "")
	require.NoError(t, err)

	assert.Equal(t, v1, v2)
}
