package wal

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIO_PrintWritesConcatenatedValuesWithNewline(t *testing.T) {
	var buf bytes.Buffer
	ev := NewEvaluator(WithOutput(&buf))

	_, err := evalSrc(t, ev, `(print "x=" 5)`)
	require.NoError(t, err)
	assert.Equal(t, "x=5\n", buf.String())
}

func TestIO_PrintfFormatsOperands(t *testing.T) {
	var buf bytes.Buffer
	ev := NewEvaluator(WithOutput(&buf))

	_, err := evalSrc(t, ev, `(printf "%s=%d" "count" 3)`)
	require.NoError(t, err)
	assert.Equal(t, "count=3", buf.String())
}

func TestIO_PrintfRequiresFormatString(t *testing.T) {
	ev := NewEvaluator()

	_, err := evalSrc(t, ev, "(printf 5)")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrKindMismatch)
}

func TestIO_PrintfMismatchSurfacesAsEvalError(t *testing.T) {
	ev := NewEvaluator()

	_, err := evalSrc(t, ev, `(printf "%d" "not a number")`)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrKindMismatch)
}

func TestIO_PrintfNoArgsJustFormatString(t *testing.T) {
	var buf bytes.Buffer
	ev := NewEvaluator(WithOutput(&buf))

	_, err := evalSrc(t, ev, `(printf "hello")`)
	require.NoError(t, err)
	assert.Equal(t, "hello", buf.String())
}
