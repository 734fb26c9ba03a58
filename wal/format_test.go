package wal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormat_Atoms(t *testing.T) {
	assert.Equal(t, "42", Format(Int(42)))
	assert.Equal(t, "3.5", Format(Float(3.5)))
	assert.Equal(t, `"hi"`, Format(String("hi")))
	assert.Equal(t, "true", Format(True))
	assert.Equal(t, "false", Format(False))
	assert.Equal(t, "nil", Format(Nil))
}

func TestFormat_List(t *testing.T) {
	assert.Equal(t, "(1 2 3)", Format(List(Int(1), Int(2), Int(3))))
}

func TestFormatValue_StringsUnquoted(t *testing.T) {
	assert.Equal(t, "hi", formatValue(String("hi")))
	assert.Equal(t, "42", formatValue(Int(42)))
}

func TestFormat_RoundTripsThroughReader(t *testing.T) {
	// spec.md 8 property 1: read(print(read(P))) = read(P) up to span.
	sources := []string{
		"42", "-7", "3.5", `"hi"`, "true", "false", "(+ 1 2 3)", "(a (b c) d)",
	}

	for _, src := range sources {
		t.Run(src, func(t *testing.T) {
			first, err := ReadSexpr(src)
			require.NoError(t, err)

			printed := Format(first)

			second, err := ReadSexpr(printed)
			require.NoError(t, err)

			assert.True(t, first.Equal(second), "round trip mismatch: %q -> %q", src, printed)
		})
	}
}

func TestFormat_Mapping(t *testing.T) {
	m := NewMapping()
	m.Set("a", Int(1))

	out := Format(Value{Kind: KindMapping, Map: m})
	assert.Equal(t, `(array ("a" 1))`, out)
}
