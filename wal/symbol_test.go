package wal

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSymbol_ResolvedAndWithSteps(t *testing.T) {
	s := NewSymbol("x")
	assert.False(t, s.Resolved())

	resolved := s.WithSteps(2)
	assert.True(t, resolved.Resolved())
	assert.Equal(t, 2, resolved.Steps)
	assert.False(t, s.Resolved(), "WithSteps must not mutate the receiver")
}

func TestSymbol_Equal_IgnoresSpan(t *testing.T) {
	a := NewSymbolAt("x", Span{File: "a.wal", Line: 1})
	b := NewSymbolAt("x", Span{File: "b.wal", Line: 99})

	assert.True(t, a.Equal(b))

	c := a.WithSteps(1)
	assert.False(t, a.Equal(c))
}

func TestSpan_IsZero(t *testing.T) {
	assert.True(t, Span{}.IsZero())
	assert.False(t, Span{Line: 1, Column: 1}.IsZero())
}
