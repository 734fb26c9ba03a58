package wal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvironment_DefineAndRead(t *testing.T) {
	env := NewEnvironment()
	require.NoError(t, env.Define("x", Int(1)))

	v, err := env.Read("x")
	require.NoError(t, err)
	assert.Equal(t, int64(1), v.Int)
}

func TestEnvironment_Define_RejectsRedefinitionInSameFrame(t *testing.T) {
	env := NewEnvironment()
	require.NoError(t, env.Define("x", Int(1)))

	err := env.Define("x", Int(2))
	require.Error(t, err)
}

func TestEnvironment_Child_ShadowsWithoutLeaking(t *testing.T) {
	root := NewEnvironment()
	require.NoError(t, root.Define("x", Int(2)))

	child := root.Child()
	require.NoError(t, child.Define("x", Int(5)))

	v, err := child.Read("x")
	require.NoError(t, err)
	assert.Equal(t, int64(5), v.Int)

	v, err = root.Read("x")
	require.NoError(t, err)
	assert.Equal(t, int64(2), v.Int, "child shadowing must not leak into the parent frame")
}

func TestEnvironment_Read_UndefinedErrors(t *testing.T) {
	env := NewEnvironment()
	_, err := env.Read("missing")
	require.Error(t, err)
}

func TestEnvironment_Write_MutatesNearestOwningFrame(t *testing.T) {
	root := NewEnvironment()
	require.NoError(t, root.Define("x", Int(1)))

	child := root.Child()
	require.NoError(t, child.Write("x", Int(9)))

	v, err := root.Read("x")
	require.NoError(t, err)
	assert.Equal(t, int64(9), v.Int)
}

func TestEnvironment_Write_UnboundErrors(t *testing.T) {
	env := NewEnvironment()
	err := env.Write("missing", Int(1))
	require.Error(t, err)
}

func TestEnvironment_Undefine(t *testing.T) {
	env := NewEnvironment()
	require.NoError(t, env.Define("x", Int(1)))
	require.NoError(t, env.Undefine("x"))

	_, err := env.Read("x")
	require.Error(t, err)

	require.Error(t, env.Undefine("x"))
}

func TestEnvironment_IsDefined_WalksChain(t *testing.T) {
	root := NewEnvironment()
	require.NoError(t, root.Define("x", Int(1)))

	child := root.Child()
	assert.Same(t, root, child.IsDefined("x"))
	assert.Nil(t, child.IsDefined("missing"))
}

func TestEnvironment_ReadSteps(t *testing.T) {
	root := NewEnvironment()
	require.NoError(t, root.Define("x", Int(1)))

	mid := root.Child()
	leaf := mid.Child()

	v, ok := leaf.ReadSteps("x", 2)
	require.True(t, ok)
	assert.Equal(t, int64(1), v.Int)

	_, ok = leaf.ReadSteps("x", 1)
	assert.False(t, ok)

	_, ok = leaf.ReadSteps("x", 50)
	assert.False(t, ok, "walking past the root must fail, not panic")
}

func TestEnvironment_WriteSteps(t *testing.T) {
	root := NewEnvironment()
	require.NoError(t, root.Define("x", Int(1)))

	leaf := root.Child().Child()

	ok := leaf.WriteSteps("x", 2, Int(42))
	require.True(t, ok)

	v, err := root.Read("x")
	require.NoError(t, err)
	assert.Equal(t, int64(42), v.Int)

	assert.False(t, leaf.WriteSteps("missing", 2, Int(1)))
	assert.False(t, leaf.WriteSteps("x", 500, Int(1)))
}
