package wal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadSexpr_Atoms(t *testing.T) {
	tests := []struct {
		name string
		src  string
		kind Kind
	}{
		{"int", "42", KindInt},
		{"negative int", "-7", KindInt},
		{"float", "3.14", KindFloat},
		{"hex", "0xFF", KindInt},
		{"binary", "0b1010", KindInt},
		{"string", `"hello"`, KindString},
		{"true", "true", KindBool},
		{"false", "false", KindBool},
		{"symbol", "foo", KindSymbol},
		{"list", "(+ 1 2)", KindList},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := ReadSexpr(tt.src)
			require.NoError(t, err)
			assert.Equal(t, tt.kind, v.Kind)
		})
	}
}

func TestReadSexpr_NumericValues(t *testing.T) {
	v, err := ReadSexpr("0xFF")
	require.NoError(t, err)
	assert.Equal(t, int64(255), v.Int)

	v, err = ReadSexpr("0b1010")
	require.NoError(t, err)
	assert.Equal(t, int64(10), v.Int)

	v, err = ReadSexpr("-7")
	require.NoError(t, err)
	assert.Equal(t, int64(-7), v.Int)
}

func TestReadSexpr_QuoteReaderMacros(t *testing.T) {
	v, err := ReadSexpr("'x")
	require.NoError(t, err)
	require.Equal(t, KindList, v.Kind)
	require.Len(t, v.List, 2)
	assert.Equal(t, "quote", v.List[0].Sym.Name)

	v, err = ReadSexpr("`x")
	require.NoError(t, err)
	assert.Equal(t, "quasiquote", v.List[0].Sym.Name)

	v, err = ReadSexpr(",x")
	require.NoError(t, err)
	assert.Equal(t, "unquote", v.List[0].Sym.Name)

	v, err = ReadSexpr(",@x")
	require.NoError(t, err)
	assert.Equal(t, "unquote-splice", v.List[0].Sym.Name)
}

func TestReadSexpr_ScopeAndGroupSugar(t *testing.T) {
	v, err := ReadSexpr("~x")
	require.NoError(t, err)
	require.Equal(t, KindList, v.Kind)
	assert.Equal(t, "resolve-scope", v.List[0].Sym.Name)
	assert.Equal(t, "x", v.List[1].Sym.Name)

	v, err = ReadSexpr("#x")
	require.NoError(t, err)
	assert.Equal(t, "resolve-group", v.List[0].Sym.Name)
}

func TestReadSexpr_RelEvalSugar(t *testing.T) {
	v, err := ReadSexpr("x@5")
	require.NoError(t, err)
	require.Equal(t, KindList, v.Kind)
	assert.Equal(t, "reval", v.List[0].Sym.Name)
}

func TestReadSexpr_CommentsAndShebangIgnored(t *testing.T) {
	v, err := ReadSexpr("#!/usr/bin/env wal\n; a comment\n42")
	require.NoError(t, err)
	assert.Equal(t, int64(42), v.Int)
}

func TestReadSexprs_MultipleTopLevelForms(t *testing.T) {
	exprs, err := ReadSexprs("1 2 3")
	require.NoError(t, err)
	require.Len(t, exprs, 3)
	assert.Equal(t, int64(1), exprs[0].Int)
	assert.Equal(t, int64(3), exprs[2].Int)
}

func TestReadSexpr_UnterminatedListErrors(t *testing.T) {
	_, err := ReadSexpr("(+ 1 2")
	require.Error(t, err)
}

func TestReadSexpr_StringEscapes(t *testing.T) {
	v, err := ReadSexpr(`"a\nb"`)
	require.NoError(t, err)
	assert.Equal(t, "a\nb", v.Str)
}

func TestReader_Next_ReportsEOF(t *testing.T) {
	r := NewReader("42")

	v, ok, err := r.Next()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(42), v.Int)

	_, ok, err = r.Next()
	require.NoError(t, err)
	assert.False(t, ok)
}

func FuzzReadSexpr(f *testing.F) {
	seeds := []string{
		"42", "-7", "3.14", `"hi"`, "(+ 1 2)", "'x", "`(a ,b ,@c)",
		"~x", "#x", "x@5", "(let ([x 5]) x)", "0xFF", "0b1010",
		"(", ")", "\"unterminated", ";comment\n1",
	}

	for _, s := range seeds {
		f.Add(s)
	}

	f.Fuzz(func(t *testing.T, src string) {
		defer func() {
			if r := recover(); r != nil {
				t.Fatalf("ReadSexpr panicked on %q: %v", src, r)
			}
		}()

		_, _ = ReadSexpr(src)
	})
}
