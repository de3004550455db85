package diag

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestErrorFormatting(t *testing.T) {
	err := New(Syntax, "main.sds", 3, 7, "var x = 1 + ;", "unexpected token %q", ";")
	require.Equal(t, Syntax, err.Kind)
	require.Contains(t, err.Error(), "main.sds:3:7: syntax error: unexpected token \";\"")
	require.Contains(t, err.Error(), "near:")
}

func TestErrorNoContext(t *testing.T) {
	err := New(Semantic, "main.sds", 1, 1, "", "undefined function %q", "foo")
	require.Equal(t, "main.sds:1:1: semantic error: undefined function \"foo\"", err.Error())
}

func TestIsComparesKind(t *testing.T) {
	a := New(TargetCompat, "a.sds", 1, 1, "", "bad")
	b := New(TargetCompat, "b.sds", 9, 9, "", "also bad")
	c := New(Preprocessor, "a.sds", 1, 1, "", "bad")
	require.True(t, a.Is(b))
	require.False(t, a.Is(c))
	require.False(t, a.Is(nil))
}

func TestKindString(t *testing.T) {
	require.Equal(t, "preprocessor error", Preprocessor.String())
	require.Equal(t, "target compatibility error", TargetCompat.String())
}
