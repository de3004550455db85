package pragma

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultTrampolineLimit(t *testing.T) {
	b := Default()
	require.True(t, b.SafeStack)
	require.Equal(t, 2, b.PushPopTrampolineLimit)

	b.SafeStack = false
	require.Equal(t, 3, b.defaultTrampolineLimit())
}

func TestSet(t *testing.T) {
	cases := []struct {
		name  string
		value string
		check func(t *testing.T, b Bundle)
	}{
		{"stack_start", "100", func(t *testing.T, b Bundle) { require.Equal(t, 100, b.StackStart) }},
		{"safe_stack", "false", func(t *testing.T, b Bundle) { require.False(t, b.SafeStack) }},
		{"safe_stack", "", func(t *testing.T, b Bundle) { require.True(t, b.SafeStack) }},
		{"renderer", "asm", func(t *testing.T, b Bundle) { require.Equal(t, RendererAsm, b.Renderer) }},
		{"indent", "spaces", func(t *testing.T, b Bundle) { require.Equal(t, "spaces", b.Indent) }},
	}
	for _, c := range cases {
		b := Default()
		require.NoError(t, b.Set(c.name, c.value))
		c.check(t, b)
	}
}

func TestSetUnknownPragma(t *testing.T) {
	b := Default()
	err := b.Set("not_a_pragma", "1")
	require.Error(t, err)
}

func TestSetInvalidBoolean(t *testing.T) {
	b := Default()
	err := b.Set("fullspeed", "maybe")
	require.Error(t, err)
}

func TestFlagSetNameValue(t *testing.T) {
	b := Default()
	f := &Flag{Bundle: &b}
	require.NoError(t, f.Set("stack_end=400"))
	require.Equal(t, 400, b.StackEnd)

	require.NoError(t, f.Set("keep_names true"))
	require.True(t, b.KeepNames)
}
