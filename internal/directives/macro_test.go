package directives

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestProcessor(t *testing.T) *Processor {
	t.Helper()
	return NewProcessor(fsStub{}, nil)
}

type fsStub struct{}

func (fsStub) ReadFile(path string) (string, error) { return "", nil }

// TestMacroHygiene covers spec property 2: M(x) = x + x applied to an
// argument y substitutes the parameter and expands to "y + y" exactly once.
func TestMacroHygiene(t *testing.T) {
	p := newTestProcessor(t)
	m, err := parseDefine("M(x) x + x")
	require.NoError(t, err)
	p.Macros.Define(m)

	out, err := p.ApplyMacros("M(y)")
	require.NoError(t, err)
	require.Equal(t, "y + y", out)
}

// TestVariadicPasting covers spec property 3.
func TestVariadicPasting(t *testing.T) {
	p := newTestProcessor(t)
	m, err := parseDefine(`L(fmt, ...) log(fmt, ## __VA__)`)
	require.NoError(t, err)
	p.Macros.Define(m)

	out, err := p.ApplyMacros(`L("hi")`)
	require.NoError(t, err)
	require.Equal(t, `log("hi")`, out)

	out, err = p.ApplyMacros(`L("%d", n)`)
	require.NoError(t, err)
	require.Equal(t, `log("%d", n)`, out)
}

func TestConstantMacroExpansion(t *testing.T) {
	p := newTestProcessor(t)
	m, err := parseDefine("MAX 100")
	require.NoError(t, err)
	p.Macros.Define(m)

	out, err := p.ApplyMacros("var x = MAX;")
	require.NoError(t, err)
	require.Equal(t, "var x = 100;", out)
}

func TestArrayLikeMacroExpansion(t *testing.T) {
	p := newTestProcessor(t)
	m, err := parseDefine("PIN[n] (n + 10)")
	require.NoError(t, err)
	p.Macros.Define(m)

	out, err := p.ApplyMacros("gpio_write(PIN[2], 1);")
	require.NoError(t, err)
	require.Equal(t, "gpio_write((2 + 10), 1);", out)
}

func TestMacroOverloadResolutionPicksFirstMatchingArity(t *testing.T) {
	p := newTestProcessor(t)
	one, err := parseDefine("F(a) a")
	require.NoError(t, err)
	two, err := parseDefine("F(a, b) a + b")
	require.NoError(t, err)
	p.Macros.Define(one)
	p.Macros.Define(two)

	out, err := p.ApplyMacros("F(1, 2)")
	require.NoError(t, err)
	require.Equal(t, "1 + 2", out)
}

func TestApplyMacrosDepthLimitOnRecursiveMacro(t *testing.T) {
	p := newTestProcessor(t)
	m, err := parseDefine("REC REC")
	require.NoError(t, err)
	p.Macros.Define(m)

	_, err = p.ApplyMacros("REC")
	require.Error(t, err)
}
