package directives

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEvaluateConstExpr(t *testing.T) {
	cases := []struct {
		expr string
		want int
	}{
		{"1 + 2 * 3", 7},
		{"(1 + 2) * 3", 9},
		{"1 << 4", 16},
		{"1 == 1 && 2 != 3", 1},
		{"!0", 1},
		{"~0", -1},
		{"2 ** 8", 256},
		{"0x10 + 0b10", 18},
	}
	for _, c := range cases {
		got, err := EvaluateConstExpr(c.expr)
		require.NoErrorf(t, err, "expr %q", c.expr)
		require.Equalf(t, c.want, got, "expr %q", c.expr)
	}
}

func TestEvaluateConstExprDivisionByZero(t *testing.T) {
	_, err := EvaluateConstExpr("1 / 0")
	require.Error(t, err)
}

func TestEvaluateConstExprPowerOutOfBounds(t *testing.T) {
	_, err := EvaluateConstExpr("2 ** 1000")
	require.Error(t, err)
}

func TestEvaluateConstExprDefinedSurvivor(t *testing.T) {
	// A defined(X) that survived textual replacement (e.g. produced by
	// macro expansion after substitution) evaluates as false.
	got, err := EvaluateConstExpr("defined(X) || 1")
	require.NoError(t, err)
	require.Equal(t, 1, got)
}
