package passes

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sdscp/sdscc/internal/ast"
)

func TestRemoveDeadCodeCullsUnreachableAfterGoto(t *testing.T) {
	stmts := []ast.Stmt{
		&ast.Goto{Label: "skip"},
		&ast.Call{Name: "echo"},
		&ast.Label{Name: "skip"},
		&ast.Call{Name: "done"},
	}
	out, err := RemoveDeadCode(stmts)
	require.NoError(t, err)
	// echo is culled; the goto then sits directly before its own label and
	// is dropped, which leaves "skip" unreferenced and pruned.
	require.Len(t, out, 1)
	call, ok := out[0].(*ast.Call)
	require.True(t, ok)
	require.Equal(t, "done", call.Name)
}

func TestRemoveDeadCodePrunesUnusedLabels(t *testing.T) {
	stmts := []ast.Stmt{
		&ast.Label{Name: "unreferenced"},
		&ast.Call{Name: "echo"},
	}
	out, err := RemoveDeadCode(stmts)
	require.NoError(t, err)
	require.Len(t, out, 1)
	_, ok := out[0].(*ast.Call)
	require.True(t, ok)
}

func TestRemoveDeadCodeErrorsOnUndefinedLabel(t *testing.T) {
	stmts := []ast.Stmt{
		&ast.Goto{Label: "nowhere"},
	}
	_, err := RemoveDeadCode(stmts)
	require.Error(t, err)
}

// TestRemoveDeadCodeFixpoint covers spec property 8: a second pass over an
// already-reduced program is a no-op.
func TestRemoveDeadCodeFixpoint(t *testing.T) {
	stmts := []ast.Stmt{
		&ast.Goto{Label: "skip"},
		&ast.Call{Name: "echo"},
		&ast.Label{Name: "skip"},
		&ast.Label{Name: "dead"},
		&ast.Call{Name: "done"},
	}
	once, err := RemoveDeadCode(stmts)
	require.NoError(t, err)

	twice, err := RemoveDeadCode(once)
	require.NoError(t, err)

	require.Equal(t, len(once), len(twice))
	for i := range once {
		require.IsType(t, once[i], twice[i])
	}
}

func TestRemoveDeadCodeKeepsFuncBannerThroughCull(t *testing.T) {
	stmts := []ast.Stmt{
		&ast.Goto{Label: "skip"},
		&ast.Comment{Text: "---- FUNC add ----"},
		&ast.Call{Name: "echo"},
		&ast.Label{Name: "skip"},
	}
	out, err := RemoveDeadCode(stmts)
	require.NoError(t, err)

	var sawComment bool
	for _, s := range out {
		if c, ok := s.(*ast.Comment); ok {
			sawComment = true
			require.Equal(t, "---- FUNC add ----", c.Text)
		}
	}
	require.True(t, sawComment, "FUNC banner comment must survive the cull")
}
