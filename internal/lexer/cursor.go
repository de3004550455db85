package lexer

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Cursor is a position in the source code. Line and Column are 1-based.
type Cursor struct {
	Line, Column int
}

// CursorInit is the initial cursor position, at the start of a file.
var CursorInit = Cursor{Line: 1, Column: 1}

func (c Cursor) String() string {
	return fmt.Sprintf("%d:%d", c.Line, c.Column)
}

// AdvancedBy returns a new Cursor advanced by the given text, assuming the
// current cursor points at the beginning of text.
func (c Cursor) AdvancedBy(text string) Cursor {
	newlines := strings.Count(text, "\n")
	tailBegin := 1 + strings.LastIndex(text, "\n")
	tailLen := utf8.RuneCountInString(text[tailBegin:])

	if newlines == 0 {
		c.Column += tailLen
	} else {
		c.Line += newlines
		c.Column = 1 + tailLen
	}
	return c
}
