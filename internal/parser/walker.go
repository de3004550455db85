// Package parser consumes the token stream internal/lexer produces and
// builds the internal/ast tree, per spec.md §4.3. Expressions are built as
// flat Groups (spec.md §3 "Group: ordered list of children"); the
// precedence-based re-grouping into Operator Left/Right/Operand trees
// happens later, during lowering (spec.md §4.5.6), not here — this mirrors
// the teacher's separation between tokenising and its own later
// interpretation passes.
package parser

import (
	"github.com/sdscp/sdscc/internal/diag"
	"github.com/sdscp/sdscc/internal/lexer"
)

// Walker is a cursor over a flat token slice, adapted from the teacher's
// tokenReader peek/consume/lookAheadIs API in
// language/internal/cc/parser/token_reader.go.
type Walker struct {
	toks []lexer.Token
	pos  int
	file string
}

func NewWalker(toks []lexer.Token, file string) *Walker {
	return &Walker{toks: toks, file: file}
}

func (w *Walker) Eof() bool { return w.pos >= len(w.toks) }

func (w *Walker) Peek() lexer.Token {
	if w.Eof() {
		return lexer.Token{}
	}
	return w.toks[w.pos]
}

func (w *Walker) PeekAt(n int) lexer.Token {
	if w.pos+n >= len(w.toks) {
		return lexer.Token{}
	}
	return w.toks[w.pos+n]
}

func (w *Walker) Next() lexer.Token {
	t := w.Peek()
	w.pos++
	return t
}

// LookAheadIs reports whether the next token is a Word with the given text.
func (w *Walker) LookAheadIs(word string) bool {
	t := w.Peek()
	return t.Kind == lexer.Word && t.Text == word
}

// Consume requires the next token to be a Word equal to word, and advances
// past it.
func (w *Walker) Consume(word string) error {
	if !w.LookAheadIs(word) {
		return w.errorf("expected %q, got %q", word, w.Peek().Text)
	}
	w.Next()
	return nil
}

// ConsumeKind requires the next token to have the given kind, and returns
// it after advancing.
func (w *Walker) ConsumeKind(kind lexer.Kind) (lexer.Token, error) {
	t := w.Peek()
	if t.Kind != kind {
		return t, w.errorf("expected %s, got %s %q", kind, t.Kind, t.Text)
	}
	return w.Next(), nil
}

// ConsumePunct requires and consumes a specific Punct token's text (",",
// ";" or ":").
func (w *Walker) ConsumePunct(text string) error {
	t := w.Peek()
	if t.Kind != lexer.Punct || t.Text != text {
		return w.errorf("expected %q, got %q", text, t.Text)
	}
	w.Next()
	return nil
}

// SkipOptionalSemicolon consumes a trailing ";" if present.
func (w *Walker) SkipOptionalSemicolon() {
	if t := w.Peek(); t.Kind == lexer.Punct && t.Text == ";" {
		w.Next()
	}
}

func (w *Walker) errorf(format string, args ...any) error {
	pos := w.Peek().Pos
	return diag.New(diag.Syntax, w.file, pos.Line, pos.Column, "", format, args...)
}

func (w *Walker) posErrorf(pos lexer.Cursor, format string, args ...any) error {
	return diag.New(diag.Syntax, w.file, pos.Line, pos.Column, "", format, args...)
}
