// Package diag defines the single error type raised by every stage of the
// compiler, carrying enough position information to print a source-level
// diagnostic.
package diag

import (
	"fmt"
	"strings"
)

// Kind classifies which pipeline stage raised an Error.
type Kind int

const (
	Preprocessor Kind = iota
	Syntax
	Semantic
	TargetCompat
)

func (k Kind) String() string {
	switch k {
	case Preprocessor:
		return "preprocessor error"
	case Syntax:
		return "syntax error"
	case Semantic:
		return "semantic error"
	case TargetCompat:
		return "target compatibility error"
	default:
		return "error"
	}
}

// Error is the structured diagnostic raised by any compiler stage. It always
// carries enough context to print `file:line:col: message` plus a short
// window of surrounding source.
type Error struct {
	Kind    Kind
	File    string
	Line    int
	Column  int
	Message string
	Context string // up to contextWidth characters of surrounding source
}

const contextWidth = 40

// New builds an Error, trimming Context to contextWidth runes centered on
// Column when possible.
func New(kind Kind, file string, line, column int, source, format string, args ...any) *Error {
	return &Error{
		Kind:    kind,
		File:    file,
		Line:    line,
		Column:  column,
		Message: fmt.Sprintf(format, args...),
		Context: windowAround(source, column),
	}
}

func windowAround(line string, column int) string {
	if line == "" {
		return ""
	}
	runes := []rune(line)
	col := column - 1
	if col < 0 {
		col = 0
	}
	if col > len(runes) {
		col = len(runes)
	}
	half := contextWidth / 2
	start := col - half
	if start < 0 {
		start = 0
	}
	end := start + contextWidth
	if end > len(runes) {
		end = len(runes)
		start = end - contextWidth
		if start < 0 {
			start = 0
		}
	}
	return strings.TrimSpace(string(runes[start:end]))
}

func (e *Error) Error() string {
	if e.Context == "" {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.File, e.Line, e.Column, e.Kind, e.Message)
	}
	return fmt.Sprintf("%s:%d:%d: %s: %s\n  near: %q", e.File, e.Line, e.Column, e.Kind, e.Message, e.Context)
}

// Is reports whether target is an *Error with the same Kind, so callers can
// use errors.Is(err, diag.Semantic) style checks via a sentinel wrapper if
// desired. Most callers just inspect Kind directly after a type assertion.
func (e *Error) Is(target error) bool {
	other, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == other.Kind
}
