// Package render turns a statement tree into target-dialect source text.
// Three renderers share the Printer backbone defined here (spec.md §4.7):
// Debug prints the full structured C-like tree for inspection, Simple
// prints an already-restricted tree with surface-level rewrites, and Asm
// prints the lowering engine's flat output. Debug is the "generic render"
// layer; Simple and Asm share the restricted-statement printer in target.go.
package render

import (
	"fmt"
	"strings"
	"time"

	"github.com/sdscp/sdscc/internal/pragma"
)

// Printer accumulates rendered lines with pragma-controlled indentation.
type Printer struct {
	bundle pragma.Bundle
	buf    strings.Builder
	depth  int
}

// NewPrinter creates a Printer using bundle's indent style.
func NewPrinter(bundle pragma.Bundle) *Printer {
	return &Printer{bundle: bundle}
}

func (p *Printer) indentUnit() string {
	switch p.bundle.Indent {
	case "", "tabs":
		return "\t"
	case "spaces":
		return "    "
	default:
		return p.bundle.Indent
	}
}

// Indent increases the nesting depth for subsequent Line calls.
func (p *Printer) Indent() { p.depth++ }

// Dedent decreases the nesting depth, never below zero.
func (p *Printer) Dedent() {
	if p.depth > 0 {
		p.depth--
	}
}

// Line writes one formatted, indented source line.
func (p *Printer) Line(format string, args ...any) {
	p.buf.WriteString(strings.Repeat(p.indentUnit(), p.depth))
	fmt.Fprintf(&p.buf, format, args...)
	p.buf.WriteByte('\n')
}

// Blank writes an empty line.
func (p *Printer) Blank() { p.buf.WriteByte('\n') }

// Raw writes text with no indentation or trailing newline management beyond
// what text itself carries; used for the banner block.
func (p *Printer) Raw(text string) { p.buf.WriteString(text) }

// String returns the accumulated output.
func (p *Printer) String() string { return p.buf.String() }

// clock lets tests substitute a fixed timestamp; production code leaves it
// nil and falls back to time.Now, matching the teacher's pattern of keeping
// wall-clock reads out of pure rendering logic where a test needs
// determinism.
var clock func() time.Time

func now() time.Time {
	if clock != nil {
		return clock()
	}
	return time.Now()
}

// Banner builds the decorative header comment spec.md §4.7 describes
// ("logo + header — name, author, version, timestamp, renderer name"),
// prepended when the pragma bundle requests it. A bundle requests a banner
// by setting Name; Author/Version are included when present.
func Banner(bundle pragma.Bundle, rendererName string) string {
	if bundle.Name == "" {
		return ""
	}
	var b strings.Builder
	b.WriteString("/*\n")
	fmt.Fprintf(&b, " * %s\n", bundle.Name)
	if bundle.Author != "" {
		fmt.Fprintf(&b, " * author:   %s\n", bundle.Author)
	}
	if bundle.Version != "" {
		fmt.Fprintf(&b, " * version:  %s\n", bundle.Version)
	}
	fmt.Fprintf(&b, " * compiled: %s\n", now().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, " * renderer: %s\n", rendererName)
	b.WriteString(" */\n")
	return b.String()
}
