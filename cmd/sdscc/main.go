// Command sdscc compiles a source file written in the high-level dialect
// down to the restricted SDS-C target dialect, driving the full pipeline:
// directive processing, macro expansion, tokenizing, parsing, brace
// insertion, optional lowering, and rendering.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/sdscp/sdscc/internal/ast"
	"github.com/sdscp/sdscc/internal/directives"
	"github.com/sdscp/sdscc/internal/lexer"
	"github.com/sdscp/sdscc/internal/lower"
	"github.com/sdscp/sdscc/internal/parser"
	"github.com/sdscp/sdscc/internal/passes"
	"github.com/sdscp/sdscc/internal/pragma"
	"github.com/sdscp/sdscc/internal/render"
)

// stringList collects a repeatable flag ("-I path", usable more than once)
// into an ordered slice, mirroring the teacher's flag.Var usage for
// repeatable string flags in index/bzlmod/main.go.
type stringList []string

func (l *stringList) String() string { return strings.Join(*l, ",") }
func (l *stringList) Set(v string) error {
	*l = append(*l, v)
	return nil
}

// diskFS implements directives.FileSystem against the real filesystem.
type diskFS struct{}

func (diskFS) ReadFile(path string) (string, error) {
	b, err := os.ReadFile(path)
	return string(b), err
}

func main() {
	var (
		out          = flag.String("o", "", "output path (%V is replaced with the pragma bundle's version); default: stdout")
		dump         = flag.Bool("d", false, "dump the rendered output to stdout regardless of -o")
		configPath   = flag.String("config", "", "path to an sdscc.toml pragma bundle, applied before -p overrides")
		rendererFlag = flag.String("renderer", "", "override the renderer pragma: simple, asm, or debug")
		showOriginal = flag.Bool("show-original", false, "print the unprocessed source")
		showResolved = flag.Bool("show-resolved", false, "print the source after directive processing and macro expansion")
		showTokens   = flag.Bool("show-tokens", false, "print the flat statement token stream")
		showStmts    = flag.Bool("show-statements", false, "print the parsed, brace-inserted statement tree")
		showGen      = flag.Bool("show-generated", false, "print the rendered output even when -o also writes it to a file")
	)
	var includeRoots stringList
	flag.Var(&includeRoots, "I", "include search root, may be repeated")
	var pragmas stringList
	flag.Var(&pragmas, "p", "pragma override \"name value\" or \"name=value\", may be repeated")
	flag.Parse()

	if flag.NArg() != 1 {
		log.Fatalf("usage: sdscc [flags] <source-file>")
	}
	mainPath := flag.Arg(0)

	bundle := pragma.Default()
	if *configPath != "" {
		b, err := pragma.LoadFile(*configPath)
		if err != nil {
			log.Fatalf("loading pragma config: %v", err)
		}
		bundle = b
	}
	pf := &pragma.Flag{Bundle: &bundle}
	for _, raw := range pragmas {
		if err := pf.Set(raw); err != nil {
			log.Fatalf("parsing -p %q: %v", raw, err)
		}
	}
	if *rendererFlag != "" {
		bundle.Renderer = pragma.Renderer(*rendererFlag)
	}

	original, err := os.ReadFile(mainPath)
	if err != nil {
		log.Fatalf("reading %s: %v", mainPath, err)
	}
	if *showOriginal {
		fmt.Println(string(original))
	}

	proc := directives.NewProcessor(diskFS{}, includeRoots)
	pp, err := proc.Process(mainPath)
	if err != nil {
		log.Fatalf("%v", err)
	}
	resolved, err := proc.ApplyMacros(pp)
	if err != nil {
		log.Fatalf("%v", err)
	}
	if *showResolved {
		fmt.Println(resolved)
	}

	if *showTokens {
		for _, tok := range lexer.StatementTokens(resolved, lexer.CursorInit) {
			fmt.Printf("%s %q\n", tok.Kind, tok.Text)
		}
	}

	topLevel, err := parser.ParseProgram(resolved, mainPath)
	if err != nil {
		log.Fatalf("%v", err)
	}
	topLevel = passes.AddBraces(topLevel)
	if bundle.RemoveDeadCode {
		topLevel, err = passes.RemoveDeadCode(topLevel)
		if err != nil {
			log.Fatalf("%v", err)
		}
	}
	if *showStmts {
		fmt.Println(render.Debug(topLevel, bundle))
	}

	output, err := renderOutput(topLevel, bundle)
	if err != nil {
		log.Fatalf("%v", err)
	}

	if *out == "" || *dump || *showGen {
		fmt.Println(output)
	}
	if *out != "" {
		outPath := strings.ReplaceAll(*out, "%V", bundle.Version)
		if dir := filepath.Dir(outPath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				log.Fatalf("creating output directory: %v", err)
			}
		}
		if err := os.WriteFile(outPath, []byte(output), 0o644); err != nil {
			log.Fatalf("writing %s: %v", outPath, err)
		}
	}
}

func renderOutput(topLevel []ast.Stmt, bundle pragma.Bundle) (string, error) {
	switch bundle.Renderer {
	case pragma.RendererDebug:
		return render.Debug(topLevel, bundle), nil
	case pragma.RendererSimple:
		return render.Simple(topLevel, bundle)
	case pragma.RendererAsm:
		prog, err := lower.Lower(topLevel, bundle)
		if err != nil {
			return "", err
		}
		return render.Asm(prog, bundle)
	default:
		return "", fmt.Errorf("unknown renderer %q", bundle.Renderer)
	}
}
