package directives

import (
	"fmt"
	"log"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/hashicorp/go-multierror"

	"github.com/sdscp/sdscc/internal/collections"
	"github.com/sdscp/sdscc/internal/diag"
)

const (
	maxIncludeDepth = 15
	maxMacroDepth   = 10
)

// FileSystem is the minimal file-reading surface the Processor needs,
// letting tests substitute an in-memory tree instead of the real disk.
type FileSystem interface {
	ReadFile(path string) (string, error)
}

// Processor turns a main source file plus command-line-injected pragmas
// into macro-free text, per spec.md §4.1.
type Processor struct {
	fs           FileSystem
	includeRoots []string

	Macros  MacroTable
	Pragmas PragmaTable

	includedOnce collections.Set[string]
	includeStack []string
	errs         *multierror.Error
}

// NewProcessor creates a Processor. includeRoots are searched, in order,
// after the including file's own directory, using doublestar glob matching
// against each root for "#include" resolution.
func NewProcessor(fs FileSystem, includeRoots []string) *Processor {
	return &Processor{
		fs:           fs,
		includeRoots: includeRoots,
		Macros:       NewMacroTable(),
		Pragmas:      NewPragmaTable(),
		includedOnce: make(collections.Set[string]),
	}
}

// DefineFromCommandLine injects a -D/-p style macro before processing
// begins, mirroring the teacher's ParseMacros in language/internal/cc/macros.go.
func (p *Processor) DefineFromCommandLine(name string, value string) {
	p.Macros.Define(&Macro{
		Name:     name,
		Kind:     Constant,
		Variadic: -1,
		RawBody:  value,
		Body:     []Fragment{{Literal: value, ParamIndex: -1}},
	})
}

// Process reads mainPath and every file it transitively #includes,
// expanding conditional directives and collecting #defines, and returns the
// directive-free, include-flattened text ready for ApplyMacros. Warnings
// collected on the way are logged; only *diag.Error findings are returned.
func (p *Processor) Process(mainPath string) (string, error) {
	out, err := p.processFile(mainPath)
	var fatal *multierror.Error
	if p.errs != nil {
		for _, e := range p.errs.Errors {
			if _, ok := e.(*diag.Error); ok {
				fatal = multierror.Append(fatal, e)
			} else {
				log.Print(e)
			}
		}
	}
	if err != nil {
		fatal = multierror.Append(fatal, err)
	}
	return out, fatal.ErrorOrNil()
}

func (p *Processor) addErr(err error) {
	p.errs = multierror.Append(p.errs, err)
}

func (p *Processor) processFile(path string) (string, error) {
	if len(p.includeStack) >= maxIncludeDepth {
		return "", diag.New(diag.Preprocessor, path, 0, 0, "", "include depth exceeds %d", maxIncludeDepth)
	}
	if p.includedOnce.Contains(path) {
		return "", nil
	}

	src, err := p.fs.ReadFile(path)
	if err != nil {
		return "", diag.New(diag.Preprocessor, path, 0, 0, "", "cannot read %s: %v", path, err)
	}

	p.includeStack = append(p.includeStack, path)
	defer func() { p.includeStack = p.includeStack[:len(p.includeStack)-1] }()

	var out strings.Builder
	lines := strings.Split(src, "\n")

	type branch struct {
		// parentLive is false if an enclosing branch is not taken, which
		// forces every nested branch to stay not-taken regardless of its
		// own condition.
		parentLive  bool
		taken       bool // whether *a* branch in this #if/#endif chain has matched yet
		live        bool // whether lines right now should be emitted
		sawElse     bool
		includeOnce bool
	}
	var stack []branch
	live := func() bool {
		if len(stack) == 0 {
			return true
		}
		return stack[len(stack)-1].live
	}

	for lineNo, line := range lines {
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, "#") {
			if live() {
				out.WriteString(line)
			}
			out.WriteString("\n")
			continue
		}

		directive, rest := splitDirective(trimmed)
		switch directive {
		case "if", "ifdef", "ifndef":
			cond := p.evalBranchCondition(directive, rest, path, lineNo)
			parentLive := live()
			stack = append(stack, branch{
				parentLive: parentLive,
				taken:      cond,
				live:       parentLive && cond,
			})

		case "elif":
			if len(stack) == 0 {
				p.addErr(diag.New(diag.Preprocessor, path, lineNo+1, 1, line, "#elif without matching #if"))
				break
			}
			top := &stack[len(stack)-1]
			if top.sawElse {
				p.addErr(diag.New(diag.Preprocessor, path, lineNo+1, 1, line, "#elif after #else"))
			}
			if top.taken || !top.parentLive {
				top.live = false
			} else {
				cond := p.evalBranchCondition("if", rest, path, lineNo)
				top.live = cond
				top.taken = top.taken || cond
			}

		case "else":
			if len(stack) == 0 {
				p.addErr(diag.New(diag.Preprocessor, path, lineNo+1, 1, line, "#else without matching #if"))
				break
			}
			top := &stack[len(stack)-1]
			top.sawElse = true
			top.live = top.parentLive && !top.taken
			top.taken = true

		case "endif":
			if len(stack) == 0 {
				p.addErr(diag.New(diag.Preprocessor, path, lineNo+1, 1, line, "#endif without matching #if"))
				break
			}
			stack = stack[:len(stack)-1]

		default:
			if live() {
				p.processActiveDirective(directive, rest, path, lineNo, line)
				if directive == "include" {
					out.WriteString("#include " + rest)
				}
			}
		}
		out.WriteString("\n")
	}

	if len(stack) != 0 {
		p.addErr(diag.New(diag.Preprocessor, path, len(lines), 1, "", "unterminated #if"))
	}

	return p.expandIncludes(out.String(), path)
}

// expandIncludes replaces each live #include line with the processed
// contents of the referenced file. Splitting this from the branch walk
// above keeps the line-accounting loop (which must see every physical line
// to track #if nesting) separate from the recursive include expansion.
func (p *Processor) expandIncludes(text, fromPath string) (string, error) {
	lines := strings.Split(text, "\n")
	var out strings.Builder
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if name, ok := strings.CutPrefix(trimmed, "#include "); ok {
			target, err := p.resolveInclude(strings.Trim(strings.TrimSpace(name), `"<>`), fromPath)
			if err != nil {
				p.addErr(err)
				out.WriteString("\n")
				continue
			}
			included, err := p.processFile(target)
			if err != nil {
				p.addErr(err)
			}
			out.WriteString(included)
			out.WriteString("\n")
			continue
		}
		out.WriteString(line)
		out.WriteString("\n")
	}
	return out.String(), nil
}

func (p *Processor) resolveInclude(name string, fromPath string) (string, error) {
	candidate := filepath.Join(filepath.Dir(fromPath), name)
	if p.exists(candidate) {
		return candidate, nil
	}
	for _, root := range p.includeRoots {
		matches, _ := doublestar.Glob(nil, filepath.ToSlash(filepath.Join(root, name)))
		if len(matches) > 0 {
			return matches[0], nil
		}
		joined := filepath.Join(root, name)
		if p.exists(joined) {
			return joined, nil
		}
	}
	return "", diag.New(diag.Preprocessor, fromPath, 0, 0, "", "cannot resolve #include %q", name)
}

func (p *Processor) exists(path string) bool {
	_, err := p.fs.ReadFile(path)
	return err == nil
}

func (p *Processor) processActiveDirective(directive, rest, path string, lineNo int, line string) {
	switch directive {
	case "pragma":
		if rest == "once" {
			p.includedOnce.Add(path)
			return
		}
		fields := strings.SplitN(rest, " ", 2)
		if len(fields) != 2 {
			p.addErr(diag.New(diag.Preprocessor, path, lineNo+1, 1, line, "malformed #pragma %q", rest))
			return
		}
		if warning := p.Pragmas.Set(fields[0], ParsePragmaValue(strings.TrimSpace(fields[1]))); warning != nil {
			p.addErr(fmt.Errorf("%s:%d: warning: %v", path, lineNo+1, warning))
		}
		p.Pragmas.InjectMacros(p.Macros)

	case "define":
		m, err := parseDefine(rest)
		if err != nil {
			p.addErr(diag.New(diag.Preprocessor, path, lineNo+1, 1, line, "%v", err))
			return
		}
		p.Macros.Define(m)

	case "undef":
		p.Macros.Undefine(strings.TrimSpace(rest))

	case "warning":
		p.addErr(fmt.Errorf("%s:%d: warning: %s", path, lineNo+1, rest))

	case "error":
		p.addErr(diag.New(diag.Preprocessor, path, lineNo+1, 1, line, "#error %s", rest))

	case "include":
		// handled by expandIncludes once branch-liveness for the whole file
		// is known; nothing to do here.

	default:
		p.addErr(diag.New(diag.Preprocessor, path, lineNo+1, 1, line, "unknown directive #%s", directive))
	}
}

func (p *Processor) evalBranchCondition(kind, rest, path string, lineNo int) bool {
	switch kind {
	case "ifdef", "ifndef":
		name := strings.TrimSpace(rest)
		defined, nonZero := p.Macros.IsDefinedNonZero(name)
		constant := false
		for _, m := range p.Macros.Lookup(name) {
			constant = constant || m.Kind == Constant
		}
		if defined && !constant {
			p.addErr(fmt.Errorf("%s:%d: warning: #%s %s is not a constant macro", path, lineNo+1, kind, name))
		} else if defined && !nonZero {
			p.addErr(fmt.Errorf("%s:%d: warning: #%s %s is defined but has body \"0\"", path, lineNo+1, kind, name))
		}
		return (constant && nonZero) == (kind == "ifdef")
	default: // "if"
		replaced := p.replaceDefined(rest)
		expanded, err := p.ApplyMacros(replaced)
		if err != nil {
			p.addErr(diag.New(diag.Preprocessor, path, lineNo+1, 1, rest, "%v", err))
			return false
		}
		v, err := EvaluateConstExpr(expanded)
		if err != nil {
			p.addErr(diag.New(diag.Preprocessor, path, lineNo+1, 1, rest, "%v", err))
			return false
		}
		return v != 0
	}
}

// replaceDefined rewrites every "defined(X)" or "defined X" in expr with 1
// or 0 according to the current macro table, per spec.md §4.1.
func (p *Processor) replaceDefined(expr string) string {
	var out strings.Builder
	i := 0
	for i < len(expr) {
		if strings.HasPrefix(expr[i:], "defined") && (i == 0 || !isIdentByte(expr[i-1])) {
			j := i + len("defined")
			for j < len(expr) && (expr[j] == ' ' || expr[j] == '\t') {
				j++
			}
			hasParen := j < len(expr) && expr[j] == '('
			if hasParen {
				j++
			}
			start := j
			for j < len(expr) && isIdentByte(expr[j]) {
				j++
			}
			name := expr[start:j]
			if hasParen {
				for j < len(expr) && expr[j] != ')' {
					j++
				}
				if j < len(expr) {
					j++
				}
			}
			defined, _ := p.Macros.IsDefinedNonZero(name)
			if defined {
				out.WriteString("1")
			} else {
				out.WriteString("0")
			}
			i = j
			continue
		}
		out.WriteByte(expr[i])
		i++
	}
	return out.String()
}

func splitDirective(trimmed string) (name, rest string) {
	trimmed = strings.TrimPrefix(trimmed, "#")
	trimmed = strings.TrimLeft(trimmed, " \t")
	sp := strings.IndexAny(trimmed, " \t")
	if sp < 0 {
		return trimmed, ""
	}
	return trimmed[:sp], strings.TrimSpace(trimmed[sp+1:])
}
