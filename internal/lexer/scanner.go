package lexer

import (
	"fmt"
	"regexp"
	"strings"
)

// Scanner is a cursor over source text shared by the directive processor and
// the tokenizer. It exposes the small set of primitives both stages need:
// peek, starts, matches, consume, consume_until, sweep, and a paren-aware
// consume_block.
type Scanner struct {
	src    string
	pos    int
	cursor Cursor
}

// NewScanner creates a Scanner positioned at the start of src.
func NewScanner(src string) *Scanner {
	return &Scanner{src: src, cursor: CursorInit}
}

// Eof reports whether the scanner has consumed all input.
func (s *Scanner) Eof() bool { return s.pos >= len(s.src) }

// Cursor returns the current source position.
func (s *Scanner) Cursor() Cursor { return s.cursor }

// Pos returns the current byte offset into the original source.
func (s *Scanner) Pos() int { return s.pos }

// Remaining returns the unconsumed tail of the source.
func (s *Scanner) Remaining() string { return s.src[s.pos:] }

// Peek returns the next byte without consuming it, or 0 at EOF.
func (s *Scanner) Peek() byte {
	return s.PeekAt(0)
}

// PeekAt returns the byte n positions ahead of the cursor, or 0 past EOF.
func (s *Scanner) PeekAt(n int) byte {
	if s.pos+n >= len(s.src) {
		return 0
	}
	return s.src[s.pos+n]
}

// Starts reports whether the remaining input begins with prefix.
func (s *Scanner) Starts(prefix string) bool {
	return strings.HasPrefix(s.Remaining(), prefix)
}

// Matches reports whether re matches at the current position, and returns
// the matched text.
func (s *Scanner) Matches(re *regexp.Regexp) (string, bool) {
	loc := re.FindStringIndex(s.Remaining())
	if loc == nil || loc[0] != 0 {
		return "", false
	}
	return s.Remaining()[:loc[1]], true
}

// Consume advances the cursor by n bytes of the remaining input and returns
// the consumed text.
func (s *Scanner) Consume(n int) string {
	if n > len(s.src)-s.pos {
		n = len(s.src) - s.pos
	}
	text := s.src[s.pos : s.pos+n]
	s.pos += n
	s.cursor = s.cursor.AdvancedBy(text)
	return text
}

// ConsumeString consumes exactly text from the input, panicking if the input
// does not start with it (callers are expected to have checked with Starts).
func (s *Scanner) ConsumeString(text string) string {
	if !s.Starts(text) {
		panic(fmt.Sprintf("ConsumeString(%q) at %v: input does not start with it", text, s.cursor))
	}
	return s.Consume(len(text))
}

// ConsumeMatch consumes a regexp match located at the current position, if
// any.
func (s *Scanner) ConsumeMatch(re *regexp.Regexp) (string, bool) {
	match, ok := s.Matches(re)
	if !ok {
		return "", false
	}
	return s.Consume(len(match)), true
}

// ConsumeUntil consumes bytes until pred returns true for the next byte (or
// EOF is reached), returning the consumed span. The stopping byte is not
// consumed.
func (s *Scanner) ConsumeUntil(pred func(byte) bool) string {
	start := s.pos
	for !s.Eof() && !pred(s.Peek()) {
		s.Consume(1)
	}
	return s.src[start:s.pos]
}

var lineComment = regexp.MustCompile(`^//[^\n]*`)
var blockComment = regexp.MustCompile(`(?s)^/\*.*?\*/`)
var whitespaceRun = regexp.MustCompile(`^[ \t\r\v\f]+`)

// Sweep skips runs of whitespace (excluding newlines) and comments,
// returning the swept text. Newlines are left in place since several
// directive-layer rules are line-sensitive.
func (s *Scanner) Sweep() string {
	start := s.pos
	for {
		if m, ok := s.ConsumeMatch(whitespaceRun); ok && m != "" {
			continue
		}
		if m, ok := s.ConsumeMatch(lineComment); ok && m != "" {
			continue
		}
		if m, ok := s.ConsumeMatch(blockComment); ok && m != "" {
			continue
		}
		break
	}
	return s.src[start:s.pos]
}

// ConsumeBlock consumes a bracketed span starting at the current position
// (which must point at one of '(', '[', '{'), tracking nesting of all three
// pair kinds while skipping over string and character literals, and returns
// the full span including both delimiters. Returns an error if the block is
// unterminated.
func (s *Scanner) ConsumeBlock() (string, error) {
	switch s.Peek() {
	case '(', '[', '{':
	default:
		return "", fmt.Errorf("ConsumeBlock at %v: not positioned at an opening bracket", s.cursor)
	}

	start := s.pos
	depth := 0
	for !s.Eof() {
		c := s.Peek()
		switch c {
		case '"', '\'':
			if err := s.skipQuoted(c); err != nil {
				return "", err
			}
			continue
		case '/':
			if s.Starts("//") || s.Starts("/*") {
				s.Sweep()
				continue
			}
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		}
		s.Consume(1)
		if depth == 0 {
			return s.src[start:s.pos], nil
		}
	}
	return "", fmt.Errorf("unterminated block starting at %v", (&Cursor{}).AdvancedBy(s.src[:start]))
}

// skipQuoted consumes a string or char literal beginning with quote,
// honouring backslash escapes, without interpreting its contents.
func (s *Scanner) skipQuoted(quote byte) error {
	start := s.cursor
	s.Consume(1) // opening quote
	for {
		if s.Eof() {
			return fmt.Errorf("unterminated literal starting at %v", start)
		}
		c := s.Peek()
		if c == '\\' {
			s.Consume(1)
			if !s.Eof() {
				s.Consume(1)
			}
			continue
		}
		if c == quote {
			s.Consume(1)
			return nil
		}
		if c == '\n' {
			return fmt.Errorf("unterminated literal starting at %v", start)
		}
		s.Consume(1)
	}
}
