package lexical

import "strings"

// GlobalScope is reported for lines outside any recognized function body.
const GlobalScope = "global scope"

// ScopeTracker keeps a best-effort guess of the function enclosing each
// sanitized line. It exists only to annotate reports.
//
// A line whose text looks like a definition (an identifier directly followed
// by "(", with a return type or a qualified name in front of it) becomes a
// candidate; the candidate is entered when an opening brace follows on the
// same or a later line before any ';'. Closing the body's brace returns to
// the enclosing scope.
//
// Known gaps: signatures split before the "(", lambdas, macros that expand
// to bodies and K&R style definitions are attributed approximately.
type ScopeTracker struct {
	depth   int
	pending *candidate
	stack   []frame
}

type candidate struct {
	name  string
	depth int
	bare  bool // no return type or qualifier in front of the name
}

type frame struct {
	name  string
	depth int // brace depth inside the body
}

// NewScopeTracker creates a tracker positioned at global scope.
func NewScopeTracker() *ScopeTracker {
	return &ScopeTracker{}
}

// Current returns the function the tracker is inside, or GlobalScope.
func (s *ScopeTracker) Current() string {
	if len(s.stack) == 0 {
		return GlobalScope
	}
	return s.stack[len(s.stack)-1].name
}

// Observe consumes one sanitized line and returns the function it belongs to.
// A line that opens a body belongs to the new function; a line that closes a
// body still belongs to the function being closed.
func (s *ScopeTracker) Observe(line string) string {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || trimmed[0] == '#' {
		return s.Current()
	}

	if c, ok := s.definitionCandidate(trimmed); ok {
		if s.pending == nil || !c.bare {
			s.pending = &c
		}
	}

	name := s.Current()
	for i := 0; i < len(trimmed); i++ {
		switch trimmed[i] {
		case '\'':
			if n := charLiteralLen(trimmed[i:]); n > 0 {
				i += n - 1
			}
		case '{':
			if s.pending != nil && s.depth == s.pending.depth {
				s.depth++
				s.stack = append(s.stack, frame{name: s.pending.name, depth: s.depth})
				s.pending = nil
				name = s.Current()
				continue
			}
			s.depth++
		case '}':
			if s.depth > 0 {
				s.depth--
			}
			for len(s.stack) > 0 && s.depth < s.stack[len(s.stack)-1].depth {
				s.stack = s.stack[:len(s.stack)-1]
			}
		case ';':
			if s.pending != nil && s.depth == s.pending.depth {
				s.pending = nil
			}
		}
	}
	return name
}

// controlWords can never name a function definition.
var controlWords = map[string]bool{
	"if": true, "for": true, "while": true, "switch": true, "return": true,
	"sizeof": true, "catch": true, "defined": true, "static_assert": true,
	"alignof": true, "alignas": true, "decltype": true, "typeid": true,
	"noexcept": true, "else": true, "do": true, "__attribute__": true,
}

// nonTypeWords end an expression rather than a return type.
var nonTypeWords = map[string]bool{
	"return": true, "new": true, "delete": true, "else": true, "case": true,
	"throw": true, "goto": true, "co_return": true, "co_yield": true,
	"co_await": true, "and": true, "or": true, "not": true,
}

func (s *ScopeTracker) definitionCandidate(trimmed string) (candidate, bool) {
	p := strings.IndexByte(trimmed, '(')
	if p <= 0 {
		return candidate{}, false
	}
	head := strings.TrimRight(trimmed[:p], " \t")

	j := len(head)
	for j > 0 && isNameByte(head[j-1]) {
		j--
	}
	name := strings.TrimLeft(head[j:], ":")
	if name == "" || !(isIdentStart(name[0]) || name[0] == '~') {
		return candidate{}, false
	}

	// Member calls: obj.fn( and ptr->fn(
	if j > 0 && (head[j-1] == '.' || (head[j-1] == '>' && j > 1 && head[j-2] == '-')) {
		return candidate{}, false
	}

	base := name
	if k := strings.LastIndex(name, "::"); k >= 0 {
		base = name[k+2:]
	}
	if base == "" || controlWords[base] {
		return candidate{}, false
	}

	qualified := strings.Contains(name, "::")
	prefix := strings.TrimSpace(head[:j])
	if prefix == "" {
		if qualified || s.depth == 0 {
			return candidate{name: name, depth: s.depth, bare: !qualified}, true
		}
		return candidate{}, false
	}
	if !isTypeLike(prefix) {
		return candidate{}, false
	}
	return candidate{name: name, depth: s.depth}, true
}

func isTypeLike(prefix string) bool {
	for i := 0; i < len(prefix); i++ {
		c := prefix[i]
		if isNameByte(c) || c == '<' || c == '>' || c == ',' || c == '*' || c == '&' || c == ' ' || c == '\t' {
			continue
		}
		return false
	}
	fields := strings.Fields(prefix)
	last := strings.TrimLeft(fields[len(fields)-1], "*&")
	return !nonTypeWords[last]
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isNameByte(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9') || c == ':' || c == '~'
}
