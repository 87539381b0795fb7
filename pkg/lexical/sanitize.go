// Package lexical provides the line-oriented text heuristics the validator
// runs before any marker matching: comment and string-literal stripping, and
// a best-effort enclosing-function tracker.
//
// Nothing here parses C++. Both components look at one line at a time and
// carry a small amount of state to the next line.
package lexical

import "strings"

// Sanitizer strips comments and string-literal contents from source lines.
// The only state carried between lines is whether a block comment is open,
// which the caller threads through successive calls.
type Sanitizer struct{}

// Line returns raw with comments removed and the contents of double-quoted
// strings blanked (the quotes stay, as ""), plus the block-comment state for
// the next line.
func (Sanitizer) Line(raw string, inBlock bool) (string, bool) {
	return sanitize(raw, inBlock)
}

// File sanitizes all lines of a file in order.
func (s Sanitizer) File(lines []string) []string {
	out := make([]string, len(lines))
	inBlock := false
	for i, l := range lines {
		out[i], inBlock = s.Line(l, inBlock)
	}
	return out
}

func sanitize(raw string, inBlock bool) (string, bool) {
	if inBlock {
		end := strings.Index(raw, "*/")
		if end < 0 {
			return "", true
		}
		return sanitize(raw[end+2:], false)
	}

	var b strings.Builder
	b.Grow(len(raw))

	for i := 0; i < len(raw); {
		c := raw[i]
		switch {
		case c == '"':
			b.WriteString(`""`)
			i = skipString(raw, i+1)

		case c == '\'':
			if n := charLiteralLen(raw[i:]); n > 0 {
				b.WriteString(raw[i : i+n])
				i += n
				continue
			}
			b.WriteByte(c)
			i++

		case c == '/' && i+1 < len(raw) && raw[i+1] == '/':
			return b.String(), false

		case c == '/' && i+1 < len(raw) && raw[i+1] == '*':
			end := strings.Index(raw[i+2:], "*/")
			if end < 0 {
				return b.String(), true
			}
			b.WriteByte(' ')
			rest, state := sanitize(raw[i+2+end+2:], false)
			b.WriteString(rest)
			return b.String(), state

		default:
			b.WriteByte(c)
			i++
		}
	}
	return b.String(), false
}

// skipString returns the index just past the closing quote of a string whose
// contents start at i. An unterminated string runs to end of line.
func skipString(s string, i int) int {
	for i < len(s) {
		switch s[i] {
		case '\\':
			i += 2
		case '"':
			return i + 1
		default:
			i++
		}
	}
	return len(s)
}

// charLiteralLen returns the length of a character literal at the start of s
// ('a', '\n', '\x41', '"'), or 0 if s does not start with one. Digit
// separators such as 1'000 are not literals and return 0.
func charLiteralLen(s string) int {
	if len(s) < 3 || s[0] != '\'' {
		return 0
	}
	if s[1] != '\\' {
		if s[1] != '\'' && s[2] == '\'' {
			return 3
		}
		return 0
	}
	for j := 3; j < len(s) && j <= 10; j++ {
		if s[j] == '\'' {
			return j + 1
		}
	}
	return 0
}

// OutsideStrings returns line with every double-quoted string, quotes
// included, replaced by a single space. Character literals such as '"' are
// kept and never open a string.
func OutsideStrings(line string) string {
	var b strings.Builder
	b.Grow(len(line))
	for i := 0; i < len(line); {
		switch c := line[i]; c {
		case '"':
			b.WriteByte(' ')
			i = skipString(line, i+1)
		case '\'':
			n := charLiteralLen(line[i:])
			if n == 0 {
				n = 1
			}
			b.WriteString(line[i : i+n])
			i += n
		default:
			b.WriteByte(c)
			i++
		}
	}
	return b.String()
}
