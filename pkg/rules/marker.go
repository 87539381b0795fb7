package rules

import (
	"fmt"
	"regexp"
	"strings"
)

// Marker is a textual pattern from a rule file. Markers that look like
// regular expressions (leading backslash, or containing '[' or '*') are
// compiled; everything else matches as a literal substring.
type Marker struct {
	Text string
	re   *regexp.Regexp
}

// NewMarker builds a marker from rule-file text.
func NewMarker(text string) (Marker, error) {
	if text == "" {
		return Marker{}, fmt.Errorf("empty marker")
	}
	m := Marker{Text: text}
	if looksLikePattern(text) {
		re, err := regexp.Compile(text)
		if err != nil {
			return Marker{}, fmt.Errorf("invalid pattern %q: %w", text, err)
		}
		m.re = re
	}
	return m, nil
}

// MustMarker is like NewMarker but panics on error. Intended for tests and
// built-in rule tables.
func MustMarker(text string) Marker {
	m, err := NewMarker(text)
	if err != nil {
		panic(err)
	}
	return m
}

// Markers converts a list of texts, stopping at the first invalid one.
func Markers(texts ...string) ([]Marker, error) {
	out := make([]Marker, 0, len(texts))
	for _, t := range texts {
		m, err := NewMarker(t)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

// MustMarkers is like Markers but panics on error.
func MustMarkers(texts ...string) []Marker {
	out, err := Markers(texts...)
	if err != nil {
		panic(err)
	}
	return out
}

func looksLikePattern(text string) bool {
	return strings.HasPrefix(text, `\`) || strings.ContainsAny(text, "[*")
}

// IsPattern reports whether the marker is matched as a regular expression.
func (m Marker) IsPattern() bool {
	return m.re != nil
}

// Match reports whether the marker occurs anywhere in line.
func (m Marker) Match(line string) bool {
	if m.re != nil {
		return m.re.MatchString(line)
	}
	return m.Text != "" && strings.Contains(line, m.Text)
}

// String returns the marker text.
func (m Marker) String() string {
	return m.Text
}

// MarshalText encodes the marker as its source text.
func (m Marker) MarshalText() ([]byte, error) {
	return []byte(m.Text), nil
}

// Texts returns the source text of each marker.
func Texts(ms []Marker) []string {
	out := make([]string, len(ms))
	for i, m := range ms {
		out[i] = m.Text
	}
	return out
}
