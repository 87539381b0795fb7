// Package filter decides whether a marker match on a sanitized line is an
// incidental mention rather than a real use. It is the only place the
// validator's false-positive policy lives: init detection, forbidden-use
// detection and order-marker detection all ask the same Filter.
package filter

import (
	"regexp"
	"strings"

	"github.com/leapstack-labs/preflight/pkg/lexical"
	"github.com/leapstack-labs/preflight/pkg/rules"
)

// Reason names the heuristic that suppressed a match.
type Reason string

// Suppression reasons.
const (
	ReasonNone             Reason = ""
	ReasonPreprocessor     Reason = "preprocessor"
	ReasonStringLiteral    Reason = "string-literal"
	ReasonTypeDeclaration  Reason = "type-declaration"
	ReasonConstDeclaration Reason = "const-declaration"
	ReasonSymbolDefinition Reason = "symbol-definition"
)

// Verdict is the outcome of a filter check.
type Verdict struct {
	Suppressed bool
	Reason     Reason
}

var (
	typeDeclRe  = regexp.MustCompile(`^(class|struct|typedef|enum)\s+`)
	constDeclRe = regexp.MustCompile(`^(const|constexpr|static\s+const|static\s+constexpr)\s+`)
)

// definitionKeywords precede the name in a function or method definition.
const definitionKeywords = `void|bool|int|uint\w*|int\d+_t|static|inline|auto|float|double|char|long|size_t|esp_err_t`

// Filter applies the false-positive heuristics. The zero value is ready to use.
type Filter struct{}

// New returns a Filter.
func New() *Filter {
	return &Filter{}
}

// Check reports whether a match of m on line should be ignored.
func (f *Filter) Check(line string, m rules.Marker) Verdict {
	trimmed := strings.TrimSpace(line)

	if strings.HasPrefix(trimmed, "#") {
		return suppressed(ReasonPreprocessor)
	}
	if onlyInStringLiteral(line, m) {
		return suppressed(ReasonStringLiteral)
	}
	if typeDeclRe.MatchString(trimmed) {
		return suppressed(ReasonTypeDeclaration)
	}
	if constDeclRe.MatchString(trimmed) {
		return suppressed(ReasonConstDeclaration)
	}
	if isSymbolDefinition(line, m) {
		return suppressed(ReasonSymbolDefinition)
	}
	return Verdict{}
}

func suppressed(r Reason) Verdict {
	return Verdict{Suppressed: true, Reason: r}
}

// onlyInStringLiteral reports whether m matches line but not the parts of
// line outside string literals. Sanitized lines have empty strings already,
// so this only fires when the caller passes raw text.
func onlyInStringLiteral(line string, m rules.Marker) bool {
	if !strings.Contains(line, `"`) || !m.Match(line) {
		return false
	}
	return !m.Match(lexical.OutsideStrings(line))
}

// isSymbolDefinition reports whether a qualified literal marker such as
// "Display::init" is being defined on this line rather than called.
func isSymbolDefinition(line string, m rules.Marker) bool {
	if m.IsPattern() || !strings.Contains(m.Text, "::") {
		return false
	}
	re, err := regexp.Compile(`\b(` + definitionKeywords + `)\s+[^=;(){}]*` + regexp.QuoteMeta(m.Text) + `\s*\(`)
	if err != nil {
		return false
	}
	return re.MatchString(line)
}
