package validate

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/preflight/pkg/rules"
)

// scanFile runs every resource state machine over one file. Violations come
// out grouped by rule in declaration order, then by line, then by marker.
func (v *Validator) scanFile(path string, text fileText) (FileResult, []Violation, []Note) {
	rs := v.rules.Rules
	states := make([]*InitializationState, len(rs))
	conditionalInit := make([]bool, len(rs))
	for i := range states {
		states[i] = &InitializationState{}
	}

	var notes []Note
	condDepth := 0

	for i, line := range text.clean {
		condDepth = conditionalDepth(line, condDepth)

		for ri, rule := range rs {
			st := states[ri]

			if v.matchesAny(line, rule.InitFunctions) {
				loc := v.location(path, text, i)
				if st.markInitialized(loc) {
					conditionalInit[ri] = condDepth > 0
					continue
				}
				if condDepth == 0 && !conditionalInit[ri] {
					notes = append(notes, Note{
						Resource: rule.Resource,
						Location: loc,
						First:    *st.InitLocation,
						Message:  fmt.Sprintf("%s initialized again (first at line %d)", rule.Resource, st.InitLocation.Line),
					})
				}
				continue
			}

			if st.Initialized {
				continue
			}
			for _, m := range rule.ForbiddenBeforeInit {
				if v.matches(line, m) {
					st.recordUse(ForbiddenUse{Location: v.location(path, text, i), Marker: m})
				}
			}
		}
	}

	fr := FileResult{Path: path, Lines: len(text.raw), States: make([]ResourceState, len(rs))}
	var violations []Violation
	for ri, rule := range rs {
		fr.States[ri] = ResourceState{Resource: rule.Resource, State: states[ri]}
		for _, use := range states[ri].Violations {
			violations = append(violations, initOrderViolation(rule, use))
		}
	}

	if len(violations) > 0 {
		v.logger.Debug("file has violations", "path", path, "count", len(violations))
	}
	return fr, violations, notes
}

func (v *Validator) matchesAny(line string, markers []rules.Marker) bool {
	for _, m := range markers {
		if v.matches(line, m) {
			return true
		}
	}
	return false
}

func initOrderViolation(rule rules.Rule, use ForbiddenUse) Violation {
	return Violation{
		Kind:        KindInitOrder,
		Subject:     rule.Resource,
		Location:    use.Location,
		Marker:      use.Marker.Text,
		Message:     fmt.Sprintf("'%s' used before %s initialization", use.Marker.Text, rule.Resource),
		Fatal:       rule.Fatal,
		Impact:      rule.Impact,
		Description: rule.Description,
	}
}

// conditionalDepth tracks #if/#ifdef/#ifndef nesting on a sanitized line.
func conditionalDepth(line string, depth int) int {
	t := strings.TrimSpace(line)
	if !strings.HasPrefix(t, "#") {
		return depth
	}
	directive := strings.TrimSpace(t[1:])
	switch {
	case strings.HasPrefix(directive, "if"):
		return depth + 1
	case strings.HasPrefix(directive, "endif"):
		if depth > 0 {
			return depth - 1
		}
	}
	return depth
}
