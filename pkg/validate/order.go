package validate

import (
	"fmt"

	"github.com/leapstack-labs/preflight/pkg/rules"
)

// checkOrder checks one order rule against one file. Only the first
// occurrence of each marker counts; markers absent from the file take no
// part. Each inverted pair yields one violation at the line of the marker
// that should have come later.
func (v *Validator) checkOrder(rule rules.OrderRule, path string, text fileText) []Violation {
	first := v.firstOccurrences(rule.EnforcedOrder, text)

	var out []Violation
	for i := range rule.EnforcedOrder {
		if first[i] < 0 {
			continue
		}
		for j := i + 1; j < len(rule.EnforcedOrder); j++ {
			if first[j] < 0 || first[j] >= first[i] {
				continue
			}
			earlier, later := rule.EnforcedOrder[i], rule.EnforcedOrder[j]
			out = append(out, Violation{
				Kind:     KindOrderViolation,
				Subject:  rule.Name,
				Location: v.location(path, text, first[j]),
				Marker:   later.Text,
				Message:  fmt.Sprintf("'%s' appears before '%s' (line %d)", later.Text, earlier.Text, first[i]+1),
				Fatal:    rule.Fatal,
				Impact:   rule.Impact,
			})
		}
	}
	return out
}

// firstOccurrences returns the 0-based line of each marker's first
// unfiltered match, or -1.
func (v *Validator) firstOccurrences(markers []rules.Marker, text fileText) []int {
	first := make([]int, len(markers))
	for k := range first {
		first[k] = -1
	}
	remaining := len(markers)
	for i, line := range text.clean {
		for k, m := range markers {
			if first[k] < 0 && v.matches(line, m) {
				first[k] = i
				remaining--
			}
		}
		if remaining == 0 {
			break
		}
	}
	return first
}
