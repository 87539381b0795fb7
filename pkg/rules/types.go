package rules

import "sort"

// Rule is an initialization-before-use rule for one resource.
type Rule struct {
	Resource            string   // Unique key, e.g. "I2C"
	InitFunctions       []Marker // Any match marks the resource initialized
	ForbiddenBeforeInit []Marker // Any match before initialization is a violation
	Fatal               bool
	Impact              string
	Description         string
}

// OrderRule requires the first occurrence of each marker in EnforcedOrder
// to appear in non-decreasing line order within every file.
type OrderRule struct {
	Name          string
	EnforcedOrder []Marker
	Fatal         bool
	Impact        string
}

// RuleSet is the immutable rule configuration for a single validation run.
type RuleSet struct {
	Source     string // Path the rule set was loaded from, empty when built in code
	Rules      []Rule
	OrderRules []OrderRule
}

// Rule returns the rule for a resource.
func (rs *RuleSet) Rule(resource string) (Rule, bool) {
	if rs == nil {
		return Rule{}, false
	}
	for _, r := range rs.Rules {
		if r.Resource == resource {
			return r, true
		}
	}
	return Rule{}, false
}

// OrderRule returns the order rule with the given name.
func (rs *RuleSet) OrderRule(name string) (OrderRule, bool) {
	if rs == nil {
		return OrderRule{}, false
	}
	for _, r := range rs.OrderRules {
		if r.Name == name {
			return r, true
		}
	}
	return OrderRule{}, false
}

// Counts holds summary numbers for a rule set.
type Counts struct {
	Rules      int `json:"rules"`
	OrderRules int `json:"order_rules"`
	Fatal      int `json:"fatal"`
	NonFatal   int `json:"non_fatal"`
}

// Counts summarizes the rule set.
func (rs *RuleSet) Counts() Counts {
	var c Counts
	if rs == nil {
		return c
	}
	c.Rules = len(rs.Rules)
	c.OrderRules = len(rs.OrderRules)
	for _, r := range rs.Rules {
		if r.Fatal {
			c.Fatal++
		} else {
			c.NonFatal++
		}
	}
	for _, r := range rs.OrderRules {
		if r.Fatal {
			c.Fatal++
		} else {
			c.NonFatal++
		}
	}
	return c
}

// Resources returns the resource names sorted alphabetically.
func (rs *RuleSet) Resources() []string {
	if rs == nil {
		return nil
	}
	names := make([]string, 0, len(rs.Rules))
	for _, r := range rs.Rules {
		names = append(names, r.Resource)
	}
	sort.Strings(names)
	return names
}
