package rules

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrInvalidRules is wrapped by every structural problem found in a rule file.
var ErrInvalidRules = errors.New("invalid rule set")

// ruleFile mirrors the on-disk record set.
type ruleFile struct {
	Rules                []fileRule      `json:"rules" yaml:"rules"`
	ProjectSpecificRules []fileOrderRule `json:"project_specific_rules" yaml:"project_specific_rules"`
}

type fileRule struct {
	Resource            string   `json:"resource" yaml:"resource"`
	InitFunctions       []string `json:"init_functions" yaml:"init_functions"`
	ForbiddenBeforeInit []string `json:"forbidden_before_init" yaml:"forbidden_before_init"`
	Fatal               *bool    `json:"fatal" yaml:"fatal"`
	Impact              string   `json:"impact" yaml:"impact"`
	Description         string   `json:"description" yaml:"description"`
}

type fileOrderRule struct {
	Name          string   `json:"name" yaml:"name"`
	EnforcedOrder []string `json:"enforced_order" yaml:"enforced_order"`
	Fatal         *bool    `json:"fatal" yaml:"fatal"`
	Impact        string   `json:"impact" yaml:"impact"`
}

// Load reads and validates a rule file. JSON files are decoded strictly with
// encoding/json; .yaml and .yml files with yaml.v3. Unknown fields are errors.
func Load(path string) (*RuleSet, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from trusted config
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("rules file not found: %s", path)
		}
		return nil, fmt.Errorf("failed to read rules file %s: %w", path, err)
	}

	rs, err := Parse(data, formatFor(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	rs.Source = path
	return rs, nil
}

// Format selects the decoder used by Parse.
type Format string

// Supported rule file formats.
const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

func formatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Parse decodes and validates rule-file content.
func Parse(data []byte, format Format) (*RuleSet, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("%w: rule file is empty", ErrInvalidRules)
	}

	var raw ruleFile
	switch format {
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&raw); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: malformed YAML: %w", ErrInvalidRules, err)
		}
	default:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("%w: malformed JSON: %w", ErrInvalidRules, err)
		}
		if dec.More() {
			return nil, fmt.Errorf("%w: malformed JSON: trailing data after rule set", ErrInvalidRules)
		}
	}

	return build(raw)
}

// build converts the decoded records and collects every validation problem.
func build(raw ruleFile) (*RuleSet, error) {
	var errs []error
	rs := &RuleSet{}

	if len(raw.Rules) == 0 && len(raw.ProjectSpecificRules) == 0 {
		return nil, fmt.Errorf("%w: rule file defines no rules", ErrInvalidRules)
	}

	seen := make(map[string]bool, len(raw.Rules))
	for i, fr := range raw.Rules {
		where := fmt.Sprintf("rules[%d]", i)
		resource := strings.TrimSpace(fr.Resource)
		if resource == "" {
			errs = append(errs, fmt.Errorf("%s: resource is required", where))
			continue
		}
		where = fmt.Sprintf("rules[%d] (%s)", i, resource)
		if seen[resource] {
			errs = append(errs, fmt.Errorf("%s: duplicate resource", where))
			continue
		}
		seen[resource] = true

		if len(fr.InitFunctions) == 0 {
			errs = append(errs, fmt.Errorf("%s: init_functions must not be empty", where))
		}
		inits, err := Markers(fr.InitFunctions...)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: init_functions: %w", where, err))
		}
		forbidden, err := Markers(fr.ForbiddenBeforeInit...)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: forbidden_before_init: %w", where, err))
		}

		rs.Rules = append(rs.Rules, Rule{
			Resource:            resource,
			InitFunctions:       inits,
			ForbiddenBeforeInit: forbidden,
			Fatal:               fatalOrDefault(fr.Fatal),
			Impact:              fr.Impact,
			Description:         fr.Description,
		})
	}

	names := make(map[string]bool, len(raw.ProjectSpecificRules))
	for i, fo := range raw.ProjectSpecificRules {
		where := fmt.Sprintf("project_specific_rules[%d]", i)
		name := strings.TrimSpace(fo.Name)
		if name == "" {
			errs = append(errs, fmt.Errorf("%s: name is required", where))
			continue
		}
		where = fmt.Sprintf("project_specific_rules[%d] (%s)", i, name)
		if names[name] {
			errs = append(errs, fmt.Errorf("%s: duplicate name", where))
			continue
		}
		names[name] = true

		order, err := Markers(fo.EnforcedOrder...)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: enforced_order: %w", where, err))
		}

		rs.OrderRules = append(rs.OrderRules, OrderRule{
			Name:          name,
			EnforcedOrder: order,
			Fatal:         fatalOrDefault(fo.Fatal),
			Impact:        fo.Impact,
		})
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRules, errors.Join(errs...))
	}
	return rs, nil
}

// fatalOrDefault treats an omitted fatal flag as fatal.
func fatalOrDefault(v *bool) bool {
	if v == nil {
		return true
	}
	return *v
}
