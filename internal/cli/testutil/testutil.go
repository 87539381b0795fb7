// Package testutil provides test utilities for CLI testing.
package testutil

import (
	"bytes"
	"regexp"
	"strings"
	"testing"

	"github.com/leapstack-labs/preflight/internal/cli/output"
	"github.com/leapstack-labs/preflight/internal/testutil"
)

// RulesJSON is a small rule set: a fatal I2C rule, a non-fatal Serial rule
// and a non-fatal boot-order rule.
const RulesJSON = `{
  "rules": [
    {
      "resource": "I2C",
      "init_functions": ["Wire.begin"],
      "forbidden_before_init": ["Wire."],
      "fatal": true,
      "impact": "bus hang",
      "description": "Wire before begin"
    },
    {
      "resource": "Serial",
      "init_functions": ["Serial.begin"],
      "forbidden_before_init": ["Serial.print"],
      "fatal": false,
      "impact": "lost output"
    }
  ],
  "project_specific_rules": [
    {
      "name": "boot-order",
      "enforced_order": ["Serial.begin", "Wire.begin"],
      "fatal": false
    }
  ]
}
`

// CleanSketch passes RulesJSON.
const CleanSketch = `void setup() {
    Serial.begin(115200);
    Wire.begin();
    Wire.write(5);
}
`

// BrokenSketch uses the I2C bus before Wire.begin() on line 2.
const BrokenSketch = `void setup() {
    Wire.write(5);
    Wire.begin();
}
`

// SetupTestProject creates a firmware project with preflight.yaml, the
// RulesJSON rule file and src/main.cpp holding sketch.
func SetupTestProject(t *testing.T, sketch string) string {
	t.Helper()

	return testutil.WriteTree(t, map[string]string{
		"preflight.yaml":            "rules_file: rules/hardware_rules.json\nsource_dirs: [src]\n",
		"rules/hardware_rules.json": RulesJSON,
		"src/main.cpp":              sketch,
	})
}

// TestRenderer wraps a Renderer for testing with captured output buffers.
type TestRenderer struct {
	*output.Renderer
	Out    *bytes.Buffer
	ErrOut *bytes.Buffer
}

// NewTestRenderer creates a new test renderer with the specified mode.
// Output is captured in buffers for inspection.
func NewTestRenderer(mode output.Mode) *TestRenderer {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	return &TestRenderer{
		Renderer: output.NewRenderer(out, errOut, mode),
		Out:      out,
		ErrOut:   errOut,
	}
}

// Output returns the stdout output as a string.
func (tr *TestRenderer) Output() string {
	return tr.Out.String()
}

// ErrorOutput returns the stderr output as a string.
func (tr *TestRenderer) ErrorOutput() string {
	return tr.ErrOut.String()
}

// ansiPattern matches ANSI escape codes.
var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// AssertNoANSI checks that a string contains no ANSI escape codes.
func AssertNoANSI(t *testing.T, s string) {
	t.Helper()
	if ansiPattern.MatchString(s) {
		t.Errorf("string contains ANSI escape codes: %q", s)
	}
}

// AssertValidMarkdown performs basic markdown validation.
// It checks for unclosed code fences and empty headers.
func AssertValidMarkdown(t *testing.T, md string) {
	t.Helper()

	if fenceCount := strings.Count(md, "```"); fenceCount%2 != 0 {
		t.Errorf("unbalanced code fences in markdown: found %d occurrences", fenceCount)
	}
	if tickCount := strings.Count(strings.ReplaceAll(md, "```", ""), "`"); tickCount%2 != 0 {
		t.Errorf("unbalanced inline code in markdown: found %d backticks", tickCount)
	}

	for i, line := range strings.Split(md, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "#") && strings.TrimLeft(trimmed, "# ") == "" {
			t.Errorf("empty header at line %d: %q", i+1, line)
		}
	}
}
