package commands

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/preflight/internal/cli/config"
	clitestutil "github.com/leapstack-labs/preflight/internal/cli/testutil"
	"github.com/leapstack-labs/preflight/internal/testutil"
	"github.com/leapstack-labs/preflight/pkg/rules"
)

func statuses(out *DoctorOutput) map[string]string {
	m := make(map[string]string, len(out.HealthChecks))
	for _, c := range out.HealthChecks {
		m[c.Name] = c.Status
	}
	return m
}

func TestDoctor_HealthyProject(t *testing.T) {
	dir := setupProject(t, clitestutil.CleanSketch)

	out, _, err := execute(t, NewDoctorCommand(), "--format", "json")
	require.NoError(t, err)

	var got DoctorOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, dir, got.ProjectRoot)
	assert.Equal(t, filepath.Join(dir, config.ConfigFileName), got.ConfigFile)
	assert.Zero(t, got.IssueCount)
	assert.Equal(t, map[string]string{
		"Config file found":          statusPass,
		"Rule file loads":            statusPass,
		"Forbidden markers can fire": statusPass,
		"Source directories exist":   statusPass,
		"Source files found":         statusPass,
	}, statuses(&got))
}

func TestDoctor_Problems(t *testing.T) {
	dir := setupProject(t, clitestutil.CleanSketch)
	testutil.WriteFile(t, dir, "rules/hardware_rules.json", `{"rules": []}`)
	require.NoError(t, os.RemoveAll(filepath.Join(dir, "src")))

	out, _, err := execute(t, NewDoctorCommand())
	require.NoError(t, err)

	assert.Contains(t, out, "# Preflight Setup Report")
	assert.Contains(t, out, "## Rules")
	assert.Contains(t, out, "- **[ERROR]** Rule file loads")
	assert.Contains(t, out, "defines no rules")
	assert.Contains(t, out, "- **[ERROR]** Source directories exist")
	assert.Contains(t, out, "- **[ERROR]** Source files found")
	assert.Contains(t, out, "**3 problem(s) found**")
	clitestutil.AssertNoANSI(t, out)
}

func TestDoctor_TextFormat(t *testing.T) {
	setupProject(t, clitestutil.CleanSketch)

	out, _, err := execute(t, NewDoctorCommand(), "--format", "text")
	require.NoError(t, err)
	assert.Contains(t, out, "Preflight Setup Report")
	assert.Contains(t, out, "Configuration")
	assert.Contains(t, out, "No problems found")
}

func TestShadowedMarkersCheck(t *testing.T) {
	rs := &rules.RuleSet{Rules: []rules.Rule{
		{Resource: "I2C", InitFunctions: rules.MustMarkers("Wire.begin"), ForbiddenBeforeInit: rules.MustMarkers("Wire.")},
		{Resource: "SPI", InitFunctions: rules.MustMarkers("SPI.begin"), ForbiddenBeforeInit: rules.MustMarkers("SPI.begin", "SPI.transfer")},
	}}

	check := shadowedMarkersCheck(rs)
	assert.Equal(t, statusWarn, check.Status)
	assert.Equal(t, []string{`SPI: "SPI.begin" is also an init marker and is never reported`}, check.Details)
}

func TestSourceDirsCheck(t *testing.T) {
	present := t.TempDir()
	missing := filepath.Join(present, "nope")

	assert.Equal(t, statusPass, sourceDirsCheck([]string{present}).Status)
	assert.Equal(t, statusWarn, sourceDirsCheck([]string{present, missing}).Status)
	assert.Equal(t, statusError, sourceDirsCheck([]string{missing}).Status)
}
