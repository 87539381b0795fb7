package commands

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	clitestutil "github.com/leapstack-labs/preflight/internal/cli/testutil"
	"github.com/leapstack-labs/preflight/internal/testutil"
	"github.com/leapstack-labs/preflight/pkg/rules"
)

func TestRulesCommand_ListText(t *testing.T) {
	setupProject(t, clitestutil.CleanSketch)

	out, _, err := execute(t, NewRulesCommand(), "--format", "text")
	require.NoError(t, err)

	assert.Contains(t, out, "Hardware Rules (1 fatal, 2 non-fatal)")
	assert.Contains(t, out, "RESOURCE")
	assert.Contains(t, out, "I2C")
	assert.Contains(t, out, "Wire.begin")
	assert.Contains(t, out, "Order Rules")
	assert.Contains(t, out, "Serial.begin → Wire.begin")
	clitestutil.AssertNoANSI(t, out)
}

func TestRulesCommand_ListMarkdown(t *testing.T) {
	setupProject(t, clitestutil.CleanSketch)

	out, _, err := execute(t, NewRulesCommand())
	require.NoError(t, err)

	assert.Contains(t, out, "# Hardware Rules")
	assert.Contains(t, out, "- **I2C** (`fatal`): init `Wire.begin`")
	assert.Contains(t, out, "- **Serial** (`warning`): init `Serial.begin`")
	assert.Contains(t, out, "## Order Rules")
	assert.Contains(t, out, "- **boot-order** (`warning`): `Serial.begin` → `Wire.begin`")
	clitestutil.AssertValidMarkdown(t, out)
}

func TestRulesCommand_ListJSON(t *testing.T) {
	setupProject(t, clitestutil.CleanSketch)

	out, _, err := execute(t, NewRulesCommand(), "--format", "json")
	require.NoError(t, err)

	var got RulesJSONOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, rules.Counts{Rules: 2, OrderRules: 1, Fatal: 1, NonFatal: 2}, got.Count)
	require.Len(t, got.Rules, 2)
	assert.Equal(t, "I2C", got.Rules[0].Resource)
	assert.Equal(t, []string{"Wire.begin"}, got.Rules[0].InitFunctions)
	assert.Equal(t, []string{"Wire."}, got.Rules[0].ForbiddenBeforeInit)
	assert.True(t, got.Rules[0].Fatal)
	require.Len(t, got.OrderRules, 1)
	assert.Equal(t, []string{"Serial.begin", "Wire.begin"}, got.OrderRules[0].EnforcedOrder)
}

func TestRulesCommand_ShowRule(t *testing.T) {
	setupProject(t, clitestutil.CleanSketch)

	out, _, err := execute(t, NewRulesCommand(), "I2C")
	require.NoError(t, err)
	assert.Contains(t, out, "# I2C")
	assert.Contains(t, out, "- **Severity:** `fatal`")
	assert.Contains(t, out, "- **Forbidden before init:** `Wire.`")
	assert.Contains(t, out, "- **Impact:** bus hang")

	out, _, err = execute(t, NewRulesCommand(), "boot-order", "--format", "json")
	require.NoError(t, err)
	var o OrderRuleJSON
	require.NoError(t, json.Unmarshal([]byte(out), &o))
	assert.Equal(t, "boot-order", o.Name)
	assert.False(t, o.Fatal)
}

func TestRulesCommand_ShowUnknownRule(t *testing.T) {
	setupProject(t, clitestutil.CleanSketch)

	_, _, err := execute(t, NewRulesCommand(), "CAN")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `rule "CAN" not found`)
}

func TestRulesCommand_InvalidRuleFile(t *testing.T) {
	dir := setupProject(t, clitestutil.CleanSketch)
	testutil.WriteFile(t, dir, "rules/hardware_rules.json", `{"rules": [{"resource": "I2C", "init_functions": []}]}`)

	_, _, err := execute(t, NewRulesCommand())
	require.ErrorIs(t, err, rules.ErrInvalidRules)
	assert.Contains(t, err.Error(), "init_functions must not be empty")
}
