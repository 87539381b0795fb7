package output

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRenderer_ResolvesMode(t *testing.T) {
	tests := []struct {
		mode Mode
		want Mode
	}{
		{ModeAuto, ModeMarkdown},
		{"", ModeMarkdown},
		{"bogus", ModeMarkdown},
		{ModeText, ModeText},
		{ModeMarkdown, ModeMarkdown},
		{ModeJSON, ModeJSON},
	}
	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			r := NewRenderer(&bytes.Buffer{}, &bytes.Buffer{}, tt.mode)
			assert.Equal(t, tt.want, r.EffectiveMode())
			assert.Equal(t, tt.mode, r.Mode())
		})
	}
}

func TestRenderer_NoEscapesOffTerminal(t *testing.T) {
	var out, errOut bytes.Buffer
	r := NewRenderer(&out, &errOut, ModeText)

	r.Header(1, "Fatal")
	r.Success("done")
	r.StatusLine("preflight.yaml", "success", "created")
	r.Warning("careful")
	r.Error("broken")

	assert.NotContains(t, out.String(), "\x1b[")
	assert.Contains(t, out.String(), "Fatal\n")
	assert.Contains(t, out.String(), "done\n")
	assert.Contains(t, out.String(), "✓ preflight.yaml  created\n")
	assert.Equal(t, "Warning: careful\nError: broken\n", errOut.String())
}

func TestRenderer_Markdown(t *testing.T) {
	var out bytes.Buffer
	r := NewRenderer(&out, &bytes.Buffer{}, ModeMarkdown)

	r.Header(2, "Warnings")
	r.StatusLine("rules/hardware_rules.json", "failed", "")
	r.Println(FormatKeyValue("File", "src/main.cpp"))

	assert.Equal(t, "## Warnings\n\n- ✗ rules/hardware_rules.json\n- **File:** src/main.cpp\n", out.String())
}

func TestRenderer_JSON(t *testing.T) {
	var out bytes.Buffer
	r := NewRenderer(&out, &bytes.Buffer{}, ModeJSON)

	require.NoError(t, r.JSON(map[string]int{"fatal": 1}))
	assert.Equal(t, "{\n  \"fatal\": 1\n}\n", out.String())
	assert.Error(t, r.JSON(make(chan int)))
}

func TestFormatHeader(t *testing.T) {
	assert.Equal(t, "# A", FormatHeader(0, "A"))
	assert.Equal(t, "### C", FormatHeader(3, "C"))
}

func TestIsTerminal(t *testing.T) {
	assert.False(t, IsTerminal(&bytes.Buffer{}))
}
