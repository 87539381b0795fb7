package commands

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/preflight/internal/cli/config"
	"github.com/leapstack-labs/preflight/pkg/rules"
)

func TestNewInitCommand(t *testing.T) {
	tests := []struct {
		name      string
		setupDir  func(t *testing.T, dir string) // setup before running
		args      []string
		wantErr   bool
		wantFiles []string
	}{
		{
			name:      "init empty directory",
			args:      []string{},
			wantFiles: []string{"preflight.yaml", "rules/hardware_rules.json"},
		},
		{
			name: "init existing config without force",
			setupDir: func(t *testing.T, dir string) {
				require.NoError(t, os.WriteFile(filepath.Join(dir, "preflight.yaml"), []byte("existing"), 0600))
			},
			args:    []string{},
			wantErr: true,
		},
		{
			name: "init existing config with force",
			setupDir: func(t *testing.T, dir string) {
				require.NoError(t, os.WriteFile(filepath.Join(dir, "preflight.yaml"), []byte("existing"), 0600))
			},
			args:      []string{"--force"},
			wantFiles: []string{"preflight.yaml", "rules/hardware_rules.json"},
		},
		{
			name:      "init with example",
			args:      []string{"--example"},
			wantFiles: []string{"preflight.yaml", "rules/hardware_rules.json", "src/main.cpp", "include/board.h"},
		},
		{
			name:      "init into subdirectory",
			args:      []string{"firmware"},
			wantFiles: []string{"firmware/preflight.yaml", "firmware/rules/hardware_rules.json"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config.ResetConfig()
			tmpDir := t.TempDir()
			t.Chdir(tmpDir)

			if tt.setupDir != nil {
				tt.setupDir(t, tmpDir)
			}

			_, _, err := execute(t, NewInitCommand(), tt.args...)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "already exists")
				return
			}
			require.NoError(t, err)

			for _, f := range tt.wantFiles {
				_, err := os.Stat(filepath.Join(tmpDir, filepath.FromSlash(f)))
				assert.NoError(t, err, "expected file %q to exist", f)
			}
		})
	}
}

func TestInitCommandMetadata(t *testing.T) {
	cmd := NewInitCommand()

	assert.Equal(t, "init [directory]", cmd.Use)
	assert.NotEmpty(t, cmd.Short, "Short should not be empty")
	assert.NotNil(t, cmd.Flags().Lookup("force"), "--force flag should exist")
	assert.NotNil(t, cmd.Flags().Lookup("example"), "--example flag should exist")
}

func TestInit_CreatesLoadableProject(t *testing.T) {
	config.ResetConfig()
	t.Cleanup(config.ResetConfig)
	tmpDir := t.TempDir()
	t.Chdir(tmpDir)

	_, _, err := execute(t, NewInitCommand())
	require.NoError(t, err)

	cfg, err := config.LoadConfig("", nil)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(tmpDir, "rules", "hardware_rules.json"), cfg.RulesFile)
	assert.Equal(t, []string{filepath.Join(tmpDir, "src"), filepath.Join(tmpDir, "include")}, cfg.SourceDirs)

	rs, err := rules.Load(cfg.RulesFile)
	require.NoError(t, err)
	assert.Equal(t, []string{"I2C", "MCP23017", "SPI", "Serial", "TFT"}, rs.Resources())
	_, ok := rs.OrderRule("boot-order")
	assert.True(t, ok)
}

func TestInit_ExamplePassesCheck(t *testing.T) {
	config.ResetConfig()
	t.Cleanup(config.ResetConfig)
	t.Chdir(t.TempDir())

	_, _, err := execute(t, NewInitCommand(), "--example")
	require.NoError(t, err)
	config.ResetConfig()

	out, _, err := execute(t, NewCheckCommand(), "--format", "json")
	require.NoError(t, err)

	var doc struct {
		Passed   bool  `json:"passed"`
		Warnings []any `json:"warnings"`
		Summary  struct {
			Files int `json:"files"`
		} `json:"summary"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.True(t, doc.Passed)
	assert.Empty(t, doc.Warnings)
	assert.Equal(t, 2, doc.Summary.Files)
}

func TestCopyTemplate_KeepsExistingFiles(t *testing.T) {
	t.Chdir(t.TempDir())

	_, err := copyTemplate("minimal", ".", false)
	require.NoError(t, err)

	written, err := copyTemplate("minimal", ".", false)
	require.NoError(t, err)
	assert.Empty(t, written, "existing files are kept without force")

	written, err = copyTemplate("minimal", ".", true)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"preflight.yaml", "rules/hardware_rules.json"}, written)
}
