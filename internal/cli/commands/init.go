package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/preflight/internal/cli/config"
	"github.com/leapstack-labs/preflight/internal/cli/output"
)

// NewInitCommand creates the init command.
func NewInitCommand() *cobra.Command {
	var force bool
	var example bool

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize preflight in a firmware project",
		Long: `Write a starter preflight.yaml and rules/hardware_rules.json.

The starter rule file covers the I2C bus, the SPI bus, a TFT display, an
MCP23017 I/O expander and the serial port, plus a boot-order rule. Edit it
to match the board.

Use --example to also write a small sketch under src/ and include/ that
passes the starter rules.`,
		Example: `  # Initialize in current directory
  preflight init

  # Initialize with an example sketch
  preflight init --example

  # Initialize in another directory
  preflight init firmware/

  # Force overwrite existing files
  preflight init --force`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			mode := output.ModeAuto
			if cfg := config.GetCurrentConfig(); cfg != nil {
				mode = output.Mode(cfg.OutputFormat)
			}
			r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode)

			return runInit(r, dir, force, example)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing files")
	cmd.Flags().BoolVar(&example, "example", false, "Also write an example sketch")

	return cmd
}

func runInit(r *output.Renderer, dir string, force, example bool) error {
	if dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	configPath := filepath.Join(dir, config.ConfigFileName)
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("%s already exists. Use --force to overwrite", config.ConfigFileName)
	}

	templates := []string{"minimal"}
	if example {
		templates = append(templates, "example")
	}

	written := []string{}
	for _, name := range templates {
		files, err := copyTemplate(name, dir, force)
		if err != nil {
			return fmt.Errorf("failed to initialize project: %w", err)
		}
		written = append(written, files...)
	}

	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(map[string]any{"directory": dir, "files": written})
	}

	r.Header(2, "Created")
	for _, f := range written {
		r.StatusLine(f, "success", "")
	}

	r.Println("")
	r.Success("preflight initialized!")
	r.Println("")
	r.Println("Next steps:")
	r.Println("  1. Edit rules/hardware_rules.json to match your board")
	r.Println("  2. Run 'preflight rules' to review the rule set")
	r.Println("  3. Run 'preflight check' before every build")

	return nil
}
