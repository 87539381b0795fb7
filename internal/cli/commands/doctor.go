package commands

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/preflight/internal/cli/config"
	"github.com/leapstack-labs/preflight/internal/cli/output"
	"github.com/leapstack-labs/preflight/pkg/rules"
	"github.com/leapstack-labs/preflight/pkg/source"
)

// DoctorOptions holds options for the doctor command.
type DoctorOptions struct {
	Format string // Output format: text, json
}

// NewDoctorCommand creates the doctor command.
func NewDoctorCommand() *cobra.Command {
	opts := &DoctorOptions{}
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check the preflight setup of a project",
		Long: `Check that preflight is set up correctly before wiring it into a build:
- Configuration (which preflight.yaml is used)
- Rule file (loads, counts, markers that can never fire)
- Sources (directories exist, files found)

Output adapts to environment:
  - Terminal: Styled output with colors
  - Piped/Scripted: Markdown format
  - JSON: Machine-readable format`,
		Example: `  # Run the setup check
  preflight doctor

  # Output as JSON
  preflight doctor --format json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDoctor(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Format, "format", "f", "", "Output format: text, json")

	return cmd
}

// Health check statuses.
const (
	statusPass  = "pass"
	statusWarn  = "warn"
	statusError = "error"
)

// DoctorOutput is the JSON output for the doctor command.
type DoctorOutput struct {
	ProjectRoot  string        `json:"project_root"`
	ConfigFile   string        `json:"config_file,omitempty"`
	HealthChecks []HealthCheck `json:"health_checks"`
	IssueCount   int           `json:"issue_count"`
}

// HealthCheck represents a single health check result.
type HealthCheck struct {
	Name    string   `json:"name"`
	Group   string   `json:"group"`
	Status  string   `json:"status"` // "pass", "warn", "error"
	Details []string `json:"details,omitempty"`
}

func runDoctor(cmd *cobra.Command, opts *DoctorOptions) error {
	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	r := cmdCtx.Renderer

	// Override renderer if format flag is set
	if opts.Format != "" {
		r = output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(opts.Format))
	}

	out := buildDoctorOutput(cmdCtx.Cfg, config.GetConfigFileUsed())

	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(out)
	case output.ModeMarkdown:
		renderDoctorMarkdown(r, out)
	default:
		renderDoctorText(r, out)
	}
	return nil
}

func buildDoctorOutput(cfg *config.Config, configFile string) *DoctorOutput {
	out := &DoctorOutput{ProjectRoot: cfg.ProjectRoot, ConfigFile: configFile}

	if configFile != "" {
		out.add(HealthCheck{Name: "Config file found", Group: "configuration", Status: statusPass,
			Details: []string{configFile}})
	} else {
		out.add(HealthCheck{Name: "Config file found", Group: "configuration", Status: statusWarn,
			Details: []string{"no " + config.ConfigFileName + " found; using defaults (run 'preflight init')"}})
	}

	rs, err := rules.Load(cfg.RulesFile)
	if err != nil {
		out.add(HealthCheck{Name: "Rule file loads", Group: "rules", Status: statusError,
			Details: []string{err.Error()}})
	} else {
		c := rs.Counts()
		out.add(HealthCheck{Name: "Rule file loads", Group: "rules", Status: statusPass,
			Details: []string{fmt.Sprintf("%d rules, %d order rules (%d fatal)", c.Rules, c.OrderRules, c.Fatal)}})
		out.add(shadowedMarkersCheck(rs))
	}

	out.add(sourceDirsCheck(cfg.SourceDirs))

	corpus := source.Walk(cfg.SourceDirs, cfg.Extensions)
	if len(corpus.Files) == 0 {
		out.add(HealthCheck{Name: "Source files found", Group: "sources", Status: statusError,
			Details: []string{"no files to scan; check source_dirs and extensions"}})
	} else {
		out.add(HealthCheck{Name: "Source files found", Group: "sources", Status: statusPass,
			Details: []string{fmt.Sprintf("%d files", len(corpus.Files))}})
	}
	if len(corpus.Unreadable) > 0 {
		details := make([]string, 0, len(corpus.Unreadable))
		for _, u := range corpus.Unreadable {
			details = append(details, u.Err.Error())
		}
		out.add(HealthCheck{Name: "Source paths readable", Group: "sources", Status: statusWarn, Details: details})
	}

	return out
}

func (o *DoctorOutput) add(c HealthCheck) {
	if c.Status != statusPass {
		o.IssueCount++
	}
	o.HealthChecks = append(o.HealthChecks, c)
}

// shadowedMarkersCheck flags forbidden markers that are also init markers of
// the same rule. Init markers are matched first, so such a marker never
// produces a violation.
func shadowedMarkersCheck(rs *rules.RuleSet) HealthCheck {
	check := HealthCheck{Name: "Forbidden markers can fire", Group: "rules", Status: statusPass}
	for _, r := range rs.Rules {
		inits := make(map[string]bool, len(r.InitFunctions))
		for _, m := range r.InitFunctions {
			inits[m.Text] = true
		}
		for _, m := range r.ForbiddenBeforeInit {
			if inits[m.Text] {
				check.Details = append(check.Details,
					fmt.Sprintf("%s: %q is also an init marker and is never reported", r.Resource, m.Text))
			}
		}
	}
	if len(check.Details) > 0 {
		check.Status = statusWarn
	}
	return check
}

func sourceDirsCheck(dirs []string) HealthCheck {
	check := HealthCheck{Name: "Source directories exist", Group: "sources", Status: statusPass}
	missing := 0
	for _, dir := range dirs {
		if _, err := os.Stat(dir); errors.Is(err, fs.ErrNotExist) {
			missing++
			check.Details = append(check.Details, "missing: "+filepath.ToSlash(dir))
		}
	}
	switch {
	case missing == len(dirs):
		check.Status = statusError
	case missing > 0:
		check.Status = statusWarn
	}
	return check
}

func renderDoctorText(r *output.Renderer, out *DoctorOutput) {
	styles := r.Styles()

	r.Println("")
	r.Println(styles.Header1.Render("Preflight Setup Report"))
	r.Println(styles.Muted.Render(strings.Repeat("=", 55)))
	r.Printf("   Project root: %s\n", out.ProjectRoot)
	r.Println("")

	currentGroup := ""
	for _, check := range out.HealthChecks {
		if check.Group != currentGroup {
			currentGroup = check.Group
			r.Println(styles.Bold.Render("   " + title(currentGroup)))
			r.Println(styles.Muted.Render("   " + strings.Repeat("-", 40)))
		}

		icon := styles.StatusSuccess.Render("✓")
		switch check.Status {
		case statusWarn:
			icon = styles.Warning.Render("!")
		case statusError:
			icon = styles.StatusFailed.Render("✗")
		}
		r.Println("   " + icon + " " + check.Name)
		for _, detail := range check.Details {
			r.Println(styles.Muted.Render("       - " + detail))
		}
	}
	r.Println("")

	if out.IssueCount == 0 {
		r.Success("No problems found")
		return
	}
	r.Println(styles.Warning.Render(fmt.Sprintf("%d problem(s) found", out.IssueCount)))
}

func renderDoctorMarkdown(r *output.Renderer, out *DoctorOutput) {
	r.Println("# Preflight Setup Report")
	r.Println("")
	r.Println(output.FormatKeyValue("Project root", out.ProjectRoot))
	r.Println("")

	currentGroup := ""
	for _, check := range out.HealthChecks {
		if check.Group != currentGroup {
			currentGroup = check.Group
			r.Println("")
			r.Println("## " + title(currentGroup))
			r.Println("")
		}

		r.Printf("- **[%s]** %s\n", strings.ToUpper(check.Status), check.Name)
		for _, detail := range check.Details {
			r.Printf("  - %s\n", detail)
		}
	}
	r.Println("")
	r.Printf("**%d problem(s) found**\n", out.IssueCount)
}
