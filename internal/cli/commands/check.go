package commands

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/preflight/internal/cli/config"
	"github.com/leapstack-labs/preflight/pkg/report"
	"github.com/leapstack-labs/preflight/pkg/rules"
	"github.com/leapstack-labs/preflight/pkg/source"
	"github.com/leapstack-labs/preflight/pkg/validate"
)

// CheckOptions holds options for the check command.
type CheckOptions struct {
	Watch bool
}

// NewCheckCommand creates the check command.
func NewCheckCommand() *cobra.Command {
	opts := &CheckOptions{}

	cmd := &cobra.Command{
		Use:   "check [dirs...]",
		Short: "Validate hardware initialization order",
		Long: `Scan firmware sources and report every hardware resource used before
its initialization call.

Directories given as arguments replace the configured source_dirs. Each
file is checked on its own: a resource initialized in one file is still
uninitialized at the top of the next.

Exit status:
  0  no fatal violations (warnings may be present)
  1  at least one fatal violation
  2  configuration or rule file error`,
		Example: `  # Check the configured source directories
  preflight check

  # Check a directory with an explicit rule file
  preflight check firmware/ --rules rules/hardware_rules.json

  # Machine-readable output for CI
  preflight check --format json

  # Re-run on every change
  preflight check --watch`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, args, opts)
		},
	}

	cmd.Flags().String("rules", "", "Rule file (JSON or YAML)")
	cmd.Flags().StringSlice("source-dir", nil, "Source directory to scan (repeatable)")
	cmd.Flags().StringSlice("ext", nil, "File extensions to scan (default .cpp,.h,.hpp)")
	cmd.Flags().String("format", "", "Output format: text, markdown, json")
	cmd.Flags().BoolVar(&opts.Watch, "watch", false, "Re-validate whenever a source or rule file changes")
	cmd.Flags().Int("debounce", config.DefaultDebounceMS, "Watch debounce in milliseconds")

	_ = cmd.RegisterFlagCompletionFunc("format", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"text", "markdown", "json"}, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

func runCheck(cmd *cobra.Command, args []string, opts *CheckOptions) error {
	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}

	dirs := cmdCtx.Cfg.SourceDirs
	if len(args) > 0 {
		dirs = make([]string, len(args))
		for i, a := range args {
			abs, err := filepath.Abs(a)
			if err != nil {
				return fmt.Errorf("invalid directory %s: %w", a, err)
			}
			dirs[i] = abs
		}
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if opts.Watch {
		return runWatch(ctx, cmdCtx, dirs)
	}

	rep, err := checkOnce(ctx, cmdCtx, dirs)
	if err != nil {
		return err
	}
	if err := renderReport(cmdCtx.Renderer, rep); err != nil {
		return err
	}
	if !rep.Passed() {
		return ErrFatalViolations
	}
	return nil
}

// checkOnce performs one complete validation run: load the rule set, collect
// the files and scan them with a fresh validator.
func checkOnce(ctx context.Context, cmdCtx *CommandContext, dirs []string) (*report.Report, error) {
	start := time.Now()
	logger := cmdCtx.Logger.With(slog.String("run_id", uuid.NewString()))

	rs, err := rules.Load(cmdCtx.Cfg.RulesFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load rules: %w", err)
	}
	counts := rs.Counts()
	logger.Debug("rules loaded",
		slog.String("path", rs.Source),
		slog.Int("rules", counts.Rules),
		slog.Int("order_rules", counts.OrderRules))

	corpus := source.Walk(dirs, cmdCtx.Cfg.Extensions)
	if len(corpus.Files) == 0 {
		logger.Warn("no source files found", slog.Any("dirs", dirs))
	}

	v, err := validate.New(validate.Config{
		Rules:   rs,
		BaseDir: cmdCtx.Cfg.ProjectRoot,
		Logger:  logger,
	})
	if err != nil {
		return nil, err
	}

	res, err := v.RunCorpus(ctx, corpus)
	if err != nil {
		return nil, err
	}

	rep := report.Build(res)
	logger.Info("check complete",
		slog.Int("files", rep.FilesScanned),
		slog.Int("fatal", len(rep.Fatal)),
		slog.Int("warnings", len(rep.Warnings)),
		slog.Duration("duration", time.Since(start)))
	return rep, nil
}
