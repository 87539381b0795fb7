// Package validate runs a rule set against a set of source files.
//
// Each file is scanned top to bottom with one state machine per resource
// rule: a resource starts uninitialized, becomes initialized at the first
// line matching one of its init markers, and every forbidden marker seen
// while it is still uninitialized is a violation. Order rules are checked
// afterwards, file by file. All matching happens on sanitized lines, after
// the false-positive filter.
package validate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/leapstack-labs/preflight/pkg/filter"
	"github.com/leapstack-labs/preflight/pkg/lexical"
	"github.com/leapstack-labs/preflight/pkg/rules"
	"github.com/leapstack-labs/preflight/pkg/source"
)

// Config holds validator configuration.
type Config struct {
	// Rules is the rule set to enforce (required)
	Rules *rules.RuleSet
	// BaseDir makes reported paths relative to it when possible (optional)
	BaseDir string
	// Logger is the structured logger (optional, uses discard if nil)
	Logger *slog.Logger
}

// Validator checks files against one rule set. A Validator owns the file
// cache for a single run; create a new one for every run.
type Validator struct {
	rules   *rules.RuleSet
	baseDir string
	filter  *filter.Filter
	cache   *source.Cache
	logger  *slog.Logger
}

// New creates a validator.
func New(cfg Config) (*Validator, error) {
	if cfg.Rules == nil {
		return nil, errors.New("validator requires a rule set")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Validator{
		rules:   cfg.Rules,
		baseDir: cfg.BaseDir,
		filter:  filter.New(),
		cache:   source.NewCache(logger),
		logger:  logger,
	}, nil
}

// Cache exposes the run's file cache.
func (v *Validator) Cache() *source.Cache {
	return v.cache
}

// Run scans files in the given order. Files that cannot be read are recorded
// in Result.Skipped and the run continues; the only error returned is
// context cancellation.
func (v *Validator) Run(ctx context.Context, files []string) (*Result, error) {
	start := time.Now()
	res := &Result{}

	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("validation cancelled: %w", err)
		}

		text, ok := v.load(path, res)
		if !ok {
			continue
		}
		fr, violations, notes := v.scanFile(path, text)
		res.Files = append(res.Files, fr)
		res.Violations = append(res.Violations, violations...)
		res.Notes = append(res.Notes, notes...)
	}

	for _, rule := range v.rules.OrderRules {
		for _, fr := range res.Files {
			if err := ctx.Err(); err != nil {
				return nil, fmt.Errorf("validation cancelled: %w", err)
			}
			lines, err := v.cache.Lines(fr.Path)
			if err != nil {
				continue
			}
			res.Violations = append(res.Violations, v.checkOrder(rule, fr.Path, analyze(lines))...)
		}
	}

	v.logger.Debug("validation finished",
		slog.Int("files", len(res.Files)),
		slog.Int("skipped", len(res.Skipped)),
		slog.Int("violations", len(res.Violations)),
		slog.Int("notes", len(res.Notes)),
		slog.Int("reads", v.cache.Reads()),
		slog.Duration("elapsed", time.Since(start)))

	return res, nil
}

// RunCorpus scans the files of c and records the paths the walk could not
// read as skipped, after the files that failed to load.
func (v *Validator) RunCorpus(ctx context.Context, c *source.Corpus) (*Result, error) {
	res, err := v.Run(ctx, c.Files)
	if err != nil {
		return nil, err
	}
	for _, u := range c.Unreadable {
		v.logger.Warn("skipping unreadable path", slog.String("path", u.Path), slog.String("error", u.Err.Error()))
		res.Skipped = append(res.Skipped, SkippedFile{Path: v.display(u.Path), Err: u.Err})
	}
	return res, nil
}

func (v *Validator) load(path string, res *Result) (fileText, bool) {
	lines, err := v.cache.Lines(path)
	if err != nil {
		v.logger.Warn("skipping unreadable file", slog.String("path", path), slog.String("error", err.Error()))
		res.Skipped = append(res.Skipped, SkippedFile{Path: v.display(path), Err: err})
		return fileText{}, false
	}
	return analyze(lines), true
}

// fileText is one file after sanitizing and scope tracking, line aligned.
type fileText struct {
	raw    []string
	clean  []string
	scopes []string
}

func analyze(raw []string) fileText {
	clean := lexical.Sanitizer{}.File(raw)
	tracker := lexical.NewScopeTracker()
	scopes := make([]string, len(clean))
	for i, l := range clean {
		scopes[i] = tracker.Observe(l)
	}
	return fileText{raw: raw, clean: clean, scopes: scopes}
}

func (v *Validator) location(path string, text fileText, i int) CodeLocation {
	return CodeLocation{
		File:     v.display(path),
		Line:     i + 1,
		Function: text.scopes[i],
		Code:     strings.TrimSpace(text.raw[i]),
	}
}

// display returns path relative to the base directory when it lies below it.
func (v *Validator) display(path string) string {
	if v.baseDir == "" {
		return filepath.ToSlash(path)
	}
	rel, err := filepath.Rel(v.baseDir, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

// matches reports whether m occurs on the sanitized line and is not filtered.
func (v *Validator) matches(line string, m rules.Marker) bool {
	if !m.Match(line) {
		return false
	}
	if verdict := v.filter.Check(line, m); verdict.Suppressed {
		v.logger.Debug("match suppressed",
			slog.String("marker", m.Text),
			slog.String("reason", string(verdict.Reason)),
			slog.String("line", line))
		return false
	}
	return true
}
