package commands

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/preflight/pkg/source"
)

// runWatch checks once, then again after every burst of changes to a source
// or rule file, until ctx is cancelled. Each run is independent: rules are
// reloaded and files re-read. Fatal violations do not stop the loop.
func runWatch(ctx context.Context, cmdCtx *CommandContext, dirs []string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	for _, dir := range dirs {
		if err := watchDir(watcher, dir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
	}
	rulesFile := filepath.Clean(cmdCtx.Cfg.RulesFile)
	if err := watcher.Add(filepath.Dir(rulesFile)); err != nil {
		return fmt.Errorf("failed to watch rules file: %w", err)
	}

	debounce := time.Duration(cmdCtx.Cfg.Watch.DebounceMS) * time.Millisecond
	exts := cmdCtx.Cfg.Extensions
	if len(exts) == 0 {
		exts = source.DefaultExtensions
	}

	trigger := make(chan string, 1)
	trigger <- "initial run"

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var debounceTimer *time.Timer
		defer func() {
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
		}()

		for {
			select {
			case <-gctx.Done():
				return nil
			case event, ok := <-watcher.Events:
				if !ok {
					return nil
				}
				if event.Op&fsnotify.Create != 0 {
					if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
						_ = watchDir(watcher, event.Name)
						continue
					}
				}
				if !relevantChange(event, rulesFile, exts) {
					continue
				}

				if debounceTimer != nil {
					debounceTimer.Stop()
				}
				name := event.Name
				debounceTimer = time.AfterFunc(debounce, func() {
					select {
					case trigger <- name:
					default:
					}
				})
			case err, ok := <-watcher.Errors:
				if !ok {
					return nil
				}
				cmdCtx.Logger.Warn("watcher error", slog.String("error", err.Error()))
			}
		}
	})

	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return nil
			case reason := <-trigger:
				cmdCtx.Logger.Info("running check", slog.String("trigger", reason))
				rep, err := checkOnce(gctx, cmdCtx, dirs)
				if err != nil {
					if errors.Is(err, context.Canceled) {
						return nil
					}
					cmdCtx.Renderer.Error(err.Error())
					continue
				}
				if err := renderReport(cmdCtx.Renderer, rep); err != nil {
					return err
				}
				cmdCtx.Renderer.Muted("Watching for changes. Press Ctrl+C to stop.")
			}
		}
	})

	return g.Wait()
}

// watchDir adds dir and its subdirectories, skipping hidden ones.
func watchDir(watcher *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) && path == dir {
				return filepath.SkipDir
			}
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return watcher.Add(path)
	})
}

// relevantChange reports whether event touches the rule file or a source
// file with one of exts.
func relevantChange(event fsnotify.Event, rulesFile string, exts []string) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	if filepath.Clean(event.Name) == rulesFile {
		return true
	}
	ext := strings.ToLower(filepath.Ext(event.Name))
	for _, e := range exts {
		e = strings.ToLower(strings.TrimSpace(e))
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		if ext == e {
			return true
		}
	}
	return false
}
