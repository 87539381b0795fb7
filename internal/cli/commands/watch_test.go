package commands

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/preflight/internal/cli/config"
	"github.com/leapstack-labs/preflight/internal/cli/output"
	clitestutil "github.com/leapstack-labs/preflight/internal/cli/testutil"
	"github.com/leapstack-labs/preflight/internal/testutil"
)

// lockedBuffer lets the test read output while the watch loop writes it.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestRelevantChange(t *testing.T) {
	rulesFile := "/p/rules/hardware_rules.json"
	exts := []string{".cpp", "h"}

	tests := []struct {
		name  string
		event fsnotify.Event
		want  bool
	}{
		{"source write", fsnotify.Event{Name: "/p/src/main.cpp", Op: fsnotify.Write}, true},
		{"header create", fsnotify.Event{Name: "/p/include/Board.H", Op: fsnotify.Create}, true},
		{"source removed", fsnotify.Event{Name: "/p/src/old.cpp", Op: fsnotify.Remove}, true},
		{"rules write", fsnotify.Event{Name: rulesFile, Op: fsnotify.Write}, true},
		{"other json", fsnotify.Event{Name: "/p/rules/other.json", Op: fsnotify.Write}, false},
		{"unrelated ext", fsnotify.Event{Name: "/p/src/notes.txt", Op: fsnotify.Write}, false},
		{"chmod only", fsnotify.Event{Name: "/p/src/main.cpp", Op: fsnotify.Chmod}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, relevantChange(tt.event, rulesFile, exts))
		})
	}
}

func TestRunWatch_RerunsOnChange(t *testing.T) {
	dir := setupProject(t, clitestutil.CleanSketch)

	cfg, err := config.LoadConfig("", nil)
	require.NoError(t, err)
	cfg.Watch.DebounceMS = 10

	out := &lockedBuffer{}
	cmdCtx := &CommandContext{
		Cfg:      cfg,
		Logger:   slog.New(slog.DiscardHandler),
		Renderer: output.NewRenderer(out, &lockedBuffer{}, output.ModeMarkdown),
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- runWatch(ctx, cmdCtx, cfg.SourceDirs) }()

	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "in 1 files: PASSED")
	}, 5*time.Second, 10*time.Millisecond, "initial run")

	testutil.WriteFile(t, dir, "src/main.cpp", clitestutil.BrokenSketch)

	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "1 fatal, 0 warning(s) in 1 files: FAILED")
	}, 5*time.Second, 10*time.Millisecond, "re-run after change")

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err, "fatal violations do not stop watch mode")
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop after cancel")
	}
}
