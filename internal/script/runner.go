// Package script runs calculator script files: plain text, one command
// per line, blank lines and # comments skipped.
package script

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/symstack-labs/symsh/internal/engine"
)

// debounceDelay coalesces bursts of file events into one re-run.
const debounceDelay = 100 * time.Millisecond

// RenderFunc prints one command result.
type RenderFunc func(*engine.Result)

// Runner executes script lines against an engine.
type Runner struct {
	engine *engine.Engine
	out    io.Writer
	errOut io.Writer
	render RenderFunc
	logger *slog.Logger

	// Halt stops the run at the first error instead of continuing.
	Halt bool
}

// NewRunner creates a runner. Command errors are written to errOut,
// which falls back to out when nil. A nil render prints the result
// body to out.
func NewRunner(eng *engine.Engine, out, errOut io.Writer, render RenderFunc, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if errOut == nil {
		errOut = out
	}
	r := &Runner{engine: eng, out: out, errOut: errOut, render: render, logger: logger}
	if r.render == nil {
		r.render = func(res *engine.Result) {
			fmt.Fprintln(out, res.Body)
		}
	}
	return r
}

// RunFile executes a script file, echoing each command.
func (r *Runner) RunFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open script: %w", err)
	}
	defer func() { _ = f.Close() }()
	return r.Run(f, true)
}

// Run executes commands from rd, one per line. Errors are printed and
// the run continues unless Halt is set; a non-nil error is returned
// when any line failed, so batch invocations can exit non-zero.
func (r *Runner) Run(rd io.Reader, echo bool) error {
	scanner := bufio.NewScanner(rd)
	lineNo := 0
	failed := 0
	executed := 0

	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if echo {
			fmt.Fprintf(r.out, "→ %s\n", line)
		}
		executed++

		res, err := r.engine.Execute(line)
		if err != nil {
			failed++
			fmt.Fprintf(r.errOut, "Error: %v\n", err)
			r.logger.Debug("script line failed", "line", lineNo, "input", line, "error", err)
			if r.Halt {
				return fmt.Errorf("halted at line %d: %w", lineNo, err)
			}
			continue
		}
		if res != nil {
			r.render(res)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read script: %w", err)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d commands failed", failed, executed)
	}
	return nil
}

// Watch runs the script, then re-runs it whenever the file changes,
// until the context is cancelled. Run errors are printed, not
// returned: a broken edit should not stop the watch.
func (r *Runner) Watch(ctx context.Context, path string) error {
	if err := r.RunFile(path); err != nil {
		r.logger.Debug("initial run failed", "path", path, "error", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	// Watch the directory: editors replace files on save, which drops
	// a watch registered on the file itself.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", path, err)
	}

	target := filepath.Clean(path)
	var debounce *time.Timer
	var rerun <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.NewTimer(debounceDelay)
			rerun = debounce.C

		case <-rerun:
			rerun = nil
			fmt.Fprintf(r.out, "%s changed, re-running\n", filepath.Base(path))
			if err := r.RunFile(path); err != nil {
				r.logger.Debug("re-run failed", "path", path, "error", err)
			}

		case werr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			r.logger.Warn("watch error", "error", werr)
		}
	}
}
