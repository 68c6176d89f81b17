package watch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
)

// RunFunc is called for the initial check and after every change. It
// returns a one-line summary of the result.
type RunFunc func(ctx context.Context) (string, error)

// Options configures the watch behaviour.
type Options struct {
	// Path is the file to watch.
	Path string

	// Debounce is the quiet period before re-running.
	Debounce time.Duration

	// Logger is used for structured logging.
	Logger *slog.Logger

	// Out receives one status line per run.
	Out io.Writer

	// Now formats the status line timestamp. Defaults to time.Now.
	Now func() time.Time
}

// DefaultOptions returns sensible default watch options.
func DefaultOptions() Options {
	return Options{
		Debounce: 300 * time.Millisecond,
		Logger:   slog.Default(),
		Out:      io.Discard,
		Now:      time.Now,
	}
}

// Run watches opts.Path and blocks until ctx is cancelled or SIGINT/SIGTERM
// is received. The parent directory is watched rather than the file itself
// so that editors replacing the file by rename are picked up.
func Run(ctx context.Context, opts Options, runFn RunFunc) error {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	if opts.Out == nil {
		opts.Out = io.Discard
	}

	if opts.Now == nil {
		opts.Now = time.Now
	}

	target, err := filepath.Abs(opts.Path)
	if err != nil {
		return fmt.Errorf("resolving %q: %w", opts.Path, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("watching %q: %w", filepath.Dir(target), err)
	}

	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	_, _ = fmt.Fprintf(opts.Out, "watching %s (debounce=%s)\n", opts.Path, opts.Debounce)

	doRun(sigCtx, opts, runFn, "(initial)")

	debouncer := NewDebouncer(opts.Debounce, opts.Logger, func(trigger string) {
		doRun(sigCtx, opts, runFn, trigger)
	})
	defer debouncer.Stop()

	for {
		select {
		case <-sigCtx.Done():
			_, _ = fmt.Fprintln(opts.Out, "shutting down watcher")
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			if !isRelevant(event, target) {
				continue
			}

			opts.Logger.Debug("config changed", slog.String("path", event.Name), slog.String("op", event.Op.String()))
			debouncer.Trigger(filepath.Base(event.Name))

		case watchErr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}

			opts.Logger.Error("watcher error", slog.String("error", watchErr.Error()))
		}
	}
}

func doRun(ctx context.Context, opts Options, runFn RunFunc, trigger string) {
	now := opts.Now().Format("15:04:05")

	summary, err := runFn(ctx)
	if err != nil {
		_, _ = fmt.Fprintf(opts.Out, "[%s] %s: ERROR: %v\n", now, trigger, err)
		return
	}

	_, _ = fmt.Fprintf(opts.Out, "[%s] %s: OK (%s)\n", now, trigger, summary)
}

// isRelevant keeps content-changing events on the watched file.
func isRelevant(event fsnotify.Event, target string) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return false
	}

	name, err := filepath.Abs(event.Name)
	if err != nil {
		return false
	}

	return name == target
}
