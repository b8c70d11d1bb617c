package call

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

var supportedExtensions = map[string]bool{
	".wav":  true,
	".mp3":  true,
	".m4a":  true,
	".aac":  true,
	".flac": true,
	".ogg":  true,
	".wma":  true,
	".mp4":  true,
	".mkv":  true,
	".mov":  true,
	".webm": true,
}

func isSupportedFile(path string) bool {
	return supportedExtensions[strings.ToLower(filepath.Ext(path))]
}

// actionableEvent reports whether a watcher event may introduce a new file
// to process. Only Create events qualify: files moved into the directory
// emit Create, while Rename fires for the old path of a file moved away.
func actionableEvent(event fsnotify.Event) bool {
	return event.Has(fsnotify.Create) && isSupportedFile(event.Name)
}

// Watch monitors the configured input directory and processes every supported
// file dropped into it, sequentially, until the context is canceled. Files
// already present when the watch starts are processed first.
func (t *Transcriber) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(t.cfg.InputDir); err != nil {
		return fmt.Errorf("failed to watch input directory: %w", err)
	}

	slog.Info("watching input directory", slog.String("dir", t.cfg.InputDir))

	entries, err := os.ReadDir(t.cfg.InputDir)
	if err != nil {
		return fmt.Errorf("failed to read input directory: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(t.cfg.InputDir, entry.Name())
		if !isSupportedFile(path) {
			continue
		}
		if err := t.ProcessFile(ctx, path); err != nil {
			slog.Error("failed to process file", slog.String("path", path), slog.String("err", err.Error()))
		}
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}

			if !actionableEvent(event) {
				slog.Debug("ignoring event", slog.String("event", event.String()))
				continue
			}

			if err := waitForSettle(ctx, event.Name); err != nil {
				slog.Error("failed to wait for file", slog.String("path", event.Name), slog.String("err", err.Error()))
				continue
			}

			if err := t.ProcessFile(ctx, event.Name); err != nil {
				slog.Error("failed to process file", slog.String("path", event.Name), slog.String("err", err.Error()))
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			slog.Error("watcher error", slog.String("err", err.Error()))
		}
	}
}

const (
	settlePollInterval = 500 * time.Millisecond
	settleTimeout      = 10 * time.Minute
)

// waitForSettle polls the file size until it stops changing. Recorders and
// network copies can take a while to finish writing after the create event.
// A stable empty file settles too and gets rejected further down the
// pipeline; a file that never stops growing errors out after settleTimeout
// so a single upload cannot stall the watch loop forever.
func waitForSettle(ctx context.Context, path string) error {
	var lastSize int64 = -1
	ticker := time.NewTicker(settlePollInterval)
	defer ticker.Stop()
	deadline := time.NewTimer(settleTimeout)
	defer deadline.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline.C:
			return fmt.Errorf("file did not settle within %s", settleTimeout)
		case <-ticker.C:
			info, err := os.Stat(path)
			if err != nil {
				return fmt.Errorf("failed to stat file: %w", err)
			}
			if info.Size() == lastSize {
				return nil
			}
			lastSize = info.Size()
		}
	}
}
