// Package watch re-runs the sync pipeline when documents change on disk.
package watch

import (
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"github.com/urfave/cli/v2"

	"github.com/dtnitsch/imagesync/internal/pipeline"
)

// WatchAction handles the watch command: it performs an initial sync, then
// blocks watching the document root and re-processes any document that is
// created or written, until interrupted.
func WatchAction(c *cli.Context) error {
	logger := pipeline.NewLogger(c.Bool("quiet"))

	config, err := pipeline.ResolveConfig(c)
	if err != nil {
		logger.Error("failed to resolve configuration", "error", err)
		os.Exit(2)
	}

	p, cleanup, err := pipeline.Build(logger, config)
	if err != nil {
		logger.Error("failed to initialize pipeline", "error", err)
		os.Exit(2)
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if _, err := p.Run(ctx, config.Dir); err != nil {
		logger.Error("initial sync failed", "dir", config.Dir, "error", err)
		os.Exit(2)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		logger.Error("failed to create watcher", "error", err)
		os.Exit(2)
	}
	defer watcher.Close()

	// Watch the root and every subdirectory; fsnotify is not recursive.
	if err := addRecursive(watcher, config.Dir); err != nil {
		logger.Error("failed to watch document root", "dir", config.Dir, "error", err)
		os.Exit(2)
	}

	logger.Info("Watching for document changes", "dir", config.Dir)

	for {
		select {
		case <-ctx.Done():
			logger.Info("Watch stopped")
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}

			if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
				if event.Has(fsnotify.Create) {
					if err := addRecursive(watcher, event.Name); err != nil {
						logger.Warn("Failed to watch new directory", "dir", event.Name, "error", err)
					}
				}
				continue
			}

			if !isDocument(event.Name, config.IncludeHTML) {
				continue
			}
			logger.Info("Document changed, re-syncing", "path", event.Name)
			p.Process(ctx, event.Name)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Watcher error", "error", err)
		}
	}
}

func isDocument(path string, includeHTML bool) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".md" || (includeHTML && ext == ".html")
}

func addRecursive(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return watcher.Add(path)
		}
		return nil
	})
}
