package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Faultbox/xml3d-exporter/internal/logger"
)

// saves usually arrive as several events
const watchDebounce = 250 * time.Millisecond

func newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch <scene>",
		Short: "Export a scene file and export again whenever it changes",
		Args:  cobra.ExactArgs(1),
	}
	flags := configFlags(cmd)
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := setup(flags)
		if err != nil {
			return err
		}
		defer logger.Sync()

		path, err := filepath.Abs(args[0])
		if err != nil {
			return err
		}
		run := func() error {
			rep, err := exportFile(cfg, path)
			if err != nil {
				return err
			}
			printSummary(cmd.OutOrStdout(), cfg.Export.Output, rep)
			return nil
		}
		if err := run(); err != nil {
			logger.Error("export failed", zap.String("scene", path), zap.Error(err))
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()
		return watch(ctx, path, watchDebounce, run)
	}
	return cmd
}

// watch calls run after path changes until ctx is done. The parent
// directory is watched so editors that replace the file are followed.
// Runs never overlap and failures are logged, not returned.
func watch(ctx context.Context, path string, debounce time.Duration, run func() error) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer w.Close()
	if err := w.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("watching %s: %w", path, err)
	}

	log := logger.Named("watch")
	log.Info("watching", zap.String("scene", path))

	timer := time.NewTimer(debounce)
	timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != path || !ev.Has(fsnotify.Write|fsnotify.Create) {
				continue
			}
			timer.Reset(debounce)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Warn("watcher error", zap.Error(err))
		case <-timer.C:
			log.Info("scene changed", zap.String("scene", path))
			if err := run(); err != nil {
				log.Error("export failed", zap.String("scene", path), zap.Error(err))
			}
		}
	}
}
