package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"modsuite/internal/logging"
)

// watchSettle coalesces the burst of events editors emit for one save.
const watchSettle = 200 * time.Millisecond

// watchRecipe runs the recipe once, then again after every change to the file
// until the command context is cancelled. Run failures are printed and do not
// end the watch.
func watchRecipe(cmd *cobra.Command, ctx *commandContext, path string, opts runOptions) error {
	logger, err := ctx.baseLogger()
	if err != nil {
		return err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve recipe path: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()
	// Watch the directory: editors often replace the file instead of writing it.
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	runOnce := func() {
		if err := runRecipe(cmd, ctx, path, opts); err != nil {
			fmt.Fprintln(cmd.ErrOrStderr(), err)
		}
	}
	runOnce()
	fmt.Fprintf(cmd.OutOrStdout(), "Watching %s (Ctrl+C to stop)\n", abs)

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	for {
		select {
		case <-cmd.Context().Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs || !(ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create)) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(watchSettle)
			} else {
				timer.Reset(watchSettle)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			watchBanner(cmd.OutOrStdout(), abs, time.Now())
			runOnce()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logging.WarnWithContext(logger, "recipe watch error", "watch_error",
				logging.Error(err),
				logging.String("path", abs),
				logging.String(logging.FieldImpact, "a change to the recipe may be missed"),
			)
		}
	}
}
