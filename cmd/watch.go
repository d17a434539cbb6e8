package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/conneroisu/sketchdoc/internal/build"
	"github.com/conneroisu/sketchdoc/internal/config"
	"github.com/conneroisu/sketchdoc/internal/logging"
	"github.com/conneroisu/sketchdoc/internal/watcher"
)

func newWatchCmd(a *app) *cobra.Command {
	var bf buildFlags

	cmd := &cobra.Command{
		Use:     "watch",
		Aliases: []string{"w"},
		Short:   "Build, then rebuild documents as they change",
		Long: `Build the documentation, then watch the source directory and rebuild
only the documents that change. Drawings whose script did not change are
reused from the image directory.

Examples:
  sketchdoc watch                  # watch docs/
  sketchdoc watch --format svg     # watch and render SVG`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runWatch(cmd, &bf)
		},
	}
	bf.register(cmd)
	cmd.Flags().Duration("debounce", 0, "wait this long after the last change before rebuilding")
	return cmd
}

func (a *app) runWatch(cmd *cobra.Command, bf *buildFlags) error {
	cfg, logger, err := a.loadBuild(cmd, bf, map[string]string{"watch.debounce": "debounce"})
	if err != nil {
		return err
	}

	b, err := build.New(cfg, build.Options{Incremental: true}, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(cmd.OutOrStdout(), "Watching %s (press Ctrl+C to stop)\n", cfg.Docs.SourceDir)
	return watchAndBuild(ctx, cmd.OutOrStdout(), cfg, b, logger, nil)
}

// watchAndBuild runs a full build, then rebuilds changed documents until
// ctx is done. afterBuild, when set, runs after every build and rebuild.
// Build failures are reported and watching continues.
func watchAndBuild(ctx context.Context, out io.Writer, cfg *config.Config, b *build.Builder, logger logging.Logger, afterBuild func()) error {
	fw, err := watcher.NewFileWatcher(cfg.Watch.Debounce, logger)
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer fw.Stop()

	fw.AddFilter(watcher.ExtensionFilter(cfg.Docs.Extensions))
	fw.AddFilter(watcher.NoHiddenFilter)
	fw.AddFilter(watcher.NoBackupFilter)
	fw.AddFilter(watcher.NoDirFilter(cfg.Docs.OutputDir))

	fw.AddHandler(func(ctx context.Context, events []watcher.ChangeEvent) error {
		paths := make([]string, 0, len(events))
		for _, e := range events {
			logger.Debug(ctx, "change detected", "path", e.Path, "type", e.Type.String())
			paths = append(paths, e.Path)
		}

		report, err := b.Rebuild(ctx, paths)
		if report != nil {
			printReport(out, cfg.Docs.OutputDir, report)
		}
		if err != nil && ctx.Err() == nil {
			logger.Error(ctx, err, "rebuild failed")
		}
		if afterBuild != nil {
			afterBuild()
		}
		return nil
	})

	if err := fw.AddRecursive(cfg.Docs.SourceDir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", cfg.Docs.SourceDir, err)
	}

	report, err := b.Build(ctx)
	if report != nil {
		printReport(out, cfg.Docs.OutputDir, report)
	}
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		logger.Error(ctx, err, "build failed")
	}
	if afterBuild != nil {
		afterBuild()
	}

	if err := fw.Start(ctx); err != nil {
		return fmt.Errorf("failed to start file watcher: %w", err)
	}
	logger.Info(ctx, "watching for changes", "dir", cfg.Docs.SourceDir)

	<-ctx.Done()
	return nil
}
