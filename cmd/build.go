package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/conneroisu/sketchdoc/internal/build"
	"github.com/conneroisu/sketchdoc/internal/config"
	"github.com/conneroisu/sketchdoc/internal/logging"
)

func newBuildCmd(a *app) *cobra.Command {
	var bf buildFlags

	cmd := &cobra.Command{
		Use:     "build",
		Aliases: []string{"b"},
		Short:   "Build the documentation",
		Long: `Build every document under the source directory into the output
directory, rendering drawing directives to images.

Examples:
  sketchdoc build                        # docs/ -> _build/ as HTML
  sketchdoc build --format svg           # render drawings as SVG
  sketchdoc build --writer man -o man/   # write man pages
  sketchdoc build --clean --keep-going   # rebuild from scratch, report all failures`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runBuild(cmd, &bf)
		},
	}
	bf.register(cmd)
	return cmd
}

// buildFlags are shared by build, watch and serve.
type buildFlags struct {
	keepGoing bool
}

func (bf *buildFlags) register(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringP("source", "s", "", "documentation source directory")
	f.StringP("output", "o", "", "output directory")
	f.Var(newEnumValue("", config.SupportedFormats...), "format", "image format (png, svg)")
	f.Var(newEnumValue("", config.SupportedWriters...), "writer", "output writer (html, text, man)")
	f.Bool("clean", false, "remove the output directory before building")
	f.BoolVar(&bf.keepGoing, "keep-going", false, "report failing drawings and keep building instead of failing the document")
}

// bindings maps config keys to the flags registered above. extra adds
// command specific flags.
func (bf *buildFlags) bindings(extra map[string]string) map[string]string {
	b := map[string]string{
		"docs.source_dir": "source",
		"docs.output_dir": "output",
		"render.format":   "format",
		"build.writer":    "writer",
		"build.clean":     "clean",
	}
	for k, v := range extra {
		b[k] = v
	}
	return b
}

// loadBuild loads the configuration for a building command and the logger
// it reports through.
func (a *app) loadBuild(cmd *cobra.Command, bf *buildFlags, extra map[string]string) (*config.Config, logging.Logger, error) {
	if bf.keepGoing {
		a.v.Set("build.fail_on_error", false)
	}
	cfg, err := a.load(cmd.Flags(), bf.bindings(extra))
	if err != nil {
		return nil, nil, err
	}
	logger, err := newLogger(cfg, cmd.ErrOrStderr())
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

func (a *app) runBuild(cmd *cobra.Command, bf *buildFlags) error {
	cfg, logger, err := a.loadBuild(cmd, bf, nil)
	if err != nil {
		return err
	}

	b, err := build.New(cfg, build.Options{}, logger)
	if err != nil {
		return err
	}

	report, buildErr := b.Build(cmd.Context())
	if report != nil {
		printReport(cmd.OutOrStdout(), cfg.Docs.OutputDir, report)
	}
	return buildErr
}

// printReport writes the one-line build summary.
func printReport(w io.Writer, output string, r *build.Report) {
	fmt.Fprintf(w, "built %d documents into %s", r.Documents, output)
	if r.Skipped > 0 {
		fmt.Fprintf(w, " (%d unchanged)", r.Skipped)
	}
	if r.Removed > 0 {
		fmt.Fprintf(w, " (%d removed)", r.Removed)
	}
	fmt.Fprintf(w, ": %d images rendered, %d reused", r.Rendered, r.Cached)
	if r.Unavailable > 0 {
		fmt.Fprintf(w, ", %d scripts shown without an engine", r.Unavailable)
	}
	fmt.Fprintf(w, ", %d warnings, %d errors in %s\n", r.Warnings, r.Failed, r.Duration.Round(time.Millisecond))
}
