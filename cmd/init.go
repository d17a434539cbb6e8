package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/conneroisu/sketchdoc/internal/config"
)

const exampleDocument = "# Welcome\n\n" +
	"This page was created by `sketchdoc init`. Edit it and run `sketchdoc serve`.\n\n" +
	"```shoebot size=200,120 alt=\"Two shapes\"\n" +
	"fill(0.9, 0.3, 0.2)\n" +
	"rect(20, 20, 80, 80)\n" +
	"fill(0.2, 0.4, 0.9)\n" +
	"ellipse(110, 20, 80, 80)\n" +
	"```\n"

func newInitCmd() *cobra.Command {
	var (
		force     bool
		noExample bool
	)

	cmd := &cobra.Command{
		Use:     "init [dir]",
		Aliases: []string{"i"},
		Short:   "Write a default configuration and an example document",
		Long: `Write ` + DefaultConfigName + ` with every setting at its default value, and
create the documentation source directory with an example page. If no
directory is given the current directory is used.

Examples:
  sketchdoc init               # initialize the current directory
  sketchdoc init my-docs       # initialize my-docs/
  sketchdoc init --force       # overwrite an existing configuration`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			return runInit(cmd, dir, force, !noExample)
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing configuration file")
	cmd.Flags().BoolVar(&noExample, "no-example", false, "do not create the example document")
	return cmd
}

func runInit(cmd *cobra.Command, dir string, force, example bool) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create project directory: %w", err)
	}

	cfgPath := filepath.Join(dir, DefaultConfigName)
	if _, err := os.Stat(cfgPath); err == nil && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", cfgPath)
	} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	cfg := config.Default()
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode configuration: %w", err)
	}
	header := []byte("# sketchdoc configuration. Every key can be overridden with\n" +
		"# SKETCHDOC_<SECTION>_<KEY>, for example SKETCHDOC_RENDER_FORMAT=svg.\n")
	if err := os.WriteFile(cfgPath, append(header, data...), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", cfgPath, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", cfgPath)

	if !example {
		return nil
	}

	sourceDir := filepath.Join(dir, cfg.Docs.SourceDir)
	if err := os.MkdirAll(sourceDir, 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", sourceDir, err)
	}
	index := filepath.Join(sourceDir, "index.md")
	if _, err := os.Stat(index); err == nil {
		return nil
	}
	if err := os.WriteFile(index, []byte(exampleDocument), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", index, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", index)
	return nil
}
