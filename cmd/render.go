package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/conneroisu/sketchdoc/internal/config"
	"github.com/conneroisu/sketchdoc/internal/directive"
	"github.com/conneroisu/sketchdoc/internal/engine"
	"github.com/conneroisu/sketchdoc/internal/renderer"
)

func newRenderCmd(a *app) *cobra.Command {
	var (
		output string
		size   sizeValue
	)

	cmd := &cobra.Command{
		Use:     "render <script>",
		Aliases: []string{"r"},
		Short:   "Render one drawing script to an image",
		Long: `Render a single drawing script with the same engine, naming and cache
rules as a documentation build, then print the path of the image.

Without -o the image goes to the image directory of the build output and
is named by a hash of the script, so rendering an unchanged script again
reuses the existing file. Option field lines such as ":size: 200,200" at
the top of the script are honored.

Examples:
  sketchdoc render logo.bot                    # _build/_images/shoebot-<hash>.png
  sketchdoc render logo.bot --size 300,200     # larger canvas
  sketchdoc render logo.bot -o logo.svg        # explicit file, SVG from the extension`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runRender(cmd, args[0], output, &size)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&output, "out", "o", "", "write the image to this file")
	f.Var(&size, "size", "canvas size")
	f.Var(newEnumValue("", config.SupportedFormats...), "format", "image format (png, svg)")
	f.Var(newEnumValue("", config.EngineBuiltin, config.EngineCommand), "engine", "drawing engine (builtin, command)")
	return cmd
}

func (a *app) runRender(cmd *cobra.Command, script, output string, size *sizeValue) error {
	// an explicit file name picks the format unless --format says otherwise
	if output != "" && !cmd.Flags().Changed("format") {
		ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(output)), ".")
		if config.ValidateFormat(ext) == nil {
			a.v.Set("render.format", ext)
		}
	}

	cfg, err := a.load(cmd.Flags(), map[string]string{
		"render.format": "format",
		"render.engine": "engine",
	})
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	src, err := os.ReadFile(script)
	if err != nil {
		return fmt.Errorf("failed to read script: %w", err)
	}
	absScript, err := filepath.Abs(script)
	if err != nil {
		return err
	}

	d, err := directive.Parse(cfg.Render.Directive, "", string(src))
	if err != nil {
		return fmt.Errorf("%s: %w", script, err)
	}
	d.DocName = filepath.Base(script)
	d.DocDir = filepath.Dir(absScript)
	d.Line = 1
	if size.set {
		d.Options.Width, d.Options.Height, d.Options.HasSize = size.width, size.height, true
	}

	dir := filepath.Join(cfg.Docs.OutputDir, cfg.Docs.ImageDir)
	if output != "" {
		dir = filepath.Dir(output)
		d.Options.Filename = filepath.Base(output)
	}

	eng, err := engine.New(cfg.Render)
	if err != nil {
		return err
	}
	rend, err := renderer.New(cfg.Render, dir, eng, renderer.NewSession(), logger)
	if err != nil {
		return err
	}

	res, err := rend.Render(cmd.Context(), d)
	if err != nil {
		return err
	}
	if res.Unavailable {
		return fmt.Errorf("the %s engine is not available", eng.Name())
	}

	fmt.Fprintln(cmd.OutOrStdout(), res.OutPath)
	return nil
}
