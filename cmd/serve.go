package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/conneroisu/sketchdoc/internal/build"
	"github.com/conneroisu/sketchdoc/internal/markup"
	"github.com/conneroisu/sketchdoc/internal/server"
)

func newServeCmd(a *app) *cobra.Command {
	var bf buildFlags

	cmd := &cobra.Command{
		Use:     "serve",
		Aliases: []string{"s"},
		Short:   "Build, watch and preview the documentation with live reload",
		Long: `Build the documentation into the output directory and serve it over
HTTP. Documents are rebuilt as they change and open pages reload
themselves. When the last build had errors, pages show them in an overlay.

Examples:
  sketchdoc serve                  # http://localhost:8000
  sketchdoc serve --port 9000      # another port
  sketchdoc serve --host 0.0.0.0   # listen on every interface`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runServe(cmd, &bf)
		},
	}
	bf.register(cmd)
	cmd.Flags().IntP("port", "p", 0, "port to serve on (default 8000)")
	cmd.Flags().String("host", "", "host to bind to (default localhost)")
	AddFlagValidation(cmd, "port", ValidatePort)
	AddFlagValidation(cmd, "host", ValidateHost)
	return cmd
}

func (a *app) runServe(cmd *cobra.Command, bf *buildFlags) error {
	cfg, logger, err := a.loadBuild(cmd, bf, map[string]string{
		"server.port": "port",
		"server.host": "host",
	})
	if err != nil {
		return err
	}

	b, err := build.New(cfg, build.Options{
		Incremental:  true,
		ReloadScript: server.ReloadScriptPath,
	}, logger)
	if err != nil {
		return err
	}
	if b.Kind() != markup.KindHTML {
		return fmt.Errorf("serve needs the html writer, got %s", b.Kind())
	}

	srv := server.New(cfg.Server, cfg.Docs.OutputDir, b.Errors(), logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(cmd.OutOrStdout(), "Serving %s at http://%s (press Ctrl+C to stop)\n", cfg.Docs.OutputDir, srv.Addr())

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return watchAndBuild(ctx, cmd.OutOrStdout(), cfg, b, logger, srv.NotifyReload)
	})
	g.Go(func() error {
		return srv.Start(ctx)
	})
	return g.Wait()
}
