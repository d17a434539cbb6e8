// Package cmd provides the sketchdoc command-line interface.
//
// Configuration System:
//
//	Settings come from several sources, highest priority first:
//	1. Command-line flags (--source, --format, --port, ...)
//	2. Environment variables following SKETCHDOC_<SECTION>_<KEY>
//	   (SKETCHDOC_RENDER_FORMAT, SKETCHDOC_SERVER_PORT, ...)
//	3. The configuration file: --config, else SKETCHDOC_CONFIG_FILE,
//	   else .sketchdoc.yml in the current directory
//	4. Built-in defaults
package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/conneroisu/sketchdoc/internal/config"
	"github.com/conneroisu/sketchdoc/internal/logging"
)

// ConfigFileEnv names a configuration file when --config is not given.
const ConfigFileEnv = "SKETCHDOC_CONFIG_FILE"

// DefaultConfigName is the file searched for in the working directory.
const DefaultConfigName = ".sketchdoc.yml"

// app carries the state shared by one command tree.
type app struct {
	v       *viper.Viper
	cfgFile string
}

// Execute builds the command tree and runs it against os.Args.
func Execute() error {
	return NewRootCommand().Execute()
}

// NewRootCommand returns the sketchdoc command with every subcommand
// attached. Each call gets its own viper instance.
func NewRootCommand() *cobra.Command {
	a := &app{v: viper.New()}

	root := &cobra.Command{
		Use:   "sketchdoc",
		Short: "Build Markdown documentation with embedded drawing scripts",
		Long: `sketchdoc builds a tree of Markdown documents into HTML, plain text or
man pages. Fenced blocks marked as shoebot scripts are rendered to PNG or
SVG images, named by a hash of their content so unchanged drawings are
never rendered twice.

Quick Start:
  sketchdoc init                  Write a default .sketchdoc.yml
  sketchdoc build                 Build docs/ into _build/
  sketchdoc serve                 Build, watch and preview with live reload
  sketchdoc render logo.bot       Render a single script`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "config file (default is "+DefaultConfigName+", can also use "+ConfigFileEnv+")")
	pf.StringP("log-level", "l", "", "log level (debug, info, warn, error)")
	pf.Var(newEnumValue("", "text", "json"), "log-format", "log format (text, json)")

	root.AddCommand(
		newBuildCmd(a),
		newWatchCmd(a),
		newServeCmd(a),
		newRenderCmd(a),
		newInitCmd(),
		newVersionCmd(),
	)
	return root
}

// initConfig points viper at the configuration file and the environment.
// A missing default file is not an error; a missing or malformed file
// named explicitly is.
func (a *app) initConfig() error {
	explicit := a.cfgFile
	if explicit == "" {
		explicit = os.Getenv(ConfigFileEnv)
	}
	if explicit != "" {
		a.v.SetConfigFile(explicit)
	} else {
		a.v.AddConfigPath(".")
		a.v.SetConfigType("yaml")
		a.v.SetConfigName(strings.TrimSuffix(DefaultConfigName, ".yml"))
	}

	a.v.SetEnvPrefix("SKETCHDOC")
	a.v.AutomaticEnv()
	a.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := a.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if explicit == "" && errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}
	return nil
}

// load reads the configuration file, binds the given flags (config key to
// flag name) and returns the validated configuration. Binding happens per command so that flags with
// the same name on different commands do not shadow each other.
func (a *app) load(flags *pflag.FlagSet, bindings map[string]string) (*config.Config, error) {
	if err := a.initConfig(); err != nil {
		return nil, err
	}

	bindings["log.level"] = "log-level"
	bindings["log.format"] = "log-format"
	for key, name := range bindings {
		flag := flags.Lookup(name)
		if flag == nil {
			continue
		}
		if err := a.v.BindPFlag(key, flag); err != nil {
			return nil, fmt.Errorf("binding --%s: %w", name, err)
		}
	}

	cfg, err := config.LoadFrom(a.v)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

// newLogger builds the logger described by the log section of cfg.
func newLogger(cfg *config.Config, out io.Writer) (logging.Logger, error) {
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	return logging.NewLogger(&logging.LoggerConfig{
		Level:     level,
		Format:    cfg.Log.Format,
		Output:    out,
		Component: "sketchdoc",
	}), nil
}
