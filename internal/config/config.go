// Package config provides configuration management for sketchdoc using
// Viper for loading from files, environment variables, and command-line
// flags.
//
// The configuration system supports YAML files, environment variable
// overrides with the SKETCHDOC_ prefix, and validation. It covers where the
// documentation sources live, how drawing directives are rendered, how the
// build reacts to failures, and the development server settings.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Supported output formats for rendered drawings.
const (
	FormatPNG = "png"
	FormatSVG = "svg"
)

// Supported drawing engines.
const (
	EngineBuiltin = "builtin"
	EngineCommand = "command"
)

// SupportedFormats lists every format the renderer can produce.
var SupportedFormats = []string{FormatPNG, FormatSVG}

type Config struct {
	Docs      DocsConfig      `mapstructure:"docs" yaml:"docs"`
	Render    RenderConfig    `mapstructure:"render" yaml:"render"`
	Build     BuildConfig     `mapstructure:"build" yaml:"build"`
	Highlight HighlightConfig `mapstructure:"highlight" yaml:"highlight"`
	Server    ServerConfig    `mapstructure:"server" yaml:"server"`
	Watch     WatchConfig     `mapstructure:"watch" yaml:"watch"`
	Log       LogConfig       `mapstructure:"log" yaml:"log"`
}

type DocsConfig struct {
	SourceDir  string   `mapstructure:"source_dir" yaml:"source_dir"`
	OutputDir  string   `mapstructure:"output_dir" yaml:"output_dir"`
	ImageDir   string   `mapstructure:"image_dir" yaml:"image_dir"`
	StaticDir  string   `mapstructure:"static_dir" yaml:"static_dir"`
	Extensions []string `mapstructure:"extensions" yaml:"extensions"`
	Exclude    []string `mapstructure:"exclude" yaml:"exclude"`
}

// RenderConfig controls how drawing directives become images.
type RenderConfig struct {
	// Directive is the fenced block language that marks a drawing script.
	Directive   string        `mapstructure:"directive" yaml:"directive"`
	Format      string        `mapstructure:"format" yaml:"format"`
	Engine      string        `mapstructure:"engine" yaml:"engine"`
	Command     string        `mapstructure:"command" yaml:"command"`
	CommandArgs []string      `mapstructure:"command_args" yaml:"command_args"`
	Timeout     time.Duration `mapstructure:"timeout" yaml:"timeout"`
	DefaultSize []int         `mapstructure:"default_size" yaml:"default_size"`
	Background  string        `mapstructure:"background" yaml:"background"`
	Fill        string        `mapstructure:"fill" yaml:"fill"`
	Prefix      string        `mapstructure:"prefix" yaml:"prefix"`
}

type BuildConfig struct {
	// Writer selects the output document kind: html, text or man.
	Writer      string `mapstructure:"writer" yaml:"writer"`
	FailOnError bool   `mapstructure:"fail_on_error" yaml:"fail_on_error"`
	Clean       bool   `mapstructure:"clean" yaml:"clean"`
	CacheSize   int64  `mapstructure:"cache_size" yaml:"cache_size"`
}

type HighlightConfig struct {
	Lexer string `mapstructure:"lexer" yaml:"lexer"`
	Style string `mapstructure:"style" yaml:"style"`
}

type ServerConfig struct {
	Host string `mapstructure:"host" yaml:"host"`
	Port int    `mapstructure:"port" yaml:"port"`
}

type WatchConfig struct {
	Debounce time.Duration `mapstructure:"debounce" yaml:"debounce"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("docs.source_dir", "docs")
	v.SetDefault("docs.output_dir", "_build")
	v.SetDefault("docs.image_dir", "_images")
	v.SetDefault("docs.static_dir", "_static")
	v.SetDefault("docs.extensions", []string{".md", ".markdown"})
	v.SetDefault("docs.exclude", []string{})

	v.SetDefault("render.directive", "shoebot")
	v.SetDefault("render.format", FormatPNG)
	v.SetDefault("render.engine", EngineBuiltin)
	v.SetDefault("render.command", "sbot")
	v.SetDefault("render.command_args", []string{"-o", "{output}", "{script}"})
	v.SetDefault("render.timeout", 30*time.Second)
	v.SetDefault("render.default_size", []int{100, 100})
	v.SetDefault("render.background", "1")
	v.SetDefault("render.fill", "")
	v.SetDefault("render.prefix", "shoebot")

	v.SetDefault("build.writer", "html")
	v.SetDefault("build.fail_on_error", true)
	v.SetDefault("build.clean", false)
	v.SetDefault("build.cache_size", int64(64<<20))

	v.SetDefault("highlight.lexer", "python")
	v.SetDefault("highlight.style", "friendly")

	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", 8000)

	v.SetDefault("watch.debounce", 300*time.Millisecond)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// Default returns the configuration produced by the defaults alone.
func Default() *Config {
	v := viper.New()
	cfg, err := LoadFrom(v)
	if err != nil {
		// Defaults are static and always valid.
		panic(fmt.Sprintf("config: invalid defaults: %v", err))
	}
	return cfg
}

// LoadFrom unmarshals and validates the configuration held by v.
func LoadFrom(v *viper.Viper) (*Config, error) {
	SetDefaults(v)

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	// env-provided lists arrive as a single string
	config.Docs.Extensions = v.GetStringSlice("docs.extensions")
	config.Docs.Exclude = v.GetStringSlice("docs.exclude")
	config.Render.CommandArgs = v.GetStringSlice("render.command_args")

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Size returns the default drawing size as a (width, height) pair.
func (r RenderConfig) Size() (int, int) {
	return r.DefaultSize[0], r.DefaultSize[1]
}
