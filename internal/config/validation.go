package config

import (
	"fmt"
	"path/filepath"
	"strings"

	sderrors "github.com/conneroisu/sketchdoc/internal/errors"
)

// SupportedWriters lists the output document kinds.
var SupportedWriters = []string{"html", "text", "man"}

// MaxCanvasSize bounds each side of a rendered drawing.
const MaxCanvasSize = 8192

// validateConfig validates configuration values for security and correctness
func validateConfig(config *Config) error {
	if err := validateDocsConfig(&config.Docs); err != nil {
		return fmt.Errorf("docs config: %w", err)
	}

	if err := validateRenderConfig(&config.Render); err != nil {
		return fmt.Errorf("render config: %w", err)
	}

	if err := validateBuildConfig(&config.Build); err != nil {
		return fmt.Errorf("build config: %w", err)
	}

	if err := validateServerConfig(&config.Server); err != nil {
		return fmt.Errorf("server config: %w", err)
	}

	return nil
}

func validateDocsConfig(config *DocsConfig) error {
	if config.SourceDir == "" {
		return fmt.Errorf("source_dir must not be empty")
	}
	if config.OutputDir == "" {
		return fmt.Errorf("output_dir must not be empty")
	}
	if filepath.Clean(config.SourceDir) == filepath.Clean(config.OutputDir) {
		return fmt.Errorf("output_dir must differ from source_dir: %s", config.OutputDir)
	}

	// image and static dirs live inside output_dir
	for name, dir := range map[string]string{"image_dir": config.ImageDir, "static_dir": config.StaticDir} {
		if err := validateRelativePath(dir); err != nil {
			return fmt.Errorf("invalid %s '%s': %w", name, dir, err)
		}
	}

	if len(config.Extensions) == 0 {
		return fmt.Errorf("extensions must list at least one file extension")
	}
	for _, ext := range config.Extensions {
		if !strings.HasPrefix(ext, ".") {
			return fmt.Errorf("extension %q must start with a dot", ext)
		}
	}

	for _, pattern := range config.Exclude {
		if _, err := filepath.Match(pattern, ""); err != nil {
			return fmt.Errorf("invalid exclude pattern %q: %w", pattern, err)
		}
	}

	return nil
}

func validateRenderConfig(config *RenderConfig) error {
	if config.Directive == "" || strings.ContainsAny(config.Directive, " \t`~{}") {
		return fmt.Errorf("directive name %q is not a valid fence language", config.Directive)
	}

	if err := ValidateFormat(config.Format); err != nil {
		return err
	}

	switch config.Engine {
	case EngineBuiltin:
	case EngineCommand:
		if strings.TrimSpace(config.Command) == "" {
			return fmt.Errorf("engine %q requires a command", EngineCommand)
		}
		if !containsPlaceholder(config.CommandArgs, "{output}") {
			return fmt.Errorf("command_args must contain the {output} placeholder")
		}
	default:
		return fmt.Errorf("engine must be %q or %q, got %q", EngineBuiltin, EngineCommand, config.Engine)
	}

	if config.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative")
	}

	if len(config.DefaultSize) != 2 {
		return fmt.Errorf("default_size must have two values, got %d", len(config.DefaultSize))
	}
	for _, n := range config.DefaultSize {
		if n <= 0 || n > MaxCanvasSize {
			return fmt.Errorf("default_size values must be in 1..%d, got %v", MaxCanvasSize, config.DefaultSize)
		}
	}

	if config.Prefix == "" || strings.ContainsAny(config.Prefix, `/\`) {
		return fmt.Errorf("prefix %q must be a non-empty file name part", config.Prefix)
	}

	return nil
}

// ValidateFormat rejects output formats the renderer cannot produce.
func ValidateFormat(format string) error {
	for _, f := range SupportedFormats {
		if format == f {
			return nil
		}
	}
	return sderrors.NewFormatError(format, SupportedFormats)
}

func validateBuildConfig(config *BuildConfig) error {
	valid := false
	for _, w := range SupportedWriters {
		if config.Writer == w {
			valid = true
		}
	}
	if !valid {
		return fmt.Errorf("writer must be one of %s, got %q", strings.Join(SupportedWriters, ", "), config.Writer)
	}

	if config.CacheSize < 0 {
		return fmt.Errorf("cache_size must not be negative")
	}

	return nil
}

// validateServerConfig validates server configuration values
func validateServerConfig(config *ServerConfig) error {
	// allow 0 for system-assigned ports in testing
	if config.Port < 0 || config.Port > 65535 {
		return fmt.Errorf("port %d is not in valid range 0-65535", config.Port)
	}

	if strings.ContainsAny(config.Host, ";&|$`()<>\"'\\ ") {
		return fmt.Errorf("host contains dangerous character: %s", config.Host)
	}

	return nil
}

// validateRelativePath checks a path that is joined under another directory.
func validateRelativePath(path string) error {
	if path == "" {
		return fmt.Errorf("empty path")
	}

	cleanPath := filepath.Clean(path)

	if filepath.IsAbs(cleanPath) {
		return fmt.Errorf("path should be relative: %s", path)
	}

	if cleanPath == ".." || strings.HasPrefix(cleanPath, ".."+string(filepath.Separator)) {
		return fmt.Errorf("path contains traversal: %s", path)
	}

	return nil
}

func containsPlaceholder(args []string, placeholder string) bool {
	for _, arg := range args {
		if strings.Contains(arg, placeholder) {
			return true
		}
	}
	return false
}
