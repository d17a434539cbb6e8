package config

import (
	"strings"
	"testing"
	"time"

	sderrors "github.com/conneroisu/sketchdoc/internal/errors"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "docs", cfg.Docs.SourceDir)
	assert.Equal(t, "_build", cfg.Docs.OutputDir)
	assert.Equal(t, "_images", cfg.Docs.ImageDir)
	assert.Equal(t, []string{".md", ".markdown"}, cfg.Docs.Extensions)

	assert.Equal(t, "shoebot", cfg.Render.Directive)
	assert.Equal(t, FormatPNG, cfg.Render.Format)
	assert.Equal(t, EngineBuiltin, cfg.Render.Engine)
	assert.Equal(t, "sbot", cfg.Render.Command)
	assert.Equal(t, []string{"-o", "{output}", "{script}"}, cfg.Render.CommandArgs)
	assert.Equal(t, 30*time.Second, cfg.Render.Timeout)
	assert.Equal(t, "1", cfg.Render.Background)

	w, h := cfg.Render.Size()
	assert.Equal(t, 100, w)
	assert.Equal(t, 100, h)

	assert.Equal(t, "html", cfg.Build.Writer)
	assert.True(t, cfg.Build.FailOnError)
	assert.Equal(t, "python", cfg.Highlight.Lexer)
	assert.Equal(t, 300*time.Millisecond, cfg.Watch.Debounce)
}

func TestLoadFrom(t *testing.T) {
	tests := []struct {
		name      string
		setup     func(v *viper.Viper)
		expectErr string
		check     func(t *testing.T, cfg *Config)
	}{
		{
			name: "overrides",
			setup: func(v *viper.Viper) {
				v.Set("render.format", "svg")
				v.Set("render.default_size", []int{200, 150})
				v.Set("build.writer", "man")
				v.Set("render.timeout", "5s")
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, FormatSVG, cfg.Render.Format)
				assert.Equal(t, []int{200, 150}, cfg.Render.DefaultSize)
				assert.Equal(t, "man", cfg.Build.Writer)
				assert.Equal(t, 5*time.Second, cfg.Render.Timeout)
			},
		},
		{
			name:      "unsupported format",
			setup:     func(v *viper.Viper) { v.Set("render.format", "gif") },
			expectErr: `output format must be one of png, svg, but is "gif"`,
		},
		{
			name:      "unknown engine",
			setup:     func(v *viper.Viper) { v.Set("render.engine", "cairo") },
			expectErr: "engine must be",
		},
		{
			name: "command engine without output placeholder",
			setup: func(v *viper.Viper) {
				v.Set("render.engine", "command")
				v.Set("render.command_args", []string{"{script}"})
			},
			expectErr: "{output}",
		},
		{
			name:      "negative default size",
			setup:     func(v *viper.Viper) { v.Set("render.default_size", []int{-1, 100}) },
			expectErr: "default_size",
		},
		{
			name:      "default size above canvas bound",
			setup:     func(v *viper.Viper) { v.Set("render.default_size", []int{MaxCanvasSize + 1, 100}) },
			expectErr: "default_size values must be in 1..8192",
		},
		{
			name:      "unknown writer",
			setup:     func(v *viper.Viper) { v.Set("build.writer", "latex") },
			expectErr: "writer must be one of",
		},
		{
			name:      "image dir traversal",
			setup:     func(v *viper.Viper) { v.Set("docs.image_dir", "../images") },
			expectErr: "traversal",
		},
		{
			name:      "extension without dot",
			setup:     func(v *viper.Viper) { v.Set("docs.extensions", []string{"md"}) },
			expectErr: "must start with a dot",
		},
		{
			name:      "same source and output",
			setup:     func(v *viper.Viper) { v.Set("docs.output_dir", "docs/") },
			expectErr: "must differ",
		},
		{
			name:      "port out of range",
			setup:     func(v *viper.Viper) { v.Set("server.port", 70000) },
			expectErr: "not in valid range",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := viper.New()
			tt.setup(v)

			cfg, err := LoadFrom(v)
			if tt.expectErr != "" {
				require.Error(t, err)
				assert.Nil(t, cfg)
				assert.Contains(t, err.Error(), tt.expectErr)
				return
			}
			require.NoError(t, err)
			tt.check(t, cfg)
		})
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("SKETCHDOC_RENDER_FORMAT", "svg")
	t.Setenv("SKETCHDOC_DOCS_EXTENSIONS", ".md .mdx")

	v := viper.New()
	v.SetEnvPrefix("SKETCHDOC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg, err := LoadFrom(v)
	require.NoError(t, err)
	assert.Equal(t, FormatSVG, cfg.Render.Format)
	assert.Equal(t, []string{".md", ".mdx"}, cfg.Docs.Extensions)
}

func TestValidateFormat(t *testing.T) {
	assert.NoError(t, ValidateFormat("png"))
	assert.NoError(t, ValidateFormat("svg"))

	err := ValidateFormat("pdf")
	require.Error(t, err)
	assert.True(t, sderrors.IsFormatError(err))
}
