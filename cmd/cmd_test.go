package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/sketchdoc/internal/build"
	"github.com/conneroisu/sketchdoc/internal/config"
	"github.com/conneroisu/sketchdoc/internal/logging"
	"github.com/conneroisu/sketchdoc/internal/testutils"
)

// execute runs a fresh command tree and returns what it printed on stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCommand()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func images(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil
	}
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestBuildCommand(t *testing.T) {
	_, cfg := testutils.CreateDocsProject(t)

	out, err := execute(t, "build", "--source", cfg.Docs.SourceDir, "--output", cfg.Docs.OutputDir)
	require.NoError(t, err)
	assert.Contains(t, out, "built 2 documents into "+cfg.Docs.OutputDir)
	assert.Contains(t, out, "2 images rendered, 0 reused")

	assert.FileExists(t, filepath.Join(cfg.Docs.OutputDir, "index.html"))
	assert.FileExists(t, filepath.Join(cfg.Docs.OutputDir, "guide", "paths.html"))
	assert.Len(t, images(t, filepath.Join(cfg.Docs.OutputDir, "_images")), 2)

	out, err = execute(t, "build", "-s", cfg.Docs.SourceDir, "-o", cfg.Docs.OutputDir)
	require.NoError(t, err)
	assert.Contains(t, out, "0 images rendered, 2 reused")
}

func TestBuildCommandDefaultsToWorkingDirectory(t *testing.T) {
	projectDir, _ := testutils.CreateDocsProject(t)
	chdir(t, projectDir)

	_, err := execute(t, "build")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(projectDir, "_build", "index.html"))
}

func TestBuildCommandFlags(t *testing.T) {
	t.Run("svg format", func(t *testing.T) {
		_, cfg := testutils.CreateDocsProject(t)
		_, err := execute(t, "build", "-s", cfg.Docs.SourceDir, "-o", cfg.Docs.OutputDir, "--format", "svg")
		require.NoError(t, err)
		for _, name := range images(t, filepath.Join(cfg.Docs.OutputDir, "_images")) {
			assert.True(t, strings.HasSuffix(name, ".svg"), name)
		}
	})

	t.Run("text writer", func(t *testing.T) {
		_, cfg := testutils.CreateDocsProject(t)
		_, err := execute(t, "build", "-s", cfg.Docs.SourceDir, "-o", cfg.Docs.OutputDir, "--writer", "text")
		require.NoError(t, err)
		assert.FileExists(t, filepath.Join(cfg.Docs.OutputDir, "index.txt"))
		assert.Empty(t, images(t, filepath.Join(cfg.Docs.OutputDir, "_images")))
	})

	t.Run("unsupported format", func(t *testing.T) {
		_, cfg := testutils.CreateDocsProject(t)
		_, err := execute(t, "build", "-s", cfg.Docs.SourceDir, "-o", cfg.Docs.OutputDir, "--format", "gif")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "must be one of png, svg")
		assert.NoDirExists(t, cfg.Docs.OutputDir)
	})

	t.Run("unknown log level", func(t *testing.T) {
		_, cfg := testutils.CreateDocsProject(t)
		_, err := execute(t, "build", "-s", cfg.Docs.SourceDir, "-o", cfg.Docs.OutputDir, "--log-level", "loud")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown log level")
	})
}

func TestBuildCommandKeepGoing(t *testing.T) {
	projectDir, cfg := testutils.CreateDocsProject(t)
	testutils.WriteDocument(t, projectDir, "bad.md", "# Bad\n\n```shoebot size=-1,-1\nrect(0, 0, 1, 1)\n```\n")

	_, err := execute(t, "build", "-s", cfg.Docs.SourceDir, "-o", cfg.Docs.OutputDir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 3 documents failed")
	assert.Contains(t, err.Error(), "invalid canvas size")

	out, err := execute(t, "build", "-s", cfg.Docs.SourceDir, "-o", cfg.Docs.OutputDir, "--keep-going")
	require.NoError(t, err)
	assert.Contains(t, out, "built 3 documents")
	assert.Contains(t, out, "1 errors")
	assert.FileExists(t, filepath.Join(cfg.Docs.OutputDir, "bad.html"))
}

func TestConfigurationSources(t *testing.T) {
	projectDir, _ := testutils.CreateDocsProject(t)
	chdir(t, projectDir)

	require.NoError(t, os.WriteFile(DefaultConfigName, []byte("docs:\n  output_dir: site\nrender:\n  format: svg\n"), 0644))

	t.Run("config file", func(t *testing.T) {
		_, err := execute(t, "build")
		require.NoError(t, err)
		assert.FileExists(t, filepath.Join("site", "index.html"))
		for _, name := range images(t, filepath.Join("site", "_images")) {
			assert.True(t, strings.HasSuffix(name, ".svg"), name)
		}
	})

	t.Run("environment beats file", func(t *testing.T) {
		t.Setenv("SKETCHDOC_DOCS_OUTPUT_DIR", "env-site")
		_, err := execute(t, "build")
		require.NoError(t, err)
		assert.FileExists(t, filepath.Join("env-site", "index.html"))
	})

	t.Run("flag beats environment", func(t *testing.T) {
		t.Setenv("SKETCHDOC_DOCS_OUTPUT_DIR", "env-site")
		_, err := execute(t, "build", "--output", "flag-site")
		require.NoError(t, err)
		assert.FileExists(t, filepath.Join("flag-site", "index.html"))
	})

	t.Run("config file from environment", func(t *testing.T) {
		alt := filepath.Join(projectDir, "alt.yml")
		require.NoError(t, os.WriteFile(alt, []byte("docs:\n  output_dir: alt-site\n"), 0644))
		t.Setenv(ConfigFileEnv, alt)
		_, err := execute(t, "build")
		require.NoError(t, err)
		assert.FileExists(t, filepath.Join("alt-site", "index.html"))
	})

	t.Run("missing explicit config", func(t *testing.T) {
		_, err := execute(t, "build", "--config", "missing.yml")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to read config file")
	})
}

func writeScript(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0644))
	return p
}

func TestRenderCommand(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	script := writeScript(t, dir, "box.bot", "fill(0, 0, 1)\nrect(10, 10, 50, 50)\n")

	out, err := execute(t, "render", script)
	require.NoError(t, err)
	first := strings.TrimSpace(out)
	assert.True(t, strings.HasPrefix(first, filepath.Join("_build", "_images", "shoebot-")), first)
	assert.True(t, strings.HasSuffix(first, ".png"), first)
	assert.FileExists(t, first)

	out, err = execute(t, "render", script)
	require.NoError(t, err)
	assert.Equal(t, first, strings.TrimSpace(out))

	out, err = execute(t, "render", script, "--size", "120,80")
	require.NoError(t, err)
	assert.NotEqual(t, first, strings.TrimSpace(out))
}

func TestRenderCommandOutputFile(t *testing.T) {
	dir := t.TempDir()
	script := writeScript(t, dir, "box.bot", ":size: 30,30\nellipse(0, 0, 30, 30)\n")
	target := filepath.Join(dir, "out", "circle.svg")

	out, err := execute(t, "render", script, "-o", target)
	require.NoError(t, err)
	assert.Equal(t, target, strings.TrimSpace(out))

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Contains(t, string(data), "<svg")

	out, err = execute(t, "render", script, "-o", target, "--format", "png")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "out", "circle.png"), strings.TrimSpace(out))
}

func TestRenderCommandErrors(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	_, err := execute(t, "render", filepath.Join(dir, "missing.bot"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read script")

	script := writeScript(t, dir, "bad.bot", "rect(0, 0, 1, 1)\n")
	_, err = execute(t, "render", script, "--size", "-1,-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid canvas size")
	assert.Empty(t, images(t, filepath.Join(dir, "_build", "_images")))

	empty := writeScript(t, dir, "empty.bot", "\n")
	_, err = execute(t, "render", empty)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "without content")

	_, err = execute(t, "render")
	assert.Error(t, err)
}

func TestInitCommand(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	out, err := execute(t, "init")
	require.NoError(t, err)
	assert.Contains(t, out, "Created "+DefaultConfigName)
	assert.FileExists(t, filepath.Join(dir, "docs", "index.md"))

	// the written file loads back to the defaults
	v := viper.New()
	v.SetConfigFile(filepath.Join(dir, DefaultConfigName))
	require.NoError(t, v.ReadInConfig())
	cfg, err := config.LoadFrom(v)
	require.NoError(t, err)
	def := config.Default()
	assert.Equal(t, def.Docs.SourceDir, cfg.Docs.SourceDir)
	assert.Equal(t, def.Docs.OutputDir, cfg.Docs.OutputDir)
	assert.Equal(t, def.Docs.Extensions, cfg.Docs.Extensions)
	assert.Empty(t, cfg.Docs.Exclude)
	assert.Equal(t, def.Render, cfg.Render)
	assert.Equal(t, def.Build, cfg.Build)
	assert.Equal(t, def.Server, cfg.Server)
	assert.Equal(t, def.Watch, cfg.Watch)

	_, err = execute(t, "init")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	_, err = execute(t, "init", "--force")
	require.NoError(t, err)

	out, err = execute(t, "build")
	require.NoError(t, err)
	assert.Contains(t, out, "built 1 documents")
	assert.Contains(t, out, "1 images rendered")
}

func TestInitCommandIntoDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "project")

	_, err := execute(t, "init", dir, "--no-example")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, DefaultConfigName))
	assert.NoDirExists(t, filepath.Join(dir, "docs"))
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "sketchdoc "), out)
	assert.Contains(t, out, "platform: ")

	out, err = execute(t, "version", "--format", "json")
	require.NoError(t, err)
	var info map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.NotEmpty(t, info["version"])
	assert.NotEmpty(t, info["go_version"])

	out, err = execute(t, "version", "--short")
	require.NoError(t, err)
	assert.NotContains(t, out, "platform")

	_, err = execute(t, "version", "--format", "yaml")
	assert.Error(t, err)
}

func TestServeCommandValidation(t *testing.T) {
	_, cfg := testutils.CreateDocsProject(t)

	_, err := execute(t, "serve", "-s", cfg.Docs.SourceDir, "-o", cfg.Docs.OutputDir, "--port", "70000")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "port must be between 1 and 65535")

	_, err = execute(t, "serve", "-s", cfg.Docs.SourceDir, "-o", cfg.Docs.OutputDir, "--host", "http://localhost")
	require.Error(t, err)

	_, err = execute(t, "serve", "-s", cfg.Docs.SourceDir, "-o", cfg.Docs.OutputDir, "--writer", "man")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "serve needs the html writer")
}

func TestWatchAndBuild(t *testing.T) {
	projectDir, cfg := testutils.CreateDocsProject(t)
	cfg.Watch.Debounce = 20 * time.Millisecond

	b, err := build.New(cfg, build.Options{Incremental: true}, logging.Discard())
	require.NoError(t, err)

	var builds atomic.Int32
	var out bytes.Buffer
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- watchAndBuild(ctx, &out, cfg, b, logging.Discard(), func() { builds.Add(1) })
	}()

	require.Eventually(t, func() bool { return builds.Load() == 1 }, 5*time.Second, 10*time.Millisecond)
	index := filepath.Join(cfg.Docs.OutputDir, "index.html")
	assert.FileExists(t, index)

	testutils.WriteDocument(t, projectDir, "index.md", "# Changed\n")
	require.Eventually(t, func() bool {
		data, err := os.ReadFile(index)
		return err == nil && strings.Contains(string(data), "Changed")
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watchAndBuild did not stop")
	}
	assert.GreaterOrEqual(t, builds.Load(), int32(2))
}

// chdir changes the working directory for the duration of the test and
// restores it on cleanup (equivalent to testing.T.Chdir from Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	oldwd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() {
		if err := os.Chdir(oldwd); err != nil {
			t.Fatalf("restore working directory: %v", err)
		}
	})
}
