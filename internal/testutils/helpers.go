// Package testutils holds helpers shared by the package tests: temporary
// documentation projects, sample documents and file polling.
package testutils

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/conneroisu/sketchdoc/internal/config"
)

// CreateTempProject creates a project directory holding an empty docs
// source tree and returns its path.
func CreateTempProject(t *testing.T) string {
	t.Helper()
	projectDir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(projectDir, "docs"), 0755))
	return projectDir
}

// WriteDocument writes content to rel under the project's docs directory,
// creating parent directories, and returns the full path.
func WriteDocument(t *testing.T, projectDir, rel, content string) string {
	t.Helper()
	p := filepath.Join(projectDir, "docs", filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0644))
	return p
}

// CreateTestConfig returns the default configuration pointed at the
// project's docs and _build directories.
func CreateTestConfig(projectDir string) *config.Config {
	cfg := config.Default()
	cfg.Docs.SourceDir = filepath.Join(projectDir, "docs")
	cfg.Docs.OutputDir = filepath.Join(projectDir, "_build")
	return cfg
}

// CreateDocsProject creates a project with the sample documents and a
// matching configuration.
func CreateDocsProject(t *testing.T) (string, *config.Config) {
	t.Helper()
	projectDir := CreateTempProject(t)
	for rel, content := range SampleDocuments {
		WriteDocument(t, projectDir, rel, content)
	}
	return projectDir, CreateTestConfig(projectDir)
}

// SampleDocuments is a small documentation tree with drawings at two
// nesting levels.
var SampleDocuments = map[string]string{
	"index.md": "# Welcome\n\nSome shapes.\n\n" +
		"```shoebot size=40,30 alt=\"Red box\"\n" +
		"fill(1, 0, 0)\n" +
		"rect(5, 5, 30, 20)\n" +
		"```\n",
	"guide/paths.md": "# Paths\n\n" +
		"```shoebot\n" +
		":size: 50,50\n" +
		"stroke(0)\n" +
		"nofill()\n" +
		"beginpath(10, 10)\n" +
		"lineto(40, 10)\n" +
		"curveto(40, 40, 10, 40, 10, 10)\n" +
		"endpath()\n" +
		"```\n\n" +
		"```python\nprint('not a drawing')\n```\n",
}

// AssertFilePermissions checks the permission bits of a file.
func AssertFilePermissions(t *testing.T, path string, expectedMode os.FileMode) {
	t.Helper()
	info, err := os.Stat(path)
	require.NoError(t, err)

	actualMode := info.Mode() & os.FileMode(0777)
	require.Equal(t, expectedMode, actualMode,
		"File %s has incorrect permissions: got %o, want %o", path, actualMode, expectedMode)
}

// WaitForFile polls until path exists with a modification time after
// since, failing the test after timeout.
func WaitForFile(t *testing.T, path string, since time.Time, timeout time.Duration) {
	t.Helper()
	deadline := time.Now().Add(timeout)

	for time.Now().Before(deadline) {
		info, err := os.Stat(path)
		if err == nil && info.ModTime().After(since) {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}

	t.Fatalf("File %s was not written within %v", path, timeout)
}
