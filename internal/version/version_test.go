package version

import (
	"encoding/json"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setVars(t *testing.T, version, commit, buildTime string) {
	t.Helper()
	oldVersion, oldCommit, oldTime := Version, GitCommit, BuildTime
	t.Cleanup(func() { Version, GitCommit, BuildTime = oldVersion, oldCommit, oldTime })
	Version, GitCommit, BuildTime = version, commit, buildTime
}

func TestReleaseBuild(t *testing.T) {
	setVars(t, "v1.2.0", "0123456789abcdef", "2026-03-01T12:00:00Z")

	info := GetBuildInfo()
	assert.Equal(t, "v1.2.0", info.Version)
	assert.Equal(t, "0123456789abcdef", info.GitCommit)
	assert.Equal(t, time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC), info.BuildTime)
	assert.Equal(t, runtime.Version(), info.GoVersion)
	assert.Equal(t, runtime.GOOS+"/"+runtime.GOARCH, info.Platform)

	assert.Equal(t, "v1.2.0 (0123456)", GetShortVersion())

	text := info.String()
	assert.True(t, strings.HasPrefix(text, "sketchdoc v1.2.0\n"), text)
	assert.Contains(t, text, "commit: 0123456789abcdef")
	assert.Contains(t, text, "built: 2026-03-01T12:00:00Z")
}

func TestDevelopmentBuild(t *testing.T) {
	setVars(t, "dev", "unknown", "unknown")

	info := GetBuildInfo()
	assert.NotEmpty(t, info.Version)
	assert.True(t, info.BuildTime.IsZero())
	assert.NotContains(t, info.String(), "built:")
}

func TestBuildInfoJSON(t *testing.T) {
	setVars(t, "v0.3.0", "unknown", "unknown")

	data, err := json.Marshal(GetBuildInfo())
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "v0.3.0", decoded["version"])
	assert.Contains(t, decoded, "git_commit")
	assert.Contains(t, decoded, "go_version")
	assert.Contains(t, decoded, "platform")
}

func TestParseBuildTime(t *testing.T) {
	tests := []struct {
		input string
		zero  bool
	}{
		{"2026-03-01T12:00:00Z", false},
		{"2026-03-01T12:00:00", false},
		{"2026-03-01 12:00:00", false},
		{"unknown", true},
		{"", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.zero, parseBuildTime(tt.input).IsZero())
		})
	}
}
