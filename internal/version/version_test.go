package version

import (
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseBuildTime(t *testing.T) {
	assert.True(t, parseBuildTime("").IsZero())
	assert.True(t, parseBuildTime("unknown").IsZero())
	assert.True(t, parseBuildTime("yesterday").IsZero())
	assert.Equal(t, time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC), parseBuildTime("2024-05-01T12:00:00Z"))
	assert.Equal(t, time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC), parseBuildTime("2024-05-01 12:00:00"))
}

func TestShort(t *testing.T) {
	assert.Equal(t, "1.0.0", BuildInfo{Version: "1.0.0", GitCommit: "unknown"}.Short())
	assert.Equal(t, "1.0.0 (abcdef1)", BuildInfo{Version: "1.0.0", GitCommit: "abcdef1234"}.Short())
}

func TestString(t *testing.T) {
	s := BuildInfo{
		Version:   "1.0.0",
		GitCommit: "abcdef1234",
		Dirty:     true,
		GoVersion: "go1.24",
		Platform:  "linux/amd64",
	}.String()

	assert.Contains(t, s, "Version: 1.0.0")
	assert.Contains(t, s, "Commit: abcdef1234 (dirty)")
	assert.NotContains(t, s, "Built:")
	assert.Contains(t, s, "Platform: linux/amd64")
}

func TestGet(t *testing.T) {
	info := Get()
	assert.NotEmpty(t, info.Version)
	assert.Equal(t, runtime.Version(), info.GoVersion)
	assert.Equal(t, runtime.GOOS+"/"+runtime.GOARCH, info.Platform)
}
