package version

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

func stamp(t *testing.T, v, commit, built string) {
	t.Helper()
	origVersion, origCommit, origBuilt := Version, GitCommit, BuildTime
	t.Cleanup(func() {
		Version, GitCommit, BuildTime = origVersion, origCommit, origBuilt
	})
	Version, GitCommit, BuildTime = v, commit, built
}

func TestString(t *testing.T) {
	stamp(t, "1.2.3", "abc123def", "2026-01-15T10:30:00Z")

	s := String()
	assert.Contains(t, s, "medqa 1.2.3")
	assert.Contains(t, s, "commit: abc123def")
	assert.Contains(t, s, "built: 2026-01-15T10:30:00Z")
	assert.Contains(t, s, runtime.Version())
}

func TestInfo(t *testing.T) {
	stamp(t, "dev", "unknown", "unknown")

	info := Info()
	assert.Equal(t, "dev", info["version"])
	assert.Equal(t, "unknown", info["commit"])
	assert.Equal(t, runtime.GOOS+"/"+runtime.GOARCH, info["platform"])
	assert.Len(t, info, 5)
}
