package common

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withBuildInfo(t *testing.T, version, build, commit string) {
	t.Helper()
	prevVersion, prevBuild, prevCommit := Version, Build, GitCommit
	Version, Build, GitCommit = version, build, commit
	t.Cleanup(func() { Version, Build, GitCommit = prevVersion, prevBuild, prevCommit })
}

func TestGetFullVersion(t *testing.T) {
	withBuildInfo(t, "1.4.0", "2026-03-01", "3f2a9c1e8b7d")
	assert.Equal(t, "tickerscope 1.4.0 (3f2a9c1, built 2026-03-01)", GetFullVersion())
	assert.Equal(t, "tickerscope/1.4.0", UserAgent())
	assert.Equal(t, BuildInfo{Version: "1.4.0", Build: "2026-03-01", GitCommit: "3f2a9c1e8b7d"}, GetBuildInfo())

	withBuildInfo(t, "dev", "unknown", "unknown")
	assert.Equal(t, "tickerscope dev (unknown, built unknown)", GetFullVersion())
}

func TestReadVersionFile(t *testing.T) {
	exeDir := t.TempDir()
	workDir := t.TempDir()

	assert.Equal(t, "", readVersionFile(exeDir, workDir))

	writeFile(t, filepath.Join(workDir, ".version"), "2.0.1\n")
	assert.Equal(t, "2.0.1", readVersionFile(exeDir, workDir))

	writeFile(t, filepath.Join(exeDir, ".version"), "  \n")
	assert.Equal(t, "2.0.1", readVersionFile(exeDir, workDir), "blank files are skipped")

	writeFile(t, filepath.Join(exeDir, "tickerscope.version"), "v2.1.0\nrelease notes\n")
	assert.Equal(t, "2.1.0", readVersionFile(exeDir, workDir), "named file beside the executable wins")
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}
