package common

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Build metadata, set with -ldflags "-X github.com/ternarybob/tickerscope/internal/common.Version=..."
var (
	Version   = "dev"
	Build     = "unknown"
	GitCommit = "unknown"
)

// versionFiles are looked up beside the executable first, then in the working directory.
var versionFiles = []string{"tickerscope.version", ".version"}

// BuildInfo is the build metadata served by /api/version.
type BuildInfo struct {
	Version   string `json:"version"`
	Build     string `json:"build"`
	GitCommit string `json:"git_commit"`
}

// GetBuildInfo returns the current build metadata
func GetBuildInfo() BuildInfo {
	return BuildInfo{Version: Version, Build: Build, GitCommit: GitCommit}
}

// GetVersion returns the current version string
func GetVersion() string {
	return Version
}

// GetFullVersion renders "tickerscope 1.4.0 (3f2a9c1, built 2026-03-01)".
func GetFullVersion() string {
	return fmt.Sprintf("tickerscope %s (%s, built %s)", Version, shortCommit(GitCommit), Build)
}

// UserAgent identifies tickerscope on APIs that need no caller-supplied identity.
func UserAgent() string {
	return "tickerscope/" + Version
}

func shortCommit(commit string) string {
	if len(commit) > 7 && commit != "unknown" {
		return commit[:7]
	}
	return commit
}

// LoadVersionFromFile overrides Version from the first non-empty version file, so a
// release can be stamped without rebuilding.
func LoadVersionFromFile() string {
	var dirs []string
	if exe, err := os.Executable(); err == nil {
		dirs = append(dirs, filepath.Dir(exe))
	}
	if wd, err := os.Getwd(); err == nil {
		dirs = append(dirs, wd)
	}

	if v := readVersionFile(dirs...); v != "" {
		Version = v
	}
	return Version
}

// readVersionFile returns the first line of the first readable, non-empty version file.
func readVersionFile(dirs ...string) string {
	for _, dir := range dirs {
		for _, name := range versionFiles {
			data, err := os.ReadFile(filepath.Join(dir, name))
			if err != nil {
				continue
			}
			scanner := bufio.NewScanner(bytes.NewReader(data))
			if scanner.Scan() {
				if v := strings.TrimPrefix(strings.TrimSpace(scanner.Text()), "v"); v != "" {
					return v
				}
			}
		}
	}
	return ""
}
