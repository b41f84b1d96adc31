// Package version reports the chunkalyze build version.
package version

import (
	_ "embed"
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
)

//go:embed VERSION
var versionFile string

// Set via:
//
//	go build -ldflags "-X github.com/leefowlercu/chunkalyze/internal/version.gitCommit=VALUE"
var (
	gitCommit string
	buildDate string
)

// Info represents version and build information.
type Info struct {
	Version   string `json:"version"`
	GitCommit string `json:"gitCommit"`
	BuildDate string `json:"buildDate"`
	GoVersion string `json:"goVersion"`
}

// String formats Info for human-readable display.
func (i Info) String() string {
	return fmt.Sprintf("Version:    %s\nGit Commit: %s\nBuild Date: %s\nGo Version: %s",
		i.Version, i.GitCommit, i.BuildDate, i.GoVersion)
}

// Get returns the build information of the running binary.
func Get() Info {
	return Info{
		Version:   getVersion(),
		GitCommit: getGitCommit(),
		BuildDate: orUnknown(buildDate),
		GoVersion: runtime.Version(),
	}
}

// Version returns the semantic version alone.
func Version() string {
	return getVersion()
}

func getVersion() string {
	return strings.TrimSpace(versionFile)
}

// getGitCommit prefers the linker flag, then VCS build info.
func getGitCommit() string {
	if gitCommit != "" {
		return gitCommit
	}

	revision, dirty := readBuildInfo()
	if revision == "" {
		return "unknown"
	}
	if dirty {
		return revision + "-dirty"
	}
	return revision
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}

// readBuildInfo returns the short VCS revision and whether the tree was dirty.
func readBuildInfo() (revision string, dirty bool) {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "", false
	}

	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			revision = setting.Value
			if len(revision) > 7 {
				revision = revision[:7]
			}
		case "vcs.modified":
			dirty = setting.Value == "true"
		}
	}

	return revision, dirty
}
