// Package version reports build information for the churnprep binary.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
)

const (
	unknownValue     = "unknown"
	commitHashLength = 7
)

// Build-time variables set by ldflags
var (
	Version   = "dev"
	BuildDate = unknownValue
	GitCommit = unknownValue
)

// KeyDependencies are the modules listed by the version command.
var KeyDependencies = []string{
	"github.com/apache/arrow-go/v18",
	"gonum.org/v1/gonum",
	"go.uber.org/zap",
}

// BuildInfo contains build information
type BuildInfo struct {
	Version   string            `json:"version"`
	BuildDate string            `json:"build_date"`
	GitCommit string            `json:"git_commit"`
	GoVersion string            `json:"go_version"`
	Dirty     bool              `json:"dirty"`
	Module    string            `json:"module"`
	Deps      map[string]string `json:"deps"`
}

// Info returns the build information of the running binary.
func Info() BuildInfo {
	info := BuildInfo{
		Version:   Version,
		BuildDate: BuildDate,
		GitCommit: GitCommit,
		GoVersion: runtime.Version(),
		Dirty:     strings.HasSuffix(GitCommit, "-dirty"),
		Deps:      make(map[string]string),
	}

	if buildInfo, ok := debug.ReadBuildInfo(); ok {
		info.Module = buildInfo.Main.Path
		for _, dep := range buildInfo.Deps {
			info.Deps[dep.Path] = dep.Version
		}
		for _, setting := range buildInfo.Settings {
			if setting.Key == "vcs.modified" && setting.Value == "true" {
				info.Dirty = true
			}
		}
	}

	return info
}

// String returns a formatted version string
func (b BuildInfo) String() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("churnprep %s", b.Version))
	if b.Dirty {
		sb.WriteString(" (dirty)")
	}
	sb.WriteString("\n")

	if b.BuildDate != unknownValue {
		sb.WriteString(fmt.Sprintf("Build Date: %s\n", b.BuildDate))
	}
	if b.GitCommit != unknownValue {
		commit := strings.TrimSuffix(b.GitCommit, "-dirty")
		if len(commit) > commitHashLength {
			commit = commit[:commitHashLength]
		}
		sb.WriteString(fmt.Sprintf("Git Commit: %s\n", commit))
	}
	sb.WriteString(fmt.Sprintf("Go Version: %s\n", b.GoVersion))

	for _, path := range KeyDependencies {
		if v, ok := b.Deps[path]; ok {
			sb.WriteString(fmt.Sprintf("%s %s\n", path, v))
		}
	}
	return sb.String()
}

// IsRelease returns true if this is a release version (not dev)
func IsRelease() bool {
	return Version != "dev" && !strings.Contains(Version, "-")
}
