package config

import "fmt"

// Linker-injected build metadata, set at compile time:
//
//	go build -ldflags "-X recruitmail/internal/config.version=1.2.3 \
//	    -X recruitmail/internal/config.commit=$(git rev-parse --short HEAD) \
//	    -X recruitmail/internal/config.buildTime=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
var (
	version   = "dev"
	commit    = "none"
	buildTime = "unknown"
)

// NewBuildInfo constructs a BuildInfo from the linker-injected variables.
func NewBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   version,
		Commit:    commit,
		BuildTime: buildTime,
	}
}

// String renders the build metadata for `--version` style output.
func (b BuildInfo) String() string {
	return fmt.Sprintf("%s (commit %s, built %s)", b.Version, b.Commit, b.BuildTime)
}
