// Package version exposes build information set through -ldflags.
package version

import (
	"fmt"
	"runtime"
)

// Set at build time, for example:
// go build -ldflags "-X 'codehelper/pkg/version.Version=0.3.0' -X 'codehelper/pkg/version.Commit=abc1234'"
var (
	Version   = "dev"
	Commit    = "none"
	BuildTime = "unknown"
)

// Info describes the running binary.
type Info struct {
	Version   string
	GitCommit string
	BuildTime string
	GoVersion string
	Platform  string
}

// Get returns the current build information.
func Get() Info {
	return Info{
		Version:   Version,
		GitCommit: Commit,
		BuildTime: BuildTime,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
}

// String renders Info on one line:
// codehelper version 0.3.0 (commit: abc1234) built at 2025-01-02T15:04:05Z with go1.24.0 on linux/amd64
func (i Info) String() string {
	return fmt.Sprintf("codehelper version %s (commit: %s) built at %s with %s on %s",
		i.Version, i.GitCommit, i.BuildTime, i.GoVersion, i.Platform)
}
