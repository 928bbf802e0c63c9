// SPDX-License-Identifier: MIT
//
// Package build exposes the build metadata embedded at link time:
//
//	go build -ldflags "-X luxsync/pkg/build.buildName=luxsync \
//	  -X luxsync/pkg/build.buildVersion=0.3.0 \
//	  -X luxsync/pkg/build.buildCommit=$(git rev-parse --short HEAD) \
//	  -X luxsync/pkg/build.buildTime=$(date -u +%FT%TZ)"
//
// Development builds without ldflags fall back to the module's VCS stamp.
package build

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Description is the one-line summary shown by the CLI.
const Description = "Audio-driven energy decisions for stage lighting"

// Info is the build metadata.
type Info struct {
	Name      string `json:"name"`
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	Time      string `json:"time"`
	GoVersion string `json:"goVersion"`
}

// Populated by -ldflags.
var (
	buildName    string
	buildTime    string
	buildCommit  string
	buildVersion string
	buildInfo    = devInfo()
)

// Initialize validates and copies the ldflags variables. It returns an error
// naming the first missing flag; the development defaults stay in place in
// that case.
func Initialize() error {
	if buildName == "" {
		return fmt.Errorf("BuildName is required")
	}
	if buildTime == "" {
		return fmt.Errorf("BuildTime is required")
	}
	if buildCommit == "" {
		return fmt.Errorf("BuildCommit is required")
	}
	if buildVersion == "" {
		return fmt.Errorf("BuildVersion is required")
	}

	buildInfo.Name = buildName
	buildInfo.Time = buildTime
	buildInfo.Commit = buildCommit
	buildInfo.Version = buildVersion
	return nil
}

// Get returns the current build information.
func Get() Info { return buildInfo }

func devInfo() Info {
	info := Info{
		Name:      "luxsync",
		Version:   "dev",
		Commit:    "unknown",
		Time:      "unknown",
		GoVersion: runtime.Version(),
	}
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}
	if v := bi.Main.Version; v != "" && v != "(devel)" {
		info.Version = v
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			info.Commit = s.Value
		case "vcs.time":
			info.Time = s.Value
		}
	}
	return info
}
