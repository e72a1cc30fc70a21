// Package utils provides logging, version and number formatting helpers shared by the abcdump packages.
package utils

import (
	"runtime/debug"
)

const (
	unknownVersion = "unknown"
	develVersion   = "(devel)"
)

// version is set at link time with -ldflags "-X github.com/temirov/abcdump/internal/utils.version=v1.2.3".
var version string

// GetApplicationVersion returns the linked version, then the module version recorded in the
// build info, then the VCS revision, and finally "unknown".
func GetApplicationVersion() string {
	if version != "" {
		return version
	}
	buildInfo, buildInfoAvailable := debug.ReadBuildInfo()
	if !buildInfoAvailable {
		return unknownVersion
	}
	if buildInfo.Main.Version != "" && buildInfo.Main.Version != develVersion {
		return buildInfo.Main.Version
	}
	var revision string
	var modified bool
	for _, setting := range buildInfo.Settings {
		switch setting.Key {
		case "vcs.revision":
			revision = setting.Value
		case "vcs.modified":
			modified = setting.Value == "true"
		}
	}
	if revision == "" {
		return unknownVersion
	}
	if len(revision) > 12 {
		revision = revision[:12]
	}
	if modified {
		return revision + "-dirty"
	}
	return revision
}
