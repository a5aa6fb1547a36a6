// Package misc keeps build time program identification.
package misc

import (
	"runtime/debug"
)

const appName = "csf"

// Set with -ldflags "-X csf/misc.version=... -X csf/misc.gitHash=..." by the
// release build, otherwise taken from module build information.
var (
	version = ""
	gitHash = ""
)

// GetAppName returns program name used for logs, temporary and report files.
func GetAppName() string {
	return appName
}

// GetVersion returns program version.
func GetVersion() string {
	if version != "" {
		return version
	}
	if bi, ok := debug.ReadBuildInfo(); ok && bi.Main.Version != "" {
		return bi.Main.Version
	}
	return "(devel)"
}

// GetGitHash returns VCS revision program was built from.
func GetGitHash() string {
	if gitHash != "" {
		return gitHash
	}
	if bi, ok := debug.ReadBuildInfo(); ok {
		for _, s := range bi.Settings {
			if s.Key == "vcs.revision" {
				return s.Value
			}
		}
	}
	return "unknown"
}
