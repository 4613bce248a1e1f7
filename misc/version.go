// Package misc keeps build time information.
package misc

import (
	"runtime/debug"
)

// set by linker: -X rwout/misc.version=... -X rwout/misc.gitHash=...
var (
	version = "dev"
	gitHash = ""
	appName = "rwout"
)

// GetAppName returns short application name used for logs and temporary files.
func GetAppName() string {
	return appName
}

// GetVersion returns program version.
func GetVersion() string {
	return version
}

// GetGitHash returns source revision the program was built from.
func GetGitHash() string {
	if len(gitHash) > 0 {
		return gitHash
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, s := range info.Settings {
			if s.Key == "vcs.revision" {
				return s.Value
			}
		}
	}
	return "unknown"
}
