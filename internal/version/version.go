// Package version reports the commit oak was built from.
package version

import "runtime/debug"

// These variables are set at build time using ldflags.
// Example: go build -ldflags "-X github.com/oakshell/oak/internal/version.GitSHA=$(git rev-parse --short HEAD)"
var (
	// GitSHA is the git commit SHA (short form) at build time.
	GitSHA = "dev"
)

// Short returns a short version string suitable for display. Without
// ldflags it falls back to the revision the Go toolchain stamped into the
// binary.
func Short() string {
	if GitSHA != "" && GitSHA != "dev" {
		return GitSHA
	}
	if rev := buildRevision(); rev != "" {
		return rev
	}
	return "dev"
}

func buildRevision() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	for _, s := range info.Settings {
		if s.Key == "vcs.revision" && len(s.Value) >= 7 {
			return s.Value[:7]
		}
	}
	return ""
}
