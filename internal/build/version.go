package build

import (
	"fmt"
	"runtime"
)

var (
	// Commit stores the specific commit hash baked into the binary via
	// -ldflags at build time. Empty in a `go run`/`go build` invocation
	// that didn't set it explicitly.
	Commit string

	// CommitHash is an alias kept for release tooling that pins the
	// build metadata under this name instead of Commit.
	CommitHash string

	// GoVersion is the toolchain version used to produce the binary.
	GoVersion = runtime.Version()
)

const (
	// appMajor is the major version of this build.
	appMajor uint = 0

	// appMinor is the minor version of this build.
	appMinor uint = 1

	// appPatch is the patch version of this build.
	appPatch uint = 0

	// appPreRelease is the pre-release suffix, empty for release builds.
	appPreRelease = "alpha"
)

// Version returns the application version as a properly formed string per
// the semantic versioning 2.0.0 spec (http://semver.org/).
func Version() string {
	version := fmt.Sprintf("%d.%d.%d", appMajor, appMinor, appPatch)

	if appPreRelease != "" {
		version = fmt.Sprintf("%s-%s", version, appPreRelease)
	}

	return version
}
