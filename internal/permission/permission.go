// Package permission implements the runtime's stateless capability checks.
// Permissions are a declarative allow-list attached to a handler and to each
// actor, intersected down the supervision tree; every check_X function here
// is pure, mapping (effective-permissions, operation, arguments) to an
// allow/deny decision with a reason suitable for display and audit-event
// data.
package permission

import (
	"time"

	"github.com/lightningnetwork/lnd/fn/v2"
)

// FilesystemPermissions bounds filesystem access granted to an actor.
type FilesystemPermissions struct {
	// ReadPaths is the allow-list of directory roots an actor may read
	// from.
	ReadPaths []string

	// WritePaths is the allow-list of directory roots an actor may write
	// to.
	WritePaths []string

	// MaxFileSize bounds the size, in bytes, of any single file
	// operation.
	MaxFileSize uint64
}

// HTTPClientPermissions bounds outbound HTTP access.
type HTTPClientPermissions struct {
	// AllowedMethods is the allow-list of HTTP methods (e.g. "GET",
	// "POST").
	AllowedMethods []string

	// AllowedHostPatterns is the allow-list of host glob patterns (see
	// path/filepath.Match syntax) a request's URL host may match.
	AllowedHostPatterns []string
}

// ProcessPermissions bounds subprocess execution.
type ProcessPermissions struct {
	// AllowedProgramPaths is the allow-list of executable paths.
	AllowedProgramPaths []string

	// MaxConcurrentProcesses bounds how many subprocesses an actor may
	// have running simultaneously.
	MaxConcurrentProcesses int

	// MaxOutputBytes bounds the combined stdout/stderr an actor may
	// capture from a single process.
	MaxOutputBytes uint64
}

// EnvironmentPermissions bounds environment variable access. Deny-list wins
// over allow-list, which wins over allow-prefix, which wins over
// AllowListAll.
type EnvironmentPermissions struct {
	// AllowList is the set of variable names explicitly allowed.
	AllowList []string

	// DenyList is the set of variable names explicitly denied, checked
	// before AllowList.
	DenyList []string

	// AllowPrefixes is a set of name prefixes that are allowed if no
	// exact AllowList/DenyList entry matched.
	AllowPrefixes []string

	// AllowListAll, if true, allows any variable not matched by
	// DenyList.
	AllowListAll bool
}

// RandomPermissions bounds randomness generation.
type RandomPermissions struct {
	// MaxBytesPerCall bounds a single get-random-bytes request.
	MaxBytesPerCall uint64

	// MaxU64Ceiling bounds the exclusive ceiling an actor may request
	// for get-random-u64-range-style calls.
	MaxU64Ceiling uint64
}

// TimingPermissions bounds sleep/timer operations.
type TimingPermissions struct {
	// MaxSleepDuration bounds a single sleep call.
	MaxSleepDuration time.Duration
}

// Permissions is the full per-actor permission tree. Each field is an
// fn.Option: None means the corresponding handler is not granted to this
// actor at all, distinct from a Some with empty allow-lists (granted, but
// everything denied).
type Permissions struct {
	Filesystem  fn.Option[FilesystemPermissions]
	HTTPClient  fn.Option[HTTPClientPermissions]
	Process     fn.Option[ProcessPermissions]
	Environment fn.Option[EnvironmentPermissions]
	Random      fn.Option[RandomPermissions]
	Timing      fn.Option[TimingPermissions]
}

// None is the permission tree granting no handlers at all.
func None() Permissions {
	return Permissions{
		Filesystem:  fn.None[FilesystemPermissions](),
		HTTPClient:  fn.None[HTTPClientPermissions](),
		Process:     fn.None[ProcessPermissions](),
		Environment: fn.None[EnvironmentPermissions](),
		Random:      fn.None[RandomPermissions](),
		Timing:      fn.None[TimingPermissions](),
	}
}
