package permission

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/lightningnetwork/lnd/fn/v2"
)

// ErrDenied is the sentinel wrapped by every PermissionError, so callers can
// test for a denial generically via errors.Is without inspecting the
// operation kind.
var ErrDenied = errors.New("permission denied")

// PermissionError carries the operation kind, offending argument, and a
// short reason suitable both for display to an operator and for recording
// in a chain's PermissionDenied event payload.
type PermissionError struct {
	// Operation names the permissioned operation kind, e.g.
	// "filesystem/read".
	Operation string

	// Argument is the offending argument (a path, URL, variable name,
	// …), rendered as text.
	Argument string

	// Reason is a short, stable machine-and-human-readable explanation.
	Reason string
}

// Error implements the error interface.
func (e *PermissionError) Error() string {
	return fmt.Sprintf("permission denied for %s(%s): %s",
		e.Operation, e.Argument, e.Reason)
}

// Unwrap allows errors.Is(err, ErrDenied) to succeed.
func (e *PermissionError) Unwrap() error {
	return ErrDenied
}

func denied(operation, argument, reason string) fn.Result[struct{}] {
	return fn.Err[struct{}](&PermissionError{
		Operation: operation,
		Argument:  argument,
		Reason:    reason,
	})
}

func allowed() fn.Result[struct{}] {
	return fn.Ok(struct{}{})
}

// CheckFilesystemOperation validates a filesystem op against the actor's
// granted FilesystemPermissions. op is one of "read", "write", "list" (or
// any other handler-defined verb); path is canonicalized before matching so
// `..` cannot escape an allow-listed root. maybeSize, if present, is checked
// against MaxFileSize.
func CheckFilesystemOperation(perms Permissions, op, path string,
	maybeSize fn.Option[uint64],
) fn.Result[struct{}] {
	name := "filesystem/" + op

	if perms.Filesystem.IsNone() {
		return denied(name, path, "filesystem handler not granted")
	}

	var zero FilesystemPermissions
	fsPerms := perms.Filesystem.UnwrapOr(zero)

	clean := filepath.Clean(path)

	roots := fsPerms.ReadPaths
	if op == "write" {
		roots = fsPerms.WritePaths
	}

	if !pathWithinAnyRoot(clean, roots) {
		return denied(name, path, "path-not-in-allowlist")
	}

	if size, has := maybeSizeValue(maybeSize); has {
		if fsPerms.MaxFileSize != 0 && size > fsPerms.MaxFileSize {
			return denied(name, path, "file size exceeds max-file-size")
		}
	}

	return allowed()
}

// pathWithinAnyRoot reports whether clean is equal to, or a descendant of,
// one of roots. Both clean and the roots are compared after filepath.Clean,
// so a request cannot use `..` segments to escape an allow-listed root.
func pathWithinAnyRoot(clean string, roots []string) bool {
	for _, root := range roots {
		cleanRoot := filepath.Clean(root)
		if clean == cleanRoot {
			return true
		}
		if strings.HasPrefix(clean, cleanRoot+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

func maybeSizeValue(o fn.Option[uint64]) (uint64, bool) {
	if o.IsNone() {
		return 0, false
	}
	return o.UnwrapOr(0), true
}

// CheckHTTPOperation validates an outbound HTTP request against the actor's
// HTTPClientPermissions: method must be in AllowedMethods, and url's host
// must match one of AllowedHostPatterns (path/filepath.Match glob syntax).
func CheckHTTPOperation(perms Permissions, method, rawURL string) fn.Result[struct{}] {
	const name = "http-client/request"

	if perms.HTTPClient.IsNone() {
		return denied(name, rawURL, "http-client handler not granted")
	}

	var zero HTTPClientPermissions
	httpPerms := perms.HTTPClient.UnwrapOr(zero)

	if !slices.ContainsFunc(httpPerms.AllowedMethods, func(m string) bool {
		return strings.EqualFold(m, method)
	}) {
		return denied(name, method, "method-not-allowed")
	}

	host := hostFromURL(rawURL)

	matched := false
	for _, pattern := range httpPerms.AllowedHostPatterns {
		ok, err := filepath.Match(pattern, host)
		if err == nil && ok {
			matched = true
			break
		}
	}

	if !matched {
		return denied(name, host, "host-not-in-allowlist")
	}

	return allowed()
}

// hostFromURL extracts the authority component of a URL without pulling in
// the full net/url parser's validation semantics; host-pattern matching
// tolerates a best-effort extraction since a malformed URL will simply fail
// to match any pattern.
func hostFromURL(rawURL string) string {
	rest := rawURL
	if idx := strings.Index(rest, "://"); idx >= 0 {
		rest = rest[idx+3:]
	}
	if idx := strings.IndexAny(rest, "/?#"); idx >= 0 {
		rest = rest[:idx]
	}
	if idx := strings.LastIndex(rest, "@"); idx >= 0 {
		rest = rest[idx+1:]
	}
	return rest
}

// CheckProcessOperation validates a subprocess spawn against the actor's
// ProcessPermissions: programPath must be allow-listed and runningCount
// (the actor's current concurrent process count) must be below the
// configured maximum.
func CheckProcessOperation(perms Permissions, programPath string,
	runningCount int,
) fn.Result[struct{}] {
	const name = "process/spawn"

	if perms.Process.IsNone() {
		return denied(name, programPath, "process handler not granted")
	}

	var zero ProcessPermissions
	procPerms := perms.Process.UnwrapOr(zero)

	if !slices.Contains(procPerms.AllowedProgramPaths, programPath) {
		return denied(name, programPath, "program-not-in-allowlist")
	}

	if procPerms.MaxConcurrentProcesses > 0 &&
		runningCount >= procPerms.MaxConcurrentProcesses {
		return denied(name, programPath, "max-concurrent-processes exceeded")
	}

	return allowed()
}

// CheckEnvVarAccess validates access to a single environment variable.
// Precedence, per spec: deny-list wins; else allow-list; else
// allow-prefix; else if AllowListAll then allow; else deny.
func CheckEnvVarAccess(perms Permissions, varName string) fn.Result[struct{}] {
	const name = "environment/get"

	if perms.Environment.IsNone() {
		return denied(name, varName, "environment handler not granted")
	}

	var zero EnvironmentPermissions
	envPerms := perms.Environment.UnwrapOr(zero)

	if slices.Contains(envPerms.DenyList, varName) {
		return denied(name, varName, "var-in-denylist")
	}

	if slices.Contains(envPerms.AllowList, varName) {
		return allowed()
	}

	for _, prefix := range envPerms.AllowPrefixes {
		if strings.HasPrefix(varName, prefix) {
			return allowed()
		}
	}

	if envPerms.AllowListAll {
		return allowed()
	}

	return denied(name, varName, "var-not-allowed")
}

// CheckRandomOperation validates a get-random-bytes(n) request against
// MaxBytesPerCall.
func CheckRandomOperation(perms Permissions, requestedBytes uint64) fn.Result[struct{}] {
	const name = "wasi:random/random/get-random-bytes"

	if perms.Random.IsNone() {
		return denied(name, fmt.Sprint(requestedBytes), "random handler not granted")
	}

	var zero RandomPermissions
	randPerms := perms.Random.UnwrapOr(zero)

	if randPerms.MaxBytesPerCall != 0 && requestedBytes > randPerms.MaxBytesPerCall {
		return denied(name, fmt.Sprint(requestedBytes), "requested-bytes exceeds max-bytes-per-call")
	}

	return allowed()
}

// CheckRandomU64Operation validates a get-random-u64(ceiling) style request
// against MaxU64Ceiling.
func CheckRandomU64Operation(perms Permissions, ceiling uint64) fn.Result[struct{}] {
	const name = "wasi:random/random/get-random-u64"

	if perms.Random.IsNone() {
		return denied(name, fmt.Sprint(ceiling), "random handler not granted")
	}

	var zero RandomPermissions
	randPerms := perms.Random.UnwrapOr(zero)

	if randPerms.MaxU64Ceiling != 0 && ceiling > randPerms.MaxU64Ceiling {
		return denied(name, fmt.Sprint(ceiling), "ceiling exceeds max-u64-ceiling")
	}

	return allowed()
}

// CheckTimingOperation validates a sleep(duration) request against
// MaxSleepDuration.
func CheckTimingOperation(perms Permissions, duration time.Duration) fn.Result[struct{}] {
	const name = "timing/sleep"

	if perms.Timing.IsNone() {
		return denied(name, duration.String(), "timing handler not granted")
	}

	var zero TimingPermissions
	timingPerms := perms.Timing.UnwrapOr(zero)

	if timingPerms.MaxSleepDuration != 0 && duration > timingPerms.MaxSleepDuration {
		return denied(name, duration.String(), "duration exceeds max-sleep-duration")
	}

	return allowed()
}
