package permission

import (
	"errors"
	"testing"
	"time"

	"github.com/lightningnetwork/lnd/fn/v2"
	"github.com/stretchr/testify/require"
)

func permsWithFilesystem(fs FilesystemPermissions) Permissions {
	p := None()
	p.Filesystem = fn.Some(fs)
	return p
}

// TestFilesystemReadDeniedOutsideAllowlist is scenario S1 from the spec: a
// manifest grants filesystem.read_paths = ["/data"], the actor requests
// "/etc/passwd", and the call must be denied.
func TestFilesystemReadDeniedOutsideAllowlist(t *testing.T) {
	t.Parallel()

	perms := permsWithFilesystem(FilesystemPermissions{
		ReadPaths: []string{"/data"},
	})

	result := CheckFilesystemOperation(perms, "read", "/etc/passwd", fn.None[uint64]())
	require.True(t, result.IsErr())

	_, err := result.Unpack()
	require.Error(t, err)

	var permErr *PermissionError
	require.True(t, errors.As(err, &permErr))
	require.Equal(t, "path-not-in-allowlist", permErr.Reason)
	require.True(t, errors.Is(err, ErrDenied))
}

func TestFilesystemReadAllowedWithinAllowlist(t *testing.T) {
	t.Parallel()

	perms := permsWithFilesystem(FilesystemPermissions{
		ReadPaths: []string{"/data"},
	})

	result := CheckFilesystemOperation(perms, "read", "/data/file.txt", fn.None[uint64]())
	require.True(t, result.IsOk())
}

func TestFilesystemPathTraversalDenied(t *testing.T) {
	t.Parallel()

	perms := permsWithFilesystem(FilesystemPermissions{
		ReadPaths: []string{"/data"},
	})

	result := CheckFilesystemOperation(
		perms, "read", "/data/../etc/passwd", fn.None[uint64](),
	)
	require.True(t, result.IsErr())
}

func TestFilesystemWriteUsesWritePaths(t *testing.T) {
	t.Parallel()

	perms := permsWithFilesystem(FilesystemPermissions{
		ReadPaths:  []string{"/data"},
		WritePaths: []string{"/data/out"},
	})

	require.True(t, CheckFilesystemOperation(
		perms, "write", "/data/out/result.txt", fn.None[uint64](),
	).IsOk())

	require.True(t, CheckFilesystemOperation(
		perms, "write", "/data/result.txt", fn.None[uint64](),
	).IsErr())
}

func TestFilesystemMaxSizeEnforced(t *testing.T) {
	t.Parallel()

	perms := permsWithFilesystem(FilesystemPermissions{
		ReadPaths:   []string{"/data"},
		MaxFileSize: 10,
	})

	require.True(t, CheckFilesystemOperation(
		perms, "read", "/data/f", fn.Some[uint64](20),
	).IsErr())

	require.True(t, CheckFilesystemOperation(
		perms, "read", "/data/f", fn.Some[uint64](5),
	).IsOk())
}

func TestFilesystemHandlerNotGranted(t *testing.T) {
	t.Parallel()

	result := CheckFilesystemOperation(None(), "read", "/data/f", fn.None[uint64]())
	require.True(t, result.IsErr())
}

func TestHTTPOperationMethodAndHost(t *testing.T) {
	t.Parallel()

	perms := None()
	perms.HTTPClient = fn.Some(HTTPClientPermissions{
		AllowedMethods:      []string{"GET", "POST"},
		AllowedHostPatterns: []string{"*.example.com"},
	})

	require.True(t, CheckHTTPOperation(
		perms, "GET", "https://api.example.com/v1/resource",
	).IsOk())

	require.True(t, CheckHTTPOperation(
		perms, "DELETE", "https://api.example.com/v1/resource",
	).IsErr())

	require.True(t, CheckHTTPOperation(
		perms, "GET", "https://evil.com/v1/resource",
	).IsErr())
}

func TestEnvVarPrecedence(t *testing.T) {
	t.Parallel()

	perms := None()
	perms.Environment = fn.Some(EnvironmentPermissions{
		AllowList:     []string{"HOME"},
		DenyList:      []string{"SECRET"},
		AllowPrefixes: []string{"PUBLIC_"},
	})

	require.True(t, CheckEnvVarAccess(perms, "HOME").IsOk())
	require.True(t, CheckEnvVarAccess(perms, "PUBLIC_CONFIG").IsOk())
	require.True(t, CheckEnvVarAccess(perms, "SECRET").IsErr())
	require.True(t, CheckEnvVarAccess(perms, "RANDOM_VAR").IsErr())
}

func TestEnvVarDenyListWinsOverAllowAll(t *testing.T) {
	t.Parallel()

	perms := None()
	perms.Environment = fn.Some(EnvironmentPermissions{
		DenyList:     []string{"SECRET"},
		AllowListAll: true,
	})

	require.True(t, CheckEnvVarAccess(perms, "SECRET").IsErr())
	require.True(t, CheckEnvVarAccess(perms, "ANYTHING_ELSE").IsOk())
}

func TestRandomBytesBoundedByMaxBytesPerCall(t *testing.T) {
	t.Parallel()

	perms := None()
	perms.Random = fn.Some(RandomPermissions{MaxBytesPerCall: 32})

	require.True(t, CheckRandomOperation(perms, 32).IsOk())
	require.True(t, CheckRandomOperation(perms, 33).IsErr())
}

// TestRandomZeroBytesAlwaysAllowed covers the boundary behavior from spec
// §8: get-random-bytes(0) is always a valid request.
func TestRandomZeroBytesAlwaysAllowed(t *testing.T) {
	t.Parallel()

	perms := None()
	perms.Random = fn.Some(RandomPermissions{MaxBytesPerCall: 0})

	require.True(t, CheckRandomOperation(perms, 0).IsOk())
}

func TestTimingBoundedBySleepMax(t *testing.T) {
	t.Parallel()

	perms := None()
	perms.Timing = fn.Some(TimingPermissions{
		MaxSleepDuration: 1000,
	})

	require.True(t, CheckTimingOperation(perms, 500).IsOk())
	require.True(t, CheckTimingOperation(perms, 1500).IsErr())
}

func TestProcessConcurrencyLimit(t *testing.T) {
	t.Parallel()

	perms := None()
	perms.Process = fn.Some(ProcessPermissions{
		AllowedProgramPaths:    []string{"/usr/bin/ls"},
		MaxConcurrentProcesses: 2,
	})

	require.True(t, CheckProcessOperation(perms, "/usr/bin/ls", 1).IsOk())
	require.True(t, CheckProcessOperation(perms, "/usr/bin/ls", 2).IsErr())
	require.True(t, CheckProcessOperation(perms, "/bin/rm", 0).IsErr())
}

// TestIsSubsetOfRejectsEscalation exercises the child-permission-subset
// invariant from spec §3.
func TestIsSubsetOfRejectsEscalation(t *testing.T) {
	t.Parallel()

	parent := permsWithFilesystem(FilesystemPermissions{
		ReadPaths: []string{"/data"},
	})

	narrowerChild := permsWithFilesystem(FilesystemPermissions{
		ReadPaths: []string{"/data/subdir"},
	})
	require.True(t, narrowerChild.IsSubsetOf(parent))

	escalatingChild := permsWithFilesystem(FilesystemPermissions{
		ReadPaths: []string{"/data", "/etc"},
	})
	require.False(t, escalatingChild.IsSubsetOf(parent))

	ungrantedParentHandler := None()
	grantingChild := permsWithFilesystem(FilesystemPermissions{
		ReadPaths: []string{"/data"},
	})
	require.False(t, grantingChild.IsSubsetOf(ungrantedParentHandler))
}

func TestIsSubsetOfNoneIsSubsetOfAnything(t *testing.T) {
	t.Parallel()

	require.True(t, None().IsSubsetOf(None()))
}

// TestIsSubsetOfZeroCeilingMeansUnlimited makes sure the "0 means
// unlimited" convention CheckFilesystemOperation et al. use for ceilings
// like MaxFileSize is honored by IsSubsetOf too: a parent ceiling of 0
// must admit any finite child ceiling, since narrowing an unlimited
// parent is always a valid restriction, never an escalation.
func TestIsSubsetOfZeroCeilingMeansUnlimited(t *testing.T) {
	t.Parallel()

	parent := permsWithFilesystem(FilesystemPermissions{
		ReadPaths:   []string{"/data"},
		MaxFileSize: 0,
	})
	narrowerChild := permsWithFilesystem(FilesystemPermissions{
		ReadPaths:   []string{"/data"},
		MaxFileSize: 1024,
	})
	require.True(t, narrowerChild.IsSubsetOf(parent))

	parentProc := None()
	parentProc.Process = fn.Some(ProcessPermissions{
		AllowedProgramPaths:    []string{"/usr/bin/ls"},
		MaxConcurrentProcesses: 0,
	})
	childProc := None()
	childProc.Process = fn.Some(ProcessPermissions{
		AllowedProgramPaths:    []string{"/usr/bin/ls"},
		MaxConcurrentProcesses: 2,
	})
	require.True(t, childProc.IsSubsetOf(parentProc))

	parentTiming := None()
	parentTiming.Timing = fn.Some(TimingPermissions{MaxSleepDuration: 0})
	childTiming := None()
	childTiming.Timing = fn.Some(TimingPermissions{
		MaxSleepDuration: time.Second,
	})
	require.True(t, childTiming.IsSubsetOf(parentTiming))

	// A finite parent ceiling still rejects an escalating child.
	parentBounded := None()
	parentBounded.Random = fn.Some(RandomPermissions{MaxBytesPerCall: 16})
	childEscalating := None()
	childEscalating.Random = fn.Some(RandomPermissions{MaxBytesPerCall: 32})
	require.False(t, childEscalating.IsSubsetOf(parentBounded))
}
