package permission

import (
	"path/filepath"
	"slices"

	"github.com/lightningnetwork/lnd/fn/v2"
)

// IsSubsetOf reports whether every capability granted by child is also
// granted by parent, per spec: "child permissions must be a (non-strict)
// subset of parent permissions; spawn fails with PermissionError otherwise."
// A handler granted to the child but not to the parent at all is always a
// violation; a handler granted to both is compared allow-list by allow-list.
func (child Permissions) IsSubsetOf(parent Permissions) bool {
	return optionSubset(child.Filesystem, parent.Filesystem, filesystemSubset) &&
		optionSubset(child.HTTPClient, parent.HTTPClient, httpClientSubset) &&
		optionSubset(child.Process, parent.Process, processSubset) &&
		optionSubset(child.Environment, parent.Environment, environmentSubset) &&
		optionSubset(child.Random, parent.Random, randomSubset) &&
		optionSubset(child.Timing, parent.Timing, timingSubset)
}

// optionSubset checks that, if childOpt is granted, parentOpt is also
// granted and cmp(child, parent) holds. A child that does not grant the
// handler at all is trivially a subset regardless of the parent.
func optionSubset[T any](childOpt, parentOpt fn.Option[T],
	cmp func(child, parent T) bool,
) bool {
	if childOpt.IsNone() {
		return true
	}
	if parentOpt.IsNone() {
		return false
	}

	var zero T
	return cmp(childOpt.UnwrapOr(zero), parentOpt.UnwrapOr(zero))
}

func stringsSubset(child, parent []string) bool {
	for _, c := range child {
		if !slices.Contains(parent, c) {
			return false
		}
	}
	return true
}

// numericSubset compares a "0 means unlimited" ceiling the same way
// check.go does: a parent of 0 admits any child value, otherwise the
// child must not exceed the parent.
func numericSubset[T int | uint64](child, parent T) bool {
	if parent == 0 {
		return true
	}
	return child <= parent
}

func filesystemSubset(child, parent FilesystemPermissions) bool {
	// A child path root is covered if it equals, or lies beneath, one of
	// the parent's roots.
	pathsWithin := func(paths, roots []string) bool {
		for _, p := range paths {
			if !pathWithinAnyRoot(filepath.Clean(p), roots) {
				return false
			}
		}
		return true
	}

	return pathsWithin(child.ReadPaths, parent.ReadPaths) &&
		pathsWithin(child.WritePaths, parent.WritePaths) &&
		numericSubset(child.MaxFileSize, parent.MaxFileSize)
}

func httpClientSubset(child, parent HTTPClientPermissions) bool {
	return stringsSubset(child.AllowedMethods, parent.AllowedMethods) &&
		stringsSubset(child.AllowedHostPatterns, parent.AllowedHostPatterns)
}

func processSubset(child, parent ProcessPermissions) bool {
	return stringsSubset(child.AllowedProgramPaths, parent.AllowedProgramPaths) &&
		numericSubset(child.MaxConcurrentProcesses, parent.MaxConcurrentProcesses) &&
		numericSubset(child.MaxOutputBytes, parent.MaxOutputBytes)
}

func environmentSubset(child, parent EnvironmentPermissions) bool {
	if parent.AllowListAll {
		// Parent allows everything not denied; child's allow-list and
		// prefixes are automatically covered. Child's deny-list may
		// only narrow further, which is always safe.
		return true
	}
	if child.AllowListAll && !parent.AllowListAll {
		return false
	}

	return stringsSubset(child.AllowList, parent.AllowList) &&
		stringsSubset(child.AllowPrefixes, parent.AllowPrefixes)
}

func randomSubset(child, parent RandomPermissions) bool {
	return numericSubset(child.MaxBytesPerCall, parent.MaxBytesPerCall) &&
		numericSubset(child.MaxU64Ceiling, parent.MaxU64Ceiling)
}

func timingSubset(child, parent TimingPermissions) bool {
	if parent.MaxSleepDuration == 0 {
		return true
	}
	return child.MaxSleepDuration <= parent.MaxSleepDuration
}
