package store

import "errors"

// ErrNotFound indicates a ContentRef or Label has no corresponding entry.
var ErrNotFound = errors.New("not found")

// ErrStoreIo wraps a disk I/O failure encountered while serving a store
// operation, per spec §7 StoreIoError.
var ErrStoreIo = errors.New("store io error")

// ErrStoreCorruption indicates that content read back from disk does not
// hash to the ContentRef that named it, per spec §7 StoreCorruption.
var ErrStoreCorruption = errors.New("store corruption")
