package chain

import "errors"

// ErrChainCorruption indicates that verify() found a violated chain
// invariant: a broken hash link, a non-empty parent hash on the root event,
// or a payload that no longer hashes to its recorded event hash.
var ErrChainCorruption = errors.New("chain corruption")
