package store

import "errors"

// Error kinds from spec.md §7. Callers use errors.Is against these sentinels.
var (
	// ErrStoreUnavailable: cannot open or create the persistent store.
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrStoreCorrupt: schema mismatch or broken invariants.
	ErrStoreCorrupt = errors.New("store corrupt or schema mismatch")
	// ErrEmptyIndex: query issued against an uninitialized store.
	ErrEmptyIndex = errors.New("index is empty")
)
