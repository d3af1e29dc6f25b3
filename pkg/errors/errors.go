package errors

import "errors"

var (
	// ErrOptimisticLock the row changed underneath a versioned update.
	ErrOptimisticLock = errors.New("record was modified by another operation, refresh and retry")

	// ErrStaleState a conditional status update matched no row.
	ErrStaleState = errors.New("record is no longer in the expected state")

	// ErrLockNotAcquired another instance holds the distributed lock.
	ErrLockNotAcquired = errors.New("resource is locked by another operation")
)
