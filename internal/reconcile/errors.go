package reconcile

import "errors"

var (
	// ErrAccountNotFound aborts the whole reconcile call (404 at the API).
	ErrAccountNotFound = errors.New("account not found")

	// ErrDuplicateRecord is returned by a store when an insert hits the
	// unique index on the external reference. A concurrent reconcile got
	// there first; the record exists, so callers skip instead of failing.
	ErrDuplicateRecord = errors.New("record already exists")
)
