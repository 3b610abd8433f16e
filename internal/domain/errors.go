package domain

import "errors"

var (
	// ErrNotFound is returned when a requested document does not exist.
	ErrNotFound = errors.New("not found")

	// ErrMissingAccount is returned when a scheduled activity has no
	// target account.
	ErrMissingAccount = errors.New("scheduled activity has no target account")

	// ErrMissingActivity is returned when a scheduled activity has no
	// activity payload.
	ErrMissingActivity = errors.New("scheduled activity has no activity payload")

	// ErrInconsistentSnapshot is returned when a stored asset snapshot
	// violates its total invariant. It is never auto-corrected.
	ErrInconsistentSnapshot = errors.New("asset snapshot total does not reconcile")
)
