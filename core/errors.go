package core

import "errors"

// Error taxonomy shared by every component. Callers match with errors.Is;
// producers wrap these with context.
var (
	// ErrValidation marks an action request that is incomplete or malformed.
	ErrValidation = errors.New("validation failed")

	// ErrCompletionFailure marks an unreachable or failing AI endpoint.
	ErrCompletionFailure = errors.New("completion failed")

	// ErrUserRejected marks a signing request the user declined.
	ErrUserRejected = errors.New("user rejected the request")

	// ErrExecutionFailure marks a chain submission that failed or reverted.
	ErrExecutionFailure = errors.New("execution failed")

	// ErrStoreFailure marks an unreachable or failing notification store.
	ErrStoreFailure = errors.New("notification store failure")

	// ErrNoSigner is returned when an action needs a wallet and none is connected.
	ErrNoSigner = errors.New("no wallet connected")

	ErrNotFound    = errors.New("not found")
	ErrRateLimited = errors.New("rate limited")
)
