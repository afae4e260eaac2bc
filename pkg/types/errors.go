package types

import "errors"

// Error kinds returned by Engine operations. Operations wrap these with
// fmt.Errorf("...: %w", kind) so callers classify failures with errors.Is
// while the message carries the specifics.
var (
	// ErrNotFound marks a reference to an entity that does not exist.
	ErrNotFound = errors.New("not found")

	// ErrForbidden marks a caller lacking membership or role for the
	// operation.
	ErrForbidden = errors.New("forbidden")

	// ErrInvalidArgument marks malformed or out-of-domain input.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrConflict marks an operation that would violate a structural rule:
	// a WIP limit, the single-default-board rule, a duplicate edge, or a
	// dependency cycle.
	ErrConflict = errors.New("conflict")
)

// Engine lifecycle errors.
var (
	ErrAlreadyAttached = errors.New("engine is already attached")
	ErrEngineDetached  = errors.New("engine is not attached")
)
