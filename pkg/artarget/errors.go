package artarget

import (
	"errors"
	"fmt"
)

// Error types
var (
	// ErrTargetNotFound indicates an operation referenced an unknown target id.
	ErrTargetNotFound = errors.New("target not found")

	// ErrInvalidTarget indicates a create or update request with missing or
	// empty required fields.
	ErrInvalidTarget = errors.New("invalid target")

	// ErrUnsupportedType indicates an upload whose extension is outside the
	// allow-list for its asset kind.
	ErrUnsupportedType = errors.New("unsupported file type")

	// ErrAssetTooLarge indicates an upload exceeding the configured size ceiling.
	ErrAssetTooLarge = errors.New("asset too large")

	// ErrNoActiveTargets indicates compilation was requested with zero active
	// targets. There is nothing to compile; this is not a failure of the
	// compiler.
	ErrNoActiveTargets = errors.New("no active targets")

	// ErrCompilerUnavailable indicates the external marker compiler is not
	// installed or failed. The batch never produces a partial artifact.
	ErrCompilerUnavailable = errors.New("marker compiler unavailable")
)

// TargetError represents an error related to target lifecycle operations
type TargetError struct {
	TargetID int64
	Op       string
	Err      error
}

func (e *TargetError) Error() string {
	return fmt.Sprintf("target operation %s failed for target %d: %v", e.Op, e.TargetID, e.Err)
}

func (e *TargetError) Unwrap() error {
	return e.Err
}

// StorageError represents an error related to asset storage operations
type StorageError struct {
	Key string
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage operation %s failed for key %q: %v", e.Op, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
