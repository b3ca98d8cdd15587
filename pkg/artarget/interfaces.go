package artarget

import (
	"context"
	"io"
)

// AssetStore defines the interface for uploaded-file storage. All stored
// files live under a single root directory; keys are generated names and
// never contain path separators, so no reference can escape the root.
type AssetStore interface {
	// Store persists the upload under a newly generated collision-free name
	// and returns its key. It fails with ErrUnsupportedType when the
	// extension is outside the allow-list for kind, and with
	// ErrAssetTooLarge when the payload exceeds the configured ceiling.
	Store(ctx context.Context, kind AssetKind, filename string, r io.Reader) (string, error)

	// Remove deletes the underlying file. A missing file is not an error;
	// cleanup callers must be able to retry safely.
	Remove(ctx context.Context, key string) error

	// Resolve returns the absolute on-disk path for a key. It does not
	// check existence; it rejects keys that are not bare generated names.
	Resolve(key string) (string, error)

	// Open returns a reader over the stored bytes.
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// Repository defines the interface for target persistence.
type Repository interface {
	// Create inserts the target and assigns its id. Ids are never reused
	// after deletion.
	Create(ctx context.Context, target *Target) error
	Get(ctx context.Context, id int64) (*Target, error)
	Update(ctx context.Context, target *Target) error
	Delete(ctx context.Context, id int64) error
	// ListActive returns targets with the active flag set, ordered by
	// creation time. Ascending ordering feeds compilation; descending
	// feeds the admin/public listing.
	ListActive(ctx context.Context, order SortOrder) ([]*Target, error)
	// List returns all targets regardless of the active flag, newest first.
	List(ctx context.Context) ([]*Target, error)
}

// MarkerCompiler transforms target images into compiled recognition
// artifacts consumable by the AR front-end.
type MarkerCompiler interface {
	// CompileAll produces the single combined artifact for the given
	// targets, overwriting the previous one, and returns its path. An empty
	// set yields ErrNoActiveTargets; any per-target failure or a missing
	// external facility yields ErrCompilerUnavailable for the whole batch.
	CompileAll(ctx context.Context, targets []*Target) (string, error)

	// CompileOne produces the per-target artifact, same error taxonomy.
	CompileOne(ctx context.Context, target *Target) (string, error)

	// Remove deletes the per-target artifact; a missing file is not an error.
	Remove(targetID int64) error
}
