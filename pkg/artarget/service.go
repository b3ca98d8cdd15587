package artarget

import (
	"context"
	"io"
)

// Service defines the target lifecycle operations consumed by the HTTP layer.
type Service interface {
	// Target operations
	CreateTarget(ctx context.Context, req CreateTargetRequest) (*Target, error)
	GetTarget(ctx context.Context, id int64) (*Target, error)
	UpdateTarget(ctx context.Context, id int64, req UpdateTargetRequest) (*Target, error)
	DeleteTarget(ctx context.Context, id int64) error
	ListActiveTargets(ctx context.Context, order SortOrder) ([]*Target, error)
	ListTargets(ctx context.Context) ([]*Target, error)

	// Marker compilation
	CompileTarget(ctx context.Context, id int64) (string, error)
	CompiledArtifact(ctx context.Context) (string, error)

	// Asset access
	OpenAsset(ctx context.Context, key string) (io.ReadCloser, error)
}
