package artarget

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"
)

// service implements the Service interface
type service struct {
	repo     Repository
	assets   AssetStore
	compiler MarkerCompiler
	logger   *slog.Logger
}

// Option represents a functional option for configuring the service
type Option func(*service)

// WithRepository sets the target repository for the service
func WithRepository(repo Repository) Option {
	return func(s *service) {
		s.repo = repo
	}
}

// WithAssetStore sets the asset store for the service
func WithAssetStore(store AssetStore) Option {
	return func(s *service) {
		s.assets = store
	}
}

// WithCompiler sets the marker compiler. Without one, artifact requests
// report ErrCompilerUnavailable.
func WithCompiler(compiler MarkerCompiler) Option {
	return func(s *service) {
		s.compiler = compiler
	}
}

// WithLogger sets the logger used for best-effort cleanup reporting
func WithLogger(logger *slog.Logger) Option {
	return func(s *service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New creates a new service instance with the given options
func New(options ...Option) (Service, error) {
	s := &service{
		logger: slog.Default(),
	}

	for _, option := range options {
		option(s)
	}

	if s.repo == nil {
		return nil, fmt.Errorf("repository is required")
	}
	if s.assets == nil {
		return nil, fmt.Errorf("asset store is required")
	}

	return s, nil
}

// Target operations

func (s *service) CreateTarget(ctx context.Context, req CreateTargetRequest) (*Target, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidTarget)
	}
	if req.Image == nil || req.Video == nil {
		return nil, fmt.Errorf("%w: both image and video are required", ErrInvalidTarget)
	}

	imageKey, err := s.assets.Store(ctx, AssetKindImage, req.Image.Filename, req.Image.Reader)
	if err != nil {
		return nil, err
	}

	videoKey, err := s.assets.Store(ctx, AssetKindVideo, req.Video.Filename, req.Video.Reader)
	if err != nil {
		s.discardAsset(ctx, imageKey)
		return nil, err
	}

	now := time.Now().UTC()
	target := &Target{
		Name:        name,
		Description: req.Description,
		ImageKey:    imageKey,
		VideoKey:    videoKey,
		Active:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Create(ctx, target); err != nil {
		// No shared transaction with the asset store: roll back the stored
		// files so a failed insert leaves no orphans. Cleanup failures are
		// logged, never allowed to mask the insert error.
		s.discardAsset(ctx, imageKey)
		s.discardAsset(ctx, videoKey)
		return nil, &TargetError{Op: "create", Err: err}
	}

	return target, nil
}

func (s *service) GetTarget(ctx context.Context, id int64) (*Target, error) {
	return s.repo.Get(ctx, id)
}

func (s *service) UpdateTarget(ctx context.Context, id int64, req UpdateTargetRequest) (*Target, error) {
	target, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	// New assets are stored before the record commits; old files are removed
	// only afterwards, so readers never observe a target with a missing file.
	var oldImageKey, oldVideoKey string

	if req.Image != nil {
		key, err := s.assets.Store(ctx, AssetKindImage, req.Image.Filename, req.Image.Reader)
		if err != nil {
			return nil, err
		}
		oldImageKey = target.ImageKey
		target.ImageKey = key
	}

	if req.Video != nil {
		key, err := s.assets.Store(ctx, AssetKindVideo, req.Video.Filename, req.Video.Reader)
		if err != nil {
			if req.Image != nil {
				s.discardAsset(ctx, target.ImageKey)
			}
			return nil, err
		}
		oldVideoKey = target.VideoKey
		target.VideoKey = key
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			s.discardNewAssets(ctx, target, oldImageKey, oldVideoKey)
			return nil, fmt.Errorf("%w: name cannot be empty", ErrInvalidTarget)
		}
		target.Name = name
	}
	if req.Description != nil {
		target.Description = *req.Description
	}
	if req.Active != nil {
		target.Active = *req.Active
	}
	target.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, target); err != nil {
		s.discardNewAssets(ctx, target, oldImageKey, oldVideoKey)
		return nil, &TargetError{TargetID: id, Op: "update", Err: err}
	}

	if oldImageKey != "" {
		s.discardAsset(ctx, oldImageKey)
	}
	if oldVideoKey != "" {
		s.discardAsset(ctx, oldVideoKey)
	}

	return target, nil
}

func (s *service) DeleteTarget(ctx context.Context, id int64) error {
	target, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}

	// File removal is best-effort: a transient orphan is acceptable, a
	// record pointing at deleted files is not, so assets go first only
	// because the record delete below is the last word.
	s.discardAsset(ctx, target.ImageKey)
	s.discardAsset(ctx, target.VideoKey)

	if s.compiler != nil {
		if err := s.compiler.Remove(id); err != nil {
			s.logger.Error("failed to remove target marker", "target_id", id, "err", err)
		}
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return &TargetError{TargetID: id, Op: "delete", Err: err}
	}

	return nil
}

func (s *service) ListActiveTargets(ctx context.Context, order SortOrder) ([]*Target, error) {
	return s.repo.ListActive(ctx, order)
}

func (s *service) ListTargets(ctx context.Context) ([]*Target, error) {
	return s.repo.List(ctx)
}

// Marker compilation

func (s *service) CompileTarget(ctx context.Context, id int64) (string, error) {
	target, err := s.repo.Get(ctx, id)
	if err != nil {
		return "", err
	}
	if s.compiler == nil {
		return "", fmt.Errorf("%w: no compiler configured", ErrCompilerUnavailable)
	}
	return s.compiler.CompileOne(ctx, target)
}

func (s *service) CompiledArtifact(ctx context.Context) (string, error) {
	targets, err := s.repo.ListActive(ctx, SortAsc)
	if err != nil {
		return "", err
	}
	if len(targets) == 0 {
		return "", ErrNoActiveTargets
	}
	if s.compiler == nil {
		return "", fmt.Errorf("%w: no compiler configured", ErrCompilerUnavailable)
	}
	// The artifact is a disposable cache over the active set; it is
	// regenerated per request rather than invalidated.
	return s.compiler.CompileAll(ctx, targets)
}

// Asset access

func (s *service) OpenAsset(ctx context.Context, key string) (io.ReadCloser, error) {
	return s.assets.Open(ctx, key)
}

// Helper methods

func (s *service) discardAsset(ctx context.Context, key string) {
	if err := s.assets.Remove(ctx, key); err != nil {
		s.logger.Error("failed to remove asset", "key", key, "err", err)
	}
}

func (s *service) discardNewAssets(ctx context.Context, target *Target, oldImageKey, oldVideoKey string) {
	if oldImageKey != "" {
		s.discardAsset(ctx, target.ImageKey)
		target.ImageKey = oldImageKey
	}
	if oldVideoKey != "" {
		s.discardAsset(ctx, target.VideoKey)
		target.VideoKey = oldVideoKey
	}
}
