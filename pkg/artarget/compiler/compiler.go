// Package compiler produces MindAR-style recognition artifacts from target
// images by driving an external compilation process.
package compiler

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/reelsight/ar-target/pkg/artarget"
)

// CombinedArtifactName is the fixed name of the combined artifact. Each
// compilation overwrites it; callers always read the latest.
const CombinedArtifactName = "targets.mind"

// DefaultTimeout bounds a single external compilation run.
const DefaultTimeout = 2 * time.Minute

// Compiler implements artarget.MarkerCompiler on top of a Runner. Artifacts
// live in their own directory; input images are read from the asset store.
type Compiler struct {
	runner  Runner
	assets  artarget.AssetStore
	dir     string
	timeout time.Duration
}

// Option configures the Compiler.
type Option func(*Compiler)

// WithTimeout overrides the per-run compilation timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Compiler) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// New creates a Compiler writing artifacts under dir, creating it if needed.
func New(runner Runner, assets artarget.AssetStore, dir string, opts ...Option) (*Compiler, error) {
	if runner == nil {
		return nil, errors.New("runner is required")
	}
	if assets == nil {
		return nil, errors.New("asset store is required")
	}
	if dir == "" {
		return nil, errors.New("artifact directory is required")
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve artifact directory: %w", err)
	}
	if err := os.MkdirAll(abs, 0755); err != nil {
		return nil, fmt.Errorf("failed to create artifact directory: %w", err)
	}

	c := &Compiler{
		runner:  runner,
		assets:  assets,
		dir:     abs,
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// CompileAll produces the combined artifact for the given targets.
//
// The batch fails as a whole: a consumer of a partial artifact could not
// tell "target not enrolled" from "target failed to compile", so any missing
// image or runner failure yields ErrCompilerUnavailable and the previous
// artifact, if any, is left untouched.
func (c *Compiler) CompileAll(ctx context.Context, targets []*artarget.Target) (string, error) {
	if len(targets) == 0 {
		return "", artarget.ErrNoActiveTargets
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.runner.Available(ctx); err != nil {
		return "", fmt.Errorf("%w: %v", artarget.ErrCompilerUnavailable, err)
	}

	imagePaths := make([]string, 0, len(targets))
	for _, target := range targets {
		path, err := c.imagePath(target)
		if err != nil {
			return "", err
		}
		imagePaths = append(imagePaths, path)
	}

	outputPath := filepath.Join(c.dir, CombinedArtifactName)
	if err := c.runner.Compile(ctx, imagePaths, outputPath); err != nil {
		return "", fmt.Errorf("%w: %v", artarget.ErrCompilerUnavailable, err)
	}

	return outputPath, nil
}

// CompileOne produces the per-target artifact.
func (c *Compiler) CompileOne(ctx context.Context, target *artarget.Target) (string, error) {
	if target == nil {
		return "", artarget.ErrNoActiveTargets
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.runner.Available(ctx); err != nil {
		return "", fmt.Errorf("%w: %v", artarget.ErrCompilerUnavailable, err)
	}

	imagePath, err := c.imagePath(target)
	if err != nil {
		return "", err
	}

	outputPath := c.targetArtifactPath(target.ID)
	if err := c.runner.Compile(ctx, []string{imagePath}, outputPath); err != nil {
		return "", fmt.Errorf("%w: %v", artarget.ErrCompilerUnavailable, err)
	}

	return outputPath, nil
}

// Remove deletes the per-target artifact; a missing file is not an error.
func (c *Compiler) Remove(targetID int64) error {
	err := os.Remove(c.targetArtifactPath(targetID))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// ArtifactPath reports where the combined artifact is written.
func (c *Compiler) ArtifactPath() string {
	return filepath.Join(c.dir, CombinedArtifactName)
}

func (c *Compiler) targetArtifactPath(targetID int64) string {
	return filepath.Join(c.dir, fmt.Sprintf("target_%d.mind", targetID))
}

func (c *Compiler) imagePath(target *artarget.Target) (string, error) {
	path, err := c.assets.Resolve(target.ImageKey)
	if err != nil {
		return "", fmt.Errorf("%w: resolve image for target %d: %v", artarget.ErrCompilerUnavailable, target.ID, err)
	}
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("%w: image for target %d: %v", artarget.ErrCompilerUnavailable, target.ID, err)
	}
	return path, nil
}

var _ artarget.MarkerCompiler = (*Compiler)(nil)
