package compiler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

var commandContext = exec.CommandContext

// Runner is the capability boundary around the external marker-compilation
// facility. Available distinguishes "not installed" from a compilation
// failure; Compile signals success purely via its error.
type Runner interface {
	Available(ctx context.Context) error
	Compile(ctx context.Context, imagePaths []string, outputPath string) error
}

// RunnerOption configures the CLI runner.
type RunnerOption func(*CLIRunner)

// WithBinary overrides the default binary name.
func WithBinary(binary string) RunnerOption {
	return func(r *CLIRunner) {
		if binary != "" {
			r.binary = binary
		}
	}
}

// CLIRunner wraps the mind-ar command-line compiler.
type CLIRunner struct {
	binary string
}

// NewCLIRunner constructs a CLI runner using defaults.
func NewCLIRunner(opts ...RunnerOption) *CLIRunner {
	runner := &CLIRunner{binary: "mind-ar"}
	for _, opt := range opts {
		opt(runner)
	}
	return runner
}

// Available probes the binary with --version. A missing binary is reported
// with install guidance so callers can surface a clear message.
func (r *CLIRunner) Available(ctx context.Context) error {
	cmd := commandContext(ctx, r.binary, "--version")
	cmd.Stdout = nil
	cmd.Stderr = nil
	if err := cmd.Run(); err != nil {
		var execErr *exec.Error
		if errors.As(err, &execErr) {
			return fmt.Errorf("%s not installed (npm install -g @hiukim/mind-ar-js-compiler): %w", r.binary, err)
		}
		return fmt.Errorf("probe %s: %w", r.binary, err)
	}
	return nil
}

// Compile invokes one batch compilation over all input images.
func (r *CLIRunner) Compile(ctx context.Context, imagePaths []string, outputPath string) error {
	if len(imagePaths) == 0 {
		return errors.New("at least one input image required")
	}
	if outputPath == "" {
		return errors.New("output path required")
	}

	args := []string{"compile"}
	for _, path := range imagePaths {
		args = append(args, "-i", path)
	}
	args = append(args, "-o", outputPath)

	var stderr bytes.Buffer
	cmd := commandContext(ctx, r.binary, args...) //nolint:gosec
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if stderr.Len() > 0 {
			return fmt.Errorf("%s compile failed: %w: %s", r.binary, err, strings.TrimSpace(stderr.String()))
		}
		return fmt.Errorf("%s compile failed: %w", r.binary, err)
	}

	return nil
}

var _ Runner = (*CLIRunner)(nil)

// NoopRunner is a stand-in for environments without the external compiler.
// Instead of extracted image features it writes a JSON manifest of the input
// set, which is enough to exercise the full pipeline in development and tests.
type NoopRunner struct{}

// NewNoopRunner constructs a NoopRunner.
func NewNoopRunner() *NoopRunner {
	return &NoopRunner{}
}

// Available always succeeds.
func (*NoopRunner) Available(ctx context.Context) error {
	return nil
}

// Compile writes the placeholder manifest to outputPath.
func (*NoopRunner) Compile(ctx context.Context, imagePaths []string, outputPath string) error {
	images := make([]string, 0, len(imagePaths))
	for _, path := range imagePaths {
		images = append(images, filepath.Base(path))
	}

	manifest := struct {
		Version     int      `json:"version"`
		Images      []string `json:"images"`
		GeneratedAt int64    `json:"generated_at"`
	}{
		Version:     1,
		Images:      images,
		GeneratedAt: time.Now().UnixMilli(),
	}

	data, err := json.Marshal(manifest)
	if err != nil {
		return err
	}
	return os.WriteFile(outputPath, data, 0644)
}

var _ Runner = (*NoopRunner)(nil)
