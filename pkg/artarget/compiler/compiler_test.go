package compiler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reelsight/ar-target/pkg/artarget"
	fsstorage "github.com/reelsight/ar-target/pkg/artarget/storage/fs"
)

// recordingRunner captures compile invocations for assertions.
type recordingRunner struct {
	availableErr error
	compileErr   error
	inputs       [][]string
	outputs      []string
}

func (r *recordingRunner) Available(ctx context.Context) error {
	return r.availableErr
}

func (r *recordingRunner) Compile(ctx context.Context, imagePaths []string, outputPath string) error {
	r.inputs = append(r.inputs, append([]string(nil), imagePaths...))
	r.outputs = append(r.outputs, outputPath)
	if r.compileErr != nil {
		return r.compileErr
	}
	return os.WriteFile(outputPath, []byte("artifact"), 0644)
}

type compilerEnv struct {
	compiler *Compiler
	runner   *recordingRunner
	store    *fsstorage.Store
}

func setupCompiler(t *testing.T) *compilerEnv {
	t.Helper()

	store, err := fsstorage.New(fsstorage.Config{RootDir: t.TempDir()})
	require.NoError(t, err)

	runner := &recordingRunner{}
	c, err := New(runner, store, filepath.Join(t.TempDir(), "markers"))
	require.NoError(t, err)

	return &compilerEnv{compiler: c, runner: runner, store: store}
}

func (e *compilerEnv) storeImage(t *testing.T, content string) string {
	t.Helper()
	key, err := e.store.Store(context.Background(), artarget.AssetKindImage, "photo.png", strings.NewReader(content))
	require.NoError(t, err)
	return key
}

func TestCompiler_CompileAll(t *testing.T) {
	ctx := context.Background()

	t.Run("compiles all images in the given order", func(t *testing.T) {
		env := setupCompiler(t)
		targets := []*artarget.Target{
			{ID: 1, ImageKey: env.storeImage(t, "first")},
			{ID: 2, ImageKey: env.storeImage(t, "second")},
		}

		path, err := env.compiler.CompileAll(ctx, targets)
		require.NoError(t, err)
		assert.Equal(t, env.compiler.ArtifactPath(), path)
		assert.Equal(t, CombinedArtifactName, filepath.Base(path))

		require.Len(t, env.runner.inputs, 1)
		require.Len(t, env.runner.inputs[0], 2)
		firstPath, err := env.store.Resolve(targets[0].ImageKey)
		require.NoError(t, err)
		assert.Equal(t, firstPath, env.runner.inputs[0][0])

		_, err = os.Stat(path)
		assert.NoError(t, err)
	})

	t.Run("empty target set", func(t *testing.T) {
		env := setupCompiler(t)
		_, err := env.compiler.CompileAll(ctx, nil)
		assert.ErrorIs(t, err, artarget.ErrNoActiveTargets)
		assert.Empty(t, env.runner.inputs)
	})

	t.Run("unavailable runner fails the whole batch", func(t *testing.T) {
		env := setupCompiler(t)
		env.runner.availableErr = errors.New("binary missing")

		targets := []*artarget.Target{{ID: 1, ImageKey: env.storeImage(t, "x")}}
		_, err := env.compiler.CompileAll(ctx, targets)
		assert.ErrorIs(t, err, artarget.ErrCompilerUnavailable)
		assert.Empty(t, env.runner.inputs)
	})

	t.Run("one missing image fails the whole batch", func(t *testing.T) {
		env := setupCompiler(t)
		targets := []*artarget.Target{
			{ID: 1, ImageKey: env.storeImage(t, "present")},
			{ID: 2, ImageKey: "00000000-0000-0000-0000-000000000000.png"},
		}

		_, err := env.compiler.CompileAll(ctx, targets)
		assert.ErrorIs(t, err, artarget.ErrCompilerUnavailable)
		assert.Empty(t, env.runner.inputs, "no partial artifact may be produced")
	})

	t.Run("runner failure leaves the previous artifact alone", func(t *testing.T) {
		env := setupCompiler(t)
		targets := []*artarget.Target{{ID: 1, ImageKey: env.storeImage(t, "x")}}

		_, err := env.compiler.CompileAll(ctx, targets)
		require.NoError(t, err)

		env.runner.compileErr = errors.New("boom")
		_, err = env.compiler.CompileAll(ctx, targets)
		assert.ErrorIs(t, err, artarget.ErrCompilerUnavailable)

		data, err := os.ReadFile(env.compiler.ArtifactPath())
		require.NoError(t, err)
		assert.Equal(t, "artifact", string(data))
	})
}

func TestCompiler_CompileOne(t *testing.T) {
	ctx := context.Background()
	env := setupCompiler(t)

	target := &artarget.Target{ID: 7, ImageKey: env.storeImage(t, "x")}
	path, err := env.compiler.CompileOne(ctx, target)
	require.NoError(t, err)
	assert.Equal(t, "target_7.mind", filepath.Base(path))

	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestCompiler_Remove(t *testing.T) {
	ctx := context.Background()
	env := setupCompiler(t)

	target := &artarget.Target{ID: 3, ImageKey: env.storeImage(t, "x")}
	path, err := env.compiler.CompileOne(ctx, target)
	require.NoError(t, err)

	require.NoError(t, env.compiler.Remove(3))
	_, err = os.Stat(path)
	assert.ErrorIs(t, err, os.ErrNotExist)

	// Removing again is not an error.
	assert.NoError(t, env.compiler.Remove(3))
}

func TestNoopRunner(t *testing.T) {
	ctx := context.Background()
	runner := NewNoopRunner()

	assert.NoError(t, runner.Available(ctx))

	out := filepath.Join(t.TempDir(), "targets.mind")
	require.NoError(t, runner.Compile(ctx, []string{"/uploads/a.png", "/uploads/b.jpg"}, out))

	data, err := os.ReadFile(out)
	require.NoError(t, err)

	var manifest struct {
		Version int      `json:"version"`
		Images  []string `json:"images"`
	}
	require.NoError(t, json.Unmarshal(data, &manifest))
	assert.Equal(t, 1, manifest.Version)
	assert.Equal(t, []string{"a.png", "b.jpg"}, manifest.Images)
}

func setHelperCommand(t *testing.T, mode string, capture *[]string) {
	t.Helper()
	original := commandContext
	commandContext = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		if capture != nil {
			*capture = append([]string(nil), args...)
		}
		cmd := exec.CommandContext(ctx, os.Args[0], "-test.run=TestHelperProcess")
		cmd.Env = append(os.Environ(), "GO_WANT_HELPER_PROCESS=1", fmt.Sprintf("MINDAR_HELPER_MODE=%s", mode))
		return cmd
	}
	t.Cleanup(func() {
		commandContext = original
	})
}

func TestCLIRunnerCompileArgs(t *testing.T) {
	var captured []string
	setHelperCommand(t, "success", &captured)

	runner := NewCLIRunner()
	err := runner.Compile(context.Background(), []string{"/up/a.png", "/up/b.png"}, "/up/markers/targets.mind")
	require.NoError(t, err)

	assert.Equal(t, []string{
		"compile",
		"-i", "/up/a.png",
		"-i", "/up/b.png",
		"-o", "/up/markers/targets.mind",
	}, captured)
}

func TestCLIRunnerCompileValidation(t *testing.T) {
	runner := NewCLIRunner()

	err := runner.Compile(context.Background(), nil, "/tmp/out.mind")
	assert.Error(t, err)

	err = runner.Compile(context.Background(), []string{"/tmp/a.png"}, "")
	assert.Error(t, err)
}

func TestCLIRunnerCompileFailureIncludesStderr(t *testing.T) {
	setHelperCommand(t, "fail", nil)

	runner := NewCLIRunner()
	err := runner.Compile(context.Background(), []string{"/up/a.png"}, "/up/out.mind")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unable to extract features")
}

func TestCLIRunnerAvailable(t *testing.T) {
	t.Run("binary responds to version probe", func(t *testing.T) {
		var captured []string
		setHelperCommand(t, "success", &captured)

		runner := NewCLIRunner()
		require.NoError(t, runner.Available(context.Background()))
		assert.Equal(t, []string{"--version"}, captured)
	})

	t.Run("missing binary reports install guidance", func(t *testing.T) {
		runner := NewCLIRunner(WithBinary("definitely-not-installed-mind-ar"))
		err := runner.Available(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not installed")
	})
}

func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}

	switch os.Getenv("MINDAR_HELPER_MODE") {
	case "success":
		os.Exit(0)
	case "fail":
		fmt.Fprintln(os.Stderr, "unable to extract features")
		os.Exit(1)
	}
	os.Exit(0)
}
