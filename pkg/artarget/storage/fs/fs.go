package fs

import (
	"context"
	"errors"
	"fmt"
	"io"
	iofs "io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/reelsight/ar-target/pkg/artarget"
)

// DefaultMaxBytes is the upload size ceiling applied when none is configured.
const DefaultMaxBytes = 50 << 20 // 50 MiB

var allowedExtensions = map[artarget.AssetKind]map[string]bool{
	artarget.AssetKindImage: {".jpg": true, ".jpeg": true, ".png": true},
	artarget.AssetKindVideo: {".mp4": true, ".webm": true, ".mov": true},
}

// Store is a filesystem implementation of the artarget.AssetStore interface.
// Every file lives directly under the root directory with a generated name,
// so keys never carry caller-controlled path components.
type Store struct {
	rootDir  string
	maxBytes int64
}

// Config options for the filesystem store
type Config struct {
	RootDir  string // Root directory for uploaded files
	MaxBytes int64  // Upload size ceiling; DefaultMaxBytes when zero
}

// New creates a new filesystem asset store, creating the root directory if
// it does not exist.
func New(config Config) (*Store, error) {
	if config.RootDir == "" {
		return nil, errors.New("root directory is required")
	}

	root, err := filepath.Abs(config.RootDir)
	if err != nil {
		return nil, fmt.Errorf("resolve root directory: %w", err)
	}
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create root directory: %w", err)
	}

	maxBytes := config.MaxBytes
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}

	return &Store{rootDir: root, maxBytes: maxBytes}, nil
}

// Store persists the upload under a generated uuid-based name.
func (s *Store) Store(ctx context.Context, kind artarget.AssetKind, filename string, r io.Reader) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedExtensions[kind][ext] {
		return "", fmt.Errorf("%w: %q is not an allowed %s extension", artarget.ErrUnsupportedType, ext, kind)
	}

	key := uuid.New().String() + ext
	path := filepath.Join(s.rootDir, key)

	file, err := os.Create(path)
	if err != nil {
		return "", &artarget.StorageError{Key: key, Op: "store", Err: err}
	}

	// One extra byte past the ceiling is enough to detect oversize input
	// without buffering the whole payload.
	n, err := io.Copy(file, io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		file.Close()
		os.Remove(path)
		return "", &artarget.StorageError{Key: key, Op: "store", Err: err}
	}
	if n > s.maxBytes {
		file.Close()
		os.Remove(path)
		return "", fmt.Errorf("%w: payload exceeds %d bytes", artarget.ErrAssetTooLarge, s.maxBytes)
	}

	if err := file.Close(); err != nil {
		os.Remove(path)
		return "", &artarget.StorageError{Key: key, Op: "store", Err: err}
	}

	return key, nil
}

// Remove deletes the underlying file. A file that is already absent is not
// an error; compensating cleanup must be safe to repeat.
func (s *Store) Remove(ctx context.Context, key string) error {
	path, err := s.Resolve(key)
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil && !errors.Is(err, iofs.ErrNotExist) {
		return &artarget.StorageError{Key: key, Op: "remove", Err: err}
	}
	return nil
}

// Resolve returns the absolute path for a key without checking existence.
// Keys with path separators or relative components are rejected outright.
func (s *Store) Resolve(key string) (string, error) {
	if key == "" || key != filepath.Base(key) || key == "." || key == ".." {
		return "", &artarget.StorageError{Key: key, Op: "resolve", Err: errors.New("malformed asset key")}
	}
	return filepath.Join(s.rootDir, key), nil
}

// Open returns a reader over the stored bytes.
func (s *Store) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	path, err := s.Resolve(key)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, &artarget.StorageError{Key: key, Op: "open", Err: err}
	}
	return file, nil
}

// RootDir reports the directory the store was constructed with.
func (s *Store) RootDir() string {
	return s.rootDir
}

var _ artarget.AssetStore = (*Store)(nil)
