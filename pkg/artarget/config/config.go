// Package config assembles an artarget.Service from declarative settings.
package config

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/reelsight/ar-target/pkg/artarget"
	"github.com/reelsight/ar-target/pkg/artarget/compiler"
	"github.com/reelsight/ar-target/pkg/artarget/repo/memory"
	repopg "github.com/reelsight/ar-target/pkg/artarget/repo/postgres"
	fsstorage "github.com/reelsight/ar-target/pkg/artarget/storage/fs"
)

// Option applies configuration to a ServerConfig instance.
type Option func(*ServerConfig) error

// Load constructs a ServerConfig by applying the supplied options on top of
// library defaults.
func Load(opts ...Option) (*ServerConfig, error) {
	cfg := defaults()

	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func defaults() ServerConfig {
	return ServerConfig{
		Port:           "8080",
		Environment:    "development",
		DatabaseType:   "memory",
		UploadDir:      "./data/uploads",
		MaxAssetBytes:  fsstorage.DefaultMaxBytes,
		CompilerKind:   "cli",
		CompilerBinary: "mind-ar",
		CompileTimeout: compiler.DefaultTimeout,
		JWTSecret:      "",
		AdminUsername:  "admin",
	}
}

// ServerConfig represents server configuration for the AR target service
type ServerConfig struct {
	Port        string
	Environment string // development, production, testing

	// Database configuration
	DatabaseURL  string
	DatabaseType string // "memory", "postgres"

	// Asset storage configuration. Markers are written to a subtree of the
	// upload directory, mirroring the layout the AR front-end expects.
	UploadDir     string
	MaxAssetBytes int64

	// Marker compiler configuration
	CompilerKind   string // "cli", "stub", "none"
	CompilerBinary string
	CompileTimeout time.Duration

	// Admin authentication
	JWTSecret     string
	AdminUsername string
	AdminPassword string
}

// MarkersDir is the directory compiled artifacts are written to.
func (c *ServerConfig) MarkersDir() string {
	return filepath.Join(c.UploadDir, "markers")
}

// Validate validates the server configuration
func (c *ServerConfig) Validate() error {
	if c.Port == "" {
		return errors.New("port is required")
	}

	if c.DatabaseType != "memory" && c.DatabaseType != "postgres" {
		return errors.New("database_type must be 'memory' or 'postgres'")
	}
	if c.DatabaseType == "postgres" && c.DatabaseURL == "" {
		return errors.New("database_url is required when using postgres")
	}

	if c.UploadDir == "" {
		return errors.New("upload directory is required")
	}

	switch c.CompilerKind {
	case "cli", "stub", "none":
	default:
		return fmt.Errorf("unsupported compiler kind: %s", c.CompilerKind)
	}

	return nil
}

// BuildService creates a Service instance from the server configuration
func (c *ServerConfig) BuildService(ctx context.Context) (artarget.Service, error) {
	repo, err := c.buildRepository(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to build repository: %w", err)
	}

	store, err := fsstorage.New(fsstorage.Config{
		RootDir:  c.UploadDir,
		MaxBytes: c.MaxAssetBytes,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build asset store: %w", err)
	}

	options := []artarget.Option{
		artarget.WithRepository(repo),
		artarget.WithAssetStore(store),
	}

	markerCompiler, err := c.buildCompiler(store)
	if err != nil {
		return nil, fmt.Errorf("failed to build compiler: %w", err)
	}
	if markerCompiler != nil {
		options = append(options, artarget.WithCompiler(markerCompiler))
	}

	return artarget.New(options...)
}

// buildRepository creates a Repository based on the configuration
func (c *ServerConfig) buildRepository(ctx context.Context) (artarget.Repository, error) {
	switch c.DatabaseType {
	case "memory":
		return memory.New(), nil
	case "postgres":
		pool, err := pgxpool.New(ctx, c.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to create pgx pool: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			return nil, fmt.Errorf("database ping failed: %w", err)
		}
		repo := repopg.NewWithPool(pool)
		if err := repo.Migrate(ctx); err != nil {
			return nil, err
		}
		return repo, nil
	default:
		return nil, fmt.Errorf("unsupported database type: %s", c.DatabaseType)
	}
}

// buildCompiler creates a MarkerCompiler based on the configuration
func (c *ServerConfig) buildCompiler(store artarget.AssetStore) (artarget.MarkerCompiler, error) {
	var runner compiler.Runner
	switch c.CompilerKind {
	case "none":
		return nil, nil
	case "stub":
		runner = compiler.NewNoopRunner()
	case "cli":
		runner = compiler.NewCLIRunner(compiler.WithBinary(c.CompilerBinary))
	default:
		return nil, fmt.Errorf("unsupported compiler kind: %s", c.CompilerKind)
	}

	return compiler.New(runner, store, c.MarkersDir(),
		compiler.WithTimeout(c.CompileTimeout))
}
