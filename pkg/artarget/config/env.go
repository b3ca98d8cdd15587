package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// envSpec binds environment variables to configuration fields.
type envSpec struct {
	Port        string `env:"PORT" env-default:""`
	Environment string `env:"ENVIRONMENT" env-default:""`

	DatabaseURL string `env:"DATABASE_URL" env-default:""`

	UploadDir     string `env:"UPLOAD_DIR" env-default:""`
	MaxAssetBytes int64  `env:"MAX_ASSET_BYTES" env-default:"0"`

	CompilerKind   string        `env:"COMPILER" env-default:""`
	CompilerBinary string        `env:"COMPILER_BINARY" env-default:""`
	CompileTimeout time.Duration `env:"COMPILE_TIMEOUT" env-default:"0s"`

	JWTSecret     string `env:"JWT_SECRET" env-default:""`
	AdminUsername string `env:"ADMIN_USERNAME" env-default:""`
	AdminPassword string `env:"ADMIN_PASSWORD" env-default:""`
}

// WithEnv applies environment variable overrides on top of the current
// configuration. DATABASE_URL selects the database type: empty or "memory"
// keeps the in-memory repository, a postgres:// or postgresql:// URL selects
// postgres.
func WithEnv() Option {
	return func(c *ServerConfig) error {
		var spec envSpec
		if err := cleanenv.ReadEnv(&spec); err != nil {
			return fmt.Errorf("read environment: %w", err)
		}

		if spec.Port != "" {
			c.Port = spec.Port
		}
		if spec.Environment != "" {
			c.Environment = spec.Environment
		}

		if err := applyDatabaseEnv(c, spec.DatabaseURL); err != nil {
			return err
		}

		if spec.UploadDir != "" {
			c.UploadDir = spec.UploadDir
		}
		if spec.MaxAssetBytes > 0 {
			c.MaxAssetBytes = spec.MaxAssetBytes
		}

		if spec.CompilerKind != "" {
			c.CompilerKind = spec.CompilerKind
		}
		if spec.CompilerBinary != "" {
			c.CompilerBinary = spec.CompilerBinary
		}
		if spec.CompileTimeout > 0 {
			c.CompileTimeout = spec.CompileTimeout
		}

		if spec.JWTSecret != "" {
			c.JWTSecret = spec.JWTSecret
		}
		if spec.AdminUsername != "" {
			c.AdminUsername = spec.AdminUsername
		}
		if spec.AdminPassword != "" {
			c.AdminPassword = spec.AdminPassword
		}

		return nil
	}
}

func applyDatabaseEnv(c *ServerConfig, dbURL string) error {
	switch {
	case dbURL == "" || dbURL == "memory":
		// Keep whatever the defaults or earlier options selected.
		return nil
	case strings.HasPrefix(dbURL, "postgres://"), strings.HasPrefix(dbURL, "postgresql://"):
		c.DatabaseType = "postgres"
		c.DatabaseURL = dbURL
		return nil
	default:
		return fmt.Errorf("unsupported DATABASE_URL format: %s (use 'memory' or 'postgresql://...')", dbURL)
	}
}
