package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/reelsight/ar-target/pkg/artarget"
)

// DBTX is an interface that allows us to use either a database connection or a transaction
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// Repository implements artarget.Repository using PostgreSQL
type Repository struct {
	db DBTX
}

// New creates a new PostgreSQL repository
func New(db DBTX) *Repository {
	return &Repository{db: db}
}

// NewWithPool creates a new PostgreSQL repository with connection pool
func NewWithPool(pool *pgxpool.Pool) *Repository {
	return &Repository{db: pool}
}

// Migrate creates the ar_targets table if it does not exist. Ids come from a
// bigserial sequence, which never hands out a value twice.
func (r *Repository) Migrate(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS ar_targets (
			id BIGSERIAL PRIMARY KEY,
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			image_key TEXT NOT NULL,
			video_key TEXT NOT NULL,
			is_active BOOLEAN NOT NULL DEFAULT true,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)`

	if _, err := r.db.Exec(ctx, query); err != nil {
		return fmt.Errorf("migrate ar_targets: %w", err)
	}
	return nil
}

func (r *Repository) Create(ctx context.Context, target *artarget.Target) error {
	if target.Name == "" {
		return fmt.Errorf("%w: name is required", artarget.ErrInvalidTarget)
	}
	if target.ImageKey == "" || target.VideoKey == "" {
		return fmt.Errorf("%w: image and video keys are required", artarget.ErrInvalidTarget)
	}

	query := `
		INSERT INTO ar_targets (name, description, image_key, video_key, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`

	err := r.db.QueryRow(ctx, query,
		target.Name, target.Description, target.ImageKey, target.VideoKey,
		target.Active, target.CreatedAt, target.UpdatedAt).Scan(&target.ID)
	if err != nil {
		return r.handlePostgresError("create target", err)
	}

	return nil
}

func (r *Repository) Get(ctx context.Context, id int64) (*artarget.Target, error) {
	query := `
		SELECT id, name, description, image_key, video_key, is_active, created_at, updated_at
		FROM ar_targets WHERE id = $1`

	var target artarget.Target
	err := r.db.QueryRow(ctx, query, id).Scan(
		&target.ID, &target.Name, &target.Description, &target.ImageKey,
		&target.VideoKey, &target.Active, &target.CreatedAt, &target.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, artarget.ErrTargetNotFound
		}
		return nil, r.handlePostgresError("get target", err)
	}

	return &target, nil
}

func (r *Repository) Update(ctx context.Context, target *artarget.Target) error {
	query := `
		UPDATE ar_targets SET
			name = $2, description = $3, image_key = $4, video_key = $5,
			is_active = $6, updated_at = $7
		WHERE id = $1`

	tag, err := r.db.Exec(ctx, query,
		target.ID, target.Name, target.Description, target.ImageKey,
		target.VideoKey, target.Active, target.UpdatedAt)
	if err != nil {
		return r.handlePostgresError("update target", err)
	}
	if tag.RowsAffected() == 0 {
		return artarget.ErrTargetNotFound
	}

	return nil
}

func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM ar_targets WHERE id = $1`, id)
	if err != nil {
		return r.handlePostgresError("delete target", err)
	}
	if tag.RowsAffected() == 0 {
		return artarget.ErrTargetNotFound
	}
	return nil
}

func (r *Repository) ListActive(ctx context.Context, order artarget.SortOrder) ([]*artarget.Target, error) {
	direction := "ASC"
	if order == artarget.SortDesc {
		direction = "DESC"
	}

	query := fmt.Sprintf(`
		SELECT id, name, description, image_key, video_key, is_active, created_at, updated_at
		FROM ar_targets WHERE is_active = true
		ORDER BY created_at %s, id %s`, direction, direction)

	return r.queryTargets(ctx, query)
}

func (r *Repository) List(ctx context.Context) ([]*artarget.Target, error) {
	query := `
		SELECT id, name, description, image_key, video_key, is_active, created_at, updated_at
		FROM ar_targets
		ORDER BY created_at DESC, id DESC`

	return r.queryTargets(ctx, query)
}

func (r *Repository) queryTargets(ctx context.Context, query string, args ...interface{}) ([]*artarget.Target, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, r.handlePostgresError("list targets", err)
	}
	defer rows.Close()

	var targets []*artarget.Target
	for rows.Next() {
		var target artarget.Target
		if err := rows.Scan(
			&target.ID, &target.Name, &target.Description, &target.ImageKey,
			&target.VideoKey, &target.Active, &target.CreatedAt, &target.UpdatedAt); err != nil {
			return nil, err
		}
		targets = append(targets, &target)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return targets, nil
}

// Error handling helper
func (r *Repository) handlePostgresError(operation string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23502": // not_null_violation
			return fmt.Errorf("%w: required field %s is missing", artarget.ErrInvalidTarget, pgErr.ColumnName)
		case "42P01": // undefined_table
			return fmt.Errorf("table does not exist - database migration required")
		default:
			return fmt.Errorf("database error in %s: %s (code: %s)", operation, pgErr.Message, pgErr.Code)
		}
	}

	return fmt.Errorf("database error in %s: %w", operation, err)
}

var _ artarget.Repository = (*Repository)(nil)
