package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"pixelfort/api/internal/core/domain"
)

// ImageRepository rides on sqlx: image rows are flat and map 1:1 onto the
// struct tags, so named queries beat hand-written scans here.
type ImageRepository struct {
	db *sqlx.DB
}

func NewImageRepository(db *sqlx.DB) *ImageRepository {
	return &ImageRepository{db: db}
}

func (r *ImageRepository) Create(ctx context.Context, img *domain.Image) error {
	img.ID = uuid.New()
	img.CreatedAt = time.Now()

	query := `
		INSERT INTO images (id, owner_id, storage_key, file_name, content_type, size_bytes, serve_host, created_at)
		VALUES (:id, :owner_id, :storage_key, :file_name, :content_type, :size_bytes, :serve_host, :created_at)
	`
	if _, err := r.db.NamedExecContext(ctx, query, img); err != nil {
		return fmt.Errorf("insert image: %w", err)
	}
	return nil
}

func (r *ImageRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Image, error) {
	var img domain.Image
	err := r.db.GetContext(ctx, &img, `SELECT * FROM images WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("query image: %w", err)
	}
	return &img, nil
}

func (r *ImageRepository) GetByKey(ctx context.Context, key string) (*domain.Image, error) {
	var img domain.Image
	err := r.db.GetContext(ctx, &img, `SELECT * FROM images WHERE storage_key = $1`, key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("query image: %w", err)
	}
	return &img, nil
}

func (r *ImageRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]domain.Image, error) {
	var images []domain.Image
	err := r.db.SelectContext(ctx, &images,
		`SELECT * FROM images WHERE owner_id = $1 ORDER BY created_at DESC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list images: %w", err)
	}
	return images, nil
}

func (r *ImageRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM images WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete image: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
