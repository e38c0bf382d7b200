package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"pixelfort/api/internal/core/domain"
)

type UserRepo struct {
	pool *pgxpool.Pool
}

func NewUserRepo(pool *pgxpool.Pool) *UserRepo {
	return &UserRepo{pool: pool}
}

func (r *UserRepo) Create(ctx context.Context, u *domain.User) error {
	u.ID = uuid.New()
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt

	_, err := r.pool.Exec(ctx, `
		INSERT INTO users (id, email, password_hash, rank, is_active, domain_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		u.ID, u.Email, u.PasswordHash, u.Rank, u.IsActive, u.DomainID, u.CreatedAt, u.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *UserRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return r.getOne(ctx, `
		SELECT id, email, password_hash, rank, is_active, domain_id, created_at, updated_at
		FROM users WHERE id = $1`, id)
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getOne(ctx, `
		SELECT id, email, password_hash, rank, is_active, domain_id, created_at, updated_at
		FROM users WHERE email = $1`, email)
}

// SetSelectedDomain writes the user's upload-domain selection. A nil
// domainID clears it, which means "serve from the system default".
func (r *UserRepo) SetSelectedDomain(ctx context.Context, userID uuid.UUID, domainID *uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET domain_id = $2, updated_at = NOW() WHERE id = $1`,
		userID, domainID)
	if err != nil {
		return fmt.Errorf("set selected domain: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ClearSelectedDomain detaches every user from the domain. Runs ahead of
// owner self-service deletes so the row can always go away.
func (r *UserRepo) ClearSelectedDomain(ctx context.Context, domainID uuid.UUID) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET domain_id = NULL, updated_at = NOW() WHERE domain_id = $1`,
		domainID)
	if err != nil {
		return 0, fmt.Errorf("clear selected domain: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *UserRepo) CountBySelectedDomain(ctx context.Context, domainID uuid.UUID) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM users WHERE domain_id = $1`, domainID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count users by domain: %w", err)
	}
	return count, nil
}

func (r *UserRepo) getOne(ctx context.Context, query string, args ...any) (*domain.User, error) {
	var u domain.User
	err := r.pool.QueryRow(ctx, query, args...).Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.Rank, &u.IsActive, &u.DomainID,
		&u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("query user: %w", err)
	}
	return &u, nil
}
