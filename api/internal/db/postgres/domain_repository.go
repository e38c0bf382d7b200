package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"pixelfort/api/internal/core/domain"
)

const domainColumns = `id, name, provider_hostname_id, is_default, is_worker_domain, is_active, owner_id, visibility, is_approved, created_at`

type DomainRepository struct {
	pool *pgxpool.Pool
}

func NewDomainRepository(pool *pgxpool.Pool) *DomainRepository {
	return &DomainRepository{pool: pool}
}

// Create persists the domain row. The unique index on name enforces global
// uniqueness even against a racing create that passed the pre-check.
func (r *DomainRepository) Create(ctx context.Context, d *domain.Domain) error {
	d.ID = uuid.New()
	d.CreatedAt = time.Now()

	query := `
		INSERT INTO domains (` + domainColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.pool.Exec(ctx, query,
		d.ID, d.Name, d.ProviderHostnameID, d.IsDefault, d.IsWorkerDomain,
		d.IsActive, d.OwnerID, d.Visibility, d.IsApproved, d.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domain.ErrDomainExists
		}
		return fmt.Errorf("insert domain: %w", err)
	}
	return nil
}

func (r *DomainRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Domain, error) {
	return r.getOne(ctx, `SELECT `+domainColumns+` FROM domains WHERE id = $1`, id)
}

func (r *DomainRepository) GetByName(ctx context.Context, name string) (*domain.Domain, error) {
	return r.getOne(ctx, `SELECT `+domainColumns+` FROM domains WHERE name = $1`, name)
}

func (r *DomainRepository) GetDefault(ctx context.Context) (*domain.Domain, error) {
	return r.getOne(ctx, `SELECT `+domainColumns+` FROM domains WHERE is_default = true`)
}

func (r *DomainRepository) List(ctx context.Context) ([]domain.Domain, error) {
	return r.getMany(ctx, `SELECT `+domainColumns+` FROM domains ORDER BY created_at DESC`)
}

func (r *DomainRepository) ListAdminManaged(ctx context.Context) ([]domain.Domain, error) {
	return r.getMany(ctx, `
		SELECT `+domainColumns+` FROM domains
		WHERE owner_id IS NULL AND is_active = true
		ORDER BY is_default DESC, created_at ASC`)
}

func (r *DomainRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]domain.Domain, error) {
	return r.getMany(ctx, `
		SELECT `+domainColumns+` FROM domains
		WHERE owner_id = $1
		ORDER BY created_at DESC`, ownerID)
}

func (r *DomainRepository) ListSharedPublic(ctx context.Context) ([]domain.Domain, error) {
	return r.getMany(ctx, `
		SELECT `+domainColumns+` FROM domains
		WHERE owner_id IS NOT NULL
		  AND visibility = 'public'
		  AND is_approved = true
		  AND is_active = true
		ORDER BY created_at ASC`)
}

func (r *DomainRepository) CountByOwner(ctx context.Context, ownerID uuid.UUID) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM domains WHERE owner_id = $1`, ownerID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count domains: %w", err)
	}
	return count, nil
}

// SetDefault moves the single default slot inside one transaction so that
// no reader ever observes zero or two default rows.
func (r *DomainRepository) SetDefault(ctx context.Context, id uuid.UUID) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin set-default: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`UPDATE domains SET is_default = false WHERE is_default = true`); err != nil {
		return fmt.Errorf("clear old default: %w", err)
	}

	tag, err := tx.Exec(ctx,
		`UPDATE domains SET is_default = true WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("set new default: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Rollback restores the previous default; the slot never goes empty.
		return domain.ErrNotFound
	}

	return tx.Commit(ctx)
}

func (r *DomainRepository) UpdateFlags(ctx context.Context, id uuid.UUID, patch domain.DomainPatch) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE domains SET
			is_active   = COALESCE($2, is_active),
			is_approved = COALESCE($3, is_approved)
		WHERE id = $1`, id, patch.IsActive, patch.IsApproved)
	if err != nil {
		return fmt.Errorf("patch domain: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *DomainRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM domains WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete domain: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *DomainRepository) getOne(ctx context.Context, query string, args ...any) (*domain.Domain, error) {
	var d domain.Domain
	err := r.pool.QueryRow(ctx, query, args...).Scan(
		&d.ID, &d.Name, &d.ProviderHostnameID, &d.IsDefault, &d.IsWorkerDomain,
		&d.IsActive, &d.OwnerID, &d.Visibility, &d.IsApproved, &d.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("query domain: %w", err)
	}
	return &d, nil
}

func (r *DomainRepository) getMany(ctx context.Context, query string, args ...any) ([]domain.Domain, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query domains: %w", err)
	}
	defer rows.Close()

	var domains []domain.Domain
	for rows.Next() {
		var d domain.Domain
		if err := rows.Scan(
			&d.ID, &d.Name, &d.ProviderHostnameID, &d.IsDefault, &d.IsWorkerDomain,
			&d.IsActive, &d.OwnerID, &d.Visibility, &d.IsApproved, &d.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan domain: %w", err)
		}
		domains = append(domains, d)
	}
	return domains, rows.Err()
}
