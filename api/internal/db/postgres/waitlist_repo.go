package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type WaitlistEntry struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Email     string    `json:"email" db:"email"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type WaitlistRepository struct {
	db *sqlx.DB
}

func NewWaitlistRepository(db *sqlx.DB) *WaitlistRepository {
	return &WaitlistRepository{db: db}
}

// Add records a signup. Duplicate emails are a no-op: the form is public
// and people double-submit.
func (r *WaitlistRepository) Add(ctx context.Context, email string) error {
	entry := WaitlistEntry{
		ID:        uuid.New(),
		Email:     strings.ToLower(strings.TrimSpace(email)),
		CreatedAt: time.Now(),
	}

	query := `
		INSERT INTO waitlist (id, email, created_at)
		VALUES (:id, :email, :created_at)
		ON CONFLICT (email) DO NOTHING
	`
	if _, err := r.db.NamedExecContext(ctx, query, entry); err != nil {
		return fmt.Errorf("insert waitlist entry: %w", err)
	}
	return nil
}

func (r *WaitlistRepository) List(ctx context.Context) ([]WaitlistEntry, error) {
	var entries []WaitlistEntry
	err := r.db.SelectContext(ctx, &entries,
		`SELECT * FROM waitlist ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("list waitlist: %w", err)
	}
	return entries, nil
}
