package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type contextKey string

// UserContextKey carries the verified claims through the request context.
const UserContextKey contextKey = "pixelfort_user"

// User is the tenant slice this service cares about. Profile data and
// quota accounting live in their own tables.
type User struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Rank         string    `json:"rank" db:"rank"` // "admin" or "user"
	IsActive     bool      `json:"is_active" db:"is_active"`

	// DomainID is the domain the user selected for new uploads. Nil means
	// "use the system default". The reference is validated at selection
	// time only; a later approval or activation change does not clear it,
	// serving falls back to the default instead.
	DomainID *uuid.UUID `json:"domain_id,omitempty" db:"domain_id"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

func (u *User) IsAdmin() bool { return u.Rank == "admin" }

// UserClaims is the verified JWT payload attached to the request context.
type UserClaims struct {
	UserID uuid.UUID
	Email  string
	Rank   string
}

func (c *UserClaims) IsAdmin() bool { return c.Rank == "admin" }

type UserRepository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)

	// SetSelectedDomain writes users.domain_id; nil clears the selection.
	SetSelectedDomain(ctx context.Context, userID uuid.UUID, domainID *uuid.UUID) error

	// ClearSelectedDomain resets domain_id to NULL for every user pointing
	// at the given domain and returns how many rows were touched.
	ClearSelectedDomain(ctx context.Context, domainID uuid.UUID) (int64, error)

	// CountBySelectedDomain reports how many users currently point at the
	// domain, used to guard admin force-deletes.
	CountBySelectedDomain(ctx context.Context, domainID uuid.UUID) (int, error)
}
