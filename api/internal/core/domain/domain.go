package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Domain represents a hostname that images can be served from.
// Exactly one row system-wide carries IsDefault = true.
type Domain struct {
	ID uuid.UUID `json:"id" db:"id"`

	// Name is the fully-qualified hostname, stored lower-cased and
	// globally unique.
	Name string `json:"name" db:"name"`

	// ProviderHostnameID is the handle the DNS/TLS provider returned on
	// registration. Nil for default/worker domains, which are routed by
	// infrastructure outside this system and never touch the provider.
	ProviderHostnameID *string `json:"provider_hostname_id,omitempty" db:"provider_hostname_id"`

	IsDefault      bool `json:"is_default" db:"is_default"`
	IsWorkerDomain bool `json:"is_worker_domain" db:"is_worker_domain"`

	// IsActive gates every selection and serving path. Inactive rows are
	// kept for audit history.
	IsActive bool `json:"is_active" db:"is_active"`

	// OwnerID is nil for administrator-managed domains available to everyone.
	OwnerID *uuid.UUID `json:"owner_id,omitempty" db:"owner_id"`

	// Visibility is only meaningful for owned domains.
	Visibility Visibility `json:"visibility" db:"visibility"`

	// IsApproved gates sharing a public domain with other tenants.
	IsApproved bool `json:"is_approved" db:"is_approved"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type Visibility string

const (
	VisibilityPrivate Visibility = "private"
	VisibilityPublic  Visibility = "public"
)

// DomainKind collapses the flag soup into the two shapes the authorization
// rules actually branch on.
type DomainKind int

const (
	// KindInfrastructure: administrator-managed, no owner. Available to every
	// active tenant subject to IsActive.
	KindInfrastructure DomainKind = iota

	// KindOwned: self-service tenant domain, subject to visibility and
	// approval rules.
	KindOwned
)

func (d *Domain) Kind() DomainKind {
	if d.OwnerID == nil {
		return KindInfrastructure
	}
	return KindOwned
}

// BypassesProvider reports whether this hostname is routed entirely by
// infrastructure configuration, meaning registration, status checks and
// teardown must all skip the provider.
func (d *Domain) BypassesProvider() bool {
	return d.IsDefault || d.IsWorkerDomain
}

// OwnedBy is a nil-safe ownership check.
func (d *Domain) OwnedBy(userID uuid.UUID) bool {
	return d.OwnerID != nil && *d.OwnerID == userID
}

// DomainStatus is the live provisioning view of a domain, derived from the
// provider on every read. It is never persisted.
type DomainStatus struct {
	Configured bool   `json:"configured"`
	Status     string `json:"status"`
	SSLStatus  string `json:"ssl_status"`
}

// DomainView is the list/selection projection: the stored row enriched with
// live provider status.
type DomainView struct {
	Domain
	DomainStatus
}

// DomainRepository defines the persistence contract for domain rows.
type DomainRepository interface {
	Create(ctx context.Context, d *Domain) error
	GetByID(ctx context.Context, id uuid.UUID) (*Domain, error)
	GetByName(ctx context.Context, name string) (*Domain, error)
	List(ctx context.Context) ([]Domain, error)

	// ListAdminManaged returns active rows with no owner.
	ListAdminManaged(ctx context.Context) ([]Domain, error)

	// ListByOwner returns every row owned by the user, regardless of
	// provisioning state, so owners keep visibility into pending domains.
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]Domain, error)

	// ListSharedPublic returns active, approved public rows.
	ListSharedPublic(ctx context.Context) ([]Domain, error)

	CountByOwner(ctx context.Context, ownerID uuid.UUID) (int, error)

	// SetDefault moves the single default slot to the given row inside one
	// transaction. Readers must never observe zero or two defaults.
	SetDefault(ctx context.Context, id uuid.UUID) error

	// GetDefault returns the current default row.
	GetDefault(ctx context.Context) (*Domain, error)

	UpdateFlags(ctx context.Context, id uuid.UUID, patch DomainPatch) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// DomainPatch is the administrator-mutable slice of a domain row. Nil fields
// are left untouched.
type DomainPatch struct {
	IsActive   *bool `json:"is_active,omitempty"`
	IsApproved *bool `json:"is_approved,omitempty"`
}

// HostnameRegistration is the normalized provider answer for a hostname,
// both at registration time and on status lookups.
type HostnameRegistration struct {
	HostnameID string
	Status     string // hostname validation status, "active" when verified
	SSLStatus  string // certificate status, "active" once issued

	// HTTP validation challenge the provider expects us to serve at the
	// well-known path. Empty once validation has completed.
	ValidationToken string
	ValidationBody  string
}

// HostnameProvider is the narrow seam in front of the external DNS/TLS
// provider. Provider-side rejections surface as *ProviderError; anything
// else is a transport fault.
type HostnameProvider interface {
	RegisterHostname(ctx context.Context, name string) (*HostnameRegistration, error)
	GetHostnameStatus(ctx context.Context, name string) (*HostnameRegistration, error)
	DeleteHostname(ctx context.Context, hostnameID string) error

	// CreateRoutingRule binds a wildcard path pattern under name to the
	// compute target and returns the rule id.
	CreateRoutingRule(ctx context.Context, name, targetService string) (string, error)
	FindRoutingRule(ctx context.Context, name string) (string, error)
	DeleteRoutingRule(ctx context.Context, ruleID string) error
}
