package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// SystemAlert is a persisted operational event: a provisioning rollback that
// could not finish, a customer domain that dropped out of configured state.
// Operators resolve alerts through the admin surface once handled.
type SystemAlert struct {
	ID         uuid.UUID         `json:"id" db:"id"`
	Severity   string            `json:"severity" db:"severity"` // "warning" | "critical"
	Category   string            `json:"category" db:"category"` // e.g. "domain_provisioning"
	ResourceID *uuid.UUID        `json:"resource_id,omitempty" db:"resource_id"`
	Message    string            `json:"message" db:"message"`
	IsResolved bool              `json:"is_resolved" db:"is_resolved"`
	Metadata   map[string]string `json:"metadata" db:"metadata"`
	CreatedAt  time.Time         `json:"created_at" db:"created_at"`
}

type AlertFilter struct {
	IsResolved *bool
	Severity   string
	Category   string
	Limit      int
	Offset     int
}

type AlertRepository interface {
	CreateAlert(ctx context.Context, alert *SystemAlert) error
	GetFilteredAlerts(ctx context.Context, filter AlertFilter) ([]SystemAlert, int, error)
	ResolveAlert(ctx context.Context, alertID, resolverID uuid.UUID) error
}
