package services

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"pixelfort/api/internal/core/domain"
)

// DomainAccess decides which domains a tenant may serve from. It is
// re-evaluated on every list and selection call rather than cached:
// certificate issuance and DNS propagation finish on the provider's clock,
// and a stale "configured" answer would let a user select a hostname that
// cannot yet carry traffic.
type DomainAccess struct {
	repo      domain.DomainRepository
	users     domain.UserRepository
	lifecycle *DomainService
	logger    *slog.Logger
}

func NewDomainAccess(repo domain.DomainRepository, users domain.UserRepository, lifecycle *DomainService, logger *slog.Logger) *DomainAccess {
	return &DomainAccess{repo: repo, users: users, lifecycle: lifecycle, logger: logger}
}

// ListSelectable returns every domain the principal may pick as their
// upload domain, enriched with live provider status:
//
//	(a) administrator-managed, active
//	(b) the principal's own, in any provisioning state
//	(c) other tenants' public, approved, active domains - but only the
//	    ones whose provisioning has actually completed
func (a *DomainAccess) ListSelectable(ctx context.Context, principal *domain.UserClaims) ([]domain.DomainView, error) {
	adminManaged, err := a.repo.ListAdminManaged(ctx)
	if err != nil {
		return nil, err
	}

	var owned []domain.Domain
	if principal != nil {
		owned, err = a.repo.ListByOwner(ctx, principal.UserID)
		if err != nil {
			return nil, err
		}
	}

	shared, err := a.repo.ListSharedPublic(ctx)
	if err != nil {
		return nil, err
	}

	seen := make(map[uuid.UUID]bool)
	var views []domain.DomainView

	appendDomain := func(d domain.Domain, dropUnconfigured bool) {
		if seen[d.ID] {
			return
		}
		seen[d.ID] = true

		status, err := a.lifecycle.CheckStatus(ctx, &d)
		if err != nil {
			// A provider hiccup on one candidate must not sink the whole
			// listing. Treat it as not configured.
			a.logger.Warn("Status check failed while listing domains",
				slog.String("domain", d.Name), slog.Any("error", err))
			status = domain.DomainStatus{Status: "unknown", SSLStatus: "unknown"}
		}

		if dropUnconfigured && !status.Configured {
			return
		}
		views = append(views, domain.DomainView{Domain: d, DomainStatus: status})
	}

	for _, d := range adminManaged {
		appendDomain(d, false)
	}
	// Owners keep visibility into their own pending or broken domains.
	for _, d := range owned {
		appendDomain(d, false)
	}
	// Nobody gets to see someone else's half-configured hostname.
	for _, d := range shared {
		if principal != nil && d.OwnedBy(principal.UserID) {
			continue // already covered by (b)
		}
		appendDomain(d, true)
	}

	return views, nil
}

// CanSelect reports whether the principal may serve uploads from the
// domain right now. The provisioning check is live, mirroring exactly what
// SelectDomain will enforce an instant later.
func (a *DomainAccess) CanSelect(ctx context.Context, principal *domain.UserClaims, d *domain.Domain) (bool, error) {
	err := a.checkSelectable(ctx, principal, d)
	switch err {
	case nil:
		return true, nil
	case domain.ErrForbidden, domain.ErrNotConfigured:
		return false, nil
	default:
		return false, err
	}
}

// checkSelectable returns nil, ErrForbidden, ErrNotConfigured, or a
// provider/store fault.
func (a *DomainAccess) checkSelectable(ctx context.Context, principal *domain.UserClaims, d *domain.Domain) error {
	if principal == nil || !d.IsActive {
		return domain.ErrForbidden
	}

	switch d.Kind() {
	case domain.KindInfrastructure:
		// Admin-managed domains are open to every active tenant.
	case domain.KindOwned:
		if !d.OwnedBy(principal.UserID) &&
			!(d.Visibility == domain.VisibilityPublic && d.IsApproved) {
			return domain.ErrForbidden
		}
	}

	if d.BypassesProvider() {
		return nil
	}
	status, err := a.lifecycle.CheckStatus(ctx, d)
	if err != nil {
		return err
	}
	if !status.Configured {
		return domain.ErrNotConfigured
	}
	return nil
}

// SelectDomain writes the principal's upload-domain choice. A nil domainID
// clears the selection, falling back to the system default at serve time.
func (a *DomainAccess) SelectDomain(ctx context.Context, principal *domain.UserClaims, domainID *uuid.UUID) error {
	if domainID == nil {
		return a.users.SetSelectedDomain(ctx, principal.UserID, nil)
	}

	d, err := a.repo.GetByID(ctx, *domainID)
	if err != nil {
		return err
	}

	if err := a.checkSelectable(ctx, principal, d); err != nil {
		return err
	}

	return a.users.SetSelectedDomain(ctx, principal.UserID, domainID)
}

// ServingHost resolves the hostname new uploads should be published under.
// A stored selection that has since become unapproved, deactivated, or
// unprovisioned silently falls back to the system default; the selection
// itself is left untouched.
func (a *DomainAccess) ServingHost(ctx context.Context, principal *domain.UserClaims) (string, error) {
	if principal != nil {
		user, err := a.users.GetByID(ctx, principal.UserID)
		if err != nil {
			return "", err
		}
		if user.DomainID != nil {
			d, err := a.repo.GetByID(ctx, *user.DomainID)
			if err == nil {
				if selErr := a.checkSelectable(ctx, principal, d); selErr == nil {
					return d.Name, nil
				}
				a.logger.Info("Stored domain selection no longer serviceable, using default",
					slog.String("domain", d.Name), slog.String("user_id", principal.UserID.String()))
			}
		}
	}

	def, err := a.repo.GetDefault(ctx)
	if err != nil {
		return "", err
	}
	return def.Name, nil
}
