package services

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"pixelfort/api/internal/core/domain"
	"pixelfort/api/internal/telemetry"
)

// MaxDomainsPerUser caps self-service domains per tenant.
const MaxDomainsPerUser = 10

// RFC-1035-ish: labels of letters/digits/hyphens, no leading or trailing
// hyphen, at least two labels, TLD alphabetic.
var domainNamePattern = regexp.MustCompile(
	`^([a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?\.)+[a-z]{2,63}$`)

// EdgeChecker is the DNS preflight seam. Nil disables the preflight.
type EdgeChecker interface {
	PointsAtEdge(ctx context.Context, name string) (bool, error)
}

// DomainService is the domain lifecycle orchestrator: the only writer of
// provisioning-derived state. Creating a domain walks three systems that
// share no transaction (provider hostname, provider route, our row), so
// every forward step pairs with an explicit compensation for the steps
// already taken.
type DomainService struct {
	repo     domain.DomainRepository
	users    domain.UserRepository
	provider domain.HostnameProvider
	edge     EdgeChecker
	target   string // routing-rule compute target
	logger   *slog.Logger
}

func NewDomainService(
	repo domain.DomainRepository,
	users domain.UserRepository,
	provider domain.HostnameProvider,
	edge EdgeChecker,
	target string,
	logger *slog.Logger,
) *DomainService {
	return &DomainService{
		repo:     repo,
		users:    users,
		provider: provider,
		edge:     edge,
		target:   target,
		logger:   logger,
	}
}

// CreateDomainInput carries both the tenant self-service shape and the
// administrator shape. Handlers are responsible for zeroing the admin-only
// fields on the tenant path.
type CreateDomainInput struct {
	Name           string
	OwnerID        *uuid.UUID
	Visibility     domain.Visibility
	IsDefault      bool // admin only
	IsWorkerDomain bool // admin only
}

// CreateDomain drives the provisioning saga:
//
//	validate -> register hostname -> create routing rule -> persist row
//
// A routing-rule failure compensates the hostname registration with one
// best-effort delete; its own failure is logged, never surfaced, so the
// original provider error always reaches the caller.
func (s *DomainService) CreateDomain(ctx context.Context, in CreateDomainInput) (*domain.Domain, error) {
	name := strings.ToLower(strings.TrimSpace(in.Name))
	if !domainNamePattern.MatchString(name) {
		telemetry.DomainsProvisioned.WithLabelValues("invalid").Inc()
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidDomain, in.Name)
	}

	// Fail fast and cheap: uniqueness and quota before any provider call.
	if _, err := s.repo.GetByName(ctx, name); err == nil {
		telemetry.DomainsProvisioned.WithLabelValues("exists").Inc()
		return nil, domain.ErrDomainExists
	} else if err != domain.ErrNotFound {
		return nil, err
	}

	if in.OwnerID != nil {
		count, err := s.repo.CountByOwner(ctx, *in.OwnerID)
		if err != nil {
			return nil, err
		}
		if count >= MaxDomainsPerUser {
			telemetry.DomainsProvisioned.WithLabelValues("limit").Inc()
			return nil, domain.ErrDomainLimitExceeded
		}
	}

	// Default and worker domains are routed by infrastructure config and
	// never touch the provider.
	if in.IsDefault || in.IsWorkerDomain {
		return s.createInfrastructureDomain(ctx, name, in)
	}

	if s.edge != nil {
		pointed, err := s.edge.PointsAtEdge(ctx, name)
		if err != nil {
			// A broken resolver must not block provisioning; the provider
			// validation is the authority anyway.
			s.logger.Warn("CNAME preflight failed, continuing",
				slog.String("domain", name), slog.Any("error", err))
		} else if !pointed {
			telemetry.DomainsProvisioned.WithLabelValues("not_pointed").Inc()
			return nil, fmt.Errorf("%w: %s does not point at the serving edge", domain.ErrInvalidDomain, name)
		}
	}

	// Step 1: hostname registration. Nothing to compensate on failure.
	reg, err := s.provider.RegisterHostname(ctx, name)
	if err != nil {
		telemetry.DomainsProvisioned.WithLabelValues("provider_error").Inc()
		return nil, err
	}

	// Step 2: routing rule. On failure, unwind step 1 exactly once.
	if _, err := s.provider.CreateRoutingRule(ctx, name, s.target); err != nil {
		s.compensateHostname(name, reg.HostnameID)
		telemetry.DomainsProvisioned.WithLabelValues("provider_error").Inc()
		return nil, err
	}

	// Step 3: only now does the domain exist from our point of view.
	d := &domain.Domain{
		Name:               name,
		ProviderHostnameID: &reg.HostnameID,
		IsActive:           true,
		OwnerID:            in.OwnerID,
		Visibility:         in.Visibility,
		// Public domains wait for admin approval before other tenants can
		// select them; private ones have nothing to approve.
		IsApproved: in.Visibility != domain.VisibilityPublic,
	}
	if d.Visibility == "" {
		d.Visibility = domain.VisibilityPrivate
		d.IsApproved = true
	}

	if err := s.repo.Create(ctx, d); err != nil {
		telemetry.DomainsProvisioned.WithLabelValues("store_error").Inc()
		return nil, err
	}

	telemetry.DomainsProvisioned.WithLabelValues("ok").Inc()
	s.logger.Info("Domain provisioned",
		slog.String("domain", name),
		slog.String("hostname_id", reg.HostnameID),
		slog.String("validation_status", reg.Status))
	return d, nil
}

func (s *DomainService) createInfrastructureDomain(ctx context.Context, name string, in CreateDomainInput) (*domain.Domain, error) {
	d := &domain.Domain{
		Name:           name,
		IsWorkerDomain: in.IsWorkerDomain,
		IsActive:       true,
		Visibility:     domain.VisibilityPrivate,
		IsApproved:     true,
	}
	if err := s.repo.Create(ctx, d); err != nil {
		return nil, err
	}

	if in.IsDefault {
		// SetDefault clears the previous holder in the same transaction,
		// re-affirming the single-default invariant.
		if err := s.repo.SetDefault(ctx, d.ID); err != nil {
			return nil, err
		}
		d.IsDefault = true
	}

	telemetry.DomainsProvisioned.WithLabelValues("ok").Inc()
	return d, nil
}

// compensateHostname is the single backward step of the create saga. It is
// deliberately detached from the request context: the caller is already
// returning the original error and a cancelled context must not widen the
// orphan window.
func (s *DomainService) compensateHostname(name, hostnameID string) {
	if err := s.provider.DeleteHostname(context.Background(), hostnameID); err != nil {
		// Accepted leak: the hostname stays registered with the provider
		// with no route and no row. The log line is the audit trail.
		telemetry.CompensationFailures.Inc()
		s.logger.Error("Rollback of hostname registration failed, provider resource orphaned",
			slog.String("domain", name),
			slog.String("hostname_id", hostnameID),
			slog.Any("error", err))
	}
}

// DeleteDomain tears a domain down. External cleanup is best-effort and
// order-independent: each failure is logged and skipped so the row delete
// at the end always runs. Callers never see cleanup failures.
func (s *DomainService) DeleteDomain(ctx context.Context, id uuid.UUID, actor *domain.UserClaims) error {
	d, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if !d.OwnedBy(actor.UserID) && !actor.IsAdmin() {
		return domain.ErrForbidden
	}
	if d.IsDefault {
		return domain.ErrCannotDeleteDefault
	}

	if d.OwnedBy(actor.UserID) {
		// Owner self-service: detach every user still uploading here.
		n, err := s.users.ClearSelectedDomain(ctx, d.ID)
		if err != nil {
			return err
		}
		if n > 0 {
			s.logger.Info("Reset user domain selections before delete",
				slog.String("domain", d.Name), slog.Int64("users", n))
		}
	} else {
		// Admin force-delete only applies to unreferenced domains.
		refs, err := s.users.CountBySelectedDomain(ctx, d.ID)
		if err != nil {
			return err
		}
		if refs > 0 {
			return domain.ErrDomainInUse
		}
	}

	if !d.BypassesProvider() {
		s.cleanupProviderResources(ctx, d)
	}

	return s.repo.Delete(ctx, d.ID)
}

func (s *DomainService) cleanupProviderResources(ctx context.Context, d *domain.Domain) {
	ruleID, err := s.provider.FindRoutingRule(ctx, d.Name)
	switch {
	case err != nil:
		s.logger.Warn("Routing rule lookup failed during teardown",
			slog.String("domain", d.Name), slog.Any("error", err))
	default:
		if err := s.provider.DeleteRoutingRule(ctx, ruleID); err != nil {
			s.logger.Warn("Routing rule delete failed, orphaned",
				slog.String("domain", d.Name), slog.String("rule_id", ruleID), slog.Any("error", err))
		}
	}

	if d.ProviderHostnameID != nil {
		if err := s.provider.DeleteHostname(ctx, *d.ProviderHostnameID); err != nil {
			s.logger.Warn("Hostname delete failed, orphaned",
				slog.String("domain", d.Name),
				slog.String("hostname_id", *d.ProviderHostnameID),
				slog.Any("error", err))
		}
	}
}

// CheckStatus returns the live provisioning view. Default and worker
// domains are infrastructure-guaranteed; everything else is one provider
// round trip, never cached, because status only feeds explicit list and
// refresh actions, not the serving path.
func (s *DomainService) CheckStatus(ctx context.Context, d *domain.Domain) (domain.DomainStatus, error) {
	if d.BypassesProvider() {
		return domain.DomainStatus{Configured: true, Status: "active", SSLStatus: "active"}, nil
	}

	reg, err := s.provider.GetHostnameStatus(ctx, d.Name)
	if err != nil {
		return domain.DomainStatus{}, err
	}

	return domain.DomainStatus{
		Configured: reg.Status == "active" && reg.SSLStatus == "active",
		Status:     reg.Status,
		SSLStatus:  reg.SSLStatus,
	}, nil
}

// SetDefault moves the system-wide default slot onto the given domain.
func (s *DomainService) SetDefault(ctx context.Context, id uuid.UUID) error {
	d, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !d.IsActive {
		return fmt.Errorf("%w: inactive domain cannot become default", domain.ErrNotConfigured)
	}
	return s.repo.SetDefault(ctx, id)
}

// PendingValidation serves the HTTP-01-style responder: given the Host a
// validation probe arrived for, return the token/body pair the provider
// expects us to echo.
func (s *DomainService) PendingValidation(ctx context.Context, host string) (token, body string, err error) {
	d, err := s.repo.GetByName(ctx, strings.ToLower(host))
	if err != nil {
		return "", "", err
	}
	if d.BypassesProvider() {
		return "", "", domain.ErrNotFound
	}

	reg, err := s.provider.GetHostnameStatus(ctx, d.Name)
	if err != nil {
		return "", "", err
	}
	if reg.ValidationToken == "" {
		return "", "", domain.ErrNotFound
	}
	return reg.ValidationToken, reg.ValidationBody, nil
}
