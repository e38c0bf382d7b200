package workers

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pixelfort/api/internal/core/domain"
	"pixelfort/api/internal/core/services"
)

type stubProvider struct {
	domain.HostnameProvider
	status domain.HostnameRegistration
}

func (p *stubProvider) GetHostnameStatus(ctx context.Context, name string) (*domain.HostnameRegistration, error) {
	s := p.status
	return &s, nil
}

type recordingAlerts struct {
	domain.AlertRepository
	created []domain.SystemAlert
}

func (r *recordingAlerts) CreateAlert(ctx context.Context, alert *domain.SystemAlert) error {
	r.created = append(r.created, *alert)
	return nil
}

func newMonitorFixture(provider domain.HostnameProvider) (*DomainMonitor, *recordingAlerts) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	lifecycle := services.NewDomainService(nil, nil, provider, nil, "pixelfort-edge", logger)
	alerts := &recordingAlerts{}
	m := NewDomainMonitor(nil, lifecycle, alerts, logger, time.Minute)
	return m, alerts
}

func TestCheckDomain_ActiveButUnconfigured_PersistsOneAlert(t *testing.T) {
	provider := &stubProvider{status: domain.HostnameRegistration{Status: "pending", SSLStatus: "pending_validation"}}
	m, alerts := newMonitorFixture(provider)

	d := domain.Domain{ID: uuid.New(), Name: "img.example.com", IsActive: true}

	m.checkDomain(context.Background(), d)
	m.checkDomain(context.Background(), d)

	// Dedup: one open alert per domain, no matter how many sweeps see it.
	require.Len(t, alerts.created, 1)
	alert := alerts.created[0]
	assert.Equal(t, "warning", alert.Severity)
	assert.Equal(t, "domain_provisioning", alert.Category)
	assert.Equal(t, d.ID, *alert.ResourceID)
	assert.Equal(t, "img.example.com", alert.Metadata["domain"])
}

func TestCheckDomain_RecoveryRearmsAlerting(t *testing.T) {
	provider := &stubProvider{status: domain.HostnameRegistration{Status: "pending", SSLStatus: "pending_validation"}}
	m, alerts := newMonitorFixture(provider)

	d := domain.Domain{ID: uuid.New(), Name: "img.example.com", IsActive: true}

	m.checkDomain(context.Background(), d)
	require.Len(t, alerts.created, 1)

	// Domain recovers, then regresses again: a fresh alert should fire.
	provider.status = domain.HostnameRegistration{Status: "active", SSLStatus: "active"}
	m.checkDomain(context.Background(), d)

	provider.status = domain.HostnameRegistration{Status: "pending", SSLStatus: "pending_validation"}
	m.checkDomain(context.Background(), d)

	assert.Len(t, alerts.created, 2)
}

func TestCheckDomain_ConfiguredDomain_NoAlert(t *testing.T) {
	provider := &stubProvider{status: domain.HostnameRegistration{Status: "active", SSLStatus: "active"}}
	m, alerts := newMonitorFixture(provider)

	d := domain.Domain{ID: uuid.New(), Name: "img.example.com", IsActive: true}
	m.checkDomain(context.Background(), d)

	assert.Empty(t, alerts.created)
}
