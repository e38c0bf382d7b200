package workers

import (
	"context"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"pixelfort/api/internal/core/domain"
	"pixelfort/api/internal/core/services"
)

// DomainMonitor periodically sweeps provider-registered hostnames and logs
// the ones that are active in our records but not configured at the provider.
// It never mutates rows; the log line is the audit trail operators act on.
type DomainMonitor struct {
	repo        domain.DomainRepository
	lifecycle   *services.DomainService
	alerts      domain.AlertRepository
	logger      *slog.Logger
	interval    time.Duration
	concurrency int // 🛡️ SLA: Limit concurrent provider calls

	// alerted dedupes persisted alerts across sweeps; one open alert per
	// domain until it recovers.
	alerted sync.Map
}

func NewDomainMonitor(
	repo domain.DomainRepository,
	lifecycle *services.DomainService,
	alerts domain.AlertRepository,
	logger *slog.Logger,
	interval time.Duration,
) *DomainMonitor {
	return &DomainMonitor{
		repo:        repo,
		lifecycle:   lifecycle,
		alerts:      alerts,
		logger:      logger,
		interval:    interval,
		concurrency: 10, // 🛡️ SLA: Max 10 simultaneous checks
	}
}

func (m *DomainMonitor) Start(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.sweep(ctx)
		}
	}
}

func (m *DomainMonitor) sweep(ctx context.Context) {
	domains, err := m.repo.List(ctx)
	if err != nil {
		m.logger.Error("SLA Breach: Failed to list domains", slog.Any("error", err))
		return
	}

	// 🛡️ SLA: Concurrency control via semaphore
	sem := make(chan struct{}, m.concurrency)
	var wg sync.WaitGroup

	for _, d := range domains {
		if d.BypassesProvider() {
			continue
		}

		wg.Add(1)
		go func(d domain.Domain) {
			defer wg.Done()

			// 🛡️ Jitter: Prevent synchronized spikes
			time.Sleep(time.Duration(rand.Intn(2000)) * time.Millisecond)

			sem <- struct{}{}
			defer func() { <-sem }()

			// 🛡️ Per-check Timeout: Don't let one slow lookup hang the sweep
			checkCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
			defer cancel()

			m.checkDomain(checkCtx, d)
		}(d)
	}
	wg.Wait()
}

func (m *DomainMonitor) checkDomain(ctx context.Context, d domain.Domain) {
	status, err := m.lifecycle.CheckStatus(ctx, &d)
	if err != nil {
		m.logger.Warn("Domain status check failed",
			slog.String("domain", d.Name),
			slog.Any("error", err))
		return
	}

	if d.IsActive && !status.Configured {
		m.logger.Warn("Active domain is not configured at the provider",
			slog.String("domain", d.Name),
			slog.String("status", status.Status),
			slog.String("ssl_status", status.SSLStatus))

		if _, seen := m.alerted.LoadOrStore(d.ID, true); seen {
			return
		}

		id := d.ID
		alert := &domain.SystemAlert{
			Severity:   "warning",
			Category:   "domain_provisioning",
			ResourceID: &id,
			Message:    "active domain is not configured at the provider",
			Metadata: map[string]string{
				"domain":     d.Name,
				"status":     status.Status,
				"ssl_status": status.SSLStatus,
			},
		}
		if err := m.alerts.CreateAlert(ctx, alert); err != nil {
			m.logger.Error("Failed to persist alert", slog.Any("error", err))
		}
	} else if status.Configured {
		m.alerted.Delete(d.ID)
		if !d.IsActive {
			m.logger.Info("Pending domain finished provider validation",
				slog.String("domain", d.Name))
		}
	}
}
