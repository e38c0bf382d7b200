package services_test

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"pixelfort/api/internal/core/domain"
)

// ------------------------------------------------------------------------
// In-memory domain repository
// ------------------------------------------------------------------------

type fakeDomainRepo struct {
	mu      sync.Mutex
	domains map[uuid.UUID]*domain.Domain
}

func newFakeDomainRepo() *fakeDomainRepo {
	return &fakeDomainRepo{domains: make(map[uuid.UUID]*domain.Domain)}
}

func (r *fakeDomainRepo) Create(_ context.Context, d *domain.Domain) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.domains {
		if existing.Name == d.Name {
			return domain.ErrDomainExists
		}
	}
	d.ID = uuid.New()
	cp := *d
	r.domains[d.ID] = &cp
	return nil
}

func (r *fakeDomainRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Domain, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if d, ok := r.domains[id]; ok {
		cp := *d
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (r *fakeDomainRepo) GetByName(_ context.Context, name string) (*domain.Domain, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range r.domains {
		if d.Name == name {
			cp := *d
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *fakeDomainRepo) GetDefault(_ context.Context) (*domain.Domain, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range r.domains {
		if d.IsDefault {
			cp := *d
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *fakeDomainRepo) List(_ context.Context) ([]domain.Domain, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Domain
	for _, d := range r.domains {
		out = append(out, *d)
	}
	return out, nil
}

func (r *fakeDomainRepo) ListAdminManaged(_ context.Context) ([]domain.Domain, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Domain
	for _, d := range r.domains {
		if d.OwnerID == nil && d.IsActive {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (r *fakeDomainRepo) ListByOwner(_ context.Context, ownerID uuid.UUID) ([]domain.Domain, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Domain
	for _, d := range r.domains {
		if d.OwnedBy(ownerID) {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (r *fakeDomainRepo) ListSharedPublic(_ context.Context) ([]domain.Domain, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Domain
	for _, d := range r.domains {
		if d.OwnerID != nil && d.Visibility == domain.VisibilityPublic && d.IsApproved && d.IsActive {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (r *fakeDomainRepo) CountByOwner(_ context.Context, ownerID uuid.UUID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, d := range r.domains {
		if d.OwnedBy(ownerID) {
			count++
		}
	}
	return count, nil
}

func (r *fakeDomainRepo) SetDefault(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	target, ok := r.domains[id]
	if !ok {
		return domain.ErrNotFound
	}
	for _, d := range r.domains {
		d.IsDefault = false
	}
	target.IsDefault = true
	return nil
}

func (r *fakeDomainRepo) UpdateFlags(_ context.Context, id uuid.UUID, patch domain.DomainPatch) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.domains[id]
	if !ok {
		return domain.ErrNotFound
	}
	if patch.IsActive != nil {
		d.IsActive = *patch.IsActive
	}
	if patch.IsApproved != nil {
		d.IsApproved = *patch.IsApproved
	}
	return nil
}

func (r *fakeDomainRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.domains[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.domains, id)
	return nil
}

func (r *fakeDomainRepo) defaultCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, d := range r.domains {
		if d.IsDefault {
			count++
		}
	}
	return count
}

// ------------------------------------------------------------------------
// In-memory user repository
// ------------------------------------------------------------------------

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]*domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uuid.UUID]*domain.User)}
}

func (r *fakeUserRepo) add(u *domain.User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	r.users[u.ID] = u
}

func (r *fakeUserRepo) Create(_ context.Context, u *domain.User) error {
	r.add(u)
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *fakeUserRepo) SetSelectedDomain(_ context.Context, userID uuid.UUID, domainID *uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return domain.ErrNotFound
	}
	u.DomainID = domainID
	return nil
}

func (r *fakeUserRepo) ClearSelectedDomain(_ context.Context, domainID uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, u := range r.users {
		if u.DomainID != nil && *u.DomainID == domainID {
			u.DomainID = nil
			n++
		}
	}
	return n, nil
}

func (r *fakeUserRepo) CountBySelectedDomain(_ context.Context, domainID uuid.UUID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, u := range r.users {
		if u.DomainID != nil && *u.DomainID == domainID {
			count++
		}
	}
	return count, nil
}

// ------------------------------------------------------------------------
// Scriptable provider fake
// ------------------------------------------------------------------------

type providerState struct {
	hostnameID string
	status     string
	sslStatus  string
	token      string
	body       string
}

type fakeProvider struct {
	mu        sync.Mutex
	hostnames map[string]*providerState // by domain name
	routes    map[string]string         // rule id -> pattern

	failRegister       error
	failRoute          error
	failDeleteHostname error

	registerCalls       int
	routeCalls          int
	deleteHostnameCalls int
	statusCalls         int
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		hostnames: make(map[string]*providerState),
		routes:    make(map[string]string),
	}
}

func (p *fakeProvider) RegisterHostname(_ context.Context, name string) (*domain.HostnameRegistration, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.registerCalls++
	if p.failRegister != nil {
		return nil, p.failRegister
	}
	st := &providerState{
		hostnameID: "ch-" + uuid.NewString()[:8],
		status:     "pending",
		sslStatus:  "pending_validation",
		token:      "tok-" + name,
		body:       "body-" + name,
	}
	p.hostnames[name] = st
	return p.toReg(st), nil
}

func (p *fakeProvider) GetHostnameStatus(_ context.Context, name string) (*domain.HostnameRegistration, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.statusCalls++
	st, ok := p.hostnames[name]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return p.toReg(st), nil
}

func (p *fakeProvider) DeleteHostname(_ context.Context, hostnameID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.deleteHostnameCalls++
	if p.failDeleteHostname != nil {
		return p.failDeleteHostname
	}
	for name, st := range p.hostnames {
		if st.hostnameID == hostnameID {
			delete(p.hostnames, name)
			return nil
		}
	}
	return &domain.ProviderError{Op: "delete_hostname", Message: "hostname not found"}
}

func (p *fakeProvider) CreateRoutingRule(_ context.Context, name, _ string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.routeCalls++
	if p.failRoute != nil {
		return "", p.failRoute
	}
	id := "route-" + uuid.NewString()[:8]
	p.routes[id] = name + "/*"
	return id, nil
}

func (p *fakeProvider) FindRoutingRule(_ context.Context, name string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for id, pattern := range p.routes {
		if pattern == name+"/*" {
			return id, nil
		}
	}
	return "", domain.ErrNotFound
}

func (p *fakeProvider) DeleteRoutingRule(_ context.Context, ruleID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.routes[ruleID]; !ok {
		return &domain.ProviderError{Op: "delete_routing_rule", Message: "route not found"}
	}
	delete(p.routes, ruleID)
	return nil
}

// activate flips the provider-side state to fully validated and issued.
func (p *fakeProvider) activate(name string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if st, ok := p.hostnames[name]; ok {
		st.status = "active"
		st.sslStatus = "active"
		st.token = ""
		st.body = ""
	}
}

func (p *fakeProvider) toReg(st *providerState) *domain.HostnameRegistration {
	return &domain.HostnameRegistration{
		HostnameID:      st.hostnameID,
		Status:          st.status,
		SSLStatus:       st.sslStatus,
		ValidationToken: st.token,
		ValidationBody:  st.body,
	}
}
