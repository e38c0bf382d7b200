package services_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pixelfort/api/internal/core/domain"
	"pixelfort/api/internal/core/services"
)

type accessFixture struct {
	*fixture
	access *services.DomainAccess
}

func newAccessFixture(t *testing.T) *accessFixture {
	t.Helper()
	f := newFixture(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return &accessFixture{
		fixture: f,
		access:  services.NewDomainAccess(f.repo, f.users, f.svc, logger),
	}
}

func (f *accessFixture) createOwned(t *testing.T, name string, owner uuid.UUID, vis domain.Visibility) *domain.Domain {
	t.Helper()
	d, err := f.svc.CreateDomain(context.Background(), services.CreateDomainInput{
		Name: name, OwnerID: &owner, Visibility: vis,
	})
	require.NoError(t, err)
	return d
}

func (f *accessFixture) createDefault(t *testing.T, name string) *domain.Domain {
	t.Helper()
	d, err := f.svc.CreateDomain(context.Background(), services.CreateDomainInput{
		Name: name, IsDefault: true,
	})
	require.NoError(t, err)
	return d
}

func names(views []domain.DomainView) []string {
	var out []string
	for _, v := range views {
		out = append(out, v.Name)
	}
	return out
}

// Scenario A: a fresh public domain is visible to its owner but not to
// anyone else while unapproved.
func TestListSelectable_UnapprovedPublicOnlyVisibleToOwner(t *testing.T) {
	f := newAccessFixture(t)
	f.createDefault(t, "cdn.pixelfort.dev")

	owner := uuid.New()
	f.createOwned(t, "img.example.com", owner, domain.VisibilityPublic)

	ownViews, err := f.access.ListSelectable(context.Background(), ownerClaims(owner))
	require.NoError(t, err)
	assert.Contains(t, names(ownViews), "img.example.com",
		"owners see their own domains in any state")

	otherViews, err := f.access.ListSelectable(context.Background(), ownerClaims(uuid.New()))
	require.NoError(t, err)
	assert.NotContains(t, names(otherViews), "img.example.com")
	assert.Contains(t, names(otherViews), "cdn.pixelfort.dev",
		"the admin default is selectable by everyone")
}

// Scenario B: approval plus completed provisioning exposes the domain to
// other tenants.
func TestListSelectable_ApprovedAndConfiguredSharedDomain(t *testing.T) {
	f := newAccessFixture(t)
	f.createDefault(t, "cdn.pixelfort.dev")

	owner := uuid.New()
	d := f.createOwned(t, "img.example.com", owner, domain.VisibilityPublic)

	approved := true
	require.NoError(t, f.repo.UpdateFlags(context.Background(), d.ID, domain.DomainPatch{IsApproved: &approved}))

	// Approved but still pending validation: stays hidden from strangers.
	other := ownerClaims(uuid.New())
	views, err := f.access.ListSelectable(context.Background(), other)
	require.NoError(t, err)
	assert.NotContains(t, names(views), "img.example.com")

	f.provider.activate("img.example.com")

	views, err = f.access.ListSelectable(context.Background(), other)
	require.NoError(t, err)
	assert.Contains(t, names(views), "img.example.com")
}

func TestListSelectable_OwnerSeesPendingWithLiveStatus(t *testing.T) {
	f := newAccessFixture(t)
	owner := uuid.New()
	f.createOwned(t, "img.example.com", owner, domain.VisibilityPrivate)

	views, err := f.access.ListSelectable(context.Background(), ownerClaims(owner))
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.False(t, views[0].Configured)
	assert.Equal(t, "pending", views[0].Status)
	assert.Equal(t, "pending_validation", views[0].SSLStatus)
}

func TestListSelectable_NoDuplicateForOwnPublicDomain(t *testing.T) {
	f := newAccessFixture(t)
	owner := uuid.New()
	d := f.createOwned(t, "img.example.com", owner, domain.VisibilityPublic)

	approved := true
	require.NoError(t, f.repo.UpdateFlags(context.Background(), d.ID, domain.DomainPatch{IsApproved: &approved}))
	f.provider.activate("img.example.com")

	views, err := f.access.ListSelectable(context.Background(), ownerClaims(owner))
	require.NoError(t, err)
	assert.Len(t, views, 1)
}

// Invariant: SelectDomain succeeds exactly when CanSelect says true at the
// same instant.
func TestSelectDomain_AgreesWithCanSelect(t *testing.T) {
	f := newAccessFixture(t)
	owner := uuid.New()
	stranger := ownerClaims(uuid.New())
	f.users.add(&domain.User{ID: stranger.UserID, Email: "s@example.com"})

	ownerPrincipal := ownerClaims(owner)
	f.users.add(&domain.User{ID: owner, Email: "o@example.com"})

	d := f.createOwned(t, "img.example.com", owner, domain.VisibilityPublic)

	cases := []struct {
		name      string
		principal *domain.UserClaims
		mutate    func()
		wantErr   error
	}{
		{
			name:      "owner, pending provisioning",
			principal: ownerPrincipal,
			wantErr:   domain.ErrNotConfigured,
		},
		{
			name:      "owner, configured",
			principal: ownerPrincipal,
			mutate:    func() { f.provider.activate("img.example.com") },
			wantErr:   nil,
		},
		{
			name:      "stranger, unapproved public",
			principal: stranger,
			wantErr:   domain.ErrForbidden,
		},
		{
			name:      "stranger, approved public",
			principal: stranger,
			mutate: func() {
				approved := true
				_ = f.repo.UpdateFlags(context.Background(), d.ID, domain.DomainPatch{IsApproved: &approved})
			},
			wantErr: nil,
		},
		{
			name:      "stranger, deactivated",
			principal: stranger,
			mutate: func() {
				inactive := false
				_ = f.repo.UpdateFlags(context.Background(), d.ID, domain.DomainPatch{IsActive: &inactive})
			},
			wantErr: domain.ErrForbidden,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if tc.mutate != nil {
				tc.mutate()
			}

			row, err := f.repo.GetByID(context.Background(), d.ID)
			require.NoError(t, err)

			can, err := f.access.CanSelect(context.Background(), tc.principal, row)
			require.NoError(t, err)

			selectErr := f.access.SelectDomain(context.Background(), tc.principal, &d.ID)
			if tc.wantErr == nil {
				assert.True(t, can)
				assert.NoError(t, selectErr)
			} else {
				assert.False(t, can)
				assert.ErrorIs(t, selectErr, tc.wantErr)
			}
		})
	}
}

func TestSelectDomain_NilClearsSelection(t *testing.T) {
	f := newAccessFixture(t)
	owner := uuid.New()
	principal := ownerClaims(owner)
	f.users.add(&domain.User{ID: owner, Email: "o@example.com"})

	d := f.createOwned(t, "img.example.com", owner, domain.VisibilityPrivate)
	f.provider.activate("img.example.com")

	require.NoError(t, f.access.SelectDomain(context.Background(), principal, &d.ID))
	u, _ := f.users.GetByID(context.Background(), owner)
	require.NotNil(t, u.DomainID)

	require.NoError(t, f.access.SelectDomain(context.Background(), principal, nil))
	u, _ = f.users.GetByID(context.Background(), owner)
	assert.Nil(t, u.DomainID)
}

func TestSelectDomain_UnknownDomain(t *testing.T) {
	f := newAccessFixture(t)
	owner := uuid.New()
	f.users.add(&domain.User{ID: owner, Email: "o@example.com"})

	ghost := uuid.New()
	err := f.access.SelectDomain(context.Background(), ownerClaims(owner), &ghost)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// The stored selection survives a later unapproval, but serving falls back
// to the system default.
func TestServingHost_FallsBackWhenSelectionGoesStale(t *testing.T) {
	f := newAccessFixture(t)
	f.createDefault(t, "cdn.pixelfort.dev")

	owner := uuid.New()
	principal := ownerClaims(owner)
	f.users.add(&domain.User{ID: owner, Email: "o@example.com"})

	d := f.createOwned(t, "img.example.com", owner, domain.VisibilityPrivate)
	f.provider.activate("img.example.com")
	require.NoError(t, f.access.SelectDomain(context.Background(), principal, &d.ID))

	host, err := f.access.ServingHost(context.Background(), principal)
	require.NoError(t, err)
	assert.Equal(t, "img.example.com", host)

	inactive := false
	require.NoError(t, f.repo.UpdateFlags(context.Background(), d.ID, domain.DomainPatch{IsActive: &inactive}))

	host, err = f.access.ServingHost(context.Background(), principal)
	require.NoError(t, err)
	assert.Equal(t, "cdn.pixelfort.dev", host)

	// The selection itself is untouched.
	u, _ := f.users.GetByID(context.Background(), owner)
	require.NotNil(t, u.DomainID)
	assert.Equal(t, d.ID, *u.DomainID)
}

func TestServingHost_AnonymousGetsDefault(t *testing.T) {
	f := newAccessFixture(t)
	f.createDefault(t, "cdn.pixelfort.dev")

	host, err := f.access.ServingHost(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "cdn.pixelfort.dev", host)
}
