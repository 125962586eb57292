package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/meridian-hq/meridian/modules/core/domain/aggregates/user"
	"github.com/meridian-hq/meridian/modules/core/domain/entities/sso"
	"github.com/meridian-hq/meridian/modules/core/infrastructure/persistence"
)

type ssoFixture struct {
	service   *SSOService
	provider  *sso.Provider
	mapping   *sso.Mapping
	user      user.User
	providers *fakeProviderRepo
	mappings  *fakeMappingRepo
	users     *fakeUserRepo
}

func newSSOFixture(t *testing.T) *ssoFixture {
	t.Helper()
	tenantID := uuid.New()
	provider := sso.NewProvider(
		sso.ProviderGoogle,
		sso.WithTenantID(&tenantID),
		sso.WithCredentials("client", "secret"),
	)
	u := user.New("linked@acme.test", user.WithTenantID(tenantID))
	mapping := sso.NewMapping(provider.ID(), u.ID(), "ext-1")

	providers := newFakeProviderRepo(provider)
	mappings := newFakeMappingRepo(mapping)
	users := newFakeUserRepo(u)

	return &ssoFixture{
		service:   NewSSOService(providers, mappings, users, newTestBus(), newTestLogger()),
		provider:  provider,
		mapping:   mapping,
		user:      u,
		providers: providers,
		mappings:  mappings,
		users:     users,
	}
}

func (f *ssoFixture) tenantID() *uuid.UUID {
	return f.provider.TenantID()
}

func TestResolveLinkedIdentity(t *testing.T) {
	f := newSSOFixture(t)

	resolved, err := f.service.Resolve(context.Background(), f.tenantID(), IdentityAssertion{
		ProviderType: sso.ProviderGoogle,
		ExternalID:   "ext-1",
	})
	require.NoError(t, err)
	require.Equal(t, f.user.ID(), resolved.ID())
	require.EqualValues(t, 1, f.mappings.loginCountOf(f.mapping.ID()))
}

func TestResolveUnlinkedIdentity(t *testing.T) {
	f := newSSOFixture(t)

	_, err := f.service.Resolve(context.Background(), f.tenantID(), IdentityAssertion{
		ProviderType: sso.ProviderGoogle,
		ExternalID:   "ext-2",
	})
	require.ErrorIs(t, err, ErrUnlinkedIdentity)
	require.EqualValues(t, 0, f.mappings.loginCountOf(f.mapping.ID()))
}

func TestResolveDisabledProviderFailsClosed(t *testing.T) {
	f := newSSOFixture(t)
	f.provider.SetEnabled(false)

	_, err := f.service.Resolve(context.Background(), f.tenantID(), IdentityAssertion{
		ProviderType: sso.ProviderGoogle,
		ExternalID:   "ext-1",
	})
	require.ErrorIs(t, err, ErrUnlinkedIdentity)
}

func TestResolveStorageFailureSurfacesAsUnlinked(t *testing.T) {
	f := newSSOFixture(t)
	f.mappings.failAll = errors.New("connection reset")

	_, err := f.service.Resolve(context.Background(), f.tenantID(), IdentityAssertion{
		ProviderType: sso.ProviderGoogle,
		ExternalID:   "ext-1",
	})
	require.ErrorIs(t, err, ErrUnlinkedIdentity)
}

func TestLinkNeverRepointsExistingMapping(t *testing.T) {
	f := newSSOFixture(t)
	otherUser := user.New("other@acme.test", user.WithTenantID(*f.tenantID()))

	_, err := f.service.Link(context.Background(), f.provider.ID(), otherUser.ID(), "ext-1", nil)
	require.ErrorIs(t, err, persistence.ErrSSOMappingConflict)

	// The original binding stays intact.
	m, err := f.mappings.GetByProviderAndExternalID(context.Background(), f.provider.ID(), "ext-1")
	require.NoError(t, err)
	require.Equal(t, f.user.ID(), m.UserID())
}

func TestLinkSameUserIsIdempotent(t *testing.T) {
	f := newSSOFixture(t)

	m, err := f.service.Link(context.Background(), f.provider.ID(), f.user.ID(), "ext-1", nil)
	require.NoError(t, err)
	require.Equal(t, f.mapping.ID(), m.ID())
}

func TestRecordLoginConcurrentIncrements(t *testing.T) {
	f := newSSOFixture(t)

	const logins = 50
	errs := make(chan error, logins)
	var wg sync.WaitGroup
	wg.Add(logins)
	for i := 0; i < logins; i++ {
		go func() {
			defer wg.Done()
			errs <- f.service.RecordLogin(context.Background(), f.mapping)
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	require.EqualValues(t, logins, f.mappings.loginCountOf(f.mapping.ID()))
}

func TestSaveProviderKeepsOneSystemConfig(t *testing.T) {
	providers := newFakeProviderRepo()

	stale := sso.NewProvider(sso.ProviderGoogle, sso.WithCredentials("old-client", "old-secret"))
	fresh := sso.NewProvider(sso.ProviderGoogle, sso.WithCredentials("new-client", "new-secret"))
	_, err := providers.Save(context.Background(), stale)
	require.NoError(t, err)
	_, err = providers.Save(context.Background(), fresh)
	require.NoError(t, err)

	// A tenant override lives alongside the system-wide config, not in its
	// place.
	tenantID := uuid.New()
	scoped := sso.NewProvider(
		sso.ProviderGoogle,
		sso.WithTenantID(&tenantID),
		sso.WithCredentials("tenant-client", "tenant-secret"),
	)
	_, err = providers.Save(context.Background(), scoped)
	require.NoError(t, err)

	all, err := providers.List(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 2)

	system, err := providers.GetByTenantAndType(context.Background(), nil, sso.ProviderGoogle)
	require.NoError(t, err)
	require.Equal(t, "new-client", system.ClientID())
}

func TestGetProviderFallsBackToSystemConfig(t *testing.T) {
	systemProvider := sso.NewProvider(
		sso.ProviderGitHub,
		sso.WithCredentials("sys-client", "sys-secret"),
	)
	providers := newFakeProviderRepo(systemProvider)
	service := NewSSOService(providers, newFakeMappingRepo(), newFakeUserRepo(), newTestBus(), newTestLogger())

	tenantID := uuid.New()
	p, err := service.GetProvider(context.Background(), &tenantID, sso.ProviderGitHub)
	require.NoError(t, err)
	require.Equal(t, systemProvider.ID(), p.ID())
	require.Nil(t, p.TenantID())
}
