package services

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/meridian-hq/meridian/modules/core/domain/aggregates/user"
	"github.com/meridian-hq/meridian/modules/core/domain/entities/sso"
	"github.com/meridian-hq/meridian/modules/core/infrastructure/persistence"
	"github.com/meridian-hq/meridian/pkg/composables"
	"github.com/meridian-hq/meridian/pkg/eventbus"
)

// ErrUnlinkedIdentity is the explicit "no mapping found" outcome. The linker
// does not decide provisioning policy; callers choose between auto-creating
// an account and requiring a manual link.
var ErrUnlinkedIdentity = fmt.Errorf("external identity is not linked to a local account")

// IdentityAssertion is what an identity-provider callback hands us after the
// protocol exchange: who the provider says this is, plus whatever attributes
// it volunteered. Attributes are stored verbatim and never interpreted.
type IdentityAssertion struct {
	ProviderType sso.ProviderType
	ExternalID   string
	Email        string
	Attributes   map[string]any
}

// SSOService resolves external identity assertions to local principals and
// records login telemetry. Mapping an external identity to the wrong
// tenant's account is an isolation failure, so binding invariants live here
// and in the mapping repository, never in callback handlers.
type SSOService struct {
	providers sso.ProviderRepository
	mappings  sso.MappingRepository
	users     user.Repository
	publisher eventbus.EventBus
	logger    *logrus.Logger
}

func NewSSOService(
	providers sso.ProviderRepository,
	mappings sso.MappingRepository,
	users user.Repository,
	publisher eventbus.EventBus,
	logger *logrus.Logger,
) *SSOService {
	return &SSOService{
		providers: providers,
		mappings:  mappings,
		users:     users,
		publisher: publisher,
		logger:    logger,
	}
}

// Resolve maps an identity assertion to a local principal and records the
// login. A missing mapping returns ErrUnlinkedIdentity; transient storage
// failures are logged and also surface as unlinked, never as a guessed
// account.
func (s *SSOService) Resolve(ctx context.Context, tenantID *uuid.UUID, assertion IdentityAssertion) (user.User, error) {
	provider, err := s.providers.GetByTenantAndType(ctx, tenantID, assertion.ProviderType)
	if err != nil {
		s.logger.WithFields(logrus.Fields{
			"provider":    assertion.ProviderType,
			"external_id": assertion.ExternalID,
		}).WithError(err).Warn("sso provider lookup failed")
		return nil, ErrUnlinkedIdentity
	}
	if !provider.IsEnabled() {
		s.logger.WithFields(logrus.Fields{
			"provider":    assertion.ProviderType,
			"provider_id": provider.ID(),
		}).Warn("sso provider is disabled")
		return nil, ErrUnlinkedIdentity
	}

	mapping, err := s.mappings.GetByProviderAndExternalID(ctx, provider.ID(), assertion.ExternalID)
	if errors.Is(err, persistence.ErrSSOMappingNotFound) {
		return nil, ErrUnlinkedIdentity
	}
	if err != nil {
		s.logger.WithFields(logrus.Fields{
			"provider":    assertion.ProviderType,
			"external_id": assertion.ExternalID,
		}).WithError(err).Error("sso mapping lookup failed, treating as unlinked")
		return nil, ErrUnlinkedIdentity
	}

	u, err := s.users.GetByID(ctx, mapping.UserID())
	if err != nil {
		return nil, errors.Wrap(err, "failed to load mapped user")
	}

	if err := s.RecordLogin(ctx, mapping); err != nil {
		return nil, err
	}
	return u, nil
}

// Link binds an external identity to a local principal. Binding an identity
// already pointing at a different principal fails atomically; the existing
// mapping is never re-pointed.
func (s *SSOService) Link(ctx context.Context, providerID, userID uuid.UUID, externalID string, attributes map[string]any) (*sso.Mapping, error) {
	m := sso.NewMapping(providerID, userID, externalID, sso.WithAttributes(attributes))
	created, err := s.mappings.Create(ctx, m)
	if errors.Is(err, persistence.ErrSSOMappingConflict) {
		s.logger.WithFields(logrus.Fields{
			"provider_id": providerID,
			"external_id": externalID,
			"user_id":     userID,
		}).Warn("refused to re-point existing sso mapping")
		return nil, err
	}
	return created, err
}

// RecordLogin bumps the mapping's login counter and timestamp and mirrors
// the last-login onto the principal. Each write is an independent atomic
// single-record statement, safe under concurrent logins from the same
// identity; no cross-record transaction is needed.
func (s *SSOService) RecordLogin(ctx context.Context, mapping *sso.Mapping) error {
	if err := s.mappings.RecordLogin(ctx, mapping.ID()); err != nil {
		return err
	}
	return s.users.UpdateLastLogin(ctx, mapping.UserID())
}

// Mappings lists the external identities linked to a principal.
func (s *SSOService) Mappings(ctx context.Context, userID uuid.UUID) ([]*sso.Mapping, error) {
	return s.mappings.ListForUser(ctx, userID)
}

// SaveProvider upserts a provider configuration for a tenant (nil for
// system-wide), keeping one configuration per (tenant, provider type).
func (s *SSOService) SaveProvider(ctx context.Context, p *sso.Provider) (*sso.Provider, error) {
	return composables.InTenantTxResult(ctx, func(txCtx context.Context) (*sso.Provider, error) {
		return s.providers.Save(txCtx, p)
	})
}

func (s *SSOService) GetProvider(ctx context.Context, tenantID *uuid.UUID, providerType sso.ProviderType) (*sso.Provider, error) {
	return s.providers.GetByTenantAndType(ctx, tenantID, providerType)
}
