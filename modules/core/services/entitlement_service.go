package services

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/meridian-hq/meridian/modules/core/domain/aggregates/user"
	"github.com/meridian-hq/meridian/modules/core/domain/entities/appmodule"
	"github.com/meridian-hq/meridian/modules/core/domain/entities/entitlement"
	"github.com/meridian-hq/meridian/modules/core/infrastructure/persistence"
	"github.com/meridian-hq/meridian/pkg/composables"
	"github.com/meridian-hq/meridian/pkg/eventbus"
	"github.com/meridian-hq/meridian/pkg/serrors"
)

// DenialReason is the human-readable explanation attached to a denied check.
// Entitlement denials are actionable by the tenant and surfaced verbatim;
// configuration and transient failures surface only the generic reason.
type DenialReason string

const (
	DenyNoTenant          DenialReason = "no tenant associated with request"
	DenyUnknownCapability DenialReason = "capability not configured in system"
	DenyNotActivated      DenialReason = "module not activated for this account"
	DenyTrialExpired      DenialReason = "module trial has expired"
	DenyUnavailable       DenialReason = "access denied"
)

var ErrModuleForbidden = serrors.NewError("MODULE_FORBIDDEN", "module access denied", "Entitlements.Denied")

// Decision is the outcome of one entitlement evaluation.
type Decision struct {
	Allowed bool
	Reason  DenialReason
}

func allow() Decision {
	return Decision{Allowed: true}
}

func deny(reason DenialReason) Decision {
	return Decision{Reason: reason}
}

type EntitlementServiceOption func(*EntitlementService)

// WithClock overrides the evaluation clock, for tests.
func WithClock(clock func() time.Time) EntitlementServiceOption {
	return func(s *EntitlementService) {
		s.clock = clock
	}
}

// EntitlementService decides whether a principal's tenant is entitled to a
// module capability. It only ever reads entitlement rows; administrative
// mutations go through Grant/StartTrial/Suspend/Revoke.
type EntitlementService struct {
	modules      appmodule.Repository
	entitlements entitlement.Repository
	publisher    eventbus.EventBus
	logger       *logrus.Logger
	clock        func() time.Time
}

func NewEntitlementService(
	modules appmodule.Repository,
	entitlements entitlement.Repository,
	publisher eventbus.EventBus,
	logger *logrus.Logger,
	opts ...EntitlementServiceOption,
) *EntitlementService {
	s := &EntitlementService{
		modules:      modules,
		entitlements: entitlements,
		publisher:    publisher,
		logger:       logger,
		clock:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Check evaluates whether u may use the capability. It never returns an
// error: any unexpected failure during evaluation denies with the generic
// reason and logs the cause. Entitlement checks fail closed.
func (s *EntitlementService) Check(ctx context.Context, u user.User, capability string) Decision {
	start := s.clock()
	decision := s.check(ctx, u, capability)
	recordCheckMetrics(capability, decision.Allowed, s.clock().Sub(start))
	return decision
}

func (s *EntitlementService) check(ctx context.Context, u user.User, capability string) Decision {
	if u != nil && u.Role().BypassesEntitlements() {
		return allow()
	}
	if capability == "" {
		return allow()
	}
	if u == nil || u.TenantID() == uuid.Nil {
		return deny(DenyNoTenant)
	}
	tenantID := u.TenantID()

	mod, err := s.modules.GetByCode(ctx, capability)
	if errors.Is(err, persistence.ErrModuleNotFound) {
		// Configuration error, not a commercial denial: the capability was
		// never registered in the catalog.
		s.logger.WithFields(logrus.Fields{
			"tenant_id":  tenantID,
			"capability": capability,
		}).Error("entitlement check against unregistered capability")
		return deny(DenyUnknownCapability)
	}
	if err != nil {
		s.logger.WithFields(logrus.Fields{
			"tenant_id":  tenantID,
			"capability": capability,
		}).WithError(err).Error("module catalog lookup failed, denying")
		return deny(DenyUnavailable)
	}

	ent, err := s.entitlements.GetByTenantAndModule(ctx, tenantID, mod.ID())
	if errors.Is(err, persistence.ErrEntitlementNotFound) {
		return deny(DenyNotActivated)
	}
	if err != nil {
		s.logger.WithFields(logrus.Fields{
			"tenant_id":  tenantID,
			"capability": capability,
		}).WithError(err).Error("entitlement lookup failed, denying")
		return deny(DenyUnavailable)
	}

	now := s.clock()
	switch ent.Status() {
	case entitlement.StatusActive, entitlement.StatusTrial:
	default:
		return deny(DenyNotActivated)
	}
	// Trial expiry is a temporal override layered on top of the stored
	// status; the row still says trial after the deadline passes.
	if ent.IsTrialExpired(now) {
		return deny(DenyTrialExpired)
	}
	return allow()
}

// Authorize converts a denied Check into an error carrying the denial reason.
func (s *EntitlementService) Authorize(ctx context.Context, u user.User, capability string) error {
	decision := s.Check(ctx, u, capability)
	if decision.Allowed {
		return nil
	}
	return ErrModuleForbidden.WithTemplateData(map[string]string{
		"capability": capability,
		"reason":     string(decision.Reason),
	})
}

func (s *EntitlementService) ListForTenant(ctx context.Context, tenantID uuid.UUID) ([]*entitlement.Entitlement, error) {
	return s.entitlements.ListForTenant(ctx, tenantID)
}

// Grant activates a module for a tenant, upserting over any prior grant.
func (s *EntitlementService) Grant(ctx context.Context, tenantID, moduleID uuid.UUID) (*entitlement.Entitlement, error) {
	ent, err := composables.InTenantTxResult(ctx, func(txCtx context.Context) (*entitlement.Entitlement, error) {
		e := entitlement.New(tenantID, moduleID, entitlement.WithStatus(entitlement.StatusActive))
		return s.entitlements.Save(txCtx, e)
	})
	if err != nil {
		return nil, err
	}
	s.publisher.Publish(entitlement.NewGrantedEvent(ent))
	return ent, nil
}

// StartTrial grants a time-boxed trial expiring at the given instant.
func (s *EntitlementService) StartTrial(ctx context.Context, tenantID, moduleID uuid.UUID, expiresAt time.Time) (*entitlement.Entitlement, error) {
	ent, err := composables.InTenantTxResult(ctx, func(txCtx context.Context) (*entitlement.Entitlement, error) {
		e := entitlement.New(tenantID, moduleID)
		e.StartTrial(expiresAt)
		return s.entitlements.Save(txCtx, e)
	})
	if err != nil {
		return nil, err
	}
	s.publisher.Publish(entitlement.NewGrantedEvent(ent))
	return ent, nil
}

func (s *EntitlementService) Suspend(ctx context.Context, tenantID, moduleID uuid.UUID) (*entitlement.Entitlement, error) {
	return composables.InTenantTxResult(ctx, func(txCtx context.Context) (*entitlement.Entitlement, error) {
		ent, err := s.entitlements.GetByTenantAndModule(txCtx, tenantID, moduleID)
		if err != nil {
			return nil, err
		}
		ent.Suspend()
		return s.entitlements.Save(txCtx, ent)
	})
}

func (s *EntitlementService) Revoke(ctx context.Context, tenantID, moduleID uuid.UUID) error {
	var revoked *entitlement.Entitlement
	err := composables.InTenantTx(ctx, func(txCtx context.Context) error {
		ent, err := s.entitlements.GetByTenantAndModule(txCtx, tenantID, moduleID)
		if err != nil {
			return err
		}
		ent.Expire()
		revoked, err = s.entitlements.Save(txCtx, ent)
		return err
	})
	if err != nil {
		return err
	}
	s.publisher.Publish(entitlement.NewRevokedEvent(revoked))
	return nil
}
