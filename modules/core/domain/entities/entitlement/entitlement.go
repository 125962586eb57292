package entitlement

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Status is the stored commercial state of a tenant's module grant.
type Status string

const (
	StatusActive    Status = "active"
	StatusTrial     Status = "trial"
	StatusSuspended Status = "suspended"
	StatusExpired   Status = "expired"
)

func NewStatus(value string) (Status, error) {
	s := Status(value)
	if !s.IsValid() {
		return "", fmt.Errorf("unknown entitlement status: %q", value)
	}
	return s, nil
}

func (s Status) IsValid() bool {
	switch s {
	case StatusActive, StatusTrial, StatusSuspended, StatusExpired:
		return true
	}
	return false
}

// Entitlement links a tenant to a module. At most one row exists per
// (tenant, module) pair; the persistence layer upserts on that key.
type Entitlement struct {
	id        uuid.UUID
	tenantID  uuid.UUID
	moduleID  uuid.UUID
	status    Status
	expiresAt *time.Time
	createdAt time.Time
	updatedAt time.Time
}

type Option func(*Entitlement)

func WithID(id uuid.UUID) Option {
	return func(e *Entitlement) {
		e.id = id
	}
}

func WithStatus(status Status) Option {
	return func(e *Entitlement) {
		e.status = status
	}
}

func WithExpiresAt(expiresAt *time.Time) Option {
	return func(e *Entitlement) {
		e.expiresAt = expiresAt
	}
}

func WithCreatedAt(createdAt time.Time) Option {
	return func(e *Entitlement) {
		e.createdAt = createdAt
	}
}

func WithUpdatedAt(updatedAt time.Time) Option {
	return func(e *Entitlement) {
		e.updatedAt = updatedAt
	}
}

func New(tenantID, moduleID uuid.UUID, opts ...Option) *Entitlement {
	e := &Entitlement{
		id:        uuid.New(),
		tenantID:  tenantID,
		moduleID:  moduleID,
		status:    StatusActive,
		createdAt: time.Now(),
		updatedAt: time.Now(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Entitlement) ID() uuid.UUID {
	return e.id
}

func (e *Entitlement) TenantID() uuid.UUID {
	return e.tenantID
}

func (e *Entitlement) ModuleID() uuid.UUID {
	return e.moduleID
}

// Status returns the stored status. Callers deciding access must use
// EffectiveStatus instead; the stored value is never self-healed when a trial
// lapses.
func (e *Entitlement) Status() Status {
	return e.status
}

func (e *Entitlement) ExpiresAt() *time.Time {
	return e.expiresAt
}

func (e *Entitlement) CreatedAt() time.Time {
	return e.createdAt
}

func (e *Entitlement) UpdatedAt() time.Time {
	return e.updatedAt
}

// IsTrialExpired reports whether a trial grant has lapsed at the given
// instant. Always evaluate with the caller's clock, never a cached one.
func (e *Entitlement) IsTrialExpired(now time.Time) bool {
	return e.status == StatusTrial && e.expiresAt != nil && now.After(*e.expiresAt)
}

// EffectiveStatus derives the temporal state layered over the stored status:
// a lapsed trial reads as expired even though the row still says trial.
func (e *Entitlement) EffectiveStatus(now time.Time) Status {
	if e.IsTrialExpired(now) {
		return StatusExpired
	}
	return e.status
}

// Enabled reports whether the grant currently admits access.
func (e *Entitlement) Enabled(now time.Time) bool {
	switch e.EffectiveStatus(now) {
	case StatusActive, StatusTrial:
		return true
	}
	return false
}

func (e *Entitlement) Activate() {
	e.status = StatusActive
	e.expiresAt = nil
	e.updatedAt = time.Now()
}

func (e *Entitlement) StartTrial(expiresAt time.Time) {
	e.status = StatusTrial
	e.expiresAt = &expiresAt
	e.updatedAt = time.Now()
}

func (e *Entitlement) Suspend() {
	e.status = StatusSuspended
	e.updatedAt = time.Now()
}

func (e *Entitlement) Expire() {
	e.status = StatusExpired
	e.updatedAt = time.Now()
}
