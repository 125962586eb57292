package sso

import (
	"time"

	"github.com/google/uuid"
)

// Mapping links one (provider, external subject id) pair to exactly one local
// principal. A principal may carry several mappings, one per provider, but a
// given external identity never resolves to more than one account.
type Mapping struct {
	id          uuid.UUID
	providerID  uuid.UUID
	userID      uuid.UUID
	externalID  string
	attributes  map[string]any
	loginCount  int64
	lastLoginAt *time.Time
	createdAt   time.Time
	updatedAt   time.Time
}

type MappingOption func(*Mapping)

func WithMappingID(id uuid.UUID) MappingOption {
	return func(m *Mapping) {
		m.id = id
	}
}

func WithAttributes(attributes map[string]any) MappingOption {
	return func(m *Mapping) {
		m.attributes = attributes
	}
}

func WithLoginCount(count int64) MappingOption {
	return func(m *Mapping) {
		m.loginCount = count
	}
}

func WithLastLoginAt(at *time.Time) MappingOption {
	return func(m *Mapping) {
		m.lastLoginAt = at
	}
}

func WithMappingCreatedAt(createdAt time.Time) MappingOption {
	return func(m *Mapping) {
		m.createdAt = createdAt
	}
}

func WithMappingUpdatedAt(updatedAt time.Time) MappingOption {
	return func(m *Mapping) {
		m.updatedAt = updatedAt
	}
}

func NewMapping(providerID, userID uuid.UUID, externalID string, opts ...MappingOption) *Mapping {
	m := &Mapping{
		id:         uuid.New(),
		providerID: providerID,
		userID:     userID,
		externalID: externalID,
		createdAt:  time.Now(),
		updatedAt:  time.Now(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Mapping) ID() uuid.UUID {
	return m.id
}

func (m *Mapping) ProviderID() uuid.UUID {
	return m.providerID
}

func (m *Mapping) UserID() uuid.UUID {
	return m.userID
}

func (m *Mapping) ExternalID() string {
	return m.externalID
}

// Attributes are provider-supplied and stored verbatim; this core never
// interprets them beyond display.
func (m *Mapping) Attributes() map[string]any {
	return m.attributes
}

func (m *Mapping) LoginCount() int64 {
	return m.loginCount
}

func (m *Mapping) LastLoginAt() *time.Time {
	return m.lastLoginAt
}

func (m *Mapping) CreatedAt() time.Time {
	return m.createdAt
}

func (m *Mapping) UpdatedAt() time.Time {
	return m.updatedAt
}
