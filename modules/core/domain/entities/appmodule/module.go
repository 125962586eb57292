package appmodule

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Module is a system-wide catalog entry identifying a sellable feature area
// by a stable code. It is not tenant-scoped; tenants reference it through
// entitlements.
type Module struct {
	id        uuid.UUID
	code      string
	name      string
	createdAt time.Time
	updatedAt time.Time
}

type Option func(*Module)

func WithID(id uuid.UUID) Option {
	return func(m *Module) {
		m.id = id
	}
}

func WithCreatedAt(createdAt time.Time) Option {
	return func(m *Module) {
		m.createdAt = createdAt
	}
}

func WithUpdatedAt(updatedAt time.Time) Option {
	return func(m *Module) {
		m.updatedAt = updatedAt
	}
}

func New(code, name string, opts ...Option) *Module {
	m := &Module{
		id:        uuid.New(),
		code:      strings.ToLower(strings.TrimSpace(code)),
		name:      name,
		createdAt: time.Now(),
		updatedAt: time.Now(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Module) ID() uuid.UUID {
	return m.id
}

func (m *Module) Code() string {
	return m.code
}

func (m *Module) Name() string {
	return m.name
}

func (m *Module) CreatedAt() time.Time {
	return m.createdAt
}

func (m *Module) UpdatedAt() time.Time {
	return m.updatedAt
}

func (m *Module) SetName(name string) {
	m.name = name
	m.updatedAt = time.Now()
}
