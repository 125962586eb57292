package entitlement

import (
	"time"

	"github.com/google/uuid"
)

type GrantedEvent struct {
	TenantID  uuid.UUID
	ModuleID  uuid.UUID
	Status    Status
	Timestamp time.Time
}

type RevokedEvent struct {
	TenantID  uuid.UUID
	ModuleID  uuid.UUID
	Timestamp time.Time
}

func NewGrantedEvent(e *Entitlement) *GrantedEvent {
	return &GrantedEvent{
		TenantID:  e.TenantID(),
		ModuleID:  e.ModuleID(),
		Status:    e.Status(),
		Timestamp: time.Now(),
	}
}

func NewRevokedEvent(e *Entitlement) *RevokedEvent {
	return &RevokedEvent{
		TenantID:  e.TenantID(),
		ModuleID:  e.ModuleID(),
		Timestamp: time.Now(),
	}
}
