package composables

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/meridian-hq/meridian/pkg/constants"
)

var (
	ErrNoTenantIDFound = errors.New("no tenant id found in context")
	ErrNoUserFound     = errors.New("no user found in context")
)

// WithTenantID returns a new context carrying the tenant the current
// operation runs on behalf of. The association dies with the derived context,
// so a reused goroutine can never observe a previous request's tenant.
func WithTenantID(ctx context.Context, tenantID uuid.UUID) context.Context {
	return context.WithValue(ctx, constants.TenantIDKey, tenantID)
}

// UseTenantID returns the tenant id from the context.
// Callers must treat ErrNoTenantIDFound as a distinct, checkable case.
func UseTenantID(ctx context.Context) (uuid.UUID, error) {
	id, ok := ctx.Value(constants.TenantIDKey).(uuid.UUID)
	if !ok || id == uuid.Nil {
		return uuid.Nil, ErrNoTenantIDFound
	}
	return id, nil
}

// WithSystemScope marks the context as a deliberate cross-tenant
// (administrative) scope. Without this marker, tenant-scoped queries on a
// context with no tenant id fail instead of silently returning all rows.
func WithSystemScope(ctx context.Context) context.Context {
	return context.WithValue(ctx, constants.SystemScopeKey, true)
}

// UseSystemScope reports whether the context opted into cross-tenant scope.
func UseSystemScope(ctx context.Context) bool {
	v, ok := ctx.Value(constants.SystemScopeKey).(bool)
	return ok && v
}

// Scope describes how a query is tenant-restricted.
type Scope struct {
	TenantID uuid.UUID
	System   bool
}

// UseScope resolves the effective query scope from the context: a tenant id
// when one is set, the system scope when explicitly requested, and
// ErrNoTenantIDFound otherwise. Re-reads the context on every call; nothing
// is cached between requests.
func UseScope(ctx context.Context) (Scope, error) {
	if id, err := UseTenantID(ctx); err == nil {
		return Scope{TenantID: id}, nil
	}
	if UseSystemScope(ctx) {
		return Scope{System: true}, nil
	}
	return Scope{}, ErrNoTenantIDFound
}
