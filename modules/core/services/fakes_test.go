package services

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/meridian-hq/meridian/modules/core/domain/aggregates/user"
	"github.com/meridian-hq/meridian/modules/core/domain/entities/appmodule"
	"github.com/meridian-hq/meridian/modules/core/domain/entities/entitlement"
	"github.com/meridian-hq/meridian/modules/core/domain/entities/sso"
	"github.com/meridian-hq/meridian/modules/core/domain/entities/verification"
	"github.com/meridian-hq/meridian/modules/core/infrastructure/persistence"
	"github.com/meridian-hq/meridian/pkg/eventbus"
)

func newTestLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newTestBus() eventbus.EventBus {
	return eventbus.NewEventPublisher(newTestLogger())
}

type fakeModuleRepo struct {
	mu      sync.RWMutex
	byCode  map[string]*appmodule.Module
	failAll error
}

func newFakeModuleRepo(mods ...*appmodule.Module) *fakeModuleRepo {
	r := &fakeModuleRepo{byCode: make(map[string]*appmodule.Module)}
	for _, m := range mods {
		r.byCode[m.Code()] = m
	}
	return r
}

func (r *fakeModuleRepo) GetByID(_ context.Context, id uuid.UUID) (*appmodule.Module, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.failAll != nil {
		return nil, r.failAll
	}
	for _, m := range r.byCode {
		if m.ID() == id {
			return m, nil
		}
	}
	return nil, persistence.ErrModuleNotFound
}

func (r *fakeModuleRepo) GetByCode(_ context.Context, code string) (*appmodule.Module, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.failAll != nil {
		return nil, r.failAll
	}
	m, ok := r.byCode[code]
	if !ok {
		return nil, persistence.ErrModuleNotFound
	}
	return m, nil
}

func (r *fakeModuleRepo) List(_ context.Context) ([]*appmodule.Module, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.failAll != nil {
		return nil, r.failAll
	}
	out := make([]*appmodule.Module, 0, len(r.byCode))
	for _, m := range r.byCode {
		out = append(out, m)
	}
	return out, nil
}

func (r *fakeModuleRepo) Create(_ context.Context, m *appmodule.Module) (*appmodule.Module, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byCode[m.Code()] = m
	return m, nil
}

func (r *fakeModuleRepo) Update(_ context.Context, m *appmodule.Module) (*appmodule.Module, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byCode[m.Code()] = m
	return m, nil
}

func (r *fakeModuleRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for code, m := range r.byCode {
		if m.ID() == id {
			delete(r.byCode, code)
		}
	}
	return nil
}

type entitlementKey struct {
	tenantID uuid.UUID
	moduleID uuid.UUID
}

type fakeEntitlementRepo struct {
	mu      sync.RWMutex
	byKey   map[entitlementKey]*entitlement.Entitlement
	failAll error
}

func newFakeEntitlementRepo(ents ...*entitlement.Entitlement) *fakeEntitlementRepo {
	r := &fakeEntitlementRepo{byKey: make(map[entitlementKey]*entitlement.Entitlement)}
	for _, e := range ents {
		r.byKey[entitlementKey{e.TenantID(), e.ModuleID()}] = e
	}
	return r
}

func (r *fakeEntitlementRepo) GetByTenantAndModule(_ context.Context, tenantID, moduleID uuid.UUID) (*entitlement.Entitlement, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.failAll != nil {
		return nil, r.failAll
	}
	e, ok := r.byKey[entitlementKey{tenantID, moduleID}]
	if !ok {
		return nil, persistence.ErrEntitlementNotFound
	}
	return e, nil
}

func (r *fakeEntitlementRepo) ListForTenant(_ context.Context, tenantID uuid.UUID) ([]*entitlement.Entitlement, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.failAll != nil {
		return nil, r.failAll
	}
	var out []*entitlement.Entitlement
	for key, e := range r.byKey {
		if key.tenantID == tenantID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *fakeEntitlementRepo) Save(_ context.Context, e *entitlement.Entitlement) (*entitlement.Entitlement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failAll != nil {
		return nil, r.failAll
	}
	r.byKey[entitlementKey{e.TenantID(), e.ModuleID()}] = e
	return e, nil
}

func (r *fakeEntitlementRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for key, e := range r.byKey {
		if e.ID() == id {
			delete(r.byKey, key)
		}
	}
	return nil
}

type fakeProviderRepo struct {
	mu        sync.RWMutex
	providers []*sso.Provider
	failAll   error
}

func newFakeProviderRepo(providers ...*sso.Provider) *fakeProviderRepo {
	return &fakeProviderRepo{providers: providers}
}

func (r *fakeProviderRepo) GetByID(_ context.Context, id uuid.UUID) (*sso.Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.failAll != nil {
		return nil, r.failAll
	}
	for _, p := range r.providers {
		if p.ID() == id {
			return p, nil
		}
	}
	return nil, persistence.ErrSSOProviderNotFound
}

func (r *fakeProviderRepo) GetByTenantAndType(_ context.Context, tenantID *uuid.UUID, providerType sso.ProviderType) (*sso.Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.failAll != nil {
		return nil, r.failAll
	}
	// Tenant-specific config wins over the system-wide one.
	if tenantID != nil {
		for _, p := range r.providers {
			if p.Type() == providerType && p.TenantID() != nil && *p.TenantID() == *tenantID {
				return p, nil
			}
		}
	}
	for _, p := range r.providers {
		if p.Type() == providerType && p.TenantID() == nil {
			return p, nil
		}
	}
	return nil, persistence.ErrSSOProviderNotFound
}

func (r *fakeProviderRepo) List(_ context.Context) ([]*sso.Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.providers, nil
}

// Save upserts on the (tenant, provider type) key. A nil tenant is one key,
// so there is at most one system-wide config per provider type.
func (r *fakeProviderRepo) Save(_ context.Context, p *sso.Provider) (*sso.Provider, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failAll != nil {
		return nil, r.failAll
	}
	for i, existing := range r.providers {
		if existing.Type() == p.Type() && sameTenantKey(existing.TenantID(), p.TenantID()) {
			r.providers[i] = p
			return p, nil
		}
	}
	r.providers = append(r.providers, p)
	return p, nil
}

func sameTenantKey(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func (r *fakeProviderRepo) Delete(_ context.Context, id uuid.UUID) error {
	return nil
}

type fakeMappingState struct {
	mapping     *sso.Mapping
	loginCount  int64
	lastLoginAt *time.Time
}

type fakeMappingRepo struct {
	mu      sync.Mutex
	byID    map[uuid.UUID]*fakeMappingState
	failAll error
}

func newFakeMappingRepo(mappings ...*sso.Mapping) *fakeMappingRepo {
	r := &fakeMappingRepo{byID: make(map[uuid.UUID]*fakeMappingState)}
	for _, m := range mappings {
		r.byID[m.ID()] = &fakeMappingState{mapping: m, loginCount: m.LoginCount()}
	}
	return r
}

func (r *fakeMappingRepo) loginCountOf(id uuid.UUID) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if state, ok := r.byID[id]; ok {
		return state.loginCount
	}
	return -1
}

func (r *fakeMappingRepo) GetByProviderAndExternalID(_ context.Context, providerID uuid.UUID, externalID string) (*sso.Mapping, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failAll != nil {
		return nil, r.failAll
	}
	for _, state := range r.byID {
		if state.mapping.ProviderID() == providerID && state.mapping.ExternalID() == externalID {
			return state.mapping, nil
		}
	}
	return nil, persistence.ErrSSOMappingNotFound
}

func (r *fakeMappingRepo) ListForUser(_ context.Context, userID uuid.UUID) ([]*sso.Mapping, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*sso.Mapping
	for _, state := range r.byID {
		if state.mapping.UserID() == userID {
			out = append(out, state.mapping)
		}
	}
	return out, nil
}

func (r *fakeMappingRepo) Create(_ context.Context, m *sso.Mapping) (*sso.Mapping, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failAll != nil {
		return nil, r.failAll
	}
	for _, state := range r.byID {
		if state.mapping.ProviderID() == m.ProviderID() && state.mapping.ExternalID() == m.ExternalID() {
			if state.mapping.UserID() == m.UserID() {
				return state.mapping, nil
			}
			return nil, persistence.ErrSSOMappingConflict
		}
	}
	r.byID[m.ID()] = &fakeMappingState{mapping: m}
	return m, nil
}

func (r *fakeMappingRepo) RecordLogin(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	state, ok := r.byID[id]
	if !ok {
		return persistence.ErrSSOMappingNotFound
	}
	state.loginCount++
	now := time.Now()
	state.lastLoginAt = &now
	return nil
}

func (r *fakeMappingRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byID, id)
	return nil
}

type fakeUserRepo struct {
	mu      sync.Mutex
	byID    map[uuid.UUID]user.User
	failAll error
}

func newFakeUserRepo(users ...user.User) *fakeUserRepo {
	r := &fakeUserRepo{byID: make(map[uuid.UUID]user.User)}
	for _, u := range users {
		r.byID[u.ID()] = u
	}
	return r
}

func (r *fakeUserRepo) GetByID(_ context.Context, id uuid.UUID) (user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failAll != nil {
		return nil, r.failAll
	}
	u, ok := r.byID[id]
	if !ok {
		return nil, persistence.ErrUserNotFound
	}
	return u, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.byID {
		if u.Email() == email {
			return u, nil
		}
	}
	return nil, persistence.ErrUserNotFound
}

func (r *fakeUserRepo) GetAll(_ context.Context) ([]user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]user.User, 0, len(r.byID))
	for _, u := range r.byID {
		out = append(out, u)
	}
	return out, nil
}

func (r *fakeUserRepo) Count(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.byID)), nil
}

func (r *fakeUserRepo) Create(_ context.Context, u user.User) (user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[u.ID()] = u
	return u, nil
}

func (r *fakeUserRepo) Update(_ context.Context, u user.User) (user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[u.ID()] = u
	return u, nil
}

func (r *fakeUserRepo) UpdateLastLogin(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return persistence.ErrUserNotFound
	}
	return nil
}

func (r *fakeUserRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byID, id)
	return nil
}

type fakeTokenRepo struct {
	mu      sync.Mutex
	byID    map[uuid.UUID]*verification.Token
	failAll error
}

func newFakeTokenRepo(tokens ...*verification.Token) *fakeTokenRepo {
	r := &fakeTokenRepo{byID: make(map[uuid.UUID]*verification.Token)}
	for _, t := range tokens {
		r.byID[t.ID()] = t
	}
	return r
}

func (r *fakeTokenRepo) tokensForUser(userID uuid.UUID) []*verification.Token {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*verification.Token
	for _, t := range r.byID {
		if t.UserID() == userID {
			out = append(out, t)
		}
	}
	return out
}

func (r *fakeTokenRepo) GetByValue(_ context.Context, value string) (*verification.Token, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failAll != nil {
		return nil, r.failAll
	}
	for _, t := range r.byID {
		if t.Value() == value {
			return t, nil
		}
	}
	return nil, persistence.ErrVerificationTokenNotFound
}

func (r *fakeTokenRepo) GetByUserID(_ context.Context, userID uuid.UUID) (*verification.Token, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var latest *verification.Token
	for _, t := range r.byID {
		if t.UserID() != userID || t.Used() {
			continue
		}
		if latest == nil || t.CreatedAt().After(latest.CreatedAt()) {
			latest = t
		}
	}
	if latest == nil {
		return nil, persistence.ErrVerificationTokenNotFound
	}
	return latest, nil
}

func (r *fakeTokenRepo) Replace(_ context.Context, t *verification.Token) (*verification.Token, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failAll != nil {
		return nil, r.failAll
	}
	for id, existing := range r.byID {
		if existing.UserID() == t.UserID() && !existing.Used() {
			delete(r.byID, id)
		}
	}
	r.byID[t.ID()] = t
	return t, nil
}

func (r *fakeTokenRepo) Update(_ context.Context, t *verification.Token) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[t.ID()] = t
	return nil
}

func (r *fakeTokenRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byID, id)
	return nil
}
