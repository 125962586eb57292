package user

import (
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// User is the already-authenticated principal this core receives from the
// request-handling layer. Credential verification happens upstream; the
// aggregate only exposes what scoping and entitlement decisions need.
type User interface {
	ID() uuid.UUID
	// TenantID is uuid.Nil only for super admins, which are system-wide
	// operators owned by no tenant.
	TenantID() uuid.UUID
	Email() string
	DisplayName() string
	Role() Role
	EmailVerified() bool
	LastLoginAt() *time.Time
	CreatedAt() time.Time
	UpdatedAt() time.Time

	CheckPassword(password string) bool
	PasswordDigest() string

	SetRole(role Role)
	SetDisplayName(name string)
	MarkEmailVerified()
}

type Option func(*userImpl)

func WithID(id uuid.UUID) Option {
	return func(u *userImpl) {
		u.id = id
	}
}

func WithTenantID(tenantID uuid.UUID) Option {
	return func(u *userImpl) {
		u.tenantID = tenantID
	}
}

func WithRole(role Role) Option {
	return func(u *userImpl) {
		u.role = role
	}
}

func WithDisplayName(name string) Option {
	return func(u *userImpl) {
		u.displayName = name
	}
}

func WithPasswordDigest(digest string) Option {
	return func(u *userImpl) {
		u.passwordDigest = digest
	}
}

func WithEmailVerified(verified bool) Option {
	return func(u *userImpl) {
		u.emailVerified = verified
	}
}

func WithLastLoginAt(at *time.Time) Option {
	return func(u *userImpl) {
		u.lastLoginAt = at
	}
}

func WithCreatedAt(createdAt time.Time) Option {
	return func(u *userImpl) {
		u.createdAt = createdAt
	}
}

func WithUpdatedAt(updatedAt time.Time) Option {
	return func(u *userImpl) {
		u.updatedAt = updatedAt
	}
}

func New(email string, opts ...Option) User {
	u := &userImpl{
		id:        uuid.New(),
		email:     email,
		role:      RoleMember,
		createdAt: time.Now(),
		updatedAt: time.Now(),
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

type userImpl struct {
	id             uuid.UUID
	tenantID       uuid.UUID
	email          string
	displayName    string
	role           Role
	passwordDigest string
	emailVerified  bool
	lastLoginAt    *time.Time
	createdAt      time.Time
	updatedAt      time.Time
}

func (u *userImpl) ID() uuid.UUID {
	return u.id
}

func (u *userImpl) TenantID() uuid.UUID {
	return u.tenantID
}

func (u *userImpl) Email() string {
	return u.email
}

func (u *userImpl) DisplayName() string {
	return u.displayName
}

func (u *userImpl) Role() Role {
	return u.role
}

func (u *userImpl) EmailVerified() bool {
	return u.emailVerified
}

func (u *userImpl) LastLoginAt() *time.Time {
	return u.lastLoginAt
}

func (u *userImpl) CreatedAt() time.Time {
	return u.createdAt
}

func (u *userImpl) UpdatedAt() time.Time {
	return u.updatedAt
}

func (u *userImpl) CheckPassword(password string) bool {
	if u.passwordDigest == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(u.passwordDigest), []byte(password)) == nil
}

func (u *userImpl) PasswordDigest() string {
	return u.passwordDigest
}

func (u *userImpl) SetRole(role Role) {
	u.role = role
	u.updatedAt = time.Now()
}

func (u *userImpl) SetDisplayName(name string) {
	u.displayName = name
	u.updatedAt = time.Now()
}

func (u *userImpl) MarkEmailVerified() {
	u.emailVerified = true
	u.updatedAt = time.Now()
}
