package models

import (
	"database/sql"
	"time"
)

type Tenant struct {
	ID        string
	Name      string
	Slug      string
	Domain    sql.NullString
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

type User struct {
	ID             string
	TenantID       sql.NullString
	Email          string
	DisplayName    sql.NullString
	Role           string
	PasswordDigest sql.NullString
	EmailVerified  bool
	LastLoginAt    sql.NullTime
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type Module struct {
	ID        string
	Code      string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Entitlement struct {
	ID        string
	TenantID  string
	ModuleID  string
	Status    string
	ExpiresAt sql.NullTime
	CreatedAt time.Time
	UpdatedAt time.Time
}

type SSOProvider struct {
	ID           string
	TenantID     sql.NullString
	ProviderType string
	ClientID     sql.NullString
	ClientSecret sql.NullString
	RedirectURL  sql.NullString
	MetadataURL  sql.NullString
	IsEnabled    bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type SSOUserMapping struct {
	ID          string
	ProviderID  string
	UserID      string
	ExternalID  string
	Attributes  []byte
	LoginCount  int64
	LastLoginAt sql.NullTime
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type EmailVerificationToken struct {
	ID         string
	UserID     string
	Token      string
	Used       bool
	VerifiedAt sql.NullTime
	CreatedAt  time.Time
	ExpiresAt  time.Time
}
