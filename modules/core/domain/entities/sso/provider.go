package sso

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

// ProviderType discriminates identity-provider protocols.
type ProviderType string

const (
	ProviderGoogle ProviderType = "google"
	ProviderGitHub ProviderType = "github"
	ProviderSAML   ProviderType = "saml"
	ProviderLDAP   ProviderType = "ldap"
)

func NewProviderType(value string) (ProviderType, error) {
	t := ProviderType(value)
	if !t.IsValid() {
		return "", fmt.Errorf("unknown sso provider type: %q", value)
	}
	return t, nil
}

func (t ProviderType) IsValid() bool {
	switch t {
	case ProviderGoogle, ProviderGitHub, ProviderSAML, ProviderLDAP:
		return true
	}
	return false
}

func (t ProviderType) IsOAuth2() bool {
	return t == ProviderGoogle || t == ProviderGitHub
}

// Provider is an identity-provider configuration. TenantID is nil for
// system-wide providers; at most one configuration exists per
// (tenant, provider type) pair.
type Provider struct {
	id           uuid.UUID
	tenantID     *uuid.UUID
	providerType ProviderType
	clientID     string
	clientSecret string
	redirectURL  string
	// metadataURL carries the SAML metadata or LDAP server URL for
	// non-OAuth2 provider types.
	metadataURL string
	isEnabled   bool
	createdAt   time.Time
	updatedAt   time.Time
}

type ProviderOption func(*Provider)

func WithProviderID(id uuid.UUID) ProviderOption {
	return func(p *Provider) {
		p.id = id
	}
}

func WithTenantID(tenantID *uuid.UUID) ProviderOption {
	return func(p *Provider) {
		p.tenantID = tenantID
	}
}

func WithCredentials(clientID, clientSecret string) ProviderOption {
	return func(p *Provider) {
		p.clientID = clientID
		p.clientSecret = clientSecret
	}
}

func WithRedirectURL(redirectURL string) ProviderOption {
	return func(p *Provider) {
		p.redirectURL = redirectURL
	}
}

func WithMetadataURL(metadataURL string) ProviderOption {
	return func(p *Provider) {
		p.metadataURL = metadataURL
	}
}

func WithIsEnabled(enabled bool) ProviderOption {
	return func(p *Provider) {
		p.isEnabled = enabled
	}
}

func WithProviderCreatedAt(createdAt time.Time) ProviderOption {
	return func(p *Provider) {
		p.createdAt = createdAt
	}
}

func WithProviderUpdatedAt(updatedAt time.Time) ProviderOption {
	return func(p *Provider) {
		p.updatedAt = updatedAt
	}
}

func NewProvider(providerType ProviderType, opts ...ProviderOption) *Provider {
	p := &Provider{
		id:           uuid.New(),
		providerType: providerType,
		isEnabled:    true,
		createdAt:    time.Now(),
		updatedAt:    time.Now(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Provider) ID() uuid.UUID {
	return p.id
}

func (p *Provider) TenantID() *uuid.UUID {
	return p.tenantID
}

func (p *Provider) Type() ProviderType {
	return p.providerType
}

func (p *Provider) ClientID() string {
	return p.clientID
}

func (p *Provider) ClientSecret() string {
	return p.clientSecret
}

func (p *Provider) RedirectURL() string {
	return p.redirectURL
}

func (p *Provider) MetadataURL() string {
	return p.metadataURL
}

func (p *Provider) IsEnabled() bool {
	return p.isEnabled
}

func (p *Provider) CreatedAt() time.Time {
	return p.createdAt
}

func (p *Provider) UpdatedAt() time.Time {
	return p.updatedAt
}

func (p *Provider) SetEnabled(enabled bool) {
	p.isEnabled = enabled
	p.updatedAt = time.Now()
}

var oauth2Endpoints = map[ProviderType]oauth2.Endpoint{
	ProviderGoogle: {
		AuthURL:  "https://accounts.google.com/o/oauth2/auth",
		TokenURL: "https://oauth2.googleapis.com/token",
	},
	ProviderGitHub: {
		AuthURL:  "https://github.com/login/oauth/authorize",
		TokenURL: "https://github.com/login/oauth/access_token",
	},
}

// OAuth2Config builds the oauth2 client configuration for OAuth2-backed
// provider types.
func (p *Provider) OAuth2Config() (*oauth2.Config, error) {
	endpoint, ok := oauth2Endpoints[p.providerType]
	if !ok {
		return nil, fmt.Errorf("provider type %q is not oauth2-backed", p.providerType)
	}
	return &oauth2.Config{
		ClientID:     p.clientID,
		ClientSecret: p.clientSecret,
		RedirectURL:  p.redirectURL,
		Scopes:       []string{"openid", "email", "profile"},
		Endpoint:     endpoint,
	}, nil
}
