package verification

import (
	"crypto/rand"
	"encoding/base64"
	"time"

	"github.com/google/uuid"
)

// Lifetime is the fixed validity window for email verification tokens.
const Lifetime = 24 * time.Hour

// Token is a one-shot email verification token. At most one unconsumed token
// exists per principal; issuing a new one deletes any prior unconsumed token.
// Consumed and expired tokens are terminal, there is no reactivation.
type Token struct {
	id         uuid.UUID
	userID     uuid.UUID
	token      string
	used       bool
	verifiedAt *time.Time
	createdAt  time.Time
	expiresAt  time.Time
}

type Option func(*Token)

func WithID(id uuid.UUID) Option {
	return func(t *Token) {
		t.id = id
	}
}

func WithValue(token string) Option {
	return func(t *Token) {
		t.token = token
	}
}

func WithUsed(used bool) Option {
	return func(t *Token) {
		t.used = used
	}
}

func WithVerifiedAt(at *time.Time) Option {
	return func(t *Token) {
		t.verifiedAt = at
	}
}

func WithCreatedAt(createdAt time.Time) Option {
	return func(t *Token) {
		t.createdAt = createdAt
		t.expiresAt = createdAt.Add(Lifetime)
	}
}

func WithExpiresAt(expiresAt time.Time) Option {
	return func(t *Token) {
		t.expiresAt = expiresAt
	}
}

func New(userID uuid.UUID, opts ...Option) (*Token, error) {
	now := time.Now()
	t := &Token{
		id:        uuid.New(),
		userID:    userID,
		createdAt: now,
		expiresAt: now.Add(Lifetime),
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.token == "" {
		value, err := newTokenValue()
		if err != nil {
			return nil, err
		}
		t.token = value
	}
	return t, nil
}

func newTokenValue() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func (t *Token) ID() uuid.UUID {
	return t.id
}

func (t *Token) UserID() uuid.UUID {
	return t.userID
}

func (t *Token) Value() string {
	return t.token
}

func (t *Token) Used() bool {
	return t.used
}

func (t *Token) VerifiedAt() *time.Time {
	return t.verifiedAt
}

func (t *Token) CreatedAt() time.Time {
	return t.createdAt
}

func (t *Token) ExpiresAt() time.Time {
	return t.expiresAt
}

func (t *Token) IsExpired(now time.Time) bool {
	return now.After(t.expiresAt)
}

// IsValid reports whether the token can still be consumed at the given
// instant.
func (t *Token) IsValid(now time.Time) bool {
	return !t.used && !t.IsExpired(now)
}

// Consume marks the token used. Consuming is terminal.
func (t *Token) Consume(now time.Time) {
	t.used = true
	t.verifiedAt = &now
}
