package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/meridian-hq/meridian/modules/core/domain/aggregates/user"
	"github.com/meridian-hq/meridian/modules/core/domain/entities/verification"
)

var (
	// ErrTokenInvalid covers both terminal states: consumed and expired.
	// Neither is recoverable; the caller must issue a fresh token.
	ErrTokenInvalid = fmt.Errorf("verification token is invalid or expired")
)

type VerificationServiceOption func(*VerificationService)

// WithVerificationClock overrides the validity clock, for tests.
func WithVerificationClock(clock func() time.Time) VerificationServiceOption {
	return func(s *VerificationService) {
		s.clock = clock
	}
}

// VerificationService issues and consumes email verification tokens.
// Issuing a token invalidates (deletes) any prior unconsumed token for the
// same principal; a principal has at most one live token.
type VerificationService struct {
	tokens verification.Repository
	users  user.Repository
	clock  func() time.Time
}

func NewVerificationService(tokens verification.Repository, users user.Repository, opts ...VerificationServiceOption) *VerificationService {
	s := &VerificationService{
		tokens: tokens,
		users:  users,
		clock:  time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Issue creates a fresh token for the principal, replacing any unconsumed
// predecessor.
func (s *VerificationService) Issue(ctx context.Context, userID uuid.UUID) (*verification.Token, error) {
	t, err := verification.New(userID)
	if err != nil {
		return nil, err
	}
	return s.tokens.Replace(ctx, t)
}

// Confirm consumes a token by value and marks the principal's email
// verified. Consumed and expired tokens fail identically.
func (s *VerificationService) Confirm(ctx context.Context, value string) (user.User, error) {
	t, err := s.tokens.GetByValue(ctx, value)
	if err != nil {
		return nil, ErrTokenInvalid
	}

	now := s.clock()
	if !t.IsValid(now) {
		return nil, ErrTokenInvalid
	}

	t.Consume(now)
	if err := s.tokens.Update(ctx, t); err != nil {
		return nil, err
	}

	u, err := s.users.GetByID(ctx, t.UserID())
	if err != nil {
		return nil, err
	}
	u.MarkEmailVerified()
	return s.users.Update(ctx, u)
}

// IsValid reports whether the token value would currently validate, without
// consuming it.
func (s *VerificationService) IsValid(ctx context.Context, value string) bool {
	t, err := s.tokens.GetByValue(ctx, value)
	if err != nil {
		return false
	}
	return t.IsValid(s.clock())
}
