package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/meridian-hq/meridian/modules/core/domain/aggregates/user"
	"github.com/meridian-hq/meridian/modules/core/domain/entities/verification"
)

func TestIssueReplacesPriorToken(t *testing.T) {
	u := user.New("pending@acme.test")
	tokens := newFakeTokenRepo()
	svc := NewVerificationService(tokens, newFakeUserRepo(u))

	first, err := svc.Issue(context.Background(), u.ID())
	require.NoError(t, err)
	second, err := svc.Issue(context.Background(), u.ID())
	require.NoError(t, err)
	require.NotEqual(t, first.Value(), second.Value())

	// Exactly one live token per principal.
	remaining := tokens.tokensForUser(u.ID())
	require.Len(t, remaining, 1)
	require.Equal(t, second.Value(), remaining[0].Value())

	require.False(t, svc.IsValid(context.Background(), first.Value()))
	require.True(t, svc.IsValid(context.Background(), second.Value()))
}

func TestConfirmMarksEmailVerified(t *testing.T) {
	u := user.New("pending@acme.test")
	require.False(t, u.EmailVerified())
	svc := NewVerificationService(newFakeTokenRepo(), newFakeUserRepo(u))

	tok, err := svc.Issue(context.Background(), u.ID())
	require.NoError(t, err)

	verified, err := svc.Confirm(context.Background(), tok.Value())
	require.NoError(t, err)
	require.True(t, verified.EmailVerified())
}

func TestConfirmIsTerminal(t *testing.T) {
	u := user.New("pending@acme.test")
	svc := NewVerificationService(newFakeTokenRepo(), newFakeUserRepo(u))

	tok, err := svc.Issue(context.Background(), u.ID())
	require.NoError(t, err)

	_, err = svc.Confirm(context.Background(), tok.Value())
	require.NoError(t, err)

	// A consumed token never validates again.
	_, err = svc.Confirm(context.Background(), tok.Value())
	require.ErrorIs(t, err, ErrTokenInvalid)
	require.False(t, svc.IsValid(context.Background(), tok.Value()))
}

func TestUserLookupSkipsConsumedTokens(t *testing.T) {
	u := user.New("pending@acme.test")
	tokens := newFakeTokenRepo()
	svc := NewVerificationService(tokens, newFakeUserRepo(u))

	first, err := svc.Issue(context.Background(), u.ID())
	require.NoError(t, err)
	_, err = svc.Confirm(context.Background(), first.Value())
	require.NoError(t, err)

	// The consumed row stays behind; only the fresh token is the live one.
	second, err := svc.Issue(context.Background(), u.ID())
	require.NoError(t, err)

	live, err := tokens.GetByUserID(context.Background(), u.ID())
	require.NoError(t, err)
	require.Equal(t, second.Value(), live.Value())
}

func TestConfirmExpiredToken(t *testing.T) {
	u := user.New("pending@acme.test")
	tokens := newFakeTokenRepo()

	issued := time.Now().Add(-verification.Lifetime - time.Minute)
	svc := NewVerificationService(tokens, newFakeUserRepo(u))

	tok, err := verification.New(u.ID(), verification.WithCreatedAt(issued))
	require.NoError(t, err)
	_, err = tokens.Replace(context.Background(), tok)
	require.NoError(t, err)

	_, err = svc.Confirm(context.Background(), tok.Value())
	require.ErrorIs(t, err, ErrTokenInvalid)
}

func TestConfirmUnknownToken(t *testing.T) {
	svc := NewVerificationService(newFakeTokenRepo(), newFakeUserRepo())

	_, err := svc.Confirm(context.Background(), "nonsense")
	require.ErrorIs(t, err, ErrTokenInvalid)
}
