package entitlement_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/meridian-hq/meridian/modules/core/domain/entities/entitlement"
)

func TestTrialExpiryIsTemporalOverride(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	e := entitlement.New(uuid.New(), uuid.New())
	e.StartTrial(now.Add(time.Hour))

	require.Equal(t, entitlement.StatusTrial, e.Status())
	require.False(t, e.IsTrialExpired(now))
	require.Equal(t, entitlement.StatusTrial, e.EffectiveStatus(now))
	require.True(t, e.Enabled(now))

	later := now.Add(2 * time.Hour)
	require.True(t, e.IsTrialExpired(later))
	require.Equal(t, entitlement.StatusExpired, e.EffectiveStatus(later))
	require.False(t, e.Enabled(later))

	// The stored status never self-heals; the deadline is only ever layered
	// over it at read time.
	require.Equal(t, entitlement.StatusTrial, e.Status())
}

func TestExactDeadlineStillWithinTrial(t *testing.T) {
	deadline := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	e := entitlement.New(uuid.New(), uuid.New())
	e.StartTrial(deadline)

	require.False(t, e.IsTrialExpired(deadline))
	require.True(t, e.IsTrialExpired(deadline.Add(time.Nanosecond)))
}

func TestActivateClearsTrialDeadline(t *testing.T) {
	e := entitlement.New(uuid.New(), uuid.New())
	e.StartTrial(time.Now().Add(-time.Hour))
	e.Activate()

	now := time.Now()
	require.Equal(t, entitlement.StatusActive, e.EffectiveStatus(now))
	require.True(t, e.Enabled(now))
}

func TestNewStatusValidation(t *testing.T) {
	_, err := entitlement.NewStatus("paused")
	require.Error(t, err)

	s, err := entitlement.NewStatus("suspended")
	require.NoError(t, err)
	require.Equal(t, entitlement.StatusSuspended, s)
}
