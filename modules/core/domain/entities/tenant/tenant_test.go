package tenant_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/meridian-hq/meridian/modules/core/domain/entities/tenant"
)

func TestNewDefaults(t *testing.T) {
	tn := tenant.New("Acme Retail")

	require.NotEqual(t, uuid.Nil, tn.ID())
	require.Equal(t, "Acme Retail", tn.Name())
	require.Equal(t, "acme retail", tn.Slug())
	require.True(t, tn.IsActive())
}

func TestDomainIsNormalized(t *testing.T) {
	tn := tenant.New("Acme", tenant.WithDomain("  Shop.Acme.COM "))
	require.Equal(t, "shop.acme.com", tn.Domain())

	tn.SetDomain(" STORE.acme.com")
	require.Equal(t, "store.acme.com", tn.Domain())
}

func TestExplicitSlugWins(t *testing.T) {
	tn := tenant.New("Acme Retail", tenant.WithSlug("ACME"))
	require.Equal(t, "acme", tn.Slug())
}
