package middleware

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeHost(t *testing.T) {
	cases := map[string]string{
		"Shop.Acme.COM":        "shop.acme.com",
		" shop.acme.com:8443 ": "shop.acme.com",
		"localhost:3200":       "localhost",
		"":                     "",
		"  ":                   "",
	}
	for raw, want := range cases {
		require.Equal(t, want, normalizeHost(raw), "raw=%q", raw)
	}
}
