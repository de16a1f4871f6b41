package http_test

import (
	nethttp "net/http"
	"net/http/httptest"
	"testing"

	storefronthttp "github.com/driftline/storefront/internal/storefront/http"
	"github.com/stretchr/testify/require"
)

func TestSessionCookie(t *testing.T) {
	t.Run("carries the refresh token with hardened attributes", func(t *testing.T) {
		m := storefronthttp.NewCookieManager(true)
		c := m.Session("refresh-jwt")

		require.Equal(t, "refreshToken", c.Name)
		require.Equal(t, "refresh-jwt", c.Value)
		require.Equal(t, "/", c.Path)
		require.Equal(t, 604800, c.MaxAge)
		require.True(t, c.HttpOnly)
		require.True(t, c.Secure)
		require.Equal(t, nethttp.SameSiteStrictMode, c.SameSite)
	})

	t.Run("secure flag follows the environment", func(t *testing.T) {
		require.False(t, storefronthttp.NewCookieManager(false).Session("x").Secure)
	})

	t.Run("clear expires both names with identical attributes", func(t *testing.T) {
		m := storefronthttp.NewCookieManager(true)
		session := m.Session("x")

		cleared := m.Clear()
		require.Len(t, cleared, 2)
		names := map[string]bool{}
		for _, c := range cleared {
			names[c.Name] = true
			require.Empty(t, c.Value)
			require.Negative(t, c.MaxAge)
			require.Equal(t, session.Path, c.Path)
			require.Equal(t, session.HttpOnly, c.HttpOnly)
			require.Equal(t, session.Secure, c.Secure)
			require.Equal(t, session.SameSite, c.SameSite)
		}
		require.True(t, names["refreshToken"])
		require.True(t, names["refresh_token"])
	})
}

func TestReadSession(t *testing.T) {
	newRequest := func(cookies ...*nethttp.Cookie) *nethttp.Request {
		r := httptest.NewRequest(nethttp.MethodPost, "/auth/refresh", nil)
		for _, c := range cookies {
			r.AddCookie(c)
		}
		return r
	}

	t.Run("prefers the current name over the legacy one", func(t *testing.T) {
		r := newRequest(
			&nethttp.Cookie{Name: "refresh_token", Value: "old"},
			&nethttp.Cookie{Name: "refreshToken", Value: "new"},
		)
		require.Equal(t, "new", storefronthttp.ReadSession(r))
	})

	t.Run("falls back to the legacy name", func(t *testing.T) {
		r := newRequest(&nethttp.Cookie{Name: "refresh_token", Value: "old"})
		require.Equal(t, "old", storefronthttp.ReadSession(r))
	})

	t.Run("empty when no cookie is present", func(t *testing.T) {
		require.Empty(t, storefronthttp.ReadSession(newRequest()))
	})
}
