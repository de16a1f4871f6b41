package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("ACCESS_TOKEN_SECRET", "access-secret-0123456789abcdef!!")
	t.Setenv("REFRESH_TOKEN_SECRET", "refresh-secret-0123456789abcdef!")
	t.Setenv("SHOP_DOMAIN", "example.myshopify.com")
	t.Setenv("STOREFRONT_API_TOKEN", "storefront-token")
}

func TestLoadConfig(t *testing.T) {
	t.Run("applies defaults", func(t *testing.T) {
		setRequiredEnv(t)

		cfg, err := LoadConfig()
		require.NoError(t, err)
		require.Equal(t, "storefront-auth", cfg.Issuer)
		require.Equal(t, "storefront-web", cfg.Audience)
		require.Equal(t, 8*time.Second, cfg.ProviderTimeout)
		require.Equal(t, "memory", cfg.LockoutStore)
		require.Equal(t, "dev", cfg.Env)
		require.Equal(t, 8080, cfg.Port)
		require.Equal(t, 10*time.Second, cfg.ShutdownGracePeriod)
		require.Empty(t, cfg.AllowedOrigins)
		require.False(t, cfg.IsProd())
	})

	t.Run("missing token secrets are fatal", func(t *testing.T) {
		setRequiredEnv(t)
		t.Setenv("REFRESH_TOKEN_SECRET", "")

		_, err := LoadConfig()
		require.ErrorIs(t, err, ErrMissingTokenSecrets)
	})

	t.Run("missing provider credentials are fatal", func(t *testing.T) {
		setRequiredEnv(t)
		t.Setenv("SHOP_DOMAIN", "")

		_, err := LoadConfig()
		require.ErrorIs(t, err, ErrMissingProvider)
	})

	t.Run("parses origins and overrides", func(t *testing.T) {
		setRequiredEnv(t)
		t.Setenv("ALLOWED_ORIGINS", "https://shop.example.com, https://staging.example.com ,")
		t.Setenv("ENV", "prod")
		t.Setenv("PORT", "9090")
		t.Setenv("PROVIDER_TIMEOUT", "3s")
		t.Setenv("LOCKOUT_STORE", "sqlite")

		cfg, err := LoadConfig()
		require.NoError(t, err)
		require.Equal(t, []string{"https://shop.example.com", "https://staging.example.com"}, cfg.AllowedOrigins)
		require.True(t, cfg.IsProd())
		require.Equal(t, 9090, cfg.Port)
		require.Equal(t, 3*time.Second, cfg.ProviderTimeout)
		require.Equal(t, "sqlite", cfg.LockoutStore)
	})

	t.Run("malformed numeric overrides fall back to defaults", func(t *testing.T) {
		setRequiredEnv(t)
		t.Setenv("PORT", "not-a-port")
		t.Setenv("SHUTDOWN_GRACE_PERIOD", "soon")

		cfg, err := LoadConfig()
		require.NoError(t, err)
		require.Equal(t, 8080, cfg.Port)
		require.Equal(t, 10*time.Second, cfg.ShutdownGracePeriod)
	})
}
