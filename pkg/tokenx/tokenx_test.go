package tokenx_test

import (
	"testing"
	"time"

	"github.com/driftline/storefront/pkg/tokenx"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

const (
	testIssuer   = "storefront-auth"
	testAudience = "storefront-web"
)

func newTestService(t *testing.T) *tokenx.Service {
	t.Helper()

	svc, err := tokenx.NewService("access-secret-1", "refresh-secret-2", testIssuer, testAudience)
	require.NoError(t, err)
	return svc
}

func TestNewService(t *testing.T) {
	t.Parallel()

	t.Run("rejects missing secrets", func(t *testing.T) {
		_, err := tokenx.NewService("", "refresh", testIssuer, testAudience)
		require.Error(t, err)

		_, err = tokenx.NewService("access", "", testIssuer, testAudience)
		require.Error(t, err)
	})

	t.Run("rejects identical secrets", func(t *testing.T) {
		_, err := tokenx.NewService("same", "same", testIssuer, testAudience)
		require.Error(t, err)
	})

	t.Run("applies default TTLs", func(t *testing.T) {
		svc := newTestService(t)
		require.Equal(t, 15*time.Minute, svc.AccessTTL)
		require.Equal(t, 7*24*time.Hour, svc.RefreshTTL)
	})
}

func TestMintPairRoundTrip(t *testing.T) {
	t.Parallel()
	svc := newTestService(t)

	pair, err := svc.MintPair("cust-123", "jane@example.com", "provider-tok")
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	require.Equal(t, 15*time.Minute, pair.ExpiresIn)

	t.Run("access token recovers subject and email", func(t *testing.T) {
		claims, err := svc.VerifyAccess(pair.AccessToken)
		require.NoError(t, err)
		require.Equal(t, "cust-123", claims.Subject)
		require.Equal(t, "jane@example.com", claims.Email)
		require.Equal(t, tokenx.KindAccess, claims.Kind)
		require.NotEmpty(t, claims.ID)
	})

	t.Run("access token never carries the provider token", func(t *testing.T) {
		claims, err := svc.VerifyAccess(pair.AccessToken)
		require.NoError(t, err)
		require.Empty(t, claims.ProviderToken)
	})

	t.Run("refresh token embeds the provider token", func(t *testing.T) {
		claims, err := svc.VerifyRefresh(pair.RefreshToken)
		require.NoError(t, err)
		require.Equal(t, "cust-123", claims.Subject)
		require.Equal(t, "provider-tok", claims.ProviderToken)
		require.Equal(t, tokenx.KindRefresh, claims.Kind)
	})

	t.Run("pair carries distinct token ids", func(t *testing.T) {
		access, err := svc.VerifyAccess(pair.AccessToken)
		require.NoError(t, err)
		refresh, err := svc.VerifyRefresh(pair.RefreshToken)
		require.NoError(t, err)
		require.NotEqual(t, access.ID, refresh.ID)
	})
}

func TestAccessTokenExpiresIn900Seconds(t *testing.T) {
	t.Parallel()
	svc := newTestService(t)

	minted := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc.Now = func() time.Time { return minted }

	pair, err := svc.MintPair("cust-1", "a@example.com", "tok")
	require.NoError(t, err)

	// Decode without the clock-sensitive validation to inspect timestamps.
	claims := &tokenx.Claims{}
	parser := jwt.NewParser(jwt.WithoutClaimsValidation())
	_, _, err = parser.ParseUnverified(pair.AccessToken, claims)
	require.NoError(t, err)

	require.Equal(t, minted.Unix(), claims.IssuedAt.Unix())
	require.Equal(t, minted.Unix(), claims.NotBefore.Unix())
	require.Equal(t, int64(900), claims.ExpiresAt.Unix()-claims.IssuedAt.Unix())
}

func TestVerifyRejectsKindConfusion(t *testing.T) {
	t.Parallel()
	svc := newTestService(t)

	pair, err := svc.MintPair("cust-1", "a@example.com", "tok")
	require.NoError(t, err)

	t.Run("access verify rejects refresh token", func(t *testing.T) {
		_, err := svc.VerifyAccess(pair.RefreshToken)
		require.ErrorIs(t, err, tokenx.ErrInvalidToken)
	})

	t.Run("refresh verify rejects access token", func(t *testing.T) {
		_, err := svc.VerifyRefresh(pair.AccessToken)
		require.ErrorIs(t, err, tokenx.ErrInvalidToken)
	})
}

func TestVerifyFailsUniformly(t *testing.T) {
	t.Parallel()
	svc := newTestService(t)

	t.Run("garbage token", func(t *testing.T) {
		_, err := svc.VerifyAccess("not-a-token")
		require.ErrorIs(t, err, tokenx.ErrInvalidToken)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other, err := tokenx.NewService("different-a", "different-r", testIssuer, testAudience)
		require.NoError(t, err)

		pair, err := other.MintPair("cust-1", "a@example.com", "")
		require.NoError(t, err)

		_, err = svc.VerifyAccess(pair.AccessToken)
		require.ErrorIs(t, err, tokenx.ErrInvalidToken)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		other, err := tokenx.NewService("access-secret-1", "refresh-secret-2", "someone-else", testAudience)
		require.NoError(t, err)

		pair, err := other.MintPair("cust-1", "a@example.com", "")
		require.NoError(t, err)

		_, err = svc.VerifyAccess(pair.AccessToken)
		require.ErrorIs(t, err, tokenx.ErrInvalidToken)
	})

	t.Run("wrong audience", func(t *testing.T) {
		other, err := tokenx.NewService("access-secret-1", "refresh-secret-2", testIssuer, "other-app")
		require.NoError(t, err)

		pair, err := other.MintPair("cust-1", "a@example.com", "")
		require.NoError(t, err)

		_, err = svc.VerifyAccess(pair.AccessToken)
		require.ErrorIs(t, err, tokenx.ErrInvalidToken)
	})

	t.Run("expired token", func(t *testing.T) {
		svc := newTestService(t)
		svc.Now = func() time.Time { return time.Now().Add(-16 * time.Minute) }

		pair, err := svc.MintPair("cust-1", "a@example.com", "")
		require.NoError(t, err)

		svc.Now = nil
		_, err = svc.VerifyAccess(pair.AccessToken)
		require.ErrorIs(t, err, tokenx.ErrInvalidToken)
	})

	t.Run("tampered payload", func(t *testing.T) {
		pair, err := svc.MintPair("cust-1", "a@example.com", "")
		require.NoError(t, err)

		tampered := pair.AccessToken[:len(pair.AccessToken)-4] + "AAAA"
		_, err = svc.VerifyAccess(tampered)
		require.ErrorIs(t, err, tokenx.ErrInvalidToken)
	})
}
