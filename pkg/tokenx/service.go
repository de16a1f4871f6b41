// Package tokenx mints and verifies the storefront's dual-token session
// credentials: a short-lived access token and a long-lived refresh token,
// signed with two independent HMAC secrets.
//
// Refresh tokens are rotated on every refresh but the previous one is not
// revoked; it stays verifiable until its own expiry. The jti claim is
// minted for log correlation and a future revocation list, it is not
// checked against any store today.
package tokenx

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is the single failure surfaced by verification. The
// underlying cause (bad signature, expiry, kind mismatch, ...) is wrapped
// for server-side logs but callers must not leak it to clients.
var ErrInvalidToken = errors.New("tokenx: invalid token")

// Pair is one minted access/refresh set.
type Pair struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    time.Duration
}

// Service signs and verifies both token kinds. The two secrets must be
// distinct and never derived from one another; missing secrets are a
// startup failure, not a per-request fallback.
type Service struct {
	AccessSecret  []byte
	RefreshSecret []byte
	Issuer        string
	Audience      string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration

	// Now is the clock used when minting; defaults to time.Now.
	Now func() time.Time
}

// NewService validates the secret material and fills in default TTLs.
func NewService(accessSecret, refreshSecret, issuer, audience string) (*Service, error) {
	if accessSecret == "" || refreshSecret == "" {
		return nil, errors.New("tokenx: both token secrets must be configured")
	}
	if accessSecret == refreshSecret {
		return nil, errors.New("tokenx: access and refresh secrets must differ")
	}

	return &Service{
		AccessSecret:  []byte(accessSecret),
		RefreshSecret: []byte(refreshSecret),
		Issuer:        issuer,
		Audience:      audience,
		AccessTTL:     DefaultAccessTTL,
		RefreshTTL:    DefaultRefreshTTL,
	}, nil
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// MintPair issues a fresh access/refresh pair for the customer. Only the
// refresh token embeds the provider token. Pure over the configured
// secrets and clock, no side effects.
func (s *Service) MintPair(customerID, email, providerToken string) (Pair, error) {
	now := s.now()

	access := newClaims(KindAccess, customerID, email, "", s.AccessTTL, s.Issuer, s.Audience, now)
	accessToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, access).SignedString(s.AccessSecret)
	if err != nil {
		return Pair{}, fmt.Errorf("tokenx: sign access token: %w", err)
	}

	refresh := newClaims(KindRefresh, customerID, email, providerToken, s.RefreshTTL, s.Issuer, s.Audience, now)
	refreshToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, refresh).SignedString(s.RefreshSecret)
	if err != nil {
		return Pair{}, fmt.Errorf("tokenx: sign refresh token: %w", err)
	}

	return Pair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    s.AccessTTL,
	}, nil
}

// VerifyAccess validates an access token: signature, issuer, audience,
// the nbf/exp window, and kind. A refresh token presented here fails.
func (s *Service) VerifyAccess(raw string) (Claims, error) {
	return s.verify(raw, s.AccessSecret, KindAccess)
}

// VerifyRefresh is the symmetric path for refresh tokens using the
// refresh secret.
func (s *Service) VerifyRefresh(raw string) (Claims, error) {
	return s.verify(raw, s.RefreshSecret, KindRefresh)
}

func (s *Service) verify(raw string, secret []byte, want Kind) (Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Header["alg"])
		}
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.Issuer),
		jwt.WithAudience(s.Audience),
		jwt.WithIssuedAt(),
	)
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !token.Valid {
		return Claims{}, ErrInvalidToken
	}

	if claims.Kind != want {
		return Claims{}, fmt.Errorf("%w: kind mismatch", ErrInvalidToken)
	}
	if claims.Subject == "" {
		return Claims{}, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}

	return *claims, nil
}
