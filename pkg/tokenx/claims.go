package tokenx

import (
	"time"

	"github.com/driftline/storefront/pkg/idx"
	"github.com/golang-jwt/jwt/v5"
)

// Kind discriminates what a token was minted for. It is signed into the
// payload so an access token can never be replayed as a refresh token or
// the other way around.
type Kind string

const (
	KindAccess  Kind = "access"
	KindRefresh Kind = "refresh"
)

// Default token TTLs. Access tokens stay short so a leaked one ages out
// quickly; refresh tokens carry the session for a week.
const (
	DefaultAccessTTL  = 15 * time.Minute
	DefaultRefreshTTL = 7 * 24 * time.Hour
)

// Claims are the signed payload shared by both token kinds.
//
// ProviderToken is the opaque credential issued by the upstream identity
// platform. It rides only inside refresh tokens; access tokens and every
// JSON response body must never carry it.
type Claims struct {
	jwt.RegisteredClaims

	Kind          Kind   `json:"knd"`
	Email         string `json:"email,omitempty"`
	ProviderToken string `json:"pvt,omitempty"`
}

func newClaims(kind Kind, subject, email, providerToken string, ttl time.Duration, issuer, audience string, now time.Time) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subject,
			Audience:  jwt.ClaimStrings{audience},
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        idx.New().String(),
		},
		Kind:          kind,
		Email:         email,
		ProviderToken: providerToken,
	}
}
