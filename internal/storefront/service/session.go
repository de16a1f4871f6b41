// Package service orchestrates the four session flows: login, refresh,
// recover and reset. Validation failures and credential rejections are
// folded into the same generic errors on purpose, so responses never
// reveal whether an account exists.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"net/url"
	"strings"
	"time"
	"unicode"

	"github.com/driftline/storefront/internal/storefront/domain"
	"github.com/driftline/storefront/internal/storefront/provider"
	"github.com/driftline/storefront/pkg/lockout"
	"github.com/driftline/storefront/pkg/slogx"
	"github.com/driftline/storefront/pkg/tokenx"
)

const minPasswordLength = 8

var (
	// ErrInvalidCredentials covers malformed login input and rejected
	// credentials alike; clients must not be able to tell them apart.
	ErrInvalidCredentials = errors.New("invalid_credentials")

	// ErrInvalidSession covers every refresh failure: bad token, expired
	// token, customer mismatch, provider failure. Fail closed.
	ErrInvalidSession = errors.New("invalid_session")

	// ErrInvalidResetLink covers malformed or expired reset URLs.
	ErrInvalidResetLink = errors.New("invalid_reset_link")

	// ErrWeakPassword reports a reset password missing the composite
	// strength requirements.
	ErrWeakPassword = errors.New("weak_password")
)

// RateLimitedError reports an active lockout. It never reveals how many
// attempts remain, only when to come back.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limited, retry after %s", e.RetryAfter)
}

// RetryAfterSeconds rounds up so a client never retries early.
func (e *RateLimitedError) RetryAfterSeconds() int {
	secs := int((e.RetryAfter + time.Second - 1) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return secs
}

// SessionService composes the identity provider, token service and
// lockout limiters into the four request flows.
type SessionService struct {
	Provider       provider.IdentityProvider
	Tokens         *tokenx.Service
	LoginLimiter   *lockout.Limiter
	RecoverLimiter *lockout.Limiter
}

// Login authenticates a credential pair and mints a session.
//
// The flow deliberately reports one literal message for malformed input
// and wrong credentials, and the limiter is consulted before the
// provider is ever contacted.
func (s *SessionService) Login(ctx context.Context, clientKey, email, password string) (*domain.Session, error) {
	l := slogx.FromContext(ctx)

	// 1. Lockout gate. Blocked keys never reach the provider.
	if err := s.checkLimiter(ctx, s.LoginLimiter, clientKey); err != nil {
		return nil, err
	}

	// 2. Schema validation, folded into the generic rejection.
	email, ok := normalizeEmail(email)
	if !ok || len(password) < minPasswordLength {
		l.Info("login rejected: malformed input")
		return nil, ErrInvalidCredentials
	}

	// 3. Credential check against the provider.
	providerToken, err := s.Provider.Login(ctx, email, password)
	if err != nil || providerToken == "" {
		s.recordFailure(ctx, s.LoginLimiter, clientKey)
		l.Info("login rejected", slog.Any("cause", err))
		return nil, ErrInvalidCredentials
	}

	// 4. Resolve the customer record. Absence is treated exactly like a
	// credential rejection.
	customer, err := s.Provider.GetCustomer(ctx, providerToken)
	if err != nil {
		s.recordFailure(ctx, s.LoginLimiter, clientKey)
		l.Info("login rejected: customer lookup failed", slog.Any("cause", err))
		return nil, ErrInvalidCredentials
	}

	// 5. Mint the pair, 6. clear lockout state.
	session, err := s.mintSession(customer, providerToken)
	if err != nil {
		return nil, err
	}
	if err := s.LoginLimiter.Clear(ctx, clientKey); err != nil {
		l.Warn("failed to clear lockout entry", slog.Any("error", err))
	}

	return session, nil
}

// Refresh rotates a session from its refresh token. The previous refresh
// token is not revoked; it ages out at its own expiry.
func (s *SessionService) Refresh(ctx context.Context, refreshToken string) (*domain.Session, error) {
	l := slogx.FromContext(ctx)

	claims, err := s.Tokens.VerifyRefresh(refreshToken)
	if err != nil {
		l.Info("refresh rejected: token verification failed", slog.Any("cause", err))
		return nil, ErrInvalidSession
	}

	// Re-fetch the customer and require it to still match the token's
	// subject, guarding against an upstream account change.
	customer, err := s.Provider.GetCustomer(ctx, claims.ProviderToken)
	if err != nil {
		l.Info("refresh rejected: customer lookup failed", slog.Any("cause", err))
		return nil, ErrInvalidSession
	}
	if customer.ID != claims.Subject {
		l.Warn("refresh rejected: subject mismatch",
			slog.String("token_subject", claims.Subject),
			slog.String("customer_id", customer.ID))
		return nil, ErrInvalidSession
	}

	return s.mintSession(customer, claims.ProviderToken)
}

// Recover asks the provider to send a recovery email. Whatever happens
// upstream, the caller responds with the same generic acknowledgement;
// only the lockout gate may short-circuit with a distinct status.
func (s *SessionService) Recover(ctx context.Context, clientKey, email string) error {
	l := slogx.FromContext(ctx)

	if err := s.checkLimiter(ctx, s.RecoverLimiter, clientKey); err != nil {
		return err
	}

	// Every request counts toward the window; there is no observable
	// success to clear on.
	s.recordFailure(ctx, s.RecoverLimiter, clientKey)

	email, ok := normalizeEmail(email)
	if !ok {
		l.Info("recover skipped: malformed email")
		return nil
	}

	if err := s.Provider.RecoverPassword(ctx, email); err != nil {
		l.Info("recover outcome suppressed", slog.Any("cause", err))
	}

	return nil
}

// Reset completes a password reset from a provider-issued reset URL and
// logs the customer in immediately.
func (s *SessionService) Reset(ctx context.Context, resetURL, password string) (*domain.Session, error) {
	l := slogx.FromContext(ctx)

	if err := validatePasswordStrength(password); err != nil {
		return nil, err
	}

	customerID, resetToken, err := parseResetURL(resetURL)
	if err != nil {
		l.Info("reset rejected: malformed reset url")
		return nil, ErrInvalidResetLink
	}

	customer, providerToken, err := s.Provider.ResetPassword(ctx, customerID, resetToken, password)
	if err != nil {
		l.Info("reset rejected by provider", slog.Any("cause", err))
		return nil, ErrInvalidResetLink
	}

	return s.mintSession(customer, providerToken)
}

func (s *SessionService) mintSession(customer *domain.Customer, providerToken string) (*domain.Session, error) {
	pair, err := s.Tokens.MintPair(customer.ID, customer.Email, providerToken)
	if err != nil {
		return nil, err
	}

	return &domain.Session{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresIn:    int(pair.ExpiresIn.Seconds()),
		Customer:     *customer,
	}, nil
}

// checkLimiter translates a lockout decision into a RateLimitedError.
// Limiter store failures fail open: locking every customer out because
// a shared store hiccuped is the worse trade.
func (s *SessionService) checkLimiter(ctx context.Context, limiter *lockout.Limiter, key string) error {
	decision, err := limiter.Check(ctx, key)
	if err != nil {
		slogx.FromContext(ctx).Error("lockout check failed, allowing request", slog.Any("error", err))
		return nil
	}
	if decision.Blocked {
		return &RateLimitedError{RetryAfter: decision.RetryAfter}
	}
	return nil
}

func (s *SessionService) recordFailure(ctx context.Context, limiter *lockout.Limiter, key string) {
	if err := limiter.Fail(ctx, key); err != nil {
		slogx.FromContext(ctx).Error("failed to record lockout attempt", slog.Any("error", err))
	}
}

// normalizeEmail reports whether the address is well formed and returns
// it lower-cased. Display-name forms ("Jane <jane@example.com>") are
// rejected; the provider expects a bare address.
func normalizeEmail(email string) (string, bool) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" {
		return "", false
	}

	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", false
	}

	return email, true
}

// validatePasswordStrength enforces the composite reset policy: length,
// upper, lower, digit and symbol.
func validatePasswordStrength(password string) error {
	if len(password) < minPasswordLength {
		return ErrWeakPassword
	}

	var hasUpper, hasLower, hasDigit, hasSymbol bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			hasSymbol = true
		}
	}

	if !hasUpper || !hasLower || !hasDigit || !hasSymbol {
		return ErrWeakPassword
	}
	return nil
}

// parseResetURL extracts the customer ID and reset token from the
// trailing ".../reset/{customerId}/{resetToken}" segments of a
// provider-issued reset URL. Malformed input returns an error, never a
// panic.
func parseResetURL(resetURL string) (customerID, resetToken string, err error) {
	u, err := url.Parse(strings.TrimSpace(resetURL))
	if err != nil {
		return "", "", ErrInvalidResetLink
	}

	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i, seg := range segments {
		if seg != "reset" || i+2 >= len(segments) {
			continue
		}
		if segments[i+1] == "" || segments[i+2] == "" {
			continue
		}
		return segments[i+1], segments[i+2], nil
	}

	return "", "", ErrInvalidResetLink
}
