// Package provider defines the narrow contract with the external
// identity platform that owns credentials, recovery emails and password
// resets. The orchestrator only ever sees this interface, so the whole
// auth surface is testable against a fake without network access.
package provider

import (
	"context"
	"errors"

	"github.com/driftline/storefront/internal/storefront/domain"
)

var (
	// ErrInvalidCredentials covers every provider-reported credential
	// rejection. Callers fold it into one generic client response.
	ErrInvalidCredentials = errors.New("provider: invalid credentials")

	// ErrCustomerNotFound means the provider token resolved to no customer.
	ErrCustomerNotFound = errors.New("provider: customer not found")

	// ErrUpstream covers transport failures and malformed provider
	// responses. Detail belongs in logs, never in client responses.
	ErrUpstream = errors.New("provider: upstream failure")
)

// IdentityProvider authenticates customers against the external platform.
type IdentityProvider interface {
	// Login exchanges a credential pair for an opaque provider token.
	Login(ctx context.Context, email, password string) (string, error)

	// GetCustomer resolves a provider token to its customer record.
	GetCustomer(ctx context.Context, providerToken string) (*domain.Customer, error)

	// RecoverPassword asks the provider to send a recovery email. The
	// outcome must not be surfaced to clients.
	RecoverPassword(ctx context.Context, email string) error

	// ResetPassword completes a reset and returns the customer plus a
	// fresh provider token so the caller can log the customer in.
	ResetPassword(ctx context.Context, customerID, resetToken, newPassword string) (*domain.Customer, string, error)
}
