package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/driftline/storefront/internal/storefront/domain"
	"github.com/driftline/storefront/pkg/slogx"
)

const (
	apiVersion = "2024-01"

	// Upstream calls must be bounded; a hung provider call would
	// otherwise hold the request open indefinitely.
	DefaultTimeout = 8 * time.Second
)

// ShopifyClient implements IdentityProvider against the Shopify
// Storefront GraphQL API.
type ShopifyClient struct {
	endpoint    string
	accessToken string
	http        *http.Client
}

// NewShopifyClient builds a client for the given shop domain
// (e.g. "example.myshopify.com") and storefront access token. A domain
// carrying an explicit scheme is used as-is, which lets tests point the
// client at a local stand-in.
func NewShopifyClient(shopDomain, accessToken string, timeout time.Duration) *ShopifyClient {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	base := shopDomain
	if !strings.Contains(base, "://") {
		base = "https://" + base
	}

	return &ShopifyClient{
		endpoint:    fmt.Sprintf("%s/api/%s/graphql.json", base, apiVersion),
		accessToken: accessToken,
		http:        &http.Client{Timeout: timeout},
	}
}

type userError struct {
	Code    string `json:"code"`
	Field   any    `json:"field"`
	Message string `json:"message"`
}

type customerPayload struct {
	ID               string    `json:"id"`
	Email            string    `json:"email"`
	FirstName        string    `json:"firstName"`
	LastName         string    `json:"lastName"`
	DisplayName      string    `json:"displayName"`
	Phone            string    `json:"phone"`
	AcceptsMarketing bool      `json:"acceptsMarketing"`
	CreatedAt        time.Time `json:"createdAt"`
}

func (p *customerPayload) toDomain() *domain.Customer {
	return &domain.Customer{
		ID:               p.ID,
		Email:            strings.ToLower(p.Email),
		FirstName:        p.FirstName,
		LastName:         p.LastName,
		DisplayName:      p.DisplayName,
		Phone:            p.Phone,
		AcceptsMarketing: p.AcceptsMarketing,
		CreatedAt:        p.CreatedAt,
	}
}

const loginMutation = `
mutation customerAccessTokenCreate($input: CustomerAccessTokenCreateInput!) {
  customerAccessTokenCreate(input: $input) {
    customerAccessToken { accessToken expiresAt }
    customerUserErrors { code field message }
  }
}`

func (c *ShopifyClient) Login(ctx context.Context, email, password string) (string, error) {
	var data struct {
		CustomerAccessTokenCreate struct {
			CustomerAccessToken *struct {
				AccessToken string `json:"accessToken"`
			} `json:"customerAccessToken"`
			CustomerUserErrors []userError `json:"customerUserErrors"`
		} `json:"customerAccessTokenCreate"`
	}

	variables := map[string]any{
		"input": map[string]string{"email": email, "password": password},
	}
	if err := c.do(ctx, loginMutation, variables, &data); err != nil {
		return "", err
	}

	payload := data.CustomerAccessTokenCreate
	if len(payload.CustomerUserErrors) > 0 || payload.CustomerAccessToken == nil ||
		payload.CustomerAccessToken.AccessToken == "" {
		slogx.FromContext(ctx).Debug("provider rejected credentials",
			"user_errors", len(payload.CustomerUserErrors))
		return "", ErrInvalidCredentials
	}

	return payload.CustomerAccessToken.AccessToken, nil
}

const customerQuery = `
query customer($token: String!) {
  customer(customerAccessToken: $token) {
    id email firstName lastName displayName phone acceptsMarketing createdAt
  }
}`

func (c *ShopifyClient) GetCustomer(ctx context.Context, providerToken string) (*domain.Customer, error) {
	var data struct {
		Customer *customerPayload `json:"customer"`
	}

	if err := c.do(ctx, customerQuery, map[string]any{"token": providerToken}, &data); err != nil {
		return nil, err
	}
	if data.Customer == nil || data.Customer.ID == "" {
		return nil, ErrCustomerNotFound
	}

	return data.Customer.toDomain(), nil
}

const recoverMutation = `
mutation customerRecover($email: String!) {
  customerRecover(email: $email) {
    customerUserErrors { code field message }
  }
}`

func (c *ShopifyClient) RecoverPassword(ctx context.Context, email string) error {
	var data struct {
		CustomerRecover struct {
			CustomerUserErrors []userError `json:"customerUserErrors"`
		} `json:"customerRecover"`
	}

	if err := c.do(ctx, recoverMutation, map[string]any{"email": email}, &data); err != nil {
		return err
	}
	if len(data.CustomerRecover.CustomerUserErrors) > 0 {
		// Includes "customer does not exist"; callers must not let this
		// reach the response.
		return ErrCustomerNotFound
	}

	return nil
}

const resetMutation = `
mutation customerReset($id: ID!, $input: CustomerResetInput!) {
  customerReset(id: $id, input: $input) {
    customer {
      id email firstName lastName displayName phone acceptsMarketing createdAt
    }
    customerAccessToken { accessToken expiresAt }
    customerUserErrors { code field message }
  }
}`

func (c *ShopifyClient) ResetPassword(ctx context.Context, customerID, resetToken, newPassword string) (*domain.Customer, string, error) {
	var data struct {
		CustomerReset struct {
			Customer            *customerPayload `json:"customer"`
			CustomerAccessToken *struct {
				AccessToken string `json:"accessToken"`
			} `json:"customerAccessToken"`
			CustomerUserErrors []userError `json:"customerUserErrors"`
		} `json:"customerReset"`
	}

	variables := map[string]any{
		"id":    customerGID(customerID),
		"input": map[string]string{"resetToken": resetToken, "password": newPassword},
	}
	if err := c.do(ctx, resetMutation, variables, &data); err != nil {
		return nil, "", err
	}

	payload := data.CustomerReset
	if len(payload.CustomerUserErrors) > 0 || payload.Customer == nil ||
		payload.CustomerAccessToken == nil || payload.CustomerAccessToken.AccessToken == "" {
		return nil, "", ErrInvalidCredentials
	}

	return payload.Customer.toDomain(), payload.CustomerAccessToken.AccessToken, nil
}

// customerGID widens a bare numeric customer ID into the global ID form
// the GraphQL API expects. IDs that already carry the prefix pass
// through unchanged.
func customerGID(id string) string {
	if strings.HasPrefix(id, "gid://") {
		return id
	}
	return "gid://shopify/Customer/" + id
}

// do executes one GraphQL request and decodes the data envelope into
// out. Transport failures and malformed or error-bearing envelopes all
// come back as ErrUpstream with the cause wrapped for logging.
func (c *ShopifyClient) do(ctx context.Context, query string, variables map[string]any, out any) error {
	body, err := json.Marshal(map[string]any{
		"query":     query,
		"variables": variables,
	})
	if err != nil {
		return fmt.Errorf("%w: encode request: %w", ErrUpstream, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: build request: %w", ErrUpstream, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Shopify-Storefront-Access-Token", c.accessToken)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%w: read response: %w", ErrUpstream, err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode)
	}

	var envelope struct {
		Data   json.RawMessage `json:"data"`
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return fmt.Errorf("%w: decode response: %w", ErrUpstream, err)
	}
	if len(envelope.Errors) > 0 {
		return fmt.Errorf("%w: graphql error: %s", ErrUpstream, envelope.Errors[0].Message)
	}
	if len(envelope.Data) == 0 {
		return fmt.Errorf("%w: empty data envelope", ErrUpstream)
	}

	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return fmt.Errorf("%w: decode data: %w", ErrUpstream, err)
	}

	return nil
}
