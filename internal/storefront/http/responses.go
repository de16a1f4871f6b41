package http

import (
	"net/http"
	"strconv"

	"github.com/driftline/storefront/internal/storefront/domain"
	"github.com/driftline/storefront/internal/storefront/service"
	"github.com/driftline/storefront/pkg/httpx"
)

// SessionResponse is the body of every successful login, refresh and
// reset. The refresh token is absent on purpose; it travels only in the
// session cookie.
type SessionResponse struct {
	Success     bool            `json:"success,omitempty"`
	AccessToken string          `json:"accessToken"`
	User        domain.Customer `json:"user"`
	ExpiresIn   int             `json:"expiresIn"`
	TokenType   string          `json:"tokenType"`
}

// AcknowledgementResponse is the uniform recovery acknowledgement. It is
// byte-identical whether or not the account exists.
type AcknowledgementResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// RateLimitedResponse tells the client when to retry. It never reveals
// attempt counts or thresholds.
type RateLimitedResponse struct {
	Error      string `json:"error"`
	RetryAfter int    `json:"retryAfter"`
}

// HealthResponse is shared by the liveness and readiness probes.
type HealthResponse struct {
	Status  string        `json:"status"`
	Uptime  string        `json:"uptime"`
	Version string        `json:"version"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}

type HealthChecks struct {
	LockoutStore string `json:"lockoutStore"`
}

func newSessionResponse(session *domain.Session, withSuccess bool) SessionResponse {
	return SessionResponse{
		Success:     withSuccess,
		AccessToken: session.AccessToken,
		User:        session.Customer,
		ExpiresIn:   session.ExpiresIn,
		TokenType:   "Bearer",
	}
}

func writeRateLimited(w http.ResponseWriter, rl *service.RateLimitedError) {
	w.Header().Set("Retry-After", strconv.Itoa(rl.RetryAfterSeconds()))
	httpx.WriteJSON(w, http.StatusTooManyRequests, RateLimitedResponse{
		Error:      "Too many attempts. Please try again later.",
		RetryAfter: rl.RetryAfterSeconds(),
	})
}
