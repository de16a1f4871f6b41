package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/driftline/storefront/internal/storefront/service"
	"github.com/driftline/storefront/pkg/httpx"
	"github.com/driftline/storefront/pkg/slogx"
)

// LoginHandler serves POST /auth/login.
type LoginHandler struct {
	Sessions *service.SessionService
	Cookies  *CookieManager
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ServeHTTP godoc
//
//	@Summary		Customer Login
//	@Description	Authenticates a customer credential pair and establishes a session.
//	@Description	The refresh token is set as an HttpOnly cookie and never appears in the body.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		loginRequest		true	"Credentials"
//	@Success		200		{object}	SessionResponse		"accessToken, user, expiresIn, tokenType"
//	@Failure		401		{object}	httpx.ErrorResponse	"error"
//	@Failure		429		{object}	RateLimitedResponse	"error, retryAfter"
//	@Header			200		{string}	Set-Cookie			"refreshToken session cookie"
//	@Router			/auth/login [post].
func (h *LoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		// Unparseable bodies get the same rejection as bad credentials.
		httpx.WriteError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	// The lockout key is the client IP alone. Keying on the submitted
	// email as well would give an attacker a fresh window per target
	// address from one source.
	key := httpx.ClientIP(r)
	session, err := h.Sessions.Login(ctx, key, req.Email, req.Password)
	if err != nil {
		var rl *service.RateLimitedError
		switch {
		case errors.As(err, &rl):
			writeRateLimited(w, rl)
		case errors.Is(err, service.ErrInvalidCredentials):
			httpx.WriteError(w, http.StatusUnauthorized, "Invalid credentials")
		default:
			log.Error("login failed", "err", err)
			httpx.WriteError(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	h.Cookies.SetSession(w, session.RefreshToken)
	httpx.WriteJSON(w, http.StatusOK, newSessionResponse(session, false))
}
