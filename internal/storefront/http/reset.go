package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/driftline/storefront/internal/storefront/service"
	"github.com/driftline/storefront/pkg/httpx"
	"github.com/driftline/storefront/pkg/slogx"
)

// ResetHandler serves POST /auth/reset.
type ResetHandler struct {
	Sessions *service.SessionService
	Cookies  *CookieManager
}

type resetRequest struct {
	ResetURL string `json:"resetUrl"`
	Password string `json:"password"`
}

// ServeHTTP godoc
//
//	@Summary		Password Reset
//	@Description	Completes a password reset from a provider-issued reset URL and logs the
//	@Description	customer in immediately, setting the session cookie.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		resetRequest		true	"Reset URL and new password"
//	@Success		200		{object}	SessionResponse		"success, accessToken, user, expiresIn, tokenType"
//	@Failure		400		{object}	httpx.ErrorResponse	"error"
//	@Header			200		{string}	Set-Cookie			"refreshToken session cookie"
//	@Router			/auth/reset [post].
func (h *ResetHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req resetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "Invalid or expired reset link")
		return
	}

	session, err := h.Sessions.Reset(ctx, req.ResetURL, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrWeakPassword):
			httpx.WriteError(w, http.StatusBadRequest,
				"Password must be at least 8 characters and include upper and lower case letters, a number and a symbol")
		case errors.Is(err, service.ErrInvalidResetLink):
			httpx.WriteError(w, http.StatusBadRequest, "Invalid or expired reset link")
		default:
			log.Error("reset failed", "err", err)
			httpx.WriteError(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	h.Cookies.SetSession(w, session.RefreshToken)
	httpx.WriteJSON(w, http.StatusOK, newSessionResponse(session, true))
}
