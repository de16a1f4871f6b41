package http

import (
	"errors"
	"net/http"

	"github.com/driftline/storefront/internal/storefront/service"
	"github.com/driftline/storefront/pkg/httpx"
	"github.com/driftline/storefront/pkg/slogx"
)

// RefreshHandler serves POST /auth/refresh.
type RefreshHandler struct {
	Sessions *service.SessionService
	Cookies  *CookieManager
}

// ServeHTTP godoc
//
//	@Summary		Session Refresh
//	@Description	Rotates the session from the refresh token cookie. Both tokens are reissued
//	@Description	and the cookie is replaced. Any failure clears the session cookies.
//	@Tags			Auth
//	@Produce		json
//	@Success		200	{object}	SessionResponse		"accessToken, user, expiresIn, tokenType"
//	@Failure		401	{object}	httpx.ErrorResponse	"error"
//	@Header			200	{string}	Set-Cookie			"rotated refreshToken session cookie"
//	@Router			/auth/refresh [post].
func (h *RefreshHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	refreshToken := ReadSession(r)
	if refreshToken == "" {
		httpx.WriteError(w, http.StatusUnauthorized, "No refresh token provided")
		return
	}

	session, err := h.Sessions.Refresh(ctx, refreshToken)
	if err != nil {
		// A dead session cookie is useless; expire it so the client
		// stops retrying with it.
		h.Cookies.ClearSession(w)
		if !errors.Is(err, service.ErrInvalidSession) {
			log.Error("refresh failed", "err", err)
		}
		httpx.WriteError(w, http.StatusUnauthorized, "Invalid or expired refresh token")
		return
	}

	h.Cookies.SetSession(w, session.RefreshToken)
	httpx.WriteJSON(w, http.StatusOK, newSessionResponse(session, false))
}
