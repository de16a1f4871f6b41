package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/driftline/storefront/internal/storefront/service"
	"github.com/driftline/storefront/pkg/httpx"
	"github.com/driftline/storefront/pkg/slogx"
)

// recoverMessage is returned verbatim on every recovery request so the
// response cannot be used to probe for accounts.
const recoverMessage = "If an account exists for that email, a recovery link has been sent."

// RecoverHandler serves POST /auth/recover.
type RecoverHandler struct {
	Sessions *service.SessionService
}

type recoverRequest struct {
	Email string `json:"email"`
}

// ServeHTTP godoc
//
//	@Summary		Password Recovery
//	@Description	Requests a password recovery email. The acknowledgement is identical for
//	@Description	known and unknown addresses.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		recoverRequest			true	"Account email"
//	@Success		200		{object}	AcknowledgementResponse	"success, message"
//	@Failure		429		{object}	RateLimitedResponse		"error, retryAfter"
//	@Router			/auth/recover [post].
func (h *RecoverHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req recoverRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		// An unparseable body still gets the generic acknowledgement.
		req.Email = ""
	}

	key := httpx.ClientIP(r)
	if err := h.Sessions.Recover(ctx, key, req.Email); err != nil {
		var rl *service.RateLimitedError
		if errors.As(err, &rl) {
			writeRateLimited(w, rl)
			return
		}
		log.Error("recover failed", "err", err)
	}

	httpx.WriteJSON(w, http.StatusOK, AcknowledgementResponse{
		Success: true,
		Message: recoverMessage,
	})
}
