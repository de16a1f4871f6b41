package http

import (
	"net/http"
	"time"

	"github.com/driftline/storefront/pkg/httpx"
	"github.com/driftline/storefront/pkg/lockout"
)

// ReadyzHandler godoc
//
//	@Summary		Readiness Check Endpoint
//	@Description	Readiness probe checking the lockout store. Returns 503 with a degraded
//	@Description	status when the store is unreachable.
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	HealthResponse	"status, uptime, version, checks"
//	@Failure		503	{object}	HealthResponse	"status, uptime, version, checks"
//	@Router			/readyz [get].
func ReadyzHandler(startTime time.Time, version string, store lockout.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := &HealthChecks{LockoutStore: "ok"}
		status := "ok"
		code := http.StatusOK

		if err := store.Ping(r.Context()); err != nil {
			checks.LockoutStore = "error: " + err.Error()
			status = "degraded"
			code = http.StatusServiceUnavailable
		}

		httpx.WriteJSON(w, code, HealthResponse{
			Status:  status,
			Uptime:  time.Since(startTime).String(),
			Version: version,
			Checks:  checks,
		})
	}
}
