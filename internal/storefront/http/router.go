// Package http wires the session flows onto the HTTP surface: routing,
// request decoding, cookie handling and the mapping from service errors
// to response bodies.
package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/driftline/storefront/internal/storefront/service"
	"github.com/driftline/storefront/pkg/httpx"
	"github.com/driftline/storefront/pkg/lockout"
	"github.com/driftline/storefront/pkg/slogx"

	_ "github.com/driftline/storefront/api/storefront" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	Sessions     *service.SessionService
	Cookies      *CookieManager
	LockoutStore lockout.Store
}

func NewRouter(
	buildVersion string,
	cors httpx.CORSConfig,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		buildVersion: buildVersion,
		startTime:    time.Now(),
		logger:       logger,
	}

	// Global chain. Security headers and CORS apply to every response,
	// error paths included.
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
		httpx.SecurityHeaders(),
		httpx.CORS(cors),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			Storefront Session API
//	@version		0.1.0
//	@description	Session authentication for a headless storefront: login, refresh, password
//	@description	recovery and reset against the upstream commerce platform.
//	@description
//	@description	Access tokens are short-lived HS256 JWTs returned in response bodies; refresh
//	@description	tokens travel only in an HttpOnly session cookie.
//
//	@contact.name	Driftline Team
//	@contact.url	https://github.com/driftline/storefront
//
//	@license.name	MIT
//	@license.url	https://opensource.org/licenses/MIT
//
//	@host			localhost:8080
//	@BasePath		/
//
//	@schemes		http https
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerAuth() {
	// Credential endpoints are governed by the keyed lockout limiters
	// inside the service, not by a per-IP rate limit here; stacking both
	// would block legitimate retries the lockout policy allows.
	r.Mux.Handle("POST /auth/login", &LoginHandler{
		Sessions: r.Sessions,
		Cookies:  r.Cookies,
	})

	r.Mux.Handle("POST /auth/refresh", &RefreshHandler{
		Sessions: r.Sessions,
		Cookies:  r.Cookies,
	})

	r.Mux.Handle("POST /auth/recover", &RecoverHandler{
		Sessions: r.Sessions,
	})

	r.Mux.Handle("POST /auth/reset", &ResetHandler{
		Sessions: r.Sessions,
		Cookies:  r.Cookies,
	})
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.PublicLimit),
		))

	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.LockoutStore),
			httpx.RateLimitByIP(httpx.LenientLimit),
		))
}
