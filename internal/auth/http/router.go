package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/tollgate/internal/auth/domain"
	"github.com/aussiebroadwan/tollgate/internal/auth/service"
	"github.com/aussiebroadwan/tollgate/internal/auth/store"
	"github.com/aussiebroadwan/tollgate/internal/auth/store/revocation"
	"github.com/aussiebroadwan/tollgate/pkg/httpx"
	"github.com/aussiebroadwan/tollgate/pkg/jwtx"
	"github.com/aussiebroadwan/tollgate/pkg/slogx"

	_ "github.com/aussiebroadwan/tollgate/api/auth" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store       store.Store
	revocations revocation.List
	keys        *jwtx.KeyManager

	TokenService        *service.TokenService
	RevocationService   *service.RevocationService
	KeyRotationService  *service.KeyRotationService
	IdentityService     *service.IdentityService
	HousekeepingService *service.HousekeepingService
}

func NewRouter(
	keys *jwtx.KeyManager,
	buildVersion string,
	st store.Store,
	list revocation.List,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		keys:         keys,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		revocations:  list,
		logger:       logger,
	}

	// Set default middleware chain
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerOAuth2()
	r.registerKeyRotation()
	r.registerAdmin()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			Tollgate Token Service API
//	@version		0.1.0
//	@description	Issues and manages JWT access tokens and single-use rotating refresh tokens.
//	@description
//	@description				Access tokens are signed with a rotating key and can be verified using the JWKS endpoint.
//	@description				Presenting a refresh token twice revokes its whole chain.
//
//	@contact.name				AussieBroadWAN Team
//	@contact.url				https://github.com/aussiebroadwan/tollgate
//
//	@license.name				MIT
//	@license.url				https://opensource.org/licenses/MIT
//
//	@host						localhost:8080
//	@BasePath					/
//
//	@schemes					http https
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				JWT access token. Format: "Bearer {token}".
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

// admin wraps h with authentication, the admin role check and a per-subject
// rate limit.
func (r *Router) admin(h http.Handler, limit httpx.RateLimitConfig) http.Handler {
	return httpx.Chain(h,
		httpx.AuthnMiddleware(r.RevocationService), // verify JWT and revocation state
		httpx.RequireRole(domain.RoleAdmin),
		httpx.RateLimitBySubject(limit),
	)
}

func (r *Router) registerOAuth2() {
	// POST /token - strict rate limit by IP + username to slow down guessing
	tokenHandler := &TokenHandler{TokenService: r.TokenService}
	r.Mux.Handle("POST /v1/oauth2/token",
		httpx.Chain(tokenHandler,
			httpx.RateLimitByIPAndFormField(httpx.StrictLimit, "username"),
		),
	)

	// POST /revoke - moderate rate limit. Revoking by chain_id checks for an
	// admin bearer inside the handler.
	revokeHandler := &RevokeHandler{RevocationService: r.RevocationService}
	r.Mux.Handle("POST /v1/oauth2/revoke",
		httpx.Chain(revokeHandler,
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)

	// GET /jwks.json - public endpoint with high limit
	r.Mux.Handle("GET /.well-known/jwks.json",
		httpx.Chain(JWKSHandler(r.keys),
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)

	// Introspection endpoint (RFC7662) - resource servers authenticate as admin
	introspectHandler := &IntrospectHandler{RevocationService: r.RevocationService}
	r.Mux.Handle("POST /v1/oauth2/introspect", r.admin(introspectHandler, httpx.ModerateLimit))
}

func (r *Router) registerKeyRotation() {
	h := &KeyRotationHandler{KeyRotationService: r.KeyRotationService}

	r.Mux.Handle("POST /v1/keys/rotate", r.admin(http.HandlerFunc(h.HandleRotate), httpx.ModerateLimit))
	r.Mux.Handle("GET /v1/keys", r.admin(http.HandlerFunc(h.HandleListKeys), httpx.ModerateLimit))
	r.Mux.Handle("POST /v1/keys/{kid}/revoke", r.admin(http.HandlerFunc(h.HandleRevokeKey), httpx.ModerateLimit))
}

func (r *Router) registerAdmin() {
	h := &SubjectsHandler{RevocationService: r.RevocationService, IdentityService: r.IdentityService}

	r.Mux.Handle("POST /v1/subjects/{sub}/revoke", r.admin(http.HandlerFunc(h.HandleRevoke), httpx.ModerateLimit))
	r.Mux.Handle("GET /v1/subjects/{sub}/chains", r.admin(http.HandlerFunc(h.HandleListChains), httpx.LenientLimit))
	r.Mux.Handle("POST /v1/subjects/{sub}/disable", r.admin(http.HandlerFunc(h.HandleDisable), httpx.ModerateLimit))
	r.Mux.Handle("POST /v1/subjects/{sub}/enable", r.admin(http.HandlerFunc(h.HandleEnable), httpx.ModerateLimit))
	r.Mux.Handle("GET /v1/admin/stats", r.admin(StatsHandler(r.RevocationService), httpx.LenientLimit))
	r.Mux.Handle("POST /v1/admin/cleanup", r.admin(CleanupHandler(r.HousekeepingService), httpx.StrictLimit))
}

func (r *Router) registerSystem() {
	// Health check endpoints - lenient rate limits (monitoring systems may poll frequently)
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store, r.keys, r.revocations),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
}
