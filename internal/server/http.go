package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	healthhandler "streamline/backend/internal/health/handler"
	identityhandler "streamline/backend/internal/identity/handler"
	identityservice "streamline/backend/internal/identity/service"
	"streamline/backend/internal/platform/apperr"
	"streamline/backend/internal/platform/respond"
	"streamline/backend/internal/server/middleware"
)

var errRouteNotFound = apperr.New(apperr.KindNotFound, "route not found")

// Deps holds what the HTTP router needs.
type Deps struct {
	// Auth is the session manager behind /api/v1/users.
	Auth *identityservice.AuthService
	// Authenticator guards the protected user routes.
	Authenticator *middleware.Authenticator
	// HealthPinger is used by /readyz (e.g. *sql.DB). If nil, readiness skips the DB ping.
	HealthPinger healthhandler.Pinger
	Logger       *slog.Logger
	// Production sets Secure on cookies and strips error detail from responses.
	Production bool
	// CORSOrigin is the allowed browser origin; empty disables CORS.
	CORSOrigin string
	// ServiceName names the server spans.
	ServiceName string
}

// NewRouter builds the HTTP handler:
//   - GET  /healthz, /readyz            → internal/health/handler
//   - /api/v1/users/*                    → internal/identity/handler
//
// Every request is traced by otelhttp except the probes.
func NewRouter(deps Deps) http.Handler {
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}
	users := identityhandler.New(deps.Auth, deps.Production, log)
	writeErr := users.ErrorWriter()
	health := healthhandler.NewServer(deps.HealthPinger)

	r := chi.NewRouter()
	r.Use(
		middleware.Recover(log, writeErr),
		middleware.RequestID,
		middleware.Logging(log),
		middleware.CORS(deps.CORSOrigin),
	)
	r.NotFound(func(w http.ResponseWriter, req *http.Request) { writeErr(w, req, errRouteNotFound) })
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		respond.JSON(w, http.StatusMethodNotAllowed, respond.Envelope{
			StatusCode: http.StatusMethodNotAllowed,
			Message:    "method not allowed",
		})
	})

	r.Get("/healthz", health.Live)
	r.Get("/readyz", health.Ready)
	r.Route("/api/v1/users", func(r chi.Router) {
		users.Routes(r, middleware.RequireAuth(deps.Authenticator, writeErr))
	})

	name := deps.ServiceName
	if name == "" {
		name = "streamline-auth"
	}
	return otelhttp.NewHandler(r, name,
		otelhttp.WithFilter(func(req *http.Request) bool {
			return req.URL.Path != "/healthz" && req.URL.Path != "/readyz"
		}),
		otelhttp.WithSpanNameFormatter(func(_ string, req *http.Request) string {
			return req.Method + " " + req.URL.Path
		}),
	)
}

// New returns an http.Server for handler with conservative timeouts.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}
