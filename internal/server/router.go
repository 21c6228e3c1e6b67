// Package server assembles the HTTP routes and middleware.
package server

import (
	"net/http"
	"time"

	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/gorilla/mux"

	"github.com/pliu/estate/internal/apierr"
	"github.com/pliu/estate/internal/auth"
	"github.com/pliu/estate/internal/config"
	"github.com/pliu/estate/internal/handlers"
	"github.com/pliu/estate/internal/httputil"
	"github.com/pliu/estate/internal/metrics"
	"github.com/pliu/estate/internal/middleware"
	"github.com/pliu/estate/internal/store"
	"github.com/pliu/estate/internal/ws"
)

type Deps struct {
	Config *config.Config
	Store  store.Store
	Tokens *auth.Tokens
	Hub    *ws.Hub
}

// NewRouter returns the root handler with CORS applied ahead of routing so
// preflight requests never reach method matching.
func NewRouter(d Deps) http.Handler {
	cfg := d.Config
	routes := handlers.NewRoutes(d.Store, d.Tokens, d.Hub, cfg.Auth.CookieSecure)
	routes.Health.Timeout = 2 * time.Second
	if !cfg.RateLimit.Disabled {
		routes.AuthLimit = httprate.Limit(
			cfg.RateLimit.Requests,
			cfg.RateLimit.Window,
			httprate.WithKeyFuncs(httprate.KeyByIP),
			httprate.WithLimitHandler(tooManyRequests),
		)
	}

	r := mux.NewRouter()
	r.Use(middleware.RequestID, middleware.LoggingMiddleware, middleware.Metrics)
	r.NotFoundHandler = http.HandlerFunc(notFound)
	r.MethodNotAllowedHandler = http.HandlerFunc(methodNotAllowed)

	r.Handle("/metrics", metrics.Handler()).Methods("GET")
	r.Handle("/ws", routes.Authn.Require(ws.Handler(d.Hub, originChecker(cfg.CORS.AllowedOrigins)))).Methods("GET")
	routes.Mount(r)

	if cfg.Static.Dir != "" {
		r.PathPrefix("/").Handler(spaHandler{dir: cfg.Static.Dir}).Methods("GET", "HEAD")
	}

	return cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	})(r)
}

func notFound(w http.ResponseWriter, r *http.Request) {
	httputil.WriteError(w, r, apierr.NotFound("Not found"))
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	httputil.WriteMessage(w, http.StatusMethodNotAllowed, "Method not allowed")
}

func tooManyRequests(w http.ResponseWriter, r *http.Request) {
	httputil.WriteMessage(w, http.StatusTooManyRequests, "Too many requests, try again later")
}

// originChecker accepts websocket upgrades from the configured CORS origins
// and from non-browser clients that send no Origin header.
func originChecker(allowed []string) func(*http.Request) bool {
	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		set[o] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || set["*"] || set[origin]
	}
}
