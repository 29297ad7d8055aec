package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Team-synvo/jb-ai/internal/platform/httpx"
)

type routerConfig struct {
	timeout     time.Duration
	middlewares []func(http.Handler) http.Handler
	siteMW      []func(http.Handler) http.Handler
	health      *HealthHandlers
	site        *SiteHandlers
	visits      *VisitHandlers
}

// Option customises the router configuration before construction.
type Option func(*routerConfig)

const (
	defaultTimeout    = 30 * time.Second
	errorNotFoundCode = "route_not_found"
)

// NewRouter builds the chi router with shared middleware and health at the top level. The page
// and the JSON API share a group so site middleware never runs for /healthz. Groups without
// handlers are not mounted.
func NewRouter(opts ...Option) chi.Router {
	cfg := routerConfig{timeout: defaultTimeout}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.health == nil {
		cfg.health = NewHealthHandlers()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP)
	for _, mw := range cfg.middlewares {
		if mw != nil {
			r.Use(mw)
		}
	}
	r.Use(middleware.Timeout(cfg.timeout))

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		httpx.WriteError(req.Context(), w, httpx.NewError(errorNotFoundCode, fmt.Sprintf("no route for %s", req.URL.Path), http.StatusNotFound))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		httpx.WriteError(req.Context(), w, httpx.NewError("method_not_allowed", fmt.Sprintf("method %s not allowed on %s", req.Method, req.URL.Path), http.StatusMethodNotAllowed))
	})

	r.Get("/healthz", cfg.health.Healthz)

	r.Group(func(site chi.Router) {
		for _, mw := range cfg.siteMW {
			if mw != nil {
				site.Use(mw)
			}
		}
		if cfg.site != nil {
			site.Get("/", cfg.site.Page)
		}
		if cfg.site != nil || cfg.visits != nil {
			site.Route("/api", func(api chi.Router) {
				if cfg.site != nil {
					api.Get("/catalog", cfg.site.Decision)
				}
				if cfg.visits != nil {
					api.Post("/visit", cfg.visits.Record)
					api.Get("/visits", cfg.visits.Total)
				}
			})
		}
	})
	return r
}

// WithMiddlewares appends global middleware, applied after request id and real ip.
func WithMiddlewares(mw ...func(http.Handler) http.Handler) Option {
	return func(cfg *routerConfig) {
		cfg.middlewares = append(cfg.middlewares, mw...)
	}
}

// WithSiteMiddlewares appends middleware that wraps only the page and the /api routes.
func WithSiteMiddlewares(mw ...func(http.Handler) http.Handler) Option {
	return func(cfg *routerConfig) {
		cfg.siteMW = append(cfg.siteMW, mw...)
	}
}

// WithRequestTimeout overrides the per-request timeout.
func WithRequestTimeout(d time.Duration) Option {
	return func(cfg *routerConfig) {
		if d > 0 {
			cfg.timeout = d
		}
	}
}

// WithHealthHandlers overrides the handler used for /healthz.
func WithHealthHandlers(h *HealthHandlers) Option {
	return func(cfg *routerConfig) {
		cfg.health = h
	}
}

// WithSiteHandlers mounts the page and the catalog decision endpoint.
func WithSiteHandlers(h *SiteHandlers) Option {
	return func(cfg *routerConfig) {
		cfg.site = h
	}
}

// WithVisitHandlers mounts the visit counter endpoints.
func WithVisitHandlers(h *VisitHandlers) Option {
	return func(cfg *routerConfig) {
		cfg.visits = h
	}
}
