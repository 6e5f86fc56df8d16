package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/tomychi/anhelo-dashboard-sub001/internal/platform/httpx"
)

// RouteRegistrar registers a set of routes against the provided router.
type RouteRegistrar func(r chi.Router)

type routerConfig struct {
	basePath    string
	middlewares []func(http.Handler) http.Handler
	health      *HealthHandlers

	store    RouteRegistrar
	webhooks RouteRegistrar
	admin    RouteRegistrar

	adminMiddlewares []func(http.Handler) http.Handler
}

// Option customises the router configuration before construction.
type Option func(*routerConfig)

const (
	defaultAPIPrefix = "/api/v1"
	defaultTimeout   = 60 * time.Second
)

// NewRouter constructs the chi router with shared middleware and the three
// route surfaces: storefront, payment webhooks and the back office.
func NewRouter(opts ...Option) chi.Router {
	cfg := routerConfig{
		basePath: defaultAPIPrefix,
		middlewares: []func(http.Handler) http.Handler{
			middleware.RequestID,
			middleware.RealIP,
			middleware.Timeout(defaultTimeout),
		},
	}

	for _, opt := range opts {
		opt(&cfg)
	}

	r := chi.NewRouter()

	if cfg.health == nil {
		cfg.health = NewHealthHandlers()
	}

	for _, mw := range cfg.middlewares {
		if mw != nil {
			r.Use(mw)
		}
	}

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		httpx.WriteError(req.Context(), w, httpx.NewError("route_not_found", fmt.Sprintf("no route for %s", req.URL.Path), http.StatusNotFound))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		httpx.WriteError(req.Context(), w, httpx.NewError("method_not_allowed", fmt.Sprintf("method %s not allowed on %s", req.Method, req.URL.Path), http.StatusMethodNotAllowed))
	})

	r.Get("/healthz", cfg.health.Healthz)
	r.Get("/readyz", cfg.health.Readyz)

	r.Route(cfg.basePath, func(api chi.Router) {
		api.Route("/store", func(group chi.Router) {
			if cfg.store != nil {
				cfg.store(group)
			}
		})
		api.Route("/webhooks", func(group chi.Router) {
			if cfg.webhooks != nil {
				cfg.webhooks(group)
			}
		})
		api.Route("/admin", func(group chi.Router) {
			for _, mw := range cfg.adminMiddlewares {
				if mw != nil {
					group.Use(mw)
				}
			}
			if cfg.admin != nil {
				cfg.admin(group)
			}
		})
	})

	return r
}

// WithBasePath overrides the API prefix used for versioned routes.
func WithBasePath(path string) Option {
	return func(cfg *routerConfig) {
		if path != "" {
			cfg.basePath = path
		}
	}
}

// WithMiddlewares replaces the default middleware chain.
func WithMiddlewares(mws ...func(http.Handler) http.Handler) Option {
	return func(cfg *routerConfig) {
		cfg.middlewares = mws
	}
}

// WithHealthHandlers overrides the handlers used for /healthz and /readyz endpoints.
func WithHealthHandlers(h *HealthHandlers) Option {
	return func(cfg *routerConfig) {
		cfg.health = h
	}
}

// WithStoreRoutes mounts the public storefront surface.
func WithStoreRoutes(registrar RouteRegistrar) Option {
	return func(cfg *routerConfig) {
		cfg.store = registrar
	}
}

// WithWebhookRoutes mounts the PSP notification surface.
func WithWebhookRoutes(registrar RouteRegistrar) Option {
	return func(cfg *routerConfig) {
		cfg.webhooks = registrar
	}
}

// WithAdminRoutes mounts the back office surface behind the given middleware.
func WithAdminRoutes(registrar RouteRegistrar, mws ...func(http.Handler) http.Handler) Option {
	return func(cfg *routerConfig) {
		cfg.admin = registrar
		cfg.adminMiddlewares = mws
	}
}
