package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/qkart/api/controllers"
	"github.com/angelmondragon/qkart/api/middleware"
	"github.com/angelmondragon/qkart/internal/auth"
	"github.com/angelmondragon/qkart/internal/cartstore"
	"github.com/angelmondragon/qkart/internal/products"
	"github.com/angelmondragon/qkart/pkg/auth/session"
	"github.com/angelmondragon/qkart/pkg/config"
	"github.com/angelmondragon/qkart/pkg/logger"
	"github.com/angelmondragon/qkart/pkg/metrics"
)

type sessionManager interface {
	session.AccessSessionChecker
	Revoke(context.Context, string) error
}

// Params carries everything the router mounts.
type Params struct {
	Config          *config.Config
	Logger          *logger.Logger
	DB              controllers.Pinger
	Redis           controllers.Pinger
	RateLimiter     middleware.RateLimiterStore
	Sessions        sessionManager
	AuthService     auth.Service
	RegisterService auth.RegisterService
	ProductService  products.Service
	CartService     cartstore.Service
	Registry        *prometheus.Registry
}

func NewRouter(p Params) http.Handler {
	cfg, logg := p.Config, p.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)
	if p.Registry != nil {
		r.Use(middleware.Metrics(metrics.NewHTTPMetrics(p.Registry)))
	}

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginUsernameLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterUsernameLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, map[string]controllers.Pinger{
			"db":    p.DB,
			"redis": p.Redis,
		}))
	})

	if p.Registry != nil {
		r.Handle("/metrics", promhttp.HandlerFor(p.Registry, promhttp.HandlerOpts{Registry: p.Registry}))
	}

	requireAuth := middleware.Auth(cfg.JWT, p.Sessions, logg)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ProductsList(p.ProductService, logg))
			r.Get("/search", controllers.ProductsSearch(p.ProductService, logg))
			r.Get("/{productId}", controllers.ProductsGet(p.ProductService, logg))
		})

		r.Route("/auth", func(r chi.Router) {
			r.With(middleware.AuthRateLimit(loginPolicy, p.RateLimiter, logg)).Post("/login", controllers.AuthLogin(p.AuthService, logg))
			r.With(middleware.AuthRateLimit(registerPolicy, p.RateLimiter, logg)).Post("/register", controllers.AuthRegister(p.RegisterService, logg))
			r.With(requireAuth).Post("/logout", controllers.AuthLogout(p.Sessions, logg))
		})

		r.Route("/cart", func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/", controllers.CartGet(p.CartService, logg))
			r.Post("/", controllers.CartUpdate(p.CartService, logg))
		})
	})

	return r
}
