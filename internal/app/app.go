package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"ShopSmart/internal/auth"
	"ShopSmart/internal/cart"
	"ShopSmart/internal/catalog"
	"ShopSmart/internal/checkout"
	"ShopSmart/internal/session"
	"ShopSmart/pkg/kit"
)

type Deps struct {
	Log      *zap.Logger
	Users    auth.UserStore
	Catalog  catalog.Store
	Sessions session.Store
	Orders   checkout.OrderStore

	JWTSecret string
}

type HTTPDeps struct {
	Log      *zap.Logger
	Service  string
	Registry *prometheus.Registry

	MetricsEnabled bool
	MetricsToken   string
}

const (
	loginLimitPerMin    = 5
	registerLimitPerMin = 3
	limitWindow         = 60 * time.Second
	readyTimeout        = 2 * time.Second
)

// NewHandler assembles the whole shop: auth, catalog, session-backed
// cart and checkout, behind shared middleware and metrics.
func NewHandler(d Deps, httpDeps HTTPDeps) http.Handler {
	jwt := auth.NewTokenMaker(d.JWTSecret)
	locks := session.NewLocker()

	authSrv := &auth.Server{Log: d.Log, Store: d.Users, JWT: jwt}
	catalogSrv := &catalog.Server{Store: d.Catalog, Log: d.Log}
	cartSrv := &cart.Server{Sessions: d.Sessions, Catalog: d.Catalog, Locks: locks, Log: d.Log}
	checkoutSrv := &checkout.Server{
		Svc: &checkout.Service{
			Sessions: d.Sessions,
			Catalog:  d.Catalog,
			Orders:   d.Orders,
			Log:      d.Log,
		},
		Locks: locks,
		Log:   d.Log,
	}

	r := chi.NewRouter()

	metricsOn := httpDeps.MetricsEnabled && httpDeps.Registry != nil
	if httpDeps.MetricsEnabled && httpDeps.Registry == nil && httpDeps.Log != nil {
		httpDeps.Log.Warn("metrics enabled but Registry is nil")
	}

	setupMiddleware(r, httpDeps)

	r.Get("/healthz", healthz)
	r.Get("/readyz", readyz(d))

	if metricsOn {
		r.With(kit.MetricsAuth(httpDeps.MetricsToken)).Handle(
			"/metrics",
			promhttp.HandlerFor(httpDeps.Registry, promhttp.HandlerOpts{}),
		)
	}

	setupAuthRoutes(r, authSrv)

	// Public catalog.
	r.Mount("/products", catalogSrv.Routes())

	// Shopping requires a logged-in customer and a session.
	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireAuth(jwt))
		pr.Use(session.Middleware)
		pr.Mount("/shop", shopRoutes(cartSrv, checkoutSrv))
	})

	// Staff dashboards.
	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireAuth(jwt))
		pr.With(auth.RequireRole(auth.RoleAdmin)).Mount("/admin", catalogSrv.AdminRoutes())
		pr.With(auth.RequireRole(auth.RoleSeller)).Mount("/seller", catalogSrv.SellerRoutes())
	})

	return r
}

func shopRoutes(cartSrv *cart.Server, checkoutSrv *checkout.Server) http.Handler {
	r := chi.NewRouter()
	cartSrv.Register(r)
	checkoutSrv.Register(r)
	return r
}

func setupMiddleware(r *chi.Mux, deps HTTPDeps) {
	r.Use(chimw.RequestID)
	r.Use(kit.Recoverer)
	r.Use(kit.Logging(deps.Log))

	if deps.Registry != nil {
		metrics := kit.NewMetrics(deps.Registry)
		r.Use(metrics.Middleware(deps.Service, kit.ChiRoutePatternOrPath))
	}
}

func setupAuthRoutes(r *chi.Mux, s *auth.Server) {
	loginLimiter := kit.NewIPRateLimiter(loginLimitPerMin, int(limitWindow.Seconds()))
	registerLimiter := kit.NewIPRateLimiter(registerLimitPerMin, int(limitWindow.Seconds()))

	r.Route("/auth", func(rr chi.Router) {
		rr.With(loginLimiter.Middleware).Post("/login", s.LoginHandler())
		rr.With(registerLimiter.Middleware).Post("/register", s.RegisterHandler())
		rr.Get("/whoami", s.WhoAmIHandler())
	})
}

func healthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func readyz(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()

		checks := []struct {
			name string
			ping func(context.Context) error
		}{
			{"users", d.Users.Ping},
			{"catalog", d.Catalog.Ping},
			{"sessions", d.Sessions.Ping},
			{"orders", d.Orders.Ping},
		}

		for _, c := range checks {
			if err := c.ping(ctx); err != nil {
				if d.Log != nil {
					d.Log.Warn("readyz failed", zap.String("dep", c.name), zap.Error(err))
				}
				kit.WriteError(w, r, http.StatusServiceUnavailable, c.name+" not ready", nil)
				return
			}
		}

		w.WriteHeader(http.StatusOK)
	}
}
