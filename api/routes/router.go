package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/redeemly/redeemly-backend/api/controllers"
	"github.com/redeemly/redeemly-backend/api/middleware"
	"github.com/redeemly/redeemly-backend/internal/auth"
	"github.com/redeemly/redeemly-backend/internal/usages"
	"github.com/redeemly/redeemly-backend/internal/users"
	"github.com/redeemly/redeemly-backend/internal/vouchers"
	"github.com/redeemly/redeemly-backend/pkg/config"
	"github.com/redeemly/redeemly-backend/pkg/enums"
	"github.com/redeemly/redeemly-backend/pkg/logger"
	"github.com/redeemly/redeemly-backend/pkg/redis"
)

// Deps carries everything the router wires into handlers.
type Deps struct {
	Config   *config.Config
	Logger   *logger.Logger
	DB       controllers.Pinger
	Redis    *redis.Client
	Registry *prometheus.Registry

	AuthService    auth.Service
	UserService    users.Service
	VoucherService vouchers.Service
	UsageService   usages.Service
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	// Interface conversions happen behind nil checks so a nil *redis.Client
	// disables the redis-backed features instead of arriving as a typed-nil
	// interface value.
	var redisPinger controllers.Pinger
	var idempotencyStore redis.IdempotencyStore
	var limiterStore middleware.RateLimiterStore
	if deps.Redis != nil {
		redisPinger = deps.Redis
		idempotencyStore = deps.Redis
		limiterStore = deps.Redis
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.DB, redisPinger))
	})

	if deps.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, limiterStore, logg)).
			Post("/login", controllers.AuthLogin(deps.AuthService, logg))
		r.With(
			middleware.AuthRateLimit(registerPolicy, limiterStore, logg),
			middleware.Idempotency(idempotencyStore, logg),
		).Post("/register", controllers.AuthRegister(deps.UserService, deps.AuthService, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(idempotencyStore, logg))

		r.Route("/users", func(r chi.Router) {
			r.Get("/me", controllers.CurrentUser(deps.UserService, logg))
			r.Post("/me/password", controllers.CurrentUserChangePassword(deps.UserService, logg))
			r.Get("/me/usages", controllers.MyUsageList(deps.UsageService, logg))
			r.Get("/", controllers.UserList(deps.UserService, logg))
			r.Route("/{userId}", func(r chi.Router) {
				r.Get("/", controllers.UserDetail(deps.UserService, logg))
				r.Patch("/", controllers.UserUpdate(deps.UserService, logg))
				r.Post("/password", controllers.UserChangePassword(deps.UserService, logg))
				r.Get("/usages", controllers.UserUsageList(deps.UsageService, logg))
				r.With(adminOnly(logg)).Post("/activate", controllers.UserSetActive(deps.UserService, true, logg))
				r.With(adminOnly(logg)).Post("/deactivate", controllers.UserSetActive(deps.UserService, false, logg))
				r.With(adminOnly(logg)).Delete("/", controllers.UserDelete(deps.UserService, logg))
			})
		})

		r.Get("/voucher-usages", controllers.UsageList(deps.UsageService, logg))

		r.Route("/vouchers", func(r chi.Router) {
			r.Get("/", controllers.VoucherList(deps.VoucherService, logg))
			r.Post("/validate", controllers.VoucherValidate(deps.VoucherService, logg))
			r.With(staffOnly(logg)).Post("/", controllers.VoucherCreate(deps.VoucherService, logg))
			r.Route("/{voucherId}", func(r chi.Router) {
				r.Get("/", controllers.VoucherDetail(deps.VoucherService, logg))
				r.Post("/redeem", controllers.VoucherRedeem(deps.VoucherService, logg))
				r.Get("/usages", controllers.VoucherUsageList(deps.UsageService, logg))
				r.With(staffOnly(logg)).Patch("/", controllers.VoucherUpdate(deps.VoucherService, logg))
				r.With(staffOnly(logg)).Post("/cancel", controllers.VoucherCancel(deps.VoucherService, logg))
				r.With(adminOnly(logg)).Delete("/", controllers.VoucherDelete(deps.VoucherService, logg))
			})
		})
	})

	return r
}

func adminOnly(logg *logger.Logger) func(http.Handler) http.Handler {
	return middleware.RequireRole(logg, string(enums.UserRoleAdmin))
}

func staffOnly(logg *logger.Logger) func(http.Handler) http.Handler {
	return middleware.RequireRole(logg, string(enums.UserRoleAdmin), string(enums.UserRoleManager))
}
