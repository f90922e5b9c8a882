package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/labstock/labstock-backend/api/controllers"
	"github.com/labstock/labstock-backend/api/middleware"
	authsvc "github.com/labstock/labstock-backend/internal/auth"
	"github.com/labstock/labstock-backend/internal/categories"
	"github.com/labstock/labstock-backend/internal/parts"
	"github.com/labstock/labstock-backend/internal/profiles"
	"github.com/labstock/labstock-backend/internal/reservations"
	"github.com/labstock/labstock-backend/pkg/auth/session"
	"github.com/labstock/labstock-backend/pkg/config"
	"github.com/labstock/labstock-backend/pkg/db"
	"github.com/labstock/labstock-backend/pkg/logger"
	"github.com/labstock/labstock-backend/pkg/redis"
)

// Deps carries everything the HTTP surface needs. Wiring happens once in
// cmd/api; tests assemble a partial Deps with fakes where convenient.
type Deps struct {
	Config         *config.Config
	Logger         *logger.Logger
	DB             db.Pinger
	Redis          *redis.Client
	SessionChecker session.AccessSessionChecker
	Metrics        prometheus.Gatherer

	Auth         authsvc.Service
	Profiles     profiles.Service
	Categories   categories.Service
	Parts        parts.Service
	Reservations reservations.Service
}

func NewRouter(d Deps) http.Handler {
	cfg := d.Config
	logg := d.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRate.LoginWindow,
		cfg.AuthRate.LoginIPLimit,
		cfg.AuthRate.LoginUsernameLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, d.DB, d.Redis, logg))
	})

	if d.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(d.Metrics, promhttp.HandlerOpts{}))
	}

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/ping", controllers.PublicPing())
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, d.Redis, logg)).Post("/login", controllers.Login(d.Auth, logg))
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, d.SessionChecker, logg))
			r.Post("/logout", controllers.Logout(d.Auth, logg))
		})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, d.SessionChecker, logg))
		r.Use(middleware.Idempotency(d.Redis, logg))

		r.Get("/ping", controllers.PrivatePing())

		r.Post("/checkout", controllers.Checkout(d.Reservations, logg))

		r.Route("/reservations", func(r chi.Router) {
			r.Get("/", controllers.ListMyReservations(d.Reservations, logg))
			r.Get("/{id}", controllers.GetReservation(d.Reservations, logg))
		})

		r.Route("/categories", func(r chi.Router) {
			r.Get("/", controllers.ListCategories(d.Categories, logg))
			r.Get("/{id}", controllers.GetCategory(d.Categories, logg))
		})

		r.Route("/parts", func(r chi.Router) {
			r.Get("/", controllers.ListParts(d.Parts, logg))
			r.Get("/{id}", controllers.GetPart(d.Parts, logg))
		})

		r.Get("/profiles/me", controllers.Me(d.Profiles, logg))
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, d.SessionChecker, logg))
		r.Use(middleware.RequireRole("admin", logg))
		r.Use(middleware.Idempotency(d.Redis, logg))

		r.Get("/ping", controllers.AdminPing())

		r.Route("/reservations", func(r chi.Router) {
			r.Get("/", controllers.ListReservations(d.Reservations, logg))
			r.Get("/{id}", controllers.GetReservation(d.Reservations, logg))
			r.Put("/{id}/status", controllers.UpdateReservationStatus(d.Reservations, logg))
		})

		r.Route("/categories", func(r chi.Router) {
			r.Post("/", controllers.CreateCategory(d.Categories, logg))
			r.Put("/{id}", controllers.UpdateCategory(d.Categories, logg))
			r.Delete("/{id}", controllers.DeleteCategory(d.Categories, logg))
		})

		r.Route("/parts", func(r chi.Router) {
			r.Post("/", controllers.CreatePart(d.Parts, logg))
			r.Put("/{id}", controllers.UpdatePart(d.Parts, logg))
			r.Get("/{id}/outstanding", controllers.PartOutstanding(d.Reservations, logg))
			r.Put("/{id}/stock", controllers.SetPartStock(d.Parts, logg))
			r.Delete("/{id}", controllers.DeletePart(d.Parts, logg))
		})

		r.Route("/profiles", func(r chi.Router) {
			r.Get("/", controllers.ListProfiles(d.Profiles, logg))
			r.Post("/", controllers.Register(d.Auth, logg))
			r.Put("/{id}/role", controllers.SetProfileRole(d.Profiles, logg))
			r.Put("/{id}/active", controllers.SetProfileActive(d.Profiles, logg))
		})
	})

	return r
}
