package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/wolfman30/healthcare-booking/internal/bookings"
	"github.com/wolfman30/healthcare-booking/internal/catalog"
	httpmiddleware "github.com/wolfman30/healthcare-booking/internal/http/middleware"
	"github.com/wolfman30/healthcare-booking/internal/http/respond"
	"github.com/wolfman30/healthcare-booking/internal/intake"
	"github.com/wolfman30/healthcare-booking/internal/payments"
	"github.com/wolfman30/healthcare-booking/internal/settings"
	"github.com/wolfman30/healthcare-booking/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger *logging.Logger

	Catalog        *catalog.Handler
	Availability   http.Handler
	Bookings       *bookings.Handler
	AdminBookings  *bookings.AdminHandler
	Intake         *intake.Handler
	Payments       *payments.Handler
	Webhooks       *payments.WebhookHandler
	PublicSettings http.Handler
	MetricsHandler http.Handler

	// Settings drives the maintenance guard on booking mutations.
	Settings *settings.Settings

	AccountTokens      httpmiddleware.AccountTokens
	AdminAuthSecret    string
	CORSAllowedOrigins []string
	RateLimitRPS       float64
	RateLimitBurst     int
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	guard := func(next http.Handler) http.Handler { return next }
	if cfg.Settings != nil {
		guard = settings.MaintenanceGuard(cfg.Settings)
	}
	limit := func(next http.Handler) http.Handler { return next }
	if cfg.RateLimitRPS > 0 {
		limit = httpmiddleware.RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst)
	}

	// Public endpoints (webhooks, health checks)
	r.Group(func(public chi.Router) {
		public.Get("/health", health)
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
		if cfg.Webhooks != nil {
			public.Post("/webhooks/razorpay", cfg.Webhooks.Handle)
		}
	})

	r.Route("/api", func(api chi.Router) {
		api.Use(httpmiddleware.OptionalAccount(cfg.AccountTokens))

		if cfg.PublicSettings != nil {
			api.Handle("/settings/public", cfg.PublicSettings)
		}
		if cfg.Catalog != nil {
			api.Get("/services", cfg.Catalog.List)
			api.Get("/services/{serviceID}", cfg.Catalog.Details)
		}
		if cfg.Availability != nil {
			api.Handle("/time-slots", cfg.Availability)
		}

		if cfg.Bookings != nil {
			api.Route("/bookings", func(b chi.Router) {
				b.With(guard).Post("/", cfg.Bookings.Create)
				b.Route("/{bookingID}", func(one chi.Router) {
					one.Get("/", cfg.Bookings.Get)
					one.With(guard).Post("/cancel", cfg.Bookings.Cancel)
					one.Get("/prescriptions", cfg.Bookings.ListPrescriptions)
					one.With(guard).Post("/prescriptions", cfg.Bookings.UploadPrescription)
				})
			})
			api.With(httpmiddleware.RequireAccount).Get("/me/bookings", cfg.Bookings.ListMine)
		}

		if cfg.Intake != nil {
			api.Route("/intake", func(in chi.Router) {
				in.Use(limit)
				in.Get("/", cfg.Intake.Current)
				in.With(guard).Post("/", cfg.Intake.Start)
				in.With(guard).Post("/steps/{step}", cfg.Intake.SubmitStep)
			})
		}

		if cfg.Payments != nil {
			api.Route("/payments", func(p chi.Router) {
				p.Use(limit)
				p.With(guard).Post("/orders", cfg.Payments.CreateOrder)
				// verify reconciles money already taken, so it stays open
				p.Post("/verify", cfg.Payments.Verify)
			})
		}
	})

	// Staff routes (HMAC JWT with role=admin)
	if cfg.AdminAuthSecret != "" && cfg.AdminBookings != nil {
		r.Route("/admin", func(admin chi.Router) {
			admin.Use(httpmiddleware.AdminJWT(cfg.AdminAuthSecret))
			admin.Post("/bookings/actions", cfg.AdminBookings.BulkAction)
			admin.Post("/bookings/{bookingID}/{action}", cfg.AdminBookings.Apply)
		})
	}

	return r
}

func health(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
