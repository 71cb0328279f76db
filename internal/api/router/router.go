package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ginecare/booking-platform/internal/http/handlers"
	httpmiddleware "github.com/ginecare/booking-platform/internal/http/middleware"
	"github.com/ginecare/booking-platform/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger             *logging.Logger
	BookingHandler     *handlers.BookingHandler
	AdminHandler       *handlers.AdminHandler
	AdminAuthSecret    string
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string

	// Per-IP limit on the public booking endpoints; zero disables it.
	BookingRatePerSec float64
	BookingRateBurst  int
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	// Middleware
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

	// Public endpoints
	r.Group(func(public chi.Router) {
		public.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"status":"ok"}`))
		})
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
		if cfg.BookingHandler != nil {
			public.Route("/api", func(api chi.Router) {
				if cfg.BookingRatePerSec > 0 {
					api.Use(httpmiddleware.RateLimit(cfg.BookingRatePerSec, cfg.BookingRateBurst))
				}
				api.Get("/availability", cfg.BookingHandler.GetAvailability)
				api.Post("/appointments", cfg.BookingHandler.CreateAppointment)
			})
		}
	})

	// Staff endpoints (protected by JWT)
	if cfg.AdminHandler != nil && cfg.AdminAuthSecret != "" {
		r.Route("/admin", func(admin chi.Router) {
			admin.Use(httpmiddleware.AdminJWT(cfg.AdminAuthSecret))
			admin.Get("/appointments", cfg.AdminHandler.ListAppointments)
			admin.Patch("/appointments/{id}", cfg.AdminHandler.Reschedule)
			admin.Post("/appointments/{id}/status", cfg.AdminHandler.UpdateStatus)
			admin.Get("/schedule", cfg.AdminHandler.GetSchedule)
			admin.Put("/schedule", cfg.AdminHandler.PutSchedule)
		})
	}

	return r
}
