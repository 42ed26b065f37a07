package api

import (
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/MaivaSoftwares/intercom/internal/api/middleware"
	"github.com/MaivaSoftwares/intercom/internal/config"
	"github.com/MaivaSoftwares/intercom/internal/handlers"
	"github.com/MaivaSoftwares/intercom/internal/ledger"
	"github.com/MaivaSoftwares/intercom/internal/store"
	"github.com/MaivaSoftwares/intercom/internal/transport"
)

// NewRouter creates and configures the HTTP router.
func NewRouter(logger zerolog.Logger, cfg *config.Config, engine *ledger.Engine, db store.DataStore, redisStore *store.RedisStore, peers transport.Transport) *chi.Mux {
	r := chi.NewRouter()

	// Metrics middleware (first to capture all requests)
	r.Use(middleware.Metrics)

	// Security middleware (order matters!)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.MaxBodySize(1 * 1024 * 1024)) // 1MB covers snapshot imports
	r.Use(middleware.ValidateRequest)

	// Standard middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger(logger))
	r.Use(chimw.Recoverer)

	// Rate limiting, only when Redis is configured
	if redisStore != nil {
		limiter := middleware.NewRateLimiter(redisStore.Client(), logger, middleware.RateLimiterConfig{
			Whitelist:        cfg.RateLimitWhitelist,
			AutoBlockEnabled: cfg.AutoBlockEnabled,
		})
		r.Use(limiter.Middleware)
	}

	// CORS - allow all origins (peers call from anywhere)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Intercom-Peer", "X-Intercom-Nonce", "X-Intercom-Timestamp", "X-Intercom-Signature", "X-Intercom-Admin-Token"},
		ExposedHeaders:   []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "Retry-After"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Create handler and auth middleware
	h := handlers.NewHandler(engine, db, redisStore, peers, cfg.AdminTokenHash)
	auth := middleware.NewAuthMiddleware(db, redisStore)

	// Metrics endpoint (for Prometheus scraping)
	r.Handle("/metrics", promhttp.Handler())

	// Public routes (no auth required)
	r.Get("/", h.Root)
	r.Get("/health", h.Health)
	r.Get("/stats", h.Stats)
	r.Post("/register", h.Register)
	r.Get("/who/{id}", h.Who)
	r.Get("/rooms", h.ListRooms)
	r.Get("/find", h.Find)
	r.Get("/room/{channel}/expenses", h.ListExpenses)
	r.Get("/room/{channel}/summary", h.Summary)
	r.Get("/room/{channel}/snapshot", h.ExportSnapshot)

	// Authenticated routes (require signature)
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth)

		r.Post("/room/{channel}/expense", h.AddExpense)
		r.Post("/room/{channel}/ingest", h.IngestExpense)
		r.Post("/room/{channel}/snapshot", h.ImportSnapshot)
		r.Post("/room/{channel}/save", h.SaveSnapshot)
		r.Post("/room/{channel}/restore", h.RestoreSnapshot)
		r.Post("/room/{channel}/clear", h.ClearRoom)
	})

	return r
}
