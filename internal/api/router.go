package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"sqlscope/internal/middleware"
)

// RouterConfig wires the HTTP surface.
type RouterConfig struct {
	Handler        *Handler
	JWTSecret      []byte
	APIKeys        middleware.APIKeyLookup
	RateLimit      middleware.RateLimitConfig
	AllowedOrigins []string
	Logger         *slog.Logger
}

// NewRouter builds the chi router: public health check, authenticated and
// rate-limited /v1 query routes.
func NewRouter(cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogger(logger))
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type", "X-API-Key", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID", "Retry-After"},
		MaxAge:         300,
	}))

	r.Get("/healthz", cfg.Handler.Health)

	r.Route("/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWTSecret, cfg.APIKeys))
		r.Use(middleware.RateLimiter(cfg.RateLimit))
		r.Post("/query", cfg.Handler.ExecuteQuery)
		r.Post("/query/validate", cfg.Handler.ValidateQuery)
	})
	return r
}

// requestLogger emits one slog line per request.
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.InfoContext(r.Context(), "http request",
				"request_id", middleware.RequestIDFromContext(r.Context()),
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration_ms", time.Since(start).Milliseconds(),
			)
		})
	}
}
