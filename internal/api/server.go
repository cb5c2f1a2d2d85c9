// Package api provides the HTTP API server and handlers for the BookShare application.
package api

import (
	"encoding/json/v2"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/bookshareapp/bookshare-server/internal/ratelimit"
	"github.com/bookshareapp/bookshare-server/internal/store"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	store           store.Store
	services        *Services
	storage         *StorageServices
	router          *chi.Mux
	api             huma.API
	authRateLimiter *ratelimit.KeyedRateLimiter
	logger          *slog.Logger
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(st store.Store, services *Services, storage *StorageServices, authRateLimiter *ratelimit.KeyedRateLimiter, logger *slog.Logger) *Server {
	s := &Server{
		store:           st,
		services:        services,
		storage:         storage,
		router:          chi.NewRouter(),
		authRateLimiter: authRateLimiter,
		logger:          logger,
	}

	s.setupMiddleware()

	humaConfig := huma.DefaultConfig("BookShare API", "1.0.0")
	humaConfig.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearer": {
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "PASETO",
		},
	}
	s.api = humachi.New(s.router, humaConfig)
	RegisterErrorHandler()

	s.setupRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// setupMiddleware configures middleware stack.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))
	s.router.Use(authMiddleware(s.services.Auth))
	if s.authRateLimiter != nil {
		s.router.Use(s.rateLimitAuthEndpoints)
	}
}

// setupRoutes registers all operations plus the direct file routes that
// bypass the OpenAPI layer.
func (s *Server) setupRoutes() {
	s.registerHealthRoutes()
	s.registerAuthRoutes()
	s.registerBookRoutes()
	s.registerFeedbackRoutes()

	// Cover images are streamed straight from disk.
	s.router.Get("/covers/{path}", s.handleServeCover)
}

// rateLimitAuthEndpoints throttles the credential endpoints by client IP.
// Other routes are not limited.
func (s *Server) rateLimitAuthEndpoints(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/api/v1/auth/") {
			next.ServeHTTP(w, r)
			return
		}

		key := clientIP(r)
		if !s.authRateLimiter.Allow(key) {
			s.logger.Warn("rate limit exceeded", "ip", key, "path", r.URL.Path)
			writeJSONError(w, &APIError{
				status:  http.StatusTooManyRequests,
				Code:    "TOO_MANY_REQUESTS",
				Message: "too many requests, please try again later",
			}, s.logger)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// handleServeCover streams a stored cover image.
func (s *Server) handleServeCover(w http.ResponseWriter, r *http.Request) {
	path := chi.URLParam(r, "path")

	data, err := s.storage.Covers.Get(path)
	if err != nil {
		writeJSONError(w, &APIError{
			status:  http.StatusNotFound,
			Code:    "NOT_FOUND",
			Message: "cover not found",
		}, s.logger)
		return
	}

	w.Header().Set("Content-Type", contentTypeForCover(path))
	w.Header().Set("Cache-Control", CacheOneWeek)
	if _, err := w.Write(data); err != nil {
		s.logger.Debug("failed to write cover response", "path", path, "error", err)
	}
}

// contentTypeForCover maps a stored cover filename to its MIME type.
func contentTypeForCover(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".webp":
		return "image/webp"
	case ".gif":
		return "image/gif"
	default:
		return "application/octet-stream"
	}
}

// writeJSONError writes an APIError body outside the huma pipeline, for the
// plain chi routes and middleware.
func writeJSONError(w http.ResponseWriter, apiErr *APIError, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(apiErr.GetStatus())
	if err := json.MarshalWrite(w, apiErr); err != nil && logger != nil {
		logger.Error("failed to encode error response", "error", err)
	}
}

// clientIP extracts the client IP from the request.
// Checks X-Forwarded-For and X-Real-IP headers before falling back to RemoteAddr.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		// Take first IP in the chain.
		if i := strings.IndexByte(xff, ','); i >= 0 {
			return xff[:i]
		}
		return xff
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	// Fall back to RemoteAddr (strip port).
	ip := r.RemoteAddr
	if i := strings.LastIndexByte(ip, ':'); i >= 0 {
		return ip[:i]
	}
	return ip
}
