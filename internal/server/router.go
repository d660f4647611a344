package server

import (
	"net/http"

	"github.com/agentstation/featurereg/internal/server/handlers"
	"github.com/agentstation/featurereg/internal/server/middleware"
)

// setupRouter creates the HTTP handler with routes and middleware.
func (s *Server) setupRouter() http.Handler {
	mux := http.NewServeMux()

	h := handlers.New(
		s.client,
		s.cache,
		s.broker,
		s.wsHub,
		s.sseBroadcaster,
		s.logger,
	)

	s.registerRoutes(mux, h)
	return s.applyMiddleware(mux)
}

// registerRoutes registers all HTTP routes.
func (s *Server) registerRoutes(mux *http.ServeMux, h *handlers.Handlers) {
	prefix := s.config.PathPrefix

	// Favicon handler (return 204 No Content to avoid 404 logs)
	mux.HandleFunc("GET /favicon.ico", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	// Public health endpoints (no auth required)
	mux.HandleFunc("GET /health", h.HandleHealth)
	mux.HandleFunc("GET "+prefix+"/health", h.HandleHealth)
	mux.HandleFunc("GET "+prefix+"/ready", h.HandleReady)
	mux.HandleFunc("GET "+prefix+"/stats", h.HandleStats)

	// Analysis
	mux.HandleFunc("GET "+prefix+"/analysis", h.HandleAnalysis)
	mux.HandleFunc("GET "+prefix+"/analysis/{section}", h.HandleAnalysisSection)

	// Orphans and review
	mux.HandleFunc("GET "+prefix+"/orphans", h.HandleListOrphans)
	mux.HandleFunc("GET "+prefix+"/orphans/{id}", h.HandleGetOrphan)
	mux.HandleFunc("POST "+prefix+"/orphans/bulk/{action}", h.HandleBulkReview)
	mux.HandleFunc("POST "+prefix+"/orphans/{id}/{action}", h.HandleReview)
	mux.HandleFunc("GET "+prefix+"/export.csv", h.HandleExportCSV)

	// Real-time endpoints
	mux.HandleFunc("GET "+prefix+"/updates/ws", h.HandleWebSocket)
	mux.HandleFunc("GET "+prefix+"/updates/stream", h.HandleSSE)

	if s.config.MetricsEnabled {
		mux.Handle("GET /metrics", s.metrics.Handler())
	}
}

// applyMiddleware wraps handler with the middleware chain. Recovery runs
// outermost so a panic anywhere below still yields an envelope.
func (s *Server) applyMiddleware(handler http.Handler) http.Handler {
	cfg := s.config
	chain := []func(http.Handler) http.Handler{
		middleware.Recovery(s.logger),
		middleware.Logger(s.logger),
	}
	if cfg.MetricsEnabled {
		chain = append(chain, middleware.Metrics(s.metrics))
	}

	if cfg.CORSEnabled {
		chain = append(chain, middleware.CORS(middleware.CORSConfig{
			AllowedOrigins: cfg.CORSOrigins,
			AllowedHeaders: []string{cfg.AuthHeader, cfg.ReviewerHeader, middleware.RequestIDHeader},
		}))
	}

	if cfg.AuthEnabled {
		chain = append(chain, middleware.Auth(middleware.AuthConfig{
			APIKey:     cfg.APIKey,
			HeaderName: cfg.AuthHeader,
			PublicPaths: []string{
				"/health",
				"/favicon.ico",
				cfg.PathPrefix + "/health",
				cfg.PathPrefix + "/ready",
			},
		}, s.logger))
	}

	if s.rateLimiter != nil {
		chain = append(chain, middleware.RateLimit(s.rateLimiter))
	}

	chain = append(chain, middleware.Reviewer(cfg.ReviewerHeader))
	return middleware.Chain(chain...)(handler)
}
