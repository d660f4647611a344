// Package server provides the HTTP admin API for feature registry
// reconciliation.
package server

import (
	"context"
	"fmt"
	"net/http"
	"slices"
	"time"

	"github.com/rs/zerolog"

	"github.com/agentstation/featurereg"
	"github.com/agentstation/featurereg/internal/metrics"
	"github.com/agentstation/featurereg/internal/server/cache"
	"github.com/agentstation/featurereg/internal/server/events"
	"github.com/agentstation/featurereg/internal/server/events/adapters"
	"github.com/agentstation/featurereg/internal/server/middleware"
	"github.com/agentstation/featurereg/internal/server/sse"
	ws "github.com/agentstation/featurereg/internal/server/websocket"
	"github.com/agentstation/featurereg/pkg/actions"
	"github.com/agentstation/featurereg/pkg/analysis"
	"github.com/agentstation/featurereg/pkg/features"
)

// Server holds the HTTP server state and dependencies.
type Server struct {
	client         featurereg.Client
	cache          cache.Cache
	broker         *events.Broker
	wsHub          *ws.Hub
	sseBroadcaster *sse.Broadcaster
	rateLimiter    *middleware.RateLimiter
	metrics        *metrics.Metrics
	logger         *zerolog.Logger
	config         Config
	ctx            context.Context
	cancel         context.CancelFunc
	startTime      time.Time
}

// New creates a server for client. Hooks are registered on client, so one
// client should back at most one server.
func New(client featurereg.Client, cfg Config, logger *zerolog.Logger) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	ctx, cancel := context.WithCancel(context.Background())

	c, err := cache.Open(ctx, cfg.Cache)
	if err != nil {
		cancel()
		return nil, err
	}
	logger.Debug().Str("backend", cfg.Cache.Backend).Dur("ttl", cfg.Cache.TTL).Msg("Response cache opened")

	m, err := metrics.New()
	if err != nil {
		cancel()
		_ = c.Close()
		return nil, err
	}

	broker := events.NewBroker(logger, cfg.EventBuffer)
	wsHub := ws.NewHub(logger, cfg.EventBuffer, originChecker(cfg))
	stream := sse.NewBroadcaster(logger, cfg.EventBuffer)

	// Subscribe before Run; the broker accepts subscribers at any time.
	broker.Subscribe(adapters.NewWebSocketSubscriber(wsHub))
	broker.Subscribe(adapters.NewSSESubscriber(stream))

	s := &Server{
		client:         client,
		cache:          c,
		broker:         broker,
		wsHub:          wsHub,
		sseBroadcaster: stream,
		metrics:        m,
		logger:         logger,
		config:         cfg,
		ctx:            ctx,
		cancel:         cancel,
		startTime:      time.Now(),
	}
	if cfg.RateLimit > 0 {
		s.rateLimiter = middleware.NewRateLimiter(cfg.RateLimit, logger)
	}

	m.Attach(client)
	s.connectHooks()

	logger.Debug().Msg("Server instance created")
	return s, nil
}

// originChecker restricts WebSocket upgrades to the CORS origins when CORS
// is configured with an explicit list.
func originChecker(cfg Config) func(*http.Request) bool {
	if !cfg.CORSEnabled || len(cfg.CORSOrigins) == 0 || slices.Contains(cfg.CORSOrigins, "*") {
		return nil
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || slices.Contains(cfg.CORSOrigins, origin)
	}
}

// connectHooks publishes client events to the broker and keeps the
// response cache in step with the latest analysis.
func (s *Server) connectHooks() {
	s.client.OnAnalyzed(func(res *analysis.Result) {
		if err := s.cache.Clear(s.ctx); err != nil {
			s.logger.Warn().Err(err).Msg("Response cache clear failed")
		}
		s.broker.Publish(events.AnalysisCompleted, map[string]any{
			"analyzedAt": res.Metadata.AnalyzedAt,
			"duration":   res.Metadata.Duration.String(),
			"stats":      res.Stats,
		})
	})

	s.client.OnOrphanFound(func(o features.OrphanEntry) {
		s.broker.Publish(events.OrphanFound, map[string]any{"orphan": o})
	})

	s.client.OnOrphanResolved(func(o features.OrphanEntry) {
		s.broker.Publish(events.OrphanResolved, map[string]any{"orphan": o})
	})

	s.client.OnRecommendationChanged(func(old, updated features.OrphanEntry) {
		s.broker.Publish(events.RecommendationChanged, map[string]any{
			"id":   updated.ID,
			"from": old.Recommendation,
			"to":   updated.Recommendation,
		})
	})

	s.client.OnReviewed(func(_ context.Context, item actions.ItemResult) {
		typ := events.ReviewApplied
		if item.Outcome != actions.OutcomeSucceeded {
			typ = events.ReviewFailed
		}
		s.broker.Publish(typ, item)
	})

	s.logger.Debug().Msg("Client hooks connected to event broker")
}

// Start starts background services. They stop when Shutdown is called.
func (s *Server) Start() {
	go s.broker.Run(s.ctx)
	go s.wsHub.Run(s.ctx)
	go s.sseBroadcaster.Run(s.ctx)
	if s.rateLimiter != nil {
		go s.rateLimiter.Run(s.ctx)
	}
	s.logger.Debug().Msg("Background services started")
}

// Handler returns the configured http.Handler with middleware chain applied.
func (s *Server) Handler() http.Handler {
	return s.setupRouter()
}

// HTTPServer builds the listener for s using the configured address and
// timeouts.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:              s.Addr(),
		Handler:           s.Handler(),
		ReadTimeout:       s.config.ReadTimeout,
		ReadHeaderTimeout: s.config.ReadTimeout,
		WriteTimeout:      s.config.WriteTimeout,
		IdleTimeout:       s.config.IdleTimeout,
	}
}

// Addr returns host:port.
func (s *Server) Addr() string {
	return fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
}

// Shutdown stops background services and closes the cache.
func (s *Server) Shutdown(_ context.Context) error {
	s.logger.Info().Msg("Shutting down server background services")
	s.cancel()
	return s.cache.Close()
}

// Broker returns the event broker.
func (s *Server) Broker() *events.Broker {
	return s.broker
}

// Metrics returns the Prometheus collectors.
func (s *Server) Metrics() *metrics.Metrics {
	return s.metrics
}

// StartTime returns the server start time for uptime calculations.
func (s *Server) StartTime() time.Time {
	return s.startTime
}
