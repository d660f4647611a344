// Package handlers implements the HTTP endpoints of the admin API.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/agentstation/featurereg"
	"github.com/agentstation/featurereg/internal/server/cache"
	"github.com/agentstation/featurereg/internal/server/events"
	"github.com/agentstation/featurereg/internal/server/response"
	"github.com/agentstation/featurereg/internal/server/sse"
	ws "github.com/agentstation/featurereg/internal/server/websocket"
	"github.com/agentstation/featurereg/pkg/analysis"
	"github.com/agentstation/featurereg/pkg/logging"
)

// Handlers serves the API routes.
type Handlers struct {
	client    featurereg.Client
	cache     cache.Cache
	broker    *events.Broker
	wsHub     *ws.Hub
	sse       *sse.Broadcaster
	logger    *zerolog.Logger
	startTime time.Time
}

// New creates the handler set.
func New(
	client featurereg.Client,
	c cache.Cache,
	broker *events.Broker,
	wsHub *ws.Hub,
	stream *sse.Broadcaster,
	logger *zerolog.Logger,
) *Handlers {
	return &Handlers{
		client:    client,
		cache:     c,
		broker:    broker,
		wsHub:     wsHub,
		sse:       stream,
		logger:    logger,
		startTime: time.Now(),
	}
}

// current returns the last analysis result, running a pass when there is
// none yet or when refresh is set.
func (h *Handlers) current(ctx context.Context, refresh bool) (*analysis.Result, error) {
	if !refresh {
		if res, ok := h.client.Last(); ok {
			return res, nil
		}
	}
	return h.client.Analyze(ctx)
}

// cached serves GET responses from the response cache. build runs on a
// miss; its envelope is stored and written. Cache failures fall back to
// building the response.
func (h *Handlers) cached(w http.ResponseWriter, r *http.Request, build func() (any, error)) {
	ctx := r.Context()
	key := r.URL.Path + "?" + r.URL.RawQuery
	refresh := r.URL.Query().Has("refresh")

	if !refresh {
		body, ok, err := h.cache.Get(ctx, key)
		if err != nil {
			logging.FromContext(ctx).Warn().Err(err).Msg("Response cache read failed")
		}
		if ok {
			response.Raw(w, http.StatusOK, body)
			return
		}
	}

	data, err := build()
	if err != nil {
		h.fail(w, r, err)
		return
	}

	body, err := json.Marshal(response.Success(data))
	if err != nil {
		response.InternalError(w, err)
		return
	}
	body = append(body, '\n')
	if err := h.cache.Set(ctx, key, body); err != nil {
		logging.FromContext(ctx).Warn().Err(err).Msg("Response cache write failed")
	}
	response.Raw(w, http.StatusOK, body)
}

// invalidate drops cached responses after a mutation.
func (h *Handlers) invalidate(ctx context.Context) {
	if err := h.cache.Clear(ctx); err != nil {
		logging.FromContext(ctx).Warn().Err(err).Msg("Response cache clear failed")
	}
}

// fail logs err and writes the matching error envelope.
func (h *Handlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, _ := response.Status(err)
	ev := logging.FromContext(r.Context()).Warn()
	if status >= http.StatusInternalServerError {
		ev = logging.FromContext(r.Context()).Error()
	}
	ev.Err(err).Int("status", status).Msg("Request failed")
	response.FromError(w, err)
}
