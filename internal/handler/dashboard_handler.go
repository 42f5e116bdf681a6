package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"stays-be/internal/domain"
	"stays-be/internal/service"
	"stays-be/pkg/errors"
	"stays-be/pkg/logger"
)

// DashboardHandler serves owner dashboard stats and the realtime import feed
type DashboardHandler struct {
	stats    service.StatsService
	notifier service.NotifierService
	logger   *logger.Logger
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(stats service.StatsService, notifier service.NotifierService, logger *logger.Logger) *DashboardHandler {
	return &DashboardHandler{
		stats:    stats,
		notifier: notifier,
		logger:   logger,
	}
}

// Stats handles GET /api/dashboard/stats?mode=daily|weekly
func (h *DashboardHandler) Stats(w http.ResponseWriter, r *http.Request) {
	id, ok := callerIdentity(w, r, h.logger)
	if !ok {
		return
	}

	mode := domain.BucketMode(r.URL.Query().Get("mode"))
	if mode == "" {
		mode = domain.BucketModeDaily
	}
	if mode != domain.BucketModeDaily && mode != domain.BucketModeWeekly {
		sendError(w, h.logger, errors.NewValidationError("mode must be daily or weekly", nil))
		return
	}

	stats, err := h.stats.Dashboard(r.Context(), id, mode)
	if err != nil {
		sendError(w, h.logger, err)
		return
	}

	sendJSON(w, h.logger, http.StatusOK, stats)
}

// Stream handles GET /api/dashboard/stream, pushing import events for the
// owner's links over server-sent events until the client disconnects
func (h *DashboardHandler) Stream(w http.ResponseWriter, r *http.Request) {
	id, ok := callerIdentity(w, r, h.logger)
	if !ok {
		return
	}
	if !id.IsAuthenticated() {
		sendError(w, h.logger, errors.NewAuthenticationError("Sign in to stream the dashboard"))
		return
	}

	flusher, canFlush := w.(http.Flusher)
	if !canFlush {
		sendError(w, h.logger, errors.NewInternalError("streaming is not supported", nil))
		return
	}

	events, cancel, err := h.notifier.Subscribe(r.Context(), id.Key)
	if err != nil {
		sendError(w, h.logger, err)
		return
	}
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	// An initial comment line commits the headers so proxies and the
	// EventSource client see the stream as open immediately.
	fmt.Fprint(w, ": connected\n\n")
	flusher.Flush()

	h.logger.WithField("owner_id", id.Key).Debug("Dashboard stream opened")

	// Periodic comments keep idle connections alive through proxies.
	heartbeat := time.NewTicker(25 * time.Second)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			h.logger.WithField("owner_id", id.Key).Debug("Dashboard stream closed by client")
			return
		case <-heartbeat.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		case event, open := <-events:
			if !open {
				return
			}
			payload, err := json.Marshal(event)
			if err != nil {
				h.logger.WithError(err).Error("Failed to encode import event for stream")
				continue
			}
			fmt.Fprintf(w, "event: import\nid: %s\ndata: %s\n\n", event.ID, payload)
			flusher.Flush()
		}
	}
}
