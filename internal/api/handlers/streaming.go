package handlers

import (
	"net/http"

	"scamshield/internal/streaming"
	"scamshield/pkg/logger"
)

// StreamingHandler handles the live community event feed
type StreamingHandler struct {
	wsHub    *streaming.WebSocketHub
	eventBus *streaming.EventBus
	logger   *logger.Logger
}

// NewStreamingHandler creates a new streaming handler
func NewStreamingHandler(wsHub *streaming.WebSocketHub, eventBus *streaming.EventBus, log *logger.Logger) *StreamingHandler {
	return &StreamingHandler{
		wsHub:    wsHub,
		eventBus: eventBus,
		logger:   log.WithComponent("streaming-handler"),
	}
}

// HandleWebSocket handles GET /api/v1/community/live
func (h *StreamingHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	if h.wsHub == nil {
		http.Error(w, `{"error":"live feed not available"}`, http.StatusServiceUnavailable)
		return
	}
	actor, err := actorFrom(r)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	h.logger.Debug().
		Str("user_id", actor.UserID).
		Str("remote_addr", r.RemoteAddr).
		Msg("live feed connection request")

	h.wsHub.ServeWebSocket(w, r, actor.UserID)
}

// GetStats handles GET /api/v1/community/live/stats
func (h *StreamingHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	var resp struct {
		Live                streaming.LiveStats `json:"live"`
		EventBusSubscribers int                 `json:"event_bus_subscribers"`
	}
	if h.wsHub != nil {
		resp.Live = h.wsHub.Stats()
	}
	if h.eventBus != nil {
		resp.EventBusSubscribers = h.eventBus.SubscriberCount()
	}

	respondJSON(w, http.StatusOK, resp)
}
