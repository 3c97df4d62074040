package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"scamshield/internal/domain/services/community"
	"scamshield/pkg/logger"
)

// ReputationHandler serves reputation records and the leaderboard
type ReputationHandler struct {
	ledger *community.Ledger
	logger *logger.Logger
}

func NewReputationHandler(ledger *community.Ledger, log *logger.Logger) *ReputationHandler {
	return &ReputationHandler{
		ledger: ledger,
		logger: log.WithComponent("reputation-handler"),
	}
}

// Me handles GET /api/v1/reputation/me
func (h *ReputationHandler) Me(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	h.respondProgress(w, r, actor.UserID)
}

// Get handles GET /api/v1/reputation/{userID}
func (h *ReputationHandler) Get(w http.ResponseWriter, r *http.Request) {
	h.respondProgress(w, r, chi.URLParam(r, "userID"))
}

func (h *ReputationHandler) respondProgress(w http.ResponseWriter, r *http.Request, userID string) {
	progress, err := h.ledger.Get(r.Context(), userID)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, progress)
}

// Leaderboard handles GET /api/v1/leaderboard?type=points|reports|verified&limit=
func (h *ReputationHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	entries, err := h.ledger.Leaderboard(r.Context(), r.URL.Query().Get("type"), limit)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"type":    leaderboardType(r.URL.Query().Get("type")),
		"entries": entries,
	})
}

func leaderboardType(t string) string {
	if t == "" {
		return "points"
	}
	return t
}
