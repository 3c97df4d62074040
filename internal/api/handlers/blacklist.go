package handlers

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"scamshield/internal/domain/models"
	"scamshield/internal/domain/services/community"
	"scamshield/pkg/logger"
)

// BlacklistHandler serves the scam number registry
type BlacklistHandler struct {
	blacklist *community.BlacklistService
	logger    *logger.Logger
}

// NewBlacklistHandler creates a new blacklist handler
func NewBlacklistHandler(blacklist *community.BlacklistService, log *logger.Logger) *BlacklistHandler {
	return &BlacklistHandler{
		blacklist: blacklist,
		logger:    log.WithComponent("blacklist-handler"),
	}
}

// List handles GET /api/v1/blacklist
func (h *BlacklistHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := pageParams(r)
	entries, total, err := h.blacklist.List(r.Context(), limit, offset)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, ListResponse[*models.BlacklistEntry]{
		Items:  entries,
		Total:  total,
		Offset: offset,
	})
}

// Report handles POST /api/v1/blacklist/report
func (h *BlacklistHandler) Report(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	var req models.ReportScammerRequest
	if err := decodeAndValidate(w, r, &req); err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	entry, err := h.blacklist.ReportScammer(r.Context(), actor, req)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	respondJSON(w, http.StatusCreated, entry)
}

// Get handles GET /api/v1/blacklist/{phone}
func (h *BlacklistHandler) Get(w http.ResponseWriter, r *http.Request) {
	entry, err := h.blacklist.Get(r.Context(), phoneParam(r))
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, entry)
}

// Related handles GET /api/v1/blacklist/{phone}/related
func (h *BlacklistHandler) Related(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	phone := phoneParam(r)
	related, err := h.blacklist.Related(r.Context(), phone, limit)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"phone":   phone,
		"related": related,
	})
}

// phoneParam decodes the path segment so "+234..." survives as "%2B234...".
func phoneParam(r *http.Request) string {
	raw := chi.URLParam(r, "phone")
	if decoded, err := url.PathUnescape(raw); err == nil {
		return decoded
	}
	return raw
}
