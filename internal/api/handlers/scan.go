package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	apperrors "scamshield/internal/domain/errors"
	"scamshield/internal/domain/models"
	"scamshield/internal/domain/services/phoneintel"
	"scamshield/internal/domain/services/scan"
	"scamshield/pkg/logger"
)

// ScanHandler handles message scanning and scan history
type ScanHandler struct {
	scans  *scan.Service
	logger *logger.Logger
}

// NewScanHandler creates a new scan handler
func NewScanHandler(scans *scan.Service, log *logger.Logger) *ScanHandler {
	return &ScanHandler{
		scans:  scans,
		logger: log.WithComponent("scan-handler"),
	}
}

// ScanRequest is the request body for scoring a message
type ScanRequest struct {
	Message      string `json:"message" validate:"required,max=5000"`
	Phone        string `json:"phone,omitempty" validate:"max=32"`
	SenderName   string `json:"sender_name,omitempty" validate:"max=128"`
	BusinessType string `json:"business_type,omitempty" validate:"max=64"`
}

// Scan handles POST /api/v1/scans
func (h *ScanHandler) Scan(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	var req ScanRequest
	if err := decodeAndValidate(w, r, &req); err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	if req.Phone != "" && !phoneintel.ValidFormat(req.Phone) {
		respondError(w, r, h.logger, apperrors.NewValidationError("INVALID_PHONE", "phone number format is invalid"))
		return
	}

	report, err := h.scans.Scan(r.Context(), actor, models.ScanInput{
		Text:         req.Message,
		Phone:        req.Phone,
		SenderName:   req.SenderName,
		BusinessType: req.BusinessType,
	})
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	respondJSON(w, http.StatusCreated, report)
}

// List handles GET /api/v1/scans
func (h *ScanHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	limit, offset := pageParams(r)
	reports, total, err := h.scans.List(r.Context(), actor, limit, offset)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, ListResponse[*models.ScanReport]{
		Items:  reports,
		Total:  total,
		Offset: offset,
	})
}

// Get handles GET /api/v1/scans/{id}
func (h *ScanHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	id, err := uuidParam(r, "id", "scan")
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	report, err := h.scans.Get(r.Context(), actor, id)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, report)
}

// Stats handles GET /api/v1/scans/stats
func (h *ScanHandler) Stats(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	stats, err := h.scans.Stats(r.Context(), actor)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, stats)
}

// Analytics handles GET /api/v1/scans/analytics?days=N
func (h *ScanHandler) Analytics(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	days := 0
	if raw := r.URL.Query().Get("days"); raw != "" {
		if days, err = strconv.Atoi(raw); err != nil {
			respondError(w, r, h.logger, apperrors.NewValidationError("INVALID_DAYS", "days must be a number"))
			return
		}
	}

	analytics, err := h.scans.Analytics(r.Context(), actor, days)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, analytics)
}

// Activity handles GET /api/v1/activity
func (h *ScanHandler) Activity(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	limit, _ := pageParams(r)
	items, err := h.scans.Activity(r.Context(), actor, limit)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, ListResponse[models.ActivityItem]{
		Items: items,
		Total: len(items),
	})
}

// Export handles GET /api/v1/scans/export
func (h *ScanHandler) Export(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	export, err := h.scans.Export(r.Context(), actor)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	filename := fmt.Sprintf("scamshield-scans-%s.json", export.GeneratedAt.UTC().Format("20060102-150405"))
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	respondJSON(w, http.StatusOK, export)
}
