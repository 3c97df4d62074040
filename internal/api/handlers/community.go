package handlers

import (
	"net/http"

	"scamshield/internal/domain/models"
	"scamshield/internal/domain/services/community"
	"scamshield/pkg/logger"
)

// CommunityHandler handles community report endpoints
type CommunityHandler struct {
	workflow *community.Workflow
	logger   *logger.Logger
}

// NewCommunityHandler creates a new community handler
func NewCommunityHandler(workflow *community.Workflow, log *logger.Logger) *CommunityHandler {
	return &CommunityHandler{
		workflow: workflow,
		logger:   log.WithComponent("community-handler"),
	}
}

// Submit handles POST /api/v1/community/reports
func (h *CommunityHandler) Submit(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	var req models.SubmitReportRequest
	if err := decodeAndValidate(w, r, &req); err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	report, err := h.workflow.Submit(r.Context(), actor, req)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	respondJSON(w, http.StatusCreated, report)
}

// List handles GET /api/v1/community/reports?status=&limit=&offset=
func (h *CommunityHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := pageParams(r)
	h.list(w, r, models.ReportFilter{
		Status: models.ReportStatus(r.URL.Query().Get("status")),
		Limit:  limit,
		Offset: offset,
	})
}

// MyReports handles GET /api/v1/community/my-reports
func (h *CommunityHandler) MyReports(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	limit, offset := pageParams(r)
	h.list(w, r, models.ReportFilter{
		Status:          models.ReportStatus(r.URL.Query().Get("status")),
		SubmitterUserID: actor.UserID,
		Limit:           limit,
		Offset:          offset,
	})
}

func (h *CommunityHandler) list(w http.ResponseWriter, r *http.Request, filter models.ReportFilter) {
	reports, total, err := h.workflow.List(r.Context(), filter)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, ListResponse[*models.CommunityReport]{
		Items:  reports,
		Total:  total,
		Offset: filter.Offset,
	})
}

// Get handles GET /api/v1/community/reports/{id}
func (h *CommunityHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id", "community report")
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	report, err := h.workflow.Get(r.Context(), id)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, report)
}

// Vote handles POST /api/v1/community/reports/{id}/vote
func (h *CommunityHandler) Vote(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	id, err := uuidParam(r, "id", "community report")
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	var req models.VoteRequest
	if err := decodeAndValidate(w, r, &req); err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	tally, err := h.workflow.Vote(r.Context(), actor, id, req.Direction)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, tally)
}

// Verify handles POST /api/v1/community/reports/{id}/verify
func (h *CommunityHandler) Verify(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	id, err := uuidParam(r, "id", "community report")
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	var req models.VerifyRequest
	if err := decodeAndValidate(w, r, &req); err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	report, err := h.workflow.Verify(r.Context(), actor, id, req.Decision, req.Notes)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, report)
}
