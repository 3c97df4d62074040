package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	apimiddleware "scamshield/internal/api/middleware"
	apperrors "scamshield/internal/domain/errors"
	"scamshield/internal/domain/models"
	"scamshield/pkg/logger"
)

const maxBodyBytes = 1 << 20

var validate = validator.New(validator.WithRequiredStructEnabled())

// ErrorResponse is the JSON body of every failed request
type ErrorResponse struct {
	Error     string         `json:"error"`
	Code      string         `json:"code,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
	RequestID string         `json:"request_id,omitempty"`
}

// ListResponse wraps a page of results
type ListResponse[T any] struct {
	Items  []T `json:"items"`
	Total  int `json:"total"`
	Offset int `json:"offset"`
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// respondError maps AppErrors onto their status; anything else is a 500
// whose cause is logged but not returned.
func respondError(w http.ResponseWriter, r *http.Request, log *logger.Logger, err error) {
	resp := ErrorResponse{RequestID: middleware.GetReqID(r.Context())}
	status := http.StatusInternalServerError

	if appErr, ok := apperrors.As(err); ok && appErr.Type != apperrors.ErrorTypeInternal {
		status = appErr.StatusCode()
		resp.Error = appErr.Message
		resp.Code = appErr.Code
		resp.Details = appErr.Details
	} else {
		log.WithRequestID(resp.RequestID).Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		resp.Error = "internal server error"
		resp.Code = "INTERNAL_ERROR"
	}

	respondJSON(w, status, resp)
}

// decodeAndValidate reads a JSON body into dst and runs its validate tags
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		return apperrors.NewValidationError("INVALID_BODY", "invalid request body").WithCause(err)
	}
	if err := validate.Struct(dst); err != nil {
		return validationError(err)
	}
	return nil
}

func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperrors.NewValidationError("INVALID_BODY", err.Error())
	}
	fields := make(map[string]any, len(verrs))
	names := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		name := strings.ToLower(fe.Field())
		fields[name] = fe.Tag()
		names = append(names, name)
	}
	return apperrors.NewValidationError("MISSING_FIELDS",
		fmt.Sprintf("invalid or missing fields: %s", strings.Join(names, ", "))).
		WithDetails(map[string]any{"fields": fields})
}

// actorFrom fetches the caller placed in context by the JWT middleware
func actorFrom(r *http.Request) (models.Actor, error) {
	actor, ok := apimiddleware.ActorFrom(r.Context())
	if !ok || actor.UserID == "" {
		return models.Actor{}, apperrors.NewUnauthorizedError("authentication required")
	}
	return actor, nil
}

func uuidParam(r *http.Request, name, resource string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, apperrors.NewNotFoundError(resource)
	}
	return id, nil
}

// pageParams reads limit/offset. Bad or missing values fall back to zero
// and the services apply their own defaults.
func pageParams(r *http.Request) (limit, offset int) {
	q := r.URL.Query()
	limit, _ = strconv.Atoi(q.Get("limit"))
	offset, _ = strconv.Atoi(q.Get("offset"))
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
