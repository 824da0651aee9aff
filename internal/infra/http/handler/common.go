// Package handler contains the HTTP handlers for the public API.
// Handlers decode and validate request bodies, call the application
// services, and translate domain errors into API error responses.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/incidenthq/api/pkg/apierror"
	"github.com/incidenthq/api/pkg/domain/report"
	"github.com/incidenthq/api/pkg/domain/shared"
	"github.com/incidenthq/api/pkg/logger"
	"github.com/incidenthq/api/pkg/validator"
)

// ListResponse is the envelope for list endpoints.
type ListResponse[T any] struct {
	Data   []T `json:"data"`
	Count  int `json:"count"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// respondJSON writes v as a JSON response with the given status.
func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// decodeJSON decodes the request body into v.
func decodeJSON(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}

// handleDomainError maps application and domain errors onto API error
// responses. Lifecycle guard failures get their own codes so clients
// can react to them; everything unmatched becomes a 500 with a
// generic message.
func handleDomainError(w http.ResponseWriter, log *logger.Logger, err error) {
	var apiErr *apierror.Error
	if errors.As(err, &apiErr) {
		apiErr.WriteJSON(w)
		return
	}

	var valErrs validator.ValidationErrors
	if errors.As(err, &valErrs) {
		apierror.ValidationFailed("Validation failed", valErrs).WriteJSON(w)
		return
	}

	switch {
	case errors.Is(err, report.ErrInvalidTransition):
		apierror.UnprocessableEntity(apierror.CodeInvalidTransition, err.Error()).WriteJSON(w)
	case errors.Is(err, report.ErrMissingNotes):
		apierror.UnprocessableEntity(apierror.CodeMissingNotes, err.Error()).WriteJSON(w)
	case errors.Is(err, report.ErrMissingOrInvalidAssignee):
		apierror.UnprocessableEntity(apierror.CodeMissingOrInvalidAssignee, err.Error()).WriteJSON(w)
	case errors.Is(err, report.ErrInvalidAssignee):
		apierror.UnprocessableEntity(apierror.CodeInvalidAssignee, err.Error()).WriteJSON(w)
	case errors.Is(err, shared.ErrNotFound):
		apierror.NotFound("").WriteJSON(w)
	case errors.Is(err, shared.ErrForbidden):
		apierror.SafeForbidden(err).WriteJSON(w)
	case errors.Is(err, shared.ErrUnauthorized):
		apierror.SafeUnauthorized(err).WriteJSON(w)
	case errors.Is(err, shared.ErrAlreadyExists):
		apierror.Conflict("Resource already exists").WriteJSON(w)
	case errors.Is(err, shared.ErrConflict):
		apierror.Conflict("Conflicting update, retry with fresh state").WriteJSON(w)
	case errors.Is(err, shared.ErrValidation), errors.Is(err, shared.ErrInvalidInput):
		apierror.BadRequest(err.Error()).WriteJSON(w)
	case errors.Is(err, shared.ErrTooManyRequests):
		apierror.RateLimitExceeded().WriteJSON(w)
	default:
		log.WithError(err).Error("unhandled error in http handler")
		apierror.InternalError(err).WriteJSON(w)
	}
}

// parseQueryArray splits a comma-separated query parameter. Returns
// nil when the input is empty.
func parseQueryArray(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}

// parseQueryInt parses a query parameter as an integer, falling back
// to defaultVal when empty or invalid.
func parseQueryInt(s string, defaultVal int) int {
	if s == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(s)
	if err != nil {
		return defaultVal
	}
	return val
}

// parseQueryBool parses a query parameter as a boolean; "true" and
// "1" are true, everything else false.
func parseQueryBool(s string) bool {
	return s == "true" || s == "1"
}
