package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/incidenthq/api/pkg/domain/report"
	"github.com/incidenthq/api/pkg/domain/shared"
	"github.com/incidenthq/api/pkg/logger"
)

func TestHandleDomainError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "not found",
			err:        fmt.Errorf("%w: report", shared.ErrNotFound),
			wantStatus: http.StatusNotFound,
			wantCode:   "NOT_FOUND",
		},
		{
			name:       "forbidden",
			err:        shared.ErrForbidden,
			wantStatus: http.StatusForbidden,
			wantCode:   "FORBIDDEN",
		},
		{
			name:       "unauthorized",
			err:        shared.ErrUnauthorized,
			wantStatus: http.StatusUnauthorized,
			wantCode:   "UNAUTHORIZED",
		},
		{
			name:       "conflict",
			err:        fmt.Errorf("%w: stale state", shared.ErrConflict),
			wantStatus: http.StatusConflict,
			wantCode:   "CONFLICT",
		},
		{
			name:       "already exists",
			err:        fmt.Errorf("%w: slug taken", shared.ErrAlreadyExists),
			wantStatus: http.StatusConflict,
			wantCode:   "CONFLICT",
		},
		{
			name:       "validation",
			err:        fmt.Errorf("%w: bad field", shared.ErrValidation),
			wantStatus: http.StatusBadRequest,
			wantCode:   "BAD_REQUEST",
		},
		{
			name:       "rate limited",
			err:        shared.ErrTooManyRequests,
			wantStatus: http.StatusTooManyRequests,
			wantCode:   "RATE_LIMIT_EXCEEDED",
		},
		{
			name:       "invalid transition",
			err:        fmt.Errorf("%w: resolved -> new", report.ErrInvalidTransition),
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   "INVALID_TRANSITION",
		},
		{
			name:       "missing notes",
			err:        report.ErrMissingNotes,
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   "MISSING_NOTES",
		},
		{
			name:       "missing or invalid assignee",
			err:        report.ErrMissingOrInvalidAssignee,
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   "MISSING_OR_INVALID_ASSIGNEE",
		},
		{
			name:       "invalid assignee",
			err:        report.ErrInvalidAssignee,
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   "INVALID_ASSIGNEE",
		},
		{
			name:       "unknown error becomes 500",
			err:        errors.New("database exploded"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   "INTERNAL_ERROR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handleDomainError(rec, logger.NewNop(), tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)

			var body struct {
				Code    string `json:"code"`
				Message string `json:"message"`
			}
			assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantCode, body.Code)
		})
	}
}

func TestHandleDomainErrorHidesInternals(t *testing.T) {
	rec := httptest.NewRecorder()
	handleDomainError(rec, logger.NewNop(), errors.New("pq: connection refused on 10.1.2.3"))

	assert.NotContains(t, rec.Body.String(), "10.1.2.3")
}

func TestParseQueryHelpers(t *testing.T) {
	assert.Nil(t, parseQueryArray(""))
	assert.Equal(t, []string{"new", "triaged"}, parseQueryArray("new,triaged"))

	assert.Equal(t, 25, parseQueryInt("25", 0))
	assert.Equal(t, 10, parseQueryInt("", 10))
	assert.Equal(t, 10, parseQueryInt("abc", 10))

	assert.True(t, parseQueryBool("true"))
	assert.True(t, parseQueryBool("1"))
	assert.False(t, parseQueryBool(""))
	assert.False(t, parseQueryBool("no"))
}
