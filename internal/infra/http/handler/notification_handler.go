package handler

import (
	"net/http"
	"time"

	"github.com/incidenthq/api/internal/app"
	httpx "github.com/incidenthq/api/internal/infra/http"
	"github.com/incidenthq/api/internal/infra/http/middleware"
	"github.com/incidenthq/api/pkg/apierror"
	"github.com/incidenthq/api/pkg/domain/notification"
	"github.com/incidenthq/api/pkg/logger"
	"github.com/incidenthq/api/pkg/validator"
)

// NotificationHandler handles in-app notification requests.
type NotificationHandler struct {
	notificationService *app.NotificationService
	validator           *validator.Validator
	logger              *logger.Logger
}

// NewNotificationHandler creates a new NotificationHandler.
func NewNotificationHandler(notificationService *app.NotificationService, log *logger.Logger) *NotificationHandler {
	return &NotificationHandler{
		notificationService: notificationService,
		validator:           validator.New(),
		logger:              log.With("handler", "notification"),
	}
}

// NotificationResponse is the API representation of a notification.
type NotificationResponse struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Priority  string    `json:"priority"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	EventID   *string   `json:"event_id,omitempty"`
	ReportID  *string   `json:"report_id,omitempty"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

func toNotificationResponse(n *notification.Notification) NotificationResponse {
	resp := NotificationResponse{
		ID:        n.ID().String(),
		Type:      string(n.Type()),
		Priority:  string(n.Priority()),
		Title:     n.Title(),
		Message:   n.Message(),
		IsRead:    n.IsRead(),
		CreatedAt: n.CreatedAt(),
	}
	if eventID := n.EventID(); eventID != nil {
		s := eventID.String()
		resp.EventID = &s
	}
	if reportID := n.ReportID(); reportID != nil {
		s := reportID.String()
		resp.ReportID = &s
	}
	return resp
}

// NotificationListResponse augments the list envelope with the unread
// count, saving clients a second round trip.
type NotificationListResponse struct {
	Data   []NotificationResponse `json:"data"`
	Count  int                    `json:"count"`
	Unread int                    `json:"unread"`
	Limit  int                    `json:"limit"`
	Offset int                    `json:"offset"`
}

// List returns the caller's notifications, newest first.
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		apierror.Unauthorized("").WriteJSON(w)
		return
	}

	input := app.ListNotificationsInput{
		UnreadOnly: parseQueryBool(httpx.QueryParam(r, "unread_only")),
		Limit:      parseQueryInt(httpx.QueryParam(r, "limit"), 0),
		Offset:     parseQueryInt(httpx.QueryParam(r, "offset"), 0),
	}

	notifications, err := h.notificationService.ListNotifications(r.Context(), userID, input)
	if err != nil {
		handleDomainError(w, h.logger, err)
		return
	}

	unread, err := h.notificationService.CountUnread(r.Context(), userID)
	if err != nil {
		handleDomainError(w, h.logger, err)
		return
	}

	data := make([]NotificationResponse, 0, len(notifications))
	for _, n := range notifications {
		data = append(data, toNotificationResponse(n))
	}

	respondJSON(w, http.StatusOK, NotificationListResponse{
		Data:   data,
		Count:  len(data),
		Unread: unread,
		Limit:  input.Limit,
		Offset: input.Offset,
	})
}

// MarkRead marks one of the caller's notifications as read.
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		apierror.Unauthorized("").WriteJSON(w)
		return
	}

	if err := h.notificationService.MarkRead(r.Context(), userID, httpx.PathParam(r, "notificationID")); err != nil {
		handleDomainError(w, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// SettingsResponse is the API representation of notification settings.
type SettingsResponse struct {
	EmailOnSubmitted     bool      `json:"email_on_submitted"`
	EmailOnAssigned      bool      `json:"email_on_assigned"`
	EmailOnStatusChanged bool      `json:"email_on_status_changed"`
	EmailOnCommentAdded  bool      `json:"email_on_comment_added"`
	UpdatedAt            time.Time `json:"updated_at"`
}

func toSettingsResponse(s *notification.Settings) SettingsResponse {
	return SettingsResponse{
		EmailOnSubmitted:     s.EmailEnabled(notification.TypeReportSubmitted),
		EmailOnAssigned:      s.EmailEnabled(notification.TypeReportAssigned),
		EmailOnStatusChanged: s.EmailEnabled(notification.TypeReportStatusChanged),
		EmailOnCommentAdded:  s.EmailEnabled(notification.TypeReportCommentAdded),
		UpdatedAt:            s.UpdatedAt(),
	}
}

// GetSettings returns the caller's notification settings.
func (h *NotificationHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		apierror.Unauthorized("").WriteJSON(w)
		return
	}

	settings, err := h.notificationService.GetSettings(r.Context(), userID)
	if err != nil {
		handleDomainError(w, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, toSettingsResponse(settings))
}

// UpdateSettingsRequest is the request body for settings updates.
// Absent fields keep their current values.
type UpdateSettingsRequest struct {
	EmailOnSubmitted     *bool `json:"email_on_submitted"`
	EmailOnAssigned      *bool `json:"email_on_assigned"`
	EmailOnStatusChanged *bool `json:"email_on_status_changed"`
	EmailOnCommentAdded  *bool `json:"email_on_comment_added"`
}

// UpdateSettings updates the caller's notification settings.
func (h *NotificationHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		apierror.Unauthorized("").WriteJSON(w)
		return
	}

	var req UpdateSettingsRequest
	if err := decodeJSON(r, &req); err != nil {
		apierror.BadRequest("Invalid request body").WriteJSON(w)
		return
	}

	settings, err := h.notificationService.UpdateSettings(r.Context(), userID, app.UpdateSettingsInput{
		EmailOnSubmitted:     req.EmailOnSubmitted,
		EmailOnAssigned:      req.EmailOnAssigned,
		EmailOnStatusChanged: req.EmailOnStatusChanged,
		EmailOnCommentAdded:  req.EmailOnCommentAdded,
	})
	if err != nil {
		handleDomainError(w, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, toSettingsResponse(settings))
}
