package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/incidenthq/api/internal/app"
	"github.com/incidenthq/api/pkg/email"
	"github.com/incidenthq/api/pkg/logger"
)

// Task types for email jobs
const (
	TypeEmailNotification  = "email:notification"
	TypeEmailPasswordReset = "email:password_reset"
)

// NewNotificationEmailTask creates a new notification email task.
func NewNotificationEmailTask(payload app.NotificationEmailPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal notification email payload: %w", err)
	}
	return asynq.NewTask(
		TypeEmailNotification,
		data,
		asynq.MaxRetry(3),
		asynq.Timeout(30*time.Second),
		asynq.Queue("email"),
	), nil
}

// NewPasswordResetEmailTask creates a new password reset email task.
func NewPasswordResetEmailTask(payload app.PasswordResetEmailPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal password reset payload: %w", err)
	}
	return asynq.NewTask(
		TypeEmailPasswordReset,
		data,
		asynq.MaxRetry(3),
		asynq.Timeout(30*time.Second),
		asynq.Queue("email"),
	), nil
}

// EmailTaskHandler renders and sends queued emails.
type EmailTaskHandler struct {
	sender  email.Sender
	appName string
	baseURL string
	logger  *logger.Logger
}

// NewEmailTaskHandler creates a new email task handler. baseURL is the
// public application URL used to build report links.
func NewEmailTaskHandler(sender email.Sender, appName, baseURL string, log *logger.Logger) *EmailTaskHandler {
	return &EmailTaskHandler{
		sender:  sender,
		appName: appName,
		baseURL: baseURL,
		logger:  log.With("handler", "email_tasks"),
	}
}

// notificationTemplate maps a notification type to its email template.
func notificationTemplate(notifType string) (email.Template, error) {
	switch notifType {
	case "report_submitted":
		return email.TemplateReportSubmitted, nil
	case "report_assigned":
		return email.TemplateReportAssigned, nil
	case "report_status_changed":
		return email.TemplateReportStatusChanged, nil
	case "report_comment_added":
		return email.TemplateReportCommentAdded, nil
	default:
		return "", fmt.Errorf("no email template for notification type %q", notifType)
	}
}

// HandleNotificationEmail processes notification email tasks.
func (h *EmailTaskHandler) HandleNotificationEmail(ctx context.Context, t *asynq.Task) error {
	var payload app.NotificationEmailPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	tmpl, err := notificationTemplate(payload.Type)
	if err != nil {
		// A bad type will never succeed on retry.
		h.logger.Error("dropping notification email task",
			"notification_id", payload.NotificationID,
			"error", err,
		)
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}

	h.logger.Info("processing notification email",
		"email", payload.Email,
		"type", payload.Type,
		"notification_id", payload.NotificationID,
	)

	data := email.ReportNotificationData{
		RecipientName: payload.RecipientName,
		EventName:     payload.EventName,
		Title:         payload.Title,
		Message:       payload.Message,
		ReportURL:     fmt.Sprintf("%s/reports/%s", h.baseURL, payload.ReportID),
		AppName:       h.appName,
	}

	if err := h.sender.SendTemplate(ctx, payload.Email, tmpl, data); err != nil {
		h.logger.Error("failed to send notification email",
			"email", payload.Email,
			"error", err,
		)
		return err
	}

	h.logger.Info("notification email sent",
		"email", payload.Email,
		"type", payload.Type,
	)
	return nil
}

// HandlePasswordResetEmail processes password reset email tasks.
func (h *EmailTaskHandler) HandlePasswordResetEmail(ctx context.Context, t *asynq.Task) error {
	var payload app.PasswordResetEmailPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	h.logger.Info("processing password reset email",
		"email", payload.Email,
		"user_id", payload.UserID,
	)

	data := email.PasswordResetData{
		UserName:    payload.UserName,
		ResetURL:    payload.ResetURL,
		ExpiresIn:   payload.ExpiresIn,
		AppName:     h.appName,
		RequestedAt: payload.RequestedAt,
	}

	if err := h.sender.SendTemplate(ctx, payload.Email, email.TemplatePasswordReset, data); err != nil {
		h.logger.Error("failed to send password reset email",
			"email", payload.Email,
			"error", err,
		)
		return err
	}

	h.logger.Info("password reset email sent",
		"email", payload.Email,
	)
	return nil
}
