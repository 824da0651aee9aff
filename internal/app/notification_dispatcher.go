package app

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/incidenthq/api/internal/metrics"
	"github.com/incidenthq/api/pkg/domain/event"
	"github.com/incidenthq/api/pkg/domain/notification"
	"github.com/incidenthq/api/pkg/domain/rbac"
	"github.com/incidenthq/api/pkg/domain/shared"
	"github.com/incidenthq/api/pkg/domain/user"
	"github.com/incidenthq/api/pkg/logger"
)

// NotificationEmailPayload carries everything the email worker needs
// to render and send a notification email.
type NotificationEmailPayload struct {
	NotificationID string `json:"notification_id"`
	UserID         string `json:"user_id"`
	Email          string `json:"email"`
	RecipientName  string `json:"recipient_name"`
	Type           string `json:"type"`
	EventName      string `json:"event_name"`
	Title          string `json:"title"`
	Message        string `json:"message"`
	ReportID       string `json:"report_id"`
}

// EmailEnqueuer queues notification emails for asynchronous delivery.
type EmailEnqueuer interface {
	EnqueueNotificationEmail(ctx context.Context, payload NotificationEmailPayload) error
}

// dispatchConcurrency bounds parallel per-recipient work.
const dispatchConcurrency = 8

// NotificationDispatcher fans a report event out to the responders
// and event admins of the event, minus the acting user.
//
// Notification records are always created for eligible recipients;
// email delivery is queued separately and its failure never affects
// the records or the triggering operation.
type NotificationDispatcher struct {
	notificationRepo notification.Repository
	settingsRepo     notification.SettingsRepository
	assignments      rbac.AssignmentRepository
	userRepo         user.Repository
	eventRepo        event.Repository
	enqueuer         EmailEnqueuer
	clock            shared.Clock
	logger           *logger.Logger
}

// NewNotificationDispatcher creates a new NotificationDispatcher.
// enqueuer may be nil, in which case emails are skipped entirely.
func NewNotificationDispatcher(
	notificationRepo notification.Repository,
	settingsRepo notification.SettingsRepository,
	assignments rbac.AssignmentRepository,
	userRepo user.Repository,
	eventRepo event.Repository,
	enqueuer EmailEnqueuer,
	clock shared.Clock,
	log *logger.Logger,
) *NotificationDispatcher {
	return &NotificationDispatcher{
		notificationRepo: notificationRepo,
		settingsRepo:     settingsRepo,
		assignments:      assignments,
		userRepo:         userRepo,
		eventRepo:        eventRepo,
		enqueuer:         enqueuer,
		clock:            clock,
		logger:           log.With("service", "notification_dispatcher"),
	}
}

// Dispatch delivers the event to all eligible recipients. Per-recipient
// failures are logged and do not abort delivery to the others.
func (d *NotificationDispatcher) Dispatch(ctx context.Context, evt notification.Event) error {
	notifType, known := notification.Normalize(evt.Kind)
	if !known {
		// Unknown kinds fall back to report_submitted so the record
		// is still delivered rather than silently dropped.
		d.logger.Warn("unknown notification kind, using fallback",
			"kind", evt.Kind,
			"fallback", notifType.String(),
		)
	}
	if known && evt.Kind != notifType.String() {
		metrics.NotificationLegacyTypeTotal.WithLabelValues(evt.Kind).Inc()
	}

	recipients, err := d.recipients(ctx, evt.EventID, evt.ActorID)
	if err != nil {
		return fmt.Errorf("failed to resolve recipients: %w", err)
	}
	if len(recipients) == 0 {
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(dispatchConcurrency)

	for _, userID := range recipients {
		g.Go(func() error {
			d.deliverTo(gctx, userID, notifType, evt)
			return nil
		})
	}

	return g.Wait()
}

// recipients returns the distinct responders and event admins of the
// event, excluding the actor.
func (d *NotificationDispatcher) recipients(ctx context.Context, eventID, actorID shared.ID) ([]shared.ID, error) {
	holders, err := d.assignments.ListEventRoleHolders(ctx, eventID, rbac.RoleResponder, rbac.RoleEventAdmin)
	if err != nil {
		return nil, err
	}

	seen := make(map[shared.ID]struct{}, len(holders))
	result := make([]shared.ID, 0, len(holders))
	for _, id := range holders {
		if id.Equals(actorID) {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		result = append(result, id)
	}
	return result, nil
}

func (d *NotificationDispatcher) deliverTo(ctx context.Context, userID shared.ID, notifType notification.Type, evt notification.Event) {
	eventID := evt.EventID
	reportID := evt.ReportID

	n, err := notification.New(userID, notifType, evt.Title, evt.Message, &eventID, &reportID, d.clock.Now())
	if err != nil {
		d.logger.WithError(err).Error("failed to build notification", "user_id", userID.String())
		return
	}

	if err := d.notificationRepo.Create(ctx, n); err != nil {
		d.logger.WithError(err).Error("failed to create notification record", "user_id", userID.String())
		return
	}
	metrics.NotificationsCreatedTotal.WithLabelValues(notifType.String()).Inc()

	// Settings are created lazily with all emails enabled the first
	// time a user is notified.
	settings, err := d.settingsRepo.GetOrCreate(ctx, userID)
	if err != nil {
		d.logger.WithError(err).Error("failed to load notification settings", "user_id", userID.String())
		return
	}

	if d.enqueuer == nil || !settings.EmailEnabled(notifType) {
		return
	}

	u, err := d.userRepo.GetByID(ctx, userID)
	if err != nil {
		d.logger.WithError(err).Error("failed to load recipient", "user_id", userID.String())
		return
	}

	payload := NotificationEmailPayload{
		NotificationID: n.ID().String(),
		UserID:         userID.String(),
		Email:          u.Email(),
		RecipientName:  u.Name(),
		Type:           notifType.String(),
		EventName:      d.eventName(ctx, eventID),
		Title:          evt.Title,
		Message:        evt.Message,
		ReportID:       reportID.String(),
	}

	if err := d.enqueuer.EnqueueNotificationEmail(ctx, payload); err != nil {
		// Delivery is best effort. The record already exists.
		d.logger.WithError(err).Error("failed to enqueue notification email", "user_id", userID.String())
		return
	}
	metrics.NotificationEmailsEnqueuedTotal.WithLabelValues(notifType.String()).Inc()
}

func (d *NotificationDispatcher) eventName(ctx context.Context, eventID shared.ID) string {
	e, err := d.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		return "your event"
	}
	return e.Name()
}
