package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/incidenthq/api/internal/app"
	"github.com/incidenthq/api/pkg/logger"
)

// Scheduler runs periodic maintenance jobs on a cron schedule. It
// currently purges read notifications past the retention window.
type Scheduler struct {
	cron      *cron.Cron
	notifSvc  *app.NotificationService
	retention time.Duration
	logger    *logger.Logger
}

// NewScheduler creates a scheduler that purges read notifications on
// the given cron spec (standard 5-field format).
func NewScheduler(spec string, retention time.Duration, notifSvc *app.NotificationService, log *logger.Logger) (*Scheduler, error) {
	s := &Scheduler{
		cron:      cron.New(),
		notifSvc:  notifSvc,
		retention: retention,
		logger:    log.With("component", "scheduler"),
	}

	if _, err := s.cron.AddFunc(spec, s.purgeReadNotifications); err != nil {
		return nil, fmt.Errorf("invalid purge schedule %q: %w", spec, err)
	}

	return s, nil
}

// Start begins running scheduled jobs in the background.
func (s *Scheduler) Start() {
	s.logger.Info("starting scheduler", "retention", s.retention)
	s.cron.Start()
}

// Stop stops the scheduler and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	ctx := s.cron.Stop()
	<-ctx.Done()
}

func (s *Scheduler) purgeReadNotifications() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	deleted, err := s.notifSvc.PurgeReadBefore(ctx, s.retention)
	if err != nil {
		s.logger.WithError(err).Error("notification purge failed")
		return
	}

	s.logger.Info("notification purge complete", "deleted", deleted)
}
