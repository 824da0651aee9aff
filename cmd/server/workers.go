package main

import (
	"fmt"

	"github.com/incidenthq/api/internal/config"
	"github.com/incidenthq/api/internal/infra/jobs"
	"github.com/incidenthq/api/pkg/email"
	"github.com/incidenthq/api/pkg/logger"
)

// Workers holds the background processing components: the Asynq
// worker consuming email tasks and the cron scheduler purging read
// notifications.
type Workers struct {
	worker    *jobs.Worker
	scheduler *jobs.Scheduler
}

// NewWorkers builds the background workers. When SMTP is not
// configured, emails are dropped by a no-op sender but the queue
// still drains.
func NewWorkers(cfg *config.Config, services *Services, log *logger.Logger) (*Workers, error) {
	sender := newEmailSender(cfg, log)

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisAddr:     cfg.Redis.Addr(),
		RedisPassword: cfg.Redis.Password,
		RedisDB:       cfg.Redis.DB,
		Concurrency:   cfg.Worker.Concurrency,
		AppName:       cfg.App.Name,
		BaseURL:       cfg.App.BaseURL,
	}, sender, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create worker: %w", err)
	}

	scheduler, err := jobs.NewScheduler(cfg.Worker.PurgeSchedule, cfg.Worker.PurgeRetention, services.Notification, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	return &Workers{worker: worker, scheduler: scheduler}, nil
}

func newEmailSender(cfg *config.Config, log *logger.Logger) email.Sender {
	sender := email.NewSMTPSender(email.Config{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		User:     cfg.SMTP.User,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
		FromName: cfg.SMTP.FromName,
		TLS:      cfg.SMTP.TLS,
	})
	if !sender.IsConfigured() {
		log.Warn("smtp not configured, outgoing email disabled")
		return email.NewNoOpSender()
	}
	return sender
}

// Start starts the workers in the background.
func (w *Workers) Start(log *logger.Logger) error {
	if err := w.worker.Start(); err != nil {
		return fmt.Errorf("failed to start worker: %w", err)
	}
	w.scheduler.Start()
	log.Info("background workers started")
	return nil
}

// Stop stops the workers, waiting for in-flight jobs.
func (w *Workers) Stop(log *logger.Logger) {
	w.scheduler.Stop()
	w.worker.Stop()
	log.Info("background workers stopped")
}
