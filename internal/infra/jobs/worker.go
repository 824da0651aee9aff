package jobs

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"

	"github.com/incidenthq/api/pkg/email"
	"github.com/incidenthq/api/pkg/logger"
)

// WorkerConfig holds the configuration for the job worker.
type WorkerConfig struct {
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	Concurrency   int
	AppName       string
	BaseURL       string
}

// Worker processes background jobs.
type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	logger *logger.Logger
}

// NewWorker creates a new background job worker with email handlers
// registered.
func NewWorker(cfg WorkerConfig, sender email.Sender, log *logger.Logger) (*Worker, error) {
	server := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		},
		asynq.Config{
			Concurrency: cfg.Concurrency,
			Queues: map[string]int{
				"default":     10,
				"email":       5,
				"maintenance": 2,
			},
		},
	)

	mux := asynq.NewServeMux()

	emailHandler := NewEmailTaskHandler(sender, cfg.AppName, cfg.BaseURL, log)
	mux.HandleFunc(TypeEmailNotification, emailHandler.HandleNotificationEmail)
	mux.HandleFunc(TypeEmailPasswordReset, emailHandler.HandlePasswordResetEmail)

	return &Worker{
		server: server,
		mux:    mux,
		logger: log,
	}, nil
}

// Start starts the worker.
func (w *Worker) Start() error {
	w.logger.Info("starting job worker")
	return w.server.Start(w.mux)
}

// Stop stops the worker gracefully.
func (w *Worker) Stop() {
	w.logger.Info("stopping job worker")
	w.server.Shutdown()
}

// Run runs the worker until the context is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- w.server.Start(w.mux)
	}()

	select {
	case <-ctx.Done():
		w.Stop()
		return ctx.Err()
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("worker error: %w", err)
		}
		return nil
	}
}
