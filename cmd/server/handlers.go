package main

import (
	"github.com/incidenthq/api/internal/infra/http/handler"
	"github.com/incidenthq/api/internal/infra/http/routes"
	"github.com/incidenthq/api/internal/infra/postgres"
	"github.com/incidenthq/api/internal/infra/redis"
	"github.com/incidenthq/api/pkg/logger"
)

// NewHandlers builds the HTTP handlers from the service layer.
func NewHandlers(services *Services, db *postgres.DB, redisClient *redis.Client, log *logger.Logger) routes.Handlers {
	return routes.Handlers{
		Health: handler.NewHealthHandler(
			handler.WithDatabase(db),
			handler.WithRedis(redisClient),
		),
		Auth:         handler.NewAuthHandler(services.Auth, services.User, log),
		Report:       handler.NewReportHandler(services.Report, services.Assignment, log),
		Comment:      handler.NewCommentHandler(services.Comment, log),
		Evidence:     handler.NewEvidenceHandler(services.Evidence, log),
		Notification: handler.NewNotificationHandler(services.Notification, log),
		Event:        handler.NewEventHandler(services.Event, services.Role, log),
	}
}
