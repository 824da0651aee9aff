package main

import (
	"github.com/incidenthq/api/internal/app"
	"github.com/incidenthq/api/internal/config"
	"github.com/incidenthq/api/internal/infra/jobs"
	"github.com/incidenthq/api/internal/infra/redis"
	"github.com/incidenthq/api/pkg/domain/rbac"
	"github.com/incidenthq/api/pkg/domain/shared"
	"github.com/incidenthq/api/pkg/jwt"
	"github.com/incidenthq/api/pkg/logger"
	"github.com/incidenthq/api/pkg/password"
)

// Services bundles the application services.
type Services struct {
	Report       *app.ReportService
	Assignment   *app.AssignmentService
	Comment      *app.CommentService
	Evidence     *app.EvidenceService
	Notification *app.NotificationService
	Event        *app.EventService
	Role         *app.RoleService
	User         *app.UserService
	Auth         *app.AuthService

	JWTGenerator *jwt.Generator
}

// ServiceDeps holds what service construction needs.
type ServiceDeps struct {
	Config      *config.Config
	Log         *logger.Logger
	Repos       *Repositories
	RedisClient *redis.Client
	JobClient   *jobs.Client
}

// NewServices wires the application services to their repositories
// and infrastructure collaborators.
func NewServices(deps *ServiceDeps) (*Services, error) {
	cfg := deps.Config
	log := deps.Log
	repos := deps.Repos
	clock := shared.SystemClock{}

	resolver := rbac.NewResolver(repos.Role)

	hasher := password.New(password.WithPolicy(password.Policy{
		MinLength:     cfg.Auth.PasswordMinLength,
		RequireUpper:  cfg.Auth.PasswordRequireUpper,
		RequireLower:  cfg.Auth.PasswordRequireLower,
		RequireNumber: cfg.Auth.PasswordRequireNumber,
	}))

	tokens := jwt.NewGenerator(jwt.TokenConfig{
		Secret:               cfg.Auth.JWTSecret,
		Issuer:               cfg.Auth.JWTIssuer,
		AccessTokenDuration:  cfg.Auth.AccessTokenDuration,
		RefreshTokenDuration: cfg.Auth.RefreshTokenDuration,
	})

	rateLimiter, err := redis.NewRateLimiter(deps.RedisClient, "ratelimit", log)
	if err != nil {
		return nil, err
	}

	resetStore, err := redis.NewResetTokenStore(deps.RedisClient, log)
	if err != nil {
		return nil, err
	}

	// The dispatcher fans report events out to in-app notifications
	// and, per user settings, queued emails.
	dispatcher := app.NewNotificationDispatcher(
		repos.Notification,
		repos.NotificationSettings,
		repos.Role,
		repos.User,
		repos.Event,
		deps.JobClient,
		clock,
		log,
	)

	return &Services{
		Report:       app.NewReportService(repos.Report, resolver, dispatcher, clock, log),
		Assignment:   app.NewAssignmentService(repos.Report, repos.User, resolver, dispatcher, clock, log),
		Comment:      app.NewCommentService(repos.Comment, repos.Report, resolver, dispatcher, clock, log),
		Evidence:     app.NewEvidenceService(repos.Evidence, repos.Report, resolver, clock, log),
		Notification: app.NewNotificationService(repos.Notification, repos.NotificationSettings, clock, log),
		Event:        app.NewEventService(repos.Event, repos.Organization, resolver, clock, log),
		Role:         app.NewRoleService(repos.Role, resolver, log),
		User:         app.NewUserService(repos.User, hasher, clock, log),
		Auth: app.NewAuthService(
			repos.User,
			tokens,
			hasher,
			rateLimiter,
			resetStore,
			deps.JobClient,
			app.AuthConfig{
				BaseURL:              cfg.App.BaseURL,
				ResetTokenTTL:        cfg.Auth.PasswordResetDuration,
				PasswordResetPerHour: cfg.RateLimit.PasswordResetPerHour,
			},
			clock,
			log,
		),
		JWTGenerator: tokens,
	}, nil
}
