// Package routes registers all HTTP routes for the API.
package routes

import (
	"github.com/prometheus/client_golang/prometheus/promhttp"

	infrahttp "github.com/incidenthq/api/internal/infra/http"
	"github.com/incidenthq/api/internal/infra/http/handler"
)

// Middleware is an alias to the http package's Middleware type.
type Middleware = infrahttp.Middleware

// Router is an alias to the http package's Router interface.
type Router = infrahttp.Router

// Handlers holds the HTTP handlers for route registration.
type Handlers struct {
	Health       *handler.HealthHandler
	Auth         *handler.AuthHandler
	Report       *handler.ReportHandler
	Comment      *handler.CommentHandler
	Evidence     *handler.EvidenceHandler
	Notification *handler.NotificationHandler
	Event        *handler.EventHandler
}

// Options carries the cross-cutting middleware routes depend on.
type Options struct {
	// RequireAuth rejects requests without a valid access token.
	RequireAuth Middleware
	// OptionalAuth attaches identity when present but lets anonymous
	// requests through. Used for report submission.
	OptionalAuth Middleware
	// Decompress inflates compressed request bodies. Applied to
	// evidence uploads.
	Decompress Middleware
}

// RegisterAll registers every route on the router.
func RegisterAll(router Router, h Handlers, opts Options) {
	registerHealthRoutes(router, h)
	registerAuthRoutes(router, h, opts)
	registerReportRoutes(router, h, opts)
	registerAdminRoutes(router, h, opts)
}

func registerHealthRoutes(router Router, h Handlers) {
	router.GET("/healthz", h.Health.Health)
	router.GET("/readyz", h.Health.Ready)
	router.GET("/metrics", promhttp.Handler().ServeHTTP)
}

func registerAuthRoutes(router Router, h Handlers, opts Options) {
	router.Group("/api/v1/auth", func(r Router) {
		// Public endpoints. Login and password reset carry their own
		// per-account limits inside the service.
		r.POST("/register", h.Auth.Register)
		r.POST("/login", h.Auth.Login)
		r.POST("/refresh", h.Auth.Refresh)
		r.POST("/password-reset", h.Auth.RequestPasswordReset)
		r.POST("/password-reset/confirm", h.Auth.ConfirmPasswordReset)

		// Account endpoints.
		r.GET("/me", h.Auth.Me, opts.RequireAuth)
		r.PATCH("/me", h.Auth.Rename, opts.RequireAuth)
		r.POST("/change-password", h.Auth.ChangePassword, opts.RequireAuth)
	})
}

func registerReportRoutes(router Router, h Handlers, opts Options) {
	router.Group("/api/v1", func(r Router) {
		// Submission accepts anonymous reporters; everything else
		// requires an authenticated caller.
		r.POST("/events/{eventID}/reports", h.Report.Submit, opts.OptionalAuth)
		r.GET("/events/{eventID}/reports", h.Report.List, opts.RequireAuth)

		authed := r.With(opts.RequireAuth)

		authed.GET("/reports/{reportID}", h.Report.Get)
		authed.PATCH("/reports/{reportID}", h.Report.Update)
		authed.POST("/reports/{reportID}/state", h.Report.Transition)
		authed.GET("/reports/{reportID}/history", h.Report.History)
		authed.PUT("/reports/{reportID}/assignee", h.Report.Assign)
		authed.DELETE("/reports/{reportID}/assignee", h.Report.Unassign)

		authed.POST("/reports/{reportID}/comments", h.Comment.Add)
		authed.GET("/reports/{reportID}/comments", h.Comment.List)
		authed.PATCH("/comments/{commentID}", h.Comment.Update)
		authed.DELETE("/comments/{commentID}", h.Comment.Delete)

		authed.POST("/reports/{reportID}/evidence", h.Evidence.Upload, opts.Decompress)
		authed.GET("/reports/{reportID}/evidence", h.Evidence.List)
		authed.GET("/evidence/{evidenceID}", h.Evidence.Download)
		authed.DELETE("/evidence/{evidenceID}", h.Evidence.Delete)

		authed.GET("/notifications", h.Notification.List)
		authed.POST("/notifications/{notificationID}/read", h.Notification.MarkRead)
		authed.GET("/notification-settings", h.Notification.GetSettings)
		authed.PUT("/notification-settings", h.Notification.UpdateSettings)

		authed.GET("/events/{eventID}", h.Event.GetEvent)
	})
}

func registerAdminRoutes(router Router, h Handlers, opts Options) {
	router.Group("/api/v1", func(r Router) {
		r.POST("/orgs", h.Event.CreateOrganization)
		r.POST("/orgs/{orgID}/events", h.Event.CreateEvent)
		r.GET("/orgs/{orgID}/events", h.Event.ListEvents)
		r.POST("/roles", h.Event.GrantRole)
		r.DELETE("/roles", h.Event.RevokeRole)
		r.GET("/users/{userID}/roles", h.Event.ListUserRoles)
	}, opts.RequireAuth)
}
