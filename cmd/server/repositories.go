package main

import (
	"github.com/incidenthq/api/internal/infra/postgres"
)

// Repositories bundles the Postgres repositories behind the domain
// interfaces.
type Repositories struct {
	User                 *postgres.UserRepository
	Organization         *postgres.OrganizationRepository
	Event                *postgres.EventRepository
	Role                 *postgres.RoleRepository
	Report               *postgres.ReportRepository
	Comment              *postgres.CommentRepository
	Evidence             *postgres.EvidenceRepository
	Notification         *postgres.NotificationRepository
	NotificationSettings *postgres.NotificationSettingsRepository
}

// NewRepositories creates all repositories on the shared connection.
func NewRepositories(db *postgres.DB) *Repositories {
	return &Repositories{
		User:                 postgres.NewUserRepository(db),
		Organization:         postgres.NewOrganizationRepository(db),
		Event:                postgres.NewEventRepository(db),
		Role:                 postgres.NewRoleRepository(db),
		Report:               postgres.NewReportRepository(db),
		Comment:              postgres.NewCommentRepository(db),
		Evidence:             postgres.NewEvidenceRepository(db),
		Notification:         postgres.NewNotificationRepository(db),
		NotificationSettings: postgres.NewNotificationSettingsRepository(db),
	}
}
