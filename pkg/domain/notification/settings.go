package notification

import (
	"time"

	"github.com/incidenthq/api/pkg/domain/shared"
)

// Settings holds a user's per-type email opt-in flags. Rows are
// materialized lazily with defaults the first time the dispatcher looks
// a user up.
type Settings struct {
	userID             shared.ID
	reportSubmitted    bool
	reportAssigned     bool
	reportStatusChange bool
	reportComment      bool
	updatedAt          time.Time
}

// DefaultSettings returns the lazily-created defaults: everything on.
func DefaultSettings(userID shared.ID, now time.Time) *Settings {
	return &Settings{
		userID:             userID,
		reportSubmitted:    true,
		reportAssigned:     true,
		reportStatusChange: true,
		reportComment:      true,
		updatedAt:          now,
	}
}

// ReconstituteSettings recreates Settings from persistence.
func ReconstituteSettings(userID shared.ID, submitted, assigned, statusChange, comment bool, updatedAt time.Time) *Settings {
	return &Settings{
		userID:             userID,
		reportSubmitted:    submitted,
		reportAssigned:     assigned,
		reportStatusChange: statusChange,
		reportComment:      comment,
		updatedAt:          updatedAt,
	}
}

// UserID returns the settings owner.
func (s *Settings) UserID() shared.ID { return s.userID }

// UpdatedAt returns the last change timestamp.
func (s *Settings) UpdatedAt() time.Time { return s.updatedAt }

// EmailEnabled reports whether email delivery is enabled for a type.
func (s *Settings) EmailEnabled(t Type) bool {
	switch t {
	case TypeReportSubmitted:
		return s.reportSubmitted
	case TypeReportAssigned:
		return s.reportAssigned
	case TypeReportStatusChanged:
		return s.reportStatusChange
	case TypeReportCommentAdded:
		return s.reportComment
	default:
		return false
	}
}

// SetEmailEnabled updates one flag.
func (s *Settings) SetEmailEnabled(t Type, enabled bool, now time.Time) {
	switch t {
	case TypeReportSubmitted:
		s.reportSubmitted = enabled
	case TypeReportAssigned:
		s.reportAssigned = enabled
	case TypeReportStatusChanged:
		s.reportStatusChange = enabled
	case TypeReportCommentAdded:
		s.reportComment = enabled
	default:
		return
	}
	s.updatedAt = now
}

// Flags returns the flags keyed by canonical type, for API responses.
func (s *Settings) Flags() map[Type]bool {
	return map[Type]bool{
		TypeReportSubmitted:     s.reportSubmitted,
		TypeReportAssigned:      s.reportAssigned,
		TypeReportStatusChanged: s.reportStatusChange,
		TypeReportCommentAdded:  s.reportComment,
	}
}
