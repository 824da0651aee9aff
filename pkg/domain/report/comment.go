package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/incidenthq/api/pkg/domain/shared"
)

const maxCommentLength = 10000

// Comment is a discussion entry on a report. Authorship is immutable;
// body and visibility may be edited by the author or an admin.
type Comment struct {
	id         shared.ID
	reportID   shared.ID
	authorID   shared.ID
	body       string
	visibility Visibility
	isMarkdown bool
	createdAt  time.Time
	updatedAt  time.Time
}

// NewComment creates a comment. Reporters may only create public
// comments; that restriction is enforced by the application layer which
// knows the author's roles.
func NewComment(reportID, authorID shared.ID, body string, visibility Visibility, isMarkdown bool, now time.Time) (*Comment, error) {
	if reportID.IsZero() {
		return nil, fmt.Errorf("%w: report ID is required", shared.ErrValidation)
	}
	if authorID.IsZero() {
		return nil, fmt.Errorf("%w: author ID is required", shared.ErrValidation)
	}
	if strings.TrimSpace(body) == "" {
		return nil, fmt.Errorf("%w: comment body is required", shared.ErrValidation)
	}
	if len(body) > maxCommentLength {
		return nil, fmt.Errorf("%w: comment exceeds %d characters", shared.ErrValidation, maxCommentLength)
	}
	if !visibility.IsValid() {
		return nil, fmt.Errorf("%w: invalid comment visibility", shared.ErrValidation)
	}

	return &Comment{
		id:         shared.NewID(),
		reportID:   reportID,
		authorID:   authorID,
		body:       body,
		visibility: visibility,
		isMarkdown: isMarkdown,
		createdAt:  now,
		updatedAt:  now,
	}, nil
}

// ReconstituteComment recreates a Comment from persistence.
func ReconstituteComment(id, reportID, authorID shared.ID, body string, visibility Visibility, isMarkdown bool, createdAt, updatedAt time.Time) *Comment {
	return &Comment{
		id:         id,
		reportID:   reportID,
		authorID:   authorID,
		body:       body,
		visibility: visibility,
		isMarkdown: isMarkdown,
		createdAt:  createdAt,
		updatedAt:  updatedAt,
	}
}

// ID returns the comment ID.
func (c *Comment) ID() shared.ID { return c.id }

// ReportID returns the owning report's ID.
func (c *Comment) ReportID() shared.ID { return c.reportID }

// AuthorID returns the author's user ID.
func (c *Comment) AuthorID() shared.ID { return c.authorID }

// Body returns the comment body.
func (c *Comment) Body() string { return c.body }

// Visibility returns the comment visibility.
func (c *Comment) Visibility() Visibility { return c.visibility }

// IsInternal reports whether the comment is responder-only.
func (c *Comment) IsInternal() bool { return c.visibility == VisibilityInternal }

// IsMarkdown reports whether the body should render as markdown.
func (c *Comment) IsMarkdown() bool { return c.isMarkdown }

// CreatedAt returns the creation timestamp.
func (c *Comment) CreatedAt() time.Time { return c.createdAt }

// UpdatedAt returns the last edit timestamp.
func (c *Comment) UpdatedAt() time.Time { return c.updatedAt }

// UpdateBody replaces the comment body.
func (c *Comment) UpdateBody(body string, now time.Time) error {
	if strings.TrimSpace(body) == "" {
		return fmt.Errorf("%w: comment body is required", shared.ErrValidation)
	}
	if len(body) > maxCommentLength {
		return fmt.Errorf("%w: comment exceeds %d characters", shared.ErrValidation, maxCommentLength)
	}
	c.body = body
	c.updatedAt = now
	return nil
}

// UpdateVisibility changes the comment visibility.
func (c *Comment) UpdateVisibility(v Visibility, now time.Time) error {
	if !v.IsValid() {
		return fmt.Errorf("%w: invalid comment visibility", shared.ErrValidation)
	}
	c.visibility = v
	c.updatedAt = now
	return nil
}
