package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/incidenthq/api/pkg/domain/report"
	"github.com/incidenthq/api/pkg/domain/shared"
)

const commentColumns = `id, report_id, author_id, body, visibility, is_markdown, created_at, updated_at`

// CommentRepository implements report.CommentRepository using PostgreSQL.
type CommentRepository struct {
	db *DB
}

// NewCommentRepository creates a new CommentRepository.
func NewCommentRepository(db *DB) *CommentRepository {
	return &CommentRepository{db: db}
}

// Create persists a new comment.
func (r *CommentRepository) Create(ctx context.Context, c *report.Comment) error {
	query := `
		INSERT INTO report_comments (id, report_id, author_id, body, visibility, is_markdown, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.ExecContext(ctx, query,
		c.ID().String(),
		c.ReportID().String(),
		c.AuthorID().String(),
		c.Body(),
		c.Visibility().String(),
		c.IsMarkdown(),
		c.CreatedAt(),
		c.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to create comment: %w", err)
	}

	return nil
}

// GetByID retrieves a comment by ID.
func (r *CommentRepository) GetByID(ctx context.Context, id shared.ID) (*report.Comment, error) {
	query := fmt.Sprintf(`SELECT %s FROM report_comments WHERE id = $1`, commentColumns)

	c, err := scanComment(r.db.QueryRowContext(ctx, query, id.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: comment %s", shared.ErrNotFound, id)
		}
		return nil, err
	}

	return c, nil
}

// ListByReport returns the report's comments, oldest first.
func (r *CommentRepository) ListByReport(ctx context.Context, reportID shared.ID) ([]*report.Comment, error) {
	query := fmt.Sprintf(`SELECT %s FROM report_comments WHERE report_id = $1 ORDER BY created_at ASC`, commentColumns)

	rows, err := r.db.QueryContext(ctx, query, reportID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	defer rows.Close()

	var comments []*report.Comment
	for rows.Next() {
		c, err := scanCommentRows(rows)
		if err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}

	return comments, rows.Err()
}

// Update persists changes to an existing comment.
func (r *CommentRepository) Update(ctx context.Context, c *report.Comment) error {
	query := `
		UPDATE report_comments
		SET body = $2, updated_at = $3
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query, c.ID().String(), c.Body(), c.UpdatedAt())
	if err != nil {
		return fmt.Errorf("failed to update comment: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: comment %s", shared.ErrNotFound, c.ID())
	}

	return nil
}

// Delete removes a comment.
func (r *CommentRepository) Delete(ctx context.Context, id shared.ID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM report_comments WHERE id = $1`, id.String())
	if err != nil {
		return fmt.Errorf("failed to delete comment: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: comment %s", shared.ErrNotFound, id)
	}

	return nil
}

type commentRow struct {
	id, reportID, authorID string
	body, visibility       string
	isMarkdown             bool
	createdAt, updatedAt   time.Time
}

func scanComment(row *sql.Row) (*report.Comment, error) {
	var cr commentRow
	if err := row.Scan(&cr.id, &cr.reportID, &cr.authorID, &cr.body, &cr.visibility,
		&cr.isMarkdown, &cr.createdAt, &cr.updatedAt); err != nil {
		return nil, err
	}
	return cr.toEntity()
}

func scanCommentRows(rows *sql.Rows) (*report.Comment, error) {
	var cr commentRow
	if err := rows.Scan(&cr.id, &cr.reportID, &cr.authorID, &cr.body, &cr.visibility,
		&cr.isMarkdown, &cr.createdAt, &cr.updatedAt); err != nil {
		return nil, err
	}
	return cr.toEntity()
}

func (cr commentRow) toEntity() (*report.Comment, error) {
	id, err := shared.IDFromString(cr.id)
	if err != nil {
		return nil, fmt.Errorf("invalid comment ID in database: %w", err)
	}
	reportID, err := shared.IDFromString(cr.reportID)
	if err != nil {
		return nil, fmt.Errorf("invalid report ID in database: %w", err)
	}
	authorID, err := shared.IDFromString(cr.authorID)
	if err != nil {
		return nil, fmt.Errorf("invalid author ID in database: %w", err)
	}
	visibility, err := report.ParseVisibility(cr.visibility)
	if err != nil {
		return nil, fmt.Errorf("invalid visibility in database: %w", err)
	}

	return report.ReconstituteComment(id, reportID, authorID, cr.body, visibility, cr.isMarkdown, cr.createdAt, cr.updatedAt), nil
}
