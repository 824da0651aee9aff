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

// EvidenceRepository implements report.EvidenceRepository using
// PostgreSQL. File bytes live in a bytea column; listings skip them.
type EvidenceRepository struct {
	db *DB
}

// NewEvidenceRepository creates a new EvidenceRepository.
func NewEvidenceRepository(db *DB) *EvidenceRepository {
	return &EvidenceRepository{db: db}
}

// Create persists a new evidence file with its contents.
func (r *EvidenceRepository) Create(ctx context.Context, f *report.EvidenceFile) error {
	query := `
		INSERT INTO report_evidence (id, report_id, uploader_id, filename, mimetype, size, data, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.ExecContext(ctx, query,
		f.ID().String(),
		f.ReportID().String(),
		f.UploaderID().String(),
		f.Filename(),
		f.Mimetype(),
		f.Size(),
		f.Data(),
		f.CreatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to store evidence: %w", err)
	}

	return nil
}

// GetByID retrieves an evidence file including its contents.
func (r *EvidenceRepository) GetByID(ctx context.Context, id shared.ID) (*report.EvidenceFile, error) {
	query := `
		SELECT id, report_id, uploader_id, filename, mimetype, size, data, created_at
		FROM report_evidence
		WHERE id = $1
	`

	var (
		idStr, reportIDStr, uploaderIDStr string
		filename, mimetype                string
		size                              int64
		data                              []byte
		createdAt                         time.Time
	)
	err := r.db.QueryRowContext(ctx, query, id.String()).Scan(
		&idStr, &reportIDStr, &uploaderIDStr, &filename, &mimetype, &size, &data, &createdAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: evidence %s", shared.ErrNotFound, id)
		}
		return nil, err
	}

	return reconstituteEvidence(idStr, reportIDStr, uploaderIDStr, filename, mimetype, size, data, createdAt)
}

// ListByReport returns evidence metadata for a report, oldest first.
// File contents are not loaded.
func (r *EvidenceRepository) ListByReport(ctx context.Context, reportID shared.ID) ([]*report.EvidenceFile, error) {
	query := `
		SELECT id, report_id, uploader_id, filename, mimetype, size, created_at
		FROM report_evidence
		WHERE report_id = $1
		ORDER BY created_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query, reportID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to list evidence: %w", err)
	}
	defer rows.Close()

	var files []*report.EvidenceFile
	for rows.Next() {
		var (
			idStr, reportIDStr, uploaderIDStr string
			filename, mimetype                string
			size                              int64
			createdAt                         time.Time
		)
		if err := rows.Scan(&idStr, &reportIDStr, &uploaderIDStr, &filename, &mimetype, &size, &createdAt); err != nil {
			return nil, err
		}

		f, err := reconstituteEvidence(idStr, reportIDStr, uploaderIDStr, filename, mimetype, size, nil, createdAt)
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}

	return files, rows.Err()
}

// Delete removes an evidence file.
func (r *EvidenceRepository) Delete(ctx context.Context, id shared.ID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM report_evidence WHERE id = $1`, id.String())
	if err != nil {
		return fmt.Errorf("failed to delete evidence: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: evidence %s", shared.ErrNotFound, id)
	}

	return nil
}

func reconstituteEvidence(idStr, reportIDStr, uploaderIDStr, filename, mimetype string, size int64, data []byte, createdAt time.Time) (*report.EvidenceFile, error) {
	id, err := shared.IDFromString(idStr)
	if err != nil {
		return nil, fmt.Errorf("invalid evidence ID in database: %w", err)
	}
	reportID, err := shared.IDFromString(reportIDStr)
	if err != nil {
		return nil, fmt.Errorf("invalid report ID in database: %w", err)
	}
	uploaderID, err := shared.IDFromString(uploaderIDStr)
	if err != nil {
		return nil, fmt.Errorf("invalid uploader ID in database: %w", err)
	}

	return report.ReconstituteEvidenceFile(id, reportID, uploaderID, filename, mimetype, size, data, createdAt), nil
}
