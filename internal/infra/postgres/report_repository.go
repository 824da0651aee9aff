package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/incidenthq/api/pkg/domain/report"
	"github.com/incidenthq/api/pkg/domain/shared"
)

const reportColumns = `id, event_id, reporter_id, title, description, type, state, severity, assigned_responder_id, created_at, updated_at`

// ReportRepository implements report.Repository using PostgreSQL.
type ReportRepository struct {
	db *DB
}

// NewReportRepository creates a new ReportRepository.
func NewReportRepository(db *DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// Create persists a new report.
func (r *ReportRepository) Create(ctx context.Context, rep *report.Report) error {
	query := `
		INSERT INTO reports (id, event_id, reporter_id, title, description, type, state, severity, assigned_responder_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.db.ExecContext(ctx, query,
		rep.ID().String(),
		rep.EventID().String(),
		nullID(rep.ReporterID()),
		rep.Title(),
		rep.Description(),
		rep.Type().String(),
		rep.State().String(),
		severityValue(rep.Severity()),
		nullID(rep.AssignedResponderID()),
		rep.CreatedAt(),
		rep.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to create report: %w", err)
	}

	return nil
}

// GetByID retrieves a report by ID.
func (r *ReportRepository) GetByID(ctx context.Context, id shared.ID) (*report.Report, error) {
	query := fmt.Sprintf(`SELECT %s FROM reports WHERE id = $1`, reportColumns)

	rep, err := scanReport(r.db.QueryRowContext(ctx, query, id.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: report %s", shared.ErrNotFound, id)
		}
		return nil, err
	}

	return rep, nil
}

// ListByEvent returns the event's reports matching the filter, newest first.
func (r *ReportRepository) ListByEvent(ctx context.Context, eventID shared.ID, filter report.ListFilter) ([]*report.Report, error) {
	var (
		conditions = []string{"event_id = $1"}
		args       = []any{eventID.String()}
	)

	if len(filter.States) > 0 {
		placeholders := make([]string, len(filter.States))
		for i, s := range filter.States {
			args = append(args, s.String())
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		conditions = append(conditions, fmt.Sprintf("state IN (%s)", strings.Join(placeholders, ", ")))
	}
	if filter.AssigneeID != nil {
		args = append(args, filter.AssigneeID.String())
		conditions = append(conditions, fmt.Sprintf("assigned_responder_id = $%d", len(args)))
	}
	if filter.ReporterID != nil {
		args = append(args, filter.ReporterID.String())
		conditions = append(conditions, fmt.Sprintf("reporter_id = $%d", len(args)))
	}

	query := fmt.Sprintf(`SELECT %s FROM reports WHERE %s ORDER BY created_at DESC`,
		reportColumns, strings.Join(conditions, " AND "))

	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	defer rows.Close()

	var reports []*report.Report
	for rows.Next() {
		rep, err := scanReportRows(rows)
		if err != nil {
			return nil, err
		}
		reports = append(reports, rep)
	}

	return reports, rows.Err()
}

// Update persists descriptive-field changes without a state precondition.
func (r *ReportRepository) Update(ctx context.Context, rep *report.Report) error {
	query := `
		UPDATE reports
		SET title = $2, description = $3, state = $4, severity = $5, assigned_responder_id = $6, updated_at = $7
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query,
		rep.ID().String(),
		rep.Title(),
		rep.Description(),
		rep.State().String(),
		severityValue(rep.Severity()),
		nullID(rep.AssignedResponderID()),
		rep.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to update report: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: report %s", shared.ErrNotFound, rep.ID())
	}

	return nil
}

// UpdateWithPrecondition persists a state or assignment change only if
// the stored row still matches the expected prior state and updated_at.
// A concurrent transition that committed first makes the precondition
// fail, which surfaces as shared.ErrConflict.
func (r *ReportRepository) UpdateWithPrecondition(ctx context.Context, rep *report.Report, expectedState report.State, expectedUpdatedAt time.Time) error {
	query := `
		UPDATE reports
		SET title = $2, description = $3, state = $4, severity = $5, assigned_responder_id = $6, updated_at = $7
		WHERE id = $1 AND state = $8 AND updated_at = $9
	`

	result, err := r.db.ExecContext(ctx, query,
		rep.ID().String(),
		rep.Title(),
		rep.Description(),
		rep.State().String(),
		severityValue(rep.Severity()),
		nullID(rep.AssignedResponderID()),
		rep.UpdatedAt(),
		expectedState.String(),
		expectedUpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update report: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		// Either the row is gone or another writer beat us to it.
		var exists bool
		if err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM reports WHERE id = $1)`, rep.ID().String()).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check report existence: %w", err)
		}
		if !exists {
			return fmt.Errorf("%w: report %s", shared.ErrNotFound, rep.ID())
		}
		return fmt.Errorf("%w: report %s was modified concurrently", shared.ErrConflict, rep.ID())
	}

	return nil
}

// AppendStateChange records one transition in the report's history.
func (r *ReportRepository) AppendStateChange(ctx context.Context, change *report.StateChange) error {
	query := `
		INSERT INTO report_state_history (id, report_id, from_state, to_state, changed_by, notes, changed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.ExecContext(ctx, query,
		change.ID().String(),
		change.ReportID().String(),
		change.From().String(),
		change.To().String(),
		change.ChangedBy().String(),
		nullString(change.Notes()),
		change.ChangedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to append state change: %w", err)
	}

	return nil
}

// ListStateHistory returns the report's transitions, oldest first.
func (r *ReportRepository) ListStateHistory(ctx context.Context, reportID shared.ID) ([]*report.StateChange, error) {
	query := `
		SELECT id, report_id, from_state, to_state, changed_by, notes, changed_at
		FROM report_state_history
		WHERE report_id = $1
		ORDER BY changed_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query, reportID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to list state history: %w", err)
	}
	defer rows.Close()

	var history []*report.StateChange
	for rows.Next() {
		var (
			idStr, repIDStr string
			fromStr, toStr  string
			changedByStr    string
			notes           sql.NullString
			changedAt       time.Time
		)
		if err := rows.Scan(&idStr, &repIDStr, &fromStr, &toStr, &changedByStr, &notes, &changedAt); err != nil {
			return nil, err
		}

		id, err := shared.IDFromString(idStr)
		if err != nil {
			return nil, fmt.Errorf("invalid state change ID in database: %w", err)
		}
		repID, err := shared.IDFromString(repIDStr)
		if err != nil {
			return nil, fmt.Errorf("invalid report ID in database: %w", err)
		}
		changedBy, err := shared.IDFromString(changedByStr)
		if err != nil {
			return nil, fmt.Errorf("invalid user ID in database: %w", err)
		}
		from, err := report.ParseState(fromStr)
		if err != nil {
			return nil, fmt.Errorf("invalid state in database: %w", err)
		}
		to, err := report.ParseState(toStr)
		if err != nil {
			return nil, fmt.Errorf("invalid state in database: %w", err)
		}

		history = append(history, report.ReconstituteStateChange(id, repID, from, to, changedBy, nullStringValue(notes), changedAt))
	}

	return history, rows.Err()
}

type reportRow struct {
	id, eventID          string
	reporterID           sql.NullString
	title, description   string
	reportType, state    string
	severity             sql.NullString
	assignedResponderID  sql.NullString
	createdAt, updatedAt time.Time
}

func scanReport(row *sql.Row) (*report.Report, error) {
	var rr reportRow
	if err := row.Scan(&rr.id, &rr.eventID, &rr.reporterID, &rr.title, &rr.description,
		&rr.reportType, &rr.state, &rr.severity, &rr.assignedResponderID, &rr.createdAt, &rr.updatedAt); err != nil {
		return nil, err
	}
	return rr.toEntity()
}

func scanReportRows(rows *sql.Rows) (*report.Report, error) {
	var rr reportRow
	if err := rows.Scan(&rr.id, &rr.eventID, &rr.reporterID, &rr.title, &rr.description,
		&rr.reportType, &rr.state, &rr.severity, &rr.assignedResponderID, &rr.createdAt, &rr.updatedAt); err != nil {
		return nil, err
	}
	return rr.toEntity()
}

func (rr reportRow) toEntity() (*report.Report, error) {
	id, err := shared.IDFromString(rr.id)
	if err != nil {
		return nil, fmt.Errorf("invalid report ID in database: %w", err)
	}
	eventID, err := shared.IDFromString(rr.eventID)
	if err != nil {
		return nil, fmt.Errorf("invalid event ID in database: %w", err)
	}
	reportType, err := report.ParseType(rr.reportType)
	if err != nil {
		return nil, fmt.Errorf("invalid report type in database: %w", err)
	}
	state, err := report.ParseState(rr.state)
	if err != nil {
		return nil, fmt.Errorf("invalid report state in database: %w", err)
	}

	var severity *report.Severity
	if rr.severity.Valid {
		s, err := report.ParseSeverity(rr.severity.String)
		if err != nil {
			return nil, fmt.Errorf("invalid severity in database: %w", err)
		}
		severity = &s
	}

	return report.Reconstitute(
		id, eventID,
		parseNullID(rr.reporterID),
		rr.title, rr.description,
		reportType, state, severity,
		parseNullID(rr.assignedResponderID),
		rr.createdAt, rr.updatedAt,
	), nil
}

// severityValue converts an optional severity to its column value.
func severityValue(s *report.Severity) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: s.String(), Valid: true}
}
