package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/incidenthq/api/pkg/domain/rbac"
	"github.com/incidenthq/api/pkg/domain/shared"
)

// RoleRepository implements rbac.AssignmentRepository using PostgreSQL.
type RoleRepository struct {
	db *DB
}

// NewRoleRepository creates a new RoleRepository.
func NewRoleRepository(db *DB) *RoleRepository {
	return &RoleRepository{db: db}
}

// ListByUser returns every assignment the user holds, across all scopes.
func (r *RoleRepository) ListByUser(ctx context.Context, userID shared.ID) ([]rbac.Assignment, error) {
	query := `
		SELECT user_id, role, event_id, org_id
		FROM role_assignments
		WHERE user_id = $1
	`

	rows, err := r.db.QueryContext(ctx, query, userID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to list assignments: %w", err)
	}
	defer rows.Close()

	var assignments []rbac.Assignment
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, err
		}
		assignments = append(assignments, a)
	}

	return assignments, rows.Err()
}

// ListEventRoleHolders returns the IDs of users holding any of the
// given roles in the event.
func (r *RoleRepository) ListEventRoleHolders(ctx context.Context, eventID shared.ID, roles ...rbac.Role) ([]shared.ID, error) {
	if len(roles) == 0 {
		return nil, nil
	}

	args := []any{eventID.String()}
	placeholders := make([]string, len(roles))
	for i, role := range roles {
		args = append(args, role.String())
		placeholders[i] = fmt.Sprintf("$%d", len(args))
	}

	query := fmt.Sprintf(`
		SELECT DISTINCT user_id
		FROM role_assignments
		WHERE event_id = $1 AND role IN (%s)
	`, strings.Join(placeholders, ", "))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list role holders: %w", err)
	}
	defer rows.Close()

	var holders []shared.ID
	for rows.Next() {
		var idStr string
		if err := rows.Scan(&idStr); err != nil {
			return nil, err
		}
		id, err := shared.IDFromString(idStr)
		if err != nil {
			return nil, fmt.Errorf("invalid user ID in database: %w", err)
		}
		holders = append(holders, id)
	}

	return holders, rows.Err()
}

// Grant persists an assignment. An existing event-scoped role for the
// same (user, event) pair is replaced, since a user holds at most one
// role per event.
func (r *RoleRepository) Grant(ctx context.Context, a rbac.Assignment) error {
	return r.db.Transaction(ctx, func(tx *sql.Tx) error {
		if a.EventID != nil {
			_, err := tx.ExecContext(ctx,
				`DELETE FROM role_assignments WHERE user_id = $1 AND event_id = $2`,
				a.UserID.String(), a.EventID.String(),
			)
			if err != nil {
				return fmt.Errorf("failed to replace assignment: %w", err)
			}
		}

		_, err := tx.ExecContext(ctx, `
			INSERT INTO role_assignments (user_id, role, event_id, org_id)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT DO NOTHING
		`,
			a.UserID.String(),
			a.Role.String(),
			nullID(a.EventID),
			nullID(a.OrgID),
		)
		if err != nil {
			return fmt.Errorf("failed to grant role: %w", err)
		}
		return nil
	})
}

// Revoke removes an assignment.
func (r *RoleRepository) Revoke(ctx context.Context, a rbac.Assignment) error {
	query := `
		DELETE FROM role_assignments
		WHERE user_id = $1 AND role = $2
		  AND event_id IS NOT DISTINCT FROM $3
		  AND org_id IS NOT DISTINCT FROM $4
	`

	result, err := r.db.ExecContext(ctx, query,
		a.UserID.String(),
		a.Role.String(),
		nullID(a.EventID),
		nullID(a.OrgID),
	)
	if err != nil {
		return fmt.Errorf("failed to revoke role: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: assignment", shared.ErrNotFound)
	}

	return nil
}

func scanAssignment(rows *sql.Rows) (rbac.Assignment, error) {
	var (
		userIDStr, roleStr string
		eventID, orgID     sql.NullString
	)
	if err := rows.Scan(&userIDStr, &roleStr, &eventID, &orgID); err != nil {
		return rbac.Assignment{}, err
	}

	userID, err := shared.IDFromString(userIDStr)
	if err != nil {
		return rbac.Assignment{}, fmt.Errorf("invalid user ID in database: %w", err)
	}
	role, err := rbac.ParseRole(roleStr)
	if err != nil {
		return rbac.Assignment{}, fmt.Errorf("invalid role in database: %w", err)
	}

	return rbac.Assignment{
		UserID:  userID,
		Role:    role,
		EventID: parseNullID(eventID),
		OrgID:   parseNullID(orgID),
	}, nil
}
