package app

import (
	"context"
	"fmt"

	"github.com/incidenthq/api/pkg/domain/rbac"
	"github.com/incidenthq/api/pkg/domain/shared"
	"github.com/incidenthq/api/pkg/logger"
)

// RoleService manages role grants in the scope hierarchy.
type RoleService struct {
	assignments rbac.AssignmentRepository
	resolver    *rbac.Resolver
	logger      *logger.Logger
}

// NewRoleService creates a new RoleService.
func NewRoleService(assignments rbac.AssignmentRepository, resolver *rbac.Resolver, log *logger.Logger) *RoleService {
	return &RoleService{
		assignments: assignments,
		resolver:    resolver,
		logger:      log.With("service", "role"),
	}
}

// GrantRoleInput represents the input for granting a role.
// EventID is set for event-scoped roles, OrgID for org-scoped ones.
// SuperAdmin is global and takes neither.
type GrantRoleInput struct {
	UserID  string `validate:"required,uuid"`
	Role    string `validate:"required,role"`
	EventID string `validate:"omitempty,uuid"`
	OrgID   string `validate:"omitempty,uuid"`
}

// GrantRole grants a role to a user. The actor must be a super admin,
// or an event admin of the target event for event-scoped grants.
func (s *RoleService) GrantRole(ctx context.Context, actorID shared.ID, input GrantRoleInput) error {
	assignment, err := s.buildAssignment(input)
	if err != nil {
		return err
	}

	if err := s.authorizeGrant(ctx, actorID, assignment); err != nil {
		return err
	}

	if err := s.assignments.Grant(ctx, *assignment); err != nil {
		return fmt.Errorf("failed to grant role: %w", err)
	}

	s.logger.Info("role granted",
		"user_id", input.UserID,
		"role", input.Role,
		"event_id", input.EventID,
		"org_id", input.OrgID,
	)
	return nil
}

// RevokeRole revokes a role from a user, under the same authorization
// rules as GrantRole.
func (s *RoleService) RevokeRole(ctx context.Context, actorID shared.ID, input GrantRoleInput) error {
	assignment, err := s.buildAssignment(input)
	if err != nil {
		return err
	}

	if err := s.authorizeGrant(ctx, actorID, assignment); err != nil {
		return err
	}

	if err := s.assignments.Revoke(ctx, *assignment); err != nil {
		return fmt.Errorf("failed to revoke role: %w", err)
	}

	s.logger.Info("role revoked",
		"user_id", input.UserID,
		"role", input.Role,
		"event_id", input.EventID,
	)
	return nil
}

// ListUserAssignments returns all role assignments held by a user.
// Users may list their own; anything else requires super admin.
func (s *RoleService) ListUserAssignments(ctx context.Context, actorID shared.ID, userID string) ([]rbac.Assignment, error) {
	targetID, err := shared.IDFromString(userID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid user id format", shared.ErrValidation)
	}

	if !targetID.Equals(actorID) {
		p, err := s.resolver.ResolvePrincipal(ctx, actorID)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve principal: %w", err)
		}
		if !p.IsSuperAdmin() {
			return nil, shared.ErrForbidden
		}
	}

	return s.assignments.ListByUser(ctx, targetID)
}

func (s *RoleService) buildAssignment(input GrantRoleInput) (*rbac.Assignment, error) {
	userID, err := shared.IDFromString(input.UserID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid user id format", shared.ErrValidation)
	}

	role, err := rbac.ParseRole(input.Role)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrValidation, err)
	}

	assignment := rbac.Assignment{UserID: userID, Role: role}

	switch {
	case role.IsGlobal():
		if input.EventID != "" || input.OrgID != "" {
			return nil, fmt.Errorf("%w: %s is a global role", shared.ErrValidation, role)
		}
	case role.IsOrgScoped():
		if input.OrgID == "" {
			return nil, fmt.Errorf("%w: %s requires an organization", shared.ErrValidation, role)
		}
		orgID, err := shared.IDFromString(input.OrgID)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid org id format", shared.ErrValidation)
		}
		assignment.OrgID = &orgID
	default:
		if input.EventID == "" {
			return nil, fmt.Errorf("%w: %s requires an event", shared.ErrValidation, role)
		}
		eventID, err := shared.IDFromString(input.EventID)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid event id format", shared.ErrValidation)
		}
		assignment.EventID = &eventID
	}

	return &assignment, nil
}

func (s *RoleService) authorizeGrant(ctx context.Context, actorID shared.ID, assignment *rbac.Assignment) error {
	p, err := s.resolver.ResolvePrincipal(ctx, actorID)
	if err != nil {
		return fmt.Errorf("failed to resolve principal: %w", err)
	}

	if p.IsSuperAdmin() {
		return nil
	}

	// Event admins may manage event-scoped roles in their own events.
	if assignment.EventID != nil && assignment.Role.IsEventScoped() {
		if p.HasRankIn(*assignment.EventID, rbac.RoleEventAdmin) {
			return nil
		}
	}

	return shared.ErrForbidden
}
