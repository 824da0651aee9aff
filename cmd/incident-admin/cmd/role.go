package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/incidenthq/api/internal/infra/postgres"
	"github.com/incidenthq/api/pkg/domain/rbac"
	"github.com/incidenthq/api/pkg/domain/shared"
	"github.com/incidenthq/api/pkg/domain/user"
)

var roleCmd = &cobra.Command{
	Use:   "role",
	Short: "Manage role assignments",
	Long: `Grants and revokes scoped roles directly in the database.

Roles and their scopes:
  super_admin              global
  org_admin, org_viewer    organization (--org)
  event_admin, responder,
  reporter                 event (--event)`,
}

func init() {
	grantCmd := &cobra.Command{
		Use:   "grant",
		Short: "Grant a role to a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRoleChange(cmd, "grant")
		},
	}
	revokeCmd := &cobra.Command{
		Use:   "revoke",
		Short: "Revoke a role from a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRoleChange(cmd, "revoke")
		},
	}
	for _, c := range []*cobra.Command{grantCmd, revokeCmd} {
		c.Flags().String("user", "", "User email or ID")
		c.Flags().String("role", "", "Role name")
		c.Flags().String("org", "", "Organization ID or slug (org-scoped roles)")
		c.Flags().String("event", "", "Event ID, or slug with --org (event-scoped roles)")
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List a user's role assignments",
		RunE:  runRoleList,
	}
	listCmd.Flags().String("user", "", "User email or ID")

	roleCmd.AddCommand(grantCmd, revokeCmd, listCmd)
}

func runRoleChange(cmd *cobra.Command, action string) error {
	userRef, _ := cmd.Flags().GetString("user")
	roleName, _ := cmd.Flags().GetString("role")
	orgRef, _ := cmd.Flags().GetString("org")
	eventRef, _ := cmd.Flags().GetString("event")

	if userRef == "" {
		return fmt.Errorf("--user is required")
	}
	role, err := rbac.ParseRole(roleName)
	if err != nil {
		return err
	}

	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	u, err := resolveUser(ctx, postgres.NewUserRepository(db), userRef)
	if err != nil {
		return fmt.Errorf("resolve user %q: %w", userRef, err)
	}

	assignment := rbac.Assignment{UserID: u.ID(), Role: role}
	scope := "global"
	switch {
	case role.IsGlobal():
		if orgRef != "" || eventRef != "" {
			return fmt.Errorf("%s is a global role, drop --org and --event", role)
		}
	case role.IsOrgScoped():
		if orgRef == "" {
			return fmt.Errorf("%s is org-scoped, --org is required", role)
		}
		org, err := resolveOrg(ctx, postgres.NewOrganizationRepository(db), orgRef)
		if err != nil {
			return fmt.Errorf("resolve organization %q: %w", orgRef, err)
		}
		id := org.ID()
		assignment.OrgID = &id
		scope = "org " + org.Slug()
	case role.IsEventScoped():
		if eventRef == "" {
			return fmt.Errorf("%s is event-scoped, --event is required", role)
		}
		e, err := resolveEvent(ctx, db, eventRef, orgRef)
		if err != nil {
			return fmt.Errorf("resolve event %q: %w", eventRef, err)
		}
		id := e.ID()
		assignment.EventID = &id
		scope = "event " + e.Slug()
	}

	roles := postgres.NewRoleRepository(db)
	switch action {
	case "grant":
		if err := roles.Grant(ctx, assignment); err != nil {
			if errors.Is(err, shared.ErrAlreadyExists) {
				fmt.Printf("%s already holds %s (%s).\n", u.Email(), role, scope)
				return nil
			}
			return fmt.Errorf("grant role: %w", err)
		}
		fmt.Printf("Granted %s (%s) to %s.\n", role, scope, u.Email())
	case "revoke":
		if err := roles.Revoke(ctx, assignment); err != nil {
			return fmt.Errorf("revoke role: %w", err)
		}
		fmt.Printf("Revoked %s (%s) from %s.\n", role, scope, u.Email())
	}
	return nil
}

func runRoleList(cmd *cobra.Command, args []string) error {
	userRef, _ := cmd.Flags().GetString("user")
	if userRef == "" {
		return fmt.Errorf("--user is required")
	}

	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	u, err := resolveUser(ctx, postgres.NewUserRepository(db), userRef)
	if err != nil {
		return fmt.Errorf("resolve user %q: %w", userRef, err)
	}

	assignments, err := postgres.NewRoleRepository(db).ListByUser(ctx, u.ID())
	if err != nil {
		return fmt.Errorf("list roles: %w", err)
	}

	t := newTable("ROLE", "SCOPE", "SCOPE-ID")
	for _, a := range assignments {
		switch {
		case a.EventID != nil:
			t.AddRow(a.Role.String(), "event", a.EventID.String())
		case a.OrgID != nil:
			t.AddRow(a.Role.String(), "org", a.OrgID.String())
		default:
			t.AddRow(a.Role.String(), "global", "-")
		}
	}
	t.Flush()
	return nil
}

// resolveUser accepts a user ID or email.
func resolveUser(ctx context.Context, repo *postgres.UserRepository, ref string) (*user.User, error) {
	if !strings.Contains(ref, "@") {
		if id, err := shared.IDFromString(ref); err == nil {
			return repo.GetByID(ctx, id)
		}
	}
	return repo.GetByEmail(ctx, user.NormalizeEmail(ref))
}
