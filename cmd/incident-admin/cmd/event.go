package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/incidenthq/api/internal/infra/postgres"
	"github.com/incidenthq/api/pkg/domain/event"
	"github.com/incidenthq/api/pkg/domain/shared"
)

var eventCmd = &cobra.Command{
	Use:   "event",
	Short: "Manage events",
}

func init() {
	createCmd := &cobra.Command{
		Use:   "create NAME",
		Short: "Create an event in an organization",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			orgRef, _ := cmd.Flags().GetString("org")
			if orgRef == "" {
				return fmt.Errorf("--org is required (organization ID or slug)")
			}
			slug, _ := cmd.Flags().GetString("slug")
			if slug == "" {
				slug = slugify(name)
			}

			db, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			org, err := resolveOrg(ctx, postgres.NewOrganizationRepository(db), orgRef)
			if err != nil {
				return fmt.Errorf("resolve organization %q: %w", orgRef, err)
			}

			now := time.Now().UTC()
			e, err := event.New(org.ID(), name, slug, now)
			if err != nil {
				return err
			}

			startsAt, endsAt, err := parseSchedule(cmd)
			if err != nil {
				return err
			}
			if startsAt != nil || endsAt != nil {
				if err := e.Schedule(startsAt, endsAt, now); err != nil {
					return err
				}
			}

			if err := postgres.NewEventRepository(db).Create(ctx, e); err != nil {
				return fmt.Errorf("create event: %w", err)
			}

			fmt.Printf("Event %q created in %q.\n", e.Name(), org.Name())
			fmt.Printf("  ID:   %s\n", e.ID())
			fmt.Printf("  Slug: %s\n", e.Slug())
			return nil
		},
	}
	createCmd.Flags().String("org", "", "Organization ID or slug")
	createCmd.Flags().String("slug", "", "URL slug (derived from name if omitted)")
	createCmd.Flags().String("starts-at", "", "Event start (RFC 3339)")
	createCmd.Flags().String("ends-at", "", "Event end (RFC 3339)")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List events in an organization",
		RunE: func(cmd *cobra.Command, args []string) error {
			orgRef, _ := cmd.Flags().GetString("org")
			if orgRef == "" {
				return fmt.Errorf("--org is required (organization ID or slug)")
			}

			db, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			org, err := resolveOrg(ctx, postgres.NewOrganizationRepository(db), orgRef)
			if err != nil {
				return fmt.Errorf("resolve organization %q: %w", orgRef, err)
			}

			events, err := postgres.NewEventRepository(db).ListByOrganization(ctx, org.ID())
			if err != nil {
				return fmt.Errorf("list events: %w", err)
			}

			t := newTable("ID", "NAME", "SLUG", "STARTS", "ENDS")
			for _, e := range events {
				t.AddRow(e.ID().String(), e.Name(), e.Slug(), formatTime(e.StartsAt()), formatTime(e.EndsAt()))
			}
			t.Flush()
			return nil
		},
	}
	listCmd.Flags().String("org", "", "Organization ID or slug")

	eventCmd.AddCommand(createCmd, listCmd)
}

func parseSchedule(cmd *cobra.Command) (*time.Time, *time.Time, error) {
	parse := func(flag string) (*time.Time, error) {
		s, _ := cmd.Flags().GetString(flag)
		if s == "" {
			return nil, nil
		}
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return nil, fmt.Errorf("invalid --%s: %w", flag, err)
		}
		return &t, nil
	}

	startsAt, err := parse("starts-at")
	if err != nil {
		return nil, nil, err
	}
	endsAt, err := parse("ends-at")
	if err != nil {
		return nil, nil, err
	}
	return startsAt, endsAt, nil
}

func formatTime(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format(time.RFC3339)
}

// resolveEvent accepts an event ID, or a slug when orgRef is given.
func resolveEvent(ctx context.Context, db *postgres.DB, ref, orgRef string) (*event.Event, error) {
	events := postgres.NewEventRepository(db)
	if id, err := shared.IDFromString(ref); err == nil {
		return events.GetByID(ctx, id)
	}
	if orgRef == "" {
		return nil, fmt.Errorf("event slug %q needs --org to resolve", ref)
	}
	org, err := resolveOrg(ctx, postgres.NewOrganizationRepository(db), orgRef)
	if err != nil {
		return nil, fmt.Errorf("resolve organization %q: %w", orgRef, err)
	}
	return events.GetBySlug(ctx, org.ID(), ref)
}
