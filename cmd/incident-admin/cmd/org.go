package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/incidenthq/api/internal/infra/postgres"
	"github.com/incidenthq/api/pkg/domain/organization"
	"github.com/incidenthq/api/pkg/domain/shared"
)

var orgCmd = &cobra.Command{
	Use:   "org",
	Short: "Manage organizations",
}

func init() {
	createCmd := &cobra.Command{
		Use:   "create NAME",
		Short: "Create an organization",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
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

			o, err := organization.New(name, slug, time.Now().UTC())
			if err != nil {
				return err
			}
			if err := postgres.NewOrganizationRepository(db).Create(ctx, o); err != nil {
				return fmt.Errorf("create organization: %w", err)
			}

			fmt.Printf("Organization %q created.\n", o.Name())
			fmt.Printf("  ID:   %s\n", o.ID())
			fmt.Printf("  Slug: %s\n", o.Slug())
			return nil
		},
	}
	createCmd.Flags().String("slug", "", "URL slug (derived from name if omitted)")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List organizations",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			orgs, err := postgres.NewOrganizationRepository(db).List(ctx)
			if err != nil {
				return fmt.Errorf("list organizations: %w", err)
			}

			t := newTable("ID", "NAME", "SLUG", "CREATED")
			for _, o := range orgs {
				t.AddRow(o.ID().String(), o.Name(), o.Slug(), o.CreatedAt().Format(time.RFC3339))
			}
			t.Flush()
			return nil
		},
	}

	orgCmd.AddCommand(createCmd, listCmd)
}

// resolveOrg accepts an organization ID or slug.
func resolveOrg(ctx context.Context, repo *postgres.OrganizationRepository, ref string) (*organization.Organization, error) {
	if id, err := shared.IDFromString(ref); err == nil {
		return repo.GetByID(ctx, id)
	}
	return repo.GetBySlug(ctx, ref)
}
