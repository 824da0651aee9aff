package cmd

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/incidenthq/api/pkg/migrations"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations",
	Long: `Applies the SQL migrations shipped with the API. Migration files
follow the <version>_<name>.up.sql / .down.sql convention and are
tracked in the schema_migrations table.`,
}

func init() {
	var dir string

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRunner(dir, func(ctx context.Context, r *migrations.Runner) error {
				return r.Up(ctx)
			})
		},
	}

	downCmd := &cobra.Command{
		Use:   "down",
		Short: "Roll back the last applied migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRunner(dir, func(ctx context.Context, r *migrations.Runner) error {
				return r.Down(ctx)
			})
		},
	}

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show applied and pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRunner(dir, func(ctx context.Context, r *migrations.Runner) error {
				return r.Status(ctx)
			})
		},
	}

	migrateCmd.PersistentFlags().StringVar(&dir, "dir", "migrations", "Migrations directory")
	migrateCmd.AddCommand(upCmd, downCmd, statusCmd)
}

func withRunner(dir string, fn func(context.Context, *migrations.Runner) error) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	return fn(ctx, migrations.NewRunner(db.DB, dir))
}
