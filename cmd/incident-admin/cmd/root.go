package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

var (
	version string

	// Global flags
	flagConfig  string
	flagVerbose bool
)

var rootCmd = &cobra.Command{
	Use:   "incident-admin",
	Short: "IncidentHQ platform administration CLI",
	Long: `incident-admin manages an IncidentHQ deployment directly through
its database: bootstrap the first super admin, create organizations
and events, and grant or revoke scoped roles.

Database connection settings come from the DB_* environment variables
the API server uses, optionally overridden by a YAML config file
(--config, default ~/.incidenthq/config.yaml).`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the CLI version from build flags.
func SetVersion(v string) {
	version = v
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to config file (default ~/.incidenthq/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Enable verbose output")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(bootstrapCmd)
	rootCmd.AddCommand(orgCmd)
	rootCmd.AddCommand(eventCmd)
	rootCmd.AddCommand(roleCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show CLI version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("incident-admin version %s\n", version)
		fmt.Printf("  Go:       %s\n", runtime.Version())
		fmt.Printf("  OS/Arch:  %s/%s\n", runtime.GOOS, runtime.GOARCH)
	},
}
