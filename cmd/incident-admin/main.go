// Command incident-admin is an operator CLI for bootstrap and
// administration tasks that talk to the database directly: creating
// the first super admin, organizations, events, and role grants.
package main

import (
	"fmt"
	"os"

	"github.com/incidenthq/api/cmd/incident-admin/cmd"
)

// Version is set by build flags.
var Version = "dev"

func main() {
	cmd.SetVersion(Version)
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
