package cmd

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/incidenthq/api/internal/infra/postgres"
	"github.com/incidenthq/api/pkg/domain/rbac"
	"github.com/incidenthq/api/pkg/domain/shared"
	"github.com/incidenthq/api/pkg/domain/user"
	"github.com/incidenthq/api/pkg/password"
)

var bootstrapCmd = &cobra.Command{
	Use:   "bootstrap",
	Short: "Create the first super admin",
	Long: `Creates a user and grants it the super_admin role. Intended for
initial deployment, before any account exists that could grant roles
through the API.

If no password is given (--password or INCIDENTHQ_ADMIN_PASSWORD), a
random one is generated and printed once.`,
	RunE: runBootstrap,
}

func init() {
	bootstrapCmd.Flags().String("email", "", "Admin email (or set ADMIN_EMAIL env)")
	bootstrapCmd.Flags().String("name", "", "Admin name (defaults to email prefix)")
	bootstrapCmd.Flags().String("password", "", "Admin password (or set INCIDENTHQ_ADMIN_PASSWORD env)")
	bootstrapCmd.Flags().Bool("force", false, "Reset password and re-grant role if the user already exists")
}

func runBootstrap(cmd *cobra.Command, args []string) error {
	email, _ := cmd.Flags().GetString("email")
	if email == "" {
		email = os.Getenv("ADMIN_EMAIL")
	}
	if email == "" {
		return fmt.Errorf("admin email required: use --email or set ADMIN_EMAIL")
	}
	email = user.NormalizeEmail(email)

	name, _ := cmd.Flags().GetString("name")
	if name == "" {
		name, _, _ = strings.Cut(email, "@")
	}

	pw, _ := cmd.Flags().GetString("password")
	if pw == "" {
		pw = os.Getenv("INCIDENTHQ_ADMIN_PASSWORD")
	}
	generated := false
	if pw == "" {
		var err error
		pw, err = generatePassword()
		if err != nil {
			return err
		}
		generated = true
	}

	force, _ := cmd.Flags().GetBool("force")

	hasher := password.New()
	if err := hasher.Validate(pw); err != nil {
		return fmt.Errorf("password rejected: %w", err)
	}
	hash, err := hasher.Hash(pw)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	users := postgres.NewUserRepository(db)
	roles := postgres.NewRoleRepository(db)
	now := time.Now().UTC()

	u, err := users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if !force {
			return fmt.Errorf("user %s already exists (ID: %s), use --force to reset its password and re-grant", email, u.ID())
		}
		if err := u.SetPasswordHash(hash, now); err != nil {
			return err
		}
		if err := users.Update(ctx, u); err != nil {
			return fmt.Errorf("update user: %w", err)
		}
	case errors.Is(err, shared.ErrNotFound):
		u, err = user.New(email, name, hash, now)
		if err != nil {
			return err
		}
		if err := users.Create(ctx, u); err != nil {
			return fmt.Errorf("create user: %w", err)
		}
	default:
		return fmt.Errorf("look up user: %w", err)
	}

	grant := rbac.Assignment{UserID: u.ID(), Role: rbac.RoleSuperAdmin}
	if err := roles.Grant(ctx, grant); err != nil && !errors.Is(err, shared.ErrAlreadyExists) {
		return fmt.Errorf("grant super_admin: %w", err)
	}

	fmt.Println()
	fmt.Println("=== Super Admin Ready ===")
	fmt.Printf("  ID:    %s\n", u.ID())
	fmt.Printf("  Name:  %s\n", u.Name())
	fmt.Printf("  Email: %s\n", u.Email())
	fmt.Printf("  Role:  %s\n", rbac.RoleSuperAdmin)
	if generated {
		fmt.Println()
		fmt.Println("Password (save this, it won't be shown again):")
		fmt.Printf("  %s\n", pw)
	}
	fmt.Println()
	fmt.Println("Log in via POST /api/v1/auth/login to obtain tokens.")
	return nil
}

// generatePassword returns a random password that satisfies the
// default policy: hex body plus a fixed mixed-case suffix.
func generatePassword() (string, error) {
	bytes := make([]byte, 12)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("generate password: %w", err)
	}
	return "Aa1-" + hex.EncodeToString(bytes), nil
}
