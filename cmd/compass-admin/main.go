// compass-admin runs the maintenance tasks of the compliance backend:
// schema migration, checklist seeding, demo data and the first administrator.
//
// Usage (from backend directory):
//
//	DB_USER=... DB_PASSWORD=... DB_HOST=... DB_PORT=... DB_NAME=... go run ./cmd/compass-admin migrate
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/dpcompass/compass_backend/config"
	"github.com/dpcompass/compass_backend/models"
	"github.com/spf13/cobra"
)

// exitErr carries a numeric exit code through the cobra error path.
type exitErr struct {
	code int
	msg  string
}

func (e *exitErr) Error() string { return e.msg }

func codeError(code int, format string, args ...any) error {
	return &exitErr{code: code, msg: fmt.Sprintf(format, args...)}
}

func connect(withRedis bool) error {
	config.ConnectDatabaseWithRetry()
	if config.GetDB() == nil {
		return codeError(2, "database not initialized; set DB_* env vars")
	}
	if withRedis {
		config.ConnectRedisWithRetry()
		if config.GetRedisDB() == nil {
			return codeError(2, "redis not initialized; set REDIS_ADDRESS")
		}
	}
	return nil
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "compass-admin",
		Short:         "Maintenance tasks for the DPDP compliance backend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(&cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := connect(false); err != nil {
				return err
			}
			if err := models.MigrateTable(); err != nil {
				return codeError(1, "migrate: %v", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Schema migrated")
			return nil
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "load-checklist",
		Short: "Load the DPDP Act 2023 sections, categories and checklist items",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := connect(true); err != nil {
				return err
			}
			result, err := models.LoadChecklist(cmd.Context())
			if err != nil {
				return codeError(1, "load-checklist: %v", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Sections created: %d\n", result.SectionsCreated)
			fmt.Fprintf(out, "Categories created: %d\n", result.CategoriesCreated)
			fmt.Fprintf(out, "Checklist items created: %d\n", result.ItemsCreated)
			fmt.Fprintf(out, "Report templates created: %d\n", result.TemplatesCreated)
			fmt.Fprintln(out, "Successfully loaded DPDP checklist data")
			return nil
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "load-sample-data",
		Short: "Create demo users, applications and audits",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := connect(true); err != nil {
				return err
			}
			result, err := models.LoadSampleData(cmd.Context())
			if err != nil {
				return codeError(1, "load-sample-data: %v", err)
			}
			out := cmd.OutOrStdout()
			for _, name := range result.UsersCreated {
				fmt.Fprintf(out, "Created user: %s\n", name)
			}
			for _, name := range result.ApplicationsCreated {
				fmt.Fprintf(out, "Created application: %s\n", name)
			}
			for _, name := range result.AuditsCreated {
				fmt.Fprintf(out, "Created audit: %s\n", name)
			}
			fmt.Fprintln(out, "Sample data loaded successfully")
			return nil
		},
	})

	var username, password string
	seedAdmin := &cobra.Command{
		Use:   "seed-admin",
		Short: "Create an administrator, or reset the password of an existing one",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if username == "" || password == "" {
				return codeError(3, "--username and --password are required")
			}
			if err := connect(true); err != nil {
				return err
			}
			user, created, err := models.SeedAdmin(cmd.Context(), username, password)
			if err != nil {
				return codeError(1, "seed-admin: %v", err)
			}
			verb := "Updated"
			if created {
				verb = "Created"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s admin user %s (id=%d)\n", verb, user.Username, user.ID)
			return nil
		},
	}
	seedAdmin.Flags().StringVar(&username, "username", "", "Administrator username")
	seedAdmin.Flags().StringVar(&password, "password", "", "Administrator password")
	root.AddCommand(seedAdmin)

	return root
}

func main() {
	root := newRootCommand()
	if err := root.ExecuteContext(context.Background()); err != nil {
		var ee *exitErr
		if errors.As(err, &ee) {
			fmt.Fprintln(os.Stderr, "Error:", ee.msg)
			os.Exit(ee.code)
		}
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
