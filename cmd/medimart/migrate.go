package main

import (
	"fmt"

	"medimart/internal/config"
	"medimart/internal/repos"

	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the database schema and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			db, err := repos.OpenDB(cfg.DBDSN)
			if err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			defer db.Close()
			fmt.Fprintf(cmd.OutOrStdout(), "schema ready in %s\n", cfg.DBDSN)
			return nil
		},
	}
}

func seedCmd() *cobra.Command {
	var adminUID, adminEmail string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Insert demo categories and an admin account",
		Long: `Insert the demo categories and mirror an admin account.

The admin must already exist at the identity provider; its subject id
is passed with --admin-uid. Running seed again is harmless.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			db, err := repos.OpenDB(cfg.DBDSN)
			if err != nil {
				return err
			}
			defer db.Close()
			if err := repos.Seed(cmd.Context(), db, adminUID, adminEmail); err != nil {
				return fmt.Errorf("seed: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "seed complete")
			return nil
		},
	}
	cmd.Flags().StringVar(&adminUID, "admin-uid", "", "identity-provider subject id of the admin")
	cmd.Flags().StringVar(&adminEmail, "admin-email", "admin@medimart.local", "admin email")
	return cmd
}
