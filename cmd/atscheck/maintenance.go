package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"ats-resume-checker/internal/reports"
	"ats-resume-checker/internal/shared/storage/db"
)

func (c *cli) migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			sqlDB, err := c.deps.connectDB(ctx, c.cfg)
			if err != nil {
				return fmt.Errorf("connect database: %w", err)
			}
			defer sqlDB.Close()

			if err := db.RunMigrations(ctx, sqlDB); err != nil {
				return fmt.Errorf("run migrations: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		},
	}
}

func (c *cli) purgeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "purge",
		Short: "Delete reports past the 30 day retention window",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			store, release, err := c.deps.openStore(ctx, c.cfg)
			if err != nil {
				return err
			}
			defer release()

			n, err := (&reports.Purger{Store: store}).PurgeOnce(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "purged %d expired reports\n", n)
			return nil
		},
	}
}
