package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nadzzz/readmebot/internal/store/sqlstore"
)

var migrateCmd = &cobra.Command{
	Use:       "migrate [up|down|status]",
	Short:     "Apply SQL store migrations",
	Long:      "Run the embedded goose migrations against the postgres or sqlite store named by store.backend and store.dsn.",
	Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"up", "down", "status"},
	RunE:      runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Store.Backend != sqlstore.Postgres && cfg.Store.Backend != sqlstore.SQLite {
		return fmt.Errorf("store.backend %q has no migrations", cfg.Store.Backend)
	}

	direction := "up"
	if len(args) == 1 {
		direction = args[0]
	}

	s, err := sqlstore.Open(cfg.Store.Backend, cfg.Store.DSN, cfg.Store.TTL)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx := context.Background()
	if err := s.Migrate(ctx, direction); err != nil {
		return err
	}
	v, err := s.Version(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "schema version %d\n", v)
	return nil
}
