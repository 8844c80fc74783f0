package cmd

import (
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/spf13/cobra"
)

const migrationTable = "schema_migrations"

var (
	migrateCmd = &cobra.Command{
		Use:   "migrate",
		Short: "Apply the SQL migrations under db/migrations",
		RunE:  runMigration,
	}
	migrateRollback bool
	migrateStatus   bool
	migrateDir      string
)

func init() {
	migrateCmd.Flags().BoolVarP(&migrateRollback, "rollback", "r", false, "roll back the latest migration")
	migrateCmd.Flags().BoolVar(&migrateStatus, "status", false, "print applied and pending migrations")
	migrateCmd.PersistentFlags().StringVarP(&migrateDir, "dir", "d", "db/migrations", "sql migrations directory")

	rootCmd.AddCommand(migrateCmd)
}

// migrationCommand maps the flags onto a goose verb.
func migrationCommand(rollback, status bool) string {
	switch {
	case status:
		return "status"
	case rollback:
		return "down"
	default:
		return "up"
	}
}

func runMigration(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(configDir)
	if err != nil {
		return err
	}

	db, err := goose.OpenDBWithDriver("pgx", cfg.Database.Source)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()
	goose.SetTableName(migrationTable)

	verb := migrationCommand(migrateRollback, migrateStatus)
	if err := goose.RunContext(cmd.Context(), verb, db, migrateDir); err != nil {
		return fmt.Errorf("goose %s: %w", verb, err)
	}
	return nil
}
