package main

import (
	"fmt"
	"os"

	"community_hub/internal/config"
	"community_hub/internal/pkg"
	"community_hub/internal/repository/mysql"

	"github.com/go-extras/cobraflags"
	"github.com/spf13/cobra"
)

func newMigrateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema and exit",
		RunE:  migrateCommand,
	}
	cobraflags.RegisterMap(cmd, commonFlags)
	return cmd
}

func migrateCommand(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load(commonFlags[configFlag].GetString())
	if err != nil {
		return err
	}
	logger := pkg.NewLogger(os.Stdout, cfg.LogLevel)

	db, err := mysql.Open(cfg.DBDriver, cfg.DatabaseDSN)
	if err != nil {
		return err
	}
	defer mysql.Close(db)

	if err := mysql.Migrate(db); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	logger.Info("schema migrated", "driver", cfg.DBDriver)
	return nil
}
