package main

import (
	"fmt"

	"github.com/MAB12-Star/hotel-management/internal/catalog"
	"github.com/MAB12-Star/hotel-management/internal/config"
	"github.com/MAB12-Star/hotel-management/internal/repository"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the booking and catalog schema migrations",
	Long: `Apply pending migrations to the Postgres booking store and the SQLite
room catalog, then exit.

Examples:
  booking-service migrate
  booking-service migrate --env-file deploy/.env`,
	RunE: runMigrate,
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(envFile)
	if err != nil {
		return err
	}

	cred := credentials(cfg)
	repo, err := repository.NewRepository(cred)
	if err != nil {
		return fmt.Errorf("failed to connect to booking store: %w", err)
	}
	defer repo.Close()
	if err := repo.RunMigrations(cred); err != nil {
		return err
	}

	rooms, err := catalog.NewRepository(cfg.CatalogDBPath)
	if err != nil {
		return fmt.Errorf("failed to open room catalog: %w", err)
	}
	defer rooms.Close()
	if err := rooms.RunMigrations(cfg.CatalogMigrationsPath); err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
	return nil
}

func credentials(cfg *config.Config) *repository.Credentials {
	return &repository.Credentials{
		Host:              cfg.DBHost,
		Port:              cfg.DBPort,
		User:              cfg.DBUser,
		Password:          cfg.DBPassword,
		DBName:            cfg.DBName,
		MigrationsDirPath: cfg.MigrationsPath,
	}
}
