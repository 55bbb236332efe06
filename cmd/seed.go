package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/psds-microservice/inquiry-service/internal/database"
	"github.com/psds-microservice/inquiry-service/internal/service"
	"github.com/spf13/cobra"
)

var seedPassword string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create the sample operator accounts (prod001, qc001, fin001, help001, admin001)",
	RunE:  runSeed,
}

func init() {
	seedCmd.Flags().StringVar(&seedPassword, "password", "password123", "password for every seeded account")
	rootCmd.AddCommand(seedCmd)
}

func runSeed(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := database.MigrateUp(cfg.DatabaseURL()); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	db, err := database.Open(cfg.DSN())
	if err != nil {
		return fmt.Errorf("db: %w", err)
	}
	created, err := service.NewUserService(db).Seed(context.Background(), seedPassword)
	if err != nil {
		return err
	}
	for _, u := range created {
		slog.Info("seed: created user", slog.String("user_id", u.UserID), slog.String("name", u.Name), slog.String("role", string(u.Role)))
	}
	slog.Info("seed: done", slog.Int("created", len(created)), slog.Int("skipped", len(service.SeedUsers)-len(created)))
	return nil
}
