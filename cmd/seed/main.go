package main

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/sahilchouksey/intern-track/config"
	"github.com/sahilchouksey/intern-track/database"
	"github.com/sahilchouksey/intern-track/utils"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "seeding failed:", err)
		os.Exit(1)
	}
}

func run() error {
	if err := config.LoadENV(); err != nil {
		return err
	}
	env, err := config.Get()
	if err != nil {
		return err
	}

	logger, closeLog, err := utils.NewLogger(utils.LoggerConfig{Level: env.LOG_LEVEL})
	if err != nil {
		return err
	}
	defer func() { _ = closeLog() }()

	store, err := database.StartGORM(env, logger)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer store.Close()

	if err := store.Init(); err != nil {
		return err
	}

	// Demo accounts share SEED_PASSWORD; nothing is seeded without it
	seeder := database.NewSeeder(store.DB(), os.Getenv("SEED_PASSWORD"), logger)
	if err := seeder.SeedAll(); err != nil {
		return err
	}

	logger.Info("seeding completed", zap.String("database", env.DB_NAME))
	return nil
}
