package main

import (
	"context"
	"fmt"
	"os"

	"github.com/desertthunder/itx/internal/shared"
	"github.com/urfave/cli/v3"
)

// Setup creates the config file from the embedded example when missing and runs history migrations.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	if cmd.Bool("rollback") {
		return r.rollbackHistory()
	}

	configPath := r.configPath
	if configPath == "" {
		configPath = "config.toml"
	}

	if _, err := os.Stat(configPath); err != nil {
		r.logger.Info("config file not found, creating from template", "path", configPath)
		if err := shared.CreateConfigFile(configPath); err != nil {
			return fmt.Errorf("failed to create config file: %w", err)
		}
		r.writePlain("✓ Created %s\n", configPath)

		config, err := shared.LoadConfig(configPath)
		if err != nil {
			return err
		}
		config.ApplyEnv()
		r.config = config
	} else {
		r.writePlain("✓ Using existing %s\n", configPath)
	}

	r.logger.Info("initializing database", "path", r.config.History.Path)
	if _, err := r.history(); err != nil {
		return err
	}
	r.logger.Infof("setup complete for database: %v", r.config.History.Path)
	r.writePlain("✓ History database ready at %s\n", r.config.History.Path)

	if err := r.config.Validate(); err != nil {
		r.writePlainln("Next: set client_id and client_secret in %s (or %s / %s), then run: itx auth",
			configPath, shared.EnvClientID, shared.EnvClientSecret)
		return nil
	}
	r.writePlainln("Next: itx auth")

	return nil
}

// rollbackHistory undoes the most recently applied history migration.
func (r *Runner) rollbackHistory() error {
	if _, err := r.history(); err != nil {
		return err
	}
	if err := shared.RollbackMigration(r.db); err != nil {
		return fmt.Errorf("failed to roll back migration: %w", err)
	}
	r.writePlain("✓ Rolled back the latest migration in %s\n", r.config.History.Path)
	return nil
}
