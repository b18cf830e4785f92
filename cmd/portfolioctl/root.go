package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/foxfolio/portfolio-api/internal/config"
	"github.com/foxfolio/portfolio-api/internal/pkg/logger"
	"github.com/foxfolio/portfolio-api/internal/repository/postgres"
)

// app carries state shared by every subcommand.
type app struct {
	configPath string
	cfg        *config.Config

	// openDB is replaced in tests.
	openDB func(cfg *config.Config) (*sql.DB, error)
}

func newApp() *app {
	return &app{openDB: openPostgres}
}

func openPostgres(cfg *config.Config) (*sql.DB, error) {
	if cfg.Database.URL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	return postgres.Open(cfg.Database.URL, postgres.PoolConfig{
		MaxOpenConns: cfg.Database.MaxOpenConns,
		MaxIdleConns: cfg.Database.MaxIdleConns,
	})
}

// withDB opens the database for the duration of fn.
func (a *app) withDB(fn func(db *sql.DB) error) error {
	db, err := a.openDB(a.cfg)
	if err != nil {
		return err
	}
	defer db.Close()
	return fn(db)
}

func execute() int {
	root := newRootCmd(newApp())
	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func newRootCmd(a *app) *cobra.Command {
	defaultPath := os.Getenv("CONFIG_PATH")
	if defaultPath == "" {
		defaultPath = "config/config.yaml"
	}

	root := &cobra.Command{
		Use:           "portfolioctl",
		Short:         "Operator tooling for the portfolio API",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if a.cfg != nil {
				return nil
			}
			cfg, err := config.LoadFromEnv(a.configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			logger.SetLevel(logger.ParseLevel(cfg.Log.Level))
			logger.SetRedactPII(cfg.Log.Redact())
			a.cfg = cfg
			return nil
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", defaultPath, "path to the YAML config file")

	root.AddCommand(newMigrateCmd(a))
	root.AddCommand(newCreateAdminCmd(a))
	root.AddCommand(newSetPasswordCmd(a))
	root.AddCommand(newImportVisitorsCmd(a))
	return root
}
