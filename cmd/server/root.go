package main

import (
	"context"
	"fmt"

	"github.com/projektfire/internal/config"
	"github.com/projektfire/internal/db"
	"github.com/projektfire/internal/logging"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// newRootCmd builds the CLI. Running it without a subcommand starts the server.
// Flags are bound into v and take precedence over the environment.
func newRootCmd(v *viper.Viper) *cobra.Command {
	root := &cobra.Command{
		Use:   "projektfire",
		Short: "Projekt FIRE blog server",
		Long: `Projekt FIRE serves the public blog and the /panel admin.

Configuration comes from the environment (and an optional .env file);
--addr and --database-url override LISTEN_ADDR and DATABASE_URL.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), v)
		},
	}

	flags := root.PersistentFlags()
	flags.String("addr", "", "listen address, e.g. :8000")
	flags.String("database-url", "", "sqlite path or postgres:// URL")
	_ = v.BindPFlag("LISTEN_ADDR", flags.Lookup("addr"))
	_ = v.BindPFlag("DATABASE_URL", flags.Lookup("database-url"))

	root.AddCommand(
		newServeCmd(v),
		newPublishCmd(v),
		newEnsureAdminCmd(v),
		newSeedCmd(v),
	)
	return root
}

// app is what every command needs after start-up.
type app struct {
	cfg config.AppConfig
	log zerolog.Logger
	db  *gorm.DB
}

// bootstrap loads config, builds the logger, opens and migrates the database.
func bootstrap(v *viper.Viper) (*app, error) {
	cfg := config.Load(v)
	log := logging.New(cfg.Env, cfg.LogLevel)

	gdb, err := db.Open(cfg.DatabaseURL, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.AutoMigrate(gdb); err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	return &app{cfg: cfg, log: log, db: gdb}, nil
}

func (a *app) close() {
	sqlDB, err := a.db.DB()
	if err != nil {
		return
	}
	if err := sqlDB.Close(); err != nil {
		a.log.Warn().Err(err).Msg("close database")
	}
}

// ensureAdmin creates or resets the configured admin account.
func (a *app) ensureAdmin() error {
	changed, err := db.EnsureAdmin(a.db, a.cfg.AdminUsername, a.cfg.AdminPassword)
	if err != nil {
		return fmt.Errorf("ensure admin: %w", err)
	}
	if changed {
		a.log.Info().Str("username", a.cfg.AdminUsername).Msg("admin account created or password updated")
	}
	return nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
