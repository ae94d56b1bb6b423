package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/jevencare/api/internal/app"
	"github.com/jevencare/api/internal/config"
	"github.com/jevencare/api/pkg/logger"
)

func main() {
	var configDir string

	rootCmd := &cobra.Command{
		Use:           "api",
		Short:         "JevenCare telehealth API",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), configDir)
		},
	}
	rootCmd.PersistentFlags().StringVar(&configDir, "config", "", "directory containing config.yaml")

	rootCmd.AddCommand(serveCmd(&configDir))
	rootCmd.AddCommand(migrateCmd(&configDir))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

func serveCmd(configDir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configDir)
		},
	}
}

func migrateCmd(configDir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configDir)
			if err != nil {
				return err
			}
			if cfg.Database.Driver != "postgres" {
				return errors.New("migrate requires the postgres driver")
			}

			cfg.Database.AutoMigrate = true
			db, err := app.OpenDB(cmd.Context(), cfg.Database)
			if err != nil {
				return err
			}
			return db.Close()
		},
	}
}

func loadConfig(dir string) (*config.Config, error) {
	var paths []string
	if dir != "" {
		paths = append(paths, dir)
	}
	cfg, err := config.LoadConfig(paths...)
	if err != nil {
		return nil, err
	}

	logger.Setup(logger.Config{
		Level:  cfg.Log.Level,
		Pretty: cfg.Log.Pretty,
	})
	return cfg, nil
}

func runServer(ctx context.Context, configDir string) error {
	cfg, err := loadConfig(configDir)
	if err != nil {
		return err
	}

	a, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.Run(ctx); err != nil {
		return err
	}
	log.Info().Msg("server exited properly")
	return nil
}
