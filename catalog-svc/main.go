package main

import (
	"context"
	"fmt"
	"os"

	httpapi "digital-menu/catalog-svc/internal/api/http"
	"digital-menu/catalog-svc/internal/service"
	"digital-menu/catalog-svc/internal/storage"
	"digital-menu/config"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "catalog-svc",
	Short: "Menu catalog, uploads, auth and settings backend",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg = config.Load()
		var err error
		logger, err = config.NewLogger(cfg.LogLevel)
		if err != nil {
			return err
		}
		logger = logger.Named("catalog-svc")
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the embedded SQL migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		db := config.MustInitPostgres(cfg.DB, logger)
		defer db.Close()

		applied, err := storage.NewPostgresRepository(db).Migrate(cmd.Context())
		if err != nil {
			return err
		}
		for _, name := range applied {
			logger.Info("migration applied", zap.String("file", name))
		}
		return nil
	},
}

var autoMigrate bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		db := config.MustInitPostgres(cfg.DB, logger)
		defer db.Close()
		rdb := config.MustInitRedis(cfg.Redis, logger)
		defer rdb.Close()
		writer := config.NewKafkaWriter(cfg.Kafka)
		defer writer.Close()

		repo := storage.NewPostgresRepository(db)
		if autoMigrate {
			if _, err := repo.Migrate(context.Background()); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
		}
		cache := storage.NewRedisCache(rdb, cfg.Catalog.SessionTTL, cfg.Catalog.PublicMenuTTL)

		menu := service.NewMenuService(service.MenuServiceDeps{
			Repo:          repo,
			Settings:      repo,
			Cache:         cache,
			Objects:       storage.NewDiskObjectStore(cfg.Catalog.UploadDir, cfg.Catalog.PublicBaseURL),
			QR:            service.DefaultQRGenerator{},
			StorefrontURL: cfg.Catalog.StorefrontURL,
			Logger:        logger,
		})
		auth := service.NewAuthService(repo, cache)
		settings := service.NewSettingsService(repo, cache, logger)
		events := service.NewEventService(storage.NewKafkaPublisher(writer))

		handler := httpapi.NewHandler(menu, auth, settings, events, logger)
		return httpapi.StartServer(cfg.HTTP.Addr, httpapi.NewRouter(handler, cfg.Catalog.UploadDir), logger)
	},
}

func main() {
	serveCmd.Flags().BoolVar(&autoMigrate, "migrate", false, "apply migrations before serving")
	rootCmd.AddCommand(serveCmd, migrateCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
