package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "digital-menu/analytics-svc/internal/api/http"
	"digital-menu/analytics-svc/internal/service"
	"digital-menu/config"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var addr string

var rootCmd = &cobra.Command{
	Use:   "analytics-svc",
	Short: "Read side of the storefront analytics",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		logger, err := config.NewLogger(cfg.LogLevel)
		if err != nil {
			return err
		}
		logger = logger.Named("analytics-svc")
		defer logger.Sync()

		if addr == "" {
			addr = cfg.HTTP.Addr
		}
		return run(cmd.Context(), cfg, logger)
	},
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	db := config.MustInitPostgres(cfg.DB, logger)
	defer db.Close()
	rdb := config.MustInitRedis(cfg.Redis, logger)
	defer rdb.Close()

	handler := httpapi.NewHandler(service.NewAnalyticsService(db, rdb, logger), logger)
	server := httpapi.NewServer(addr, httpapi.NewRouter(handler))

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("analytics service starting", zap.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func main() {
	rootCmd.Flags().StringVar(&addr, "addr", "", "listen address (defaults to HTTP_ADDR)")
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
