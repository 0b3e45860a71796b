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

	"digital-menu/config"
	httpapi "digital-menu/web-svc/internal/api/http"
	"digital-menu/web-svc/internal/builder"
	"digital-menu/web-svc/internal/cart"
	"digital-menu/web-svc/internal/gateway"
	"digital-menu/web-svc/internal/imaging"
	"digital-menu/web-svc/internal/mutation"
	"digital-menu/web-svc/internal/remote"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const sweepInterval = 5 * time.Minute

var addr string

var rootCmd = &cobra.Command{
	Use:   "web-svc",
	Short: "Menu builder and public storefront",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		logger, err := config.NewLogger(cfg.LogLevel)
		if err != nil {
			return err
		}
		logger = logger.Named("web-svc")
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

	httpClient := &http.Client{}
	client := remote.NewClient(cfg.Web.CatalogSvcURL, httpClient, logger)
	events := remote.NewEventSink(client, logger)

	builders := builder.NewManager(builder.RemoteDirectory{Client: client},
		imaging.NewProcessor(cfg.Web.MaxImageWidth, cfg.Web.ImageQuality),
		builder.Config{
			Mutations: mutation.Config{
				MetadataTimeout: cfg.Web.MetadataTimeout,
				UploadTimeout:   cfg.Web.UploadTimeout,
			},
			IdleTTL: cfg.Web.BuilderIdleTTL,
		}, logger)
	carts := cart.NewSessions(events, cfg.Web.CartIdleTTL)
	gw := gateway.NewGateway(gateway.Config{
		CatalogSvcURL:   cfg.Web.CatalogSvcURL,
		AnalyticsSvcURL: cfg.Web.AnalyticsSvcURL,
	}, httpClient, logger)

	handler := httpapi.NewHandler(builders, client, carts, events, gw, logger)
	server := httpapi.NewServer(addr, httpapi.NewRouter(handler))

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("web service starting", zap.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		ticker := time.NewTicker(sweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				if n := carts.Sweep(); n > 0 {
					logger.Debug("idle carts dropped", zap.Int("count", n))
				}
				if n := builders.Sweep(); n > 0 {
					logger.Info("idle builders closed", zap.Int("count", n))
				}
			}
		}
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		err := server.Shutdown(shutdownCtx)
		builders.Wait()
		events.Wait()
		return err
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
