package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"invoicing-service/internal/adapters/web"
	"invoicing-service/internal/app"
	"invoicing-service/internal/config"
	"invoicing-service/internal/core"
	"invoicing-service/internal/db"
	"invoicing-service/internal/rates"
)

func main() {
	_ = godotenv.Load()

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	sugar := logger.Sugar()

	cfg, err := config.Parse()
	if err != nil {
		sugar.Fatalw("configuration error", "error", err.Error())
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg.DatabaseURI)
	if err != nil {
		sugar.Fatalw("database initialization error", "error", err.Error())
	}
	defer pool.Close()

	if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
		sugar.Fatalw("upload directory error", "dir", cfg.UploadDir, "error", err.Error())
	}

	var ratesClient *rates.Client
	if cfg.RatesProviderAddress != "" {
		ratesClient = rates.NewClient(cfg.RatesProviderAddress)
	}

	svc := app.NewAppService(
		core.NewInvoiceService(pool),
		core.NewReferenceService(pool),
		core.NewUserService(pool),
		ratesClient,
		sugar,
	)

	handler := web.NewHandler(svc, sugar, web.Options{
		JWTSecret:      cfg.JWTSecret,
		UploadDir:      cfg.UploadDir,
		MaxUploadBytes: cfg.MaxUploadBytes,
		AllowedOrigins: cfg.AllowedOrigins,
	})

	server := &http.Server{
		Addr:    cfg.RunAddress,
		Handler: handler,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		sugar.Infow("starting invoicing server", "addr", cfg.RunAddress)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		sugar.Infow("shutting down")
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		sugar.Fatalw("shutdown error", "error", err.Error())
	}
}
