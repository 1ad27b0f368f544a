package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"medimart/internal/config"
	"medimart/internal/http/handlers"
	"medimart/internal/identity"
	applog "medimart/internal/log"
	"medimart/internal/payments"
	"medimart/internal/ratelimit"
	"medimart/internal/repos"
	"medimart/internal/telemetry"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := applog.Init(cfg.LogLevel, cfg.Env, "medimart"); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer applog.Sync()
	logger := applog.L()
	logger.Info("config.loaded", cfg.Fields()...)

	if cfg.TracingEnabled {
		shutdown, err := telemetry.Init("medimart", os.Stdout)
		if err != nil {
			return err
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = shutdown(ctx)
		}()
	}

	db, err := repos.OpenDB(cfg.DBDSN)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	var storage fiber.Storage
	if cfg.RedisURL != "" {
		rs, err := ratelimit.NewRedisStorage(cfg.RedisURL, "medimart:ratelimit:")
		if err != nil {
			return err
		}
		defer rs.Close()
		storage = rs
	}

	var proc payments.Processor
	if sp := payments.NewStripe(cfg.Payments.StripeSecretKey); sp != nil {
		proc = sp
	} else {
		logger.Warn("payments.disabled", zap.String("reason", "STRIPE_SECRET_KEY not set"))
	}

	verifier, err := identity.New(cfg.Identity)
	if err != nil {
		return fmt.Errorf("configure token verifier: %w", err)
	}
	deps := handlers.NewDeps(db, cfg, verifier, proc)
	app := handlers.NewApp(cfg, deps, storage)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	errc := make(chan error, 1)
	go func() { errc <- app.Listen(":" + cfg.Port) }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		logger.Info("server.shutdown")
		sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return app.ShutdownWithContext(sctx)
	}
}
