package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/lztpay/lztpay/internal/bootstrap"
	"github.com/lztpay/lztpay/internal/controller"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

const serviceName = "lztpay-api"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "lztpay-api: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, bootstrap.Options{
		ServiceName:      serviceName,
		MetricsNamespace: "lztpay",
		ConfigPath:       os.Getenv("LZTPAY_CONFIG"),
		Mock:             os.Getenv("LZTPAY_MOCK_GATEWAY") == "true",
	})
	if err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), app.Config.Server.ShutdownTimeout)
		defer cancel()
		if err := app.Close(shutdownCtx); err != nil {
			app.Logger.Error().Err(err).Msg("Shutdown finished with errors")
		}
	}()

	var redisClient redis.Cmdable
	if app.Redis != nil {
		redisClient = app.Redis
	}

	router := controller.NewRouter(controller.RouterDeps{
		Manager:     app.Manager,
		RedisClient: redisClient,
		Metrics:     app.Metrics,
		Gatherer:    app.Registry,
		Logger:      app.Logger,
		ServiceName: serviceName,
		Server:      app.Config.Server,
		JWTSecret:   app.Config.Auth.JWTSecret,
	})

	addr := fmt.Sprintf(":%d", app.Config.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  app.Config.Server.ReadTimeout,
		WriteTimeout: app.Config.Server.WriteTimeout,
		IdleTimeout:  app.Config.Server.IdleTimeout,
	}

	if err := app.Manager.StartCleanup(ctx, app.Config.Tracking.CleanupInterval); err != nil {
		return fmt.Errorf("start cleanup: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		app.Logger.Info().Str("addr", addr).Msg("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		app.Logger.Info().Msg("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), app.Config.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}
		return app.Manager.StopCleanup()
	})

	if err := g.Wait(); err != nil {
		return err
	}
	app.Logger.Info().Msg("Server exited")
	return nil
}
