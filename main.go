package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/fakhrymubarak/weather-odds-web/internal/config"
	"github.com/fakhrymubarak/weather-odds-web/internal/redis"
	"github.com/fakhrymubarak/weather-odds-web/internal/server"
)

func main() {
	logger := config.GetLogger()
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := redis.Ping(ctx, 3*time.Second); err != nil {
		logger.Warnw("Redis not reachable at startup, sessions will fail until it is", "addr", config.GetRedisAddr(), "error", err)
	}

	srv := server.New(server.Options{})
	srv.StartBackground(ctx)

	httpServer := srv.HTTPServer(":" + config.GetServerPort())
	go func() {
		logger.Infow("Weather odds web running", "addr", httpServer.Addr, "odds_service", config.GetOddsServiceURL())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalw("HTTP server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Infow("Shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GetServerTimeout("shutdown_timeout"))
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Errorw("Error during shutdown", "error", err)
	}
	if err := redis.GetClient().Close(); err != nil {
		logger.Warnw("Error closing Redis client", "error", err)
	}
	logger.Infow("Shutdown complete")
}
