package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/procurecart/procurecart-backend/api/controllers"
	"github.com/procurecart/procurecart-backend/api/routes"
	"github.com/procurecart/procurecart-backend/internal/approval"
	"github.com/procurecart/procurecart-backend/internal/comments"
	"github.com/procurecart/procurecart-backend/internal/placement"
	"github.com/procurecart/procurecart-backend/internal/replay"
	"github.com/procurecart/procurecart-backend/internal/savedcarts"
	"github.com/procurecart/procurecart-backend/internal/split"
	"github.com/procurecart/procurecart-backend/pkg/checkout"
	"github.com/procurecart/procurecart-backend/pkg/config"
	"github.com/procurecart/procurecart-backend/pkg/db"
	"github.com/procurecart/procurecart-backend/pkg/logger"
	"github.com/procurecart/procurecart-backend/pkg/metrics"
	"github.com/procurecart/procurecart-backend/pkg/migrate"
	"github.com/procurecart/procurecart-backend/pkg/redis"
)

func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(ctx, ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(ctx, cfg.DB, logg)
	requireResource(ctx, logg, "database", err)
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(ctx, "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	requireResource(ctx, logg, "redis", err)
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(ctx, "error closing redis", err)
		}
	}()

	checkoutClient, err := checkout.NewClient(cfg.Checkout)
	requireResource(ctx, logg, "checkout client", err)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	orchestrationMetrics := metrics.NewOrchestration(registry)

	savedCartRepo := savedcarts.NewRepository(dbClient.DB())
	commentRepo := comments.NewRepository(dbClient.DB())

	savedCartService, err := savedcarts.NewService(savedCartRepo, dbClient, checkoutClient)
	requireResource(ctx, logg, "saved cart service", err)

	commentService, err := comments.NewService(commentRepo)
	requireResource(ctx, logg, "comment service", err)

	approvalService, err := approval.NewService(savedCartRepo, dbClient, commentService)
	requireResource(ctx, logg, "approval service", err)

	splitter, err := split.NewEngine(checkoutClient, logg, orchestrationMetrics)
	requireResource(ctx, logg, "split engine", err)

	replayer, err := replay.NewEngine(checkoutClient, savedCartService, logg, orchestrationMetrics)
	requireResource(ctx, logg, "replay engine", err)

	placementSaga, err := placement.NewSaga(checkoutClient, logg, orchestrationMetrics)
	requireResource(ctx, logg, "placement saga", err)

	handler := routes.NewRouter(
		cfg,
		logg,
		registry,
		map[string]controllers.Pinger{
			"database": dbClient,
			"redis":    redisClient,
		},
		savedCartService,
		commentService,
		approvalService,
		splitter,
		replayer,
		placementSaga,
	)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	runCtx := logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(runCtx, "starting api server")

	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	stopCtx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()
	go func() {
		<-stopCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(runCtx, "error shutting down api server", err)
		}
	}()

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logg.Error(runCtx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(runCtx, "api server stopped")
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
