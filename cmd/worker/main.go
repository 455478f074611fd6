package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"

	"github.com/procurecart/procurecart-backend/internal/approval"
	"github.com/procurecart/procurecart-backend/internal/comments"
	"github.com/procurecart/procurecart-backend/internal/savedcarts"
	"github.com/procurecart/procurecart-backend/pkg/config"
	"github.com/procurecart/procurecart-backend/pkg/db"
	"github.com/procurecart/procurecart-backend/pkg/idempotency"
	"github.com/procurecart/procurecart-backend/pkg/logger"
	"github.com/procurecart/procurecart-backend/pkg/pubsub"
	"github.com/procurecart/procurecart-backend/pkg/redis"
)

func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "order-created-worker"})

	_ = godotenv.Load()

	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)

	cfg.Service.Kind = "order-created-worker"

	logg = logger.New(logger.Options{
		ServiceName: "order-created-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(ctx, cfg.DB, logg)
	requireResource(ctx, logg, "database", err)
	defer dbClient.Close()

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	requireResource(ctx, logg, "redis", err)
	defer redisClient.Close()

	pubsubClient, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, logg)
	requireResource(ctx, logg, "pubsub", err)
	defer pubsubClient.Close()

	manager, err := idempotency.NewManager(redisClient, cfg.Eventing.IdempotencyTTL)
	requireResource(ctx, logg, "idempotency manager", err)

	savedCartRepo := savedcarts.NewRepository(dbClient.DB())

	commentService, err := comments.NewService(comments.NewRepository(dbClient.DB()))
	requireResource(ctx, logg, "comment service", err)

	approvalService, err := approval.NewService(savedCartRepo, dbClient, commentService)
	requireResource(ctx, logg, "approval service", err)

	orderConsumer, err := approval.NewConsumer(
		approvalService,
		manager,
		pubsubClient.OrdersSubscription(),
		logg,
	)
	requireResource(ctx, logg, "order created consumer", err)

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	runCtx = logg.WithFields(runCtx, map[string]any{
		"serviceKind": cfg.Service.Kind,
		"env":         cfg.App.Env,
	})
	logg.Info(runCtx, "order created worker ready")

	if err := orderConsumer.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(runCtx, "order created worker not working", err)
		os.Exit(1)
	}
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
