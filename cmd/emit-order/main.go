// Publishes a synthetic order-created event to the orders topic. Local tool
// for exercising the order-created worker without the checkout engine.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	pubsubv2 "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/procurecart/procurecart-backend/pkg/config"
	"github.com/procurecart/procurecart-backend/pkg/logger"
	"github.com/procurecart/procurecart-backend/pkg/pubsub"
)

type eventEnvelope struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Data      eventData `json:"data"`
}

type eventData struct {
	OrderGroupID string `json:"order_group_id"`
	CartID       string `json:"cart_id"`
}

func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "emit-order"})

	_ = godotenv.Load()

	cartID := flag.String("cart-id", "", "live cart id the order originated from")
	orderGroupID := flag.String("order-group-id", "", "order group id (defaults to a generated one)")
	flag.Parse()

	if *cartID == "" {
		fmt.Fprintln(os.Stderr, "missing -cart-id")
		os.Exit(1)
	}
	if *orderGroupID == "" {
		*orderGroupID = "og-" + uuid.NewString()[:8]
	}

	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)

	pubsubClient, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, logg)
	requireResource(ctx, logg, "pubsub", err)
	defer pubsubClient.Close()

	payload, err := json.Marshal(eventEnvelope{
		EventID:   uuid.NewString(),
		EventType: "order.created",
		Data: eventData{
			OrderGroupID: *orderGroupID,
			CartID:       *cartID,
		},
	})
	requireResource(ctx, logg, "event payload", err)

	publisher := pubsubClient.OrdersPublisher()
	if publisher == nil {
		fmt.Fprintln(os.Stderr, "orders publisher not configured")
		os.Exit(1)
	}

	publishCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	result := publisher.Publish(publishCtx, &pubsubv2.Message{Data: payload})
	serverID, err := result.Get(publishCtx)
	requireResource(ctx, logg, "publish", err)

	fmt.Printf("published order.created cart=%s order_group=%s message=%s\n", *cartID, *orderGroupID, serverID)
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
