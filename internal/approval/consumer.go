package approval

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	pkgerrors "github.com/procurecart/procurecart-backend/pkg/errors"
	"github.com/procurecart/procurecart-backend/pkg/logger"
)

const (
	orderCreatedEvent = "order.created"

	consumerName = "order-created"
)

type idempotencyChecker interface {
	CheckAndMarkProcessed(ctx context.Context, consumer string, eventID uuid.UUID) (bool, error)
	Delete(ctx context.Context, consumer string, eventID uuid.UUID) error
}

// orderEventEnvelope is the notification published by the checkout engine
// when an order group reaches the created state.
type orderEventEnvelope struct {
	EventID   string `json:"event_id"`
	EventType string `json:"event_type"`
	Data      struct {
		OrderGroupID string `json:"order_group_id"`
		CartID       string `json:"cart_id"`
	} `json:"data"`
}

type processResult struct {
	ack  bool
	nack bool
}

// Consumer watches Pub/Sub for order-created notifications and reconciles
// them onto the originating saved cart.
type Consumer struct {
	approvals    Service
	manager      idempotencyChecker
	subscription *pubsub.Subscriber
	logg         *logger.Logger
}

// NewConsumer wires the order-created reconciliation consumer.
func NewConsumer(approvals Service, manager idempotencyChecker, subscription *pubsub.Subscriber, logg *logger.Logger) (*Consumer, error) {
	if approvals == nil {
		return nil, errors.New("approval service is required")
	}
	if manager == nil {
		return nil, errors.New("idempotency manager is required")
	}
	if subscription == nil {
		return nil, errors.New("orders subscription is required")
	}
	if logg == nil {
		return nil, errors.New("logger is required")
	}
	return &Consumer{
		approvals:    approvals,
		manager:      manager,
		subscription: subscription,
		logg:         logg,
	}, nil
}

// Run processes order notifications until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		result := c.process(ctx, msg)
		if result.nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

func (c *Consumer) process(ctx context.Context, msg *pubsub.Message) processResult {
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"message_id": msg.ID,
	})

	var envelope orderEventEnvelope
	if err := json.Unmarshal(msg.Data, &envelope); err != nil {
		c.logg.Error(logCtx, "failed to unmarshal order event", err)
		return processResult{ack: true}
	}

	logCtx = c.logg.WithFields(logCtx, map[string]any{
		"event_id":       envelope.EventID,
		"event_type":     envelope.EventType,
		"order_group_id": envelope.Data.OrderGroupID,
		"cart_id":        envelope.Data.CartID,
	})

	if envelope.EventType != orderCreatedEvent {
		c.logg.Info(logCtx, "skipping unrelated event")
		return processResult{ack: true}
	}
	if envelope.Data.CartID == "" {
		c.logg.Error(logCtx, "order event missing cart id", fmt.Errorf("empty cart_id"))
		return processResult{ack: true}
	}

	eventID, err := uuid.Parse(envelope.EventID)
	if err != nil {
		c.logg.Error(logCtx, "order event carries malformed event id", err)
		return processResult{ack: true}
	}

	already, err := c.manager.CheckAndMarkProcessed(ctx, consumerName, eventID)
	if err != nil {
		c.logg.Error(logCtx, "idempotency check failed", err)
		return processResult{nack: true}
	}
	if already {
		c.logg.Info(logCtx, "event already processed")
		return processResult{ack: true}
	}

	if _, err := c.approvals.MarkOrderPlaced(ctx, envelope.Data.CartID, envelope.Data.OrderGroupID); err != nil {
		if coded := pkgerrors.As(err); coded != nil && coded.Code() == pkgerrors.CodeNotFound {
			// Orders placed outside a saved-cart flow have nothing to reconcile.
			c.logg.Info(logCtx, "no saved cart linked to ordered cart")
			return processResult{ack: true}
		}
		c.logg.Error(logCtx, "failed to mark saved cart order placed", err)
		_ = c.manager.Delete(ctx, consumerName, eventID)
		return processResult{nack: true}
	}

	c.logg.Info(logCtx, "saved cart reconciled to orderPlaced")
	return processResult{ack: true}
}
