package replay

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/procurecart/procurecart-backend/internal/snapshot"
	"github.com/procurecart/procurecart-backend/pkg/checkout"
	"github.com/procurecart/procurecart-backend/pkg/db/models"
	pkgerrors "github.com/procurecart/procurecart-backend/pkg/errors"
	"github.com/procurecart/procurecart-backend/pkg/logger"
	"github.com/procurecart/procurecart-backend/pkg/metrics"
)

type cartGateway interface {
	GetCart(ctx context.Context, cartID string) (*checkout.Cart, error)
	ClearItems(ctx context.Context, cartID string) error
	AddItems(ctx context.Context, cartID string, items []checkout.ItemInput) (*checkout.Cart, error)
	SelectPayment(ctx context.Context, cartID string, selection checkout.PaymentSelection) error
	UpdateShipping(ctx context.Context, cartID string, update checkout.ShippingUpdate) (*checkout.Cart, error)
	SetCustomField(ctx context.Context, cartID, app, field, value string) error
	SetManualPrice(ctx context.Context, cartID string, itemIndex, priceCents int) error
}

type relinker interface {
	RelinkLiveCart(ctx context.Context, id uuid.UUID, liveCartID string) error
}

// Engine rebuilds a live cart from a saved snapshot. Hydration is strictly
// sequential: the target cart is shared server-side state, so every step
// waits for the previous one, and the first failure aborts the remainder
// without rolling back what already ran. Clearing the cart is itself
// destructive, so there is nothing meaningful to roll back to.
type Engine struct {
	carts   cartGateway
	records relinker
	logg    *logger.Logger
	metrics *metrics.Orchestration
}

// NewEngine builds a cart replay engine.
func NewEngine(carts cartGateway, records relinker, logg *logger.Logger, m *metrics.Orchestration) (*Engine, error) {
	if carts == nil {
		return nil, fmt.Errorf("cart gateway required")
	}
	if records == nil {
		return nil, fmt.Errorf("saved-cart relinker required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Engine{carts: carts, records: records, logg: logg, metrics: m}, nil
}

// Hydrate replays a saved cart onto the target live cart and re-links the
// record to it.
func (e *Engine) Hydrate(ctx context.Context, record *models.SavedCart, targetCartID string) (*checkout.Cart, error) {
	if record == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "saved cart is required")
	}
	if targetCartID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "target cart id is required")
	}

	started := time.Now()
	logCtx := e.logg.WithFields(e.logg.WithCartID(ctx, targetCartID), map[string]any{
		"saved_cart_id": record.ID,
	})

	snap := snapshot.Restore(record.Snapshot)

	if err := e.carts.ClearItems(ctx, targetCartID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear target cart")
	}

	if len(snap.Items) > 0 {
		if _, err := e.carts.AddItems(ctx, targetCartID, snap.ItemInputs()); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "re-add snapshot items")
		}
	}

	if snap.Payment.PaymentSystem != "" {
		err := e.carts.SelectPayment(ctx, targetCartID, checkout.PaymentSelection{
			PaymentSystem:       snap.Payment.PaymentSystem,
			Installments:        snap.Payment.Installments,
			ReferenceValueCents: snap.Payment.ReferenceValueCents,
		})
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "restore payment selection")
		}
	}

	if snap.Payment.SelectedDeliveryOption != "" {
		if err := e.restoreDeliveryOption(ctx, targetCartID, snap.Payment.SelectedDeliveryOption); err != nil {
			return nil, err
		}
	}

	if err := e.carts.SetCustomField(ctx, targetCartID, checkout.CustomAppID, checkout.SavedCartField, record.ID.String()); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "write saved-cart pointer")
	}

	for _, field := range snap.CustomFields {
		// The pointer written above must not be clobbered by the stale one
		// captured in the snapshot.
		if field.App == checkout.CustomAppID && field.Field == checkout.SavedCartField {
			continue
		}
		if err := e.carts.SetCustomField(ctx, targetCartID, field.App, field.Field, field.Value); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "replay custom field")
		}
	}

	for idx, item := range snap.Items {
		if item.ManualPriceCents == nil {
			continue
		}
		if err := e.carts.SetManualPrice(ctx, targetCartID, idx, *item.ManualPriceCents); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "re-apply manual price")
		}
	}

	if err := e.records.RelinkLiveCart(ctx, record.ID, targetCartID); err != nil {
		return nil, err
	}

	cart, err := e.carts.GetCart(ctx, targetCartID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load hydrated cart")
	}

	if e.metrics != nil {
		e.metrics.IncReplay()
		e.metrics.ObserveDuration("cart_replay", time.Since(started))
	}
	e.logg.Info(logCtx, "saved cart hydrated onto live cart")
	return cart, nil
}

// restoreDeliveryOption re-selects the captured delivery option on whatever
// shipping assignment the hydrated cart currently has. A cart with no
// assignments yet has nowhere to put the option; that is not an error.
func (e *Engine) restoreDeliveryOption(ctx context.Context, cartID, option string) error {
	cart, err := e.carts.GetCart(ctx, cartID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart for delivery option")
	}
	if len(cart.ShippingData.Assignments) == 0 {
		return nil
	}

	assignments := make([]checkout.Assignment, len(cart.ShippingData.Assignments))
	copy(assignments, cart.ShippingData.Assignments)
	for i := range assignments {
		assignments[i].SelectedDeliveryOption = option
	}

	_, err = e.carts.UpdateShipping(ctx, cartID, checkout.ShippingUpdate{
		SelectedAddresses: cart.ShippingData.SelectedAddresses,
		Assignments:       assignments,
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "restore delivery option")
	}
	return nil
}
