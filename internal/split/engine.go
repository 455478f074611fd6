package split

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/multierr"

	"github.com/procurecart/procurecart-backend/pkg/checkout"
	pkgerrors "github.com/procurecart/procurecart-backend/pkg/errors"
	"github.com/procurecart/procurecart-backend/pkg/logger"
	"github.com/procurecart/procurecart-backend/pkg/metrics"
)

type cartGateway interface {
	GetCart(ctx context.Context, cartID string) (*checkout.Cart, error)
	UpdateItemQuantities(ctx context.Context, cartID string, updates []checkout.QuantityUpdate) (*checkout.Cart, error)
	SplitItem(ctx context.Context, cartID string, req checkout.SplitRequest) (*checkout.Cart, error)
	UpdateShipping(ctx context.Context, cartID string, update checkout.ShippingUpdate) (*checkout.Cart, error)
}

// Engine attaches a second delivery address to a live cart that already has
// items assigned to its first address, splitting each affected line so half
// the quantity moves to the new address.
type Engine struct {
	carts   cartGateway
	logg    *logger.Logger
	metrics *metrics.Orchestration
}

// NewEngine builds an address split engine.
func NewEngine(carts cartGateway, logg *logger.Logger, m *metrics.Orchestration) (*Engine, error) {
	if carts == nil {
		return nil, fmt.Errorf("cart gateway required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Engine{carts: carts, logg: logg, metrics: m}, nil
}

// AddAddress runs the split sequence against the live cart and commits the
// rebuilt shipping assignment in a single update. The returned cart is the
// engine's post-commit state.
//
// The steps mutate shared server-side cart state, so each call waits for the
// previous one. A failure between the quantity doubling and the final commit
// leaves the cart inconsistent in a way this engine cannot unwind; those
// surface as terminal errors for manual recovery.
func (e *Engine) AddAddress(ctx context.Context, cartID string, newAddress checkout.Address) (*checkout.Cart, error) {
	if cartID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart id is required")
	}
	if newAddress.AddressID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "address id is required")
	}

	started := time.Now()
	logCtx := e.logg.WithCartID(ctx, cartID)

	cart, err := e.carts.GetCart(ctx, cartID)
	if err != nil {
		return nil, err
	}
	for _, addr := range cart.ShippingData.SelectedAddresses {
		if addr.AddressID == newAddress.AddressID {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "address already selected on cart")
		}
	}

	plan := buildPlan(cart, newAddress)
	logCtx = e.logg.WithFields(logCtx, map[string]any{
		"new_address_id": newAddress.AddressID,
		"items_to_split": len(plan.sourceUniqueIDs),
	})

	// Empty cart, or nothing assigned to the first address: the address
	// addition still happens, just with no items to move.
	if len(plan.sourceUniqueIDs) == 0 {
		committed, err := e.carts.UpdateShipping(ctx, cartID, checkout.ShippingUpdate{
			SelectedAddresses: plan.addresses,
			Assignments:       cart.ShippingData.Assignments,
		})
		if err != nil {
			return nil, err
		}
		e.logg.Info(logCtx, "address added to cart without item splits")
		return committed, nil
	}

	doubled := make([]checkout.QuantityUpdate, 0, len(plan.sourceUniqueIDs))
	for _, item := range cart.Items {
		if _, ok := plan.sourceUniqueIDs[item.UniqueID]; ok {
			doubled = append(doubled, checkout.QuantityUpdate{
				Index:    indexOf(cart, item.UniqueID),
				Quantity: item.Quantity * 2,
			})
		}
	}
	current, err := e.carts.UpdateItemQuantities(ctx, cartID, doubled)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "double item quantities")
	}

	// Item indices shift after every split, so each split locates its item
	// in the freshest cart state before issuing the request.
	for uniqueID, original := range plan.sourceQuantities {
		idx := indexOf(current, uniqueID)
		if idx < 0 {
			return nil, e.terminal(logCtx, fmt.Errorf("item %s disappeared mid-split", uniqueID))
		}
		current, err = e.carts.SplitItem(ctx, cartID, checkout.SplitRequest{
			ItemIndex:      idx,
			FirstQuantity:  original,
			SecondQuantity: original,
		})
		if err != nil {
			return nil, e.terminal(logCtx, err)
		}
	}

	newItems := diffNewItems(current, plan.preOpIDs)
	update := rebuildAssignments(current, plan, newItems, newAddress)

	committed, err := e.carts.UpdateShipping(ctx, cartID, update)
	if err != nil {
		return nil, e.compensate(logCtx, cartID, current, newItems, err)
	}

	if e.metrics != nil {
		e.metrics.IncSplit()
		e.metrics.ObserveDuration("address_split", time.Since(started))
	}
	e.logg.Info(logCtx, "address split committed")
	return committed, nil
}

// compensate zeroes the quantities of the items the split created, rolling
// the cart back to its pre-split lines, then propagates the commit error.
func (e *Engine) compensate(ctx context.Context, cartID string, cart *checkout.Cart, newItems map[string]struct{}, cause error) error {
	zeroed := make([]checkout.QuantityUpdate, 0, len(newItems))
	for uniqueID := range newItems {
		if idx := indexOf(cart, uniqueID); idx >= 0 {
			zeroed = append(zeroed, checkout.QuantityUpdate{Index: idx, Quantity: 0})
		}
	}
	sort.Slice(zeroed, func(i, j int) bool { return zeroed[i].Index < zeroed[j].Index })

	commitErr := pkgerrors.Wrap(pkgerrors.CodeDependency, cause, "commit shipping update")
	if len(zeroed) == 0 {
		return commitErr
	}

	if _, err := e.carts.UpdateItemQuantities(ctx, cartID, zeroed); err != nil {
		e.logg.Error(ctx, "split compensation failed", err)
		return e.terminal(ctx, multierr.Append(cause, err))
	}

	if e.metrics != nil {
		e.metrics.IncSplitCompensated()
	}
	e.logg.Warn(ctx, "shipping commit failed, split items zeroed")
	return commitErr
}

func (e *Engine) terminal(ctx context.Context, cause error) error {
	e.logg.Error(ctx, "cart left inconsistent by split sequence", cause)
	return pkgerrors.Wrap(pkgerrors.CodeTerminal, cause, "address split left the cart inconsistent")
}

type splitPlan struct {
	addresses        []checkout.Address
	preOpIDs         map[string]struct{}
	sourceUniqueIDs  map[string]struct{}
	sourceQuantities map[string]int
	// addressByID and optionByID remember each pre-existing item's
	// assignment so renumbered indices keep their original address.
	addressByID map[string]string
	optionByID  map[string]string
	optionBySKU map[string]string
}

func buildPlan(cart *checkout.Cart, newAddress checkout.Address) splitPlan {
	plan := splitPlan{
		addresses:        append(append([]checkout.Address{}, cart.ShippingData.SelectedAddresses...), newAddress),
		preOpIDs:         map[string]struct{}{},
		sourceUniqueIDs:  map[string]struct{}{},
		sourceQuantities: map[string]int{},
		addressByID:      map[string]string{},
		optionByID:       map[string]string{},
		optionBySKU:      map[string]string{},
	}
	for _, item := range cart.Items {
		plan.preOpIDs[item.UniqueID] = struct{}{}
	}
	if len(cart.ShippingData.SelectedAddresses) == 0 {
		return plan
	}

	firstAddressID := cart.ShippingData.SelectedAddresses[0].AddressID
	for _, assignment := range cart.ShippingData.Assignments {
		if assignment.ItemIndex < 0 || assignment.ItemIndex >= len(cart.Items) {
			continue
		}
		item := cart.Items[assignment.ItemIndex]
		plan.addressByID[item.UniqueID] = assignment.AddressID
		plan.optionByID[item.UniqueID] = assignment.SelectedDeliveryOption
		plan.optionBySKU[item.SKU] = assignment.SelectedDeliveryOption

		if assignment.AddressID == firstAddressID {
			plan.sourceUniqueIDs[item.UniqueID] = struct{}{}
			plan.sourceQuantities[item.UniqueID] = item.Quantity
		}
	}
	return plan
}

// diffNewItems partitions the post-split cart against the pre-operation
// identity set.
func diffNewItems(cart *checkout.Cart, preOpIDs map[string]struct{}) map[string]struct{} {
	newItems := map[string]struct{}{}
	for _, item := range cart.Items {
		if _, ok := preOpIDs[item.UniqueID]; !ok {
			newItems[item.UniqueID] = struct{}{}
		}
	}
	return newItems
}

// rebuildAssignments maps pre-existing items to their original address at
// their renumbered index and routes split-created items to the new address,
// in ascending index order.
func rebuildAssignments(cart *checkout.Cart, plan splitPlan, newItems map[string]struct{}, newAddress checkout.Address) checkout.ShippingUpdate {
	assignments := make([]checkout.Assignment, 0, len(cart.Items))
	for idx, item := range cart.Items {
		if _, isNew := newItems[item.UniqueID]; isNew {
			assignments = append(assignments, checkout.Assignment{
				ItemIndex:              idx,
				AddressID:              newAddress.AddressID,
				SelectedDeliveryOption: plan.optionBySKU[item.SKU],
			})
			continue
		}
		addressID, ok := plan.addressByID[item.UniqueID]
		if !ok {
			// Unassigned before the operation; leave it unassigned.
			continue
		}
		assignments = append(assignments, checkout.Assignment{
			ItemIndex:              idx,
			AddressID:              addressID,
			SelectedDeliveryOption: plan.optionByID[item.UniqueID],
		})
	}
	sort.Slice(assignments, func(i, j int) bool { return assignments[i].ItemIndex < assignments[j].ItemIndex })

	return checkout.ShippingUpdate{
		SelectedAddresses: plan.addresses,
		Assignments:       assignments,
	}
}

func indexOf(cart *checkout.Cart, uniqueID string) int {
	for idx, item := range cart.Items {
		if item.UniqueID == uniqueID {
			return idx
		}
	}
	return -1
}
