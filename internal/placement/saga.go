package placement

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/procurecart/procurecart-backend/pkg/checkout"
	pkgerrors "github.com/procurecart/procurecart-backend/pkg/errors"
	"github.com/procurecart/procurecart-backend/pkg/logger"
	"github.com/procurecart/procurecart-backend/pkg/metrics"
)

type cartGateway interface {
	GetCart(ctx context.Context, cartID string) (*checkout.Cart, error)
	UpdateShipping(ctx context.Context, cartID string, update checkout.ShippingUpdate) (*checkout.Cart, error)
	SetMarketingData(ctx context.Context, cartID string, data checkout.MarketingData) error
	SetCustomField(ctx context.Context, cartID, app, field, value string) error
	StartTransaction(ctx context.Context, cartID string, input checkout.TransactionInput) (*checkout.Transaction, error)
	SubmitPayment(ctx context.Context, cartID string, instruction checkout.PaymentInstruction) error
	FinalizeOrder(ctx context.Context, cartID, transactionID string) error
}

// CostCenter selects one delivery target for the saga.
type CostCenter struct {
	ID      string
	Address checkout.Address
}

// Input is one order placement request across the cart's cost centers.
type Input struct {
	CostCenters         []CostCenter
	PurchaseOrderNumber string
	// InvoiceAddress overrides the billing address; when nil each order
	// bills to its cost center's shipping address.
	InvoiceAddress *checkout.Address
}

// Result is one placed order.
type Result struct {
	CostCenterID string
	OrderGroupID string
	Value        decimal.Decimal
}

// Saga walks the selected cost centers and places one order per cost center
// against the shared live cart. Passes run strictly in sequence: every pass
// rewrites the cart's address and custom data before acting on it, so a
// concurrent pass would corrupt the one in flight.
type Saga struct {
	carts   cartGateway
	logg    *logger.Logger
	metrics *metrics.Orchestration
}

// NewSaga builds an order placement saga.
func NewSaga(carts cartGateway, logg *logger.Logger, m *metrics.Orchestration) (*Saga, error) {
	if carts == nil {
		return nil, fmt.Errorf("cart gateway required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Saga{carts: carts, logg: logg, metrics: m}, nil
}

// Place runs the saga. An error-status transaction response aborts the
// remaining cost centers immediately; orders already finalized stay placed.
func (s *Saga) Place(ctx context.Context, cartID string, input Input) ([]Result, error) {
	if cartID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart id is required")
	}
	if len(input.CostCenters) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one cost center is required")
	}

	started := time.Now()
	logCtx := s.logg.WithCartID(ctx, cartID)

	cart, err := s.carts.GetCart(ctx, cartID)
	if err != nil {
		return nil, err
	}
	if err := checkPreconditions(cart, input); err != nil {
		return nil, err
	}

	valueCents, referenceCents, interestCents := orderValue(cart)

	results := make([]Result, 0, len(input.CostCenters))
	for i, costCenter := range input.CostCenters {
		passCtx := s.logg.WithFields(logCtx, map[string]any{
			"cost_center_id": costCenter.ID,
			"pass":           i + 1,
		})

		if err := s.prepareCart(ctx, cartID, cart, costCenter, input, i == 0); err != nil {
			return results, err
		}

		tx, err := s.carts.StartTransaction(ctx, cartID, checkout.TransactionInput{
			ValueCents:          valueCents,
			ReferenceValueCents: referenceCents,
			InterestValueCents:  interestCents,
		})
		if err != nil {
			return results, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "open payment transaction")
		}
		if msg := tx.ErrorMessage(); msg != "" {
			if s.metrics != nil {
				s.metrics.IncSagaAbort()
			}
			s.logg.Warn(passCtx, "transaction rejected, aborting remaining cost centers")
			return results, pkgerrors.New(pkgerrors.CodeDependency, msg).
				WithDetails(map[string]any{"cost_center_id": costCenter.ID})
		}

		billing := costCenter.Address
		if input.InvoiceAddress != nil {
			billing = *input.InvoiceAddress
		}
		err = s.carts.SubmitPayment(ctx, cartID, checkout.PaymentInstruction{
			TransactionID:       tx.ID,
			PaymentSystem:       cart.PaymentData.PaymentSystem,
			Installments:        cart.PaymentData.Installments,
			ValueCents:          valueCents,
			ReferenceValueCents: referenceCents,
			InterestValueCents:  interestCents,
			BillingAddress:      &billing,
		})
		if err != nil {
			return results, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "submit payment")
		}

		if err := s.carts.FinalizeOrder(ctx, cartID, tx.ID); err != nil {
			return results, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "finalize order")
		}

		results = append(results, Result{
			CostCenterID: costCenter.ID,
			OrderGroupID: tx.OrderGroupID,
			Value:        decimal.NewFromInt(int64(valueCents)).Shift(-2),
		})
		if s.metrics != nil {
			s.metrics.IncOrdersPlaced()
		}
		s.logg.Info(passCtx, "order placed for cost center")
	}

	if s.metrics != nil {
		s.metrics.ObserveDuration("order_placement", time.Since(started))
	}
	return results, nil
}

// prepareCart points the shared cart at the cost center before the payment
// steps: its address moves to the front of the selection, marketing and
// custom data tag the cost center, and cart-global purchase-order data goes
// on only with the first pass.
func (s *Saga) prepareCart(ctx context.Context, cartID string, cart *checkout.Cart, costCenter CostCenter, input Input, firstPass bool) error {
	addresses := make([]checkout.Address, 0, len(cart.ShippingData.SelectedAddresses))
	addresses = append(addresses, costCenter.Address)
	for _, addr := range cart.ShippingData.SelectedAddresses {
		if addr.AddressID != costCenter.Address.AddressID {
			addresses = append(addresses, addr)
		}
	}
	_, err := s.carts.UpdateShipping(ctx, cartID, checkout.ShippingUpdate{
		SelectedAddresses: addresses,
		Assignments:       cart.ShippingData.Assignments,
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "point cart at cost center")
	}

	err = s.carts.SetMarketingData(ctx, cartID, checkout.MarketingData{
		MarketingTags: fmt.Sprintf("cost-center:%s", costCenter.ID),
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "tag cart marketing data")
	}

	if err := s.carts.SetCustomField(ctx, cartID, checkout.CustomAppID, "costCenterId", costCenter.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "tag cart cost center")
	}

	if firstPass && input.PurchaseOrderNumber != "" {
		if err := s.carts.SetCustomField(ctx, cartID, checkout.CustomAppID, checkout.PurchaseOrderField, input.PurchaseOrderNumber); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "attach purchase order number")
		}
	}
	return nil
}

func checkPreconditions(cart *checkout.Cart, input Input) error {
	if len(cart.Items) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "cart has no items")
	}
	if cart.PaymentData.PaymentSystem == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "cart has no payment selection")
	}

	assigned := map[string]struct{}{}
	for _, assignment := range cart.ShippingData.Assignments {
		assigned[assignment.AddressID] = struct{}{}
	}
	for _, costCenter := range input.CostCenters {
		if costCenter.ID == "" || costCenter.Address.AddressID == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "cost center id and address are required")
		}
		if _, ok := assigned[costCenter.Address.AddressID]; !ok {
			return pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("cost center %s has no items assigned to its address", costCenter.ID))
		}
	}
	return nil
}

// orderValue computes the transaction figures: the installment plan total
// when financing was selected, the cart total otherwise.
func orderValue(cart *checkout.Cart) (value, reference, interest int) {
	reference = cart.PaymentData.ReferenceValueCents
	if reference == 0 {
		reference = cart.TotalCents()
	}
	if installment := cart.PaymentData.SelectedInstallment(); installment != nil {
		return installment.TotalCents, reference, installment.InterestCents
	}
	return cart.TotalCents(), reference, 0
}
