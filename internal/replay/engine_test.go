package replay

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/procurecart/procurecart-backend/internal/snapshot"
	"github.com/procurecart/procurecart-backend/pkg/checkout"
	"github.com/procurecart/procurecart-backend/pkg/db/models"
	pkgerrors "github.com/procurecart/procurecart-backend/pkg/errors"
	"github.com/procurecart/procurecart-backend/pkg/logger"
)

type customFieldWrite struct {
	app, field, value string
}

type fakeGateway struct {
	cart *checkout.Cart

	failAddItems bool
	failPayment  bool

	cleared      []string
	added        [][]checkout.ItemInput
	payments     []checkout.PaymentSelection
	shipping     []checkout.ShippingUpdate
	customFields []customFieldWrite
	manualPrices map[int]int
}

func newFakeGateway(cart *checkout.Cart) *fakeGateway {
	return &fakeGateway{cart: cart, manualPrices: map[int]int{}}
}

func (f *fakeGateway) GetCart(context.Context, string) (*checkout.Cart, error) {
	return f.cart, nil
}

func (f *fakeGateway) ClearItems(_ context.Context, cartID string) error {
	f.cleared = append(f.cleared, cartID)
	return nil
}

func (f *fakeGateway) AddItems(_ context.Context, _ string, items []checkout.ItemInput) (*checkout.Cart, error) {
	if f.failAddItems {
		return nil, errors.New("items unavailable")
	}
	f.added = append(f.added, items)
	return f.cart, nil
}

func (f *fakeGateway) SelectPayment(_ context.Context, _ string, selection checkout.PaymentSelection) error {
	if f.failPayment {
		return errors.New("payment system rejected")
	}
	f.payments = append(f.payments, selection)
	return nil
}

func (f *fakeGateway) UpdateShipping(_ context.Context, _ string, update checkout.ShippingUpdate) (*checkout.Cart, error) {
	f.shipping = append(f.shipping, update)
	return f.cart, nil
}

func (f *fakeGateway) SetCustomField(_ context.Context, _ string, app, field, value string) error {
	f.customFields = append(f.customFields, customFieldWrite{app, field, value})
	return nil
}

func (f *fakeGateway) SetManualPrice(_ context.Context, _ string, itemIndex, priceCents int) error {
	f.manualPrices[itemIndex] = priceCents
	return nil
}

type fakeRelinker struct {
	relinked map[uuid.UUID]string
}

func (f *fakeRelinker) RelinkLiveCart(_ context.Context, id uuid.UUID, liveCartID string) error {
	if f.relinked == nil {
		f.relinked = map[uuid.UUID]string{}
	}
	f.relinked[id] = liveCartID
	return nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "replay-test", Level: zerolog.Disabled, Output: io.Discard})
}

func intPtr(v int) *int { return &v }

func snapshotBlob(t *testing.T, snap snapshot.Snapshot) string {
	t.Helper()
	blob, err := json.Marshal(snap)
	if err != nil {
		t.Fatal(err)
	}
	return string(blob)
}

func savedCartFixture(t *testing.T) *models.SavedCart {
	return &models.SavedCart{
		ID: uuid.New(),
		Snapshot: snapshotBlob(t, snapshot.Snapshot{
			Items: []snapshot.Item{
				{SKU: "SKU-1", Seller: "1", Quantity: 2, PriceCents: 1000},
				{SKU: "SKU-2", Seller: "1", Quantity: 1, PriceCents: 500, ManualPriceCents: intPtr(450)},
			},
			Payment: snapshot.Payment{
				PaymentSystem:          "44",
				Installments:           2,
				ReferenceValueCents:    2450,
				SelectedDeliveryOption: "express",
			},
			CustomFields: []snapshot.CustomField{
				{App: "procurecart", Field: "savedCartId", Value: "stale-id"},
				{App: "buyer-notes", Field: "note", Value: "deliver to dock 4"},
			},
		}),
	}
}

func hydratedCart() *checkout.Cart {
	return &checkout.Cart{
		ID: "lc-new",
		Items: []checkout.Item{
			{UniqueID: "u1", SKU: "SKU-1", Quantity: 2, PriceCents: 1000},
			{UniqueID: "u2", SKU: "SKU-2", Quantity: 1, PriceCents: 500},
		},
		ShippingData: checkout.ShippingData{
			SelectedAddresses: []checkout.Address{{AddressID: "addr-1"}},
			Assignments: []checkout.Assignment{
				{ItemIndex: 0, AddressID: "addr-1", SelectedDeliveryOption: "standard"},
				{ItemIndex: 1, AddressID: "addr-1", SelectedDeliveryOption: "standard"},
			},
		},
	}
}

func TestHydrateReplaysFullSnapshot(t *testing.T) {
	gateway := newFakeGateway(hydratedCart())
	relinker := &fakeRelinker{}
	engine, err := NewEngine(gateway, relinker, testLogger(), nil)
	if err != nil {
		t.Fatal(err)
	}
	record := savedCartFixture(t)

	cart, err := engine.Hydrate(context.Background(), record, "lc-new")
	if err != nil {
		t.Fatalf("Hydrate() error = %v", err)
	}
	if cart.ID != "lc-new" {
		t.Errorf("cart id = %s", cart.ID)
	}

	if len(gateway.cleared) != 1 {
		t.Error("target cart was not cleared")
	}
	if len(gateway.added) != 1 || len(gateway.added[0]) != 2 {
		t.Fatalf("added = %+v", gateway.added)
	}
	if len(gateway.payments) != 1 || gateway.payments[0].PaymentSystem != "44" {
		t.Errorf("payments = %+v", gateway.payments)
	}

	if len(gateway.shipping) != 1 {
		t.Fatalf("shipping updates = %+v", gateway.shipping)
	}
	for _, assignment := range gateway.shipping[0].Assignments {
		if assignment.SelectedDeliveryOption != "express" {
			t.Errorf("delivery option = %q, want express", assignment.SelectedDeliveryOption)
		}
	}

	var pointer, stale, note bool
	for _, write := range gateway.customFields {
		switch {
		case write.app == checkout.CustomAppID && write.field == checkout.SavedCartField:
			pointer = true
			if write.value != record.ID.String() {
				t.Errorf("pointer value = %q, want %s", write.value, record.ID)
			}
			if write.value == "stale-id" {
				stale = true
			}
		case write.app == "buyer-notes":
			note = true
		}
	}
	if !pointer || !note {
		t.Errorf("custom field writes = %+v", gateway.customFields)
	}
	if stale {
		t.Error("stale snapshot pointer overwrote the fresh one")
	}
	if len(gateway.customFields) != 2 {
		t.Errorf("expected pointer + one replayed field, got %+v", gateway.customFields)
	}

	if gateway.manualPrices[1] != 450 {
		t.Errorf("manual prices = %+v", gateway.manualPrices)
	}
	if _, ok := gateway.manualPrices[0]; ok {
		t.Error("item without override got a manual price")
	}

	if relinker.relinked[record.ID] != "lc-new" {
		t.Errorf("relinked = %+v", relinker.relinked)
	}
}

func TestHydrateAbortsOnFirstFailure(t *testing.T) {
	gateway := newFakeGateway(hydratedCart())
	gateway.failAddItems = true
	relinker := &fakeRelinker{}
	engine, _ := NewEngine(gateway, relinker, testLogger(), nil)

	_, err := engine.Hydrate(context.Background(), savedCartFixture(t), "lc-new")
	if coded := pkgerrors.As(err); coded == nil || coded.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error, got %v", err)
	}
	// Earlier steps ran, later ones did not; no rollback is attempted.
	if len(gateway.cleared) != 1 {
		t.Error("clear step should have run before the failure")
	}
	if len(gateway.payments) != 0 || len(gateway.customFields) != 0 {
		t.Error("steps after the failure should not run")
	}
	if len(relinker.relinked) != 0 {
		t.Error("record must not be relinked after a failed replay")
	}
}

func TestHydrateMalformedSnapshotYieldsEmptyCart(t *testing.T) {
	gateway := newFakeGateway(&checkout.Cart{ID: "lc-new"})
	relinker := &fakeRelinker{}
	engine, _ := NewEngine(gateway, relinker, testLogger(), nil)

	record := &models.SavedCart{ID: uuid.New(), Snapshot: "{corrupt"}
	_, err := engine.Hydrate(context.Background(), record, "lc-new")
	if err != nil {
		t.Fatalf("Hydrate() error = %v", err)
	}
	if len(gateway.added) != 0 || len(gateway.payments) != 0 {
		t.Error("corrupt snapshot should hydrate into an empty cart")
	}
	if len(gateway.customFields) != 1 {
		t.Errorf("pointer write expected, got %+v", gateway.customFields)
	}
	if relinker.relinked[record.ID] != "lc-new" {
		t.Error("record should relink even for an empty snapshot")
	}
}
