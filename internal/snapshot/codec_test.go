package snapshot

import (
	"strings"
	"testing"

	"github.com/procurecart/procurecart-backend/pkg/checkout"
)

func intPtr(v int) *int { return &v }

func TestCaptureRestoreRoundTrip(t *testing.T) {
	cart := &checkout.Cart{
		ID: "cart-1",
		Items: []checkout.Item{
			{UniqueID: "u1", SKU: "SKU-1", Seller: "1", Quantity: 2, PriceCents: 1500},
			{UniqueID: "u2", SKU: "SKU-2", Seller: "2", Quantity: 1, PriceCents: 9900, ManualPriceCents: intPtr(8000)},
		},
		ShippingData: checkout.ShippingData{
			Assignments: []checkout.Assignment{
				{ItemIndex: 0, AddressID: "addr-1", SelectedDeliveryOption: "express"},
			},
		},
		PaymentData: checkout.PaymentData{
			PaymentSystem:       "44",
			Installments:        3,
			ReferenceValueCents: 11000,
		},
		CustomData: []checkout.CustomApp{
			{ID: "procurecart", Fields: map[string]string{"savedCartId": "sc-1"}},
		},
	}

	blob, err := Capture(cart)
	if err != nil {
		t.Fatalf("Capture() error = %v", err)
	}

	snap := Restore(blob)
	if len(snap.Items) != 2 {
		t.Fatalf("restored %d items, want 2", len(snap.Items))
	}
	if snap.Items[0].SKU != "SKU-1" || snap.Items[0].Quantity != 2 {
		t.Errorf("first item = %+v", snap.Items[0])
	}
	if snap.Items[1].ManualPriceCents == nil || *snap.Items[1].ManualPriceCents != 8000 {
		t.Errorf("manual price not preserved: %+v", snap.Items[1])
	}
	if snap.Payment.PaymentSystem != "44" || snap.Payment.Installments != 3 {
		t.Errorf("payment = %+v", snap.Payment)
	}
	if snap.Payment.SelectedDeliveryOption != "express" {
		t.Errorf("delivery option = %q, want express", snap.Payment.SelectedDeliveryOption)
	}
	if len(snap.CustomFields) != 1 || snap.CustomFields[0].Value != "sc-1" {
		t.Errorf("custom fields = %+v", snap.CustomFields)
	}
}

func TestCaptureNilCart(t *testing.T) {
	if _, err := Capture(nil); err == nil {
		t.Fatal("Capture(nil) should fail")
	}
}

func TestRestoreMalformedBlob(t *testing.T) {
	for _, blob := range []string{"", "{not json", `[1,2,3]`} {
		snap := Restore(blob)
		if len(snap.Items) != 0 || snap.Payment.PaymentSystem != "" {
			t.Errorf("Restore(%q) = %+v, want zero snapshot", blob, snap)
		}
	}
}

func TestSubtotalCentsUsesManualPrice(t *testing.T) {
	snap := Snapshot{Items: []Item{
		{SKU: "a", Quantity: 2, PriceCents: 1000},
		{SKU: "b", Quantity: 3, PriceCents: 500, ManualPriceCents: intPtr(400)},
	}}
	if got := snap.SubtotalCents(); got != 3200 {
		t.Errorf("SubtotalCents() = %d, want 3200", got)
	}
}

func TestItemInputs(t *testing.T) {
	blob, err := Capture(&checkout.Cart{Items: []checkout.Item{
		{SKU: "SKU-9", Seller: "1", Quantity: 4, PriceCents: 100},
	}})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(blob, "SKU-9") {
		t.Fatalf("blob missing sku: %s", blob)
	}
	inputs := Restore(blob).ItemInputs()
	if len(inputs) != 1 || inputs[0].Quantity != 4 {
		t.Errorf("ItemInputs() = %+v", inputs)
	}
}
