package snapshot

import (
	"encoding/json"

	"github.com/procurecart/procurecart-backend/pkg/checkout"
	pkgerrors "github.com/procurecart/procurecart-backend/pkg/errors"
)

// Snapshot is the durable image of a live cart at save time. It keeps only
// what replay needs to rebuild an equivalent cart; engine-owned data such as
// computed totals and installment tables is re-derived on hydration.
type Snapshot struct {
	Items         []Item         `json:"items"`
	Payment       Payment        `json:"payment"`
	CustomFields  []CustomField  `json:"customFields,omitempty"`
	MarketingData *MarketingData `json:"marketingData,omitempty"`
}

type Item struct {
	SKU              string `json:"sku"`
	Seller           string `json:"seller"`
	Quantity         int    `json:"quantity"`
	PriceCents       int    `json:"price"`
	ManualPriceCents *int   `json:"manualPrice,omitempty"`
}

type Payment struct {
	PaymentSystem          string `json:"paymentSystem,omitempty"`
	Installments           int    `json:"installments,omitempty"`
	ReferenceValueCents    int    `json:"referenceValue,omitempty"`
	SelectedDeliveryOption string `json:"selectedDeliveryOption,omitempty"`
}

type CustomField struct {
	App   string `json:"app"`
	Field string `json:"field"`
	Value string `json:"value"`
}

type MarketingData struct {
	UtmCampaign   string `json:"utmCampaign,omitempty"`
	MarketingTags string `json:"marketingTags,omitempty"`
}

// Capture serializes the replay-relevant slice of a live cart.
func Capture(cart *checkout.Cart) (string, error) {
	if cart == nil {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "cannot snapshot a nil cart")
	}

	snap := Snapshot{
		Items: make([]Item, 0, len(cart.Items)),
		Payment: Payment{
			PaymentSystem:       cart.PaymentData.PaymentSystem,
			Installments:        cart.PaymentData.Installments,
			ReferenceValueCents: cart.PaymentData.ReferenceValueCents,
		},
	}
	for _, item := range cart.Items {
		snap.Items = append(snap.Items, Item{
			SKU:              item.SKU,
			Seller:           item.Seller,
			Quantity:         item.Quantity,
			PriceCents:       item.PriceCents,
			ManualPriceCents: item.ManualPriceCents,
		})
	}
	if len(cart.ShippingData.Assignments) > 0 {
		snap.Payment.SelectedDeliveryOption = cart.ShippingData.Assignments[0].SelectedDeliveryOption
	}
	for _, bucket := range cart.CustomData {
		for field, value := range bucket.Fields {
			snap.CustomFields = append(snap.CustomFields, CustomField{
				App:   bucket.ID,
				Field: field,
				Value: value,
			})
		}
	}

	blob, err := json.Marshal(snap)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to encode cart snapshot")
	}
	return string(blob), nil
}

// Restore decodes a stored snapshot. Malformed or empty blobs come back as a
// zero snapshot rather than an error so a corrupted record still hydrates
// into an empty cart instead of blocking the flow.
func Restore(blob string) Snapshot {
	var snap Snapshot
	if blob == "" {
		return snap
	}
	if err := json.Unmarshal([]byte(blob), &snap); err != nil {
		return Snapshot{}
	}
	return snap
}

// SubtotalCents is the stored value of the snapshot, manual overrides
// included. Used for list views without touching the engine.
func (s Snapshot) SubtotalCents() int {
	total := 0
	for _, item := range s.Items {
		price := item.PriceCents
		if item.ManualPriceCents != nil {
			price = *item.ManualPriceCents
		}
		total += price * item.Quantity
	}
	return total
}

// ItemInputs converts the snapshot's lines into engine add-item requests.
func (s Snapshot) ItemInputs() []checkout.ItemInput {
	inputs := make([]checkout.ItemInput, 0, len(s.Items))
	for _, item := range s.Items {
		inputs = append(inputs, checkout.ItemInput{
			SKU:      item.SKU,
			Seller:   item.Seller,
			Quantity: item.Quantity,
		})
	}
	return inputs
}
