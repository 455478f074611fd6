package checkout

// The checkout engine owns the single mutable cart per session. These types
// mirror the slice of its payloads this service reads and writes; pricing,
// inventory, and tax stay the engine's business.

// Cart is the live cart as returned by the engine.
type Cart struct {
	ID           string       `json:"id"`
	Items        []Item       `json:"items"`
	ShippingData ShippingData `json:"shippingData"`
	PaymentData  PaymentData  `json:"paymentData"`
	CustomData   []CustomApp  `json:"customData"`
}

// Item is one cart line. UniqueID is the engine-stable identity; the index is
// positional and shifts whenever items are split or removed.
type Item struct {
	UniqueID         string `json:"uniqueId"`
	SKU              string `json:"sku"`
	Seller           string `json:"seller"`
	Quantity         int    `json:"quantity"`
	PriceCents       int    `json:"price"`
	ManualPriceCents *int   `json:"manualPrice,omitempty"`
}

// Address is a delivery address / cost-center location.
type Address struct {
	AddressID  string `json:"addressId"`
	Receiver   string `json:"receiverName,omitempty"`
	Street     string `json:"street,omitempty"`
	City       string `json:"city,omitempty"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postalCode,omitempty"`
	Country    string `json:"country,omitempty"`
}

// Assignment maps one item index to a delivery address and the delivery
// option chosen for it. The engine requires the list in ascending item-index
// order.
type Assignment struct {
	ItemIndex              int    `json:"itemIndex"`
	AddressID              string `json:"addressId"`
	SelectedDeliveryOption string `json:"selectedDeliveryOption,omitempty"`
}

type ShippingData struct {
	SelectedAddresses []Address    `json:"selectedAddresses"`
	Assignments       []Assignment `json:"assignments"`
}

// PaymentData carries the cart's payment selection plus the installment
// options the engine computed for it.
type PaymentData struct {
	PaymentSystem       string              `json:"paymentSystem,omitempty"`
	Installments        int                 `json:"installments,omitempty"`
	ReferenceValueCents int                 `json:"referenceValue,omitempty"`
	InstallmentOptions  []InstallmentOption `json:"installmentOptions,omitempty"`
}

type InstallmentOption struct {
	PaymentSystem string        `json:"paymentSystem"`
	Installments  []Installment `json:"installments"`
}

type Installment struct {
	Count         int `json:"count"`
	ValueCents    int `json:"value"`
	TotalCents    int `json:"total"`
	InterestCents int `json:"interest,omitempty"`
}

// CustomApp is one app-scoped custom-data bucket on the cart.
type CustomApp struct {
	ID     string            `json:"id"`
	Fields map[string]string `json:"fields"`
}

const (
	// CustomAppID is the app bucket this service writes on live carts.
	CustomAppID = "procurecart"
	// SavedCartField records the id of the saved cart a live cart was
	// created from; it links engine events back to our records.
	SavedCartField = "savedCartId"
	// PurchaseOrderField carries the buyer's PO number into the order.
	PurchaseOrderField = "purchaseOrderNumber"
)

// CustomField returns the value stored for app/field, or "".
func (c *Cart) CustomField(app, field string) string {
	if c == nil {
		return ""
	}
	for _, bucket := range c.CustomData {
		if bucket.ID != app {
			continue
		}
		return bucket.Fields[field]
	}
	return ""
}

// SavedCartPointer returns the saved cart id recorded on the live cart, or "".
func (c *Cart) SavedCartPointer() string {
	return c.CustomField(CustomAppID, SavedCartField)
}

// TotalCents sums the effective line prices: quantity times the manual
// override when present, the engine price otherwise.
func (c *Cart) TotalCents() int {
	if c == nil {
		return 0
	}
	total := 0
	for _, item := range c.Items {
		price := item.PriceCents
		if item.ManualPriceCents != nil {
			price = *item.ManualPriceCents
		}
		total += price * item.Quantity
	}
	return total
}

// SelectedInstallment resolves the installment entry matching the cart's
// payment selection, or nil when financing was not chosen.
func (p PaymentData) SelectedInstallment() *Installment {
	if p.PaymentSystem == "" || p.Installments <= 1 {
		return nil
	}
	for _, option := range p.InstallmentOptions {
		if option.PaymentSystem != p.PaymentSystem {
			continue
		}
		for i := range option.Installments {
			if option.Installments[i].Count == p.Installments {
				return &option.Installments[i]
			}
		}
	}
	return nil
}

// ItemInput describes a line to add to a cart.
type ItemInput struct {
	SKU      string `json:"sku"`
	Seller   string `json:"seller"`
	Quantity int    `json:"quantity"`
}

// QuantityUpdate sets the quantity of the item at Index.
type QuantityUpdate struct {
	Index    int `json:"index"`
	Quantity int `json:"quantity"`
}

// SplitRequest divides the item at ItemIndex into two entries carrying
// FirstQuantity and SecondQuantity.
type SplitRequest struct {
	ItemIndex      int `json:"itemIndex"`
	FirstQuantity  int `json:"firstQuantity"`
	SecondQuantity int `json:"secondQuantity"`
}

// ShippingUpdate replaces the cart's selected addresses and per-item
// delivery assignment in one call.
type ShippingUpdate struct {
	SelectedAddresses []Address    `json:"selectedAddresses"`
	Assignments       []Assignment `json:"assignments"`
}

// PaymentSelection restores a payment choice on a cart.
type PaymentSelection struct {
	PaymentSystem       string `json:"paymentSystem"`
	Installments        int    `json:"installments"`
	ReferenceValueCents int    `json:"referenceValue"`
}

// MarketingData tags the cart before a transaction is opened.
type MarketingData struct {
	UtmCampaign   string `json:"utmCampaign,omitempty"`
	MarketingTags string `json:"marketingTags,omitempty"`
}

// TransactionInput opens a payment transaction against a cart.
type TransactionInput struct {
	ValueCents          int `json:"value"`
	ReferenceValueCents int `json:"referenceValue"`
	InterestValueCents  int `json:"interestValue"`
}

// Transaction is the engine's response to StartTransaction. A response with
// an error status carries the business failure in MerchantMessage.
type Transaction struct {
	ID              string `json:"id"`
	OrderGroupID    string `json:"orderGroupId"`
	Status          string `json:"status"`
	MerchantMessage string `json:"merchantMessage,omitempty"`
}

// ErrorMessage returns the business error carried by the transaction, or ""
// when the transaction opened cleanly.
func (t *Transaction) ErrorMessage() string {
	if t == nil {
		return ""
	}
	if t.Status == "error" || t.Status == "denied" {
		if t.MerchantMessage != "" {
			return t.MerchantMessage
		}
		return "transaction rejected by payment gateway"
	}
	return ""
}

// PaymentInstruction submits the payment for an open transaction.
type PaymentInstruction struct {
	TransactionID       string   `json:"transactionId"`
	PaymentSystem       string   `json:"paymentSystem"`
	Installments        int      `json:"installments"`
	ValueCents          int      `json:"value"`
	ReferenceValueCents int      `json:"referenceValue"`
	InterestValueCents  int      `json:"interestValue"`
	BillingAddress      *Address `json:"billingAddress,omitempty"`
}
