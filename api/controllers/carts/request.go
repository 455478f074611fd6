package carts

import (
	"github.com/shopspring/decimal"

	"github.com/procurecart/procurecart-backend/internal/placement"
	"github.com/procurecart/procurecart-backend/pkg/checkout"
)

// AddressRequest is the wire shape shared by split and placement bodies.
type AddressRequest struct {
	AddressID  string `json:"addressId" validate:"required"`
	Receiver   string `json:"receiverName"`
	Street     string `json:"street"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
}

func (a AddressRequest) toAddress() checkout.Address {
	return checkout.Address{
		AddressID:  a.AddressID,
		Receiver:   a.Receiver,
		Street:     a.Street,
		City:       a.City,
		State:      a.State,
		PostalCode: a.PostalCode,
		Country:    a.Country,
	}
}

// AddAddressRequest introduces one more delivery address into the cart.
type AddAddressRequest struct {
	Address AddressRequest `json:"address" validate:"required"`
}

// ReplayRequest hydrates the target live cart from a saved cart.
type ReplayRequest struct {
	SavedCartID string `json:"savedCartId" validate:"required,uuid"`
}

// CostCenterRequest is one cost center to place an order for.
type CostCenterRequest struct {
	ID      string         `json:"id" validate:"required"`
	Address AddressRequest `json:"address" validate:"required"`
}

// PlaceOrderRequest drives one placement run across the listed cost centers.
type PlaceOrderRequest struct {
	CostCenters         []CostCenterRequest `json:"costCenters" validate:"required,min=1,dive"`
	PurchaseOrderNumber string              `json:"purchaseOrderNumber"`
	InvoiceAddress      *AddressRequest     `json:"invoiceAddress"`
}

func (p PlaceOrderRequest) toInput() placement.Input {
	input := placement.Input{
		PurchaseOrderNumber: p.PurchaseOrderNumber,
		CostCenters:         make([]placement.CostCenter, 0, len(p.CostCenters)),
	}
	for _, cc := range p.CostCenters {
		input.CostCenters = append(input.CostCenters, placement.CostCenter{
			ID:      cc.ID,
			Address: cc.Address.toAddress(),
		})
	}
	if p.InvoiceAddress != nil {
		addr := p.InvoiceAddress.toAddress()
		input.InvoiceAddress = &addr
	}
	return input
}

// PlacementResponse is one placed order in the API response.
type PlacementResponse struct {
	CostCenterID string          `json:"costCenterId"`
	OrderGroupID string          `json:"orderGroupId"`
	Value        decimal.Decimal `json:"value"`
}

func newPlacementList(results []placement.Result) []PlacementResponse {
	out := make([]PlacementResponse, 0, len(results))
	for _, res := range results {
		out = append(out, PlacementResponse{
			CostCenterID: res.CostCenterID,
			OrderGroupID: res.OrderGroupID,
			Value:        res.Value,
		})
	}
	return out
}
