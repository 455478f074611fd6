package savedcarts

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	savedcartsvc "github.com/procurecart/procurecart-backend/internal/savedcarts"
	pkgerrors "github.com/procurecart/procurecart-backend/pkg/errors"
)

// SaveCartRequest captures or refreshes a saved cart from the live cart.
type SaveCartRequest struct {
	LiveCartID        string           `json:"liveCartId" validate:"required"`
	Title             string           `json:"title" validate:"omitempty,max=200"`
	ParentID          *string          `json:"parentId" validate:"omitempty,uuid"`
	RequestedDiscount *decimal.Decimal `json:"requestedDiscount"`
}

func (r SaveCartRequest) toInput() (savedcartsvc.SaveInput, error) {
	input := savedcartsvc.SaveInput{
		LiveCartID: r.LiveCartID,
		Title:      r.Title,
	}
	if r.ParentID != nil {
		parentID, err := uuid.Parse(*r.ParentID)
		if err != nil {
			return input, pkgerrors.New(pkgerrors.CodeValidation, "parentId must be a valid uuid")
		}
		input.ParentID = &parentID
	}
	if r.RequestedDiscount != nil {
		input.RequestedDiscount = *r.RequestedDiscount
	}
	return input, nil
}

// RenameRequest updates the title.
type RenameRequest struct {
	Title string `json:"title" validate:"required,max=200"`
}

// SetStatusRequest drives a user transition of the approval state machine.
type SetStatusRequest struct {
	Status            string           `json:"status" validate:"required,oneof=open pending approved denied"`
	RequestedDiscount *decimal.Decimal `json:"requestedDiscount"`
}

// CommentRequest appends a free-text comment.
type CommentRequest struct {
	Text string `json:"text" validate:"required,max=4000"`
}
