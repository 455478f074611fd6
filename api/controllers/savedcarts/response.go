package savedcarts

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/procurecart/procurecart-backend/internal/snapshot"
	"github.com/procurecart/procurecart-backend/pkg/db/models"
	"github.com/procurecart/procurecart-backend/pkg/enums"
)

// SavedCartResponse is the API shape of a saved cart. SubtotalCents comes
// from the stored snapshot, not from the live cart.
type SavedCartResponse struct {
	ID                uuid.UUID             `json:"id"`
	Title             string                `json:"title"`
	OwnerEmail        string                `json:"ownerEmail"`
	OrgID             string                `json:"orgId"`
	CostCenterID      string                `json:"costCenterId"`
	LiveCartID        string                `json:"liveCartId"`
	ParentID          *uuid.UUID            `json:"parentId,omitempty"`
	ChildCount        int                   `json:"childCount"`
	Status            enums.SavedCartStatus `json:"status"`
	RequestedDiscount decimal.Decimal       `json:"requestedDiscount"`
	UpdateCounter     int                   `json:"updateCounter"`
	SubtotalCents     int                   `json:"subtotalCents"`
	CommentCount      *int64                `json:"commentCount,omitempty"`
	CreatedAt         time.Time             `json:"createdAt"`
	LastInteractionAt time.Time             `json:"lastInteractionAt"`
}

func newSavedCartResponse(record *models.SavedCart) SavedCartResponse {
	return SavedCartResponse{
		ID:                record.ID,
		Title:             record.Title,
		OwnerEmail:        record.OwnerEmail,
		OrgID:             record.OrgID,
		CostCenterID:      record.CostCenterID,
		LiveCartID:        record.LiveCartID,
		ParentID:          record.ParentID,
		ChildCount:        record.ChildCount,
		Status:            record.Status,
		RequestedDiscount: record.RequestedDiscount,
		UpdateCounter:     record.UpdateCounter,
		SubtotalCents:     snapshot.Restore(record.Snapshot).SubtotalCents(),
		CreatedAt:         record.CreatedAt,
		LastInteractionAt: record.LastInteractionAt,
	}
}

func newSavedCartList(records []models.SavedCart) []SavedCartResponse {
	out := make([]SavedCartResponse, 0, len(records))
	for i := range records {
		out = append(out, newSavedCartResponse(&records[i]))
	}
	return out
}

// ListResponse wraps a page of saved carts with the unpaginated total.
type ListResponse struct {
	Items    []SavedCartResponse `json:"items"`
	Total    int64               `json:"total"`
	Page     int                 `json:"page"`
	PageSize int                 `json:"pageSize"`
}

// CommentResponse is the API shape of a comment-log entry.
type CommentResponse struct {
	ID         uuid.UUID              `json:"id"`
	Email      string                 `json:"email"`
	Text       string                 `json:"text"`
	FromStatus *enums.SavedCartStatus `json:"fromStatus,omitempty"`
	ToStatus   *enums.SavedCartStatus `json:"toStatus,omitempty"`
	CreatedAt  time.Time              `json:"createdAt"`
}

func newCommentList(rows []models.CartComment) []CommentResponse {
	out := make([]CommentResponse, 0, len(rows))
	for _, row := range rows {
		out = append(out, CommentResponse{
			ID:         row.ID,
			Email:      row.Email,
			Text:       row.Text,
			FromStatus: row.FromStatus,
			ToStatus:   row.ToStatus,
			CreatedAt:  row.CreatedAt,
		})
	}
	return out
}
