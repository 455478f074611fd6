package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/procurecart/procurecart-backend/pkg/enums"
)

// SavedCart is a persisted, named capture of a live cart. The record is
// immutable by default; only the title, the status, and the live-cart link
// change after creation.
type SavedCart struct {
	ID           uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrgID        string          `gorm:"column:org_id;not null;index:idx_saved_carts_org"`
	CostCenterID string          `gorm:"column:cost_center_id;not null;index:idx_saved_carts_org"`
	Title        string          `gorm:"column:title;not null"`
	OwnerEmail   string          `gorm:"column:owner_email;not null"`
	CreatorRole  enums.ActorRole `gorm:"column:creator_role;not null;default:'member'"`

	// LiveCartID is the checkout-engine cart the snapshot was captured from.
	// It doubles as the upsert key: one record per live cart.
	LiveCartID string `gorm:"column:live_cart_id;not null;uniqueIndex:uq_saved_carts_live_cart"`

	// Snapshot is the opaque codec blob; readers go through internal/snapshot.
	Snapshot string `gorm:"column:snapshot;type:text;not null"`

	ParentID   *uuid.UUID `gorm:"column:parent_id;type:uuid;index"`
	ChildCount int        `gorm:"column:child_count;not null;default:0"`

	Status            enums.SavedCartStatus `gorm:"column:status;not null;default:'open'"`
	RequestedDiscount decimal.Decimal       `gorm:"column:requested_discount;type:numeric(6,2);not null;default:0"`
	// UpdateCounter counts status changes after creation.
	UpdateCounter int `gorm:"column:update_counter;not null;default:0"`

	Comments []CartComment `gorm:"foreignKey:SavedCartID;constraint:OnDelete:CASCADE"`

	CreatedAt         time.Time `gorm:"column:created_at;autoCreateTime"`
	LastInteractionAt time.Time `gorm:"column:last_interaction_at;autoUpdateTime"`
}
