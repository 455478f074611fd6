package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/procurecart/procurecart-backend/pkg/enums"
)

// CartComment is one append-only audit trail entry for a saved cart. Rows are
// never mutated or deleted. Status transitions write both the generated text
// and the structured from/to columns.
type CartComment struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SavedCartID uuid.UUID `gorm:"column:saved_cart_id;type:uuid;not null;index"`
	Email       string    `gorm:"column:email;not null"`
	Text        string    `gorm:"column:text;type:text;not null"`

	FromStatus *enums.SavedCartStatus `gorm:"column:from_status"`
	ToStatus   *enums.SavedCartStatus `gorm:"column:to_status"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
