package savedcarts

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/procurecart/procurecart-backend/pkg/db/models"
	"github.com/procurecart/procurecart-backend/pkg/pagination"
)

// SavedCartRepository defines the persistence surface required by the
// saved-cart service and the engines that read snapshots.
type SavedCartRepository interface {
	WithTx(tx *gorm.DB) SavedCartRepository
	Create(ctx context.Context, record *models.SavedCart) (*models.SavedCart, error)
	Update(ctx context.Context, record *models.SavedCart) (*models.SavedCart, error)
	FindByID(ctx context.Context, orgID string, id uuid.UUID) (*models.SavedCart, error)
	FindByLiveCartID(ctx context.Context, liveCartID string) (*models.SavedCart, error)
	ListForOrg(ctx context.Context, orgID, costCenterID string, page pagination.Params) ([]models.SavedCart, int64, error)
	ListChildren(ctx context.Context, orgID string, parentID uuid.UUID) ([]models.SavedCart, error)
	Rename(ctx context.Context, orgID string, id uuid.UUID, title string) error
	UpdateLiveCartID(ctx context.Context, id uuid.UUID, liveCartID string) error
	AdjustChildCount(ctx context.Context, id uuid.UUID, delta int) error
	Delete(ctx context.Context, id uuid.UUID) error
}
