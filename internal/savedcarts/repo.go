package savedcarts

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/procurecart/procurecart-backend/pkg/db/models"
	"github.com/procurecart/procurecart-backend/pkg/pagination"
)

// Repository exposes persistence operations for saved carts.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a saved-cart repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) SavedCartRepository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// Create inserts a new SavedCart.
func (r *Repository) Create(ctx context.Context, record *models.SavedCart) (*models.SavedCart, error) {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		return nil, err
	}
	return record, nil
}

// Update saves the provided saved cart.
func (r *Repository) Update(ctx context.Context, record *models.SavedCart) (*models.SavedCart, error) {
	if err := r.db.WithContext(ctx).Save(record).Error; err != nil {
		return nil, err
	}
	return record, nil
}

// FindByID loads a saved cart restricted to the provided organization.
func (r *Repository) FindByID(ctx context.Context, orgID string, id uuid.UUID) (*models.SavedCart, error) {
	var record models.SavedCart
	err := r.db.WithContext(ctx).
		Where("id = ? AND org_id = ?", id, orgID).
		First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// FindByLiveCartID loads the saved cart currently linked to a live cart.
// Used by event consumers, which have no org scope of their own.
func (r *Repository) FindByLiveCartID(ctx context.Context, liveCartID string) (*models.SavedCart, error) {
	var record models.SavedCart
	err := r.db.WithContext(ctx).
		Where("live_cart_id = ?", liveCartID).
		First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// ListForOrg returns the organization's saved carts newest-first, optionally
// narrowed to one cost center, along with the unpaginated total.
func (r *Repository) ListForOrg(ctx context.Context, orgID, costCenterID string, page pagination.Params) ([]models.SavedCart, int64, error) {
	query := r.db.WithContext(ctx).
		Model(&models.SavedCart{}).
		Where("org_id = ?", orgID)
	if costCenterID != "" {
		query = query.Where("cost_center_id = ?", costCenterID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.SavedCart
	err := query.
		Order("created_at DESC").
		Offset(page.Offset()).
		Limit(page.Limit()).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// ListChildren returns the direct children of a saved cart, newest-first.
func (r *Repository) ListChildren(ctx context.Context, orgID string, parentID uuid.UUID) ([]models.SavedCart, error) {
	var rows []models.SavedCart
	err := r.db.WithContext(ctx).
		Where("org_id = ? AND parent_id = ?", orgID, parentID).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// Rename updates the title of a saved cart owned by the organization.
func (r *Repository) Rename(ctx context.Context, orgID string, id uuid.UUID, title string) error {
	result := r.db.WithContext(ctx).
		Model(&models.SavedCart{}).
		Where("id = ? AND org_id = ?", id, orgID).
		Update("title", title)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// UpdateLiveCartID relinks a saved cart to a new checkout-engine cart.
func (r *Repository) UpdateLiveCartID(ctx context.Context, id uuid.UUID, liveCartID string) error {
	return r.db.WithContext(ctx).
		Model(&models.SavedCart{}).
		Where("id = ?", id).
		Update("live_cart_id", liveCartID).Error
}

// AdjustChildCount shifts child_count by delta without letting it go
// negative. The CASE keeps the expression portable across postgres and the
// sqlite test driver.
func (r *Repository) AdjustChildCount(ctx context.Context, id uuid.UUID, delta int) error {
	return r.db.WithContext(ctx).
		Model(&models.SavedCart{}).
		Where("id = ?", id).
		Update("child_count", gorm.Expr(
			"CASE WHEN child_count + ? < 0 THEN 0 ELSE child_count + ? END", delta, delta)).
		Error
}

// Delete removes a saved cart. Comments go with it via the cascade.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&models.SavedCart{}).Error
}
