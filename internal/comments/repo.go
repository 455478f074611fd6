package comments

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/procurecart/procurecart-backend/pkg/db/models"
)

// CommentRepository defines the persistence surface for the comment log.
type CommentRepository interface {
	WithTx(tx *gorm.DB) CommentRepository
	Create(ctx context.Context, comment *models.CartComment) (*models.CartComment, error)
	ListBySavedCart(ctx context.Context, savedCartID uuid.UUID) ([]models.CartComment, error)
	CountBySavedCart(ctx context.Context, savedCartID uuid.UUID) (int64, error)
}

// Repository stores cart comments. The log is append-only; there are no
// update or delete operations on purpose.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a comment repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) CommentRepository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// Create appends a comment to the log.
func (r *Repository) Create(ctx context.Context, comment *models.CartComment) (*models.CartComment, error) {
	if comment.ID == uuid.Nil {
		comment.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(comment).Error; err != nil {
		return nil, err
	}
	return comment, nil
}

// ListBySavedCart returns a saved cart's comments newest-first.
func (r *Repository) ListBySavedCart(ctx context.Context, savedCartID uuid.UUID) ([]models.CartComment, error) {
	var rows []models.CartComment
	err := r.db.WithContext(ctx).
		Where("saved_cart_id = ?", savedCartID).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// CountBySavedCart returns the comment count for list views.
func (r *Repository) CountBySavedCart(ctx context.Context, savedCartID uuid.UUID) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&models.CartComment{}).
		Where("saved_cart_id = ?", savedCartID).
		Count(&total).Error
	return total, err
}
