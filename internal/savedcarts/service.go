package savedcarts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/procurecart/procurecart-backend/internal/snapshot"
	"github.com/procurecart/procurecart-backend/pkg/checkout"
	"github.com/procurecart/procurecart-backend/pkg/db"
	"github.com/procurecart/procurecart-backend/pkg/db/models"
	"github.com/procurecart/procurecart-backend/pkg/enums"
	pkgerrors "github.com/procurecart/procurecart-backend/pkg/errors"
	"github.com/procurecart/procurecart-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type cartLoader interface {
	GetCart(ctx context.Context, cartID string) (*checkout.Cart, error)
}

// Actor identifies the authenticated user driving an operation.
type Actor struct {
	Email        string
	OrgID        string
	CostCenterID string
	Role         enums.ActorRole
}

// SaveInput captures the payload for saving a live cart.
type SaveInput struct {
	LiveCartID        string
	Title             string
	ParentID          *uuid.UUID
	RequestedDiscount decimal.Decimal
}

// Service exposes saved-cart persistence operations.
type Service interface {
	Save(ctx context.Context, actor Actor, input SaveInput) (*models.SavedCart, error)
	Get(ctx context.Context, orgID string, id uuid.UUID) (*models.SavedCart, error)
	ListForOrg(ctx context.Context, orgID, costCenterID string, page pagination.Params) ([]models.SavedCart, int64, error)
	ListChildren(ctx context.Context, orgID string, parentID uuid.UUID) ([]models.SavedCart, error)
	Rename(ctx context.Context, orgID string, id uuid.UUID, title string) error
	Delete(ctx context.Context, orgID string, id uuid.UUID) error
	RelinkLiveCart(ctx context.Context, id uuid.UUID, liveCartID string) error
}

type service struct {
	repo  SavedCartRepository
	tx    txRunner
	carts cartLoader
}

// NewService builds a saved-cart service backed by the provided stack.
func NewService(repo SavedCartRepository, tx txRunner, carts cartLoader) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("saved-cart repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if carts == nil {
		return nil, fmt.Errorf("cart loader required")
	}
	return &service{repo: repo, tx: tx, carts: carts}, nil
}

// Save captures the live cart and upserts the record keyed by live-cart id.
// A second save of the same live cart refreshes the snapshot in place rather
// than producing a duplicate.
func (s *service) Save(ctx context.Context, actor Actor, input SaveInput) (*models.SavedCart, error) {
	if input.LiveCartID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "live cart id is required")
	}
	if actor.OrgID == "" || actor.Email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "actor identity is required")
	}

	cart, err := s.carts.GetCart(ctx, input.LiveCartID)
	if err != nil {
		return nil, err
	}
	blob, err := snapshot.Capture(cart)
	if err != nil {
		return nil, err
	}

	title := input.Title
	if title == "" {
		title = fmt.Sprintf("Cart %s", time.Now().Format("2006-01-02 15:04"))
	}

	existing, err := s.repo.FindByLiveCartID(ctx, input.LiveCartID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load saved cart")
	}

	if existing != nil {
		if existing.OrgID != actor.OrgID {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "saved cart belongs to another organization")
		}
		existing.Title = title
		existing.Snapshot = blob
		existing.RequestedDiscount = input.RequestedDiscount
		updated, err := s.repo.Update(ctx, existing)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update saved cart")
		}
		return updated, nil
	}

	record := &models.SavedCart{
		OrgID:             actor.OrgID,
		CostCenterID:      actor.CostCenterID,
		Title:             title,
		OwnerEmail:        actor.Email,
		CreatorRole:       actor.Role,
		LiveCartID:        input.LiveCartID,
		Snapshot:          blob,
		ParentID:          input.ParentID,
		Status:            enums.SavedCartStatusOpen,
		RequestedDiscount: input.RequestedDiscount,
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if input.ParentID != nil {
			if _, err := repo.FindByID(ctx, actor.OrgID, *input.ParentID); err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return pkgerrors.New(pkgerrors.CodeNotFound, "parent saved cart not found")
				}
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load parent saved cart")
			}
		}
		if _, err := repo.Create(ctx, record); err != nil {
			// Two sessions racing to save the same live cart.
			if db.IsUniqueViolation(err, "uq_saved_carts_live_cart") {
				return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "live cart already saved")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create saved cart")
		}
		if input.ParentID != nil {
			if err := repo.AdjustChildCount(ctx, *input.ParentID, 1); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "increment parent child count")
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

// Get loads one saved cart scoped to the organization.
func (s *service) Get(ctx context.Context, orgID string, id uuid.UUID) (*models.SavedCart, error) {
	record, err := s.repo.FindByID(ctx, orgID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "saved cart not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load saved cart")
	}
	return record, nil
}

// ListForOrg returns the organization's saved carts newest-first.
func (s *service) ListForOrg(ctx context.Context, orgID, costCenterID string, page pagination.Params) ([]models.SavedCart, int64, error) {
	if orgID == "" {
		return nil, 0, pkgerrors.New(pkgerrors.CodeValidation, "organization id is required")
	}
	rows, total, err := s.repo.ListForOrg(ctx, orgID, costCenterID, pagination.Normalize(page))
	if err != nil {
		return nil, 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list saved carts")
	}
	return rows, total, nil
}

// ListChildren returns the direct children of a saved cart.
func (s *service) ListChildren(ctx context.Context, orgID string, parentID uuid.UUID) ([]models.SavedCart, error) {
	rows, err := s.repo.ListChildren(ctx, orgID, parentID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list child carts")
	}
	return rows, nil
}

// Rename updates a saved cart's title.
func (s *service) Rename(ctx context.Context, orgID string, id uuid.UUID, title string) error {
	if title == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "title is required")
	}
	if err := s.repo.Rename(ctx, orgID, id, title); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "saved cart not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "rename saved cart")
	}
	return nil
}

// Delete removes a saved cart together with its direct children. Children do
// not nest further, so the cascade stops at depth one. The parent's child
// count comes down by one, never below zero.
func (s *service) Delete(ctx context.Context, orgID string, id uuid.UUID) error {
	record, err := s.Get(ctx, orgID, id)
	if err != nil {
		return err
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		children, err := repo.ListChildren(ctx, orgID, record.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list child carts")
		}
		for _, child := range children {
			if err := repo.Delete(ctx, child.ID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete child cart")
			}
		}
		if err := repo.Delete(ctx, record.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete saved cart")
		}
		if record.ParentID != nil {
			if err := repo.AdjustChildCount(ctx, *record.ParentID, -1); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decrement parent child count")
			}
		}
		return nil
	})
}

// RelinkLiveCart points a saved cart at a freshly hydrated live cart.
func (s *service) RelinkLiveCart(ctx context.Context, id uuid.UUID, liveCartID string) error {
	if liveCartID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "live cart id is required")
	}
	if err := s.repo.UpdateLiveCartID(ctx, id, liveCartID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "relink saved cart")
	}
	return nil
}
