package approval

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/procurecart/procurecart-backend/internal/comments"
	"github.com/procurecart/procurecart-backend/internal/savedcarts"
	"github.com/procurecart/procurecart-backend/pkg/db/models"
	"github.com/procurecart/procurecart-backend/pkg/enums"
	pkgerrors "github.com/procurecart/procurecart-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type transitionLogger interface {
	AddTransition(ctx context.Context, tx *gorm.DB, savedCartID uuid.UUID, email string, from, to enums.SavedCartStatus, extra string) (*models.CartComment, error)
}

// SetStatusInput carries a user-requested status change.
type SetStatusInput struct {
	Target            enums.SavedCartStatus
	RequestedDiscount *decimal.Decimal
}

// Service drives the saved-cart approval lifecycle.
type Service interface {
	SetStatus(ctx context.Context, actor savedcarts.Actor, id uuid.UUID, input SetStatusInput) (*models.SavedCart, error)
	MarkOrderPlaced(ctx context.Context, liveCartID, orderGroupID string) (*models.SavedCart, error)
}

type service struct {
	repo savedcarts.SavedCartRepository
	tx   txRunner
	log  transitionLogger
}

// NewService builds the approval service.
func NewService(repo savedcarts.SavedCartRepository, tx txRunner, log transitionLogger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("saved-cart repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if log == nil {
		return nil, fmt.Errorf("transition logger required")
	}
	return &service{repo: repo, tx: tx, log: log}, nil
}

// SetStatus applies a user-driven transition. Out-of-set moves are rejected
// before anything is written; the orderPlaced terminal state is never
// reachable through this path.
func (s *service) SetStatus(ctx context.Context, actor savedcarts.Actor, id uuid.UUID, input SetStatusInput) (*models.SavedCart, error) {
	target := input.Target
	if !target.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown status")
	}
	if target == enums.SavedCartStatusOrderPlaced {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "orderPlaced is set by the order-created event, not by users")
	}

	record, err := s.repo.FindByID(ctx, actor.OrgID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "saved cart not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load saved cart")
	}

	from := record.Status
	if !CanTransition(from, target) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("cannot move a %s cart to %s", from, target)).
			WithDetails(map[string]any{"from": from, "to": target})
	}
	if RequiresApprover(from, target) && actor.Role != enums.RoleApprover {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only an approver may review discount requests")
	}

	record.Status = target
	record.UpdateCounter++
	if from == enums.SavedCartStatusOpen && target == enums.SavedCartStatusPending && input.RequestedDiscount != nil {
		record.RequestedDiscount = *input.RequestedDiscount
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if _, err := s.repo.WithTx(tx).Update(ctx, record); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update saved cart status")
		}
		if _, err := s.log.AddTransition(ctx, tx, record.ID, actor.Email, from, target, ""); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

// MarkOrderPlaced moves the saved cart linked to a live cart into the
// terminal state. Any prior status is accepted; the trigger is the external
// order-created notification, not a user action.
func (s *service) MarkOrderPlaced(ctx context.Context, liveCartID, orderGroupID string) (*models.SavedCart, error) {
	if liveCartID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "live cart id is required")
	}

	record, err := s.repo.FindByLiveCartID(ctx, liveCartID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no saved cart linked to live cart")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load saved cart")
	}
	if record.Status == enums.SavedCartStatusOrderPlaced {
		// Duplicate delivery of the same notification.
		return record, nil
	}

	from := record.Status
	record.Status = enums.SavedCartStatusOrderPlaced
	record.UpdateCounter++

	extra := ""
	if orderGroupID != "" {
		extra = fmt.Sprintf("Order group: %s", orderGroupID)
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if _, err := s.repo.WithTx(tx).Update(ctx, record); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mark order placed")
		}
		if _, err := s.log.AddTransition(ctx, tx, record.ID, systemAuthor, from, enums.SavedCartStatusOrderPlaced, extra); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

// systemAuthor signs machine-generated transition comments that no user
// initiated.
const systemAuthor = "system@procurecart"

var _ transitionLogger = (comments.Service)(nil)
