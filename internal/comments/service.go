package comments

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/procurecart/procurecart-backend/pkg/db/models"
	"github.com/procurecart/procurecart-backend/pkg/enums"
	pkgerrors "github.com/procurecart/procurecart-backend/pkg/errors"
)

// TransitionText renders the machine-generated comment body for a status
// change. Readers parse the literal ">" token as the transition arrow, so
// the format is load-bearing: "Status: <old> > <new>. <extra>".
func TransitionText(from, to enums.SavedCartStatus, extra string) string {
	text := fmt.Sprintf("Status: %s > %s. ", from, to)
	if extra != "" {
		text += extra
	}
	return strings.TrimRight(text, " ")
}

// Service exposes the append-only comment log.
type Service interface {
	Add(ctx context.Context, savedCartID uuid.UUID, email, text string) (*models.CartComment, error)
	AddTransition(ctx context.Context, tx *gorm.DB, savedCartID uuid.UUID, email string, from, to enums.SavedCartStatus, extra string) (*models.CartComment, error)
	List(ctx context.Context, savedCartID uuid.UUID) ([]models.CartComment, error)
	Count(ctx context.Context, savedCartID uuid.UUID) (int64, error)
}

type service struct {
	repo CommentRepository
}

// NewService builds a comment service.
func NewService(repo CommentRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("comment repository required")
	}
	return &service{repo: repo}, nil
}

// Add appends a free-text user comment.
func (s *service) Add(ctx context.Context, savedCartID uuid.UUID, email, text string) (*models.CartComment, error) {
	if savedCartID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "saved cart id is required")
	}
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	if strings.TrimSpace(text) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "comment text is required")
	}

	comment, err := s.repo.Create(ctx, &models.CartComment{
		SavedCartID: savedCartID,
		Email:       email,
		Text:        text,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create comment")
	}
	return comment, nil
}

// AddTransition appends a machine-generated status-change entry, storing the
// endpoints both inside the text and as structured columns. It accepts the
// caller's transaction so the entry lands atomically with the status write.
func (s *service) AddTransition(ctx context.Context, tx *gorm.DB, savedCartID uuid.UUID, email string, from, to enums.SavedCartStatus, extra string) (*models.CartComment, error) {
	if savedCartID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "saved cart id is required")
	}

	fromCopy, toCopy := from, to
	comment, err := s.repo.WithTx(tx).Create(ctx, &models.CartComment{
		SavedCartID: savedCartID,
		Email:       email,
		Text:        TransitionText(from, to, extra),
		FromStatus:  &fromCopy,
		ToStatus:    &toCopy,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create transition comment")
	}
	return comment, nil
}

// List returns the saved cart's comments newest-first.
func (s *service) List(ctx context.Context, savedCartID uuid.UUID) ([]models.CartComment, error) {
	rows, err := s.repo.ListBySavedCart(ctx, savedCartID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list comments")
	}
	return rows, nil
}

// Count returns the saved cart's comment count.
func (s *service) Count(ctx context.Context, savedCartID uuid.UUID) (int64, error) {
	total, err := s.repo.CountBySavedCart(ctx, savedCartID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count comments")
	}
	return total, nil
}
