package approval

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/procurecart/procurecart-backend/internal/savedcarts"
	"github.com/procurecart/procurecart-backend/pkg/db/models"
	"github.com/procurecart/procurecart-backend/pkg/enums"
	pkgerrors "github.com/procurecart/procurecart-backend/pkg/errors"
	"github.com/procurecart/procurecart-backend/pkg/pagination"
)

type stubRepo struct {
	byID       map[uuid.UUID]*models.SavedCart
	byLiveCart map[string]*models.SavedCart
	updated    []*models.SavedCart
}

func newStubRepo() *stubRepo {
	return &stubRepo{
		byID:       map[uuid.UUID]*models.SavedCart{},
		byLiveCart: map[string]*models.SavedCart{},
	}
}

func (s *stubRepo) WithTx(tx *gorm.DB) savedcarts.SavedCartRepository { return s }

func (s *stubRepo) Create(_ context.Context, record *models.SavedCart) (*models.SavedCart, error) {
	return record, nil
}

func (s *stubRepo) Update(_ context.Context, record *models.SavedCart) (*models.SavedCart, error) {
	s.updated = append(s.updated, record)
	return record, nil
}

func (s *stubRepo) FindByID(_ context.Context, orgID string, id uuid.UUID) (*models.SavedCart, error) {
	record, ok := s.byID[id]
	if !ok || record.OrgID != orgID {
		return nil, gorm.ErrRecordNotFound
	}
	return record, nil
}

func (s *stubRepo) FindByLiveCartID(_ context.Context, liveCartID string) (*models.SavedCart, error) {
	record, ok := s.byLiveCart[liveCartID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return record, nil
}

func (s *stubRepo) ListForOrg(context.Context, string, string, pagination.Params) ([]models.SavedCart, int64, error) {
	return nil, 0, nil
}

func (s *stubRepo) ListChildren(context.Context, string, uuid.UUID) ([]models.SavedCart, error) {
	return nil, nil
}

func (s *stubRepo) Rename(context.Context, string, uuid.UUID, string) error { return nil }

func (s *stubRepo) UpdateLiveCartID(context.Context, uuid.UUID, string) error { return nil }

func (s *stubRepo) AdjustChildCount(context.Context, uuid.UUID, int) error { return nil }

func (s *stubRepo) Delete(context.Context, uuid.UUID) error { return nil }

type stubTx struct{}

func (stubTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error { return fn(nil) }

type recordedTransition struct {
	savedCartID uuid.UUID
	email       string
	from, to    enums.SavedCartStatus
	extra       string
}

type stubTransitionLog struct {
	transitions []recordedTransition
}

func (s *stubTransitionLog) AddTransition(_ context.Context, _ *gorm.DB, savedCartID uuid.UUID, email string, from, to enums.SavedCartStatus, extra string) (*models.CartComment, error) {
	s.transitions = append(s.transitions, recordedTransition{savedCartID, email, from, to, extra})
	return &models.CartComment{SavedCartID: savedCartID}, nil
}

func memberActor() savedcarts.Actor {
	return savedcarts.Actor{Email: "buyer@acme.test", OrgID: "org-1", Role: enums.RoleMember}
}

func approverActor() savedcarts.Actor {
	return savedcarts.Actor{Email: "approver@acme.test", OrgID: "org-1", Role: enums.RoleApprover}
}

func seedRecord(repo *stubRepo, status enums.SavedCartStatus) *models.SavedCart {
	record := &models.SavedCart{
		ID:         uuid.New(),
		OrgID:      "org-1",
		LiveCartID: uuid.NewString(),
		Status:     status,
	}
	repo.byID[record.ID] = record
	repo.byLiveCart[record.LiveCartID] = record
	return record
}

func TestSetStatusSubmitForReview(t *testing.T) {
	repo := newStubRepo()
	log := &stubTransitionLog{}
	svc, err := NewService(repo, stubTx{}, log)
	if err != nil {
		t.Fatal(err)
	}
	record := seedRecord(repo, enums.SavedCartStatusOpen)

	discount := decimal.NewFromFloat(7.5)
	updated, err := svc.SetStatus(context.Background(), memberActor(), record.ID, SetStatusInput{
		Target:            enums.SavedCartStatusPending,
		RequestedDiscount: &discount,
	})
	if err != nil {
		t.Fatalf("SetStatus() error = %v", err)
	}
	if updated.Status != enums.SavedCartStatusPending {
		t.Errorf("status = %s, want pending", updated.Status)
	}
	if !updated.RequestedDiscount.Equal(discount) {
		t.Errorf("requested discount = %s, want 7.5", updated.RequestedDiscount)
	}
	if updated.UpdateCounter != 1 {
		t.Errorf("update counter = %d, want 1", updated.UpdateCounter)
	}
	if len(log.transitions) != 1 || log.transitions[0].from != enums.SavedCartStatusOpen {
		t.Fatalf("transitions = %+v", log.transitions)
	}
}

func TestSetStatusApproveNeedsApprover(t *testing.T) {
	repo := newStubRepo()
	svc, _ := NewService(repo, stubTx{}, &stubTransitionLog{})
	record := seedRecord(repo, enums.SavedCartStatusPending)

	_, err := svc.SetStatus(context.Background(), memberActor(), record.ID, SetStatusInput{
		Target: enums.SavedCartStatusApproved,
	})
	if coded := pkgerrors.As(err); coded == nil || coded.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}

	updated, err := svc.SetStatus(context.Background(), approverActor(), record.ID, SetStatusInput{
		Target: enums.SavedCartStatusApproved,
	})
	if err != nil {
		t.Fatalf("SetStatus() error = %v", err)
	}
	if updated.Status != enums.SavedCartStatusApproved {
		t.Errorf("status = %s, want approved", updated.Status)
	}
}

func TestSetStatusRejectsOutOfSetTransition(t *testing.T) {
	repo := newStubRepo()
	log := &stubTransitionLog{}
	svc, _ := NewService(repo, stubTx{}, log)
	record := seedRecord(repo, enums.SavedCartStatusApproved)

	_, err := svc.SetStatus(context.Background(), approverActor(), record.ID, SetStatusInput{
		Target: enums.SavedCartStatusDenied,
	})
	if coded := pkgerrors.As(err); coded == nil || coded.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
	if len(repo.updated) != 0 || len(log.transitions) != 0 {
		t.Error("rejected transition should write nothing")
	}
}

func TestSetStatusRejectsOrderPlacedTarget(t *testing.T) {
	repo := newStubRepo()
	svc, _ := NewService(repo, stubTx{}, &stubTransitionLog{})
	record := seedRecord(repo, enums.SavedCartStatusApproved)

	_, err := svc.SetStatus(context.Background(), approverActor(), record.ID, SetStatusInput{
		Target: enums.SavedCartStatusOrderPlaced,
	})
	if coded := pkgerrors.As(err); coded == nil || coded.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestMarkOrderPlaced(t *testing.T) {
	repo := newStubRepo()
	log := &stubTransitionLog{}
	svc, _ := NewService(repo, stubTx{}, log)
	record := seedRecord(repo, enums.SavedCartStatusApproved)

	updated, err := svc.MarkOrderPlaced(context.Background(), record.LiveCartID, "og-42")
	if err != nil {
		t.Fatalf("MarkOrderPlaced() error = %v", err)
	}
	if updated.Status != enums.SavedCartStatusOrderPlaced {
		t.Errorf("status = %s, want orderPlaced", updated.Status)
	}
	if updated.UpdateCounter != 1 {
		t.Errorf("update counter = %d, want 1", updated.UpdateCounter)
	}
	if len(log.transitions) != 1 {
		t.Fatalf("transitions = %+v", log.transitions)
	}
	if !strings.Contains(log.transitions[0].extra, "og-42") {
		t.Errorf("transition extra = %q, want order group id", log.transitions[0].extra)
	}
}

func TestMarkOrderPlacedIsIdempotent(t *testing.T) {
	repo := newStubRepo()
	log := &stubTransitionLog{}
	svc, _ := NewService(repo, stubTx{}, log)
	record := seedRecord(repo, enums.SavedCartStatusOrderPlaced)

	updated, err := svc.MarkOrderPlaced(context.Background(), record.LiveCartID, "og-42")
	if err != nil {
		t.Fatalf("MarkOrderPlaced() error = %v", err)
	}
	if updated.UpdateCounter != 0 || len(log.transitions) != 0 {
		t.Error("repeated notification should not re-transition")
	}
}

func TestMarkOrderPlacedUnknownCart(t *testing.T) {
	svc, _ := NewService(newStubRepo(), stubTx{}, &stubTransitionLog{})

	_, err := svc.MarkOrderPlaced(context.Background(), "missing", "og-1")
	if coded := pkgerrors.As(err); coded == nil || coded.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}
