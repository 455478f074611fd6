package savedcarts

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/procurecart/procurecart-backend/pkg/checkout"
	"github.com/procurecart/procurecart-backend/pkg/db/models"
	"github.com/procurecart/procurecart-backend/pkg/enums"
	pkgerrors "github.com/procurecart/procurecart-backend/pkg/errors"
	"github.com/procurecart/procurecart-backend/pkg/pagination"
)

type stubRepo struct {
	byLiveCart map[string]*models.SavedCart
	byID       map[uuid.UUID]*models.SavedCart
	children   map[uuid.UUID][]models.SavedCart

	created      []*models.SavedCart
	updated      []*models.SavedCart
	deleted      []uuid.UUID
	childAdjusts map[uuid.UUID]int
}

func newStubRepo() *stubRepo {
	return &stubRepo{
		byLiveCart:   map[string]*models.SavedCart{},
		byID:         map[uuid.UUID]*models.SavedCart{},
		children:     map[uuid.UUID][]models.SavedCart{},
		childAdjusts: map[uuid.UUID]int{},
	}
}

func (s *stubRepo) WithTx(tx *gorm.DB) SavedCartRepository { return s }

func (s *stubRepo) Create(_ context.Context, record *models.SavedCart) (*models.SavedCart, error) {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	s.created = append(s.created, record)
	s.byID[record.ID] = record
	s.byLiveCart[record.LiveCartID] = record
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

func (s *stubRepo) ListForOrg(_ context.Context, orgID, _ string, _ pagination.Params) ([]models.SavedCart, int64, error) {
	var rows []models.SavedCart
	for _, record := range s.byID {
		if record.OrgID == orgID {
			rows = append(rows, *record)
		}
	}
	return rows, int64(len(rows)), nil
}

func (s *stubRepo) ListChildren(_ context.Context, _ string, parentID uuid.UUID) ([]models.SavedCart, error) {
	return s.children[parentID], nil
}

func (s *stubRepo) Rename(_ context.Context, orgID string, id uuid.UUID, title string) error {
	record, ok := s.byID[id]
	if !ok || record.OrgID != orgID {
		return gorm.ErrRecordNotFound
	}
	record.Title = title
	return nil
}

func (s *stubRepo) UpdateLiveCartID(_ context.Context, id uuid.UUID, liveCartID string) error {
	if record, ok := s.byID[id]; ok {
		record.LiveCartID = liveCartID
	}
	return nil
}

func (s *stubRepo) AdjustChildCount(_ context.Context, id uuid.UUID, delta int) error {
	s.childAdjusts[id] += delta
	return nil
}

func (s *stubRepo) Delete(_ context.Context, id uuid.UUID) error {
	s.deleted = append(s.deleted, id)
	delete(s.byID, id)
	return nil
}

type stubTx struct{}

func (stubTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error { return fn(nil) }

type stubCartLoader struct {
	cart *checkout.Cart
	err  error
}

func (s stubCartLoader) GetCart(context.Context, string) (*checkout.Cart, error) {
	return s.cart, s.err
}

func testActor() Actor {
	return Actor{
		Email:        "buyer@acme.test",
		OrgID:        "org-1",
		CostCenterID: "cc-1",
		Role:         enums.RoleMember,
	}
}

func liveCartFixture(id string) *checkout.Cart {
	return &checkout.Cart{
		ID: id,
		Items: []checkout.Item{
			{UniqueID: "u1", SKU: "SKU-1", Seller: "1", Quantity: 2, PriceCents: 1000},
		},
	}
}

func TestSaveCreatesRecordWithDefaultTitle(t *testing.T) {
	repo := newStubRepo()
	svc, err := NewService(repo, stubTx{}, stubCartLoader{cart: liveCartFixture("lc-1")})
	if err != nil {
		t.Fatal(err)
	}

	record, err := svc.Save(context.Background(), testActor(), SaveInput{LiveCartID: "lc-1"})
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if len(repo.created) != 1 {
		t.Fatalf("created %d records, want 1", len(repo.created))
	}
	if !strings.HasPrefix(record.Title, "Cart ") {
		t.Errorf("default title = %q", record.Title)
	}
	if record.Status != enums.SavedCartStatusOpen {
		t.Errorf("status = %s, want open", record.Status)
	}
	if record.Snapshot == "" || !strings.Contains(record.Snapshot, "SKU-1") {
		t.Errorf("snapshot not captured: %q", record.Snapshot)
	}
}

func TestSaveUpsertsByLiveCartID(t *testing.T) {
	repo := newStubRepo()
	existing := &models.SavedCart{ID: uuid.New(), OrgID: "org-1", LiveCartID: "lc-1", Title: "First"}
	repo.byID[existing.ID] = existing
	repo.byLiveCart["lc-1"] = existing

	svc, _ := NewService(repo, stubTx{}, stubCartLoader{cart: liveCartFixture("lc-1")})

	record, err := svc.Save(context.Background(), testActor(), SaveInput{LiveCartID: "lc-1", Title: "Second"})
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if record.ID != existing.ID {
		t.Error("upsert created a new record instead of updating")
	}
	if record.Title != "Second" {
		t.Errorf("title = %q, want Second", record.Title)
	}
	if len(repo.created) != 0 || len(repo.updated) != 1 {
		t.Errorf("created=%d updated=%d", len(repo.created), len(repo.updated))
	}
}

func TestSaveRejectsForeignOrgUpsert(t *testing.T) {
	repo := newStubRepo()
	existing := &models.SavedCart{ID: uuid.New(), OrgID: "someone-else", LiveCartID: "lc-1"}
	repo.byLiveCart["lc-1"] = existing

	svc, _ := NewService(repo, stubTx{}, stubCartLoader{cart: liveCartFixture("lc-1")})

	_, err := svc.Save(context.Background(), testActor(), SaveInput{LiveCartID: "lc-1"})
	if coded := pkgerrors.As(err); coded == nil || coded.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden error, got %v", err)
	}
}

func TestSaveWithParentIncrementsChildCount(t *testing.T) {
	repo := newStubRepo()
	parent := &models.SavedCart{ID: uuid.New(), OrgID: "org-1", LiveCartID: "lc-parent"}
	repo.byID[parent.ID] = parent

	svc, _ := NewService(repo, stubTx{}, stubCartLoader{cart: liveCartFixture("lc-2")})

	record, err := svc.Save(context.Background(), testActor(), SaveInput{
		LiveCartID: "lc-2",
		ParentID:   &parent.ID,
	})
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if record.ParentID == nil || *record.ParentID != parent.ID {
		t.Error("parent id not stored")
	}
	if repo.childAdjusts[parent.ID] != 1 {
		t.Errorf("parent child count adjust = %d, want 1", repo.childAdjusts[parent.ID])
	}
}

func TestSaveWithMissingParentFails(t *testing.T) {
	repo := newStubRepo()
	svc, _ := NewService(repo, stubTx{}, stubCartLoader{cart: liveCartFixture("lc-3")})

	missing := uuid.New()
	_, err := svc.Save(context.Background(), testActor(), SaveInput{LiveCartID: "lc-3", ParentID: &missing})
	if coded := pkgerrors.As(err); coded == nil || coded.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not-found error, got %v", err)
	}
}

func TestDeleteCascadesToChildrenAndDecrementsParent(t *testing.T) {
	repo := newStubRepo()
	parentID := uuid.New()
	record := &models.SavedCart{ID: uuid.New(), OrgID: "org-1", LiveCartID: "lc-4", ParentID: &parentID}
	childA := models.SavedCart{ID: uuid.New(), OrgID: "org-1", LiveCartID: "lc-5"}
	childB := models.SavedCart{ID: uuid.New(), OrgID: "org-1", LiveCartID: "lc-6"}
	repo.byID[record.ID] = record
	repo.children[record.ID] = []models.SavedCart{childA, childB}

	svc, _ := NewService(repo, stubTx{}, stubCartLoader{cart: liveCartFixture("lc-4")})

	if err := svc.Delete(context.Background(), "org-1", record.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if len(repo.deleted) != 3 {
		t.Fatalf("deleted %d records, want 3", len(repo.deleted))
	}
	if repo.deleted[2] != record.ID {
		t.Error("children should be deleted before the parent record")
	}
	if repo.childAdjusts[parentID] != -1 {
		t.Errorf("parent adjust = %d, want -1", repo.childAdjusts[parentID])
	}
}

func TestRenameValidatesTitle(t *testing.T) {
	repo := newStubRepo()
	svc, _ := NewService(repo, stubTx{}, stubCartLoader{cart: liveCartFixture("lc-1")})

	err := svc.Rename(context.Background(), "org-1", uuid.New(), "")
	if coded := pkgerrors.As(err); coded == nil || coded.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}
