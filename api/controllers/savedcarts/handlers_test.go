package savedcarts

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/procurecart/procurecart-backend/api/middleware"
	savedcartsvc "github.com/procurecart/procurecart-backend/internal/savedcarts"
	"github.com/procurecart/procurecart-backend/pkg/db/models"
	"github.com/procurecart/procurecart-backend/pkg/enums"
	pkgerrors "github.com/procurecart/procurecart-backend/pkg/errors"
	"github.com/procurecart/procurecart-backend/pkg/pagination"
)

type stubSavedCartService struct {
	record  *models.SavedCart
	records []models.SavedCart
	err     error

	savedInput   savedcartsvc.SaveInput
	renamedTitle string
	deletedID    uuid.UUID
}

func (s *stubSavedCartService) Save(ctx context.Context, actor savedcartsvc.Actor, input savedcartsvc.SaveInput) (*models.SavedCart, error) {
	s.savedInput = input
	return s.record, s.err
}

func (s *stubSavedCartService) Get(ctx context.Context, orgID string, id uuid.UUID) (*models.SavedCart, error) {
	return s.record, s.err
}

func (s *stubSavedCartService) ListForOrg(ctx context.Context, orgID, costCenterID string, page pagination.Params) ([]models.SavedCart, int64, error) {
	return s.records, int64(len(s.records)), s.err
}

func (s *stubSavedCartService) ListChildren(ctx context.Context, orgID string, parentID uuid.UUID) ([]models.SavedCart, error) {
	return s.records, s.err
}

func (s *stubSavedCartService) Rename(ctx context.Context, orgID string, id uuid.UUID, title string) error {
	s.renamedTitle = title
	return s.err
}

func (s *stubSavedCartService) Delete(ctx context.Context, orgID string, id uuid.UUID) error {
	s.deletedID = id
	return s.err
}

func (s *stubSavedCartService) RelinkLiveCart(ctx context.Context, id uuid.UUID, liveCartID string) error {
	return s.err
}

type stubCommentService struct {
	comments []models.CartComment
	count    int64
	err      error
}

func (s *stubCommentService) Add(ctx context.Context, savedCartID uuid.UUID, email, text string) (*models.CartComment, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &models.CartComment{ID: uuid.New(), SavedCartID: savedCartID, Email: email, Text: text}, nil
}

func (s *stubCommentService) AddTransition(ctx context.Context, tx *gorm.DB, savedCartID uuid.UUID, email string, from, to enums.SavedCartStatus, extra string) (*models.CartComment, error) {
	return nil, s.err
}

func (s *stubCommentService) List(ctx context.Context, savedCartID uuid.UUID) ([]models.CartComment, error) {
	return s.comments, s.err
}

func (s *stubCommentService) Count(ctx context.Context, savedCartID uuid.UUID) (int64, error) {
	return s.count, s.err
}

func testActor() savedcartsvc.Actor {
	return savedcartsvc.Actor{
		Email:        "buyer@acme.test",
		OrgID:        "org-acme",
		CostCenterID: "cc-east",
		Role:         enums.RoleMember,
	}
}

func requestWithID(method, target, body string, id uuid.UUID) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req = req.WithContext(middleware.WithActor(req.Context(), testActor()))

	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", id.String())
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestSaveSuccess(t *testing.T) {
	record := &models.SavedCart{
		ID:         uuid.New(),
		OrgID:      "org-acme",
		Title:      "Q3 restock",
		LiveCartID: "cart-123",
		Status:     enums.SavedCartStatusOpen,
	}
	svc := &stubSavedCartService{record: record}
	handler := Save(svc, nil)

	body := `{"liveCartId":"cart-123","title":"Q3 restock"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/saved-carts", strings.NewReader(body))
	req = req.WithContext(middleware.WithActor(req.Context(), testActor()))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.savedInput.LiveCartID != "cart-123" {
		t.Fatalf("unexpected live cart id: %s", svc.savedInput.LiveCartID)
	}

	var envelope struct {
		Data SavedCartResponse `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.ID != record.ID {
		t.Fatalf("unexpected record id: %s", envelope.Data.ID)
	}
}

func TestSaveRejectsMissingLiveCartID(t *testing.T) {
	handler := Save(&stubSavedCartService{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/saved-carts", strings.NewReader(`{"title":"no cart"}`))
	req = req.WithContext(middleware.WithActor(req.Context(), testActor()))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestGetRejectsBadID(t *testing.T) {
	handler := Get(&stubSavedCartService{}, &stubCommentService{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/saved-carts/not-a-uuid", nil)
	req = req.WithContext(middleware.WithActor(req.Context(), testActor()))
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", "not-a-uuid")
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestGetIncludesCommentCount(t *testing.T) {
	record := &models.SavedCart{ID: uuid.New(), OrgID: "org-acme", Status: enums.SavedCartStatusPending}
	handler := Get(&stubSavedCartService{record: record}, &stubCommentService{count: 3}, nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, requestWithID(http.MethodGet, "/api/v1/saved-carts/x", "", record.ID))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}

	var envelope struct {
		Data SavedCartResponse `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.CommentCount == nil || *envelope.Data.CommentCount != 3 {
		t.Fatalf("unexpected comment count: %+v", envelope.Data.CommentCount)
	}
}

func TestGetNotFound(t *testing.T) {
	svc := &stubSavedCartService{err: pkgerrors.New(pkgerrors.CodeNotFound, "saved cart not found")}
	handler := Get(svc, &stubCommentService{}, nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, requestWithID(http.MethodGet, "/api/v1/saved-carts/x", "", uuid.New()))

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}

func TestListReturnsEnvelope(t *testing.T) {
	svc := &stubSavedCartService{records: []models.SavedCart{
		{ID: uuid.New(), OrgID: "org-acme", Title: "one", Status: enums.SavedCartStatusOpen},
		{ID: uuid.New(), OrgID: "org-acme", Title: "two", Status: enums.SavedCartStatusPending},
	}}
	handler := List(svc, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/saved-carts?page=1&pageSize=10", nil)
	req = req.WithContext(middleware.WithActor(req.Context(), testActor()))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}

	var envelope struct {
		Data ListResponse `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.Total != 2 || len(envelope.Data.Items) != 2 {
		t.Fatalf("unexpected list payload: %+v", envelope.Data)
	}
	if envelope.Data.PageSize != 10 {
		t.Fatalf("unexpected page size: %d", envelope.Data.PageSize)
	}
}

func TestRenameValidatesBody(t *testing.T) {
	svc := &stubSavedCartService{}
	handler := Rename(svc, nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, requestWithID(http.MethodPatch, "/api/v1/saved-carts/x", `{"title":""}`, uuid.New()))

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
	if svc.renamedTitle != "" {
		t.Fatalf("rename should not have been called")
	}
}

func TestDeleteSuccess(t *testing.T) {
	svc := &stubSavedCartService{}
	handler := Delete(svc, nil)

	id := uuid.New()
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, requestWithID(http.MethodDelete, "/api/v1/saved-carts/x", "", id))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.deletedID != id {
		t.Fatalf("expected delete of %s got %s", id, svc.deletedID)
	}
}
