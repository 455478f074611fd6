package savedcarts

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/procurecart/procurecart-backend/pkg/db/models"
	"github.com/procurecart/procurecart-backend/pkg/enums"
	"github.com/procurecart/procurecart-backend/pkg/pagination"
)

func setupSavedCartsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	savedCarts := `
CREATE TABLE IF NOT EXISTS saved_carts (
  id TEXT PRIMARY KEY,
  org_id TEXT NOT NULL,
  cost_center_id TEXT NOT NULL,
  title TEXT NOT NULL,
  owner_email TEXT NOT NULL,
  creator_role TEXT NOT NULL DEFAULT 'member',
  live_cart_id TEXT NOT NULL UNIQUE,
  snapshot TEXT NOT NULL,
  parent_id TEXT,
  child_count INTEGER NOT NULL DEFAULT 0,
  status TEXT NOT NULL DEFAULT 'open',
  requested_discount NUMERIC NOT NULL DEFAULT 0,
  update_counter INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  last_interaction_at DATETIME
);`
	cartComments := `
CREATE TABLE IF NOT EXISTS cart_comments (
  id TEXT PRIMARY KEY,
  saved_cart_id TEXT NOT NULL,
  email TEXT NOT NULL,
  text TEXT NOT NULL,
  from_status TEXT,
  to_status TEXT,
  created_at DATETIME
);`
	require.NoError(t, db.Exec(savedCarts).Error)
	require.NoError(t, db.Exec(cartComments).Error)
	return db
}

func seedSavedCart(t *testing.T, repo *Repository, orgID string, mutate func(*models.SavedCart)) *models.SavedCart {
	t.Helper()
	record := &models.SavedCart{
		ID:           uuid.New(),
		OrgID:        orgID,
		CostCenterID: "cc-1",
		Title:        "Weekly order",
		OwnerEmail:   "buyer@acme.test",
		CreatorRole:  enums.RoleMember,
		LiveCartID:   uuid.NewString(),
		Snapshot:     `{"items":[]}`,
		Status:       enums.SavedCartStatusOpen,
	}
	if mutate != nil {
		mutate(record)
	}
	created, err := repo.Create(context.Background(), record)
	require.NoError(t, err)
	return created
}

func TestRepositoryFindByLiveCartID(t *testing.T) {
	repo := NewRepository(setupSavedCartsTestDB(t))
	orgID := uuid.NewString()

	record := seedSavedCart(t, repo, orgID, nil)

	found, err := repo.FindByLiveCartID(context.Background(), record.LiveCartID)
	require.NoError(t, err)
	assert.Equal(t, record.ID, found.ID)

	_, err = repo.FindByLiveCartID(context.Background(), "missing")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepositoryListForOrgScopesAndPaginates(t *testing.T) {
	repo := NewRepository(setupSavedCartsTestDB(t))
	orgID := uuid.NewString()

	for i := 0; i < 3; i++ {
		seedSavedCart(t, repo, orgID, nil)
	}
	seedSavedCart(t, repo, uuid.NewString(), nil) // other org

	rows, total, err := repo.ListForOrg(context.Background(), orgID, "", pagination.Normalize(pagination.Params{Page: 1, PageSize: 2}))
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Len(t, rows, 2)

	rows, total, err = repo.ListForOrg(context.Background(), orgID, "cc-other", pagination.Normalize(pagination.Params{}))
	require.NoError(t, err)
	assert.EqualValues(t, 0, total)
	assert.Empty(t, rows)
}

func TestRepositoryRenameRequiresOrgMatch(t *testing.T) {
	repo := NewRepository(setupSavedCartsTestDB(t))
	orgID := uuid.NewString()
	record := seedSavedCart(t, repo, orgID, nil)

	require.NoError(t, repo.Rename(context.Background(), orgID, record.ID, "Renamed"))

	found, err := repo.FindByID(context.Background(), orgID, record.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", found.Title)

	err = repo.Rename(context.Background(), "other-org", record.ID, "Nope")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepositoryAdjustChildCountClampsAtZero(t *testing.T) {
	repo := NewRepository(setupSavedCartsTestDB(t))
	orgID := uuid.NewString()
	record := seedSavedCart(t, repo, orgID, nil)

	require.NoError(t, repo.AdjustChildCount(context.Background(), record.ID, 2))
	found, err := repo.FindByID(context.Background(), orgID, record.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, found.ChildCount)

	require.NoError(t, repo.AdjustChildCount(context.Background(), record.ID, -5))
	found, err = repo.FindByID(context.Background(), orgID, record.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, found.ChildCount)
}

func TestRepositoryListChildren(t *testing.T) {
	repo := NewRepository(setupSavedCartsTestDB(t))
	orgID := uuid.NewString()
	parent := seedSavedCart(t, repo, orgID, nil)

	childA := seedSavedCart(t, repo, orgID, func(r *models.SavedCart) { r.ParentID = &parent.ID })
	childB := seedSavedCart(t, repo, orgID, func(r *models.SavedCart) { r.ParentID = &parent.ID })

	children, err := repo.ListChildren(context.Background(), orgID, parent.ID)
	require.NoError(t, err)
	require.Len(t, children, 2)

	ids := []uuid.UUID{children[0].ID, children[1].ID}
	assert.Contains(t, ids, childA.ID)
	assert.Contains(t, ids, childB.ID)
}

func TestRepositoryDelete(t *testing.T) {
	repo := NewRepository(setupSavedCartsTestDB(t))
	orgID := uuid.NewString()
	record := seedSavedCart(t, repo, orgID, nil)

	require.NoError(t, repo.Delete(context.Background(), record.ID))

	_, err := repo.FindByID(context.Background(), orgID, record.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
