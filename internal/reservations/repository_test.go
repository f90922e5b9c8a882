package reservations

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/labstock/labstock-backend/pkg/db/models"
	"github.com/labstock/labstock-backend/pkg/enums"
	"github.com/labstock/labstock-backend/pkg/pagination"
)

func seedEntry(t *testing.T, db *gorm.DB, partID, profileID uuid.UUID, status enums.ReservationStatus, createdAt time.Time) models.LedgerEntry {
	t.Helper()

	entry := models.LedgerEntry{
		ID:        uuid.New(),
		PartID:    &partID,
		ProfileID: &profileID,
		Status:    status,
		CreatedAt: createdAt,
	}
	require.NoError(t, db.Create(&entry).Error)
	return entry
}

func TestRepositoryInsertAssignsID(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	repo := NewRepository(db)
	profile := seedProfile(t, db, enums.ProfileRoleTeam, true)
	category := seedCategory(t, db, 10)
	part := seedPart(t, db, category.ID, 3)

	entry := models.LedgerEntry{
		PartID:    &part.ID,
		ProfileID: &profile.ID,
		Status:    enums.ReservationStatusReserved,
	}
	require.NoError(t, repo.Insert(context.Background(), &entry))
	assert.NotEqual(t, uuid.Nil, entry.ID)

	loaded, err := repo.FindByID(context.Background(), entry.ID)
	require.NoError(t, err)
	require.NotNil(t, loaded.Part)
	require.NotNil(t, loaded.Profile)
	assert.Equal(t, part.Name, loaded.Part.Name)
	assert.Equal(t, profile.Username, loaded.Profile.Username)
}

func TestRepositoryUpdateStatusOnlyTouchesStatusColumns(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	repo := NewRepository(db)
	profile := seedProfile(t, db, enums.ProfileRoleTeam, true)
	category := seedCategory(t, db, 10)
	part := seedPart(t, db, category.ID, 1)

	created := time.Now().Add(-time.Hour).UTC().Truncate(time.Second)
	entry := seedEntry(t, db, part.ID, profile.ID, enums.ReservationStatusReserved, created)

	remarks := "returned with scratches"
	require.NoError(t, repo.UpdateStatus(context.Background(), entry.ID, enums.ReservationStatusReserved, enums.ReservationStatusReturned, &remarks))

	loaded, err := repo.FindByID(context.Background(), entry.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.ReservationStatusReturned, loaded.Status)
	require.NotNil(t, loaded.AdminRemarks)
	assert.Equal(t, remarks, *loaded.AdminRemarks)
	assert.Equal(t, created, loaded.CreatedAt.UTC().Truncate(time.Second))
}

func TestRepositoryUpdateStatusUnknownEntry(t *testing.T) {
	t.Parallel()

	repo := NewRepository(newTestDB(t))
	err := repo.UpdateStatus(context.Background(), uuid.New(), enums.ReservationStatusReserved, enums.ReservationStatusLost, nil)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepositoryUpdateStatusRequiresExpectedPriorStatus(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	repo := NewRepository(db)
	profile := seedProfile(t, db, enums.ProfileRoleTeam, true)
	category := seedCategory(t, db, 10)
	part := seedPart(t, db, category.ID, 1)
	entry := seedEntry(t, db, part.ID, profile.ID, enums.ReservationStatusReturned, time.Now())

	// Another admin already finalized this entry; the stale update must not land.
	err := repo.UpdateStatus(context.Background(), entry.ID, enums.ReservationStatusReserved, enums.ReservationStatusLost, nil)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	loaded, err := repo.FindByID(context.Background(), entry.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.ReservationStatusReturned, loaded.Status)
}

func TestRepositoryListOrdersNewestFirstWithCursor(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	repo := NewRepository(db)
	profile := seedProfile(t, db, enums.ProfileRoleTeam, true)
	category := seedCategory(t, db, 10)
	part := seedPart(t, db, category.ID, 10)

	base := time.Now().Add(-time.Hour)
	var ids []uuid.UUID
	for i := 0; i < 5; i++ {
		entry := seedEntry(t, db, part.ID, profile.ID, enums.ReservationStatusReserved, base.Add(time.Duration(i)*time.Minute))
		ids = append(ids, entry.ID)
	}

	first, err := repo.List(context.Background(), ListFilters{}, pagination.Params{Limit: 2})
	require.NoError(t, err)
	require.Len(t, first, 3) // page size + 1 lookahead row
	assert.Equal(t, ids[4], first[0].ID)
	assert.Equal(t, ids[3], first[1].ID)

	cursor := pagination.EncodeCursor(pagination.Cursor{CreatedAt: first[1].CreatedAt, ID: first[1].ID})
	second, err := repo.List(context.Background(), ListFilters{}, pagination.Params{Limit: 2, Cursor: cursor})
	require.NoError(t, err)
	require.NotEmpty(t, second)
	assert.Equal(t, ids[2], second[0].ID)
}

func TestRepositoryListFilters(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	repo := NewRepository(db)
	alice := seedProfile(t, db, enums.ProfileRoleTeam, true)
	bob := seedProfile(t, db, enums.ProfileRoleTeam, true)
	category := seedCategory(t, db, 10)
	part := seedPart(t, db, category.ID, 10)

	now := time.Now()
	seedEntry(t, db, part.ID, alice.ID, enums.ReservationStatusReserved, now)
	seedEntry(t, db, part.ID, alice.ID, enums.ReservationStatusReturned, now.Add(time.Second))
	seedEntry(t, db, part.ID, bob.ID, enums.ReservationStatusReserved, now.Add(2*time.Second))

	status := enums.ReservationStatusReserved
	rows, err := repo.List(context.Background(), ListFilters{ProfileID: &alice.ID, Status: &status}, pagination.Params{Limit: 10})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, alice.ID, *rows[0].ProfileID)
}

func TestRepositoryCountByPartAndStatuses(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	repo := NewRepository(db)
	profile := seedProfile(t, db, enums.ProfileRoleTeam, true)
	category := seedCategory(t, db, 10)
	part := seedPart(t, db, category.ID, 10)

	now := time.Now()
	seedEntry(t, db, part.ID, profile.ID, enums.ReservationStatusReserved, now)
	seedEntry(t, db, part.ID, profile.ID, enums.ReservationStatusIssued, now)
	seedEntry(t, db, part.ID, profile.ID, enums.ReservationStatusReturned, now)

	count, err := repo.CountByPartAndStatuses(context.Background(), part.ID, []enums.ReservationStatus{
		enums.ReservationStatusReserved,
		enums.ReservationStatusIssued,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	_, err = repo.CountByPartAndStatuses(context.Background(), part.ID, nil)
	assert.Error(t, err)
}
