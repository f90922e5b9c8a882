package profiles

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/labstock/labstock-backend/pkg/db/models"
	"github.com/labstock/labstock-backend/pkg/enums"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:profiles_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.Profile{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func TestCreatePersistsInactiveFlag(t *testing.T) {
	t.Parallel()

	repo := NewRepository(newTestDB(t))
	ctx := context.Background()

	created, err := repo.Create(ctx, CreateProfileDTO{
		ExternalID:   "ext-" + uuid.NewString(),
		Username:     "user-" + uuid.NewString(),
		PasswordHash: "x",
		Role:         enums.ProfileRoleTeam,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// The false side of the flag must survive the insert too.
	if err := repo.SetActive(ctx, created.ID, false); err != nil {
		t.Fatalf("set active: %v", err)
	}
	reloaded, err := repo.FindByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.IsActive {
		t.Fatal("expected profile deactivated")
	}

	inactive := models.Profile{
		ID:           uuid.New(),
		ExternalID:   "ext-" + uuid.NewString(),
		Username:     "user-" + uuid.NewString(),
		PasswordHash: "x",
		Role:         enums.ProfileRoleTeam,
		IsActive:     false,
	}
	if err := repo.db.WithContext(ctx).Create(&inactive).Error; err != nil {
		t.Fatalf("insert inactive: %v", err)
	}
	roundTrip, err := repo.FindByID(ctx, inactive.ID)
	if err != nil {
		t.Fatalf("reload inactive: %v", err)
	}
	if roundTrip.IsActive {
		t.Fatal("expected inactive profile to persist is_active = false")
	}
}
