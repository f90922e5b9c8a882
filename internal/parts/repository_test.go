package parts

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/labstock/labstock-backend/pkg/db/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:parts_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.Category{}, &models.Part{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func seedPart(t *testing.T, db *gorm.DB, quantity int) models.Part {
	t.Helper()
	category := models.Category{ID: uuid.New(), Name: "cat-" + uuid.NewString(), CheckoutLimit: 10}
	if err := db.Create(&category).Error; err != nil {
		t.Fatalf("seed category: %v", err)
	}
	part := models.Part{
		ID:         uuid.New(),
		CategoryID: category.ID,
		Name:       "part-" + uuid.NewString(),
		Quantity:   quantity,
	}
	if err := db.Create(&part).Error; err != nil {
		t.Fatalf("seed part: %v", err)
	}
	return part
}

func TestReserveUnitDrainsToZero(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	part := seedPart(t, db, 2)

	for i := 0; i < 2; i++ {
		err := db.Transaction(func(tx *gorm.DB) error {
			ok, err := ReserveUnit(ctx, tx, part.ID)
			if err != nil {
				return err
			}
			if !ok {
				t.Fatalf("reservation %d should succeed", i)
			}
			return nil
		})
		if err != nil {
			t.Fatalf("reserve tx: %v", err)
		}
	}

	// Stock is exhausted; the guard in the WHERE clause refuses further decrements.
	err := db.Transaction(func(tx *gorm.DB) error {
		ok, err := ReserveUnit(ctx, tx, part.ID)
		if err != nil {
			return err
		}
		if ok {
			t.Fatal("expected reservation to fail at zero stock")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("reserve tx: %v", err)
	}

	var reloaded models.Part
	if err := db.First(&reloaded, "id = ?", part.ID).Error; err != nil {
		t.Fatalf("load part: %v", err)
	}
	if reloaded.Quantity != 0 {
		t.Fatalf("expected quantity 0, got %d", reloaded.Quantity)
	}
}

func TestReserveUnitUnknownPart(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ok, err := ReserveUnit(context.Background(), db, uuid.New())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatal("expected no rows affected for unknown part")
	}
}

func TestReserveUnitRequiresTx(t *testing.T) {
	t.Parallel()

	if _, err := ReserveUnit(context.Background(), nil, uuid.New()); err != ErrTxRequired {
		t.Fatalf("expected ErrTxRequired, got %v", err)
	}
}

func TestSetQuantityOverwritesAbsoluteValue(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	part := seedPart(t, db, 3)
	repo := NewRepository(db)

	if err := repo.SetQuantity(ctx, part.ID, 12); err != nil {
		t.Fatalf("set quantity: %v", err)
	}
	reloaded, err := repo.FindByID(ctx, part.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.Quantity != 12 {
		t.Fatalf("expected quantity 12, got %d", reloaded.Quantity)
	}
	if reloaded.Category == nil {
		t.Fatal("expected category preloaded")
	}
}

func TestListFiltersByCategory(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	partA := seedPart(t, db, 1)
	seedPart(t, db, 1)
	repo := NewRepository(db)

	rows, err := repo.List(ctx, &partA.CategoryID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 1 || rows[0].ID != partA.ID {
		t.Fatalf("expected only part %s, got %d rows", partA.ID, len(rows))
	}

	all, err := repo.List(ctx, nil)
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 parts, got %d", len(all))
	}
}
