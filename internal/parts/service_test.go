package parts

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/labstock/labstock-backend/pkg/db/models"
	pkgerrors "github.com/labstock/labstock-backend/pkg/errors"
)

type testCategoryLookup struct {
	db *gorm.DB
}

func (l testCategoryLookup) FindByID(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	var category models.Category
	if err := l.db.WithContext(ctx).First(&category, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

func newTestService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	svc, err := NewService(NewRepository(db), testCategoryLookup{db: db})
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	return svc, db
}

func seedCategory(t *testing.T, db *gorm.DB) models.Category {
	t.Helper()
	category := models.Category{ID: uuid.New(), Name: "cat-" + uuid.NewString(), CheckoutLimit: 10}
	if err := db.Create(&category).Error; err != nil {
		t.Fatalf("seed category: %v", err)
	}
	return category
}

func TestCreateTrimsNameAndNormalizesBarcode(t *testing.T) {
	t.Parallel()

	svc, db := newTestService(t)
	category := seedCategory(t, db)
	barcode := "  LS-0042  "

	part, err := svc.Create(context.Background(), CreatePartInput{
		CategoryID: category.ID,
		Name:       "  Oscilloscope probe  ",
		Quantity:   4,
		Barcode:    &barcode,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if part.Name != "Oscilloscope probe" {
		t.Fatalf("expected trimmed name, got %q", part.Name)
	}
	if part.Barcode == nil || *part.Barcode != "LS-0042" {
		t.Fatalf("expected normalized barcode, got %v", part.Barcode)
	}
	if part.Category == nil || part.Category.ID != category.ID {
		t.Fatal("expected category preloaded on create result")
	}
}

func TestCreateRejectsMissingCategory(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	_, err := svc.Create(context.Background(), CreatePartInput{
		CategoryID: uuid.New(),
		Name:       "Probe",
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCreateRejectsNegativeQuantity(t *testing.T) {
	t.Parallel()

	svc, db := newTestService(t)
	category := seedCategory(t, db)
	_, err := svc.Create(context.Background(), CreatePartInput{
		CategoryID: category.ID,
		Name:       "Probe",
		Quantity:   -1,
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCreateRejectsDuplicateBarcode(t *testing.T) {
	t.Parallel()

	svc, db := newTestService(t)
	category := seedCategory(t, db)
	barcode := "LS-0100"

	if _, err := svc.Create(context.Background(), CreatePartInput{
		CategoryID: category.ID,
		Name:       "First",
		Barcode:    &barcode,
	}); err != nil {
		t.Fatalf("create first: %v", err)
	}
	_, err := svc.Create(context.Background(), CreatePartInput{
		CategoryID: category.ID,
		Name:       "Second",
		Barcode:    &barcode,
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict error, got %v", err)
	}
}

func TestUpdateIgnoresQuantity(t *testing.T) {
	t.Parallel()

	svc, db := newTestService(t)
	part := seedPart(t, db, 7)
	name := "Renamed probe"

	updated, err := svc.Update(context.Background(), part.ID, UpdatePartInput{Name: &name})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Name != name {
		t.Fatalf("expected renamed part, got %q", updated.Name)
	}
	// Stock changes go through SetQuantity only.
	if updated.Quantity != 7 {
		t.Fatalf("expected quantity untouched, got %d", updated.Quantity)
	}
}

func TestSetQuantityRejectsNegative(t *testing.T) {
	t.Parallel()

	svc, db := newTestService(t)
	part := seedPart(t, db, 3)
	_, err := svc.SetQuantity(context.Background(), part.ID, -2)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestGetByIDReportsMissingPart(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	missing := uuid.New()
	_, err := svc.GetByID(context.Background(), missing)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found error, got %v", err)
	}
	details, ok := typed.Details().(map[string]any)
	if !ok || details["part_id"] != missing {
		t.Fatalf("expected part_id detail, got %v", typed.Details())
	}
}
