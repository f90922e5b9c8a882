package parts

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/labstock/labstock-backend/pkg/db/models"
)

// Repository exposes part persistence operations, including the conditional
// stock decrement the reservation ledger depends on.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a parts repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction handle.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// Create inserts a new part and returns the persisted model.
func (r *Repository) Create(ctx context.Context, part *models.Part) (*models.Part, error) {
	if part.ID == uuid.Nil {
		part.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(part).Error; err != nil {
		return nil, err
	}
	return part, nil
}

// FindByID loads a part with its category preloaded.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Part, error) {
	var part models.Part
	if err := r.db.WithContext(ctx).Preload("Category").First(&part, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &part, nil
}

// FindByIDs loads the parts matching the provided UUIDs with categories preloaded.
func (r *Repository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Part, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []models.Part
	if err := r.db.WithContext(ctx).Preload("Category").Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// List returns parts ordered by name, optionally filtered to one category.
func (r *Repository) List(ctx context.Context, categoryID *uuid.UUID) ([]models.Part, error) {
	query := r.db.WithContext(ctx).Preload("Category").Order("name ASC")
	if categoryID != nil {
		query = query.Where("category_id = ?", *categoryID)
	}
	var rows []models.Part
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Update overwrites the part's mutable fields.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Part{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// SetQuantity overwrites available stock to an absolute value. Admin stock
// adjustments go through here; checkout never does.
func (r *Repository) SetQuantity(ctx context.Context, id uuid.UUID, quantity int) error {
	return r.db.WithContext(ctx).
		Model(&models.Part{}).
		Where("id = ?", id).
		UpdateColumn("quantity", quantity).Error
}

// Delete removes the part row. Ledger entries referencing it keep their rows
// with the part reference nulled.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.Part{}, "id = ?", id).Error
}

// ErrTxRequired is returned when a transactional operation is called without a tx.
var ErrTxRequired = errors.New("transaction required")

// ReserveUnit decrements the part's quantity by one, but only while stock
// remains. The guard lives in the WHERE clause so concurrent callers are
// serialized by the store's row lock, never by application state. Returns
// false when stock was already zero.
func ReserveUnit(ctx context.Context, tx *gorm.DB, partID uuid.UUID) (bool, error) {
	if tx == nil {
		return false, ErrTxRequired
	}
	result := tx.WithContext(ctx).
		Model(&models.Part{}).
		Where("id = ? AND quantity > 0", partID).
		UpdateColumn("quantity", gorm.Expr("quantity - 1"))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}
