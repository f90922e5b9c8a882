package reservations

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/labstock/labstock-backend/pkg/db/models"
	"github.com/labstock/labstock-backend/pkg/enums"
	"github.com/labstock/labstock-backend/pkg/pagination"
)

// Repository exposes ledger entry persistence. Entries are append-only;
// the only permitted mutation overwrites status and admin_remarks.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a ledger repo bound to the provided GORM DB.
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

// Insert writes one ledger entry. Callers pass a transaction-bound repo so the
// entry commits with the stock decrement it records.
func (r *Repository) Insert(ctx context.Context, entry *models.LedgerEntry) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(entry).Error
}

// FindByID loads a ledger entry with its part and profile preloaded.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.LedgerEntry, error) {
	var entry models.LedgerEntry
	err := r.db.WithContext(ctx).
		Preload("Part").
		Preload("Profile").
		First(&entry, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// UpdateStatus moves the entry from the expected prior status, overwriting
// status and admin_remarks. No other column moves; created_at stays that of
// the original checkout. A zero row count means the entry is gone or its
// status moved underneath the caller.
func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to enums.ReservationStatus, adminRemarks *string) error {
	result := r.db.WithContext(ctx).
		Model(&models.LedgerEntry{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]any{
			"status":        to,
			"admin_remarks": adminRemarks,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ListFilters narrows a ledger listing.
type ListFilters struct {
	ProfileID *uuid.UUID
	PartID    *uuid.UUID
	Status    *enums.ReservationStatus
}

// List returns entries newest-first using cursor pagination. It fetches one
// row beyond the page size so the caller can detect a next page.
func (r *Repository) List(ctx context.Context, filters ListFilters, params pagination.Params) ([]models.LedgerEntry, error) {
	query := r.db.WithContext(ctx).
		Preload("Part").
		Preload("Profile").
		Order("created_at DESC").
		Order("id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit))

	if filters.ProfileID != nil {
		query = query.Where("profile_id = ?", *filters.ProfileID)
	}
	if filters.PartID != nil {
		query = query.Where("part_id = ?", *filters.PartID)
	}
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}
	if cursor != nil {
		query = query.Where(
			"created_at < ? OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}

	var rows []models.LedgerEntry
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// CountByPartAndStatuses reports how many entries reference the part in any of
// the provided statuses.
func (r *Repository) CountByPartAndStatuses(ctx context.Context, partID uuid.UUID, statuses []enums.ReservationStatus) (int64, error) {
	if len(statuses) == 0 {
		return 0, errors.New("at least one status required")
	}
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.LedgerEntry{}).
		Where("part_id = ? AND status IN ?", partID, statuses).
		Count(&count).Error
	return count, err
}
