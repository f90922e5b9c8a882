package parts

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	dbpkg "github.com/labstock/labstock-backend/pkg/db"
	"github.com/labstock/labstock-backend/pkg/db/models"
	pkgerrors "github.com/labstock/labstock-backend/pkg/errors"
)

// CreatePartInput captures the fields an admin supplies when stocking a part.
type CreatePartInput struct {
	CategoryID  uuid.UUID
	Name        string
	Description *string
	Quantity    int
	Barcode     *string
}

// UpdatePartInput carries optional field overwrites for an existing part.
// Quantity is deliberately absent; stock changes go through SetQuantity.
type UpdatePartInput struct {
	CategoryID  *uuid.UUID
	Name        *string
	Description *string
	Barcode     *string
}

// Service exposes part reads for everyone and mutations for admins.
type Service interface {
	Create(ctx context.Context, input CreatePartInput) (*models.Part, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Part, error)
	List(ctx context.Context, categoryID *uuid.UUID) ([]models.Part, error)
	Update(ctx context.Context, id uuid.UUID, input UpdatePartInput) (*models.Part, error)
	SetQuantity(ctx context.Context, id uuid.UUID, quantity int) (*models.Part, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type categoryLookup interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Category, error)
}

type repository interface {
	Create(ctx context.Context, part *models.Part) (*models.Part, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Part, error)
	List(ctx context.Context, categoryID *uuid.UUID) ([]models.Part, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
	SetQuantity(ctx context.Context, id uuid.UUID, quantity int) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo       repository
	categories categoryLookup
}

// NewService wires a part service with the provided repositories.
func NewService(repo repository, categories categoryLookup) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("parts repository required")
	}
	if categories == nil {
		return nil, fmt.Errorf("category lookup required")
	}
	return &service{repo: repo, categories: categories}, nil
}

func (s *service) Create(ctx context.Context, input CreatePartInput) (*models.Part, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "part name required")
	}
	if input.Quantity < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must not be negative")
	}
	if err := s.requireCategory(ctx, input.CategoryID); err != nil {
		return nil, err
	}

	part := &models.Part{
		CategoryID:  input.CategoryID,
		Name:        name,
		Description: input.Description,
		Quantity:    input.Quantity,
		Barcode:     normalizeBarcode(input.Barcode),
	}
	created, err := s.repo.Create(ctx, part)
	if err != nil {
		if dbpkg.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "barcode already registered")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create part")
	}
	return s.GetByID(ctx, created.ID)
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*models.Part, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "part id required")
	}
	part, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "part not found").
				WithDetails(map[string]any{"part_id": id})
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup part")
	}
	return part, nil
}

func (s *service) List(ctx context.Context, categoryID *uuid.UUID) ([]models.Part, error) {
	rows, err := s.repo.List(ctx, categoryID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list parts")
	}
	return rows, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdatePartInput) (*models.Part, error) {
	if _, err := s.GetByID(ctx, id); err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if input.CategoryID != nil {
		if err := s.requireCategory(ctx, *input.CategoryID); err != nil {
			return nil, err
		}
		updates["category_id"] = *input.CategoryID
	}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "part name required")
		}
		updates["name"] = name
	}
	if input.Description != nil {
		updates["description"] = *input.Description
	}
	if input.Barcode != nil {
		updates["barcode"] = normalizeBarcode(input.Barcode)
	}
	if len(updates) == 0 {
		return s.GetByID(ctx, id)
	}

	if err := s.repo.Update(ctx, id, updates); err != nil {
		if dbpkg.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "barcode already registered")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update part")
	}
	return s.GetByID(ctx, id)
}

func (s *service) SetQuantity(ctx context.Context, id uuid.UUID, quantity int) (*models.Part, error) {
	if quantity < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must not be negative")
	}
	if _, err := s.GetByID(ctx, id); err != nil {
		return nil, err
	}
	if err := s.repo.SetQuantity(ctx, id, quantity); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "set quantity")
	}
	return s.GetByID(ctx, id)
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.GetByID(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete part")
	}
	return nil
}

func (s *service) requireCategory(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "category id required")
	}
	if _, err := s.categories.FindByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeValidation, "category does not exist")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup category")
	}
	return nil
}

func normalizeBarcode(barcode *string) *string {
	if barcode == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*barcode)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
