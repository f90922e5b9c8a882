package categories

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

// CreateCategoryInput captures the fields an admin supplies when adding a category.
type CreateCategoryInput struct {
	Name          string
	CheckoutLimit int
}

// UpdateCategoryInput carries optional field overwrites for an existing category.
type UpdateCategoryInput struct {
	Name          *string
	CheckoutLimit *int
}

// Service exposes category reads for everyone and mutations for admins.
type Service interface {
	Create(ctx context.Context, input CreateCategoryInput) (*models.Category, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Category, error)
	List(ctx context.Context) ([]models.Category, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateCategoryInput) (*models.Category, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type repository interface {
	Create(ctx context.Context, category *models.Category) (*models.Category, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Category, error)
	List(ctx context.Context) ([]models.Category, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
	Delete(ctx context.Context, id uuid.UUID) error
	CountParts(ctx context.Context, id uuid.UUID) (int64, error)
}

type service struct {
	repo         repository
	defaultLimit int
}

// NewService wires a category service. defaultLimit seeds checkout_limit when
// the admin does not provide one.
func NewService(repo repository, defaultLimit int) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("categories repository required")
	}
	if defaultLimit <= 0 {
		defaultLimit = 10
	}
	return &service{repo: repo, defaultLimit: defaultLimit}, nil
}

func (s *service) Create(ctx context.Context, input CreateCategoryInput) (*models.Category, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "category name required")
	}
	limit := input.CheckoutLimit
	if limit == 0 {
		limit = s.defaultLimit
	}
	if limit < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "checkout limit must be at least 1")
	}

	category := &models.Category{Name: name, CheckoutLimit: limit}
	created, err := s.repo.Create(ctx, category)
	if err != nil {
		if dbpkg.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, fmt.Sprintf("category %q already exists", name))
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create category")
	}
	return created, nil
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "category id required")
	}
	category, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "category not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup category")
	}
	return category, nil
}

func (s *service) List(ctx context.Context) ([]models.Category, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list categories")
	}
	return rows, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateCategoryInput) (*models.Category, error) {
	if _, err := s.GetByID(ctx, id); err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "category name required")
		}
		updates["name"] = name
	}
	if input.CheckoutLimit != nil {
		if *input.CheckoutLimit < 1 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "checkout limit must be at least 1")
		}
		updates["checkout_limit"] = *input.CheckoutLimit
	}
	if len(updates) == 0 {
		return s.GetByID(ctx, id)
	}

	if err := s.repo.Update(ctx, id, updates); err != nil {
		if dbpkg.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "category name already in use")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update category")
	}
	return s.GetByID(ctx, id)
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.GetByID(ctx, id); err != nil {
		return err
	}
	count, err := s.repo.CountParts(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count category parts")
	}
	if count > 0 {
		return pkgerrors.New(pkgerrors.CodeConflict, "category still has parts assigned")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete category")
	}
	return nil
}
