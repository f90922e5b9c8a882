package profiles

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	dbpkg "github.com/labstock/labstock-backend/pkg/db"
	"github.com/labstock/labstock-backend/pkg/db/models"
	"github.com/labstock/labstock-backend/pkg/enums"
	pkgerrors "github.com/labstock/labstock-backend/pkg/errors"
)

// Service exposes profile reads and admin-only mutations.
type Service interface {
	GetByID(ctx context.Context, id uuid.UUID) (*ProfileDTO, error)
	GetByExternalID(ctx context.Context, externalID string) (*ProfileDTO, error)
	List(ctx context.Context) ([]ProfileDTO, error)
	SetRole(ctx context.Context, id uuid.UUID, role enums.ProfileRole) (*ProfileDTO, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) (*ProfileDTO, error)
}

type repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Profile, error)
	FindByExternalID(ctx context.Context, externalID string) (*models.Profile, error)
	List(ctx context.Context) ([]models.Profile, error)
	SetRole(ctx context.Context, id uuid.UUID, role enums.ProfileRole) error
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
}

type service struct {
	repo repository
}

// NewService wires a profile service with the provided repository.
func NewService(repo repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("profiles repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*ProfileDTO, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "profile id required")
	}
	profile, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapLookupError(err)
	}
	return FromModel(profile), nil
}

func (s *service) GetByExternalID(ctx context.Context, externalID string) (*ProfileDTO, error) {
	if strings.TrimSpace(externalID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "external id required")
	}
	profile, err := s.repo.FindByExternalID(ctx, externalID)
	if err != nil {
		return nil, mapLookupError(err)
	}
	return FromModel(profile), nil
}

func (s *service) List(ctx context.Context) ([]ProfileDTO, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list profiles")
	}
	out := make([]ProfileDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out, nil
}

func (s *service) SetRole(ctx context.Context, id uuid.UUID, role enums.ProfileRole) (*ProfileDTO, error) {
	if !role.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid role %q", role))
	}
	if _, err := s.GetByID(ctx, id); err != nil {
		return nil, err
	}
	if err := s.repo.SetRole(ctx, id, role); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update role")
	}
	return s.GetByID(ctx, id)
}

func (s *service) SetActive(ctx context.Context, id uuid.UUID, active bool) (*ProfileDTO, error) {
	if _, err := s.GetByID(ctx, id); err != nil {
		return nil, err
	}
	if err := s.repo.SetActive(ctx, id, active); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update active flag")
	}
	return s.GetByID(ctx, id)
}

func mapLookupError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "profile not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup profile")
}

// MapCreateError converts storage errors from profile creation into typed errors.
func MapCreateError(err error) error {
	if err == nil {
		return nil
	}
	if dbpkg.IsUniqueViolation(err, "") {
		return pkgerrors.New(pkgerrors.CodeConflict, "username or external id already registered")
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create profile")
}
