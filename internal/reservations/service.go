package reservations

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/labstock/labstock-backend/internal/parts"
	"github.com/labstock/labstock-backend/pkg/config"
	"github.com/labstock/labstock-backend/pkg/db/models"
	"github.com/labstock/labstock-backend/pkg/enums"
	pkgerrors "github.com/labstock/labstock-backend/pkg/errors"
	"github.com/labstock/labstock-backend/pkg/logger"
	"github.com/labstock/labstock-backend/pkg/metrics"
	"github.com/labstock/labstock-backend/pkg/outbox"
	"github.com/labstock/labstock-backend/pkg/outbox/payloads"
	"github.com/labstock/labstock-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type partLoader interface {
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Part, error)
}

type profileLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Profile, error)
}

type unitReserver interface {
	ReserveUnit(ctx context.Context, tx *gorm.DB, partID uuid.UUID) (bool, error)
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type reserveEngine struct{}

func (reserveEngine) ReserveUnit(ctx context.Context, tx *gorm.DB, partID uuid.UUID) (bool, error) {
	return parts.ReserveUnit(ctx, tx, partID)
}

// Service owns the reservation ledger: checkout converts stock into ledger
// entries, and the lifecycle path moves entries through their statuses.
type Service interface {
	Checkout(ctx context.Context, callerProfileID uuid.UUID, input CheckoutInput) (*CheckoutResult, error)
	UpdateStatus(ctx context.Context, actorProfileID, entryID uuid.UUID, input UpdateStatusInput) (*EntryDTO, error)
	GetEntry(ctx context.Context, entryID uuid.UUID) (*EntryDTO, error)
	ListMine(ctx context.Context, profileID uuid.UUID, params pagination.Params) (*EntryPage, error)
	List(ctx context.Context, filters ListFilters, params pagination.Params) (*EntryPage, error)
	CountOutstanding(ctx context.Context, partID uuid.UUID) (*PartOutstandingDTO, error)
}

// ServiceParams bundles the dependencies required to build the ledger service.
type ServiceParams struct {
	Tx       txRunner
	Ledger   *Repository
	Parts    partLoader
	Profiles profileLoader
	Reserver unitReserver
	Outbox   outboxPublisher
	Metrics  *metrics.CheckoutMetrics
	Config   config.CheckoutConfig
	Logger   *logger.Logger
}

type service struct {
	tx       txRunner
	ledger   *Repository
	parts    partLoader
	profiles profileLoader
	reserver unitReserver
	outbox   outboxPublisher
	metrics  *metrics.CheckoutMetrics
	cfg      config.CheckoutConfig
	logg     *logger.Logger
}

// NewService builds the reservation ledger service.
func NewService(params ServiceParams) (Service, error) {
	if params.Tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if params.Ledger == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	if params.Parts == nil {
		return nil, fmt.Errorf("part loader required")
	}
	if params.Profiles == nil {
		return nil, fmt.Errorf("profile loader required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if params.Reserver == nil {
		params.Reserver = reserveEngine{}
	}
	cfg := params.Config
	if cfg.DefaultCategoryLimit <= 0 {
		cfg.DefaultCategoryLimit = 10
	}
	if cfg.MaxBatchLines <= 0 {
		cfg.MaxBatchLines = 50
	}
	return &service{
		tx:       params.Tx,
		ledger:   params.Ledger,
		parts:    params.Parts,
		profiles: params.Profiles,
		reserver: params.Reserver,
		outbox:   params.Outbox,
		metrics:  params.Metrics,
		cfg:      cfg,
		logg:     params.Logger,
	}, nil
}

func (s *service) Checkout(ctx context.Context, callerProfileID uuid.UUID, input CheckoutInput) (*CheckoutResult, error) {
	started := time.Now()

	profile, err := s.resolveCaller(ctx, callerProfileID)
	if err != nil {
		s.recordRejection(err)
		return nil, err
	}
	partsByID, err := s.validateBatch(ctx, input.Lines)
	if err != nil {
		s.recordRejection(err)
		return nil, err
	}

	actor := &outbox.ActorRef{ProfileID: profile.ID, Role: profile.Role.String()}
	result := &CheckoutResult{
		EntryIDs: make([]uuid.UUID, 0),
		Lines:    make([]LineResult, 0, len(input.Lines)),
	}

	// Each unit is its own transaction. Units committed before a failure stay
	// committed; the batch is a sequence of independent atomic steps, not one
	// large transaction.
	for _, line := range input.Lines {
		lineResult := LineResult{PartID: line.PartID, Requested: line.Quantity}
		part := partsByID[line.PartID]

		for unit := 0; unit < line.Quantity; unit++ {
			entryID, err := s.reserveOneUnit(ctx, part, profile, actor, input.Notes)
			if err != nil {
				result.Lines = append(result.Lines, lineResult)
				if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeOutOfStock {
					s.metrics.IncOutOfStock(categoryName(part))
					s.metrics.ObserveDuration("out_of_stock", time.Since(started))
				} else {
					s.recordRejection(err)
					s.metrics.ObserveDuration("failed", time.Since(started))
				}
				if s.logg != nil {
					s.logg.Warn(s.logg.WithPartID(ctx, line.PartID.String()), "checkout halted")
				}
				return nil, s.decorateUnitFailure(err, line.PartID, result.UnitsReserved)
			}
			result.UnitsReserved++
			lineResult.Reserved++
			result.EntryIDs = append(result.EntryIDs, entryID)
		}
		result.Lines = append(result.Lines, lineResult)
		s.metrics.AddUnitsReserved(categoryName(part), lineResult.Reserved)
	}

	if err := s.emitCheckoutCompleted(ctx, profile.ID, actor, result); err != nil {
		return nil, err
	}

	if s.logg != nil {
		logCtx := s.logg.WithProfileID(ctx, profile.ID.String())
		logCtx = s.logg.WithFields(logCtx, map[string]any{
			"units_reserved": result.UnitsReserved,
			"lines":          len(input.Lines),
		})
		s.logg.Info(logCtx, "checkout completed")
	}
	s.metrics.ObserveDuration("completed", time.Since(started))
	return result, nil
}

// reserveOneUnit runs the single-unit atomic step: the conditional decrement
// and the ledger insert commit together or not at all.
func (s *service) reserveOneUnit(ctx context.Context, part *models.Part, profile *models.Profile, actor *outbox.ActorRef, notes *string) (uuid.UUID, error) {
	var entryID uuid.UUID
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		ok, err := s.reserver.ReserveUnit(ctx, tx, part.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decrement stock")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeOutOfStock, fmt.Sprintf("part %q is out of stock", part.Name))
		}

		partID := part.ID
		profileID := profile.ID
		entry := &models.LedgerEntry{
			PartID:    &partID,
			ProfileID: &profileID,
			Status:    enums.ReservationStatusReserved,
			Notes:     notes,
		}
		if err := s.ledger.WithTx(tx).Insert(ctx, entry); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert ledger entry")
		}
		entryID = entry.ID

		event := outbox.DomainEvent{
			EventType:     enums.EventUnitReserved,
			AggregateType: enums.AggregateLedgerEntry,
			AggregateID:   entry.ID,
			Actor:         actor,
			Data: payloads.UnitReservedEvent{
				EntryID:   entry.ID,
				PartID:    part.ID,
				ProfileID: profile.ID,
			},
			Version: 1,
		}
		return s.outbox.Emit(ctx, tx, event)
	})
	return entryID, err
}

func (s *service) resolveCaller(ctx context.Context, callerProfileID uuid.UUID) (*models.Profile, error) {
	if callerProfileID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "caller profile id required")
	}
	profile, err := s.profiles.FindByID(ctx, callerProfileID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "profile not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup profile")
	}
	if !profile.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "profile is deactivated")
	}
	return profile, nil
}

// validateBatch runs every precondition before any mutation: line shape,
// part existence, and per-category checkout limits.
func (s *service) validateBatch(ctx context.Context, lines []CheckoutLine) (map[uuid.UUID]*models.Part, error) {
	if len(lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "checkout batch requires at least one line")
	}
	if len(lines) > s.cfg.MaxBatchLines {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("checkout batch exceeds %d lines", s.cfg.MaxBatchLines))
	}

	uniqueIDs := make([]uuid.UUID, 0, len(lines))
	seen := map[uuid.UUID]bool{}
	for _, line := range lines {
		if line.PartID == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "part id required")
		}
		if line.Quantity < 1 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1").
				WithDetails(map[string]any{"part_id": line.PartID})
		}
		if !seen[line.PartID] {
			seen[line.PartID] = true
			uniqueIDs = append(uniqueIDs, line.PartID)
		}
	}

	rows, err := s.parts.FindByIDs(ctx, uniqueIDs)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load parts")
	}
	partsByID := make(map[uuid.UUID]*models.Part, len(rows))
	for i := range rows {
		partsByID[rows[i].ID] = &rows[i]
	}
	for _, id := range uniqueIDs {
		if partsByID[id] == nil {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "part not found").
				WithDetails(map[string]any{"part_id": id})
		}
	}

	requestedByCategory := map[uuid.UUID]int{}
	limitByCategory := map[uuid.UUID]int{}
	for _, line := range lines {
		part := partsByID[line.PartID]
		requestedByCategory[part.CategoryID] += line.Quantity
		limit := s.cfg.DefaultCategoryLimit
		if part.Category != nil && part.Category.CheckoutLimit > 0 {
			limit = part.Category.CheckoutLimit
		}
		limitByCategory[part.CategoryID] = limit
	}
	for categoryID, requested := range requestedByCategory {
		limit := limitByCategory[categoryID]
		if requested > limit {
			return nil, pkgerrors.New(pkgerrors.CodeCheckoutLimit,
				fmt.Sprintf("requested %d units from one category, limit is %d", requested, limit)).
				WithDetails(map[string]any{
					"category_id": categoryID,
					"limit":       limit,
					"requested":   requested,
				})
		}
	}

	return partsByID, nil
}

func (s *service) decorateUnitFailure(err error, partID uuid.UUID, unitsReserved int) error {
	typed := pkgerrors.As(err)
	if typed == nil {
		return err
	}
	return typed.WithDetails(map[string]any{
		"part_id":        partID,
		"units_reserved": unitsReserved,
	})
}

func (s *service) emitCheckoutCompleted(ctx context.Context, profileID uuid.UUID, actor *outbox.ActorRef, result *CheckoutResult) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		event := outbox.DomainEvent{
			EventType:     enums.EventCheckoutCompleted,
			AggregateType: enums.AggregateProfile,
			AggregateID:   profileID,
			Actor:         actor,
			Data: payloads.CheckoutCompletedEvent{
				ProfileID:     profileID,
				UnitsReserved: result.UnitsReserved,
				EntryIDs:      append([]uuid.UUID{}, result.EntryIDs...),
			},
			Version: 1,
		}
		return s.outbox.Emit(ctx, tx, event)
	})
}

func (s *service) recordRejection(err error) {
	typed := pkgerrors.As(err)
	if typed == nil {
		s.metrics.IncFailure("internal")
		return
	}
	s.metrics.IncFailure(string(typed.Code()))
}

func (s *service) UpdateStatus(ctx context.Context, actorProfileID, entryID uuid.UUID, input UpdateStatusInput) (*EntryDTO, error) {
	actor, err := s.requireAdmin(ctx, actorProfileID)
	if err != nil {
		return nil, err
	}
	if !input.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid status %q", input.Status))
	}

	// Lifecycle transitions never touch stock. Stock moves only through the
	// checkout decrement and admin stock edits. The read, the terminal gate
	// and the conditional update share one transaction so a concurrent
	// finalize cannot be overwritten.
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		ledger := s.ledger.WithTx(tx)

		entry, err := ledger.FindByID(ctx, entryID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "ledger entry not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup ledger entry")
		}
		if entry.Status.IsTerminal() {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("entry already finalized as %s", entry.Status)).
				WithDetails(map[string]any{"current_status": entry.Status})
		}

		if err := ledger.UpdateStatus(ctx, entryID, entry.Status, input.Status, input.AdminRemarks); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeStateConflict, "entry status changed concurrently")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update status")
		}
		event := outbox.DomainEvent{
			EventType:     enums.EventReservationStatusChanged,
			AggregateType: enums.AggregateLedgerEntry,
			AggregateID:   entryID,
			Actor:         &outbox.ActorRef{ProfileID: actor.ID, Role: actor.Role.String()},
			Data: payloads.ReservationStatusChangedEvent{
				EntryID:    entryID,
				FromStatus: entry.Status,
				ToStatus:   input.Status,
			},
			Version: 1,
		}
		return s.outbox.Emit(ctx, tx, event)
	})
	if err != nil {
		return nil, err
	}

	updated, err := s.ledger.FindByID(ctx, entryID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload ledger entry")
	}
	return EntryFromModel(updated), nil
}

func (s *service) GetEntry(ctx context.Context, entryID uuid.UUID) (*EntryDTO, error) {
	if entryID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "entry id required")
	}
	entry, err := s.ledger.FindByID(ctx, entryID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "ledger entry not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup ledger entry")
	}
	return EntryFromModel(entry), nil
}

func (s *service) ListMine(ctx context.Context, profileID uuid.UUID, params pagination.Params) (*EntryPage, error) {
	if profileID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "profile id required")
	}
	return s.List(ctx, ListFilters{ProfileID: &profileID}, params)
}

func (s *service) List(ctx context.Context, filters ListFilters, params pagination.Params) (*EntryPage, error) {
	if _, err := pagination.ParseCursor(params.Cursor); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, err := s.ledger.List(ctx, filters, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list ledger entries")
	}

	limit := pagination.NormalizeLimit(params.Limit)
	page := &EntryPage{Entries: make([]EntryDTO, 0, limit)}
	for i := range rows {
		if i == limit {
			last := rows[limit-1]
			cursor := pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
			page.NextCursor = &cursor
			break
		}
		page.Entries = append(page.Entries, *EntryFromModel(&rows[i]))
	}
	return page, nil
}

// CountOutstanding reports how many units of the part are currently held
// against non-terminal ledger entries.
func (s *service) CountOutstanding(ctx context.Context, partID uuid.UUID) (*PartOutstandingDTO, error) {
	if partID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "part id required")
	}
	count, err := s.ledger.CountByPartAndStatuses(ctx, partID, []enums.ReservationStatus{
		enums.ReservationStatusReserved,
		enums.ReservationStatusIssued,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count outstanding units")
	}
	return &PartOutstandingDTO{PartID: partID, UnitsOutstanding: count}, nil
}

func (s *service) requireAdmin(ctx context.Context, actorProfileID uuid.UUID) (*models.Profile, error) {
	if actorProfileID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "admin role required")
	}
	actor, err := s.profiles.FindByID(ctx, actorProfileID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "admin role required")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup actor profile")
	}
	if !actor.IsActive || actor.Role != enums.ProfileRoleAdmin {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "admin role required")
	}
	return actor, nil
}

func categoryName(part *models.Part) string {
	if part == nil || part.Category == nil {
		return ""
	}
	return part.Category.Name
}
