// Package service handles deal operations: CRUD plus the stage/status state
// machine. Every mutation flows through a single applyDealChanges primitive
// that persists the patch, records audit history and raises the update event
// the automation engine listens on.
package service

import (
	"context"
	"errors"
	"strconv"
	"time"

	assignrepo "github.com/JamshedLatipov/crm-sub002/internal/assignments/repository"
	"github.com/JamshedLatipov/crm-sub002/internal/deals/domain"
	"github.com/JamshedLatipov/crm-sub002/internal/deals/repository"
	"github.com/JamshedLatipov/crm-sub002/internal/deals/transport"
	"github.com/JamshedLatipov/crm-sub002/internal/events"
	historyrepo "github.com/JamshedLatipov/crm-sub002/internal/history/repository"
	pipelinerepo "github.com/JamshedLatipov/crm-sub002/internal/pipeline/repository"
	"github.com/JamshedLatipov/crm-sub002/platform/apperr"
	"github.com/JamshedLatipov/crm-sub002/platform/logger"

	"github.com/google/uuid"
)

// Repository defines the data access interface needed by the deal service.
type Repository interface {
	Create(ctx context.Context, params repository.CreateDealParams) (repository.Deal, error)
	GetByID(ctx context.Context, id uuid.UUID) (repository.Deal, error)
	List(ctx context.Context) ([]repository.Deal, error)
	UpdateFields(ctx context.Context, id uuid.UUID, params repository.UpdateDealParams) (repository.Deal, error)
}

// Stages resolves pipeline stages for the state machine.
type Stages interface {
	GetByID(ctx context.Context, id uuid.UUID) (pipelinerepo.Stage, error)
	ResolveByKind(ctx context.Context, kind string) (*pipelinerepo.Stage, error)
}

// Assignments is the assignment subsystem consumed by deal reassignment.
type Assignments interface {
	Create(ctx context.Context, params assignrepo.CreateAssignmentParams) (assignrepo.Assignment, error)
	Remove(ctx context.Context, entityType string, entityID, userID uuid.UUID) error
	GetCurrent(ctx context.Context, entityType string, entityID uuid.UUID) ([]assignrepo.Assignment, error)
}

// HistoryRecorder appends audit entries. Failures are logged by this service
// and never fail the primary mutation.
type HistoryRecorder interface {
	Record(ctx context.Context, params historyrepo.AppendEntryParams) (historyrepo.Entry, error)
}

// Service handles deal management and lifecycle operations.
type Service struct {
	repo        Repository
	stages      Stages
	assignments Assignments
	history     HistoryRecorder
	bus         events.Bus
	log         *logger.Logger
}

// New creates a new deal service.
func New(repo Repository, stages Stages, assignments Assignments, history HistoryRecorder, bus events.Bus, log *logger.Logger) *Service {
	return &Service{
		repo:        repo,
		stages:      stages,
		assignments: assignments,
		history:     history,
		bus:         bus,
		log:         log,
	}
}

// change is one field-level mutation destined for both the audit trail and
// the update event's change set.
type change struct {
	field       string
	oldValue    string
	newValue    string
	changeType  string
	description string
	metadata    map[string]any
}

// Create creates a new deal and raises DealCreated synchronously so
// automation rules on the created trigger run inline.
func (s *Service) Create(ctx context.Context, req transport.CreateDealRequest, actor events.Actor) (transport.DealResponse, error) {
	if _, err := s.stages.GetByID(ctx, req.StageID); err != nil {
		return transport.DealResponse{}, err
	}

	deal, err := s.repo.Create(ctx, repository.CreateDealParams{
		Title:             req.Title,
		StageID:           req.StageID,
		Status:            domain.DealStatusOpen,
		Amount:            req.Amount,
		Probability:       req.Probability,
		ExpectedCloseDate: req.ExpectedCloseDate,
		Notes:             req.Notes,
	})
	if err != nil {
		return transport.DealResponse{}, err
	}

	s.recordHistory(ctx, historyrepo.AppendEntryParams{
		EntityType:  historyrepo.EntityTypeDeal,
		EntityID:    deal.ID,
		ChangeType:  historyrepo.ChangeTypeCreated,
		ActorID:     actor.ID,
		ActorName:   actorName(actor),
		Description: "Deal created: " + deal.Title,
	})

	if err := s.bus.PublishSync(ctx, events.DealCreated{
		BaseEvent:   events.NewBaseEvent(),
		DealID:      deal.ID,
		Title:       deal.Title,
		StageID:     deal.StageID,
		Status:      deal.Status,
		Amount:      deal.Amount,
		Probability: deal.Probability,
		Actor:       actor,
	}); err != nil {
		s.log.Error("deal created event dispatch failed", "dealId", deal.ID, "error", err)
	}

	return transport.ToDealResponse(deal), nil
}

// GetByID retrieves a deal by ID.
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (transport.DealResponse, error) {
	deal, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return transport.DealResponse{}, apperr.NotFound("deal not found")
	}
	if err != nil {
		return transport.DealResponse{}, err
	}
	return transport.ToDealResponse(deal), nil
}

// List returns all deals.
func (s *Service) List(ctx context.Context) (transport.DealListResponse, error) {
	deals, err := s.repo.List(ctx)
	if err != nil {
		return transport.DealListResponse{}, err
	}
	return transport.ToDealListResponse(deals), nil
}

// Update applies a partial field update. Stage and status changes go through
// the lifecycle entry points instead.
func (s *Service) Update(ctx context.Context, id uuid.UUID, req transport.UpdateDealRequest, actor events.Actor) (transport.DealResponse, error) {
	deal, err := s.getDeal(ctx, id)
	if err != nil {
		return transport.DealResponse{}, err
	}

	var patch repository.UpdateDealParams
	var changes []change

	if req.Title != nil && *req.Title != deal.Title {
		patch.Title = req.Title
		changes = append(changes, change{
			field:       domain.FieldTitle,
			oldValue:    deal.Title,
			newValue:    *req.Title,
			changeType:  historyrepo.ChangeTypeUpdated,
			description: "Title updated",
		})
	}
	if req.Amount != nil && *req.Amount != deal.Amount {
		patch.Amount = req.Amount
		changes = append(changes, change{
			field:       domain.FieldAmount,
			oldValue:    fmtFloat(deal.Amount),
			newValue:    fmtFloat(*req.Amount),
			changeType:  historyrepo.ChangeTypeAmountChanged,
			description: "Amount updated",
		})
	}
	if req.Probability != nil && (deal.Probability == nil || *deal.Probability != *req.Probability) {
		patch.Probability = req.Probability
		patch.ProbabilitySet = true
		changes = append(changes, change{
			field:       domain.FieldProbability,
			oldValue:    fmtIntPtr(deal.Probability),
			newValue:    strconv.Itoa(*req.Probability),
			changeType:  historyrepo.ChangeTypeProbabilityChanged,
			description: "Probability updated",
		})
	}
	if req.ExpectedCloseDate != nil && !equalTimePtr(deal.ExpectedCloseDate, req.ExpectedCloseDate) {
		patch.ExpectedCloseDate = req.ExpectedCloseDate
		patch.ExpectedCloseDateSet = true
		changes = append(changes, change{
			field:       domain.FieldExpectedCloseDate,
			oldValue:    fmtTimePtr(deal.ExpectedCloseDate),
			newValue:    fmtTimePtr(req.ExpectedCloseDate),
			changeType:  historyrepo.ChangeTypeDateChanged,
			description: "Expected close date updated",
		})
	}
	if req.Notes != nil && *req.Notes != deal.Notes {
		patch.Notes = req.Notes
		changes = append(changes, change{
			field:       domain.FieldNotes,
			oldValue:    deal.Notes,
			newValue:    *req.Notes,
			changeType:  historyrepo.ChangeTypeNoteAdded,
			description: "Notes updated",
		})
	}

	if len(changes) == 0 {
		return transport.ToDealResponse(deal), nil
	}

	updated, err := s.applyDealChanges(ctx, deal.ID, patch, changes, actor)
	if err != nil {
		return transport.DealResponse{}, err
	}
	return transport.ToDealResponse(updated), nil
}

// applyDealChanges is the single internal mutation primitive. Both direct
// updates and the state machine call it, so history rows and update events
// stay consistent regardless of which public entry point ran.
func (s *Service) applyDealChanges(ctx context.Context, dealID uuid.UUID, patch repository.UpdateDealParams, changes []change, actor events.Actor) (repository.Deal, error) {
	updated, err := s.repo.UpdateFields(ctx, dealID, patch)
	if errors.Is(err, repository.ErrNotFound) {
		return repository.Deal{}, apperr.NotFound("deal not found")
	}
	if err != nil {
		return repository.Deal{}, err
	}

	fieldChanges := make([]events.FieldChange, 0, len(changes))
	for _, ch := range changes {
		field := ch.field
		oldValue := ch.oldValue
		newValue := ch.newValue
		s.recordHistory(ctx, historyrepo.AppendEntryParams{
			EntityType:  historyrepo.EntityTypeDeal,
			EntityID:    dealID,
			FieldName:   &field,
			OldValue:    &oldValue,
			NewValue:    &newValue,
			ChangeType:  ch.changeType,
			ActorID:     actor.ID,
			ActorName:   actorName(actor),
			Description: ch.description,
			Metadata:    ch.metadata,
		})
		fieldChanges = append(fieldChanges, events.FieldChange{Field: ch.field, Old: ch.oldValue, New: ch.newValue})
	}

	if err := s.bus.PublishSync(ctx, events.DealUpdated{
		BaseEvent:   events.NewBaseEvent(),
		DealID:      updated.ID,
		Title:       updated.Title,
		StageID:     updated.StageID,
		Status:      updated.Status,
		Amount:      updated.Amount,
		Probability: updated.Probability,
		Changes:     fieldChanges,
		Actor:       actor,
	}); err != nil {
		s.log.Error("deal updated event dispatch failed", "dealId", updated.ID, "error", err)
	}

	return updated, nil
}

func (s *Service) getDeal(ctx context.Context, id uuid.UUID) (repository.Deal, error) {
	deal, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return repository.Deal{}, apperr.NotFound("deal not found")
	}
	return deal, err
}

// recordHistory appends an audit entry, logging failures instead of
// propagating them: an audit write must never fail the business mutation.
func (s *Service) recordHistory(ctx context.Context, params historyrepo.AppendEntryParams) {
	if _, err := s.history.Record(ctx, params); err != nil {
		s.log.HistoryWriteError(params.EntityType, params.EntityID.String(), err)
	}
}

func actorName(actor events.Actor) *string {
	if actor.Name == "" {
		return nil
	}
	name := actor.Name
	return &name
}

func fmtFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func fmtIntPtr(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func fmtTimePtr(v *time.Time) string {
	if v == nil {
		return ""
	}
	return v.Format(time.RFC3339)
}

func equalTimePtr(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}
