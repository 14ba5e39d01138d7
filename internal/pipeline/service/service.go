// Package service provides pipeline stage catalog operations, including the
// WON/LOST stage resolution used by the deal state machine.
package service

import (
	"context"
	"errors"

	"github.com/JamshedLatipov/crm-sub002/internal/pipeline/domain"
	"github.com/JamshedLatipov/crm-sub002/internal/pipeline/repository"
	"github.com/JamshedLatipov/crm-sub002/platform/apperr"
	"github.com/JamshedLatipov/crm-sub002/platform/logger"

	"github.com/google/uuid"
)

// Repository defines the data access interface needed by the stage service.
type Repository interface {
	Create(ctx context.Context, params repository.CreateStageParams) (repository.Stage, error)
	FindByID(ctx context.Context, id uuid.UUID) (repository.Stage, error)
	List(ctx context.Context) ([]repository.Stage, error)
	FindActiveByKind(ctx context.Context, kind string) ([]repository.Stage, error)
}

type Service struct {
	repo Repository
	log  *logger.Logger
}

func New(repo Repository, log *logger.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// Create adds a stage to the catalog.
func (s *Service) Create(ctx context.Context, params repository.CreateStageParams) (repository.Stage, error) {
	if !domain.IsKnownStageKind(params.Kind) {
		return repository.Stage{}, apperr.Validation("unknown stage kind: " + params.Kind)
	}
	if params.DefaultProbability < 0 || params.DefaultProbability > 100 {
		return repository.Stage{}, apperr.Validation("default probability must be between 0 and 100")
	}
	return s.repo.Create(ctx, params)
}

// List returns the stage catalog in board order.
func (s *Service) List(ctx context.Context) ([]repository.Stage, error) {
	return s.repo.List(ctx)
}

// GetByID returns a single stage.
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (repository.Stage, error) {
	stage, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return repository.Stage{}, apperr.NotFound("pipeline stage not found")
	}
	return stage, err
}

// ResolveByKind returns the active stage classified with the given kind, or
// (nil, nil) when none is configured. At most one active WON and one LOST
// stage should exist; if the invariant is violated the first stage in board
// order wins and a warning is logged.
func (s *Service) ResolveByKind(ctx context.Context, kind string) (*repository.Stage, error) {
	stages, err := s.repo.FindActiveByKind(ctx, kind)
	if err != nil {
		return nil, err
	}
	if len(stages) == 0 {
		return nil, nil
	}
	if len(stages) > 1 && s.log != nil {
		s.log.Warn("multiple active stages share a terminal kind, using first by position",
			"kind", kind, "count", len(stages), "chosen", stages[0].ID)
	}
	return &stages[0], nil
}
