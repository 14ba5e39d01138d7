package service

import (
	"context"
	"testing"

	"github.com/JamshedLatipov/crm-sub002/internal/pipeline/domain"
	"github.com/JamshedLatipov/crm-sub002/internal/pipeline/repository"
	"github.com/JamshedLatipov/crm-sub002/platform/apperr"
	"github.com/JamshedLatipov/crm-sub002/platform/logger"

	"github.com/google/uuid"
)

type fakeStageRepo struct {
	stages []repository.Stage
}

func (f *fakeStageRepo) Create(_ context.Context, params repository.CreateStageParams) (repository.Stage, error) {
	stage := repository.Stage{
		ID:                 uuid.New(),
		Name:               params.Name,
		Kind:               params.Kind,
		DefaultProbability: params.DefaultProbability,
		Position:           params.Position,
		IsActive:           true,
	}
	f.stages = append(f.stages, stage)
	return stage, nil
}

func (f *fakeStageRepo) FindByID(_ context.Context, id uuid.UUID) (repository.Stage, error) {
	for _, stage := range f.stages {
		if stage.ID == id {
			return stage, nil
		}
	}
	return repository.Stage{}, repository.ErrNotFound
}

func (f *fakeStageRepo) List(_ context.Context) ([]repository.Stage, error) {
	return f.stages, nil
}

func (f *fakeStageRepo) FindActiveByKind(_ context.Context, kind string) ([]repository.Stage, error) {
	var out []repository.Stage
	for _, stage := range f.stages {
		if stage.Kind == kind && stage.IsActive {
			out = append(out, stage)
		}
	}
	return out, nil
}

func TestCreateRejectsUnknownKind(t *testing.T) {
	svc := New(&fakeStageRepo{}, logger.New("development"))

	_, err := svc.Create(context.Background(), repository.CreateStageParams{Name: "Weird", Kind: "maybe"})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCreateRejectsProbabilityOutOfRange(t *testing.T) {
	svc := New(&fakeStageRepo{}, logger.New("development"))

	_, err := svc.Create(context.Background(), repository.CreateStageParams{
		Name: "Negotiation", Kind: domain.StageKindNormal, DefaultProbability: 120,
	})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestGetByIDMapsNotFound(t *testing.T) {
	svc := New(&fakeStageRepo{}, logger.New("development"))

	_, err := svc.GetByID(context.Background(), uuid.New())
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found error, got %v", err)
	}
}

func TestResolveByKindWithoutStageReturnsNil(t *testing.T) {
	svc := New(&fakeStageRepo{}, logger.New("development"))

	stage, err := svc.ResolveByKind(context.Background(), domain.StageKindWon)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if stage != nil {
		t.Fatalf("expected no stage, got %+v", stage)
	}
}

func TestResolveByKindPrefersFirstByPosition(t *testing.T) {
	repo := &fakeStageRepo{}
	svc := New(repo, logger.New("development"))

	// FindActiveByKind returns rows in board order; the fake preserves
	// insertion order, so insert the earlier position first.
	first, err := svc.Create(context.Background(), repository.CreateStageParams{
		Name: "Closed Won", Kind: domain.StageKindWon, DefaultProbability: 100, Position: 5,
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if _, err := svc.Create(context.Background(), repository.CreateStageParams{
		Name: "Also Won", Kind: domain.StageKindWon, DefaultProbability: 100, Position: 9,
	}); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	stage, err := svc.ResolveByKind(context.Background(), domain.StageKindWon)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if stage == nil || stage.ID != first.ID {
		t.Fatalf("expected the first won stage to win, got %+v", stage)
	}
}
