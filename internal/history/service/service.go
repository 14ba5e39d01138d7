// Package service implements the history recorder: the single write path for
// the append-only audit trail. Recording failures are surfaced to callers as
// plain errors; callers log them and never fail their primary mutation.
package service

import (
	"context"

	"github.com/JamshedLatipov/crm-sub002/internal/history/repository"

	"github.com/google/uuid"
)

// Repository defines the data access interface needed by the history service.
type Repository interface {
	Append(ctx context.Context, params repository.AppendEntryParams) (repository.Entry, error)
	ListByEntity(ctx context.Context, entityType string, entityID uuid.UUID) ([]repository.Entry, error)
	DeleteOlderThan(ctx context.Context, days int) (int64, error)
}

// Service is the history recorder.
type Service struct {
	repo Repository
}

// New creates a new history service.
func New(repo Repository) *Service {
	return &Service{repo: repo}
}

// Record appends one audit entry. Entries are immutable once written.
func (s *Service) Record(ctx context.Context, params repository.AppendEntryParams) (repository.Entry, error) {
	params.Description = repository.TruncateDescription(params.Description, repository.DescriptionMaxLen)
	return s.repo.Append(ctx, params)
}

// ListByEntity returns the audit trail for one entity, oldest first.
func (s *Service) ListByEntity(ctx context.Context, entityType string, entityID uuid.UUID) ([]repository.Entry, error) {
	return s.repo.ListByEntity(ctx, entityType, entityID)
}

// DeleteOlderThan removes entries older than the given number of days.
// Maintenance entry point used by the retention cleanup job and ops API.
func (s *Service) DeleteOlderThan(ctx context.Context, days int) (int64, error) {
	return s.repo.DeleteOlderThan(ctx, days)
}
