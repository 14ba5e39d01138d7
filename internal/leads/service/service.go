// Package service handles lead operations: capture, qualification status,
// scoring, tagging, notes and follow-up scheduling. Every mutation flows
// through a single applyLeadChanges primitive that persists the patch,
// records audit history and raises the update event.
package service

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"strings"
	"time"

	assignrepo "github.com/JamshedLatipov/crm-sub002/internal/assignments/repository"
	"github.com/JamshedLatipov/crm-sub002/internal/events"
	historyrepo "github.com/JamshedLatipov/crm-sub002/internal/history/repository"
	"github.com/JamshedLatipov/crm-sub002/internal/leads/domain"
	"github.com/JamshedLatipov/crm-sub002/internal/leads/repository"
	"github.com/JamshedLatipov/crm-sub002/internal/leads/transport"
	"github.com/JamshedLatipov/crm-sub002/platform/apperr"
	"github.com/JamshedLatipov/crm-sub002/platform/logger"

	"github.com/google/uuid"
)

// Repository defines the data access interface needed by the lead service.
type Repository interface {
	Create(ctx context.Context, params repository.CreateLeadParams) (repository.Lead, error)
	GetByID(ctx context.Context, id uuid.UUID) (repository.Lead, error)
	List(ctx context.Context) ([]repository.Lead, error)
	UpdateFields(ctx context.Context, id uuid.UUID, params repository.UpdateLeadParams) (repository.Lead, error)
}

// Assignments is the assignment subsystem consumed by lead reassignment.
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

// FollowUpScheduler enqueues a delayed follow-up reminder. Nil when the
// background scheduler is not configured; follow-ups still persist their due
// time but no reminder fires.
type FollowUpScheduler interface {
	ScheduleFollowUp(ctx context.Context, entityType string, entityID uuid.UUID, message string, at time.Time) error
}

// Service handles lead management operations.
type Service struct {
	repo        Repository
	assignments Assignments
	history     HistoryRecorder
	scheduler   FollowUpScheduler
	bus         events.Bus
	log         *logger.Logger
}

// New creates a new lead service. scheduler may be nil.
func New(repo Repository, assignments Assignments, history HistoryRecorder, scheduler FollowUpScheduler, bus events.Bus, log *logger.Logger) *Service {
	return &Service{
		repo:        repo,
		assignments: assignments,
		history:     history,
		scheduler:   scheduler,
		bus:         bus,
		log:         log,
	}
}

type change struct {
	field       string
	oldValue    string
	newValue    string
	changeType  string
	description string
	metadata    map[string]any
}

// Create captures a new lead and raises LeadCreated synchronously so
// automation rules on the created trigger run inline.
func (s *Service) Create(ctx context.Context, req transport.CreateLeadRequest, actor events.Actor) (transport.LeadResponse, error) {
	if req.Score < domain.ScoreMin || req.Score > domain.ScoreMax {
		return transport.LeadResponse{}, apperr.Validation("score must be between 0 and 100")
	}

	lead, err := s.repo.Create(ctx, repository.CreateLeadParams{
		Name:   req.Name,
		Email:  req.Email,
		Source: req.Source,
		Status: domain.LeadStatusNew,
		Score:  req.Score,
		Tags:   normalizeTags(req.Tags),
	})
	if err != nil {
		return transport.LeadResponse{}, err
	}

	s.recordHistory(ctx, historyrepo.AppendEntryParams{
		EntityType:  historyrepo.EntityTypeLead,
		EntityID:    lead.ID,
		ChangeType:  historyrepo.ChangeTypeCreated,
		ActorID:     actor.ID,
		ActorName:   actorName(actor),
		Description: "Lead created: " + lead.Name,
	})

	if err := s.bus.PublishSync(ctx, events.LeadCreated{
		BaseEvent: events.NewBaseEvent(),
		LeadID:    lead.ID,
		Name:      lead.Name,
		Status:    lead.Status,
		Score:     lead.Score,
		Source:    lead.Source,
		Actor:     actor,
	}); err != nil {
		s.log.Error("lead created event dispatch failed", "leadId", lead.ID, "error", err)
	}

	return transport.ToLeadResponse(lead), nil
}

// GetByID retrieves a lead by ID.
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (transport.LeadResponse, error) {
	lead, err := s.getLead(ctx, id)
	if err != nil {
		return transport.LeadResponse{}, err
	}
	return transport.ToLeadResponse(lead), nil
}

// List returns all leads.
func (s *Service) List(ctx context.Context) (transport.LeadListResponse, error) {
	leads, err := s.repo.List(ctx)
	if err != nil {
		return transport.LeadListResponse{}, err
	}
	return transport.ToLeadListResponse(leads), nil
}

// ChangeStatus mutates a lead's qualification status.
func (s *Service) ChangeStatus(ctx context.Context, id uuid.UUID, status string, actor events.Actor) (transport.LeadResponse, error) {
	if !domain.IsKnownStatus(status) {
		return transport.LeadResponse{}, apperr.Validation("unknown lead status: " + status)
	}

	lead, err := s.getLead(ctx, id)
	if err != nil {
		return transport.LeadResponse{}, err
	}
	if lead.Status == status {
		return transport.ToLeadResponse(lead), nil
	}

	patch := repository.UpdateLeadParams{Status: &status}
	changes := []change{{
		field:       domain.FieldStatus,
		oldValue:    lead.Status,
		newValue:    status,
		changeType:  historyrepo.ChangeTypeStatusChanged,
		description: "Lead status changed to " + status,
	}}

	updated, err := s.applyLeadChanges(ctx, lead.ID, patch, changes, actor)
	if err != nil {
		return transport.LeadResponse{}, err
	}
	return transport.ToLeadResponse(updated), nil
}

// ScoreLead sets the lead score.
func (s *Service) ScoreLead(ctx context.Context, id uuid.UUID, score int, actor events.Actor) (transport.LeadResponse, error) {
	if score < domain.ScoreMin || score > domain.ScoreMax {
		return transport.LeadResponse{}, apperr.Validation("score must be between 0 and 100")
	}

	lead, err := s.getLead(ctx, id)
	if err != nil {
		return transport.LeadResponse{}, err
	}
	if lead.Score == score {
		return transport.ToLeadResponse(lead), nil
	}

	patch := repository.UpdateLeadParams{Score: &score}
	changes := []change{{
		field:       domain.FieldScore,
		oldValue:    strconv.Itoa(lead.Score),
		newValue:    strconv.Itoa(score),
		changeType:  historyrepo.ChangeTypeScoreChanged,
		description: "Lead score set to " + strconv.Itoa(score),
	}}

	updated, err := s.applyLeadChanges(ctx, lead.ID, patch, changes, actor)
	if err != nil {
		return transport.LeadResponse{}, err
	}
	return transport.ToLeadResponse(updated), nil
}

// AdjustScore shifts the lead score by a delta, clamped to the valid range.
// Used by the automation update-score action.
func (s *Service) AdjustScore(ctx context.Context, id uuid.UUID, delta int, actor events.Actor) (transport.LeadResponse, error) {
	lead, err := s.getLead(ctx, id)
	if err != nil {
		return transport.LeadResponse{}, err
	}

	score := lead.Score + delta
	if score < domain.ScoreMin {
		score = domain.ScoreMin
	}
	if score > domain.ScoreMax {
		score = domain.ScoreMax
	}
	return s.ScoreLead(ctx, id, score, actor)
}

// AddTags merges the given tags into the lead's tag set.
func (s *Service) AddTags(ctx context.Context, id uuid.UUID, tags []string, actor events.Actor) (transport.LeadResponse, error) {
	lead, err := s.getLead(ctx, id)
	if err != nil {
		return transport.LeadResponse{}, err
	}

	merged := mergeTags(lead.Tags, normalizeTags(tags))
	if equalTags(lead.Tags, merged) {
		return transport.ToLeadResponse(lead), nil
	}

	return s.writeTags(ctx, lead, merged, "Tags added: "+strings.Join(tags, ", "), actor)
}

// RemoveTags removes the given tags from the lead's tag set. Removing a tag
// that is not present is a no-op.
func (s *Service) RemoveTags(ctx context.Context, id uuid.UUID, tags []string, actor events.Actor) (transport.LeadResponse, error) {
	lead, err := s.getLead(ctx, id)
	if err != nil {
		return transport.LeadResponse{}, err
	}

	remaining := removeTags(lead.Tags, normalizeTags(tags))
	if equalTags(lead.Tags, remaining) {
		return transport.ToLeadResponse(lead), nil
	}

	return s.writeTags(ctx, lead, remaining, "Tags removed: "+strings.Join(tags, ", "), actor)
}

func (s *Service) writeTags(ctx context.Context, lead repository.Lead, tags []string, description string, actor events.Actor) (transport.LeadResponse, error) {
	patch := repository.UpdateLeadParams{Tags: tags, TagsSet: true}
	changes := []change{{
		field:       domain.FieldTags,
		oldValue:    strings.Join(lead.Tags, ","),
		newValue:    strings.Join(tags, ","),
		changeType:  historyrepo.ChangeTypeUpdated,
		description: description,
	}}

	updated, err := s.applyLeadChanges(ctx, lead.ID, patch, changes, actor)
	if err != nil {
		return transport.LeadResponse{}, err
	}
	return transport.ToLeadResponse(updated), nil
}

// AssignLead reassigns a lead to a user. Assignees are referenced strictly by
// id; reassigning to the current owner is a no-op.
func (s *Service) AssignLead(ctx context.Context, id, userID uuid.UUID, assignedBy *uuid.UUID, reason string, actor events.Actor) (transport.LeadResponse, error) {
	lead, err := s.getLead(ctx, id)
	if err != nil {
		return transport.LeadResponse{}, err
	}

	current, err := s.assignments.GetCurrent(ctx, historyrepo.EntityTypeLead, id)
	if err != nil {
		return transport.LeadResponse{}, err
	}

	var previous *uuid.UUID
	if len(current) > 0 {
		previous = &current[0].UserID
	}
	if previous != nil && *previous == userID {
		return transport.ToLeadResponse(lead), nil
	}

	for _, existing := range current {
		if err := s.assignments.Remove(ctx, historyrepo.EntityTypeLead, id, existing.UserID); err != nil {
			s.log.Warn("failed to remove prior lead assignment", "leadId", id, "userId", existing.UserID, "error", err)
		}
	}

	if _, err := s.assignments.Create(ctx, assignrepo.CreateAssignmentParams{
		EntityType: historyrepo.EntityTypeLead,
		EntityID:   id,
		UserID:     userID,
		AssignedBy: assignedBy,
		Reason:     reason,
	}); err != nil {
		return transport.LeadResponse{}, err
	}

	field := domain.FieldAssignee
	oldValue := ""
	if previous != nil {
		oldValue = previous.String()
	}
	newValue := userID.String()
	s.recordHistory(ctx, historyrepo.AppendEntryParams{
		EntityType:  historyrepo.EntityTypeLead,
		EntityID:    id,
		FieldName:   &field,
		OldValue:    &oldValue,
		NewValue:    &newValue,
		ChangeType:  historyrepo.ChangeTypeAssigned,
		ActorID:     actor.ID,
		ActorName:   actorName(actor),
		Description: "Lead assigned to user " + newValue,
	})

	s.publishUpdated(ctx, lead, []events.FieldChange{{Field: domain.FieldAssignee, Old: oldValue, New: newValue}}, actor)

	return transport.ToLeadResponse(lead), nil
}

// AddNote appends a free-form note to the lead's audit trail. Notes live only
// in history; there is no notes column on the lead row.
func (s *Service) AddNote(ctx context.Context, id uuid.UUID, text string, actor events.Actor) error {
	if strings.TrimSpace(text) == "" {
		return apperr.Validation("note text is required")
	}
	if _, err := s.getLead(ctx, id); err != nil {
		return err
	}

	_, err := s.history.Record(ctx, historyrepo.AppendEntryParams{
		EntityType:  historyrepo.EntityTypeLead,
		EntityID:    id,
		ChangeType:  historyrepo.ChangeTypeNoteAdded,
		ActorID:     actor.ID,
		ActorName:   actorName(actor),
		Description: text,
	})
	return err
}

// ScheduleFollowUp stamps the lead's follow-up time and enqueues a delayed
// reminder when the scheduler is configured.
func (s *Service) ScheduleFollowUp(ctx context.Context, id uuid.UUID, at time.Time, message string, actor events.Actor) (transport.LeadResponse, error) {
	lead, err := s.getLead(ctx, id)
	if err != nil {
		return transport.LeadResponse{}, err
	}

	followUp := at
	patch := repository.UpdateLeadParams{FollowUpAt: &followUp, FollowUpAtSet: true}
	changes := []change{{
		field:       domain.FieldFollowUpAt,
		oldValue:    fmtTimePtr(lead.FollowUpAt),
		newValue:    at.Format(time.RFC3339),
		changeType:  historyrepo.ChangeTypeDateChanged,
		description: "Follow-up scheduled",
		metadata:    map[string]any{"message": message},
	}}

	updated, err := s.applyLeadChanges(ctx, lead.ID, patch, changes, actor)
	if err != nil {
		return transport.LeadResponse{}, err
	}

	if s.scheduler != nil {
		if err := s.scheduler.ScheduleFollowUp(ctx, historyrepo.EntityTypeLead, lead.ID, message, at); err != nil {
			s.log.Error("failed to enqueue follow-up reminder", "leadId", lead.ID, "error", err)
		}
	} else {
		s.log.Warn("follow-up scheduler not configured, reminder will not fire", "leadId", lead.ID)
	}

	return transport.ToLeadResponse(updated), nil
}

// applyLeadChanges is the single internal mutation primitive for lead rows.
func (s *Service) applyLeadChanges(ctx context.Context, id uuid.UUID, patch repository.UpdateLeadParams, changes []change, actor events.Actor) (repository.Lead, error) {
	updated, err := s.repo.UpdateFields(ctx, id, patch)
	if errors.Is(err, repository.ErrNotFound) {
		return repository.Lead{}, apperr.NotFound("lead not found")
	}
	if err != nil {
		return repository.Lead{}, err
	}

	fieldChanges := make([]events.FieldChange, 0, len(changes))
	for _, ch := range changes {
		field := ch.field
		oldValue := ch.oldValue
		newValue := ch.newValue
		s.recordHistory(ctx, historyrepo.AppendEntryParams{
			EntityType:  historyrepo.EntityTypeLead,
			EntityID:    id,
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

	s.publishUpdated(ctx, updated, fieldChanges, actor)
	return updated, nil
}

func (s *Service) publishUpdated(ctx context.Context, lead repository.Lead, changes []events.FieldChange, actor events.Actor) {
	if err := s.bus.PublishSync(ctx, events.LeadUpdated{
		BaseEvent: events.NewBaseEvent(),
		LeadID:    lead.ID,
		Name:      lead.Name,
		Status:    lead.Status,
		Score:     lead.Score,
		Source:    lead.Source,
		Changes:   changes,
		Actor:     actor,
	}); err != nil {
		s.log.Error("lead updated event dispatch failed", "leadId", lead.ID, "error", err)
	}
}

func (s *Service) getLead(ctx context.Context, id uuid.UUID) (repository.Lead, error) {
	lead, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return repository.Lead{}, apperr.NotFound("lead not found")
	}
	return lead, err
}

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

func fmtTimePtr(v *time.Time) string {
	if v == nil {
		return ""
	}
	return v.Format(time.RFC3339)
}

func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		trimmed := strings.TrimSpace(tag)
		if trimmed == "" {
			continue
		}
		key := strings.ToLower(trimmed)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, trimmed)
	}
	return out
}

func mergeTags(existing, incoming []string) []string {
	merged := make([]string, 0, len(existing)+len(incoming))
	seen := make(map[string]struct{}, len(existing)+len(incoming))
	for _, tag := range append(append([]string{}, existing...), incoming...) {
		key := strings.ToLower(tag)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		merged = append(merged, tag)
	}
	return merged
}

func removeTags(existing, toRemove []string) []string {
	drop := make(map[string]struct{}, len(toRemove))
	for _, tag := range toRemove {
		drop[strings.ToLower(tag)] = struct{}{}
	}
	remaining := make([]string, 0, len(existing))
	for _, tag := range existing {
		if _, gone := drop[strings.ToLower(tag)]; gone {
			continue
		}
		remaining = append(remaining, tag)
	}
	return remaining
}

func equalTags(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	as := append([]string{}, a...)
	bs := append([]string{}, b...)
	sort.Strings(as)
	sort.Strings(bs)
	for i := range as {
		if as[i] != bs[i] {
			return false
		}
	}
	return true
}
