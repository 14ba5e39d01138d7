package service

import (
	"context"
	"testing"
	"time"

	assignrepo "github.com/JamshedLatipov/crm-sub002/internal/assignments/repository"
	"github.com/JamshedLatipov/crm-sub002/internal/events"
	historyrepo "github.com/JamshedLatipov/crm-sub002/internal/history/repository"
	"github.com/JamshedLatipov/crm-sub002/internal/leads/domain"
	"github.com/JamshedLatipov/crm-sub002/internal/leads/repository"
	"github.com/JamshedLatipov/crm-sub002/internal/leads/transport"
	"github.com/JamshedLatipov/crm-sub002/platform/logger"

	"github.com/google/uuid"
)

type fakeLeadRepo struct {
	leads map[uuid.UUID]repository.Lead
}

func newFakeLeadRepo() *fakeLeadRepo {
	return &fakeLeadRepo{leads: make(map[uuid.UUID]repository.Lead)}
}

func (f *fakeLeadRepo) Create(_ context.Context, params repository.CreateLeadParams) (repository.Lead, error) {
	lead := repository.Lead{
		ID:        uuid.New(),
		Name:      params.Name,
		Email:     params.Email,
		Source:    params.Source,
		Status:    params.Status,
		Score:     params.Score,
		Tags:      params.Tags,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	f.leads[lead.ID] = lead
	return lead, nil
}

func (f *fakeLeadRepo) GetByID(_ context.Context, id uuid.UUID) (repository.Lead, error) {
	lead, ok := f.leads[id]
	if !ok {
		return repository.Lead{}, repository.ErrNotFound
	}
	return lead, nil
}

func (f *fakeLeadRepo) List(_ context.Context) ([]repository.Lead, error) {
	items := make([]repository.Lead, 0, len(f.leads))
	for _, lead := range f.leads {
		items = append(items, lead)
	}
	return items, nil
}

func (f *fakeLeadRepo) UpdateFields(_ context.Context, id uuid.UUID, params repository.UpdateLeadParams) (repository.Lead, error) {
	lead, ok := f.leads[id]
	if !ok {
		return repository.Lead{}, repository.ErrNotFound
	}
	if params.Name != nil {
		lead.Name = *params.Name
	}
	if params.Email != nil {
		lead.Email = *params.Email
	}
	if params.Source != nil {
		lead.Source = *params.Source
	}
	if params.Status != nil {
		lead.Status = *params.Status
	}
	if params.Score != nil {
		lead.Score = *params.Score
	}
	if params.TagsSet {
		lead.Tags = params.Tags
	}
	if params.FollowUpAtSet {
		lead.FollowUpAt = params.FollowUpAt
	}
	lead.UpdatedAt = time.Now()
	f.leads[id] = lead
	return lead, nil
}

type fakeAssignments struct {
	items []assignrepo.Assignment
}

func (f *fakeAssignments) Create(_ context.Context, params assignrepo.CreateAssignmentParams) (assignrepo.Assignment, error) {
	a := assignrepo.Assignment{
		ID:         uuid.New(),
		EntityType: params.EntityType,
		EntityID:   params.EntityID,
		UserID:     params.UserID,
		AssignedBy: params.AssignedBy,
		Reason:     params.Reason,
		CreatedAt:  time.Now(),
	}
	f.items = append(f.items, a)
	return a, nil
}

func (f *fakeAssignments) Remove(_ context.Context, entityType string, entityID, userID uuid.UUID) error {
	kept := f.items[:0]
	for _, a := range f.items {
		if a.EntityType == entityType && a.EntityID == entityID && a.UserID == userID {
			continue
		}
		kept = append(kept, a)
	}
	f.items = kept
	return nil
}

func (f *fakeAssignments) GetCurrent(_ context.Context, entityType string, entityID uuid.UUID) ([]assignrepo.Assignment, error) {
	out := make([]assignrepo.Assignment, 0)
	for _, a := range f.items {
		if a.EntityType == entityType && a.EntityID == entityID {
			out = append(out, a)
		}
	}
	return out, nil
}

type fakeHistory struct {
	entries []historyrepo.AppendEntryParams
}

func (f *fakeHistory) Record(_ context.Context, params historyrepo.AppendEntryParams) (historyrepo.Entry, error) {
	f.entries = append(f.entries, params)
	return historyrepo.Entry{}, nil
}

func (f *fakeHistory) countByType(changeType string) int {
	n := 0
	for _, e := range f.entries {
		if e.ChangeType == changeType {
			n++
		}
	}
	return n
}

type fakeFollowUpScheduler struct {
	calls []time.Time
}

func (f *fakeFollowUpScheduler) ScheduleFollowUp(_ context.Context, _ string, _ uuid.UUID, _ string, at time.Time) error {
	f.calls = append(f.calls, at)
	return nil
}

type fixture struct {
	svc       *Service
	repo      *fakeLeadRepo
	history   *fakeHistory
	scheduler *fakeFollowUpScheduler
	bus       *events.InMemoryBus
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log := logger.New("development")
	repo := newFakeLeadRepo()
	history := &fakeHistory{}
	scheduler := &fakeFollowUpScheduler{}
	bus := events.NewInMemoryBus(log)
	return &fixture{
		svc:       New(repo, &fakeAssignments{}, history, scheduler, bus, log),
		repo:      repo,
		history:   history,
		scheduler: scheduler,
		bus:       bus,
	}
}

func (fx *fixture) createLead(t *testing.T) transport.LeadResponse {
	t.Helper()
	lead, err := fx.svc.Create(context.Background(), transport.CreateLeadRequest{
		Name:   "Ada",
		Email:  "ada@example.com",
		Source: "webform",
		Score:  10,
	}, events.Actor{Name: "tester"})
	if err != nil {
		t.Fatalf("create lead: %v", err)
	}
	return lead
}

func TestCreateStartsAsNewAndPublishes(t *testing.T) {
	fx := newFixture(t)

	var got *events.LeadCreated
	fx.bus.Subscribe("leads.created", events.HandlerFunc(func(_ context.Context, e events.Event) error {
		ev := e.(events.LeadCreated)
		got = &ev
		return nil
	}))

	lead := fx.createLead(t)

	if lead.Status != domain.LeadStatusNew {
		t.Fatalf("status = %s, want new", lead.Status)
	}
	if got == nil || got.LeadID != lead.ID {
		t.Fatal("expected leads.created event for the new lead")
	}
	if fx.history.countByType(historyrepo.ChangeTypeCreated) != 1 {
		t.Fatal("expected one created history entry")
	}
}

func TestChangeStatusWritesHistory(t *testing.T) {
	fx := newFixture(t)
	lead := fx.createLead(t)

	result, err := fx.svc.ChangeStatus(context.Background(), lead.ID, domain.LeadStatusQualified, events.Actor{})
	if err != nil {
		t.Fatalf("change status: %v", err)
	}

	if result.Status != domain.LeadStatusQualified {
		t.Fatalf("status = %s, want qualified", result.Status)
	}
	if fx.history.countByType(historyrepo.ChangeTypeStatusChanged) != 1 {
		t.Fatal("expected a status_changed history entry")
	}
}

func TestChangeStatusRejectsUnknown(t *testing.T) {
	fx := newFixture(t)
	lead := fx.createLead(t)

	if _, err := fx.svc.ChangeStatus(context.Background(), lead.ID, "stale", events.Actor{}); err == nil {
		t.Fatal("expected validation error for unknown status")
	}
}

func TestScoreLeadBoundsChecked(t *testing.T) {
	fx := newFixture(t)
	lead := fx.createLead(t)

	if _, err := fx.svc.ScoreLead(context.Background(), lead.ID, 101, events.Actor{}); err == nil {
		t.Fatal("expected validation error for out-of-range score")
	}

	result, err := fx.svc.ScoreLead(context.Background(), lead.ID, 80, events.Actor{})
	if err != nil {
		t.Fatalf("score lead: %v", err)
	}
	if result.Score != 80 {
		t.Fatalf("score = %d, want 80", result.Score)
	}
	if fx.history.countByType(historyrepo.ChangeTypeScoreChanged) != 1 {
		t.Fatal("expected a score_changed history entry")
	}
}

func TestAdjustScoreClampsToRange(t *testing.T) {
	fx := newFixture(t)
	lead := fx.createLead(t)

	result, err := fx.svc.AdjustScore(context.Background(), lead.ID, 500, events.Actor{})
	if err != nil {
		t.Fatalf("adjust score: %v", err)
	}
	if result.Score != domain.ScoreMax {
		t.Fatalf("score = %d, want clamped to %d", result.Score, domain.ScoreMax)
	}

	result, err = fx.svc.AdjustScore(context.Background(), lead.ID, -500, events.Actor{})
	if err != nil {
		t.Fatalf("adjust score down: %v", err)
	}
	if result.Score != domain.ScoreMin {
		t.Fatalf("score = %d, want clamped to %d", result.Score, domain.ScoreMin)
	}
}

func TestAddAndRemoveTags(t *testing.T) {
	fx := newFixture(t)
	lead := fx.createLead(t)

	result, err := fx.svc.AddTags(context.Background(), lead.ID, []string{"hot", "priority", "hot"}, events.Actor{})
	if err != nil {
		t.Fatalf("add tags: %v", err)
	}
	if len(result.Tags) != 2 {
		t.Fatalf("tags = %v, want deduplicated pair", result.Tags)
	}

	// Removing an absent tag is a no-op
	before := len(fx.history.entries)
	if _, err := fx.svc.RemoveTags(context.Background(), lead.ID, []string{"cold"}, events.Actor{}); err != nil {
		t.Fatalf("remove absent tag: %v", err)
	}
	if len(fx.history.entries) != before {
		t.Fatal("removing an absent tag should not write history")
	}

	result, err = fx.svc.RemoveTags(context.Background(), lead.ID, []string{"HOT"}, events.Actor{})
	if err != nil {
		t.Fatalf("remove tags: %v", err)
	}
	if len(result.Tags) != 1 || result.Tags[0] != "priority" {
		t.Fatalf("tags = %v, want [priority]", result.Tags)
	}
}

func TestAssignLeadIsIdempotentForSameUser(t *testing.T) {
	fx := newFixture(t)
	lead := fx.createLead(t)
	user := uuid.New()

	if _, err := fx.svc.AssignLead(context.Background(), lead.ID, user, nil, "", events.Actor{}); err != nil {
		t.Fatalf("assign: %v", err)
	}
	before := fx.history.countByType(historyrepo.ChangeTypeAssigned)

	if _, err := fx.svc.AssignLead(context.Background(), lead.ID, user, nil, "", events.Actor{}); err != nil {
		t.Fatalf("assign again: %v", err)
	}
	if fx.history.countByType(historyrepo.ChangeTypeAssigned) != before {
		t.Fatal("assigning the current owner again should not write history")
	}
}

func TestAddNoteRecordsHistoryOnly(t *testing.T) {
	fx := newFixture(t)
	lead := fx.createLead(t)

	if err := fx.svc.AddNote(context.Background(), lead.ID, "called, no answer", events.Actor{Name: "rep"}); err != nil {
		t.Fatalf("add note: %v", err)
	}

	if fx.history.countByType(historyrepo.ChangeTypeNoteAdded) != 1 {
		t.Fatal("expected a note_added history entry")
	}
}

func TestScheduleFollowUpEnqueuesReminder(t *testing.T) {
	fx := newFixture(t)
	lead := fx.createLead(t)
	due := time.Now().Add(48 * time.Hour)

	result, err := fx.svc.ScheduleFollowUp(context.Background(), lead.ID, due, "check in", events.Actor{})
	if err != nil {
		t.Fatalf("schedule follow-up: %v", err)
	}

	if result.FollowUpAt == nil || !result.FollowUpAt.Equal(due) {
		t.Fatalf("followUpAt = %v, want %v", result.FollowUpAt, due)
	}
	if len(fx.scheduler.calls) != 1 {
		t.Fatalf("scheduler calls = %d, want 1", len(fx.scheduler.calls))
	}
	if fx.history.countByType(historyrepo.ChangeTypeDateChanged) != 1 {
		t.Fatal("expected a date_changed history entry")
	}
}
