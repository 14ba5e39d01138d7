package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/JamshedLatipov/crm-sub002/internal/automation/domain"
	"github.com/JamshedLatipov/crm-sub002/internal/events"

	"github.com/google/uuid"
)

type fakeDealActions struct {
	calls      []string
	failOn     string
	lastActor  events.Actor
	lastStage  uuid.UUID
	lastAmount float64
}

func (f *fakeDealActions) record(call string) error {
	f.calls = append(f.calls, call)
	if f.failOn == call {
		return errors.New(call + " failed")
	}
	return nil
}

func (f *fakeDealActions) MoveToStage(_ context.Context, _, stageID uuid.UUID, actor events.Actor) error {
	f.lastStage = stageID
	f.lastActor = actor
	return f.record("move_to_stage")
}

func (f *fakeDealActions) ChangeStatus(_ context.Context, _ uuid.UUID, _ string, actor events.Actor) error {
	f.lastActor = actor
	return f.record("change_status")
}

func (f *fakeDealActions) UpdateAmount(_ context.Context, _ uuid.UUID, amount float64, actor events.Actor) error {
	f.lastAmount = amount
	f.lastActor = actor
	return f.record("update_amount")
}

func (f *fakeDealActions) UpdateProbability(_ context.Context, _ uuid.UUID, _ int, actor events.Actor) error {
	f.lastActor = actor
	return f.record("update_probability")
}

func (f *fakeDealActions) Assign(_ context.Context, _, _ uuid.UUID, _ string, actor events.Actor) error {
	f.lastActor = actor
	return f.record("assign")
}

type fakeLeadActions struct {
	calls     []string
	lastDelta int
	lastTags  []string
}

func (f *fakeLeadActions) ChangeStatus(_ context.Context, _ uuid.UUID, _ string, _ events.Actor) error {
	f.calls = append(f.calls, "change_status")
	return nil
}

func (f *fakeLeadActions) AdjustScore(_ context.Context, _ uuid.UUID, delta int, _ events.Actor) error {
	f.lastDelta = delta
	f.calls = append(f.calls, "adjust_score")
	return nil
}

func (f *fakeLeadActions) AddTags(_ context.Context, _ uuid.UUID, tags []string, _ events.Actor) error {
	f.lastTags = tags
	f.calls = append(f.calls, "add_tags")
	return nil
}

func (f *fakeLeadActions) RemoveTags(_ context.Context, _ uuid.UUID, tags []string, _ events.Actor) error {
	f.lastTags = tags
	f.calls = append(f.calls, "remove_tags")
	return nil
}

func (f *fakeLeadActions) Assign(_ context.Context, _, _ uuid.UUID, _ string, _ events.Actor) error {
	f.calls = append(f.calls, "assign")
	return nil
}

type fakeNotifier struct {
	sent []Notification
	err  error
}

func (f *fakeNotifier) Send(_ context.Context, n Notification) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, n)
	return nil
}

type fakeReminders struct {
	messages []string
	times    []time.Time
}

func (f *fakeReminders) Schedule(_ context.Context, _ EntityKind, _ uuid.UUID, message string, at time.Time) error {
	f.messages = append(f.messages, message)
	f.times = append(f.times, at)
	return nil
}

type fakeActivity struct {
	messages []string
}

func (f *fakeActivity) Record(_ context.Context, _ EntityKind, _ uuid.UUID, message string) error {
	f.messages = append(f.messages, message)
	return nil
}

type executorFixture struct {
	executor  *Executor
	deals     *fakeDealActions
	leads     *fakeLeadActions
	notifier  *fakeNotifier
	reminders *fakeReminders
	activity  *fakeActivity
}

func newExecutorFixture() *executorFixture {
	f := &executorFixture{
		deals:     &fakeDealActions{},
		leads:     &fakeLeadActions{},
		notifier:  &fakeNotifier{},
		reminders: &fakeReminders{},
		activity:  &fakeActivity{},
	}
	f.executor = NewExecutor(f.deals, f.leads, f.notifier, f.reminders, f.activity, testLogger())
	return f
}

func action(t domain.ActionType, config map[string]domain.Value) domain.ActionClause {
	return domain.ActionClause{Type: t, Config: config}
}

func TestMidListFailureDoesNotStopRemainingActions(t *testing.T) {
	f := newExecutorFixture()
	f.deals.failOn = "change_status"

	rule := domain.Rule{
		ID:   uuid.New(),
		Name: "three actions",
		Actions: []domain.ActionClause{
			action(domain.ActionUpdateProbability, map[string]domain.Value{"probability": domain.NumberValue(80)}),
			action(domain.ActionChangeStatus, map[string]domain.Value{"status": domain.StringValue("won")}),
			action(domain.ActionUpdateAmount, map[string]domain.Value{"amount": domain.NumberValue(9000)}),
		},
	}

	f.executor.Execute(context.Background(), rule, dealSnapshot())

	want := []string{"update_probability", "change_status", "update_amount"}
	if len(f.deals.calls) != len(want) {
		t.Fatalf("expected %d calls, got %v", len(want), f.deals.calls)
	}
	for i, call := range want {
		if f.deals.calls[i] != call {
			t.Fatalf("call %d: got %q, want %q", i, f.deals.calls[i], call)
		}
	}
	if f.deals.lastAmount != 9000 {
		t.Fatalf("update_amount after a failed action should still apply, got %v", f.deals.lastAmount)
	}
}

func TestEntityMutationsRunUnderAutomationActor(t *testing.T) {
	f := newExecutorFixture()
	stageID := uuid.New()

	rule := domain.Rule{
		ID:   uuid.New(),
		Name: "move stage",
		Actions: []domain.ActionClause{
			action(domain.ActionChangeStage, map[string]domain.Value{"stageId": domain.StringValue(stageID.String())}),
		},
	}

	f.executor.Execute(context.Background(), rule, dealSnapshot())

	if f.deals.lastStage != stageID {
		t.Fatalf("stage id not forwarded: got %s", f.deals.lastStage)
	}
	if f.deals.lastActor.Name != AutomationActor.Name {
		t.Fatalf("mutation actor = %q, want %q", f.deals.lastActor.Name, AutomationActor.Name)
	}
}

func TestDealOnlyActionIsNoOpOnLead(t *testing.T) {
	f := newExecutorFixture()

	rule := domain.Rule{
		ID:   uuid.New(),
		Name: "wrong target",
		Actions: []domain.ActionClause{
			action(domain.ActionChangeStage, map[string]domain.Value{"stageId": domain.StringValue(uuid.NewString())}),
			action(domain.ActionUpdateAmount, map[string]domain.Value{"amount": domain.NumberValue(100)}),
			action(domain.ActionUpdateScore, map[string]domain.Value{"delta": domain.NumberValue(5)}),
		},
	}

	f.executor.Execute(context.Background(), rule, leadSnapshot())

	if len(f.deals.calls) != 0 {
		t.Fatalf("deal actions must not run on a lead: %v", f.deals.calls)
	}
	if f.leads.lastDelta != 5 {
		t.Fatalf("lead-applicable action should still run, delta = %d", f.leads.lastDelta)
	}
}

func TestTagActions(t *testing.T) {
	f := newExecutorFixture()

	rule := domain.Rule{
		ID:   uuid.New(),
		Name: "tagging",
		Actions: []domain.ActionClause{
			action(domain.ActionAddTags, map[string]domain.Value{"tags": domain.ListValue([]string{"hot", "priority"})}),
			action(domain.ActionRemoveTags, map[string]domain.Value{"tags": domain.ListValue([]string{"cold"})}),
		},
	}

	f.executor.Execute(context.Background(), rule, leadSnapshot())

	if len(f.leads.calls) != 2 || f.leads.calls[0] != "add_tags" || f.leads.calls[1] != "remove_tags" {
		t.Fatalf("unexpected lead calls: %v", f.leads.calls)
	}
	if len(f.leads.lastTags) != 1 || f.leads.lastTags[0] != "cold" {
		t.Fatalf("remove_tags payload not forwarded: %v", f.leads.lastTags)
	}
}

func TestSendNotificationDefaultsChannel(t *testing.T) {
	f := newExecutorFixture()
	snap := leadSnapshot()

	rule := domain.Rule{
		ID:   uuid.New(),
		Name: "notify",
		Actions: []domain.ActionClause{
			action(domain.ActionSendNotification, map[string]domain.Value{
				"recipient": domain.StringValue("sales@example.com"),
				"subject":   domain.StringValue("Hot lead"),
			}),
		},
	}

	f.executor.Execute(context.Background(), rule, snap)

	if len(f.notifier.sent) != 1 {
		t.Fatalf("expected one notification, got %d", len(f.notifier.sent))
	}
	sent := f.notifier.sent[0]
	if sent.Channel != "inapp" {
		t.Fatalf("channel should default to inapp, got %q", sent.Channel)
	}
	if sent.EntityID != snap.ID || sent.EntityKind != EntityLead {
		t.Fatal("notification should carry the triggering entity")
	}
}

func TestReminderDefaultsMessageAndDelay(t *testing.T) {
	f := newExecutorFixture()

	rule := domain.Rule{
		ID:      uuid.New(),
		Name:    "follow up stale deal",
		Actions: []domain.ActionClause{action(domain.ActionSetReminder, nil)},
	}

	before := time.Now()
	f.executor.Execute(context.Background(), rule, dealSnapshot())

	if len(f.reminders.messages) != 1 {
		t.Fatalf("expected one reminder, got %d", len(f.reminders.messages))
	}
	if f.reminders.messages[0] != rule.Name {
		t.Fatalf("reminder message should default to the rule name, got %q", f.reminders.messages[0])
	}
	delay := f.reminders.times[0].Sub(before)
	if delay < 23*time.Hour || delay > 25*time.Hour {
		t.Fatalf("reminder delay should default to 24h, got %v", delay)
	}
}

func TestLogActivityDefaultsMessage(t *testing.T) {
	f := newExecutorFixture()

	rule := domain.Rule{
		ID:      uuid.New(),
		Name:    "audit",
		Actions: []domain.ActionClause{action(domain.ActionLogActivity, nil)},
	}

	f.executor.Execute(context.Background(), rule, dealSnapshot())

	if len(f.activity.messages) != 1 {
		t.Fatalf("expected one activity entry, got %d", len(f.activity.messages))
	}
	if f.activity.messages[0] != "Automation rule fired: audit" {
		t.Fatalf("unexpected activity message: %q", f.activity.messages[0])
	}
}

func TestEntityActionsAreNoOpsInSyntheticContext(t *testing.T) {
	f := newExecutorFixture()

	rule := domain.Rule{
		ID:   uuid.New(),
		Name: "time based",
		Actions: []domain.ActionClause{
			action(domain.ActionChangeStatus, map[string]domain.Value{"status": domain.StringValue("open")}),
			action(domain.ActionLogActivity, nil),
			action(domain.ActionSetReminder, nil),
			action(domain.ActionSendNotification, map[string]domain.Value{"body": domain.StringValue("digest")}),
		},
	}

	f.executor.Execute(context.Background(), rule, Snapshot{Kind: EntityNone})

	if len(f.deals.calls) != 0 || len(f.leads.calls) != 0 {
		t.Fatal("entity mutations must be no-ops without an entity")
	}
	if len(f.activity.messages) != 0 || len(f.reminders.messages) != 0 {
		t.Fatal("entity-bound side effects must be no-ops without an entity")
	}
	if len(f.notifier.sent) != 1 {
		t.Fatal("send_notification does not need an entity and should still run")
	}
}

func TestMissingPortsDoNotPanic(t *testing.T) {
	x := NewExecutor(nil, nil, nil, nil, nil, testLogger())

	rule := domain.Rule{
		ID:   uuid.New(),
		Name: "unwired",
		Actions: []domain.ActionClause{
			action(domain.ActionChangeStatus, map[string]domain.Value{"status": domain.StringValue("won")}),
			action(domain.ActionSendNotification, nil),
			action(domain.ActionSetReminder, nil),
			action(domain.ActionLogActivity, nil),
		},
	}

	x.Execute(context.Background(), rule, dealSnapshot())
}

func TestInvalidConfigIsIsolatedPerClause(t *testing.T) {
	f := newExecutorFixture()

	rule := domain.Rule{
		ID:   uuid.New(),
		Name: "bad config",
		Actions: []domain.ActionClause{
			action(domain.ActionAssignToUser, map[string]domain.Value{"userId": domain.StringValue("not-a-uuid")}),
			action(domain.ActionUpdateAmount, map[string]domain.Value{"amount": domain.NumberValue(1500)}),
		},
	}

	f.executor.Execute(context.Background(), rule, dealSnapshot())

	if len(f.deals.calls) != 1 || f.deals.calls[0] != "update_amount" {
		t.Fatalf("invalid clause should be skipped, valid one applied: %v", f.deals.calls)
	}
}
