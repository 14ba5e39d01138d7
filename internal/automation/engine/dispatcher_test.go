package engine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/JamshedLatipov/crm-sub002/internal/automation/domain"
	dealdomain "github.com/JamshedLatipov/crm-sub002/internal/deals/domain"
	"github.com/JamshedLatipov/crm-sub002/internal/events"
	leaddomain "github.com/JamshedLatipov/crm-sub002/internal/leads/domain"

	"github.com/google/uuid"
)

type fakeRuleSource struct {
	mu      sync.Mutex
	rules   map[domain.Trigger][]domain.Rule
	queried []domain.Trigger
	marked  []uuid.UUID
	findErr error
	markErr error
	blockOn chan struct{} // when non-nil, FindActiveByTrigger waits for it
	entered chan struct{} // signalled once a blocked call has started
}

func (f *fakeRuleSource) FindActiveByTrigger(_ context.Context, trigger domain.Trigger) ([]domain.Rule, error) {
	if f.blockOn != nil {
		f.entered <- struct{}{}
		<-f.blockOn
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queried = append(f.queried, trigger)
	if f.findErr != nil {
		return nil, f.findErr
	}
	return f.rules[trigger], nil
}

func (f *fakeRuleSource) MarkTriggered(_ context.Context, ruleID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.markErr != nil {
		return f.markErr
	}
	f.marked = append(f.marked, ruleID)
	return nil
}

type dispatcherFixture struct {
	dispatcher *Dispatcher
	source     *fakeRuleSource
	deals      *fakeDealActions
	leads      *fakeLeadActions
	activity   *fakeActivity
}

func newDispatcherFixture() *dispatcherFixture {
	f := &dispatcherFixture{
		source:   &fakeRuleSource{rules: map[domain.Trigger][]domain.Rule{}},
		deals:    &fakeDealActions{},
		leads:    &fakeLeadActions{},
		activity: &fakeActivity{},
	}
	log := testLogger()
	executor := NewExecutor(f.deals, f.leads, nil, nil, f.activity, log)
	f.dispatcher = NewDispatcher(f.source, NewEvaluator(log), executor, log)
	return f
}

func activityRule(name string, priority int) domain.Rule {
	return domain.Rule{
		ID:       uuid.New(),
		Name:     name,
		IsActive: true,
		Priority: priority,
		Actions: []domain.ActionClause{
			action(domain.ActionLogActivity, map[string]domain.Value{"message": domain.StringValue(name)}),
		},
	}
}

func TestRulesRunInStoredOrder(t *testing.T) {
	f := newDispatcherFixture()
	f.source.rules[domain.TriggerDealCreated] = []domain.Rule{
		activityRule("first", 1),
		activityRule("second", 5),
		activityRule("third", 10),
	}

	f.dispatcher.Dispatch(context.Background(), domain.TriggerDealCreated, dealSnapshot())

	want := []string{"first", "second", "third"}
	if len(f.activity.messages) != len(want) {
		t.Fatalf("expected %d activity entries, got %v", len(want), f.activity.messages)
	}
	for i, name := range want {
		if f.activity.messages[i] != name {
			t.Fatalf("rule %d ran as %q, want %q", i, f.activity.messages[i], name)
		}
	}
}

func TestNonMatchingRuleIsSkippedAndNotMarked(t *testing.T) {
	f := newDispatcherFixture()
	matching := activityRule("matching", 1)
	nonMatching := activityRule("non-matching", 2)
	nonMatching.Conditions = []domain.ConditionClause{
		{Field: domain.FieldStatus, Operator: domain.OpEquals, Value: domain.StringValue("won")},
	}
	f.source.rules[domain.TriggerDealCreated] = []domain.Rule{matching, nonMatching}

	snap := dealSnapshot() // status open
	f.dispatcher.Dispatch(context.Background(), domain.TriggerDealCreated, snap)

	if len(f.activity.messages) != 1 || f.activity.messages[0] != "matching" {
		t.Fatalf("only the matching rule should run: %v", f.activity.messages)
	}
	if len(f.source.marked) != 1 || f.source.marked[0] != matching.ID {
		t.Fatalf("only the matching rule should be marked triggered: %v", f.source.marked)
	}
}

func TestRuleIsMarkedEvenWhenActionsFail(t *testing.T) {
	f := newDispatcherFixture()
	f.deals.failOn = "change_status"

	rule := domain.Rule{
		ID:       uuid.New(),
		Name:     "failing actions",
		IsActive: true,
		Actions: []domain.ActionClause{
			action(domain.ActionChangeStatus, map[string]domain.Value{"status": domain.StringValue("won")}),
		},
	}
	f.source.rules[domain.TriggerDealCreated] = []domain.Rule{rule}

	f.dispatcher.Dispatch(context.Background(), domain.TriggerDealCreated, dealSnapshot())

	if len(f.source.marked) != 1 || f.source.marked[0] != rule.ID {
		t.Fatal("a rule whose conditions pass counts as triggered regardless of action outcome")
	}
}

func TestStatsFailureDoesNotStopSubsequentRules(t *testing.T) {
	f := newDispatcherFixture()
	f.source.markErr = errors.New("rule row gone")
	f.source.rules[domain.TriggerDealCreated] = []domain.Rule{
		activityRule("first", 1),
		activityRule("second", 2),
	}

	f.dispatcher.Dispatch(context.Background(), domain.TriggerDealCreated, dealSnapshot())

	if len(f.activity.messages) != 2 {
		t.Fatalf("both rules should run despite stats failures: %v", f.activity.messages)
	}
}

func TestLoadFailureIsSwallowed(t *testing.T) {
	f := newDispatcherFixture()
	f.source.findErr = errors.New("db down")

	f.dispatcher.Dispatch(context.Background(), domain.TriggerDealCreated, dealSnapshot())

	if len(f.activity.messages) != 0 {
		t.Fatal("nothing should run when rules cannot be loaded")
	}
}

func TestDealCreatedAssignScenario(t *testing.T) {
	f := newDispatcherFixture()
	userID := uuid.New()

	rule := domain.Rule{
		ID:       uuid.New(),
		Name:     "route big deals",
		IsActive: true,
		Conditions: []domain.ConditionClause{
			{Field: domain.FieldAmount, Operator: domain.OpGreaterThan, Value: domain.NumberValue(1000)},
		},
		Actions: []domain.ActionClause{
			action(domain.ActionAssignToUser, map[string]domain.Value{"userId": domain.StringValue(userID.String())}),
		},
	}
	f.source.rules[domain.TriggerDealCreated] = []domain.Rule{rule}

	f.dispatcher.OnEntityCreated(context.Background(), dealSnapshot()) // amount 2500

	if len(f.deals.calls) != 1 || f.deals.calls[0] != "assign" {
		t.Fatalf("expected a single assign call, got %v", f.deals.calls)
	}
	if f.deals.lastActor.Name != AutomationActor.Name {
		t.Fatal("automation assignments must carry the automation actor")
	}
}

func TestUpdateDerivesTriggersInFixedOrder(t *testing.T) {
	f := newDispatcherFixture()
	changes := []events.FieldChange{
		{Field: dealdomain.FieldStatus},
		{Field: dealdomain.FieldStage},
		{Field: dealdomain.FieldAmount},
		{Field: dealdomain.FieldNotes}, // no derived trigger
	}

	f.dispatcher.OnEntityUpdated(context.Background(), dealSnapshot(), changes)

	want := []domain.Trigger{
		domain.TriggerDealUpdated,
		domain.TriggerDealStageChanged,
		domain.TriggerDealAmountChanged,
		domain.TriggerDealStatusChanged,
	}
	if len(f.source.queried) != len(want) {
		t.Fatalf("queried triggers = %v, want %v", f.source.queried, want)
	}
	for i, trigger := range want {
		if f.source.queried[i] != trigger {
			t.Fatalf("trigger %d = %q, want %q", i, f.source.queried[i], trigger)
		}
	}
}

func TestLeadUpdateDerivesLeadTriggers(t *testing.T) {
	f := newDispatcherFixture()
	changes := []events.FieldChange{
		{Field: leaddomain.FieldScore},
		{Field: leaddomain.FieldAssignee},
	}

	f.dispatcher.OnEntityUpdated(context.Background(), leadSnapshot(), changes)

	want := []domain.Trigger{
		domain.TriggerLeadUpdated,
		domain.TriggerLeadAssigned,
		domain.TriggerLeadScoreChanged,
	}
	if len(f.source.queried) != len(want) {
		t.Fatalf("queried triggers = %v, want %v", f.source.queried, want)
	}
	for i, trigger := range want {
		if f.source.queried[i] != trigger {
			t.Fatalf("trigger %d = %q, want %q", i, f.source.queried[i], trigger)
		}
	}
}

func TestTimeBasedTickUsesSyntheticContext(t *testing.T) {
	f := newDispatcherFixture()
	unconditional := activityRule("nightly digest", 1)
	entityBound := activityRule("open deals only", 2)
	entityBound.Conditions = []domain.ConditionClause{
		{Field: domain.FieldStatus, Operator: domain.OpEquals, Value: domain.StringValue("open")},
	}
	f.source.rules[domain.TriggerTimeBased] = []domain.Rule{unconditional, entityBound}

	f.dispatcher.RunTimeBasedTick(context.Background())

	// log_activity is entity-bound, so even the matching rule records nothing,
	// but only the unconditional rule counts as triggered.
	if len(f.activity.messages) != 0 {
		t.Fatalf("no activity should be written without an entity: %v", f.activity.messages)
	}
	if len(f.source.marked) != 1 || f.source.marked[0] != unconditional.ID {
		t.Fatalf("only the unconditional rule should be marked: %v", f.source.marked)
	}
}

func TestSchedulerSkipsOverlappingTicks(t *testing.T) {
	f := newDispatcherFixture()
	f.source.blockOn = make(chan struct{})
	f.source.entered = make(chan struct{}, 1)

	scheduler := NewPeriodicScheduler(f.dispatcher, time.Hour, testLogger())

	go scheduler.Tick(context.Background())
	<-f.source.entered // first tick is now in flight

	scheduler.Tick(context.Background()) // must return without blocking
	close(f.source.blockOn)

	// Let the first tick drain, then verify only one pass queried the rules.
	deadline := time.After(time.Second)
	for {
		f.source.mu.Lock()
		n := len(f.source.queried)
		f.source.mu.Unlock()
		if n == 1 {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("expected exactly one rule query, got %d", n)
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestSchedulerStartStop(t *testing.T) {
	f := newDispatcherFixture()
	scheduler := NewPeriodicScheduler(f.dispatcher, time.Hour, testLogger())

	scheduler.Start()
	scheduler.Start() // idempotent

	done := make(chan struct{})
	go func() {
		scheduler.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop did not return")
	}
}
