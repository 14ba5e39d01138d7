package engine

import (
	"context"
	"time"

	"github.com/JamshedLatipov/crm-sub002/internal/automation/domain"
	"github.com/JamshedLatipov/crm-sub002/internal/events"

	"github.com/google/uuid"
)

// AutomationActor is the acting identity automation-originated mutations run
// under. Event subscriptions skip events carrying this actor so a rule's own
// side effects cannot re-trigger the engine.
var AutomationActor = events.Actor{Name: "automation"}

// DealActions is the deal capability surface automation actions delegate to.
type DealActions interface {
	MoveToStage(ctx context.Context, dealID, stageID uuid.UUID, actor events.Actor) error
	ChangeStatus(ctx context.Context, dealID uuid.UUID, status string, actor events.Actor) error
	UpdateAmount(ctx context.Context, dealID uuid.UUID, amount float64, actor events.Actor) error
	UpdateProbability(ctx context.Context, dealID uuid.UUID, probability int, actor events.Actor) error
	Assign(ctx context.Context, dealID, userID uuid.UUID, reason string, actor events.Actor) error
}

// LeadActions is the lead capability surface automation actions delegate to.
type LeadActions interface {
	ChangeStatus(ctx context.Context, leadID uuid.UUID, status string, actor events.Actor) error
	AdjustScore(ctx context.Context, leadID uuid.UUID, delta int, actor events.Actor) error
	AddTags(ctx context.Context, leadID uuid.UUID, tags []string, actor events.Actor) error
	RemoveTags(ctx context.Context, leadID uuid.UUID, tags []string, actor events.Actor) error
	Assign(ctx context.Context, leadID, userID uuid.UUID, reason string, actor events.Actor) error
}

// Notification is the dispatch payload for the send-notification action. The
// engine defines the contract only; delivery lives behind the Notifier port.
type Notification struct {
	Channel    string
	Recipient  string
	Subject    string
	Body       string
	EntityKind EntityKind
	EntityID   uuid.UUID
}

// Notifier dispatches notifications raised by automation rules.
type Notifier interface {
	Send(ctx context.Context, n Notification) error
}

// ReminderScheduler enqueues delayed follow-up work for the create-task and
// set-reminder actions.
type ReminderScheduler interface {
	Schedule(ctx context.Context, kind EntityKind, entityID uuid.UUID, message string, at time.Time) error
}

// ActivityLog records free-form activity entries on an entity's audit trail
// for the log-activity action.
type ActivityLog interface {
	Record(ctx context.Context, kind EntityKind, entityID uuid.UUID, message string) error
}

// RuleSource is the rule persistence surface the dispatcher reads and updates.
type RuleSource interface {
	FindActiveByTrigger(ctx context.Context, trigger domain.Trigger) ([]domain.Rule, error)
	MarkTriggered(ctx context.Context, ruleID uuid.UUID) error
}
