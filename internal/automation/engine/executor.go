package engine

import (
	"context"
	"errors"
	"time"

	"github.com/JamshedLatipov/crm-sub002/internal/automation/domain"
	"github.com/JamshedLatipov/crm-sub002/platform/logger"

	"github.com/google/uuid"
)

// Executor runs a rule's action clauses in list order. Each clause is wrapped
// individually: handler errors are caught, logged with the action type and
// entity id, and execution proceeds to the next clause. Entity-type
// applicability is enforced per handler; an inapplicable handler is a no-op
// with a warning log.
type Executor struct {
	deals     DealActions
	leads     LeadActions
	notifier  Notifier
	reminders ReminderScheduler
	activity  ActivityLog
	log       *logger.Logger
}

// NewExecutor creates an action executor. Ports may be nil; an action whose
// port is missing logs a warning and does nothing.
func NewExecutor(deals DealActions, leads LeadActions, notifier Notifier, reminders ReminderScheduler, activity ActivityLog, log *logger.Logger) *Executor {
	return &Executor{
		deals:     deals,
		leads:     leads,
		notifier:  notifier,
		reminders: reminders,
		activity:  activity,
		log:       log,
	}
}

// Execute runs every clause of the rule against the snapshot.
func (x *Executor) Execute(ctx context.Context, rule domain.Rule, snap Snapshot) {
	for _, clause := range rule.Actions {
		if err := x.execute(ctx, rule, clause, snap); err != nil {
			x.log.ActionError(rule.Name, string(clause.Type), string(snap.Kind), snap.ID.String(), err)
		}
	}
}

func (x *Executor) execute(ctx context.Context, rule domain.Rule, clause domain.ActionClause, snap Snapshot) error {
	switch clause.Type {
	case domain.ActionChangeStage:
		return x.changeStage(ctx, rule, clause, snap)
	case domain.ActionChangeStatus:
		return x.changeStatus(ctx, rule, clause, snap)
	case domain.ActionAssignToUser:
		return x.assignToUser(ctx, rule, clause, snap)
	case domain.ActionUpdateAmount:
		return x.updateAmount(ctx, rule, clause, snap)
	case domain.ActionUpdateProbability:
		return x.updateProbability(ctx, rule, clause, snap)
	case domain.ActionUpdateScore:
		return x.updateScore(ctx, rule, clause, snap)
	case domain.ActionAddTags:
		return x.modifyTags(ctx, rule, clause, snap, true)
	case domain.ActionRemoveTags:
		return x.modifyTags(ctx, rule, clause, snap, false)
	case domain.ActionSendNotification:
		return x.sendNotification(ctx, rule, clause, snap)
	case domain.ActionCreateTask, domain.ActionSetReminder:
		return x.scheduleReminder(ctx, rule, clause, snap)
	case domain.ActionLogActivity:
		return x.logActivity(ctx, rule, clause, snap)
	default:
		x.warn(rule, "unknown action type: "+string(clause.Type))
		return nil
	}
}

func (x *Executor) changeStage(ctx context.Context, rule domain.Rule, clause domain.ActionClause, snap Snapshot) error {
	if !x.requireKind(rule, clause, snap, EntityDeal) || x.deals == nil {
		return nil
	}
	stageID, err := configUUID(clause.Config, "stageId")
	if err != nil {
		return err
	}
	return x.deals.MoveToStage(ctx, snap.ID, stageID, AutomationActor)
}

func (x *Executor) changeStatus(ctx context.Context, rule domain.Rule, clause domain.ActionClause, snap Snapshot) error {
	status := configString(clause.Config, "status")
	if status == "" {
		return errors.New("action config missing status")
	}
	switch snap.Kind {
	case EntityDeal:
		if x.deals == nil {
			return nil
		}
		return x.deals.ChangeStatus(ctx, snap.ID, status, AutomationActor)
	case EntityLead:
		if x.leads == nil {
			return nil
		}
		return x.leads.ChangeStatus(ctx, snap.ID, status, AutomationActor)
	default:
		x.warnInapplicable(rule, clause, snap)
		return nil
	}
}

func (x *Executor) assignToUser(ctx context.Context, rule domain.Rule, clause domain.ActionClause, snap Snapshot) error {
	userID, err := configUUID(clause.Config, "userId")
	if err != nil {
		return err
	}
	reason := configString(clause.Config, "reason")
	switch snap.Kind {
	case EntityDeal:
		if x.deals == nil {
			return nil
		}
		return x.deals.Assign(ctx, snap.ID, userID, reason, AutomationActor)
	case EntityLead:
		if x.leads == nil {
			return nil
		}
		return x.leads.Assign(ctx, snap.ID, userID, reason, AutomationActor)
	default:
		x.warnInapplicable(rule, clause, snap)
		return nil
	}
}

func (x *Executor) updateAmount(ctx context.Context, rule domain.Rule, clause domain.ActionClause, snap Snapshot) error {
	if !x.requireKind(rule, clause, snap, EntityDeal) || x.deals == nil {
		return nil
	}
	amount, ok := clause.Config["amount"].AsNumber()
	if !ok {
		return errors.New("action config missing numeric amount")
	}
	return x.deals.UpdateAmount(ctx, snap.ID, amount, AutomationActor)
}

func (x *Executor) updateProbability(ctx context.Context, rule domain.Rule, clause domain.ActionClause, snap Snapshot) error {
	if !x.requireKind(rule, clause, snap, EntityDeal) || x.deals == nil {
		return nil
	}
	probability, ok := clause.Config["probability"].AsNumber()
	if !ok {
		return errors.New("action config missing numeric probability")
	}
	return x.deals.UpdateProbability(ctx, snap.ID, int(probability), AutomationActor)
}

func (x *Executor) updateScore(ctx context.Context, rule domain.Rule, clause domain.ActionClause, snap Snapshot) error {
	if !x.requireKind(rule, clause, snap, EntityLead) || x.leads == nil {
		return nil
	}
	delta, ok := clause.Config["delta"].AsNumber()
	if !ok {
		return errors.New("action config missing numeric delta")
	}
	return x.leads.AdjustScore(ctx, snap.ID, int(delta), AutomationActor)
}

func (x *Executor) modifyTags(ctx context.Context, rule domain.Rule, clause domain.ActionClause, snap Snapshot, add bool) error {
	if !x.requireKind(rule, clause, snap, EntityLead) || x.leads == nil {
		return nil
	}
	tags, ok := clause.Config["tags"].AsList()
	if !ok || len(tags) == 0 {
		return errors.New("action config missing tags list")
	}
	if add {
		return x.leads.AddTags(ctx, snap.ID, tags, AutomationActor)
	}
	return x.leads.RemoveTags(ctx, snap.ID, tags, AutomationActor)
}

func (x *Executor) sendNotification(ctx context.Context, rule domain.Rule, clause domain.ActionClause, snap Snapshot) error {
	if x.notifier == nil {
		x.warn(rule, "notifier not configured, send_notification skipped")
		return nil
	}
	channel := configString(clause.Config, "channel")
	if channel == "" {
		channel = "inapp"
	}
	return x.notifier.Send(ctx, Notification{
		Channel:    channel,
		Recipient:  configString(clause.Config, "recipient"),
		Subject:    configString(clause.Config, "subject"),
		Body:       configString(clause.Config, "body"),
		EntityKind: snap.Kind,
		EntityID:   snap.ID,
	})
}

func (x *Executor) scheduleReminder(ctx context.Context, rule domain.Rule, clause domain.ActionClause, snap Snapshot) error {
	if snap.Kind == EntityNone {
		x.warnInapplicable(rule, clause, snap)
		return nil
	}
	if x.reminders == nil {
		x.warn(rule, "reminder scheduler not configured, "+string(clause.Type)+" skipped")
		return nil
	}
	message := configString(clause.Config, "message")
	if message == "" {
		message = rule.Name
	}
	delayHours, ok := clause.Config["delayHours"].AsNumber()
	if !ok || delayHours < 0 {
		delayHours = 24
	}
	at := time.Now().Add(time.Duration(delayHours * float64(time.Hour)))
	return x.reminders.Schedule(ctx, snap.Kind, snap.ID, message, at)
}

func (x *Executor) logActivity(ctx context.Context, rule domain.Rule, clause domain.ActionClause, snap Snapshot) error {
	if snap.Kind == EntityNone {
		x.warnInapplicable(rule, clause, snap)
		return nil
	}
	if x.activity == nil {
		x.warn(rule, "activity log not configured, log_activity skipped")
		return nil
	}
	message := configString(clause.Config, "message")
	if message == "" {
		message = "Automation rule fired: " + rule.Name
	}
	return x.activity.Record(ctx, snap.Kind, snap.ID, message)
}

// requireKind reports whether the snapshot is the kind the handler applies
// to, warning on mismatch.
func (x *Executor) requireKind(rule domain.Rule, clause domain.ActionClause, snap Snapshot, want EntityKind) bool {
	if snap.Kind == want {
		return true
	}
	x.warnInapplicable(rule, clause, snap)
	return false
}

func (x *Executor) warnInapplicable(rule domain.Rule, clause domain.ActionClause, snap Snapshot) {
	x.warn(rule, "action "+string(clause.Type)+" not applicable to entity kind "+string(snap.Kind))
}

func (x *Executor) warn(rule domain.Rule, reason string) {
	if x.log != nil {
		x.log.RuleWarning(rule.ID.String(), rule.Name, reason)
	}
}

func configString(config map[string]domain.Value, key string) string {
	return config[key].AsString()
}

func configUUID(config map[string]domain.Value, key string) (uuid.UUID, error) {
	raw := config[key].AsString()
	if raw == "" {
		return uuid.Nil, errors.New("action config missing " + key)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, errors.New("action config " + key + " is not a valid uuid")
	}
	return id, nil
}
