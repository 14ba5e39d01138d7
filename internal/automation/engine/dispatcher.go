package engine

import (
	"context"

	"github.com/JamshedLatipov/crm-sub002/internal/automation/domain"
	dealdomain "github.com/JamshedLatipov/crm-sub002/internal/deals/domain"
	"github.com/JamshedLatipov/crm-sub002/internal/events"
	leaddomain "github.com/JamshedLatipov/crm-sub002/internal/leads/domain"
	"github.com/JamshedLatipov/crm-sub002/platform/logger"
)

// Dispatcher maps domain events to triggers, loads the matching rules and
// runs them. Dispatch never returns an error to the caller: every internal
// failure is logged and swallowed so automation can never fail the primary
// mutation that raised the event.
type Dispatcher struct {
	rules     RuleSource
	evaluator *Evaluator
	executor  *Executor
	log       *logger.Logger
}

// NewDispatcher creates a trigger dispatcher.
func NewDispatcher(rules RuleSource, evaluator *Evaluator, executor *Executor, log *logger.Logger) *Dispatcher {
	return &Dispatcher{
		rules:     rules,
		evaluator: evaluator,
		executor:  executor,
		log:       log,
	}
}

// OnEntityCreated dispatches the creation trigger for the snapshot's kind.
func (d *Dispatcher) OnEntityCreated(ctx context.Context, snap Snapshot) {
	switch snap.Kind {
	case EntityDeal:
		d.Dispatch(ctx, domain.TriggerDealCreated, snap)
	case EntityLead:
		d.Dispatch(ctx, domain.TriggerLeadCreated, snap)
	}
}

// OnEntityUpdated dispatches the generic updated trigger followed by one
// specific trigger per semantically significant changed field, in a fixed
// field-priority order (stage, amount, status, assignment, score) so
// ordering is deterministic across runs.
func (d *Dispatcher) OnEntityUpdated(ctx context.Context, snap Snapshot, changes []events.FieldChange) {
	switch snap.Kind {
	case EntityDeal:
		d.Dispatch(ctx, domain.TriggerDealUpdated, snap)
	case EntityLead:
		d.Dispatch(ctx, domain.TriggerLeadUpdated, snap)
	default:
		return
	}

	for _, trigger := range deriveFieldTriggers(snap.Kind, changes) {
		d.Dispatch(ctx, trigger, snap)
	}
}

// RunTimeBasedTick dispatches time-based rules with a synthetic entity-less
// context. Entity-dependent conditions evaluate false and entity-targeted
// actions are warn-level no-ops; rule statistics are still updated.
func (d *Dispatcher) RunTimeBasedTick(ctx context.Context) {
	d.Dispatch(ctx, domain.TriggerTimeBased, Snapshot{Kind: EntityNone})
}

// Dispatch runs every active rule registered for the trigger, in priority
// order, against the snapshot. A failure inside one rule never prevents the
// remaining rules from being evaluated.
func (d *Dispatcher) Dispatch(ctx context.Context, trigger domain.Trigger, snap Snapshot) {
	rules, err := d.rules.FindActiveByTrigger(ctx, trigger)
	if err != nil {
		d.log.Error("failed to load automation rules", "trigger", string(trigger), "error", err)
		return
	}

	for _, rule := range rules {
		if !d.evaluator.Matches(rule, snap) {
			continue
		}

		d.executor.Execute(ctx, rule, snap)

		if err := d.rules.MarkTriggered(ctx, rule.ID); err != nil {
			d.log.Error("failed to update rule statistics",
				"ruleId", rule.ID, "ruleName", rule.Name, "error", err)
		}
	}
}

// fieldTriggerOrder fixes the dispatch order of derived field triggers.
var fieldTriggerOrder = []string{
	dealdomain.FieldStage,
	dealdomain.FieldAmount,
	dealdomain.FieldStatus,
	dealdomain.FieldAssignee,
	leaddomain.FieldScore,
}

func deriveFieldTriggers(kind EntityKind, changes []events.FieldChange) []domain.Trigger {
	changed := make(map[string]bool, len(changes))
	for _, change := range changes {
		changed[change.Field] = true
	}

	triggers := make([]domain.Trigger, 0, len(fieldTriggerOrder))
	for _, field := range fieldTriggerOrder {
		if !changed[field] {
			continue
		}
		if trigger, ok := fieldTrigger(kind, field); ok {
			triggers = append(triggers, trigger)
		}
	}
	return triggers
}

func fieldTrigger(kind EntityKind, field string) (domain.Trigger, bool) {
	switch kind {
	case EntityDeal:
		switch field {
		case dealdomain.FieldStage:
			return domain.TriggerDealStageChanged, true
		case dealdomain.FieldAmount:
			return domain.TriggerDealAmountChanged, true
		case dealdomain.FieldStatus:
			return domain.TriggerDealStatusChanged, true
		case dealdomain.FieldAssignee:
			return domain.TriggerDealAssigned, true
		}
	case EntityLead:
		switch field {
		case leaddomain.FieldStatus:
			return domain.TriggerLeadStatusChanged, true
		case leaddomain.FieldAssignee:
			return domain.TriggerLeadAssigned, true
		case leaddomain.FieldScore:
			return domain.TriggerLeadScoreChanged, true
		}
	}
	return "", false
}
