// Package domain defines the automation rule model: triggers, condition
// clauses, action clauses and the tagged condition value type. All enums are
// closed constant sets; unknown variants can only arrive via stored data and
// are handled as warn-and-skip by the engine.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Trigger is the event kind that activates rule evaluation.
type Trigger string

const (
	TriggerDealCreated       Trigger = "deal_created"
	TriggerDealUpdated       Trigger = "deal_updated"
	TriggerDealStageChanged  Trigger = "deal_stage_changed"
	TriggerDealAmountChanged Trigger = "deal_amount_changed"
	TriggerDealStatusChanged Trigger = "deal_status_changed"
	TriggerDealAssigned      Trigger = "deal_assigned"
	TriggerLeadCreated       Trigger = "lead_created"
	TriggerLeadUpdated       Trigger = "lead_updated"
	TriggerLeadStatusChanged Trigger = "lead_status_changed"
	TriggerLeadScoreChanged  Trigger = "lead_score_changed"
	TriggerLeadAssigned      Trigger = "lead_assigned"
	TriggerTimeBased         Trigger = "time_based"
)

var knownTriggers = map[Trigger]struct{}{
	TriggerDealCreated:       {},
	TriggerDealUpdated:       {},
	TriggerDealStageChanged:  {},
	TriggerDealAmountChanged: {},
	TriggerDealStatusChanged: {},
	TriggerDealAssigned:      {},
	TriggerLeadCreated:       {},
	TriggerLeadUpdated:       {},
	TriggerLeadStatusChanged: {},
	TriggerLeadScoreChanged:  {},
	TriggerLeadAssigned:      {},
	TriggerTimeBased:         {},
}

func IsKnownTrigger(t Trigger) bool {
	_, ok := knownTriggers[t]
	return ok
}

// ConditionField names the comparable attribute a condition clause reads.
type ConditionField string

const (
	FieldStage             ConditionField = "stage"
	FieldStatus            ConditionField = "status"
	FieldAmount            ConditionField = "amount"
	FieldProbability       ConditionField = "probability"
	FieldScore             ConditionField = "score"
	FieldSource            ConditionField = "source"
	FieldCreatedWithinDays ConditionField = "created_within_days"

	// FieldTags and FieldAssignee are recognized but not yet supported:
	// rule creation rejects them and the evaluator treats stored legacy
	// clauses as warn-and-false.
	FieldTags     ConditionField = "tags"
	FieldAssignee ConditionField = "assignee"
)

var knownConditionFields = map[ConditionField]struct{}{
	FieldStage:             {},
	FieldStatus:            {},
	FieldAmount:            {},
	FieldProbability:       {},
	FieldScore:             {},
	FieldSource:            {},
	FieldCreatedWithinDays: {},
	FieldTags:              {},
	FieldAssignee:          {},
}

var unsupportedConditionFields = map[ConditionField]struct{}{
	FieldTags:     {},
	FieldAssignee: {},
}

func IsKnownConditionField(f ConditionField) bool {
	_, ok := knownConditionFields[f]
	return ok
}

func IsUnsupportedConditionField(f ConditionField) bool {
	_, ok := unsupportedConditionFields[f]
	return ok
}

// Operator is the comparison applied by a condition clause.
type Operator string

const (
	OpEquals      Operator = "equals"
	OpNotEquals   Operator = "not_equals"
	OpGreaterThan Operator = "greater_than"
	OpLessThan    Operator = "less_than"
	OpBetween     Operator = "between"
	OpContains    Operator = "contains"
	OpNotContains Operator = "not_contains"
)

var knownOperators = map[Operator]struct{}{
	OpEquals:      {},
	OpNotEquals:   {},
	OpGreaterThan: {},
	OpLessThan:    {},
	OpBetween:     {},
	OpContains:    {},
	OpNotContains: {},
}

func IsKnownOperator(op Operator) bool {
	_, ok := knownOperators[op]
	return ok
}

// ActionType is the automated operation an action clause performs.
type ActionType string

const (
	ActionChangeStage       ActionType = "change_stage"
	ActionChangeStatus      ActionType = "change_status"
	ActionAssignToUser      ActionType = "assign_to_user"
	ActionUpdateAmount      ActionType = "update_amount"
	ActionUpdateProbability ActionType = "update_probability"
	ActionUpdateScore       ActionType = "update_score"
	ActionAddTags           ActionType = "add_tags"
	ActionRemoveTags        ActionType = "remove_tags"
	ActionSendNotification  ActionType = "send_notification"
	ActionCreateTask        ActionType = "create_task"
	ActionSetReminder       ActionType = "set_reminder"
	ActionLogActivity       ActionType = "log_activity"
)

var knownActionTypes = map[ActionType]struct{}{
	ActionChangeStage:       {},
	ActionChangeStatus:      {},
	ActionAssignToUser:      {},
	ActionUpdateAmount:      {},
	ActionUpdateProbability: {},
	ActionUpdateScore:       {},
	ActionAddTags:           {},
	ActionRemoveTags:        {},
	ActionSendNotification:  {},
	ActionCreateTask:        {},
	ActionSetReminder:       {},
	ActionLogActivity:       {},
}

func IsKnownActionType(t ActionType) bool {
	_, ok := knownActionTypes[t]
	return ok
}

// ConditionClause is one filter test within a rule. All clauses in a rule are
// implicitly AND-combined; an empty list means unconditional match.
type ConditionClause struct {
	Field    ConditionField `json:"field"`
	Operator Operator       `json:"operator"`
	Value    Value          `json:"value"`
	Value2   Value          `json:"value2,omitempty"`
}

// ActionClause is one automated operation a rule performs when its conditions
// pass. Config is interpreted per action type.
type ActionClause struct {
	Type   ActionType       `json:"type"`
	Config map[string]Value `json:"config,omitempty"`
}

// Rule is a persisted automation rule. Lower priority runs earlier; ties are
// broken by creation order.
type Rule struct {
	ID              uuid.UUID
	Name            string
	Description     string
	Trigger         Trigger
	Conditions      []ConditionClause
	Actions         []ActionClause
	IsActive        bool
	Priority        int
	TriggerCount    int64
	LastTriggeredAt *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
