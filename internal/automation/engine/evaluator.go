package engine

import (
	"strings"
	"time"

	"github.com/JamshedLatipov/crm-sub002/internal/automation/domain"
	"github.com/JamshedLatipov/crm-sub002/platform/logger"
)

// Evaluator decides whether a rule's condition clauses match an entity
// snapshot. Evaluation is pure apart from warning logs for rule-definition
// problems; an unknown field or operator evaluates false, never raises.
type Evaluator struct {
	log *logger.Logger
}

// NewEvaluator creates a condition evaluator.
func NewEvaluator(log *logger.Logger) *Evaluator {
	return &Evaluator{log: log}
}

// Matches reports whether all of the rule's clauses hold for the snapshot.
// Clauses AND-combine; an empty list is an unconditional match.
func (e *Evaluator) Matches(rule domain.Rule, snap Snapshot) bool {
	for _, clause := range rule.Conditions {
		if !e.evaluate(rule, clause, snap) {
			return false
		}
	}
	return true
}

func (e *Evaluator) evaluate(rule domain.Rule, clause domain.ConditionClause, snap Snapshot) bool {
	if domain.IsUnsupportedConditionField(clause.Field) {
		e.warn(rule, "condition field not supported: "+string(clause.Field))
		return false
	}

	extracted, ok := resolveField(clause.Field, snap)
	if !ok {
		if !domain.IsKnownConditionField(clause.Field) {
			e.warn(rule, "unknown condition field: "+string(clause.Field))
		}
		// Known field on a non-matching entity kind: a plain non-match.
		return false
	}

	switch clause.Operator {
	case domain.OpEquals:
		return valuesEqual(extracted, clause.Value)
	case domain.OpNotEquals:
		return !valuesEqual(extracted, clause.Value)
	case domain.OpGreaterThan:
		left, right, ok := numericOperands(extracted, clause.Value)
		return ok && left > right
	case domain.OpLessThan:
		left, right, ok := numericOperands(extracted, clause.Value)
		return ok && left < right
	case domain.OpBetween:
		x, xok := extracted.AsNumber()
		low, lok := clause.Value.AsNumber()
		high, hok := clause.Value2.AsNumber()
		return xok && lok && hok && low <= x && x <= high
	case domain.OpContains:
		return contains(extracted, clause.Value)
	case domain.OpNotContains:
		return !contains(extracted, clause.Value)
	default:
		e.warn(rule, "unknown condition operator: "+string(clause.Operator))
		return false
	}
}

func (e *Evaluator) warn(rule domain.Rule, reason string) {
	if e.log != nil {
		e.log.RuleWarning(rule.ID.String(), rule.Name, reason)
	}
}

// resolveField is the closed lookup table mapping condition field to the
// snapshot attribute it reads. A field that does not apply to the snapshot's
// entity kind yields a non-match sentinel (ok=false).
func resolveField(field domain.ConditionField, snap Snapshot) (domain.Value, bool) {
	switch field {
	case domain.FieldStage:
		if snap.Kind != EntityDeal {
			return domain.Value{}, false
		}
		return domain.StringValue(snap.StageID.String()), true
	case domain.FieldStatus:
		if snap.Kind == EntityNone {
			return domain.Value{}, false
		}
		return domain.StringValue(snap.Status), true
	case domain.FieldAmount:
		if snap.Kind != EntityDeal {
			return domain.Value{}, false
		}
		return domain.NumberValue(snap.Amount), true
	case domain.FieldProbability:
		if snap.Kind != EntityDeal || snap.Probability == nil {
			return domain.Value{}, false
		}
		return domain.NumberValue(float64(*snap.Probability)), true
	case domain.FieldScore:
		if snap.Kind != EntityLead {
			return domain.Value{}, false
		}
		return domain.NumberValue(float64(snap.Score)), true
	case domain.FieldSource:
		if snap.Kind != EntityLead {
			return domain.Value{}, false
		}
		return domain.StringValue(snap.Source), true
	case domain.FieldCreatedWithinDays:
		if snap.Kind == EntityNone || snap.CreatedAt.IsZero() {
			return domain.Value{}, false
		}
		age := time.Since(snap.CreatedAt).Hours() / 24
		return domain.NumberValue(age), true
	default:
		return domain.Value{}, false
	}
}

// valuesEqual compares as extracted: numerically when both operands coerce,
// otherwise by canonical string representation.
func valuesEqual(a, b domain.Value) bool {
	if an, aok := a.AsNumber(); aok {
		if bn, bok := b.AsNumber(); bok {
			return an == bn
		}
	}
	return a.AsString() == b.AsString()
}

func numericOperands(a, b domain.Value) (float64, float64, bool) {
	an, aok := a.AsNumber()
	bn, bok := b.AsNumber()
	return an, bn, aok && bok
}

// contains does membership when the extracted value is a list, substring
// otherwise.
func contains(extracted, needle domain.Value) bool {
	if list, ok := extracted.AsList(); ok {
		target := needle.AsString()
		for _, item := range list {
			if strings.EqualFold(item, target) {
				return true
			}
		}
		return false
	}
	return strings.Contains(extracted.AsString(), needle.AsString())
}
