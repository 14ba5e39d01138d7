package engine

import (
	"testing"
	"time"

	"github.com/JamshedLatipov/crm-sub002/internal/automation/domain"
	"github.com/JamshedLatipov/crm-sub002/platform/logger"

	"github.com/google/uuid"
)

func testLogger() *logger.Logger {
	return logger.New("development")
}

func ruleWith(conditions ...domain.ConditionClause) domain.Rule {
	return domain.Rule{
		ID:         uuid.New(),
		Name:       "test rule",
		IsActive:   true,
		Conditions: conditions,
	}
}

func dealSnapshot() Snapshot {
	probability := 60
	return Snapshot{
		Kind:        EntityDeal,
		ID:          uuid.New(),
		StageID:     uuid.New(),
		Status:      "open",
		Amount:      2500,
		Probability: &probability,
		CreatedAt:   time.Now().Add(-48 * time.Hour),
	}
}

func leadSnapshot() Snapshot {
	return Snapshot{
		Kind:      EntityLead,
		ID:        uuid.New(),
		Status:    "qualified",
		Score:     70,
		Source:    "website",
		Tags:      []string{"warm", "newsletter"},
		CreatedAt: time.Now().Add(-2 * time.Hour),
	}
}

func TestEmptyConditionsAlwaysMatch(t *testing.T) {
	e := NewEvaluator(testLogger())
	if !e.Matches(ruleWith(), dealSnapshot()) {
		t.Fatal("rule without conditions should match any snapshot")
	}
	if !e.Matches(ruleWith(), Snapshot{Kind: EntityNone}) {
		t.Fatal("rule without conditions should match the synthetic time-based context")
	}
}

func TestEqualsCoercesNumericStrings(t *testing.T) {
	e := NewEvaluator(testLogger())
	snap := dealSnapshot()

	clause := domain.ConditionClause{
		Field:    domain.FieldAmount,
		Operator: domain.OpEquals,
		Value:    domain.StringValue("2500"),
	}
	if !e.Matches(ruleWith(clause), snap) {
		t.Fatal("string \"2500\" should equal numeric amount 2500")
	}

	clause.Value = domain.StringValue("2500.50")
	if e.Matches(ruleWith(clause), snap) {
		t.Fatal("2500.50 should not equal 2500")
	}
}

func TestStatusEqualsIsStringComparison(t *testing.T) {
	e := NewEvaluator(testLogger())
	snap := leadSnapshot()

	match := domain.ConditionClause{Field: domain.FieldStatus, Operator: domain.OpEquals, Value: domain.StringValue("qualified")}
	if !e.Matches(ruleWith(match), snap) {
		t.Fatal("expected status equals to match")
	}

	miss := domain.ConditionClause{Field: domain.FieldStatus, Operator: domain.OpNotEquals, Value: domain.StringValue("qualified")}
	if e.Matches(ruleWith(miss), snap) {
		t.Fatal("not_equals against the current status should not match")
	}
}

func TestGreaterAndLessThan(t *testing.T) {
	e := NewEvaluator(testLogger())
	snap := leadSnapshot()

	gt := domain.ConditionClause{Field: domain.FieldScore, Operator: domain.OpGreaterThan, Value: domain.NumberValue(50)}
	if !e.Matches(ruleWith(gt), snap) {
		t.Fatal("score 70 should be greater than 50")
	}

	lt := domain.ConditionClause{Field: domain.FieldScore, Operator: domain.OpLessThan, Value: domain.NumberValue(70)}
	if e.Matches(ruleWith(lt), snap) {
		t.Fatal("less_than must be strict, 70 < 70 is false")
	}

	nonNumeric := domain.ConditionClause{Field: domain.FieldStatus, Operator: domain.OpGreaterThan, Value: domain.NumberValue(1)}
	if e.Matches(ruleWith(nonNumeric), snap) {
		t.Fatal("ordering against a non-numeric field value should not match")
	}
}

func TestBetweenIsInclusive(t *testing.T) {
	e := NewEvaluator(testLogger())
	snap := dealSnapshot()

	for _, tc := range []struct {
		low, high float64
		want      bool
	}{
		{2500, 3000, true},
		{2000, 2500, true},
		{1000, 2499, false},
		{2501, 9000, false},
	} {
		clause := domain.ConditionClause{
			Field:    domain.FieldAmount,
			Operator: domain.OpBetween,
			Value:    domain.NumberValue(tc.low),
			Value2:   domain.NumberValue(tc.high),
		}
		if got := e.Matches(ruleWith(clause), snap); got != tc.want {
			t.Fatalf("between(%v, %v) on amount 2500: got %v, want %v", tc.low, tc.high, got, tc.want)
		}
	}
}

func TestContainsSubstringOnScalar(t *testing.T) {
	e := NewEvaluator(testLogger())
	snap := leadSnapshot()

	clause := domain.ConditionClause{Field: domain.FieldSource, Operator: domain.OpContains, Value: domain.StringValue("site")}
	if !e.Matches(ruleWith(clause), snap) {
		t.Fatal("contains should match a substring of the source")
	}

	clause.Operator = domain.OpNotContains
	if e.Matches(ruleWith(clause), snap) {
		t.Fatal("not_contains should be the negation of contains")
	}
}

func TestCreatedWithinDays(t *testing.T) {
	e := NewEvaluator(testLogger())
	snap := dealSnapshot() // created two days ago

	recent := domain.ConditionClause{Field: domain.FieldCreatedWithinDays, Operator: domain.OpLessThan, Value: domain.NumberValue(7)}
	if !e.Matches(ruleWith(recent), snap) {
		t.Fatal("a two-day-old deal should be created within 7 days")
	}

	older := domain.ConditionClause{Field: domain.FieldCreatedWithinDays, Operator: domain.OpGreaterThan, Value: domain.NumberValue(7)}
	if e.Matches(ruleWith(older), snap) {
		t.Fatal("a two-day-old deal is not older than 7 days")
	}
}

func TestUnsupportedFieldsNeverMatch(t *testing.T) {
	e := NewEvaluator(testLogger())
	snap := leadSnapshot()

	for _, field := range []domain.ConditionField{domain.FieldTags, domain.FieldAssignee} {
		clause := domain.ConditionClause{Field: field, Operator: domain.OpContains, Value: domain.StringValue("warm")}
		if e.Matches(ruleWith(clause), snap) {
			t.Fatalf("field %q is unsupported and must evaluate false", field)
		}
	}
}

func TestFieldOnWrongEntityKindIsNonMatch(t *testing.T) {
	e := NewEvaluator(testLogger())

	scoreOnDeal := domain.ConditionClause{Field: domain.FieldScore, Operator: domain.OpGreaterThan, Value: domain.NumberValue(0)}
	if e.Matches(ruleWith(scoreOnDeal), dealSnapshot()) {
		t.Fatal("score is a lead field and should not match on a deal")
	}

	amountOnLead := domain.ConditionClause{Field: domain.FieldAmount, Operator: domain.OpGreaterThan, Value: domain.NumberValue(0)}
	if e.Matches(ruleWith(amountOnLead), leadSnapshot()) {
		t.Fatal("amount is a deal field and should not match on a lead")
	}
}

func TestNilProbabilityIsNonMatch(t *testing.T) {
	e := NewEvaluator(testLogger())
	snap := dealSnapshot()
	snap.Probability = nil

	clause := domain.ConditionClause{Field: domain.FieldProbability, Operator: domain.OpLessThan, Value: domain.NumberValue(100)}
	if e.Matches(ruleWith(clause), snap) {
		t.Fatal("an unset probability should not satisfy any comparison")
	}
}

func TestTimeBasedContextOnlyMatchesUnconditionalRules(t *testing.T) {
	e := NewEvaluator(testLogger())
	synthetic := Snapshot{Kind: EntityNone}

	clause := domain.ConditionClause{Field: domain.FieldStatus, Operator: domain.OpEquals, Value: domain.StringValue("open")}
	if e.Matches(ruleWith(clause), synthetic) {
		t.Fatal("entity-dependent conditions must evaluate false in the synthetic context")
	}
	if !e.Matches(ruleWith(), synthetic) {
		t.Fatal("an unconditional rule should still match in the synthetic context")
	}
}

func TestAllConditionsMustHold(t *testing.T) {
	e := NewEvaluator(testLogger())
	snap := leadSnapshot()

	passing := domain.ConditionClause{Field: domain.FieldScore, Operator: domain.OpGreaterThan, Value: domain.NumberValue(50)}
	failing := domain.ConditionClause{Field: domain.FieldSource, Operator: domain.OpEquals, Value: domain.StringValue("referral")}

	if e.Matches(ruleWith(passing, failing), snap) {
		t.Fatal("conditions AND-combine, one failing clause must fail the rule")
	}
	if !e.Matches(ruleWith(passing, passing), snap) {
		t.Fatal("all-passing clauses should match")
	}
}
