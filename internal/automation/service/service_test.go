package service

import (
	"context"
	"testing"

	"github.com/JamshedLatipov/crm-sub002/internal/automation/domain"
	"github.com/JamshedLatipov/crm-sub002/internal/automation/repository"
	"github.com/JamshedLatipov/crm-sub002/platform/apperr"
	"github.com/JamshedLatipov/crm-sub002/platform/logger"

	"github.com/google/uuid"
)

type fakeRuleRepo struct {
	rules map[uuid.UUID]domain.Rule
}

func newFakeRuleRepo() *fakeRuleRepo {
	return &fakeRuleRepo{rules: make(map[uuid.UUID]domain.Rule)}
}

func (f *fakeRuleRepo) Create(_ context.Context, params repository.CreateRuleParams) (domain.Rule, error) {
	rule := domain.Rule{
		ID:         uuid.New(),
		Name:       params.Name,
		Trigger:    params.Trigger,
		Conditions: params.Conditions,
		Actions:    params.Actions,
		IsActive:   params.IsActive,
		Priority:   params.Priority,
	}
	f.rules[rule.ID] = rule
	return rule, nil
}

func (f *fakeRuleRepo) GetByID(_ context.Context, id uuid.UUID) (domain.Rule, error) {
	rule, ok := f.rules[id]
	if !ok {
		return domain.Rule{}, repository.ErrNotFound
	}
	return rule, nil
}

func (f *fakeRuleRepo) List(_ context.Context) ([]domain.Rule, error) {
	out := make([]domain.Rule, 0, len(f.rules))
	for _, rule := range f.rules {
		out = append(out, rule)
	}
	return out, nil
}

func (f *fakeRuleRepo) Update(_ context.Context, id uuid.UUID, params repository.UpdateRuleParams) (domain.Rule, error) {
	rule, ok := f.rules[id]
	if !ok {
		return domain.Rule{}, repository.ErrNotFound
	}
	rule.Name = params.Name
	rule.Trigger = params.Trigger
	rule.Conditions = params.Conditions
	rule.Actions = params.Actions
	rule.Priority = params.Priority
	f.rules[id] = rule
	return rule, nil
}

func (f *fakeRuleRepo) SetActive(_ context.Context, id uuid.UUID, active bool) (domain.Rule, error) {
	rule, ok := f.rules[id]
	if !ok {
		return domain.Rule{}, repository.ErrNotFound
	}
	rule.IsActive = active
	f.rules[id] = rule
	return rule, nil
}

func (f *fakeRuleRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := f.rules[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.rules, id)
	return nil
}

func newService() (*Service, *fakeRuleRepo) {
	repo := newFakeRuleRepo()
	return New(repo, logger.New("development")), repo
}

func validParams() repository.CreateRuleParams {
	return repository.CreateRuleParams{
		Name:    "route big deals",
		Trigger: domain.TriggerDealCreated,
		Conditions: []domain.ConditionClause{
			{Field: domain.FieldAmount, Operator: domain.OpGreaterThan, Value: domain.NumberValue(1000)},
		},
		Actions: []domain.ActionClause{
			{Type: domain.ActionAssignToUser, Config: map[string]domain.Value{"userId": domain.StringValue(uuid.NewString())}},
		},
		IsActive: true,
	}
}

func wantValidation(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected a validation error")
	}
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation kind, got %v", err)
	}
}

func TestCreateStoresValidRule(t *testing.T) {
	svc, repo := newService()

	rule, err := svc.Create(context.Background(), validParams())
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if _, ok := repo.rules[rule.ID]; !ok {
		t.Fatal("rule not persisted")
	}
	if !rule.IsActive {
		t.Fatal("rule should be active")
	}
}

func TestCreateRejectsUnknownTrigger(t *testing.T) {
	svc, _ := newService()
	params := validParams()
	params.Trigger = "deal_deleted"
	_, err := svc.Create(context.Background(), params)
	wantValidation(t, err)
}

func TestCreateRejectsUnsupportedConditionFields(t *testing.T) {
	svc, _ := newService()

	for _, field := range []domain.ConditionField{domain.FieldTags, domain.FieldAssignee} {
		params := validParams()
		params.Conditions = []domain.ConditionClause{
			{Field: field, Operator: domain.OpContains, Value: domain.StringValue("x")},
		}
		_, err := svc.Create(context.Background(), params)
		wantValidation(t, err)
	}
}

func TestCreateRejectsUnknownConditionField(t *testing.T) {
	svc, _ := newService()
	params := validParams()
	params.Conditions = []domain.ConditionClause{
		{Field: "industry", Operator: domain.OpEquals, Value: domain.StringValue("saas")},
	}
	_, err := svc.Create(context.Background(), params)
	wantValidation(t, err)
}

func TestCreateRejectsUnknownOperator(t *testing.T) {
	svc, _ := newService()
	params := validParams()
	params.Conditions = []domain.ConditionClause{
		{Field: domain.FieldAmount, Operator: "matches", Value: domain.NumberValue(1)},
	}
	_, err := svc.Create(context.Background(), params)
	wantValidation(t, err)
}

func TestCreateRejectsBetweenWithoutNumericBounds(t *testing.T) {
	svc, _ := newService()
	params := validParams()
	params.Conditions = []domain.ConditionClause{
		{Field: domain.FieldAmount, Operator: domain.OpBetween, Value: domain.NumberValue(1), Value2: domain.StringValue("lots")},
	}
	_, err := svc.Create(context.Background(), params)
	wantValidation(t, err)
}

func TestCreateRejectsUnknownActionType(t *testing.T) {
	svc, _ := newService()
	params := validParams()
	params.Actions = []domain.ActionClause{{Type: "delete_entity"}}
	_, err := svc.Create(context.Background(), params)
	wantValidation(t, err)
}

func TestCreateRequiresAtLeastOneAction(t *testing.T) {
	svc, _ := newService()
	params := validParams()
	params.Actions = nil
	_, err := svc.Create(context.Background(), params)
	wantValidation(t, err)
}

func TestUpdateValidatesDefinition(t *testing.T) {
	svc, _ := newService()
	rule, err := svc.Create(context.Background(), validParams())
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	_, err = svc.Update(context.Background(), rule.ID, repository.UpdateRuleParams{
		Name:    rule.Name,
		Trigger: "bogus",
		Actions: rule.Actions,
	})
	wantValidation(t, err)
}

func TestUpdateMissingRuleIsNotFound(t *testing.T) {
	svc, _ := newService()
	params := validParams()
	_, err := svc.Update(context.Background(), uuid.New(), repository.UpdateRuleParams{
		Name:    params.Name,
		Trigger: params.Trigger,
		Actions: params.Actions,
	})
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not-found kind, got %v", err)
	}
}

func TestToggleFlipsActivation(t *testing.T) {
	svc, _ := newService()
	rule, err := svc.Create(context.Background(), validParams())
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	toggled, err := svc.SetActive(context.Background(), rule.ID, false)
	if err != nil {
		t.Fatalf("toggle failed: %v", err)
	}
	if toggled.IsActive {
		t.Fatal("rule should be inactive after toggle")
	}
}

func TestDeleteMissingRuleIsNotFound(t *testing.T) {
	svc, _ := newService()
	if err := svc.Delete(context.Background(), uuid.New()); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not-found kind, got %v", err)
	}
}
