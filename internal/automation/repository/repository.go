// Package repository persists automation rules. Conditions and actions are
// stored as jsonb documents and decoded into the closed domain types.
package repository

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/JamshedLatipov/crm-sub002/internal/automation/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("automation rule not found")

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type CreateRuleParams struct {
	Name        string
	Description string
	Trigger     domain.Trigger
	Conditions  []domain.ConditionClause
	Actions     []domain.ActionClause
	IsActive    bool
	Priority    int
}

// UpdateRuleParams replaces a rule's definition. Statistics fields are not
// touched; they change only through MarkTriggered.
type UpdateRuleParams struct {
	Name        string
	Description string
	Trigger     domain.Trigger
	Conditions  []domain.ConditionClause
	Actions     []domain.ActionClause
	Priority    int
}

const ruleSelectCols = `
	id, name, description, trigger, conditions, actions, is_active, priority, trigger_count, last_triggered_at, created_at, updated_at`

func (r *Repository) Create(ctx context.Context, params CreateRuleParams) (domain.Rule, error) {
	conditionsJSON, actionsJSON, err := marshalClauses(params.Conditions, params.Actions)
	if err != nil {
		return domain.Rule{}, err
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO automation_rules (name, description, trigger, conditions, actions, is_active, priority)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING`+ruleSelectCols+`
	`, params.Name, params.Description, string(params.Trigger), conditionsJSON, actionsJSON,
		params.IsActive, params.Priority)
	return scanRule(row)
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (domain.Rule, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT`+ruleSelectCols+`
		FROM automation_rules WHERE id = $1
	`, id)
	rule, err := scanRule(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Rule{}, ErrNotFound
	}
	return rule, err
}

// List returns every rule ordered the same way dispatch reads them.
func (r *Repository) List(ctx context.Context) ([]domain.Rule, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT`+ruleSelectCols+`
		FROM automation_rules
		ORDER BY priority ASC, created_at ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRules(rows)
}

// FindActiveByTrigger returns the active rules for a trigger in execution
// order: priority ascending, ties broken by creation order (stable).
func (r *Repository) FindActiveByTrigger(ctx context.Context, trigger domain.Trigger) ([]domain.Rule, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT`+ruleSelectCols+`
		FROM automation_rules
		WHERE trigger = $1 AND is_active = true
		ORDER BY priority ASC, created_at ASC
	`, string(trigger))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRules(rows)
}

func (r *Repository) Update(ctx context.Context, id uuid.UUID, params UpdateRuleParams) (domain.Rule, error) {
	conditionsJSON, actionsJSON, err := marshalClauses(params.Conditions, params.Actions)
	if err != nil {
		return domain.Rule{}, err
	}

	row := r.pool.QueryRow(ctx, `
		UPDATE automation_rules
		SET name = $1, description = $2, trigger = $3, conditions = $4, actions = $5, priority = $6, updated_at = now()
		WHERE id = $7
		RETURNING`+ruleSelectCols+`
	`, params.Name, params.Description, string(params.Trigger), conditionsJSON, actionsJSON,
		params.Priority, id)
	rule, err := scanRule(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Rule{}, ErrNotFound
	}
	return rule, err
}

// SetActive toggles a rule. An inactive rule is excluded from the next
// FindActiveByTrigger read.
func (r *Repository) SetActive(ctx context.Context, id uuid.UUID, active bool) (domain.Rule, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE automation_rules
		SET is_active = $1, updated_at = now()
		WHERE id = $2
		RETURNING`+ruleSelectCols+`
	`, active, id)
	rule, err := scanRule(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Rule{}, ErrNotFound
	}
	return rule, err
}

func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM automation_rules WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkTriggered bumps the rule's statistics after a successful evaluation
// pass, regardless of action outcomes.
func (r *Repository) MarkTriggered(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE automation_rules
		SET trigger_count = trigger_count + 1, last_triggered_at = now()
		WHERE id = $1
	`, id)
	return err
}

func marshalClauses(conditions []domain.ConditionClause, actions []domain.ActionClause) ([]byte, []byte, error) {
	if conditions == nil {
		conditions = []domain.ConditionClause{}
	}
	if actions == nil {
		actions = []domain.ActionClause{}
	}
	conditionsJSON, err := json.Marshal(conditions)
	if err != nil {
		return nil, nil, err
	}
	actionsJSON, err := json.Marshal(actions)
	if err != nil {
		return nil, nil, err
	}
	return conditionsJSON, actionsJSON, nil
}

type ruleRowScanner interface {
	Scan(dest ...any) error
}

func scanRule(s ruleRowScanner) (domain.Rule, error) {
	var rule domain.Rule
	var trigger string
	var rawConditions, rawActions []byte
	if err := s.Scan(
		&rule.ID,
		&rule.Name,
		&rule.Description,
		&trigger,
		&rawConditions,
		&rawActions,
		&rule.IsActive,
		&rule.Priority,
		&rule.TriggerCount,
		&rule.LastTriggeredAt,
		&rule.CreatedAt,
		&rule.UpdatedAt,
	); err != nil {
		return domain.Rule{}, err
	}

	rule.Trigger = domain.Trigger(trigger)
	if len(rawConditions) > 0 {
		if err := json.Unmarshal(rawConditions, &rule.Conditions); err != nil {
			return domain.Rule{}, err
		}
	}
	if len(rawActions) > 0 {
		if err := json.Unmarshal(rawActions, &rule.Actions); err != nil {
			return domain.Rule{}, err
		}
	}
	return rule, nil
}

func collectRules(rows pgx.Rows) ([]domain.Rule, error) {
	items := make([]domain.Rule, 0)
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
