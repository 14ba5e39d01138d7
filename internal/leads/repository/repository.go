// Package repository persists leads with handwritten SQL over pgx.
package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("lead not found")

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type Lead struct {
	ID         uuid.UUID
	Name       string
	Email      string
	Source     string
	Status     string
	Score      int
	Tags       []string
	FollowUpAt *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type CreateLeadParams struct {
	Name   string
	Email  string
	Source string
	Status string
	Score  int
	Tags   []string
}

// UpdateLeadParams is a partial-update patch. Nil pointer fields are left
// untouched. FollowUpAt uses an explicit Set flag so it can be cleared.
type UpdateLeadParams struct {
	Name          *string
	Email         *string
	Source        *string
	Status        *string
	Score         *int
	Tags          []string
	TagsSet       bool
	FollowUpAt    *time.Time
	FollowUpAtSet bool
}

const leadSelectCols = `
	id, name, email, source, status, score, tags, follow_up_at, created_at, updated_at`

func (r *Repository) Create(ctx context.Context, params CreateLeadParams) (Lead, error) {
	tags := params.Tags
	if tags == nil {
		tags = []string{}
	}

	var lead Lead
	err := r.pool.QueryRow(ctx, `
		INSERT INTO leads (name, email, source, status, score, tags)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING`+leadSelectCols+`
	`, params.Name, params.Email, params.Source, params.Status, params.Score, tags).Scan(
		&lead.ID, &lead.Name, &lead.Email, &lead.Source, &lead.Status, &lead.Score,
		&lead.Tags, &lead.FollowUpAt, &lead.CreatedAt, &lead.UpdatedAt,
	)
	if err != nil {
		return Lead{}, err
	}
	return lead, nil
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (Lead, error) {
	var lead Lead
	err := r.pool.QueryRow(ctx, `
		SELECT`+leadSelectCols+`
		FROM leads WHERE id = $1
	`, id).Scan(
		&lead.ID, &lead.Name, &lead.Email, &lead.Source, &lead.Status, &lead.Score,
		&lead.Tags, &lead.FollowUpAt, &lead.CreatedAt, &lead.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Lead{}, ErrNotFound
	}
	if err != nil {
		return Lead{}, err
	}
	return lead, nil
}

// List returns leads, newest first.
func (r *Repository) List(ctx context.Context) ([]Lead, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT`+leadSelectCols+`
		FROM leads
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]Lead, 0)
	for rows.Next() {
		var lead Lead
		if err := rows.Scan(
			&lead.ID, &lead.Name, &lead.Email, &lead.Source, &lead.Status, &lead.Score,
			&lead.Tags, &lead.FollowUpAt, &lead.CreatedAt, &lead.UpdatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, lead)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// UpdateFields applies a partial update and returns the updated row.
// An empty patch returns the current row unchanged.
func (r *Repository) UpdateFields(ctx context.Context, id uuid.UUID, params UpdateLeadParams) (Lead, error) {
	sets := make([]string, 0, 7)
	args := make([]any, 0, 8)

	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if params.Name != nil {
		add("name", *params.Name)
	}
	if params.Email != nil {
		add("email", *params.Email)
	}
	if params.Source != nil {
		add("source", *params.Source)
	}
	if params.Status != nil {
		add("status", *params.Status)
	}
	if params.Score != nil {
		add("score", *params.Score)
	}
	if params.TagsSet {
		tags := params.Tags
		if tags == nil {
			tags = []string{}
		}
		add("tags", tags)
	}
	if params.FollowUpAtSet {
		add("follow_up_at", params.FollowUpAt)
	}

	if len(sets) == 0 {
		return r.GetByID(ctx, id)
	}

	sets = append(sets, "updated_at = now()")
	args = append(args, id)

	var lead Lead
	err := r.pool.QueryRow(ctx, `
		UPDATE leads SET `+strings.Join(sets, ", ")+`
		WHERE id = $`+fmt.Sprint(len(args))+`
		RETURNING`+leadSelectCols+`
	`, args...).Scan(
		&lead.ID, &lead.Name, &lead.Email, &lead.Source, &lead.Status, &lead.Score,
		&lead.Tags, &lead.FollowUpAt, &lead.CreatedAt, &lead.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Lead{}, ErrNotFound
	}
	if err != nil {
		return Lead{}, err
	}
	return lead, nil
}
