// Package repository persists deals with handwritten SQL over pgx.
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

var ErrNotFound = errors.New("deal not found")

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type Deal struct {
	ID                uuid.UUID
	Title             string
	StageID           uuid.UUID
	Status            string
	Amount            float64
	Probability       *int
	ExpectedCloseDate *time.Time
	ActualCloseDate   *time.Time
	Notes             string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

type CreateDealParams struct {
	Title             string
	StageID           uuid.UUID
	Status            string
	Amount            float64
	Probability       *int
	ExpectedCloseDate *time.Time
	Notes             string
}

// UpdateDealParams is a partial-update patch. Nil pointer fields are left
// untouched. Nullable columns use an explicit Set flag so they can be
// cleared (value nil + flag true writes NULL).
type UpdateDealParams struct {
	Title                *string
	StageID              *uuid.UUID
	Status               *string
	Amount               *float64
	Probability          *int
	ProbabilitySet       bool
	ExpectedCloseDate    *time.Time
	ExpectedCloseDateSet bool
	ActualCloseDate      *time.Time
	ActualCloseDateSet   bool
	Notes                *string
}

const dealSelectCols = `
	id, title, stage_id, status, amount, probability, expected_close_date, actual_close_date, notes, created_at, updated_at`

func (r *Repository) Create(ctx context.Context, params CreateDealParams) (Deal, error) {
	var deal Deal
	err := r.pool.QueryRow(ctx, `
		INSERT INTO deals (title, stage_id, status, amount, probability, expected_close_date, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING`+dealSelectCols+`
	`, params.Title, params.StageID, params.Status, params.Amount, params.Probability,
		params.ExpectedCloseDate, params.Notes).Scan(
		&deal.ID, &deal.Title, &deal.StageID, &deal.Status, &deal.Amount, &deal.Probability,
		&deal.ExpectedCloseDate, &deal.ActualCloseDate, &deal.Notes, &deal.CreatedAt, &deal.UpdatedAt,
	)
	if err != nil {
		return Deal{}, err
	}
	return deal, nil
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (Deal, error) {
	var deal Deal
	err := r.pool.QueryRow(ctx, `
		SELECT`+dealSelectCols+`
		FROM deals WHERE id = $1
	`, id).Scan(
		&deal.ID, &deal.Title, &deal.StageID, &deal.Status, &deal.Amount, &deal.Probability,
		&deal.ExpectedCloseDate, &deal.ActualCloseDate, &deal.Notes, &deal.CreatedAt, &deal.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Deal{}, ErrNotFound
	}
	if err != nil {
		return Deal{}, err
	}
	return deal, nil
}

// List returns deals, newest first.
func (r *Repository) List(ctx context.Context) ([]Deal, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT`+dealSelectCols+`
		FROM deals
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]Deal, 0)
	for rows.Next() {
		var deal Deal
		if err := rows.Scan(
			&deal.ID, &deal.Title, &deal.StageID, &deal.Status, &deal.Amount, &deal.Probability,
			&deal.ExpectedCloseDate, &deal.ActualCloseDate, &deal.Notes, &deal.CreatedAt, &deal.UpdatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, deal)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// UpdateFields applies a partial update and returns the updated row.
// An empty patch returns the current row unchanged.
func (r *Repository) UpdateFields(ctx context.Context, id uuid.UUID, params UpdateDealParams) (Deal, error) {
	sets := make([]string, 0, 8)
	args := make([]any, 0, 9)

	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if params.Title != nil {
		add("title", *params.Title)
	}
	if params.StageID != nil {
		add("stage_id", *params.StageID)
	}
	if params.Status != nil {
		add("status", *params.Status)
	}
	if params.Amount != nil {
		add("amount", *params.Amount)
	}
	if params.ProbabilitySet {
		add("probability", params.Probability)
	}
	if params.ExpectedCloseDateSet {
		add("expected_close_date", params.ExpectedCloseDate)
	}
	if params.ActualCloseDateSet {
		add("actual_close_date", params.ActualCloseDate)
	}
	if params.Notes != nil {
		add("notes", *params.Notes)
	}

	if len(sets) == 0 {
		return r.GetByID(ctx, id)
	}

	sets = append(sets, "updated_at = now()")
	args = append(args, id)

	var deal Deal
	err := r.pool.QueryRow(ctx, `
		UPDATE deals SET `+strings.Join(sets, ", ")+`
		WHERE id = $`+fmt.Sprint(len(args))+`
		RETURNING`+dealSelectCols+`
	`, args...).Scan(
		&deal.ID, &deal.Title, &deal.StageID, &deal.Status, &deal.Amount, &deal.Probability,
		&deal.ExpectedCloseDate, &deal.ActualCloseDate, &deal.Notes, &deal.CreatedAt, &deal.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Deal{}, ErrNotFound
	}
	if err != nil {
		return Deal{}, err
	}
	return deal, nil
}
