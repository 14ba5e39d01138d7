// Package repository persists the pipeline stage catalog.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("pipeline stage not found")

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type Stage struct {
	ID                 uuid.UUID
	Name               string
	Kind               string
	DefaultProbability int
	Position           int
	IsActive           bool
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

type CreateStageParams struct {
	Name               string
	Kind               string
	DefaultProbability int
	Position           int
}

const stageSelectCols = `
	id, name, kind, default_probability, position, is_active, created_at, updated_at`

func (r *Repository) Create(ctx context.Context, params CreateStageParams) (Stage, error) {
	var stage Stage
	err := r.pool.QueryRow(ctx, `
		INSERT INTO pipeline_stages (name, kind, default_probability, position)
		VALUES ($1, $2, $3, $4)
		RETURNING`+stageSelectCols+`
	`, params.Name, params.Kind, params.DefaultProbability, params.Position).Scan(
		&stage.ID, &stage.Name, &stage.Kind, &stage.DefaultProbability,
		&stage.Position, &stage.IsActive, &stage.CreatedAt, &stage.UpdatedAt,
	)
	if err != nil {
		return Stage{}, err
	}
	return stage, nil
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (Stage, error) {
	var stage Stage
	err := r.pool.QueryRow(ctx, `
		SELECT`+stageSelectCols+`
		FROM pipeline_stages
		WHERE id = $1
	`, id).Scan(
		&stage.ID, &stage.Name, &stage.Kind, &stage.DefaultProbability,
		&stage.Position, &stage.IsActive, &stage.CreatedAt, &stage.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Stage{}, ErrNotFound
	}
	if err != nil {
		return Stage{}, err
	}
	return stage, nil
}

// List returns all stages ordered by board position.
func (r *Repository) List(ctx context.Context) ([]Stage, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT`+stageSelectCols+`
		FROM pipeline_stages
		ORDER BY position ASC, created_at ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectStages(rows)
}

// FindActiveByKind returns the active stages with the given kind, ordered by
// position then creation time. The ordering is the documented tie-break when
// more than one active stage shares a WON/LOST kind: the first row wins.
func (r *Repository) FindActiveByKind(ctx context.Context, kind string) ([]Stage, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT`+stageSelectCols+`
		FROM pipeline_stages
		WHERE kind = $1 AND is_active = true
		ORDER BY position ASC, created_at ASC
	`, kind)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectStages(rows)
}

func collectStages(rows pgx.Rows) ([]Stage, error) {
	items := make([]Stage, 0)
	for rows.Next() {
		var stage Stage
		if err := rows.Scan(
			&stage.ID, &stage.Name, &stage.Kind, &stage.DefaultProbability,
			&stage.Position, &stage.IsActive, &stage.CreatedAt, &stage.UpdatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, stage)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
