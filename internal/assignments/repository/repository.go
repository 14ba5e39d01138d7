// Package repository persists entity assignments: which user currently owns
// a deal or lead. Reassignment removes the prior row and inserts a new one,
// so GetCurrent reflects only live assignments.
package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type Assignment struct {
	ID         uuid.UUID
	EntityType string
	EntityID   uuid.UUID
	UserID     uuid.UUID
	AssignedBy *uuid.UUID
	Reason     string
	CreatedAt  time.Time
}

type CreateAssignmentParams struct {
	EntityType string
	EntityID   uuid.UUID
	UserID     uuid.UUID
	AssignedBy *uuid.UUID
	Reason     string
}

// Create stores the assignment. An entity holds at most one assignment, so a
// conflicting row is replaced in place rather than erroring.
func (r *Repository) Create(ctx context.Context, params CreateAssignmentParams) (Assignment, error) {
	var assignment Assignment
	err := r.pool.QueryRow(ctx, `
		INSERT INTO assignments (entity_type, entity_id, user_id, assigned_by, reason)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (entity_type, entity_id) DO UPDATE
		SET user_id = EXCLUDED.user_id, assigned_by = EXCLUDED.assigned_by,
		    reason = EXCLUDED.reason, created_at = now()
		RETURNING id, entity_type, entity_id, user_id, assigned_by, reason, created_at
	`, params.EntityType, params.EntityID, params.UserID, params.AssignedBy, params.Reason).Scan(
		&assignment.ID, &assignment.EntityType, &assignment.EntityID, &assignment.UserID,
		&assignment.AssignedBy, &assignment.Reason, &assignment.CreatedAt,
	)
	if err != nil {
		return Assignment{}, err
	}
	return assignment, nil
}

// Remove deletes the assignment of userID on the entity. Removing an
// assignment that does not exist is not an error.
func (r *Repository) Remove(ctx context.Context, entityType string, entityID, userID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		DELETE FROM assignments
		WHERE entity_type = $1 AND entity_id = $2 AND user_id = $3
	`, entityType, entityID, userID)
	return err
}

// GetCurrent returns the live assignments for an entity, oldest first.
func (r *Repository) GetCurrent(ctx context.Context, entityType string, entityID uuid.UUID) ([]Assignment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, entity_type, entity_id, user_id, assigned_by, reason, created_at
		FROM assignments
		WHERE entity_type = $1 AND entity_id = $2
		ORDER BY created_at ASC
	`, entityType, entityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]Assignment, 0)
	for rows.Next() {
		var assignment Assignment
		if err := rows.Scan(
			&assignment.ID, &assignment.EntityType, &assignment.EntityID, &assignment.UserID,
			&assignment.AssignedBy, &assignment.Reason, &assignment.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, assignment)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
