// Package repository persists the append-only audit history of CRM entities.
// Entries are immutable once written; the only delete path is the bulk
// retention cleanup used by maintenance jobs.
package repository

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DescriptionMaxLen is the canonical maximum character length for history
// entry descriptions. Callers should use TruncateDescription when populating
// AppendEntryParams.Description.
const DescriptionMaxLen = 400

// TruncateDescription trims text to maxLen, appending "..." on overflow.
func TruncateDescription(text string, maxLen int) string {
	trimmed := strings.TrimSpace(text)
	if len(trimmed) > maxLen {
		trimmed = trimmed[:maxLen] + "..."
	}
	return trimmed
}

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type Entry struct {
	ID          int64
	EntityType  string
	EntityID    uuid.UUID
	FieldName   *string
	OldValue    *string
	NewValue    *string
	ChangeType  string
	ActorID     *uuid.UUID
	ActorName   *string
	Description string
	Metadata    map[string]any
	CreatedAt   time.Time
}

type AppendEntryParams struct {
	EntityType  string
	EntityID    uuid.UUID
	FieldName   *string
	OldValue    *string
	NewValue    *string
	ChangeType  string
	ActorID     *uuid.UUID
	ActorName   *string
	Description string
	Metadata    map[string]any
}

func (r *Repository) Append(ctx context.Context, params AppendEntryParams) (Entry, error) {
	metadataJSON, err := json.Marshal(params.Metadata)
	if err != nil {
		return Entry{}, err
	}

	var entry Entry
	// metadata is excluded from RETURNING: we already hold params.Metadata as
	// a Go value and re-scanning the stored JSONB would add a redundant
	// json.Unmarshal on every insert.
	err = r.pool.QueryRow(ctx, `
		INSERT INTO history_entries (
			entity_type,
			entity_id,
			field_name,
			old_value,
			new_value,
			change_type,
			actor_id,
			actor_name,
			description,
			metadata
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, entity_type, entity_id, field_name, old_value, new_value, change_type, actor_id, actor_name, description, created_at
	`, params.EntityType, params.EntityID, params.FieldName, params.OldValue, params.NewValue, params.ChangeType,
		params.ActorID, params.ActorName, params.Description, metadataJSON).Scan(
		&entry.ID,
		&entry.EntityType,
		&entry.EntityID,
		&entry.FieldName,
		&entry.OldValue,
		&entry.NewValue,
		&entry.ChangeType,
		&entry.ActorID,
		&entry.ActorName,
		&entry.Description,
		&entry.CreatedAt,
	)
	if err != nil {
		return Entry{}, err
	}

	entry.Metadata = params.Metadata
	return entry, nil
}

const entrySelectCols = `
	id, entity_type, entity_id, field_name, old_value, new_value, change_type, actor_id, actor_name, description, metadata, created_at`

// ListByEntity returns all history entries for an entity, oldest first, so
// the audit trail reads in the order the changes happened.
func (r *Repository) ListByEntity(ctx context.Context, entityType string, entityID uuid.UUID) ([]Entry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT`+entrySelectCols+`
		FROM history_entries
		WHERE entity_type = $1 AND entity_id = $2
		ORDER BY created_at ASC, id ASC
	`, entityType, entityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]Entry, 0)
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// DeleteOlderThan removes entries older than the given number of days and
// returns how many rows were deleted. This is a maintenance entry point, not
// part of the hot path.
func (r *Repository) DeleteOlderThan(ctx context.Context, days int) (int64, error) {
	cutoff := time.Now().AddDate(0, 0, -days)
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM history_entries WHERE created_at < $1
	`, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// entryRowScanner is satisfied by pgx.Rows and pgx.Row so scanEntry can be
// shared between single-row and multi-row queries.
type entryRowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(s entryRowScanner) (Entry, error) {
	var entry Entry
	var rawMetadata []byte
	if err := s.Scan(
		&entry.ID,
		&entry.EntityType,
		&entry.EntityID,
		&entry.FieldName,
		&entry.OldValue,
		&entry.NewValue,
		&entry.ChangeType,
		&entry.ActorID,
		&entry.ActorName,
		&entry.Description,
		&rawMetadata,
		&entry.CreatedAt,
	); err != nil {
		return Entry{}, err
	}
	if len(rawMetadata) > 0 {
		_ = json.Unmarshal(rawMetadata, &entry.Metadata)
	}
	return entry, nil
}
