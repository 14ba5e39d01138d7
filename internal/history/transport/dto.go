package transport

import (
	"time"

	"github.com/JamshedLatipov/crm-sub002/internal/history/repository"

	"github.com/google/uuid"
)

// EntryResponse represents one audit history entry in API responses.
type EntryResponse struct {
	ID          int64          `json:"id"`
	EntityType  string         `json:"entityType"`
	EntityID    uuid.UUID      `json:"entityId"`
	FieldName   *string        `json:"fieldName,omitempty"`
	OldValue    *string        `json:"oldValue,omitempty"`
	NewValue    *string        `json:"newValue,omitempty"`
	ChangeType  string         `json:"changeType"`
	ActorID     *uuid.UUID     `json:"actorId,omitempty"`
	ActorName   *string        `json:"actorName,omitempty"`
	Description string         `json:"description,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	CreatedAt   time.Time      `json:"createdAt"`
}

// EntryListResponse wraps an entity's audit trail, oldest first.
type EntryListResponse struct {
	Items []EntryResponse `json:"items"`
	Total int             `json:"total"`
}

// ToEntryResponse maps a repository entry to its API representation.
func ToEntryResponse(entry repository.Entry) EntryResponse {
	return EntryResponse{
		ID:          entry.ID,
		EntityType:  entry.EntityType,
		EntityID:    entry.EntityID,
		FieldName:   entry.FieldName,
		OldValue:    entry.OldValue,
		NewValue:    entry.NewValue,
		ChangeType:  entry.ChangeType,
		ActorID:     entry.ActorID,
		ActorName:   entry.ActorName,
		Description: entry.Description,
		Metadata:    entry.Metadata,
		CreatedAt:   entry.CreatedAt,
	}
}

// ToEntryListResponse maps a slice of repository entries.
func ToEntryListResponse(entries []repository.Entry) EntryListResponse {
	items := make([]EntryResponse, 0, len(entries))
	for _, entry := range entries {
		items = append(items, ToEntryResponse(entry))
	}
	return EntryListResponse{Items: items, Total: len(items)}
}
