// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"github.com/JamshedLatipov/crm-sub002/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// Actor identifies who performed a mutation. A nil ID with an empty name
// means the change originated from the system or an automation rule.
type Actor struct {
	ID   *uuid.UUID `json:"id,omitempty"`
	Name string     `json:"name,omitempty"`
}

// FieldChange captures a single field-level change on an entity.
// Old and New are string snapshots of the pre/post values.
type FieldChange struct {
	Field string `json:"field"`
	Old   string `json:"old"`
	New   string `json:"new"`
}

// =============================================================================
// Deal Domain Events
// =============================================================================

// DealCreated is published synchronously after a deal row is persisted.
type DealCreated struct {
	BaseEvent
	DealID      uuid.UUID `json:"dealId"`
	Title       string    `json:"title"`
	StageID     uuid.UUID `json:"stageId"`
	Status      string    `json:"status"`
	Amount      float64   `json:"amount"`
	Probability *int      `json:"probability,omitempty"`
	Actor       Actor     `json:"actor"`
}

func (e DealCreated) EventName() string { return "deals.created" }

// DealUpdated is published synchronously after any deal mutation, carrying
// the full field-level change set. Stage moves, status changes, amount
// updates and reassignments all flow through this single event so the
// automation engine can derive the specific triggers itself.
type DealUpdated struct {
	BaseEvent
	DealID      uuid.UUID     `json:"dealId"`
	Title       string        `json:"title"`
	StageID     uuid.UUID     `json:"stageId"`
	Status      string        `json:"status"`
	Amount      float64       `json:"amount"`
	Probability *int          `json:"probability,omitempty"`
	Changes     []FieldChange `json:"changes"`
	Actor       Actor         `json:"actor"`
}

func (e DealUpdated) EventName() string { return "deals.updated" }

// =============================================================================
// Lead Domain Events
// =============================================================================

// LeadCreated is published synchronously after a lead row is persisted.
type LeadCreated struct {
	BaseEvent
	LeadID uuid.UUID `json:"leadId"`
	Name   string    `json:"name"`
	Status string    `json:"status"`
	Score  int       `json:"score"`
	Source string    `json:"source,omitempty"`
	Actor  Actor     `json:"actor"`
}

func (e LeadCreated) EventName() string { return "leads.created" }

// LeadUpdated is published synchronously after any lead mutation.
type LeadUpdated struct {
	BaseEvent
	LeadID  uuid.UUID     `json:"leadId"`
	Name    string        `json:"name"`
	Status  string        `json:"status"`
	Score   int           `json:"score"`
	Source  string        `json:"source,omitempty"`
	Changes []FieldChange `json:"changes"`
	Actor   Actor         `json:"actor"`
}

func (e LeadUpdated) EventName() string { return "leads.updated" }

// =============================================================================
// Reminder Events
// =============================================================================

// FollowUpDue is published by the scheduler worker when a follow-up task or
// reminder created by an automation action reaches its due time.
type FollowUpDue struct {
	BaseEvent
	EntityType string    `json:"entityType"`
	EntityID   uuid.UUID `json:"entityId"`
	Message    string    `json:"message"`
}

func (e FollowUpDue) EventName() string { return "crm.followup.due" }
