// Package engine implements the automation pipeline: trigger dispatch,
// condition evaluation, action execution and the periodic time-based
// scheduler. The engine talks to the rest of the system exclusively through
// the ports declared in this package.
package engine

import (
	"time"

	"github.com/google/uuid"
)

// EntityKind identifies which CRM entity a snapshot describes.
type EntityKind string

const (
	EntityDeal EntityKind = "deal"
	EntityLead EntityKind = "lead"

	// EntityNone is the synthetic context used for time-based dispatch:
	// entity-dependent conditions evaluate false and entity-targeted
	// actions are warn-level no-ops.
	EntityNone EntityKind = ""
)

// Snapshot is the read-only entity state conditions evaluate against and
// actions execute on. Deal-only and lead-only fields are zero for the other
// kind.
type Snapshot struct {
	Kind        EntityKind
	ID          uuid.UUID
	StageID     uuid.UUID
	Status      string
	Amount      float64
	Probability *int
	Score       int
	Source      string
	Tags        []string
	CreatedAt   time.Time
}
