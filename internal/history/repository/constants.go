package repository

// EntityType constants identify which CRM entity a history entry belongs to.
const (
	EntityTypeDeal = "deal"
	EntityTypeLead = "lead"
)

// ActorName constants for system-originated entries. Human actor names come
// from the user record; automation entries carry the rule name.
const (
	ActorNameSystem     = "System"
	ActorNameAutomation = "Automation"
	ActorNameScheduler  = "Scheduler"
)

// ChangeType constants identify the nature of a history entry.
const (
	ChangeTypeCreated            = "created"
	ChangeTypeUpdated            = "updated"
	ChangeTypeStageMoved         = "stage_moved"
	ChangeTypeStatusChanged      = "status_changed"
	ChangeTypeAssigned           = "assigned"
	ChangeTypeAmountChanged      = "amount_changed"
	ChangeTypeProbabilityChanged = "probability_changed"
	ChangeTypeScoreChanged       = "score_changed"
	ChangeTypeWon                = "won"
	ChangeTypeLost               = "lost"
	ChangeTypeReopened           = "reopened"
	ChangeTypeNoteAdded          = "note_added"
	ChangeTypeContactLinked      = "contact_linked"
	ChangeTypeCompanyLinked      = "company_linked"
	ChangeTypeLeadLinked         = "lead_linked"
	ChangeTypeDateChanged        = "date_changed"
	ChangeTypeActivity           = "activity"
	ChangeTypeDeleted            = "deleted"
)
