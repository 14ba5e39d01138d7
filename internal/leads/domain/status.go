package domain

// Lead statuses. CONVERTED and LOST are terminal in the funnel sense but a
// direct status change can move a lead back into the working set.
const (
	LeadStatusNew       = "new"
	LeadStatusContacted = "contacted"
	LeadStatusQualified = "qualified"
	LeadStatusConverted = "converted"
	LeadStatusLost      = "lost"
)

var knownStatuses = map[string]struct{}{
	LeadStatusNew:       {},
	LeadStatusContacted: {},
	LeadStatusQualified: {},
	LeadStatusConverted: {},
	LeadStatusLost:      {},
}

func IsKnownStatus(status string) bool {
	_, ok := knownStatuses[status]
	return ok
}

// ScoreMin and ScoreMax bound the lead score range.
const (
	ScoreMin = 0
	ScoreMax = 100
)

// Field name constants used in history entries and update events.
const (
	FieldName       = "name"
	FieldEmail      = "email"
	FieldSource     = "source"
	FieldStatus     = "status"
	FieldScore      = "score"
	FieldAssignee   = "assignee"
	FieldTags       = "tags"
	FieldFollowUpAt = "follow_up_at"
)
