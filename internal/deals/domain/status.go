package domain

// Deal statuses. WON and LOST are business-terminal but not model-terminal:
// a direct status mutation back to OPEN reopens the deal.
const (
	DealStatusOpen = "open"
	DealStatusWon  = "won"
	DealStatusLost = "lost"
)

var knownStatuses = map[string]struct{}{
	DealStatusOpen: {},
	DealStatusWon:  {},
	DealStatusLost: {},
}

func IsKnownStatus(status string) bool {
	_, ok := knownStatuses[status]
	return ok
}

// Field name constants used in history entries and update events. The
// automation engine derives specific triggers from these names, so they are
// part of the internal contract between deals and automation.
const (
	FieldTitle             = "title"
	FieldStage             = "stage_id"
	FieldStatus            = "status"
	FieldAmount            = "amount"
	FieldProbability       = "probability"
	FieldAssignee          = "assignee"
	FieldExpectedCloseDate = "expected_close_date"
	FieldActualCloseDate   = "actual_close_date"
	FieldNotes             = "notes"
)
