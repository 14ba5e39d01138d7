package domain

// Stage kinds classify pipeline stages for automatic deal status derivation.
// Moving a deal onto a WON or LOST stage forces the matching status; NORMAL
// stages leave the status untouched.
const (
	StageKindNormal = "normal"
	StageKindWon    = "won"
	StageKindLost   = "lost"
)

var knownStageKinds = map[string]struct{}{
	StageKindNormal: {},
	StageKindWon:    {},
	StageKindLost:   {},
}

func IsKnownStageKind(kind string) bool {
	_, ok := knownStageKinds[kind]
	return ok
}
