package synchronizer

import "strings"

const (
	// StateField and TypeField are the ticket fields the synchronizer reads.
	StateField = "State"
	TypeField  = "Type"

	// TargetState is the state eligible tickets are moved to.
	TargetState = "PR Open"

	typeLabelPrefix = "@yt/type/"
)

var transitionSources = map[string]struct{}{
	"to do":       {},
	"to fix":      {},
	"in progress": {},
}

// ShouldTransition reports whether a ticket in the given state moves to
// TargetState. The comparison ignores case.
func ShouldTransition(state string) bool {
	_, ok := transitionSources[strings.ToLower(strings.TrimSpace(state))]
	return ok
}

// TypeLabel returns the pull request label for a ticket type.
func TypeLabel(typeName string) string {
	return typeLabelPrefix + typeName
}
