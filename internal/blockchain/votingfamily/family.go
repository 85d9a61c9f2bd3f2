package votingfamily

import "voting-ledger/internal/voting"

const (
	FamilyName    string = "voting"
	FamilyVersion string = "1.0"

	// the single entry holding owner, phase, proposals and voters
	ledgerPrefix = "ledger"

	// events emitted by the processor are named EventPrefix + action
	EventPrefix = "voting/"
)

// EventTypes returns the event type of every voting action.
func EventTypes() []string {
	types := make([]string, len(voting.Actions))
	for i, a := range voting.Actions {
		types[i] = EventPrefix + string(a)
	}
	return types
}
