package model

import "strconv"

type Phase uint8

const (
	PhaseRegisteringVoters Phase = iota
	PhaseProposalsRegistrationStarted
	PhaseProposalsRegistrationEnded
	PhaseVotingSessionStarted
	PhaseVotingSessionEnded
	PhaseVotesTallied
)

var phaseNames = [...]string{
	"RegisteringVoters",
	"ProposalsRegistrationStarted",
	"ProposalsRegistrationEnded",
	"VotingSessionStarted",
	"VotingSessionEnded",
	"VotesTallied",
}

func (p Phase) IsValid() bool {
	return int(p) < len(phaseNames)
}

func (p Phase) String() string {
	if !p.IsValid() {
		return "Phase(" + strconv.Itoa(int(p)) + ")"
	}
	return phaseNames[p]
}

// Next returns the phase that follows p in the workflow. The terminal phase
// has no successor.
func (p Phase) Next() (Phase, bool) {
	if p >= PhaseVotesTallied {
		return p, false
	}
	return p + 1, true
}
