package voting

import (
	"fmt"
	"voting-ledger/internal/model"
)

type Action string

const (
	ActionDeploy                     Action = "deploy"
	ActionRegisterVoter              Action = "registerVoter"
	ActionRemoveVoter                Action = "removeVoter"
	ActionStartProposalsRegistration Action = "startProposalsRegistration"
	ActionAddProposal                Action = "addProposal"
	ActionEndProposalsRegistration   Action = "endProposalsRegistration"
	ActionStartVotingSession         Action = "startVotingSession"
	ActionVote                       Action = "vote"
	ActionCancelVote                 Action = "cancelVote"
	ActionEndVotingSession           Action = "endVotingSession"
	ActionTallyVotes                 Action = "tallyVotes"
	ActionResetSession               Action = "resetSession"
)

// Actions lists every action a transaction can carry.
var Actions = []Action{
	ActionDeploy,
	ActionRegisterVoter,
	ActionRemoveVoter,
	ActionStartProposalsRegistration,
	ActionAddProposal,
	ActionEndProposalsRegistration,
	ActionStartVotingSession,
	ActionVote,
	ActionCancelVote,
	ActionEndVotingSession,
	ActionTallyVotes,
	ActionResetSession,
}

// Command is one mutating operation in serialisable form. Address is used by
// the voter registry actions, Description by addProposal and ProposalID by vote.
type Command struct {
	Action      Action `cbor:"action" json:"action"`
	Address     string `cbor:"address" json:"address,omitempty"`
	Description string `cbor:"description" json:"description,omitempty"`
	ProposalID  int    `cbor:"proposalId" json:"proposalId"`
}

func (c Command) String() string {
	switch c.Action {
	case ActionRegisterVoter, ActionRemoveVoter:
		return fmt.Sprintf("%s(%s)", c.Action, c.Address)
	case ActionAddProposal:
		return fmt.Sprintf("%s(%q)", c.Action, c.Description)
	case ActionVote:
		return fmt.Sprintf("%s(%d)", c.Action, c.ProposalID)
	}
	return string(c.Action) + "()"
}

// Apply executes cmd on behalf of caller. Deploy is not a state operation and
// is rejected here; whoever owns the storage creates the State with NewState.
func (s *State) Apply(caller string, cmd Command) error {
	switch cmd.Action {
	case ActionRegisterVoter:
		return s.RegisterVoter(caller, cmd.Address)
	case ActionRemoveVoter:
		return s.RemoveVoter(caller, cmd.Address)
	case ActionStartProposalsRegistration:
		return s.StartProposalsRegistration(caller)
	case ActionAddProposal:
		_, err := s.AddProposal(caller, cmd.Description)
		return err
	case ActionEndProposalsRegistration:
		return s.EndProposalsRegistration(caller)
	case ActionStartVotingSession:
		return s.StartVotingSession(caller)
	case ActionVote:
		return s.Vote(caller, cmd.ProposalID)
	case ActionCancelVote:
		return s.CancelVote(caller)
	case ActionEndVotingSession:
		return s.EndVotingSession(caller)
	case ActionTallyVotes:
		return s.TallyVotes(caller)
	case ActionResetSession:
		return s.Reset(caller)
	case ActionDeploy:
		return fmt.Errorf("%w: owner %q", ErrAlreadyDeployed, s.Owner)
	}
	return fmt.Errorf("%w: %q", ErrUnknownAction, cmd.Action)
}

// workflowActions maps the REST/CLI names of the admin transitions to actions.
var workflowActions = map[string]Action{
	"start-proposals-registration": ActionStartProposalsRegistration,
	"end-proposals-registration":   ActionEndProposalsRegistration,
	"start-voting-session":         ActionStartVotingSession,
	"end-voting-session":           ActionEndVotingSession,
	"tally-votes":                  ActionTallyVotes,
}

// WorkflowAction resolves a dashed transition name like "start-voting-session".
func WorkflowAction(name string) (Action, bool) {
	a, ok := workflowActions[name]
	return a, ok
}

// ExpectedPhase returns the phase an action must be applied in, if it has one.
func ExpectedPhase(action Action) (model.Phase, bool) {
	switch action {
	case ActionRegisterVoter, ActionRemoveVoter, ActionStartProposalsRegistration:
		return model.PhaseRegisteringVoters, true
	case ActionAddProposal, ActionEndProposalsRegistration:
		return model.PhaseProposalsRegistrationStarted, true
	case ActionStartVotingSession:
		return model.PhaseProposalsRegistrationEnded, true
	case ActionVote, ActionCancelVote, ActionEndVotingSession:
		return model.PhaseVotingSessionStarted, true
	case ActionTallyVotes:
		return model.PhaseVotingSessionEnded, true
	}
	return 0, false
}
