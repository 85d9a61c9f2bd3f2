package voting

import (
	"fmt"
	"voting-ledger/internal/model"
)

func (s *State) StartProposalsRegistration(caller string) error {
	return s.advance(caller, model.PhaseRegisteringVoters)
}

func (s *State) EndProposalsRegistration(caller string) error {
	return s.advance(caller, model.PhaseProposalsRegistrationStarted)
}

func (s *State) StartVotingSession(caller string) error {
	return s.advance(caller, model.PhaseProposalsRegistrationEnded)
}

func (s *State) EndVotingSession(caller string) error {
	return s.advance(caller, model.PhaseVotingSessionStarted)
}

// TallyVotes closes the election. Vote counts are maintained by Vote and
// CancelVote, so there is nothing to recompute.
func (s *State) TallyVotes(caller string) error {
	return s.advance(caller, model.PhaseVotingSessionEnded)
}

// advance moves the workflow one step forward, only from the given phase.
func (s *State) advance(caller string, from model.Phase) error {
	if err := s.requireOwner(caller); err != nil {
		return err
	}

	next, ok := from.Next()
	if !ok || s.Phase != from {
		return fmt.Errorf("%w: %s -> %s requested, current phase is %s", ErrInvalidPhaseTransition, from, next, s.Phase)
	}

	s.Phase = next
	return nil
}
