package voting

import (
	"fmt"
	"voting-ledger/internal/model"
)

func (s *State) Vote(voter string, proposalID int) error {
	if err := s.requirePhase("vote", model.PhaseVotingSessionStarted); err != nil {
		return err
	}

	voter = model.NormalizeAddress(voter)
	record := s.Voter(voter)
	if !record.IsRegistered {
		return fmt.Errorf("%w: %q", ErrVoterNotRegistered, voter)
	}
	if record.HasVoted {
		return fmt.Errorf("%w: %q voted for proposal %d", ErrAlreadyVoted, voter, record.VotedProposalID)
	}
	if proposalID < 0 || proposalID >= len(s.Proposals) {
		return fmt.Errorf("%w: %d, %d proposals registered", ErrInvalidProposalID, proposalID, len(s.Proposals))
	}

	s.Proposals[proposalID].AddVote(voter)
	record.HasVoted = true
	record.VotedProposalID = proposalID
	s.Voters[voter] = record
	return nil
}

// CancelVote reverts the standing vote of voter. VotedProposalID keeps its
// stale value; HasVoted is what gives it meaning.
func (s *State) CancelVote(voter string) error {
	if err := s.requirePhase("cancelVote", model.PhaseVotingSessionStarted); err != nil {
		return err
	}

	voter = model.NormalizeAddress(voter)
	record := s.Voter(voter)
	if !record.IsRegistered {
		return fmt.Errorf("%w: %q", ErrVoterNotRegistered, voter)
	}
	if !record.HasVoted {
		return fmt.Errorf("%w: %q", ErrVoterHasNotVoted, voter)
	}

	s.Proposals[record.VotedProposalID].RemoveVote(voter)
	record.HasVoted = false
	s.Voters[voter] = record
	return nil
}
