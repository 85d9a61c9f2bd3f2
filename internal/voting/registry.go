package voting

import (
	"fmt"
	"strings"
	"voting-ledger/internal/model"
)

// Voter returns the record of address; unknown addresses get a default record.
func (s State) Voter(address string) model.Voter {
	address = model.NormalizeAddress(address)
	if v, ok := s.Voters[address]; ok {
		return v
	}
	return model.Voter{Address: address}
}

func (s State) IsVoterRegistered(address string) bool {
	return s.Voter(address).IsRegistered
}

// RegisterVoter adds address to the allow-list. Registration is only open
// while the workflow is in RegisteringVoters.
func (s *State) RegisterVoter(caller, address string) error {
	if err := s.requireOwner(caller); err != nil {
		return err
	}
	if err := s.requirePhase("registerVoter", model.PhaseRegisteringVoters); err != nil {
		return err
	}

	address = model.NormalizeAddress(address)
	if address == "" {
		return fmt.Errorf("%w: empty voter address", ErrInvalidAddress)
	}
	if s.IsVoterRegistered(address) {
		return fmt.Errorf("%w: %q", ErrAlreadyRegistered, address)
	}

	if s.Voters == nil {
		s.Voters = make(map[string]model.Voter)
	}
	s.Voters[address] = model.Voter{Address: address, IsRegistered: true}
	return nil
}

func (s *State) RemoveVoter(caller, address string) error {
	if err := s.requireOwner(caller); err != nil {
		return err
	}
	if err := s.requirePhase("removeVoter", model.PhaseRegisteringVoters); err != nil {
		return err
	}

	address = model.NormalizeAddress(address)
	if !s.IsVoterRegistered(address) {
		return fmt.Errorf("%w: %q", ErrVoterNotRegistered, address)
	}

	delete(s.Voters, address)
	return nil
}

func (s State) ProposalCount() int {
	return len(s.Proposals)
}

func (s State) Proposal(id int) (model.Proposal, error) {
	if id < 0 || id >= len(s.Proposals) {
		return model.Proposal{}, fmt.Errorf("%w: %d, %d proposals registered", ErrInvalidProposalID, id, len(s.Proposals))
	}
	return s.Proposals[id].Clone(), nil
}

// AddProposal appends a proposal submitted by a registered voter and returns
// its id, which is its position in submission order.
func (s *State) AddProposal(submitter, description string) (int, error) {
	if err := s.requirePhase("addProposal", model.PhaseProposalsRegistrationStarted); err != nil {
		return 0, err
	}

	submitter = model.NormalizeAddress(submitter)
	if !s.IsVoterRegistered(submitter) {
		return 0, fmt.Errorf("%w: %q", ErrVoterNotRegistered, submitter)
	}

	description = strings.TrimSpace(description)
	if description == "" {
		return 0, fmt.Errorf("%w: empty description", ErrInvalidProposal)
	}
	if len(description) > model.MaxDescriptionLength {
		return 0, fmt.Errorf("%w: description longer than %d bytes", ErrInvalidProposal, model.MaxDescriptionLength)
	}

	s.Proposals = append(s.Proposals, model.Proposal{Description: description})
	return len(s.Proposals) - 1, nil
}
