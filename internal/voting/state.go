package voting

import (
	"fmt"
	"voting-ledger/internal/model"
)

// State is the whole ledger of one election: owner, phase, proposal arena and
// voter registry. Operations validate every precondition before writing, so a
// rejected operation leaves the State untouched.
type State struct {
	Owner     string                 `cbor:"owner" bson:"owner"`
	Phase     model.Phase            `cbor:"phase" bson:"phase"`
	Proposals []model.Proposal       `cbor:"proposals" bson:"proposals"`
	Voters    map[string]model.Voter `cbor:"voters" bson:"voters"`
}

func NewState(owner string) State {
	return State{
		Owner:  model.NormalizeAddress(owner),
		Phase:  model.PhaseRegisteringVoters,
		Voters: make(map[string]model.Voter),
	}
}

// Clone returns a deep copy that shares no slices or maps with s.
func (s State) Clone() State {
	clone := State{
		Owner: s.Owner,
		Phase: s.Phase,
	}
	if s.Proposals != nil {
		clone.Proposals = make([]model.Proposal, len(s.Proposals))
		for i, p := range s.Proposals {
			clone.Proposals[i] = p.Clone()
		}
	}
	if s.Voters != nil {
		clone.Voters = make(map[string]model.Voter, len(s.Voters))
		for addr, v := range s.Voters {
			clone.Voters[addr] = v
		}
	}
	return clone
}

func (s State) IsOwner(caller string) bool {
	caller = model.NormalizeAddress(caller)
	return caller != "" && caller == s.Owner
}

func (s State) requireOwner(caller string) error {
	if !s.IsOwner(caller) {
		return fmt.Errorf("%w: %q", ErrNotAuthorized, model.NormalizeAddress(caller))
	}
	return nil
}

func (s State) requirePhase(operation string, want model.Phase) error {
	if s.Phase != want {
		return fmt.Errorf("%w: %s requires %s, current phase is %s", ErrPhaseNotActive, operation, want, s.Phase)
	}
	return nil
}

// Reset wipes proposals and voter records and returns to RegisteringVoters.
// The owner is kept.
func (s *State) Reset(caller string) error {
	if err := s.requireOwner(caller); err != nil {
		return err
	}

	s.Proposals = nil
	s.Voters = make(map[string]model.Voter)
	s.Phase = model.PhaseRegisteringVoters
	return nil
}
