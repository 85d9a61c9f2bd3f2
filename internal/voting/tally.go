package voting

import (
	"fmt"
	"sort"
	"voting-ledger/internal/model"
)

type Winner struct {
	ProposalID  int    `json:"proposalId"`
	Description string `json:"description"`
	VoteCount   int    `json:"voteCount"`
}

// WinningProposal returns the proposal with the most votes once the votes are
// tallied. Ties go to the proposal submitted first.
func (s State) WinningProposal() (Winner, error) {
	if s.Phase != model.PhaseVotesTallied {
		return Winner{}, fmt.Errorf("%w: current phase is %s", ErrResultsNotAvailable, s.Phase)
	}
	if len(s.Proposals) == 0 {
		return Winner{}, fmt.Errorf("%w: no proposals were submitted", ErrResultsNotAvailable)
	}

	winner := 0
	for i, p := range s.Proposals {
		if p.VoteCount > s.Proposals[winner].VoteCount {
			winner = i
		}
	}

	return Winner{
		ProposalID:  winner,
		Description: s.Proposals[winner].Description,
		VoteCount:   s.Proposals[winner].VoteCount,
	}, nil
}

// ProposalsWithVotes is a read-only projection of the proposal arena as
// parallel arrays in submission order.
type ProposalsWithVotes struct {
	Descriptions []string   `json:"descriptions"`
	VoteCounts   []int      `json:"voteCounts"`
	Voters       [][]string `json:"voters"`
}

func (s State) ProposalsWithVotes() ProposalsWithVotes {
	out := ProposalsWithVotes{
		Descriptions: make([]string, len(s.Proposals)),
		VoteCounts:   make([]int, len(s.Proposals)),
		Voters:       make([][]string, len(s.Proposals)),
	}
	for i, p := range s.Proposals {
		out.Descriptions[i] = p.Description
		out.VoteCounts[i] = p.VoteCount
		out.Voters[i] = make([]string, len(p.Voters))
		copy(out.Voters[i], p.Voters)
	}
	return out
}

// Votes lists the standing votes: Voters[i] voted for ProposalIDs[i].
type Votes struct {
	Voters      []string `json:"voters"`
	ProposalIDs []int    `json:"proposalIds"`
}

// AllVotes is only disclosed to registered voters.
func (s State) AllVotes(caller string) (Votes, error) {
	caller = model.NormalizeAddress(caller)
	if !s.IsVoterRegistered(caller) {
		return Votes{}, fmt.Errorf("%w: %q", ErrVoterNotRegistered, caller)
	}

	addresses := make([]string, 0, len(s.Voters))
	for addr, v := range s.Voters {
		if v.IsRegistered && v.HasVoted {
			addresses = append(addresses, addr)
		}
	}
	sort.Strings(addresses)

	votes := Votes{
		Voters:      addresses,
		ProposalIDs: make([]int, len(addresses)),
	}
	for i, addr := range addresses {
		votes.ProposalIDs[i] = s.Voters[addr].VotedProposalID
	}
	return votes, nil
}
