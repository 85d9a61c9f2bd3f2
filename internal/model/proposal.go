package model

const MaxDescriptionLength = 500

type Proposal struct {
	Description string   `cbor:"description" bson:"description" json:"description"`
	VoteCount   int      `cbor:"voteCount" bson:"voteCount" json:"voteCount"`
	Voters      []string `cbor:"voters" bson:"voters" json:"voters"`
}

func (p Proposal) HasVoter(address string) bool {
	for _, v := range p.Voters {
		if v == address {
			return true
		}
	}
	return false
}

// AddVote counts a vote of the given address.
func (p *Proposal) AddVote(address string) {
	p.Voters = append(p.Voters, address)
	p.VoteCount++
}

// RemoveVote reverts a vote previously counted by AddVote. The remaining
// voters keep their order.
func (p *Proposal) RemoveVote(address string) {
	for i, v := range p.Voters {
		if v == address {
			p.Voters = append(p.Voters[:i:i], p.Voters[i+1:]...)
			p.VoteCount--
			return
		}
	}
}

func (p Proposal) Clone() Proposal {
	if p.Voters != nil {
		voters := make([]string, len(p.Voters))
		copy(voters, p.Voters)
		p.Voters = voters
	}
	return p
}
