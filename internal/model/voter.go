package model

import "strings"

// Voter is the registry record of a single address. The zero value is the
// record of an address that was never registered.
type Voter struct {
	Address         string `cbor:"address" bson:"address" json:"address"`
	IsRegistered    bool   `cbor:"isRegistered" bson:"isRegistered" json:"isRegistered"`
	HasVoted        bool   `cbor:"hasVoted" bson:"hasVoted" json:"hasVoted"`
	VotedProposalID int    `cbor:"votedProposalId" bson:"votedProposalId" json:"votedProposalId"`
}

// NormalizeAddress trims and lower-cases an address so that hex keys typed in
// different cases resolve to the same record.
func NormalizeAddress(address string) string {
	return strings.ToLower(strings.TrimSpace(address))
}
