package votingfamily_test

import (
	"testing"
	"voting-ledger/internal/blockchain/votingfamily"
	"voting-ledger/internal/model"
	"voting-ledger/internal/voting"

	"github.com/fxamacker/cbor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandEncodingIsCanonical(t *testing.T) {
	cmd := voting.Command{Action: voting.ActionVote, ProposalID: 3}

	a, err := votingfamily.EncodeCommand(cmd)
	require.NoError(t, err)
	b, err := votingfamily.EncodeCommand(cmd)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	decoded, err := votingfamily.DecodeCommand(a)
	require.NoError(t, err)
	assert.Equal(t, cmd, decoded)
}

func TestDecodeCommandRejectsGarbage(t *testing.T) {
	_, err := votingfamily.DecodeCommand(nil)
	assert.Error(t, err)

	_, err = votingfamily.DecodeCommand([]byte{0xff, 0x00})
	assert.Error(t, err)

	noAction, err := cbor.Marshal(map[string]interface{}{"proposalId": 1}, cbor.CanonicalEncOptions())
	require.NoError(t, err)
	_, err = votingfamily.DecodeCommand(noAction)
	assert.Error(t, err)
}

func TestStateEncoding(t *testing.T) {
	state := voting.NewState("0xowner")
	require.NoError(t, state.RegisterVoter("0xowner", "0xa"))
	require.NoError(t, state.StartProposalsRegistration("0xowner"))
	_, err := state.AddProposal("0xa", "P1")
	require.NoError(t, err)

	data, err := votingfamily.EncodeState(state)
	require.NoError(t, err)

	decoded, err := votingfamily.DecodeState(data)
	require.NoError(t, err)
	assert.Equal(t, state.Owner, decoded.Owner)
	assert.Equal(t, model.PhaseProposalsRegistrationStarted, decoded.Phase)
	assert.Equal(t, state.Voters, decoded.Voters)
	require.Len(t, decoded.Proposals, 1)
	assert.Equal(t, "P1", decoded.Proposals[0].Description)
	assert.Equal(t, 0, decoded.Proposals[0].VoteCount)
}

func TestDecodeStateRejectsInvalidPhase(t *testing.T) {
	data, err := cbor.Marshal(map[string]interface{}{"owner": "x", "phase": 9}, cbor.CanonicalEncOptions())
	require.NoError(t, err)
	_, err = votingfamily.DecodeState(data)
	assert.Error(t, err)
}
