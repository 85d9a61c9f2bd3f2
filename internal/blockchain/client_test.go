package blockchain

import (
	"context"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
	"voting-ledger/internal/blockchain/votingfamily"
	"voting-ledger/internal/model"
	"voting-ledger/internal/signkeys"
	"voting-ledger/internal/voting"

	"github.com/hyperledger/sawtooth-sdk-go/protobuf/batch_pb2"
	"github.com/hyperledger/sawtooth-sdk-go/protobuf/transaction_pb2"
	"github.com/hyperledger/sawtooth-sdk-go/signing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/protobuf/proto"
)

// fakeValidator mimics the validator REST API: it checks signatures, applies
// the voting commands in arrival order and reports each batch as pending once.
type fakeValidator struct {
	t        *testing.T
	mu       sync.Mutex
	state    *voting.State
	statuses map[string]string
	messages map[string]string
	polled   map[string]bool
}

func newFakeValidator(t *testing.T) *httptest.Server {
	v := &fakeValidator{
		t:        t,
		statuses: make(map[string]string),
		messages: make(map[string]string),
		polled:   make(map[string]bool),
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/batches", v.postBatches)
	mux.HandleFunc("/batch_statuses", v.getStatuses)
	mux.HandleFunc("/state/", v.getState)
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func (v *fakeValidator) postBatches(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	require.NoError(v.t, err)
	assert.Equal(v.t, contentTypeOctetStream, r.Header.Get("Content-Type"))

	var list batch_pb2.BatchList
	require.NoError(v.t, proto.Unmarshal(body, &list))

	v.mu.Lock()
	defer v.mu.Unlock()
	for _, batch := range list.Batches {
		status, message := statusCommitted, ""
		for _, tx := range batch.Transactions {
			if err := v.apply(tx); err != nil {
				status, message = statusInvalid, err.Error()
				break
			}
		}
		v.statuses[batch.HeaderSignature] = status
		v.messages[batch.HeaderSignature] = message
	}
	w.WriteHeader(http.StatusAccepted)
	fmt.Fprint(w, `{"link": "http://validator/batch_statuses"}`)
}

func (v *fakeValidator) apply(tx *transaction_pb2.Transaction) error {
	var header transaction_pb2.TransactionHeader
	require.NoError(v.t, proto.Unmarshal(tx.Header, &header))

	pub, err := hex.DecodeString(header.SignerPublicKey)
	require.NoError(v.t, err)
	sig, err := hex.DecodeString(tx.HeaderSignature)
	require.NoError(v.t, err)
	require.True(v.t, signing.NewSecp256k1Context().Verify(sig, tx.Header, signing.NewSecp256k1PublicKey(pub)))

	assert.Equal(v.t, votingfamily.FamilyName, header.FamilyName)
	assert.Equal(v.t, []string{votingfamily.GetLedgerAddress()}, header.Outputs)

	cmd, err := votingfamily.DecodeCommand(tx.Payload)
	require.NoError(v.t, err)

	if cmd.Action == voting.ActionDeploy && v.state == nil {
		state := voting.NewState(header.SignerPublicKey)
		v.state = &state
		return nil
	}
	if v.state == nil {
		return voting.ErrNotDeployed
	}
	next := v.state.Clone()
	if err := next.Apply(header.SignerPublicKey, cmd); err != nil {
		return err
	}
	v.state = &next
	return nil
}

func (v *fakeValidator) getStatuses(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	assert.NotEmpty(v.t, r.URL.Query().Get("wait"))

	v.mu.Lock()
	defer v.mu.Unlock()
	status, ok := v.statuses[id]
	if !ok {
		status = "UNKNOWN"
	} else if !v.polled[id] {
		v.polled[id] = true
		status = "PENDING"
	}

	invalid := "[]"
	if status == statusInvalid {
		invalid = fmt.Sprintf(`[{"id": "tx", "message": %q}]`, v.messages[id])
	}
	fmt.Fprintf(w, `{"data": [{"id": %q, "status": %q, "invalid_transactions": %s}]}`, id, status, invalid)
}

func (v *fakeValidator) getState(w http.ResponseWriter, r *http.Request) {
	address := strings.TrimPrefix(r.URL.Path, "/state/")
	assert.Equal(v.t, votingfamily.GetLedgerAddress(), address)

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.state == nil {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"error": {"code": 75, "title": "State Not Found"}}`)
		return
	}
	data, err := votingfamily.EncodeState(*v.state)
	require.NoError(v.t, err)
	fmt.Fprintf(w, `{"data": %q, "head": "abc"}`, base64.StdEncoding.EncodeToString(data))
}

func newTestClient(t *testing.T, url string) (*Client, signkeys.UserKeys) {
	keys, err := signkeys.GenerateKeys()
	require.NoError(t, err)
	return NewClient(zap.NewNop(), url, keys.GetSigner()), keys
}

func TestNewClientAddsScheme(t *testing.T) {
	c := NewClient(zap.NewNop(), "rest-api:8008/", nil)
	assert.Equal(t, "http://rest-api:8008", c.url)
}

func TestNewTransactionHeader(t *testing.T) {
	keys, err := signkeys.GenerateKeys()
	require.NoError(t, err)

	tx, err := NewTransaction(voting.Command{Action: voting.ActionVote, ProposalID: 2}, keys.GetSigner())
	require.NoError(t, err)

	var header transaction_pb2.TransactionHeader
	require.NoError(t, proto.Unmarshal(tx.Header, &header))
	assert.Equal(t, keys.Address(), header.SignerPublicKey)
	assert.Equal(t, votingfamily.FamilyVersion, header.FamilyVersion)
	assert.NotEmpty(t, header.Nonce)

	other, err := NewTransaction(voting.Command{Action: voting.ActionVote, ProposalID: 2}, keys.GetSigner())
	require.NoError(t, err)
	assert.NotEqual(t, tx.HeaderSignature, other.HeaderSignature, "nonce makes equal commands distinct")
}

func TestGetLedgerBeforeDeploy(t *testing.T) {
	server := newFakeValidator(t)
	client, _ := newTestClient(t, server.URL)

	_, err := client.GetLedger(context.Background())
	assert.ErrorIs(t, err, voting.ErrNotDeployed)
}

func TestSessionOverRESTAPI(t *testing.T) {
	server := newFakeValidator(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	owner, ownerKeys := newTestClient(t, server.URL)
	voter, voterKeys := newTestClient(t, server.URL)
	assert.Equal(t, ownerKeys.Address(), owner.Caller())

	_, err := owner.Deploy(ctx)
	require.NoError(t, err)

	for _, cmd := range []voting.Command{
		{Action: voting.ActionRegisterVoter, Address: voterKeys.Address()},
		{Action: voting.ActionStartProposalsRegistration},
	} {
		_, err := owner.Execute(ctx, cmd)
		require.NoError(t, err, cmd.String())
	}

	_, err = voter.Execute(ctx, voting.Command{Action: voting.ActionAddProposal, Description: "P1"})
	require.NoError(t, err)

	state, err := voter.GetLedger(ctx)
	require.NoError(t, err)
	assert.Equal(t, ownerKeys.Address(), state.Owner)
	assert.Equal(t, model.PhaseProposalsRegistrationStarted, state.Phase)
	require.Len(t, state.Proposals, 1)
	assert.Equal(t, "P1", state.Proposals[0].Description)
	assert.True(t, state.IsVoterRegistered(voterKeys.Address()))
}

func TestRejectedTransaction(t *testing.T) {
	server := newFakeValidator(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	owner, _ := newTestClient(t, server.URL)
	intruder, _ := newTestClient(t, server.URL)

	_, err := owner.Deploy(ctx)
	require.NoError(t, err)

	_, err = intruder.Execute(ctx, voting.Command{Action: voting.ActionStartProposalsRegistration})
	var rejected *TransactionRejectedError
	require.ErrorAs(t, err, &rejected)
	assert.ErrorIs(t, err, voting.ErrNotAuthorized)

	_, err = intruder.Deploy(ctx)
	assert.ErrorIs(t, err, voting.ErrAlreadyDeployed)
}

func TestWaitForBatchHonoursContext(t *testing.T) {
	server := newFakeValidator(t)
	client, _ := newTestClient(t, server.URL)

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	err := client.WaitForBatch(ctx, "never-submitted")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
