package voting_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"voting-ledger/internal/model"
	"voting-ledger/internal/voting"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type flakyStore struct {
	*voting.MemoryStore
	fail bool
}

func (f *flakyStore) Save(ctx context.Context, state voting.State) error {
	if f.fail {
		return errors.New("disk full")
	}
	return f.MemoryStore.Save(ctx, state)
}

type recordingCollector struct {
	mu       sync.Mutex
	applied  map[voting.Action]int
	rejected map[voting.Action]int
	phases   []model.Phase
}

func newRecordingCollector() *recordingCollector {
	return &recordingCollector{
		applied:  make(map[voting.Action]int),
		rejected: make(map[voting.Action]int),
	}
}

func (r *recordingCollector) OperationApplied(a voting.Action, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err != nil {
		r.rejected[a]++
		return
	}
	r.applied[a]++
}

func (r *recordingCollector) PhaseChanged(p model.Phase) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.phases = append(r.phases, p)
}

func newTestLedger(t *testing.T, store voting.Store, opts ...voting.Option) *voting.Ledger {
	t.Helper()
	l, err := voting.NewLedger(context.Background(), zap.NewNop(), store, owner, opts...)
	require.NoError(t, err)
	return l
}

func TestNewLedgerRequiresOwner(t *testing.T) {
	_, err := voting.NewLedger(context.Background(), zap.NewNop(), voting.NewMemoryStore(), " ")
	assert.ErrorIs(t, err, voting.ErrInvalidAddress)
}

func TestLedgerKeepsStoredOwner(t *testing.T) {
	store := voting.NewMemoryStore()
	newTestLedger(t, store)

	l, err := voting.NewLedger(context.Background(), zap.NewNop(), store, "0xsomeoneelse")
	require.NoError(t, err)
	assert.Equal(t, owner, l.Owner())
}

func TestLedgerFullSession(t *testing.T) {
	ctx := context.Background()
	store := voting.NewMemoryStore()
	l := newTestLedger(t, store)

	require.NoError(t, l.RegisterVoter(ctx, owner, addr1))
	require.NoError(t, l.RegisterVoter(ctx, owner, addr2))
	require.NoError(t, l.StartProposalsRegistration(ctx, owner))

	id, err := l.AddProposal(ctx, addr1, "P1")
	require.NoError(t, err)
	assert.Equal(t, 0, id)
	id, err = l.AddProposal(ctx, addr2, "P2")
	require.NoError(t, err)
	assert.Equal(t, 1, id)

	require.NoError(t, l.EndProposalsRegistration(ctx, owner))
	require.NoError(t, l.StartVotingSession(ctx, owner))
	require.NoError(t, l.Vote(ctx, addr1, 1))
	require.NoError(t, l.Vote(ctx, addr2, 0))
	require.NoError(t, l.CancelVote(ctx, addr2))
	require.NoError(t, l.Vote(ctx, addr2, 1))
	require.NoError(t, l.EndVotingSession(ctx, owner))

	_, err = l.WinningProposal()
	assert.ErrorIs(t, err, voting.ErrResultsNotAvailable)
	require.NoError(t, l.TallyVotes(ctx, owner))

	w, err := l.WinningProposal()
	require.NoError(t, err)
	assert.Equal(t, "P2", w.Description)
	assert.Equal(t, 2, w.VoteCount)

	// a new ledger on the same store sees the same election
	reloaded := newTestLedger(t, store)
	assert.Equal(t, l.Snapshot(), reloaded.Snapshot())
	assert.Equal(t, model.PhaseVotesTallied, reloaded.Phase())
	assert.True(t, reloaded.IsVoterRegistered(addr1))
	assert.Equal(t, 2, reloaded.ProposalCount())

	p, err := reloaded.Proposal(1)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{addr1, addr2}, p.Voters)

	votes, err := reloaded.AllVotes(addr1)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 1}, votes.ProposalIDs)

	require.NoError(t, l.ResetSession(ctx, owner))
	assert.Equal(t, 0, l.ProposalCount())
	assert.False(t, l.VoterRecord(addr1).IsRegistered)
	assert.Equal(t, model.PhaseRegisteringVoters, l.Phase())
	assert.Empty(t, l.ProposalsWithVotes().Descriptions)
}

func TestLedgerFailedWriteLeavesStateUnchanged(t *testing.T) {
	ctx := context.Background()
	store := &flakyStore{MemoryStore: voting.NewMemoryStore()}
	l := newTestLedger(t, store)
	require.NoError(t, l.RegisterVoter(ctx, owner, addr1))
	before := l.Snapshot()

	store.fail = true
	err := l.StartProposalsRegistration(ctx, owner)
	require.Error(t, err)
	assert.False(t, voting.IsRejection(err))
	assert.Equal(t, before, l.Snapshot())

	store.fail = false
	assert.NoError(t, l.StartProposalsRegistration(ctx, owner))
}

func TestLedgerRejectionIsNotPersisted(t *testing.T) {
	ctx := context.Background()
	store := voting.NewMemoryStore()
	l := newTestLedger(t, store)

	err := l.StartProposalsRegistration(ctx, addr1)
	assert.ErrorIs(t, err, voting.ErrNotAuthorized)

	stored, found, err := store.Load(ctx)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, model.PhaseRegisteringVoters, stored.Phase)
}

func TestLedgerCollector(t *testing.T) {
	ctx := context.Background()
	c := newRecordingCollector()
	l := newTestLedger(t, voting.NewMemoryStore(), voting.WithCollector(c))

	require.NoError(t, l.StartProposalsRegistration(ctx, owner))
	assert.Error(t, l.StartProposalsRegistration(ctx, owner))
	assert.Error(t, l.Vote(ctx, addr1, 0))

	assert.Equal(t, 1, c.applied[voting.ActionStartProposalsRegistration])
	assert.Equal(t, 1, c.rejected[voting.ActionStartProposalsRegistration])
	assert.Equal(t, 1, c.rejected[voting.ActionVote])
	assert.Equal(t, []model.Phase{model.PhaseRegisteringVoters, model.PhaseProposalsRegistrationStarted}, c.phases)
}

func TestLedgerConcurrentVotes(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t, voting.NewMemoryStore())

	const voters = 50
	for i := 0; i < voters; i++ {
		require.NoError(t, l.RegisterVoter(ctx, owner, fmt.Sprintf("0xv%d", i)))
	}
	require.NoError(t, l.StartProposalsRegistration(ctx, owner))
	_, err := l.AddProposal(ctx, "0xv0", "A")
	require.NoError(t, err)
	_, err = l.AddProposal(ctx, "0xv1", "B")
	require.NoError(t, err)
	require.NoError(t, l.EndProposalsRegistration(ctx, owner))
	require.NoError(t, l.StartVotingSession(ctx, owner))

	var wg sync.WaitGroup
	for i := 0; i < voters; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			voter := fmt.Sprintf("0xv%d", i)
			assert.NoError(t, l.Vote(ctx, voter, i%2))
			// the second vote of the same voter always loses
			assert.ErrorIs(t, l.Vote(ctx, voter, 0), voting.ErrAlreadyVoted)
		}(i)
	}
	wg.Wait()

	out := l.ProposalsWithVotes()
	assert.Equal(t, []int{voters / 2, voters / 2}, out.VoteCounts)
	assert.Len(t, out.Voters[0], voters/2)
}
