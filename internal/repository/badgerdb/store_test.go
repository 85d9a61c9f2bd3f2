package badgerdb_test

import (
	"context"
	"testing"
	"voting-ledger/internal/model"
	"voting-ledger/internal/repository/badgerdb"
	"voting-ledger/internal/voting"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoadEmpty(t *testing.T) {
	store, err := badgerdb.Open(zap.NewNop(), t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	_, found, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.False(t, found)
}

func TestSaveAndReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	store, err := badgerdb.Open(zap.NewNop(), dir)
	require.NoError(t, err)

	state := voting.NewState("0xowner")
	require.NoError(t, state.RegisterVoter("0xowner", "0xa"))
	require.NoError(t, state.StartProposalsRegistration("0xowner"))
	_, err = state.AddProposal("0xa", "P1")
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, state))
	require.NoError(t, store.Close())

	store, err = badgerdb.Open(zap.NewNop(), dir)
	require.NoError(t, err)
	defer store.Close()

	loaded, found, err := store.Load(ctx)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "0xowner", loaded.Owner)
	assert.Equal(t, model.PhaseProposalsRegistrationStarted, loaded.Phase)
	assert.Equal(t, state.Voters, loaded.Voters)
	require.Len(t, loaded.Proposals, 1)
	assert.Equal(t, "P1", loaded.Proposals[0].Description)
}

func TestLedgerOnBadger(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	store, err := badgerdb.Open(zap.NewNop(), dir)
	require.NoError(t, err)

	ledger, err := voting.NewLedger(ctx, zap.NewNop(), store, "0xowner")
	require.NoError(t, err)
	require.NoError(t, ledger.RegisterVoter(ctx, "0xowner", "0xa"))
	require.NoError(t, ledger.StartProposalsRegistration(ctx, "0xowner"))
	require.NoError(t, store.Close())

	store, err = badgerdb.Open(zap.NewNop(), dir)
	require.NoError(t, err)
	defer store.Close()

	reloaded, err := voting.NewLedger(ctx, zap.NewNop(), store, "")
	require.NoError(t, err)
	assert.Equal(t, model.PhaseProposalsRegistrationStarted, reloaded.Phase())
	assert.True(t, reloaded.IsVoterRegistered("0xa"))
}

func TestSaveHonoursCancelledContext(t *testing.T) {
	store, err := badgerdb.Open(zap.NewNop(), t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, store.Save(ctx, voting.NewState("0xowner")), context.Canceled)
}
