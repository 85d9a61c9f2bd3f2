package metrics

import (
	"errors"
	"fmt"
	"testing"
	"voting-ledger/internal/model"
	"voting-ledger/internal/voting"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestOperationApplied(t *testing.T) {
	c := NewVotingCollector(prometheus.NewRegistry())

	c.OperationApplied(voting.ActionVote, nil)
	c.OperationApplied(voting.ActionVote, nil)
	c.OperationApplied(voting.ActionVote, fmt.Errorf("%w: voter 0xa", voting.ErrAlreadyVoted))
	c.OperationApplied(voting.ActionAddProposal, errors.New("disk full"))

	assert.Equal(t, 2.0, testutil.ToFloat64(c.operations.WithLabelValues("vote", resultApplied)))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.operations.WithLabelValues("vote", "AlreadyVoted")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.operations.WithLabelValues("addProposal", resultFailed)))
}

func TestPhaseChanged(t *testing.T) {
	c := NewVotingCollector(prometheus.NewRegistry())

	c.PhaseChanged(model.PhaseVotingSessionStarted)
	assert.Equal(t, 3.0, testutil.ToFloat64(c.phase))
}
