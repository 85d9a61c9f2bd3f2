package metrics

import (
	"voting-ledger/internal/model"
	"voting-ledger/internal/voting"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	namespaceVoting = "voting"
	subsystemLedger = "ledger"

	resultApplied = "applied"
	resultFailed  = "failed"
)

// VotingCollector counts ledger operations by action and outcome and tracks
// the current phase.
type VotingCollector struct {
	operations *prometheus.CounterVec
	phase      prometheus.Gauge
}

var _ voting.Collector = (*VotingCollector)(nil)

func NewVotingCollector(registerer prometheus.Registerer) *VotingCollector {
	factory := promauto.With(registerer)

	return &VotingCollector{
		operations: factory.NewCounterVec(prometheus.CounterOpts{
			Name:      "operations_total",
			Namespace: namespaceVoting,
			Subsystem: subsystemLedger,
			Help:      "the number of ledger operations, by action and result",
		}, []string{LabelAction, LabelResult}),

		phase: factory.NewGauge(prometheus.GaugeOpts{
			Name:      "phase",
			Namespace: namespaceVoting,
			Subsystem: subsystemLedger,
			Help:      "the current workflow phase, 0 (RegisteringVoters) to 5 (VotesTallied)",
		}),
	}
}

// OperationApplied records one operation; rejections are labelled with the
// rejection kind, other failures as failed.
func (c *VotingCollector) OperationApplied(operation voting.Action, err error) {
	result := resultApplied
	if err != nil {
		result = voting.Kind(err)
		if result == "" {
			result = resultFailed
		}
	}
	c.operations.WithLabelValues(string(operation), result).Inc()
}

func (c *VotingCollector) PhaseChanged(phase model.Phase) {
	c.phase.Set(float64(phase))
}
