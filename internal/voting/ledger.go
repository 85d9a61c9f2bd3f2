package voting

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"voting-ledger/internal/model"

	"go.uber.org/zap"
)

// Collector observes applied and rejected operations.
type Collector interface {
	OperationApplied(operation Action, err error)
	PhaseChanged(phase model.Phase)
}

type noopCollector struct{}

func (noopCollector) OperationApplied(Action, error) {}
func (noopCollector) PhaseChanged(model.Phase)       {}

// Ledger is the authoritative local copy of the election. Mutations are
// serialised, applied to a clone, persisted and only then published, so
// readers never observe a partially applied or unsaved operation.
type Ledger struct {
	mu        sync.RWMutex
	state     State
	store     Store
	logger    *zap.Logger
	collector Collector
}

type Option func(*Ledger)

func WithCollector(c Collector) Option {
	return func(l *Ledger) {
		if c != nil {
			l.collector = c
		}
	}
}

// NewLedger loads the ledger from store. An empty store is initialised with
// a fresh State owned by owner; for an existing ledger the stored owner wins.
func NewLedger(ctx context.Context, logger *zap.Logger, store Store, owner string, opts ...Option) (*Ledger, error) {
	l := &Ledger{
		store:     store,
		logger:    logger,
		collector: noopCollector{},
	}
	for _, opt := range opts {
		opt(l)
	}

	state, found, err := store.Load(ctx)
	if err != nil {
		return nil, errors.New("failed to load the ledger: " + err.Error())
	}

	owner = model.NormalizeAddress(owner)
	if !found {
		if owner == "" {
			return nil, fmt.Errorf("%w: the owner of a new ledger must be set", ErrInvalidAddress)
		}
		state = NewState(owner)
		if err := store.Save(ctx, state); err != nil {
			return nil, errors.New("failed to save the new ledger: " + err.Error())
		}
		logger.Info("new ledger created", zap.String("owner", owner))
	} else {
		if state.Voters == nil {
			state.Voters = make(map[string]model.Voter)
		}
		if owner != "" && owner != state.Owner {
			logger.Warn("configured owner differs from the stored one, keeping the stored owner",
				zap.String("configured", owner), zap.String("stored", state.Owner))
		}
		logger.Info("ledger loaded", zap.String("owner", state.Owner), zap.Stringer("phase", state.Phase), zap.Int("proposals", len(state.Proposals)))
	}

	l.state = state
	l.collector.PhaseChanged(state.Phase)
	return l, nil
}

// Execute applies cmd on behalf of caller.
func (l *Ledger) Execute(ctx context.Context, caller string, cmd Command) error {
	return l.mutate(ctx, caller, cmd.Action, func(s *State) error {
		return s.Apply(caller, cmd)
	})
}

func (l *Ledger) mutate(ctx context.Context, caller string, action Action, apply func(*State) error) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	next := l.state.Clone()
	if err := apply(&next); err != nil {
		l.collector.OperationApplied(action, err)
		l.logger.Info("operation rejected", zap.String("action", string(action)), zap.String("caller", caller), zap.Error(err))
		return err
	}

	if err := l.store.Save(ctx, next); err != nil {
		err = errors.New("failed to persist " + string(action) + ": " + err.Error())
		l.collector.OperationApplied(action, err)
		l.logger.Error(err.Error(), zap.String("caller", caller))
		return err
	}

	if next.Phase != l.state.Phase {
		l.collector.PhaseChanged(next.Phase)
		l.logger.Info("phase changed", zap.Stringer("from", l.state.Phase), zap.Stringer("to", next.Phase))
	}
	l.state = next
	l.collector.OperationApplied(action, nil)
	l.logger.Debug("operation applied", zap.String("action", string(action)), zap.String("caller", caller))
	return nil
}

func (l *Ledger) RegisterVoter(ctx context.Context, caller, address string) error {
	return l.Execute(ctx, caller, Command{Action: ActionRegisterVoter, Address: address})
}

func (l *Ledger) RemoveVoter(ctx context.Context, caller, address string) error {
	return l.Execute(ctx, caller, Command{Action: ActionRemoveVoter, Address: address})
}

func (l *Ledger) StartProposalsRegistration(ctx context.Context, caller string) error {
	return l.Execute(ctx, caller, Command{Action: ActionStartProposalsRegistration})
}

func (l *Ledger) EndProposalsRegistration(ctx context.Context, caller string) error {
	return l.Execute(ctx, caller, Command{Action: ActionEndProposalsRegistration})
}

func (l *Ledger) StartVotingSession(ctx context.Context, caller string) error {
	return l.Execute(ctx, caller, Command{Action: ActionStartVotingSession})
}

func (l *Ledger) EndVotingSession(ctx context.Context, caller string) error {
	return l.Execute(ctx, caller, Command{Action: ActionEndVotingSession})
}

func (l *Ledger) TallyVotes(ctx context.Context, caller string) error {
	return l.Execute(ctx, caller, Command{Action: ActionTallyVotes})
}

// AddProposal returns the id assigned to the new proposal.
func (l *Ledger) AddProposal(ctx context.Context, submitter, description string) (int, error) {
	var id int
	err := l.mutate(ctx, submitter, ActionAddProposal, func(s *State) (err error) {
		id, err = s.AddProposal(submitter, description)
		return err
	})
	return id, err
}

func (l *Ledger) Vote(ctx context.Context, voter string, proposalID int) error {
	return l.Execute(ctx, voter, Command{Action: ActionVote, ProposalID: proposalID})
}

func (l *Ledger) CancelVote(ctx context.Context, voter string) error {
	return l.Execute(ctx, voter, Command{Action: ActionCancelVote})
}

func (l *Ledger) ResetSession(ctx context.Context, caller string) error {
	return l.Execute(ctx, caller, Command{Action: ActionResetSession})
}

// Snapshot returns a copy of the current State.
func (l *Ledger) Snapshot() State {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state.Clone()
}

func (l *Ledger) Owner() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state.Owner
}

func (l *Ledger) Phase() model.Phase {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state.Phase
}

func (l *Ledger) IsVoterRegistered(address string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state.IsVoterRegistered(address)
}

func (l *Ledger) VoterRecord(address string) model.Voter {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state.Voter(address)
}

func (l *Ledger) ProposalCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state.ProposalCount()
}

func (l *Ledger) Proposal(id int) (model.Proposal, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state.Proposal(id)
}

func (l *Ledger) ProposalsWithVotes() ProposalsWithVotes {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state.ProposalsWithVotes()
}

func (l *Ledger) WinningProposal() (Winner, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state.WinningProposal()
}

func (l *Ledger) AllVotes(caller string) (Votes, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state.AllVotes(caller)
}
