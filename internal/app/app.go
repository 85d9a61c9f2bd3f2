package app

import (
	"context"
	"fmt"
	"voting-ledger/internal/model"
	"voting-ledger/internal/voting"

	"go.uber.org/zap"
)

// Ledger is the part of voting.Ledger the use cases need.
type Ledger interface {
	Execute(ctx context.Context, caller string, cmd voting.Command) error
	AddProposal(ctx context.Context, submitter, description string) (int, error)

	Owner() string
	Phase() model.Phase
	VoterRecord(address string) model.Voter
	ProposalCount() int
	Proposal(id int) (model.Proposal, error)
	ProposalsWithVotes() voting.ProposalsWithVotes
	WinningProposal() (voting.Winner, error)
	AllVotes(caller string) (voting.Votes, error)
	Snapshot() voting.State
}

type App struct {
	ledger Ledger
	logger *zap.Logger
}

func NewApp(logger *zap.Logger, ledger Ledger) *App {
	return &App{
		ledger: ledger,
		logger: logger,
	}
}

type LedgerInfo struct {
	Owner         string `json:"owner"`
	Phase         string `json:"phase"`
	PhaseID       int    `json:"phaseId"`
	ProposalCount int    `json:"proposalCount"`
	VoterCount    int    `json:"voterCount"`
}

func (a *App) GetLedgerInfo() LedgerInfo {
	state := a.ledger.Snapshot()

	voters := 0
	for _, v := range state.Voters {
		if v.IsRegistered {
			voters++
		}
	}

	return LedgerInfo{
		Owner:         state.Owner,
		Phase:         state.Phase.String(),
		PhaseID:       int(state.Phase),
		ProposalCount: len(state.Proposals),
		VoterCount:    voters,
	}
}

// ChangePhase runs a workflow transition given by its dashed name, e.g.
// "start-voting-session".
func (a *App) ChangePhase(ctx context.Context, caller string, transition string) (model.Phase, error) {
	action, ok := voting.WorkflowAction(transition)
	if !ok {
		return a.ledger.Phase(), fmt.Errorf("%w: %q", voting.ErrUnknownAction, transition)
	}

	if err := a.ledger.Execute(ctx, caller, voting.Command{Action: action}); err != nil {
		return a.ledger.Phase(), err
	}

	phase := a.ledger.Phase()
	a.logger.Info("workflow phase changed", zap.String("transition", transition), zap.Stringer("phase", phase))
	return phase, nil
}

func (a *App) RegisterVoter(ctx context.Context, caller, address string) error {
	if err := a.ledger.Execute(ctx, caller, voting.Command{Action: voting.ActionRegisterVoter, Address: address}); err != nil {
		return err
	}
	a.logger.Info("voter registered", zap.String("voter", model.NormalizeAddress(address)))
	return nil
}

func (a *App) RemoveVoter(ctx context.Context, caller, address string) error {
	if err := a.ledger.Execute(ctx, caller, voting.Command{Action: voting.ActionRemoveVoter, Address: address}); err != nil {
		return err
	}
	a.logger.Info("voter removed", zap.String("voter", model.NormalizeAddress(address)))
	return nil
}

// GetVoter returns the record of address; unknown addresses get a zero record.
func (a *App) GetVoter(address string) model.Voter {
	voter := a.ledger.VoterRecord(address)
	if voter.Address == "" {
		voter.Address = model.NormalizeAddress(address)
	}
	return voter
}

type Proposal struct {
	ID          int      `json:"id"`
	Description string   `json:"description"`
	VoteCount   int      `json:"voteCount"`
	Voters      []string `json:"voters"`
}

func (a *App) AddProposal(ctx context.Context, submitter, description string) (Proposal, error) {
	id, err := a.ledger.AddProposal(ctx, submitter, description)
	if err != nil {
		return Proposal{}, err
	}
	a.logger.Info("proposal added", zap.Int("proposalID", id), zap.String("submitter", model.NormalizeAddress(submitter)))
	return a.GetProposal(id)
}

func (a *App) GetProposal(id int) (Proposal, error) {
	p, err := a.ledger.Proposal(id)
	if err != nil {
		return Proposal{}, err
	}
	return toProposal(id, p), nil
}

// GetAllProposals lists the proposals in submission order with their tallies.
func (a *App) GetAllProposals() []Proposal {
	projection := a.ledger.ProposalsWithVotes()

	proposals := make([]Proposal, len(projection.Descriptions))
	for i := range projection.Descriptions {
		proposals[i] = Proposal{
			ID:          i,
			Description: projection.Descriptions[i],
			VoteCount:   projection.VoteCounts[i],
			Voters:      projection.Voters[i],
		}
	}
	return proposals
}

// GetResults is the proposal list as parallel arrays of descriptions, vote
// counts and voters, indexed by proposal id. Readable in any phase.
func (a *App) GetResults() voting.ProposalsWithVotes {
	return a.ledger.ProposalsWithVotes()
}

func toProposal(id int, p model.Proposal) Proposal {
	voters := make([]string, len(p.Voters))
	copy(voters, p.Voters)
	return Proposal{
		ID:          id,
		Description: p.Description,
		VoteCount:   p.VoteCount,
		Voters:      voters,
	}
}

func (a *App) Vote(ctx context.Context, voter string, proposalID int) error {
	if err := a.ledger.Execute(ctx, voter, voting.Command{Action: voting.ActionVote, ProposalID: proposalID}); err != nil {
		return err
	}
	a.logger.Info("vote cast", zap.String("voter", model.NormalizeAddress(voter)), zap.Int("proposalID", proposalID))
	return nil
}

func (a *App) CancelVote(ctx context.Context, voter string) error {
	if err := a.ledger.Execute(ctx, voter, voting.Command{Action: voting.ActionCancelVote}); err != nil {
		return err
	}
	a.logger.Info("vote cancelled", zap.String("voter", model.NormalizeAddress(voter)))
	return nil
}

type Vote struct {
	Voter      string `json:"voter"`
	ProposalID int    `json:"proposalId"`
}

func (a *App) GetAllVotes(caller string) ([]Vote, error) {
	votes, err := a.ledger.AllVotes(caller)
	if err != nil {
		return nil, err
	}

	out := make([]Vote, len(votes.Voters))
	for i := range votes.Voters {
		out[i] = Vote{Voter: votes.Voters[i], ProposalID: votes.ProposalIDs[i]}
	}
	return out, nil
}

func (a *App) GetWinner() (voting.Winner, error) {
	return a.ledger.WinningProposal()
}

func (a *App) ResetSession(ctx context.Context, caller string) error {
	if err := a.ledger.Execute(ctx, caller, voting.Command{Action: voting.ActionResetSession}); err != nil {
		return err
	}
	a.logger.Info("session reset", zap.String("owner", a.ledger.Owner()))
	return nil
}
