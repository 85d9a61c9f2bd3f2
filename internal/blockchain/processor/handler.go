// based on https://github.com/hyperledger/sawtooth-sdk-go/blob/21f3d02d2446b6a91a945c93a8b94b1ddf616841/examples/intkey_go/src/sawtooth_intkey/handler/handler.go
package processor

import (
	"errors"
	"voting-ledger/internal/blockchain/votingfamily"
	"voting-ledger/internal/voting"

	"github.com/hyperledger/sawtooth-sdk-go/processor"
	"github.com/hyperledger/sawtooth-sdk-go/protobuf/processor_pb2"
	"go.uber.org/zap"
)

// stateContext is the part of processor.Context the handler needs.
type stateContext interface {
	GetState(addresses []string) (map[string][]byte, error)
	SetState(pairs map[string][]byte) ([]string, error)
	AddEvent(eventType string, attributes []processor.Attribute, eventData []byte) error
}

// VotingHandler is the on-chain voting contract: it applies voting family
// transactions to the ledger entry. The validator runs transactions in a
// total order and discards all writes of an invalid one.
type VotingHandler struct {
	logger *zap.Logger
}

func NewVotingHandler(logger *zap.Logger) *VotingHandler {
	return &VotingHandler{logger: logger}
}

func (h *VotingHandler) FamilyName() string {
	return votingfamily.FamilyName
}

func (h *VotingHandler) FamilyVersions() []string {
	return []string{votingfamily.FamilyVersion}
}

func (h *VotingHandler) Namespaces() []string {
	return []string{votingfamily.Namespace()}
}

func (h *VotingHandler) Apply(request *processor_pb2.TpProcessRequest, context *processor.Context) error {
	return h.apply(request.GetHeader().GetSignerPublicKey(), request.GetPayload(), context)
}

func (h *VotingHandler) apply(signer string, payload []byte, context stateContext) error {
	cmd, err := votingfamily.DecodeCommand(payload)
	if err != nil {
		return &processor.InvalidTransactionError{Msg: err.Error()}
	}

	address := votingfamily.GetLedgerAddress()
	entries, err := context.GetState([]string{address})
	if err != nil {
		return &processor.InternalError{Msg: "failed to read the ledger: " + err.Error()}
	}

	var state voting.State
	data, deployed := entries[address]
	deployed = deployed && len(data) > 0
	if deployed {
		if state, err = votingfamily.DecodeState(data); err != nil {
			return &processor.InternalError{Msg: err.Error()}
		}
	}

	switch {
	case cmd.Action == voting.ActionDeploy && !deployed:
		state = voting.NewState(signer)
	case !deployed:
		return &processor.InvalidTransactionError{Msg: voting.ErrNotDeployed.Error()}
	default:
		if err := state.Apply(signer, cmd); err != nil {
			h.logger.Info("transaction rejected", zap.String("action", string(cmd.Action)), zap.String("signer", signer), zap.Error(err))
			return &processor.InvalidTransactionError{Msg: err.Error()}
		}
	}

	encoded, err := votingfamily.EncodeState(state)
	if err != nil {
		return &processor.InternalError{Msg: err.Error()}
	}

	written, err := context.SetState(map[string][]byte{address: encoded})
	if err != nil {
		return &processor.InternalError{Msg: "failed to write the ledger: " + err.Error()}
	}
	if len(written) != 1 {
		return &processor.InternalError{Msg: "ledger entry was not written"}
	}

	attributes := []processor.Attribute{
		{Key: "phase", Value: state.Phase.String()},
		{Key: "caller", Value: signer},
	}
	if err := context.AddEvent(votingfamily.EventPrefix+string(cmd.Action), attributes, payload); err != nil {
		// the state change stands even if the notification is lost
		h.logger.Warn("failed to add the event: "+err.Error(), zap.String("action", string(cmd.Action)))
	}

	h.logger.Info("transaction applied", zap.String("action", cmd.String()), zap.String("signer", signer), zap.Stringer("phase", state.Phase))
	return nil
}

// IsInvalidTransaction tells a rejected transaction apart from a processor
// failure, which the validator retries.
func IsInvalidTransaction(err error) bool {
	var invalid *processor.InvalidTransactionError
	return errors.As(err, &invalid)
}
