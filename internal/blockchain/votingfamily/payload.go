package votingfamily

import (
	"errors"
	"voting-ledger/internal/model"
	"voting-ledger/internal/voting"

	"github.com/fxamacker/cbor"
)

func EncodeCommand(cmd voting.Command) ([]byte, error) {
	data, err := cbor.Marshal(cmd, cbor.CanonicalEncOptions())
	if err != nil {
		return nil, errors.New("failed to dump the payload: " + err.Error())
	}
	return data, nil
}

func DecodeCommand(payload []byte) (voting.Command, error) {
	var cmd voting.Command
	if len(payload) == 0 {
		return cmd, errors.New("empty payload")
	}
	if err := cbor.Unmarshal(payload, &cmd); err != nil {
		return cmd, errors.New("failed to decode the payload: " + err.Error())
	}
	if cmd.Action == "" {
		return cmd, errors.New("payload has no action")
	}
	return cmd, nil
}

func EncodeState(state voting.State) ([]byte, error) {
	data, err := cbor.Marshal(state, cbor.CanonicalEncOptions())
	if err != nil {
		return nil, errors.New("failed to encode the ledger: " + err.Error())
	}
	return data, nil
}

func DecodeState(data []byte) (voting.State, error) {
	var state voting.State
	if err := cbor.Unmarshal(data, &state); err != nil {
		return voting.State{}, errors.New("failed to decode the ledger: " + err.Error())
	}
	if !state.Phase.IsValid() {
		return voting.State{}, errors.New("ledger holds an invalid phase: " + state.Phase.String())
	}
	if state.Voters == nil {
		state.Voters = make(map[string]model.Voter)
	}
	return state, nil
}
