package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/multierr"
)

const (
	maxBodySize      = 1 << 20
	maxAddressLength = 130
)

type voterRequest struct {
	Address string `json:"address"`
}

type proposalRequest struct {
	Description string `json:"description"`
}

type voteRequest struct {
	ProposalID *int `json:"proposalId"`
}

func normalize(s string) string {
	return strings.TrimSpace(s)
}

func readJSON(w http.ResponseWriter, r *http.Request, into interface{}) error {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(into); err != nil {
		return errors.New("failed to decode the request body: " + err.Error())
	}
	return nil
}

// validateAddress reports every problem of a voter address at once.
func validateAddress(address string) (err error) {
	if address == "" {
		return errors.New("address is missing")
	}
	if strings.ContainsAny(address, " \t\r\n/") {
		err = multierr.Append(err, errors.New("address contains whitespace or slashes"))
	}
	if len(address) > maxAddressLength {
		err = multierr.Append(err, fmt.Errorf("address is longer than %d characters", maxAddressLength))
	}
	return err
}

func (ser *server) readVoterParams(w http.ResponseWriter, r *http.Request) (string, error) {
	var req voterRequest
	if err := readJSON(w, r, &req); err != nil {
		return "", err
	}

	address := normalize(req.Address)
	return address, validateAddress(address)
}

func (ser *server) readProposalParams(w http.ResponseWriter, r *http.Request) (string, error) {
	var req proposalRequest
	if err := readJSON(w, r, &req); err != nil {
		return "", err
	}
	// blank and oversized descriptions are rejected by the ledger itself
	return req.Description, nil
}

func (ser *server) readVoteParams(w http.ResponseWriter, r *http.Request) (int, error) {
	var req voteRequest
	if err := readJSON(w, r, &req); err != nil {
		return 0, err
	}
	if req.ProposalID == nil {
		return 0, errors.New("proposalId is missing")
	}
	return *req.ProposalID, nil
}
