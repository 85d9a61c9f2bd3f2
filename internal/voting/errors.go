package voting

import (
	"errors"
	"fmt"
	"strings"
)

// Every rejected operation returns one of these, wrapped with the values that
// made the precondition fail. Use errors.Is to classify.
var (
	ErrNotAuthorized          = errors.New("caller is not the owner")
	ErrInvalidPhaseTransition = errors.New("invalid phase transition")
	ErrPhaseNotActive         = errors.New("phase not active")
	ErrAlreadyRegistered      = errors.New("voter already registered")
	ErrVoterNotRegistered     = errors.New("voter not registered")
	ErrAlreadyVoted           = errors.New("voter already voted")
	ErrVoterHasNotVoted       = errors.New("voter has not voted yet")
	ErrInvalidProposalID      = errors.New("invalid proposal id")
	ErrInvalidProposal        = errors.New("invalid proposal")
	ErrResultsNotAvailable    = errors.New("results not available")
	ErrInvalidAddress         = errors.New("invalid address")

	ErrNotDeployed     = errors.New("ledger not deployed")
	ErrAlreadyDeployed = errors.New("ledger already deployed")
	ErrUnknownAction   = errors.New("unknown action")
)

var rejections = []error{
	ErrNotAuthorized,
	ErrInvalidPhaseTransition,
	ErrPhaseNotActive,
	ErrAlreadyRegistered,
	ErrVoterNotRegistered,
	ErrAlreadyVoted,
	ErrVoterHasNotVoted,
	ErrInvalidProposalID,
	ErrInvalidProposal,
	ErrResultsNotAvailable,
	ErrInvalidAddress,
	ErrNotDeployed,
	ErrAlreadyDeployed,
	ErrUnknownAction,
}

// IsRejection reports whether err is a precondition failure of the workflow,
// as opposed to an infrastructure error (storage, transport).
func IsRejection(err error) bool {
	return Kind(err) != ""
}

// Kind returns a stable short name of the rejection wrapped in err, or an empty
// string if err is not a rejection.
func Kind(err error) string {
	for _, r := range rejections {
		if errors.Is(err, r) {
			return kindNames[r]
		}
	}
	return ""
}

var kindNames = map[error]string{
	ErrNotAuthorized:          "NotAuthorized",
	ErrInvalidPhaseTransition: "InvalidPhaseTransition",
	ErrPhaseNotActive:         "PhaseNotActive",
	ErrAlreadyRegistered:      "AlreadyRegistered",
	ErrVoterNotRegistered:     "VoterNotRegistered",
	ErrAlreadyVoted:           "AlreadyVoted",
	ErrVoterHasNotVoted:       "VoterHasNotVoted",
	ErrInvalidProposalID:      "InvalidProposalId",
	ErrInvalidProposal:        "InvalidProposal",
	ErrResultsNotAvailable:    "ResultsNotAvailable",
	ErrInvalidAddress:         "InvalidAddress",
	ErrNotDeployed:            "NotDeployed",
	ErrAlreadyDeployed:        "AlreadyDeployed",
	ErrUnknownAction:          "UnknownAction",
}

// RejectionFromMessage recovers the rejection from the text of an error that
// crossed a process boundary, such as the message of an invalid transaction.
// It returns nil if msg does not start with a known rejection.
func RejectionFromMessage(msg string) error {
	for _, r := range rejections {
		if strings.HasPrefix(msg, r.Error()) {
			rest := strings.TrimPrefix(strings.TrimPrefix(msg, r.Error()), ": ")
			if rest == "" {
				return r
			}
			return fmt.Errorf("%w: %s", r, rest)
		}
	}
	return nil
}
