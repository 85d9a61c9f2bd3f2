package http

import (
	"net/http"
	"voting-ledger/internal/ports/http/middleware/auth"
)

func (ser *server) postVote(w http.ResponseWriter, r *http.Request) {
	caller, err := auth.CallerFromContext(r.Context())
	if err != nil {
		ser.operationError(w, err)
		return
	}

	proposalID, err := ser.readVoteParams(w, r)
	if err != nil {
		ser.badRequest(w, err.Error())
		return
	}

	ctx, cancel := ser.operationContext(r)
	defer cancel()

	if err := ser.app.Vote(ctx, caller, proposalID); err != nil {
		ser.operationError(w, err)
		return
	}

	ser.respond(w, http.StatusCreated, ser.app.GetVoter(caller))
}

func (ser *server) deleteVote(w http.ResponseWriter, r *http.Request) {
	caller, err := auth.CallerFromContext(r.Context())
	if err != nil {
		ser.operationError(w, err)
		return
	}

	ctx, cancel := ser.operationContext(r)
	defer cancel()

	if err := ser.app.CancelVote(ctx, caller); err != nil {
		ser.operationError(w, err)
		return
	}

	ser.respond(w, http.StatusNoContent, nil)
}

func (ser *server) getVotes(w http.ResponseWriter, r *http.Request) {
	caller, err := auth.CallerFromContext(r.Context())
	if err != nil {
		ser.operationError(w, err)
		return
	}

	votes, err := ser.app.GetAllVotes(caller)
	if err != nil {
		ser.operationError(w, err)
		return
	}

	ser.respond(w, http.StatusOK, votes)
}
