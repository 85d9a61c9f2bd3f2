package http

import (
	"net/http"
	"strconv"
	"voting-ledger/internal/ports/http/middleware/auth"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

func (ser *server) postProposal(w http.ResponseWriter, r *http.Request) {
	caller, err := auth.CallerFromContext(r.Context())
	if err != nil {
		ser.operationError(w, err)
		return
	}

	description, err := ser.readProposalParams(w, r)
	if err != nil {
		ser.badRequest(w, err.Error())
		return
	}

	ctx, cancel := ser.operationContext(r)
	defer cancel()

	proposal, err := ser.app.AddProposal(ctx, caller, description)
	if err != nil {
		ser.operationError(w, err)
		return
	}

	ser.respond(w, http.StatusCreated, proposal)
}

func (ser *server) getProposals(w http.ResponseWriter, r *http.Request) {
	proposals := ser.app.GetAllProposals()
	ser.logger.Debug("returning all the proposals", zap.Int("count", len(proposals)))
	ser.respond(w, http.StatusOK, proposals)
}

func (ser *server) getProposal(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		ser.badRequest(w, "proposal id must be a number")
		return
	}

	proposal, err := ser.app.GetProposal(id)
	if err != nil {
		ser.operationError(w, err)
		return
	}

	ser.respond(w, http.StatusOK, proposal)
}

func (ser *server) getResults(w http.ResponseWriter, r *http.Request) {
	ser.respond(w, http.StatusOK, ser.app.GetResults())
}

func (ser *server) getWinner(w http.ResponseWriter, r *http.Request) {
	winner, err := ser.app.GetWinner()
	if err != nil {
		ser.operationError(w, err)
		return
	}

	ser.respond(w, http.StatusOK, winner)
}
