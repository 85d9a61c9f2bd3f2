package http

import (
	"net/http"
	"voting-ledger/internal/ports/http/middleware/auth"

	"github.com/gorilla/mux"
)

func (ser *server) postVoter(w http.ResponseWriter, r *http.Request) {
	caller, err := auth.CallerFromContext(r.Context())
	if err != nil {
		ser.operationError(w, err)
		return
	}

	address, err := ser.readVoterParams(w, r)
	if err != nil {
		ser.badRequest(w, err.Error())
		return
	}

	ctx, cancel := ser.operationContext(r)
	defer cancel()

	if err := ser.app.RegisterVoter(ctx, caller, address); err != nil {
		ser.operationError(w, err)
		return
	}

	ser.respond(w, http.StatusCreated, ser.app.GetVoter(address))
}

func (ser *server) deleteVoter(w http.ResponseWriter, r *http.Request) {
	caller, err := auth.CallerFromContext(r.Context())
	if err != nil {
		ser.operationError(w, err)
		return
	}

	address := normalize(mux.Vars(r)["address"])

	ctx, cancel := ser.operationContext(r)
	defer cancel()

	if err := ser.app.RemoveVoter(ctx, caller, address); err != nil {
		ser.operationError(w, err)
		return
	}

	ser.respond(w, http.StatusNoContent, nil)
}

func (ser *server) getVoter(w http.ResponseWriter, r *http.Request) {
	address := normalize(mux.Vars(r)["address"])
	ser.respond(w, http.StatusOK, ser.app.GetVoter(address))
}
