package http

import (
	"net/http"
	"voting-ledger/internal/ports/http/middleware/auth"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

type phaseResponse struct {
	Phase   string `json:"phase"`
	PhaseID int    `json:"phaseId"`
}

func (ser *server) getLedger(w http.ResponseWriter, r *http.Request) {
	ser.respond(w, http.StatusOK, ser.app.GetLedgerInfo())
}

func (ser *server) postWorkflow(w http.ResponseWriter, r *http.Request) {
	caller, err := auth.CallerFromContext(r.Context())
	if err != nil {
		ser.operationError(w, err)
		return
	}

	transition := normalize(mux.Vars(r)["action"])
	ser.logger.Info("changing the workflow phase", zap.String("transition", transition), zap.String("caller", caller))

	ctx, cancel := ser.operationContext(r)
	defer cancel()

	phase, err := ser.app.ChangePhase(ctx, caller, transition)
	if err != nil {
		ser.operationError(w, err)
		return
	}

	ser.respond(w, http.StatusOK, phaseResponse{Phase: phase.String(), PhaseID: int(phase)})
}

func (ser *server) postReset(w http.ResponseWriter, r *http.Request) {
	caller, err := auth.CallerFromContext(r.Context())
	if err != nil {
		ser.operationError(w, err)
		return
	}

	ctx, cancel := ser.operationContext(r)
	defer cancel()

	if err := ser.app.ResetSession(ctx, caller); err != nil {
		ser.operationError(w, err)
		return
	}

	ser.respond(w, http.StatusOK, ser.app.GetLedgerInfo())
}
