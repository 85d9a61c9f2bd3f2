package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"
	"voting-ledger/internal/app"
	"voting-ledger/internal/ports/http/middleware/auth"
	"voting-ledger/internal/ports/http/middleware/cors"
	"voting-ledger/internal/voting"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

type server struct {
	app            *app.App
	httpServer     *http.Server
	addr           string
	logger         *zap.Logger
	validator      auth.TokenValidator
	metricsHandler http.Handler
	requestTimeout time.Duration
	allowedOrigins []string
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

var statusByKind = map[string]int{
	"NotAuthorized":          http.StatusForbidden,
	"VoterNotRegistered":     http.StatusForbidden,
	"InvalidPhaseTransition": http.StatusConflict,
	"PhaseNotActive":         http.StatusConflict,
	"AlreadyRegistered":      http.StatusConflict,
	"AlreadyVoted":           http.StatusConflict,
	"VoterHasNotVoted":       http.StatusConflict,
	"ResultsNotAvailable":    http.StatusConflict,
	"InvalidProposal":        http.StatusBadRequest,
	"InvalidAddress":         http.StatusBadRequest,
	"InvalidProposalId":      http.StatusNotFound,
	"UnknownAction":          http.StatusNotFound,
}

func (ser *server) respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		ser.logger.Error("failed to write the response: " + err.Error())
	}
}

func (ser *server) badRequest(w http.ResponseWriter, message string) {
	ser.logger.Warn(message)
	ser.respond(w, http.StatusBadRequest, errorResponse{Error: "BadRequest", Message: message})
}

func (ser *server) serverError(w http.ResponseWriter, message string) {
	ser.logger.Error(message)
	ser.respond(w, http.StatusInternalServerError, errorResponse{Error: "Internal", Message: message})
}

// operationError maps a failed ledger operation to its status code.
func (ser *server) operationError(w http.ResponseWriter, err error) {
	if errors.Is(err, auth.ErrNoCaller) {
		ser.respond(w, http.StatusUnauthorized, errorResponse{Error: "Unauthenticated", Message: err.Error()})
		return
	}

	kind := voting.Kind(err)
	status, ok := statusByKind[kind]
	if !ok {
		ser.serverError(w, err.Error())
		return
	}

	ser.logger.Debug("operation rejected: "+err.Error(), zap.String("kind", kind))
	ser.respond(w, status, errorResponse{Error: kind, Message: err.Error()})
}

func (ser *server) registerHandlers(router *mux.Router) {

	router.HandleFunc("/health", healthcheck).Methods(http.MethodGet)
	if ser.metricsHandler != nil {
		router.Handle("/metrics", ser.metricsHandler).Methods(http.MethodGet)
	}

	router.HandleFunc("/api/ledger", ser.getLedger).Methods(http.MethodGet)
	router.Handle("/api/workflow/{action}", ser.authenticated(ser.postWorkflow)).Methods(http.MethodPost)
	router.Handle("/api/session/reset", ser.authenticated(ser.postReset)).Methods(http.MethodPost)

	router.Handle("/api/voters", ser.authenticated(ser.postVoter)).Methods(http.MethodPost)
	router.Handle("/api/voters/{address}", ser.authenticated(ser.deleteVoter)).Methods(http.MethodDelete)
	router.HandleFunc("/api/voters/{address}", ser.getVoter).Methods(http.MethodGet)

	router.Handle("/api/proposals", ser.authenticated(ser.postProposal)).Methods(http.MethodPost)
	router.HandleFunc("/api/proposals", ser.getProposals).Methods(http.MethodGet)
	router.HandleFunc("/api/proposals/{id}", ser.getProposal).Methods(http.MethodGet)

	router.Handle("/api/votes", ser.authenticated(ser.postVote)).Methods(http.MethodPost)
	router.Handle("/api/votes", ser.authenticated(ser.deleteVote)).Methods(http.MethodDelete)
	router.Handle("/api/votes", ser.authenticated(ser.getVotes)).Methods(http.MethodGet)

	router.HandleFunc("/api/results", ser.getResults).Methods(http.MethodGet)
	router.HandleFunc("/api/results/winner", ser.getWinner).Methods(http.MethodGet)
}

func (ser *server) authenticated(handler http.HandlerFunc) http.Handler {
	return ser.validator.Authenticate(handler)
}

// operationContext bounds a mutating request by the configured timeout.
func (ser *server) operationContext(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), ser.requestTimeout)
}

func healthcheck(w http.ResponseWriter, r *http.Request) {
	_, _ = w.Write([]byte("all good here"))
}

type ServerOption func(*server)

// WithMetrics exposes handler under /metrics.
func WithMetrics(handler http.Handler) ServerOption {
	return func(s *server) {
		s.metricsHandler = handler
	}
}

func WithRequestTimeout(timeout time.Duration) ServerOption {
	return func(s *server) {
		if timeout > 0 {
			s.requestTimeout = timeout
		}
	}
}

// WithAllowedOrigins restricts cross-origin calls to origins.
func WithAllowedOrigins(origins []string) ServerOption {
	return func(s *server) {
		s.allowedOrigins = origins
	}
}

func NewServer(logger *zap.Logger, a *app.App, address string, validator auth.TokenValidator, opts ...ServerOption) *server {
	ser := &server{
		app:            a,
		addr:           address,
		logger:         logger,
		validator:      validator,
		requestTimeout: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(ser)
	}
	ser.httpServer = &http.Server{
		Handler:           ser.Handler(),
		Addr:              address,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return ser
}

// Handler returns the routed API with the CORS policy applied.
func (ser *server) Handler() http.Handler {
	router := mux.NewRouter()
	ser.registerHandlers(router)
	return cors.AddCorsPolicy(router, ser.allowedOrigins)
}

func (ser *server) Run() error {
	ser.logger.Info("listening on " + ser.addr)
	if err := ser.httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (ser *server) Shutdown(ctx context.Context) error {
	return ser.httpServer.Shutdown(ctx)
}
