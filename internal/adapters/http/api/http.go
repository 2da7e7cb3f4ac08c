// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/okian/lineup/internal/domain/model"
	"github.com/okian/lineup/internal/domain/types"
)

const maxBodyBytes = 1 << 20

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	FormulationDependencies
	JobDependencies
	StrategyProvider
}

// FormulationDependencies runs formulations synchronously.
type FormulationDependencies interface {
	Formulate(ctx context.Context, req types.FormationRequest) (model.Formation, error)
	Compare(ctx context.Context, req types.FormationRequest) ([]model.Formation, error)
}

// JobDependencies submits and reads asynchronous formulations.
type JobDependencies interface {
	Submit(ctx context.Context, req types.FormationRequest) (model.Record, bool, error)
	Get(ctx context.Context, id string) (model.Record, error)
	List(ctx context.Context, limit int) ([]model.Record, error)
}

// StrategyProvider lists the registered strategies.
type StrategyProvider interface {
	Strategies() []types.StrategyInfo
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler       *HealthHandler
	statsHandler        *StatsHandler
	formulationsHandler *FormulationsHandler
	jobsHandler         *JobsHandler
	strategiesHandler   *StrategiesHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:       NewHealthHandler(),
		statsHandler:        NewStatsHandler(statsProvider),
		formulationsHandler: NewFormulationsHandler(deps),
		jobsHandler:         NewJobsHandler(deps),
		strategiesHandler:   NewStrategiesHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/strategies", MetricsMiddleware(s.strategiesHandler.HandleList, "strategies"))
	mux.HandleFunc("/formulations", MetricsMiddleware(s.formulationsHandler.HandleFormulate, "formulations"))
	mux.HandleFunc("/formulations/compare", MetricsMiddleware(s.formulationsHandler.HandleCompare, "compare"))
	mux.HandleFunc("/jobs", MetricsMiddleware(s.jobsHandler.HandleJobs, "jobs"))
	mux.HandleFunc("/jobs/", MetricsMiddleware(s.jobsHandler.HandleGetJob, "job"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	code, kind := status(err)
	msg := http.StatusText(code)
	if err != nil {
		msg = err.Error()
	}
	if code == http.StatusMethodNotAllowed {
		w.Header().Set("Allow", allowFrom(err))
	}
	writeJSON(w, code, errorResponse{Code: kind, Message: msg})
}

// methodError reports a method that the route does not serve.
type methodError struct {
	allow string
}

func (e methodError) Error() string { return "allowed: " + e.allow }

func allowFrom(err error) string {
	var me methodError
	if errors.As(err, &me) {
		return me.allow
	}
	return ""
}

func requireMethod(op string, r *http.Request, method string) error {
	if r.Method == method {
		return nil
	}
	return WrapKind(op, ErrMethod, methodError{allow: method})
}

// decodeRequest reads one formation request from the body.
func decodeRequest(op string, w http.ResponseWriter, r *http.Request) (types.FormationRequest, error) {
	var req types.FormationRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		if errors.Is(err, io.EOF) {
			err = errors.New("empty body")
		}
		return req, WrapKind(op, ErrBadRequest, err)
	}
	if dec.More() {
		return req, WrapKind(op, ErrBadRequest, errors.New("trailing data after request"))
	}
	return req, nil
}
