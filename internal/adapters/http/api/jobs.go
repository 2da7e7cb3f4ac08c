package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/okian/lineup/internal/domain/model"
)

// JobsHandler serves asynchronous formulations.
type JobsHandler struct {
	deps JobDependencies
}

// NewJobsHandler creates a new jobs handler.
func NewJobsHandler(deps JobDependencies) *JobsHandler {
	return &JobsHandler{deps: deps}
}

type submitResponse struct {
	Job       model.Record `json:"job"`
	Duplicate bool         `json:"duplicate"`
}

type listResponse struct {
	Jobs []model.Record `json:"jobs"`
}

// HandleJobs dispatches POST /jobs and GET /jobs.
func (h *JobsHandler) HandleJobs(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.HandleSubmit(w, r)
	case http.MethodGet:
		h.HandleList(w, r)
	default:
		writeError(w, WrapKind("api.jobs", ErrMethod, methodError{allow: "GET, POST"}))
	}
}

// HandleSubmit handles POST /jobs. New jobs answer 202, a repeated
// request_id answers 200 with the original job.
func (h *JobsHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	const op = "api.submit_job"
	if err := requireMethod(op, r, http.MethodPost); err != nil {
		writeError(w, err)
		return
	}
	req, err := decodeRequest(op, w, r)
	if err != nil {
		writeError(w, err)
		return
	}
	rec, dup, err := h.deps.Submit(r.Context(), req)
	if err != nil {
		writeError(w, Wrap(op, err))
		return
	}
	if dup {
		writeJSON(w, http.StatusOK, submitResponse{Job: rec, Duplicate: true})
		return
	}
	w.Header().Set("Location", "/jobs/"+rec.ID)
	writeJSON(w, http.StatusAccepted, submitResponse{Job: rec})
}

// HandleList handles GET /jobs?limit=N.
func (h *JobsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_jobs"
	if err := requireMethod(op, r, http.MethodGet); err != nil {
		writeError(w, err)
		return
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, WrapKind(op, ErrBadRequest, errors.New("limit must be a non-negative integer")))
			return
		}
		limit = n
	}
	recs, err := h.deps.List(r.Context(), limit)
	if err != nil {
		writeError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, listResponse{Jobs: recs})
}

// HandleGetJob handles GET /jobs/{id}.
func (h *JobsHandler) HandleGetJob(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_job"
	if err := requireMethod(op, r, http.MethodGet); err != nil {
		writeError(w, err)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/jobs/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, WrapKind(op, ErrBadRequest, errors.New("missing job id")))
		return
	}
	rec, err := h.deps.Get(r.Context(), id)
	if err != nil {
		writeError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, rec)
}
