package api

import (
	"net/http"

	"github.com/okian/lineup/internal/domain/formulator"
	"github.com/okian/lineup/internal/domain/model"
)

// FormulationsHandler serves synchronous formulations.
type FormulationsHandler struct {
	deps FormulationDependencies
}

// NewFormulationsHandler creates a new formulations handler.
func NewFormulationsHandler(deps FormulationDependencies) *FormulationsHandler {
	return &FormulationsHandler{deps: deps}
}

type compareResponse struct {
	Formations []model.Formation `json:"formations"`
}

// HandleFormulate handles POST /formulations. With ?format=markdown the
// result is rendered as a team table.
func (h *FormulationsHandler) HandleFormulate(w http.ResponseWriter, r *http.Request) {
	const op = "api.formulate"
	if err := requireMethod(op, r, http.MethodPost); err != nil {
		writeError(w, err)
		return
	}
	req, err := decodeRequest(op, w, r)
	if err != nil {
		writeError(w, err)
		return
	}
	f, err := h.deps.Formulate(r.Context(), req)
	if err != nil {
		writeError(w, Wrap(op, err))
		return
	}
	if r.URL.Query().Get("format") == "markdown" {
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(formulator.Markdown(f)))
		return
	}
	writeJSON(w, http.StatusOK, f)
}

// HandleCompare handles POST /formulations/compare.
func (h *FormulationsHandler) HandleCompare(w http.ResponseWriter, r *http.Request) {
	const op = "api.compare"
	if err := requireMethod(op, r, http.MethodPost); err != nil {
		writeError(w, err)
		return
	}
	req, err := decodeRequest(op, w, r)
	if err != nil {
		writeError(w, err)
		return
	}
	out, err := h.deps.Compare(r.Context(), req)
	if err != nil {
		writeError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, compareResponse{Formations: out})
}
