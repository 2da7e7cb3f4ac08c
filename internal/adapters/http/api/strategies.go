package api

import (
	"net/http"

	"github.com/okian/lineup/internal/domain/types"
)

// StrategiesHandler lists the registered strategies.
type StrategiesHandler struct {
	provider StrategyProvider
}

// NewStrategiesHandler creates a new strategies handler.
func NewStrategiesHandler(provider StrategyProvider) *StrategiesHandler {
	return &StrategiesHandler{provider: provider}
}

type strategiesResponse struct {
	Strategies []types.StrategyInfo `json:"strategies"`
}

// HandleList handles GET /strategies.
func (h *StrategiesHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	if err := requireMethod("api.strategies", r, http.MethodGet); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, strategiesResponse{Strategies: h.provider.Strategies()})
}
