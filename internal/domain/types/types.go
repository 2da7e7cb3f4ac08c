// Package types contains wire types shared by the API, the service and the load tool.
package types

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

// ErrBadScore reports a rating value that is neither a number nor a list of numbers.
var ErrBadScore = errors.New("score must be a number or a list of numbers")

// Score is a per-category rating. On the wire it is either a number or a list of
// per-question scores, which are averaged (an empty list counts as 0).
type Score float64

// UnmarshalJSON accepts a number or an array of numbers.
func (s *Score) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	v, err := ParseScore(raw)
	if err != nil {
		return err
	}
	*s = Score(v)
	return nil
}

// ParseScore converts a decoded JSON/YAML value into a rating.
func ParseScore(raw any) (float64, error) {
	switch v := raw.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case uint64:
		return float64(v), nil
	case []any:
		if len(v) == 0 {
			return 0, nil
		}
		var sum float64
		for _, item := range v {
			f, err := ParseScore(item)
			if err != nil {
				return 0, err
			}
			sum += f
		}
		return sum / float64(len(v)), nil
	case []float64:
		if len(v) == 0 {
			return 0, nil
		}
		var sum float64
		for _, f := range v {
			sum += f
		}
		return sum / float64(len(v)), nil
	default:
		return math.NaN(), fmt.Errorf("%w: got %T", ErrBadScore, raw)
	}
}

// PlayerRatings maps a player id to its category scores.
type PlayerRatings map[string]map[string]Score

// FormationRequest is the body of POST /formulations and POST /jobs.
// Zero-valued knobs fall back to the configured defaults.
type FormationRequest struct {
	RequestID         string        `json:"request_id,omitempty"`
	Strategy          string        `json:"strategy,omitempty"`
	Players           PlayerRatings `json:"players"`
	NumTeams          int           `json:"num_teams,omitempty"`
	Iterations        int           `json:"iterations,omitempty"`
	Seed              uint64        `json:"seed,omitempty"`
	Epsilon           *float64      `json:"epsilon,omitempty"`
	ExplorationFactor *float64      `json:"exploration_factor,omitempty"`
	Alpha             *float64      `json:"alpha,omitempty"`
	Beta              *float64      `json:"beta,omitempty"`
	PopulationSize    int           `json:"population_size,omitempty"`
	MutationRate      *float64      `json:"mutation_rate,omitempty"`
}

// StrategyInfo describes a registered search strategy.
type StrategyInfo struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Options     []string `json:"options"`
}
