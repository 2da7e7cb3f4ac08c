package search

import (
	"fmt"
	"strings"

	"github.com/okian/lineup/internal/domain/balance"
	"github.com/okian/lineup/internal/domain/model"
	"github.com/okian/lineup/internal/domain/types"
)

// Strategy names.
const (
	NameEpsilonGreedy = "epsilon-greedy"
	NameUCB           = "ucb"
	NameThompson      = "thompson"
	NameGenetic       = "genetic"
)

// Strategy is one interchangeable balancing search.
type Strategy interface {
	// Name returns the registered strategy name.
	Name() string
	// Initialize builds a fresh random partition (or population).
	Initialize()
	// Run initializes, searches and returns the strategy's answer.
	Run() model.Partition
	// Stats reports counters of the last run.
	Stats() Stats
}

// SwapStrategy is a Strategy driven by single-swap moves.
type SwapStrategy interface {
	Strategy
	ProposeSwap() (Swap, bool)
	Step() bool
	Best() model.Partition
}

var (
	_ SwapStrategy = (*EpsilonGreedy)(nil)
	_ SwapStrategy = (*UCB)(nil)
	_ SwapStrategy = (*Thompson)(nil)
	_ Strategy     = (*Genetic)(nil)
)

var catalog = []types.StrategyInfo{
	{Name: NameEpsilonGreedy, Description: "Greedy best swap with random exploration", Options: []string{"iterations", "num_teams", "epsilon"}},
	{Name: NameUCB, Description: "Upper-confidence-bound bandit over swaps", Options: []string{"iterations", "num_teams", "exploration_factor"}},
	{Name: NameThompson, Description: "Thompson-sampling bandit over swaps", Options: []string{"iterations", "num_teams", "alpha", "beta"}},
	{Name: NameGenetic, Description: "Genetic algorithm over whole partitions", Options: []string{"iterations", "num_teams", "population_size", "mutation_rate"}},
}

// Catalog describes every registered strategy.
func Catalog() []types.StrategyInfo {
	out := make([]types.StrategyInfo, len(catalog))
	copy(out, catalog)
	return out
}

// Names returns the registered strategy names in catalog order.
func Names() []string {
	names := make([]string, len(catalog))
	for i, info := range catalog {
		names[i] = info.Name
	}
	return names
}

// Resolve maps a strategy name or alias to its registered name. Names are
// case-insensitive and "_" is accepted for "-".
func Resolve(name string) (string, error) {
	switch n := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "_", "-"); n {
	case NameEpsilonGreedy, "greedy":
		return NameEpsilonGreedy, nil
	case NameUCB:
		return NameUCB, nil
	case NameThompson, "thompson-sampling":
		return NameThompson, nil
	case NameGenetic, "ga":
		return NameGenetic, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
	}
}

// New builds the named strategy.
func New(name string, players []model.Player, scorer *balance.Scorer, cfg Config, src Source) (Strategy, error) {
	resolved, err := Resolve(name)
	if err != nil {
		return nil, err
	}

	var s Strategy
	switch resolved {
	case NameEpsilonGreedy:
		s, err = NewEpsilonGreedy(players, scorer, cfg, src)
	case NameUCB:
		s, err = NewUCB(players, scorer, cfg, src)
	case NameThompson:
		s, err = NewThompson(players, scorer, cfg, src)
	case NameGenetic:
		s, err = NewGenetic(players, scorer, cfg, src)
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}
