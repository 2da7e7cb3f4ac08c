package search

import (
	"math"

	"github.com/okian/lineup/internal/domain/balance"
	"github.com/okian/lineup/internal/domain/model"
)

// EpsilonGreedy explores a random swap with probability epsilon and
// otherwise takes the valid swap with the lowest resulting total balance.
type EpsilonGreedy struct {
	swapper
}

// NewEpsilonGreedy validates cfg and returns an uninitialized strategy.
func NewEpsilonGreedy(players []model.Player, scorer *balance.Scorer, cfg Config, src Source) (*EpsilonGreedy, error) {
	base, err := newSwapper(players, scorer, cfg, src)
	if err != nil {
		return nil, err
	}
	return &EpsilonGreedy{swapper: base}, nil
}

// Name implements Strategy.
func (g *EpsilonGreedy) Name() string { return NameEpsilonGreedy }

// Initialize deals a fresh random partition.
func (g *EpsilonGreedy) Initialize() { g.initialize() }

// ProposeSwap returns the next swap to try, false when fewer than two teams
// have players.
func (g *EpsilonGreedy) ProposeSwap() (Swap, bool) {
	if g.src.Float64() < g.cfg.Epsilon {
		return g.randomSwap()
	}
	var (
		best     Swap
		found    bool
		bestCost = math.Inf(1)
	)
	for _, sw := range g.candidates() {
		cost, ok := g.probe(sw)
		if ok && cost < bestCost {
			best, bestCost, found = sw, cost, true
		}
	}
	if found {
		return best, true
	}
	return g.randomSwap()
}

// Step proposes and tries one swap. It reports false when no swap exists.
func (g *EpsilonGreedy) Step() bool {
	sw, ok := g.ProposeSwap()
	if !ok {
		return false
	}
	g.try(sw)
	return true
}

// Run initializes and performs the configured number of iterations.
func (g *EpsilonGreedy) Run() model.Partition {
	g.Initialize()
	for i := 0; i < g.cfg.Iterations; i++ {
		if !g.Step() {
			break
		}
	}
	return g.Best()
}
