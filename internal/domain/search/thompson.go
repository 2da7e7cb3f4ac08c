package search

import (
	"math"

	"github.com/okian/lineup/internal/domain/balance"
	"github.com/okian/lineup/internal/domain/model"
)

type tally struct {
	successes int
	failures  int
}

// Thompson ranks swaps by a fresh Beta(alpha+successes, beta+failures) draw.
// A success is a valid swap that strictly improved best-known.
type Thompson struct {
	swapper
	tallies map[Swap]*tally
}

// NewThompson validates cfg and returns an uninitialized strategy.
func NewThompson(players []model.Player, scorer *balance.Scorer, cfg Config, src Source) (*Thompson, error) {
	base, err := newSwapper(players, scorer, cfg, src)
	if err != nil {
		return nil, err
	}
	return &Thompson{swapper: base}, nil
}

// Name implements Strategy.
func (t *Thompson) Name() string { return NameThompson }

// Initialize deals a fresh partition and clears the statistics table.
func (t *Thompson) Initialize() {
	t.initialize()
	t.tallies = make(map[Swap]*tally)
}

// Tally returns the success and failure counts of sw.
func (t *Thompson) Tally(sw Swap) (successes, failures int) {
	if c, ok := t.tallies[sw]; ok {
		return c.successes, c.failures
	}
	return 0, 0
}

// ProposeSwap samples every candidate and returns the highest draw.
func (t *Thompson) ProposeSwap() (Swap, bool) {
	cands := t.candidates()
	if len(cands) == 0 {
		return t.randomSwap()
	}
	best := cands[0]
	bestDraw := math.Inf(-1)
	for _, sw := range cands {
		c, ok := t.tallies[sw]
		if !ok {
			c = &tally{}
			t.tallies[sw] = c
		}
		draw := t.src.Beta(t.cfg.Alpha+float64(c.successes), t.cfg.Beta+float64(c.failures))
		if draw > bestDraw {
			best, bestDraw = sw, draw
		}
	}
	return best, true
}

// Step proposes, tries and records one swap.
func (t *Thompson) Step() bool {
	sw, ok := t.ProposeSwap()
	if !ok {
		return false
	}
	out := t.try(sw)
	c, ok := t.tallies[sw]
	if !ok {
		c = &tally{}
		t.tallies[sw] = c
	}
	if out.improved {
		c.successes++
	} else {
		c.failures++
	}
	return true
}

// Run initializes and performs the configured number of iterations.
func (t *Thompson) Run() model.Partition {
	t.Initialize()
	for i := 0; i < t.cfg.Iterations; i++ {
		if !t.Step() {
			break
		}
	}
	return t.Best()
}
