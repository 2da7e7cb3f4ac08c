package search

import (
	"math"

	"github.com/okian/lineup/internal/domain/balance"
	"github.com/okian/lineup/internal/domain/model"
)

type arm struct {
	trials int
	reward float64
}

// UCB ranks swaps by mean reward plus an exploration bonus. The reward of a
// swap is the negated total balance it produced, 0 when it was invalid.
type UCB struct {
	swapper
	arms   map[Swap]*arm
	trials int
}

// NewUCB validates cfg and returns an uninitialized strategy.
func NewUCB(players []model.Player, scorer *balance.Scorer, cfg Config, src Source) (*UCB, error) {
	base, err := newSwapper(players, scorer, cfg, src)
	if err != nil {
		return nil, err
	}
	return &UCB{swapper: base}, nil
}

// Name implements Strategy.
func (u *UCB) Name() string { return NameUCB }

// Initialize deals a fresh partition and clears the statistics table.
func (u *UCB) Initialize() {
	u.initialize()
	u.arms = make(map[Swap]*arm)
	u.trials = 0
}

// Score returns the UCB score of sw; untried swaps score +Inf.
func (u *UCB) Score(sw Swap) float64 {
	a, ok := u.arms[sw]
	if !ok || a.trials == 0 {
		return math.Inf(1)
	}
	mean := a.reward / float64(a.trials)
	return mean + u.cfg.ExplorationFactor*math.Sqrt(math.Log(float64(u.trials))/float64(a.trials))
}

// Trials returns how often sw was selected.
func (u *UCB) Trials(sw Swap) int {
	if a, ok := u.arms[sw]; ok {
		return a.trials
	}
	return 0
}

// ProposeSwap returns the highest-scoring candidate; the first maximum wins.
func (u *UCB) ProposeSwap() (Swap, bool) {
	cands := u.candidates()
	if len(cands) == 0 {
		return u.randomSwap()
	}
	best := cands[0]
	bestScore := math.Inf(-1)
	for _, sw := range cands {
		if _, ok := u.arms[sw]; !ok {
			u.arms[sw] = &arm{}
		}
		if score := u.Score(sw); score > bestScore {
			best, bestScore = sw, score
		}
	}
	return best, true
}

// Step proposes, tries and records one swap.
func (u *UCB) Step() bool {
	sw, ok := u.ProposeSwap()
	if !ok {
		return false
	}
	out := u.try(sw)
	reward := 0.0
	if out.valid {
		reward = -out.balance
	}
	a, ok := u.arms[sw]
	if !ok {
		a = &arm{}
		u.arms[sw] = a
	}
	a.trials++
	a.reward += reward
	u.trials++
	return true
}

// Run initializes and performs the configured number of iterations.
func (u *UCB) Run() model.Partition {
	u.Initialize()
	for i := 0; i < u.cfg.Iterations; i++ {
		if !u.Step() {
			break
		}
	}
	return u.Best()
}
