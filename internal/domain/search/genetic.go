package search

import (
	"math"

	"github.com/okian/lineup/internal/domain/balance"
	"github.com/okian/lineup/internal/domain/model"
)

// Genetic evolves a population of whole partitions for Iterations
// generations and returns the fittest member of the final generation. It
// does not track a best-ever individual and does not consult the
// max-rating constraint while evolving.
type Genetic struct {
	players []model.Player
	scorer  *balance.Scorer
	cfg     Config
	src     Source

	population []model.Partition
	stats      Stats
}

// NewGenetic validates cfg and returns an uninitialized strategy.
func NewGenetic(players []model.Player, scorer *balance.Scorer, cfg Config, src Source) (*Genetic, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(players) == 0 {
		return nil, ErrEmptyInput
	}
	if src == nil {
		return nil, ErrInvalidConfiguration
	}
	if scorer == nil {
		scorer = balance.New()
	}
	return &Genetic{players: players, scorer: scorer, cfg: cfg, src: src}, nil
}

// Name implements Strategy.
func (g *Genetic) Name() string { return NameGenetic }

// Initialize builds PopulationSize random individuals split into
// near-equal teams.
func (g *Genetic) Initialize() {
	g.population = make([]model.Partition, g.cfg.PopulationSize)
	for i := range g.population {
		g.population[i] = g.split(g.shuffled(g.players))
	}
	g.stats = Stats{BestBalance: math.Inf(1)}
}

// Population returns the current generation.
func (g *Genetic) Population() []model.Partition { return g.population }

// Fitness is the total balance of an individual; lower is fitter.
func (g *Genetic) Fitness(individual model.Partition) float64 {
	return g.scorer.Total(individual)
}

// Evolve replaces the population with one new generation of the same size.
func (g *Genetic) Evolve() {
	next := make([]model.Partition, len(g.population))
	for i := range next {
		p1 := g.population[g.src.IntN(len(g.population))]
		p2 := g.population[g.src.IntN(len(g.population))]
		child := g.crossover(p1, p2)
		g.mutate(child)
		repair(child)
		next[i] = child
	}
	g.population = next
	g.stats.Iterations++
}

// Fittest returns the lowest-fitness individual; the first one wins ties.
func (g *Genetic) Fittest() model.Partition {
	var (
		best     model.Partition
		bestCost = math.Inf(1)
	)
	for _, ind := range g.population {
		if cost := g.Fitness(ind); best == nil || cost < bestCost {
			best, bestCost = ind, cost
		}
	}
	return best.Clone()
}

// Run initializes, evolves Iterations generations and returns the fittest
// individual of the last one.
func (g *Genetic) Run() model.Partition {
	g.Initialize()
	for i := 0; i < g.cfg.Iterations; i++ {
		g.Evolve()
	}
	best := g.Fittest()
	g.stats.BestBalance = g.Fitness(best)
	if !g.scorer.Valid(best) {
		g.stats.Violations++
	}
	return best
}

// Stats implements Strategy.
func (g *Genetic) Stats() Stats { return g.stats }

// crossover takes even-indexed teams from p1 and odd-indexed teams from p2,
// drops duplicates, adds players neither contributed, shuffles and re-splits.
func (g *Genetic) crossover(p1, p2 model.Partition) model.Partition {
	seen := make(map[string]struct{}, len(g.players))
	pool := make([]model.Player, 0, len(g.players))
	add := func(team model.Team) {
		for _, pl := range team {
			if _, dup := seen[pl.ID]; !dup {
				seen[pl.ID] = struct{}{}
				pool = append(pool, pl)
			}
		}
	}
	for t := 0; t < g.cfg.NumTeams; t++ {
		parent := p1
		if t%2 == 1 {
			parent = p2
		}
		if t < len(parent) {
			add(parent[t])
		}
	}
	add(g.players)
	return g.split(g.shuffled(pool))
}

// mutate swaps one random player between two random non-empty teams with
// probability MutationRate.
func (g *Genetic) mutate(ind model.Partition) {
	if g.src.Float64() >= g.cfg.MutationRate {
		return
	}
	teams := ind.NonEmpty()
	if len(teams) < 2 {
		return
	}
	x := g.src.IntN(len(teams))
	y := g.src.IntN(len(teams) - 1)
	if y >= x {
		y++
	}
	a, b := ind[teams[x]], ind[teams[y]]
	i, j := g.src.IntN(len(a)), g.src.IntN(len(b))
	a[i], b[j] = b[j], a[i]
}

func (g *Genetic) shuffled(players []model.Player) []model.Player {
	out := make([]model.Player, len(players))
	copy(out, players)
	g.src.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

// split cuts players into NumTeams contiguous chunks at k*n/NumTeams.
func (g *Genetic) split(players []model.Player) model.Partition {
	n, k := len(players), g.cfg.NumTeams
	p := make(model.Partition, k)
	for t := 0; t < k; t++ {
		lo, hi := t*n/k, (t+1)*n/k
		p[t] = append(make(model.Team, 0, hi-lo), players[lo:hi]...)
	}
	return p
}

// repair moves players from the largest team to the smallest until sizes
// differ by at most one.
func repair(p model.Partition) {
	if len(p) < 2 {
		return
	}
	for {
		largest, smallest := 0, 0
		for i, t := range p {
			if len(t) > len(p[largest]) {
				largest = i
			}
			if len(t) < len(p[smallest]) {
				smallest = i
			}
		}
		if len(p[largest])-len(p[smallest]) <= 1 {
			return
		}
		last := len(p[largest]) - 1
		p[smallest] = append(p[smallest], p[largest][last])
		p[largest] = p[largest][:last]
	}
}
