package search

import (
	"math"

	"github.com/okian/lineup/internal/domain/balance"
	"github.com/okian/lineup/internal/domain/model"
)

// Stats counts what a strategy run did.
type Stats = model.RunStats

// Swap exchanges player A of team From with player B of team To. From < To
// always holds, so a Swap is a canonical statistics-table key.
type Swap struct {
	From int
	To   int
	A    string
	B    string
}

// outcome is the result of trying one swap on the working partition.
type outcome struct {
	valid    bool
	balance  float64
	improved bool
}

// swapper is the working state shared by the swap-based strategies.
type swapper struct {
	players []model.Player
	scorer  *balance.Scorer
	cfg     Config
	src     Source

	current     model.Partition
	best        model.Partition
	bestBalance float64
	stats       Stats
}

func newSwapper(players []model.Player, scorer *balance.Scorer, cfg Config, src Source) (swapper, error) {
	if err := cfg.Validate(); err != nil {
		return swapper{}, err
	}
	if len(players) == 0 {
		return swapper{}, ErrEmptyInput
	}
	if scorer == nil {
		scorer = balance.New()
	}
	if src == nil {
		return swapper{}, ErrInvalidConfiguration
	}
	return swapper{players: players, scorer: scorer, cfg: cfg, src: src}, nil
}

// initialize deals shuffled players round-robin into NumTeams teams. The
// initial partition seeds best-known only when it is valid.
func (s *swapper) initialize() {
	s.current = deal(s.players, s.cfg.NumTeams, s.src)
	s.best = s.current.Clone()
	s.bestBalance = math.Inf(1)
	if s.scorer.Valid(s.current) {
		s.bestBalance = s.scorer.Total(s.current)
	}
	s.stats = Stats{BestBalance: s.bestBalance}
}

// try applies sw, keeps it only if the result is valid and strictly better
// than best-known, and reverts otherwise.
func (s *swapper) try(sw Swap) outcome {
	s.stats.Iterations++
	from, to, ok := s.apply(sw)
	if !ok {
		s.stats.Rejected++
		return outcome{}
	}
	if !s.scorer.Valid(s.current) {
		s.restore(sw, from, to)
		s.stats.Violations++
		s.stats.Rejected++
		return outcome{}
	}
	total := s.scorer.Total(s.current)
	if total < s.bestBalance {
		s.bestBalance = total
		s.best = s.current.Clone()
		s.stats.Accepted++
		s.stats.BestBalance = total
		return outcome{valid: true, balance: total, improved: true}
	}
	s.restore(sw, from, to)
	s.stats.Rejected++
	return outcome{valid: true, balance: total}
}

// probe returns the total balance sw would produce without keeping it.
func (s *swapper) probe(sw Swap) (float64, bool) {
	from, to, ok := s.apply(sw)
	if !ok {
		return 0, false
	}
	defer s.restore(sw, from, to)
	if !s.scorer.Valid(s.current) {
		return 0, false
	}
	return s.scorer.Total(s.current), true
}

// apply performs sw in place and returns snapshots of the two affected teams.
func (s *swapper) apply(sw Swap) (model.Team, model.Team, bool) {
	if sw.From == sw.To || sw.From < 0 || sw.To < 0 || sw.From >= len(s.current) || sw.To >= len(s.current) {
		return nil, nil, false
	}
	from, to := s.current[sw.From], s.current[sw.To]
	i, j := from.Index(sw.A), to.Index(sw.B)
	if i < 0 || j < 0 {
		return nil, nil, false
	}
	snapFrom, snapTo := from.Clone(), to.Clone()
	from[i], to[j] = to[j], from[i]
	return snapFrom, snapTo, true
}

func (s *swapper) restore(sw Swap, from, to model.Team) {
	s.current[sw.From] = from
	s.current[sw.To] = to
}

// randomSwap picks two distinct non-empty teams and a random player of each.
func (s *swapper) randomSwap() (Swap, bool) {
	teams := s.current.NonEmpty()
	if len(teams) < 2 {
		return Swap{}, false
	}
	x := s.src.IntN(len(teams))
	y := s.src.IntN(len(teams) - 1)
	if y >= x {
		y++
	}
	i, j := teams[x], teams[y]
	a := s.current[i][s.src.IntN(len(s.current[i]))].ID
	b := s.current[j][s.src.IntN(len(s.current[j]))].ID
	if i > j {
		i, j, a, b = j, i, b, a
	}
	return Swap{From: i, To: j, A: a, B: b}, true
}

// candidates lists every cross-team player pair, teams in order.
func (s *swapper) candidates() []Swap {
	var out []Swap
	for i := 0; i < len(s.current); i++ {
		for j := i + 1; j < len(s.current); j++ {
			for _, a := range s.current[i] {
				for _, b := range s.current[j] {
					out = append(out, Swap{From: i, To: j, A: a.ID, B: b.ID})
				}
			}
		}
	}
	return out
}

// Best returns a copy of the best-known partition.
func (s *swapper) Best() model.Partition { return s.best.Clone() }

// Current returns a copy of the working partition.
func (s *swapper) Current() model.Partition { return s.current.Clone() }

// Stats reports the counters of the last run.
func (s *swapper) Stats() Stats { return s.stats }

// deal shuffles a copy of players and assigns them round-robin.
func deal(players []model.Player, numTeams int, src Source) model.Partition {
	shuffled := make([]model.Player, len(players))
	copy(shuffled, players)
	src.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

	p := make(model.Partition, numTeams)
	for i := range p {
		p[i] = make(model.Team, 0, len(players)/numTeams+1)
	}
	for i, pl := range shuffled {
		p[i%numTeams] = append(p[i%numTeams], pl)
	}
	return p
}
