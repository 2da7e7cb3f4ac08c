// Package balance scores team imbalance and checks the max-rating constraint.
package balance

import (
	"strings"

	"github.com/okian/lineup/internal/domain/model"
	"gonum.org/v1/gonum/floats"
)

// Default scorer configuration.
const (
	DefaultMaxRating = 10
)

// DefaultCategories is the category order used when none is configured.
func DefaultCategories() []string {
	return []string{"forward", "midfielder", "defender"}
}

// Option applies a configuration option to the Scorer.
type Option func(*Scorer)

// WithCategories sets the ordered category list. Names are lower-cased and
// blanks or duplicates are dropped.
func WithCategories(categories ...string) Option {
	return func(s *Scorer) {
		seen := make(map[string]struct{}, len(categories))
		cleaned := make([]string, 0, len(categories))
		for _, c := range categories {
			c = strings.ToLower(strings.TrimSpace(c))
			if c == "" {
				continue
			}
			if _, dup := seen[c]; dup {
				continue
			}
			seen[c] = struct{}{}
			cleaned = append(cleaned, c)
		}
		if len(cleaned) > 0 {
			s.categories = cleaned
		}
	}
}

// WithMaxRating sets the sentinel score that marks a max-rated player.
func WithMaxRating(maxRating float64) Option {
	return func(s *Scorer) {
		if maxRating > 0 {
			s.maxRating = maxRating
		}
	}
}

// Scorer computes balance scores and constraint validity. It holds no mutable
// state and is safe for concurrent use.
type Scorer struct {
	categories []string
	maxRating  float64
}

// New creates a scorer with the default categories and max rating unless overridden.
func New(opts ...Option) *Scorer {
	s := &Scorer{
		categories: DefaultCategories(),
		maxRating:  DefaultMaxRating,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Categories returns a copy of the configured category order.
func (s *Scorer) Categories() []string {
	out := make([]string, len(s.categories))
	copy(out, s.categories)
	return out
}

// MaxRating returns the max-rated sentinel.
func (s *Scorer) MaxRating() float64 {
	return s.maxRating
}

// Aggregates sums every category across the team. An empty team sums to 0.
func (s *Scorer) Aggregates(team model.Team) map[string]float64 {
	sums := s.sums(team)
	out := make(map[string]float64, len(s.categories))
	for i, c := range s.categories {
		out[c] = sums[i]
	}
	return out
}

// Score returns max(category sum) - min(category sum) for one team.
func (s *Scorer) Score(team model.Team) float64 {
	if len(team) == 0 || len(s.categories) == 0 {
		return 0
	}
	sums := s.sums(team)
	return floats.Max(sums) - floats.Min(sums)
}

// Total sums the team scores of a partition.
func (s *Scorer) Total(p model.Partition) float64 {
	var total float64
	for _, team := range p {
		total += s.Score(team)
	}
	return total
}

// Violates reports whether two players of the team share the max rating in one category.
func (s *Scorer) Violates(team model.Team) bool {
	for _, c := range s.categories {
		maxed := 0
		for _, p := range team {
			if p.Ratings[c] == s.maxRating {
				maxed++
				if maxed > 1 {
					return true
				}
			}
		}
	}
	return false
}

// Valid reports whether no team of the partition violates the constraint.
func (s *Scorer) Valid(p model.Partition) bool {
	for _, team := range p {
		if s.Violates(team) {
			return false
		}
	}
	return true
}

// Position infers a player's primary category: the highest rating, ties going
// to the earliest configured category.
func (s *Scorer) Position(p model.Player) string {
	best := ""
	bestScore := 0.0
	for _, c := range s.categories {
		v := p.Ratings[c]
		if best == "" || v > bestScore {
			best, bestScore = c, v
		}
	}
	return best
}

func (s *Scorer) sums(team model.Team) []float64 {
	sums := make([]float64, len(s.categories))
	for _, p := range team {
		for i, c := range s.categories {
			sums[i] += p.Ratings[c]
		}
	}
	return sums
}
