package loadgen

import (
	"fmt"
	"math"

	"github.com/google/uuid"

	"github.com/okian/lineup/internal/domain/search"
	"github.com/okian/lineup/internal/domain/types"
)

// Rating tiers, as shares of the max rating.
const (
	topTierChance  = 0.1
	highTierChance = 0.3
	ratingStep     = 0.5
)

// Generate builds the submissions for one run. A DuplicateRate share of them
// resend an earlier request verbatim, so the server must dedupe them.
func Generate(cfg *Config, src search.Source) []types.FormationRequest {
	names := search.Names()
	out := make([]types.FormationRequest, 0, cfg.Jobs)
	for i := 0; i < cfg.Jobs; i++ {
		if i > 0 && src.Float64() < cfg.DuplicateRate {
			out = append(out, out[src.IntN(len(out))])
			continue
		}
		strategy := cfg.Strategy
		if strategy == "" {
			strategy = names[i%len(names)]
		}
		out = append(out, types.FormationRequest{
			RequestID:  uuid.NewString(),
			Strategy:   strategy,
			Players:    Roster(cfg.Players, cfg.Categories, cfg.MaxRating, src),
			NumTeams:   cfg.Teams,
			Iterations: cfg.Iterations,
			Seed:       uint64(src.IntN(math.MaxInt32)) + 1, //nolint:gosec // IntN is non-negative
		})
	}
	return out
}

// Roster generates n players rated in every category. Most ratings are
// average, some are high and a few sit exactly at maxRating so the
// constraint has something to enforce.
func Roster(n int, categories []string, maxRating float64, src search.Source) types.PlayerRatings {
	roster := make(types.PlayerRatings, n)
	for i := 0; i < n; i++ {
		ratings := make(map[string]types.Score, len(categories))
		for _, c := range categories {
			ratings[c] = types.Score(rating(maxRating, src))
		}
		roster[fmt.Sprintf("p%03d", i+1)] = ratings
	}
	return roster
}

func rating(maxRating float64, src search.Source) float64 {
	var v float64
	switch r := src.Float64(); {
	case r < topTierChance:
		return maxRating
	case r < topTierChance+highTierChance:
		v = maxRating * (0.7 + 0.3*src.Float64())
	default:
		v = maxRating * 0.7 * src.Float64()
	}
	v = math.Round(v/ratingStep) * ratingStep
	return math.Min(v, maxRating)
}
