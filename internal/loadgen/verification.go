package loadgen

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/okian/lineup/internal/domain/balance"
	"github.com/okian/lineup/internal/domain/model"
	"github.com/okian/lineup/internal/domain/types"
)

const balanceTolerance = 1e-6

// Verification errors.
var (
	ErrPartition = errors.New("formation is not a partition of the roster")
	ErrBalance   = errors.New("reported balance does not match")
	ErrValidity  = errors.New("reported validity does not match")
)

// Verifier re-checks formations independently of the server.
type Verifier struct {
	scorer *balance.Scorer
}

// NewVerifier creates a verifier for the server's categories and scale.
func NewVerifier(categories []string, maxRating float64) *Verifier {
	return &Verifier{scorer: balance.New(balance.WithCategories(categories...), balance.WithMaxRating(maxRating))}
}

// Verify checks that f places every roster player exactly once across the
// requested number of teams, and that the reported balance and validity
// match a recomputation from the request's ratings.
func (v *Verifier) Verify(req types.FormationRequest, f *model.Formation) error { //nolint:gocritic // hugeParam: requests are values
	if f == nil {
		return fmt.Errorf("%w: missing formation", ErrPartition)
	}
	if req.NumTeams > 0 && len(f.Teams) != req.NumTeams {
		return fmt.Errorf("%w: %d teams, want %d", ErrPartition, len(f.Teams), req.NumTeams)
	}

	seen := make(map[string]int, len(req.Players))
	partition := make(model.Partition, len(f.Teams))
	for i, t := range f.Teams {
		team := make(model.Team, 0, len(t.Team))
		for _, p := range t.Team {
			ratings, ok := req.Players[p.ID]
			if !ok {
				return fmt.Errorf("%w: unknown player %q in %s", ErrPartition, p.ID, t.Label)
			}
			seen[p.ID]++
			team = append(team, model.Player{ID: p.ID, Ratings: normalize(ratings)})
		}
		partition[i] = team
	}
	for id := range req.Players {
		switch seen[id] {
		case 1:
		case 0:
			return fmt.Errorf("%w: player %q missing", ErrPartition, id)
		default:
			return fmt.Errorf("%w: player %q placed %d times", ErrPartition, id, seen[id])
		}
	}

	if total := v.scorer.Total(partition); math.Abs(total-f.TotalBalance) > balanceTolerance {
		return fmt.Errorf("%w: got %v, recomputed %v", ErrBalance, f.TotalBalance, total)
	}
	if valid := v.scorer.Valid(partition); valid != f.Valid {
		return fmt.Errorf("%w: got %v, recomputed %v", ErrValidity, f.Valid, valid)
	}
	return nil
}

func normalize(in map[string]types.Score) model.Ratings {
	out := make(model.Ratings, len(in))
	for k, s := range in {
		out[strings.ToLower(strings.TrimSpace(k))] = float64(s)
	}
	return out
}
