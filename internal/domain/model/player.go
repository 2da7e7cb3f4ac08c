// Package model contains domain models passed between layers.
package model

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// Ratings maps a category name to a player's score in it.
type Ratings map[string]float64

// Player is one rated player. Ratings are shared, never mutated after normalisation.
type Player struct {
	ID      string  `json:"id"`
	Ratings Ratings `json:"ratings"`
}

// Roster is the raw rating input: player id -> category -> score.
type Roster map[string]Ratings

// Team is an ordered list of players.
type Team []Player

// Partition is an ordered sequence of teams.
type Partition []Team

// Normalize validates the roster against the configured categories and returns its
// players ordered by id. Category keys are matched case-insensitively and may
// appear once per player; missing categories score 0.
func (r Roster) Normalize(categories []string, maxRating float64) ([]Player, error) {
	if len(r) == 0 {
		return nil, ErrEmptyInput
	}
	known := make(map[string]struct{}, len(categories))
	for _, c := range categories {
		known[c] = struct{}{}
	}

	players := make([]Player, 0, len(r))
	for id, ratings := range r {
		if strings.TrimSpace(id) == "" {
			return nil, fmt.Errorf("%w: empty player id", ErrInvalidInput)
		}
		normalized := make(Ratings, len(categories))
		for _, c := range categories {
			normalized[c] = 0
		}
		given := make(map[string]string, len(ratings))
		for key, score := range ratings {
			category := strings.ToLower(strings.TrimSpace(key))
			if _, ok := known[category]; !ok {
				return nil, fmt.Errorf("%w: player %q has unknown category %q", ErrInvalidInput, id, key)
			}
			if prev, dup := given[category]; dup {
				return nil, fmt.Errorf("%w: player %q rates %s twice (%q, %q)", ErrInvalidInput, id, category, prev, key)
			}
			given[category] = key
			if math.IsNaN(score) || score < 0 || score > maxRating {
				return nil, fmt.Errorf("%w: player %q %s score %v outside [0, %v]", ErrInvalidInput, id, category, score, maxRating)
			}
			normalized[category] = score
		}
		players = append(players, Player{ID: id, Ratings: normalized})
	}
	sort.Slice(players, func(i, j int) bool { return players[i].ID < players[j].ID })
	return players, nil
}

// IDs returns the player ids in team order.
func (t Team) IDs() []string {
	ids := make([]string, len(t))
	for i, p := range t {
		ids[i] = p.ID
	}
	return ids
}

// Index returns the position of the player in the team, or -1.
func (t Team) Index(id string) int {
	for i, p := range t {
		if p.ID == id {
			return i
		}
	}
	return -1
}

// Clone copies the team's player list.
func (t Team) Clone() Team {
	if t == nil {
		return nil
	}
	out := make(Team, len(t))
	copy(out, t)
	return out
}

// Clone returns a structural copy: new team slices, shared immutable ratings.
func (p Partition) Clone() Partition {
	out := make(Partition, len(p))
	for i, t := range p {
		out[i] = t.Clone()
	}
	return out
}

// Players returns the number of players across all teams.
func (p Partition) Players() int {
	n := 0
	for _, t := range p {
		n += len(t)
	}
	return n
}

// Sizes returns the size of every team.
func (p Partition) Sizes() []int {
	sizes := make([]int, len(p))
	for i, t := range p {
		sizes[i] = len(t)
	}
	return sizes
}

// NonEmpty returns the indices of teams that have at least one player.
func (p Partition) NonEmpty() []int {
	idx := make([]int, 0, len(p))
	for i, t := range p {
		if len(t) > 0 {
			idx = append(idx, i)
		}
	}
	return idx
}
