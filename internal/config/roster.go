package config

import (
	"context"
	"fmt"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/okian/lineup/internal/domain/model"
	"github.com/okian/lineup/internal/domain/types"
)

// rosterDelim splits nested keys; player names may contain dots.
const rosterDelim = "\x1f"

// LoadRoster reads a ratings file (YAML or JSON). Players are either the
// top-level mapping or nested under "players"; each category score is a
// number or a list of numbers that is averaged.
func LoadRoster(_ context.Context, path string) (model.Roster, error) {
	k := koanf.New(rosterDelim)
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", ErrLoadConfig, path, err)
	}

	raw := k.Raw()
	if nested, ok := raw["players"].(map[string]any); ok {
		raw = nested
	}

	roster := make(model.Roster, len(raw))
	for id, v := range raw {
		categories, ok := v.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: player %q: ratings must be a mapping", ErrLoadConfig, id)
		}
		ratings := make(model.Ratings, len(categories))
		for category, score := range categories {
			f, err := types.ParseScore(score)
			if err != nil {
				return nil, fmt.Errorf("%w: player %q %s: %w", ErrLoadConfig, id, category, err)
			}
			ratings[category] = f
		}
		roster[id] = ratings
	}
	return roster, nil
}
