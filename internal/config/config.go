// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults and Load(ctx) to layer
//   .env, file and environment sources on top.
// - External errors are wrapped with this package's sentinel kinds.
package config

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/okian/lineup/internal/domain/balance"
	"github.com/okian/lineup/internal/domain/search"
)

// Search holds the default knobs applied when a request omits them.
type Search struct {
	// Strategy is the default strategy name.
	Strategy string `koanf:"strategy"`

	Iterations        int     `koanf:"iterations"`
	NumTeams          int     `koanf:"num_teams"`
	Epsilon           float64 `koanf:"epsilon"`
	ExplorationFactor float64 `koanf:"exploration_factor"`
	Alpha             float64 `koanf:"alpha"`
	Beta              float64 `koanf:"beta"`
	PopulationSize    int     `koanf:"population_size"`
	MutationRate      float64 `koanf:"mutation_rate"`

	// Seed fixes the random source for every run; 0 seeds from the clock.
	Seed uint64 `koanf:"seed"`

	// MaxIterations and MaxPopulationSize cap what a single request may ask for.
	MaxIterations     int `koanf:"max_iterations"`
	MaxPopulationSize int `koanf:"max_population_size"`
}

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log encoding: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// QueueSize bounds the in-memory job queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of formulation workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize sets the size of the request-id cache.
	DedupeSize int `koanf:"dedupe_size"`

	// MaxResults bounds how many job records are retained.
	MaxResults int `koanf:"max_results"`

	// MaxListLimit caps GET /jobs?limit.
	MaxListLimit int `koanf:"max_list_limit"`

	// Categories is the ordered category set; order breaks position ties.
	Categories []string `koanf:"categories"`

	// MaxRating is the max-rated sentinel used by the constraint.
	MaxRating float64 `koanf:"max_rating"`

	Search Search `koanf:"search"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:     "info",
		LogFormat:    "text",
		Addr:         ":9080",
		QueueSize:    1024,
		WorkerCount:  runtime.NumCPU(),
		DedupeSize:   50_000,
		MaxResults:   10_000,
		MaxListLimit: 100,
		Categories:   balance.DefaultCategories(),
		MaxRating:    balance.DefaultMaxRating,
		Search: Search{
			Strategy:          search.NameEpsilonGreedy,
			Iterations:        search.DefaultIterations,
			NumTeams:          search.DefaultNumTeams,
			Epsilon:           search.DefaultEpsilon,
			ExplorationFactor: search.DefaultExplorationFactor,
			Alpha:             search.DefaultAlpha,
			Beta:              search.DefaultBeta,
			PopulationSize:    search.DefaultPopulationSize,
			MutationRate:      search.DefaultMutationRate,
			MaxIterations:     100_000,
			MaxPopulationSize: 1_000,
		},
	}
}

// SearchConfig converts the search block into a search.Config.
func (c *Config) SearchConfig() search.Config {
	return search.Config{
		Iterations:        c.Search.Iterations,
		NumTeams:          c.Search.NumTeams,
		Epsilon:           c.Search.Epsilon,
		ExplorationFactor: c.Search.ExplorationFactor,
		Alpha:             c.Search.Alpha,
		Beta:              c.Search.Beta,
		PopulationSize:    c.Search.PopulationSize,
		MutationRate:      c.Search.MutationRate,
	}
}

// Validate reports the first invalid setting wrapped in ErrInvalidConfig.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.QueueSize <= 0:
		return fmt.Errorf("%w: queue_size must be positive", ErrInvalidConfig)
	case c.WorkerCount <= 0:
		return fmt.Errorf("%w: worker_count must be positive", ErrInvalidConfig)
	case c.DedupeSize <= 0:
		return fmt.Errorf("%w: dedupe_size must be positive", ErrInvalidConfig)
	case c.MaxResults <= 0:
		return fmt.Errorf("%w: max_results must be positive", ErrInvalidConfig)
	case c.MaxListLimit <= 0:
		return fmt.Errorf("%w: max_list_limit must be positive", ErrInvalidConfig)
	case len(c.Categories) == 0:
		return fmt.Errorf("%w: categories must not be empty", ErrInvalidConfig)
	case c.MaxRating <= 0:
		return fmt.Errorf("%w: max_rating must be positive", ErrInvalidConfig)
	}
	switch strings.ToLower(c.LogFormat) {
	case "", "text", "json":
	default:
		return fmt.Errorf("%w: unknown log_format %q", ErrInvalidConfig, c.LogFormat)
	}
	switch {
	case c.Search.MaxIterations <= 0 || c.Search.Iterations > c.Search.MaxIterations:
		return fmt.Errorf("%w: search.max_iterations must be positive and cover search.iterations", ErrInvalidConfig)
	case c.Search.MaxPopulationSize <= 0 || c.Search.MaxPopulationSize > search.MaxPopulationSize:
		return fmt.Errorf("%w: search.max_population_size must be in [1, %d]", ErrInvalidConfig, search.MaxPopulationSize)
	case c.Search.PopulationSize > c.Search.MaxPopulationSize:
		return fmt.Errorf("%w: search.population_size exceeds search.max_population_size", ErrInvalidConfig)
	}
	if _, err := search.Resolve(c.Search.Strategy); err != nil {
		return fmt.Errorf("%w: search: %w", ErrInvalidConfig, err)
	}
	if err := c.SearchConfig().Validate(); err != nil {
		return fmt.Errorf("%w: search: %w", ErrInvalidConfig, err)
	}
	return nil
}
