package search

import (
	"fmt"
	"math"
)

// Default search configuration.
const (
	DefaultIterations        = 1000
	DefaultNumTeams          = 2
	DefaultEpsilon           = 0.1
	DefaultExplorationFactor = 1.0
	DefaultAlpha             = 1.0
	DefaultBeta              = 1.0
	DefaultPopulationSize    = 50
	DefaultMutationRate      = 0.1
)

// Hard limits on the knobs that size allocations up front.
const (
	MaxNumTeams       = 1024
	MaxPopulationSize = 10000
)

// Config holds the knobs of every strategy. Each strategy reads only its own.
type Config struct {
	Iterations        int     `json:"iterations"`
	NumTeams          int     `json:"num_teams"`
	Epsilon           float64 `json:"epsilon"`
	ExplorationFactor float64 `json:"exploration_factor"`
	Alpha             float64 `json:"alpha"`
	Beta              float64 `json:"beta"`
	PopulationSize    int     `json:"population_size"`
	MutationRate      float64 `json:"mutation_rate"`
}

// Option applies a configuration option to a Config.
type Option func(*Config)

// WithIterations sets the iteration (or generation) budget.
func WithIterations(n int) Option { return func(c *Config) { c.Iterations = n } }

// WithNumTeams sets the number of teams.
func WithNumTeams(n int) Option { return func(c *Config) { c.NumTeams = n } }

// WithEpsilon sets the epsilon-greedy exploration probability.
func WithEpsilon(eps float64) Option { return func(c *Config) { c.Epsilon = eps } }

// WithExplorationFactor sets the UCB exploration constant.
func WithExplorationFactor(f float64) Option { return func(c *Config) { c.ExplorationFactor = f } }

// WithPrior sets the Thompson Beta prior pseudo-counts.
func WithPrior(alpha, beta float64) Option {
	return func(c *Config) {
		c.Alpha = alpha
		c.Beta = beta
	}
}

// WithPopulationSize sets the genetic population size.
func WithPopulationSize(n int) Option { return func(c *Config) { c.PopulationSize = n } }

// WithMutationRate sets the genetic mutation probability.
func WithMutationRate(rate float64) Option { return func(c *Config) { c.MutationRate = rate } }

// DefaultConfig returns the default knobs of every strategy.
func DefaultConfig() Config {
	return Config{
		Iterations:        DefaultIterations,
		NumTeams:          DefaultNumTeams,
		Epsilon:           DefaultEpsilon,
		ExplorationFactor: DefaultExplorationFactor,
		Alpha:             DefaultAlpha,
		Beta:              DefaultBeta,
		PopulationSize:    DefaultPopulationSize,
		MutationRate:      DefaultMutationRate,
	}
}

// NewConfig applies opts on top of DefaultConfig.
func NewConfig(opts ...Option) Config {
	c := DefaultConfig()
	return c.With(opts...)
}

// With returns a copy of c with opts applied.
func (c Config) With(opts ...Option) Config {
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// Validate checks every knob before a run starts.
func (c Config) Validate() error {
	switch {
	case c.NumTeams < 2 || c.NumTeams > MaxNumTeams:
		return fmt.Errorf("%w: num_teams must be in [2, %d], got %d", ErrInvalidConfiguration, MaxNumTeams, c.NumTeams)
	case c.Iterations <= 0:
		return fmt.Errorf("%w: iterations must be positive, got %d", ErrInvalidConfiguration, c.Iterations)
	case !unit(c.Epsilon):
		return fmt.Errorf("%w: epsilon must be in [0,1], got %v", ErrInvalidConfiguration, c.Epsilon)
	case !unit(c.MutationRate):
		return fmt.Errorf("%w: mutation_rate must be in [0,1], got %v", ErrInvalidConfiguration, c.MutationRate)
	case math.IsNaN(c.ExplorationFactor) || c.ExplorationFactor < 0 || math.IsInf(c.ExplorationFactor, 0):
		return fmt.Errorf("%w: exploration_factor must be non-negative, got %v", ErrInvalidConfiguration, c.ExplorationFactor)
	case !positive(c.Alpha) || !positive(c.Beta):
		return fmt.Errorf("%w: alpha and beta must be positive, got %v/%v", ErrInvalidConfiguration, c.Alpha, c.Beta)
	case c.PopulationSize <= 0 || c.PopulationSize > MaxPopulationSize:
		return fmt.Errorf("%w: population_size must be in [1, %d], got %d", ErrInvalidConfiguration, MaxPopulationSize, c.PopulationSize)
	}
	return nil
}

func unit(v float64) bool { return v >= 0 && v <= 1 }

func positive(v float64) bool { return v > 0 && !math.IsInf(v, 0) }
