// Package loadgen drives a running lineup server with random rosters and
// checks every formation it gets back.
package loadgen

import (
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/okian/lineup/internal/domain/balance"
	"github.com/okian/lineup/internal/domain/search"
)

// Default configuration constants.
const (
	DefaultBaseURL       = "http://localhost:9080"
	DefaultJobs          = 200
	DefaultPlayers       = 12
	DefaultIterations    = 300
	DefaultTimeout       = 10 * time.Second
	DefaultPollInterval  = 50 * time.Millisecond
	DefaultPollTimeout   = 2 * time.Minute
	DefaultDuplicateRate = 0.05
	DefaultMaxRetries    = 5
)

// ErrInvalidConfig reports an unusable load configuration.
var ErrInvalidConfig = errors.New("invalid load configuration")

// Config holds configuration for one load run.
type Config struct {
	BaseURL       string        // Base URL of the service
	Jobs          int           // Number of distinct rosters to submit
	Players       int           // Players per roster
	Teams         int           // Teams per roster
	Strategy      string        // Strategy name; empty rotates through all
	Iterations    int           // Iterations per run
	Workers       int           // Concurrent submitters and pollers
	Timeout       time.Duration // HTTP request timeout
	PollInterval  time.Duration // Delay between job polls
	PollTimeout   time.Duration // Give up on a job after this long
	DuplicateRate float64       // Share of submissions that resend an earlier request id
	MaxRetries    int           // Retries on 429 before counting a rejection
	Categories    []string      // Must match the server's categories
	MaxRating     float64       // Must match the server's max_rating
	Seed          uint64        // Seeds roster generation; 0 uses the clock
	OutputFile    string        // Optional JSON dump of the generated requests
	Verbose       bool
}

// DefaultConfig returns a configuration for a local server.
func DefaultConfig() Config {
	return Config{
		BaseURL:       DefaultBaseURL,
		Jobs:          DefaultJobs,
		Players:       DefaultPlayers,
		Teams:         search.DefaultNumTeams,
		Iterations:    DefaultIterations,
		Workers:       runtime.NumCPU(),
		Timeout:       DefaultTimeout,
		PollInterval:  DefaultPollInterval,
		PollTimeout:   DefaultPollTimeout,
		DuplicateRate: DefaultDuplicateRate,
		MaxRetries:    DefaultMaxRetries,
		Categories:    balance.DefaultCategories(),
		MaxRating:     balance.DefaultMaxRating,
	}
}

// Validate reports the first unusable setting.
func (c *Config) Validate() error {
	switch {
	case c.BaseURL == "":
		return fmt.Errorf("%w: base url is empty", ErrInvalidConfig)
	case c.Jobs <= 0:
		return fmt.Errorf("%w: jobs must be positive", ErrInvalidConfig)
	case c.Teams < 2:
		return fmt.Errorf("%w: teams must be >= 2", ErrInvalidConfig)
	case c.Players < c.Teams:
		return fmt.Errorf("%w: need at least one player per team", ErrInvalidConfig)
	case c.Workers <= 0:
		return fmt.Errorf("%w: workers must be positive", ErrInvalidConfig)
	case c.Iterations <= 0:
		return fmt.Errorf("%w: iterations must be positive", ErrInvalidConfig)
	case c.DuplicateRate < 0 || c.DuplicateRate >= 1:
		return fmt.Errorf("%w: duplicate rate must be in [0,1)", ErrInvalidConfig)
	case len(c.Categories) == 0:
		return fmt.Errorf("%w: categories are empty", ErrInvalidConfig)
	case c.MaxRating <= 0:
		return fmt.Errorf("%w: max rating must be positive", ErrInvalidConfig)
	}
	if c.Strategy != "" {
		if _, err := search.Resolve(c.Strategy); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
	}
	return nil
}

// Stats holds run statistics.
type Stats struct {
	Generated  int
	Submitted  int
	Accepted   int
	Duplicate  int
	Rejected   int
	Failed     int
	Completed  int
	JobsFailed int
	TimedOut   int
	Verified   int
	Invalid    int
	Mismatches int

	// Balances holds the total balance of every verified formation.
	Balances      []float64
	BalanceMean   float64
	BalanceStdDev float64

	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration
}
