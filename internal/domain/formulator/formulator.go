// Package formulator drives one balancing run and shapes its result into
// labelled teams.
package formulator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/okian/lineup/internal/domain/balance"
	"github.com/okian/lineup/internal/domain/model"
	"github.com/okian/lineup/internal/domain/search"
	"github.com/okian/lineup/pkg/logger"
	"github.com/okian/lineup/pkg/metrics"
)

// Option applies a configuration option to the Formulator.
type Option func(*Formulator)

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(f *Formulator) {
		if l != nil {
			f.logger = l
		}
	}
}

// WithMetrics enables or disables run metrics.
func WithMetrics(enabled bool) Option {
	return func(f *Formulator) {
		f.metrics = enabled
	}
}

// Formulator runs strategies and post-processes partitions.
type Formulator struct {
	scorer  *balance.Scorer
	logger  logger.Logger
	metrics bool
	once    sync.Once
}

// New creates a formulator over scorer.
func New(scorer *balance.Scorer, opts ...Option) *Formulator {
	if scorer == nil {
		scorer = balance.New()
	}
	f := &Formulator{scorer: scorer, metrics: true}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Formulate runs the strategy to completion and labels its partition.
func (f *Formulator) Formulate(ctx context.Context, s search.Strategy) (model.Formation, error) {
	if s == nil {
		return model.Formation{}, fmt.Errorf("%w: nil strategy", search.ErrInvalidConfiguration)
	}
	if err := ctx.Err(); err != nil {
		f.record(metrics.RunObservation{Strategy: s.Name(), Err: err})
		return model.Formation{}, fmt.Errorf("formulate %s: %w", s.Name(), err)
	}

	start := time.Now()
	partition := s.Run()
	elapsed := time.Since(start)

	out := f.Describe(partition)
	out.Strategy = s.Name()
	out.Stats = s.Stats()
	out.Duration = elapsed

	f.record(metrics.RunObservation{
		Strategy:     out.Strategy,
		Players:      partition.Players(),
		Duration:     elapsed,
		TotalBalance: out.TotalBalance,
		Accepted:     out.Stats.Accepted,
		Rejected:     out.Stats.Rejected,
		Violations:   out.Stats.Violations,
		Valid:        out.Valid,
	})
	f.log().Info(ctx, "formulated teams",
		logger.String("strategy", out.Strategy),
		logger.Int("teams", len(out.Teams)),
		logger.Int("players", partition.Players()),
		logger.Int("iterations", out.Stats.Iterations),
		logger.Float64("total_balance", out.TotalBalance),
		logger.Bool("valid", out.Valid),
		logger.Duration("duration", elapsed),
	)
	return out, nil
}

// Describe labels each team "Team 1".."Team N", infers positions and
// attaches balance scores and validity.
func (f *Formulator) Describe(p model.Partition) model.Formation {
	out := model.Formation{
		Teams: make([]model.TeamResult, len(p)),
		Valid: true,
	}
	for i, team := range p {
		positions := make(map[string]string, len(team))
		for _, pl := range team {
			positions[pl.ID] = f.scorer.Position(pl)
		}
		res := model.TeamResult{
			Label:        fmt.Sprintf("Team %d", i+1),
			Team:         team.Clone(),
			Positions:    positions,
			Aggregates:   f.scorer.Aggregates(team),
			BalanceScore: f.scorer.Score(team),
			Valid:        !f.scorer.Violates(team),
		}
		out.TotalBalance += res.BalanceScore
		out.Valid = out.Valid && res.Valid
		out.Teams[i] = res
	}
	return out
}

func (f *Formulator) record(o metrics.RunObservation) {
	if f.metrics {
		metrics.RecordRun(o)
	}
}

func (f *Formulator) log() logger.Logger {
	f.once.Do(func() {
		if f.logger == nil {
			f.logger = logger.Named("formulator")
		}
	})
	return f.logger
}
