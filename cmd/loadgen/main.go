// Command loadgen submits random rosters to a running lineup server and
// verifies every formation it returns.
package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/lineup/internal/loadgen"
	"github.com/okian/lineup/pkg/logger"
)

const defaultRunTimeout = 10 * time.Minute

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cfg := loadgen.DefaultConfig()
	var (
		categories string
		runTimeout time.Duration
		logFormat  string
	)

	cmd := &cobra.Command{
		Use:          "loadgen",
		Short:        "Load and consistency test for the lineup server",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := logger.Init(logger.WithWriter(cmd.ErrOrStderr()), logger.WithFormat(logFormat)); err != nil {
				return err
			}
			if cfg.Verbose {
				_ = logger.SetLevelString("debug")
			}
			cfg.Categories = splitCategories(categories)

			ctx, cancel := context.WithTimeout(cmd.Context(), runTimeout)
			defer cancel()

			_, err := loadgen.Run(ctx, &cfg)
			return err
		},
	}

	f := cmd.Flags()
	f.StringVar(&cfg.BaseURL, "url", cfg.BaseURL, "base URL of the service")
	f.IntVar(&cfg.Jobs, "jobs", cfg.Jobs, "number of rosters to submit")
	f.IntVar(&cfg.Players, "players", cfg.Players, "players per roster")
	f.IntVar(&cfg.Teams, "teams", cfg.Teams, "teams per roster")
	f.StringVar(&cfg.Strategy, "strategy", "", "strategy for every job; empty rotates through all")
	f.IntVar(&cfg.Iterations, "iterations", cfg.Iterations, "iterations per run")
	f.IntVar(&cfg.Workers, "workers", cfg.Workers, "concurrent submitters and pollers")
	f.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "HTTP request timeout")
	f.DurationVar(&cfg.PollInterval, "poll-interval", cfg.PollInterval, "delay between job polls")
	f.DurationVar(&cfg.PollTimeout, "poll-timeout", cfg.PollTimeout, "give up on a job after this long")
	f.Float64Var(&cfg.DuplicateRate, "duplicate-rate", cfg.DuplicateRate, "share of submissions that resend an earlier request id")
	f.IntVar(&cfg.MaxRetries, "retries", cfg.MaxRetries, "retries on 429")
	f.StringVar(&categories, "categories", strings.Join(cfg.Categories, ","), "comma separated categories; must match the server")
	f.Float64Var(&cfg.MaxRating, "max-rating", cfg.MaxRating, "max rating; must match the server")
	f.Uint64Var(&cfg.Seed, "seed", 0, "roster generation seed; 0 uses the clock")
	f.StringVar(&cfg.OutputFile, "output", "", "write the generated requests to this JSON file")
	f.BoolVar(&cfg.Verbose, "verbose", false, "enable debug logging")
	f.DurationVar(&runTimeout, "run-timeout", defaultRunTimeout, "overall deadline")
	f.StringVar(&logFormat, "log-format", "text", "log format: text or json")
	return cmd
}

func splitCategories(s string) []string {
	var out []string
	for _, c := range strings.Split(s, ",") {
		if c = strings.ToLower(strings.TrimSpace(c)); c != "" {
			out = append(out, c)
		}
	}
	return out
}
