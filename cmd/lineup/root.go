package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	app "github.com/okian/lineup/internal/app"
	"github.com/okian/lineup/internal/config"
	"github.com/okian/lineup/internal/domain/formulator"
	"github.com/okian/lineup/internal/domain/model"
	"github.com/okian/lineup/internal/domain/types"
	"github.com/okian/lineup/pkg/logger"
)

// Output formats.
const (
	outputMarkdown = "markdown"
	outputJSON     = "json"
)

var errRatingsRequired = errors.New("--ratings is required")

// options holds the flags shared by formulate and compare.
type options struct {
	configPath string
	logLevel   string

	ratings           string
	strategy          string
	teams             int
	iterations        int
	seed              uint64
	epsilon           float64
	explorationFactor float64
	alpha             float64
	beta              float64
	population        int
	mutationRate      float64
	output            string
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "lineup",
		Short:         "Split rated players into balanced teams",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := logger.Init(logger.WithWriter(cmd.ErrOrStderr())); err != nil {
				return err
			}
			return logger.SetLevelString(opts.logLevel)
		},
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "YAML config file (overrides "+config.EnvConfig+")")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "log level: debug, info, warn, error")

	root.AddCommand(
		newFormulateCmd(opts),
		newCompareCmd(opts),
		newStrategiesCmd(),
	)
	return root
}

func newFormulateCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "formulate",
		Short:   "Run one strategy and print the teams",
		Example: "lineup formulate --ratings players.yaml --strategy ucb --teams 2",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, req, err := prepare(cmd, opts)
			if err != nil {
				return err
			}
			f, err := svc.Formulate(cmd.Context(), req)
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), opts.output, f)
		},
	}
	addRunFlags(cmd, opts)
	return cmd
}

func newCompareCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "compare",
		Short:   "Run every strategy on the same roster and seed",
		Example: "lineup compare --ratings players.yaml --seed 7",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, req, err := prepare(cmd, opts)
			if err != nil {
				return err
			}
			out, err := svc.Compare(cmd.Context(), req)
			if err != nil {
				return err
			}
			if opts.output == outputJSON {
				return writeJSON(cmd.OutOrStdout(), out)
			}
			w := cmd.OutOrStdout()
			for _, f := range out {
				validity := "valid"
				if !f.Valid {
					validity = "invalid"
				}
				fmt.Fprintf(w, "## %s (total balance %g, %s, %s)\n\n", f.Strategy, f.TotalBalance, validity, f.Duration)
				fmt.Fprintln(w, formulator.Markdown(f))
			}
			return nil
		},
	}
	addRunFlags(cmd, opts)
	return cmd
}

func newStrategiesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "strategies",
		Short: "List the available strategies",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := cmd.OutOrStdout()
			for _, info := range app.New().Strategies() {
				fmt.Fprintf(w, "%-15s %s (options: %s)\n", info.Name, info.Description, strings.Join(info.Options, ", "))
			}
			return nil
		},
	}
}

func addRunFlags(cmd *cobra.Command, opts *options) {
	f := cmd.Flags()
	f.StringVarP(&opts.ratings, "ratings", "r", "", "ratings file (YAML or JSON)")
	f.StringVarP(&opts.strategy, "strategy", "s", "", "strategy name (default from config)")
	f.IntVarP(&opts.teams, "teams", "t", 0, "number of teams")
	f.IntVarP(&opts.iterations, "iterations", "n", 0, "search iterations or generations")
	f.Uint64Var(&opts.seed, "seed", 0, "random seed; 0 picks one")
	f.Float64Var(&opts.epsilon, "epsilon", 0, "epsilon-greedy exploration probability")
	f.Float64Var(&opts.explorationFactor, "exploration-factor", 0, "UCB exploration factor")
	f.Float64Var(&opts.alpha, "alpha", 0, "Thompson prior alpha")
	f.Float64Var(&opts.beta, "beta", 0, "Thompson prior beta")
	f.IntVar(&opts.population, "population", 0, "genetic population size")
	f.Float64Var(&opts.mutationRate, "mutation-rate", 0, "genetic mutation rate")
	f.StringVarP(&opts.output, "output", "o", outputMarkdown, "output format: markdown or json")
	_ = cmd.MarkFlagRequired("ratings")
}

// prepare loads configuration and the roster, and builds the request from flags.
func prepare(cmd *cobra.Command, opts *options) (*app.Service, types.FormationRequest, error) {
	var req types.FormationRequest
	if opts.ratings == "" {
		return nil, req, errRatingsRequired
	}
	if opts.output != outputMarkdown && opts.output != outputJSON {
		return nil, req, fmt.Errorf("unknown output format %q", opts.output)
	}
	if opts.configPath != "" {
		if err := os.Setenv(config.EnvConfig, opts.configPath); err != nil {
			return nil, req, err
		}
	}

	ctx := cmd.Context()
	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, req, err
	}
	roster, err := config.LoadRoster(ctx, opts.ratings)
	if err != nil {
		return nil, req, err
	}

	req = types.FormationRequest{
		Strategy:       opts.strategy,
		Players:        toRatings(roster),
		NumTeams:       opts.teams,
		Iterations:     opts.iterations,
		Seed:           opts.seed,
		PopulationSize: opts.population,
	}
	flags := cmd.Flags()
	for name, dst := range map[string]**float64{
		"epsilon":            &req.Epsilon,
		"exploration-factor": &req.ExplorationFactor,
		"alpha":              &req.Alpha,
		"beta":               &req.Beta,
		"mutation-rate":      &req.MutationRate,
	} {
		if flags.Changed(name) {
			v, err := flags.GetFloat64(name)
			if err != nil {
				return nil, req, err
			}
			*dst = &v
		}
	}

	svc := app.New(app.WithConfig(cfg), app.WithLogger(logger.Named("lineup")))
	return svc, req, nil
}

func toRatings(r model.Roster) types.PlayerRatings {
	out := make(types.PlayerRatings, len(r))
	for id, ratings := range r {
		scores := make(map[string]types.Score, len(ratings))
		for c, v := range ratings {
			scores[c] = types.Score(v)
		}
		out[id] = scores
	}
	return out
}

func render(w io.Writer, output string, f model.Formation) error { //nolint:gocritic // hugeParam: formations are values
	if output == outputJSON {
		return writeJSON(w, f)
	}
	_, err := io.WriteString(w, formulator.Markdown(f))
	return err
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
