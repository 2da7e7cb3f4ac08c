package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/okian/lineup/internal/config"
	"github.com/okian/lineup/internal/domain/search"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		dir := t.TempDir()

		convey.Convey("When loading config with defaults only", func() {
			clearConfigEnvVars(t)

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.Categories, convey.ShouldResemble, []string{"forward", "midfielder", "defender"})
				convey.So(cfg.Search.Iterations, convey.ShouldEqual, search.DefaultIterations)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			clearConfigEnvVars(t)
			t.Setenv("LINEUP_ADDR", ":8080")
			t.Setenv("LINEUP_QUEUE_SIZE", "64")
			t.Setenv("LINEUP_WORKER_COUNT", "3")
			t.Setenv("LINEUP_CATEGORIES", "attack,defense")
			t.Setenv("LINEUP_SEARCH__STRATEGY", "ucb")
			t.Setenv("LINEUP_SEARCH__EXPLORATION_FACTOR", "0.5")
			t.Setenv("LINEUP_SEARCH__NUM_TEAMS", "3")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 64)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 3)
				convey.So(cfg.Categories, convey.ShouldResemble, []string{"attack", "defense"})
				convey.So(cfg.Search.Strategy, convey.ShouldEqual, "ucb")
				convey.So(cfg.Search.ExplorationFactor, convey.ShouldEqual, 0.5)
				convey.So(cfg.Search.NumTeams, convey.ShouldEqual, 3)
				convey.So(cfg.Search.Epsilon, convey.ShouldEqual, search.DefaultEpsilon)
			})
		})

		convey.Convey("When loading config with a YAML file and env overrides", func() {
			clearConfigEnvVars(t)
			path := writeFile(t, dir, "lineup.yaml", `
addr: ":9090"
worker_count: 24
categories: [pace, shooting]
max_rating: 5
search:
  strategy: genetic
  population_size: 30
  mutation_rate: 0.05
`)
			t.Setenv(config.EnvConfig, path)
			t.Setenv("LINEUP_WORKER_COUNT", "32")

			cfg, err := config.Load(ctx)

			convey.Convey("Then env wins over the file and the file over defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 32)
				convey.So(cfg.Categories, convey.ShouldResemble, []string{"pace", "shooting"})
				convey.So(cfg.MaxRating, convey.ShouldEqual, 5)
				convey.So(cfg.Search.Strategy, convey.ShouldEqual, "genetic")
				convey.So(cfg.Search.PopulationSize, convey.ShouldEqual, 30)
				convey.So(cfg.Search.MutationRate, convey.ShouldEqual, 0.05)
			})
		})

		convey.Convey("When a .env file is named", func() {
			clearConfigEnvVars(t)
			path := writeFile(t, dir, "test.env", "LINEUP_ADDR=:7070\nLINEUP_SEARCH__ITERATIONS=250\n")
			t.Setenv(config.EnvDotFile, path)
			t.Setenv("LINEUP_SEARCH__ITERATIONS", "300")
			t.Cleanup(func() { _ = os.Unsetenv("LINEUP_ADDR") })

			cfg, err := config.Load(ctx)

			convey.Convey("Then it fills unset variables only", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":7070")
				convey.So(cfg.Search.Iterations, convey.ShouldEqual, 300)
			})
		})

		convey.Convey("When the named .env file is missing", func() {
			clearConfigEnvVars(t)
			t.Setenv(config.EnvDotFile, filepath.Join(dir, "nope.env"))

			_, err := config.Load(ctx)

			convey.Convey("Then loading fails", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the .env variable is set but empty", func() {
			clearConfigEnvVars(t)
			t.Setenv(config.EnvDotFile, "")

			cfg, err := config.Load(ctx)

			convey.Convey("Then the default .env stays optional", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			})
		})

		convey.Convey("When the config file is missing", func() {
			clearConfigEnvVars(t)
			t.Setenv(config.EnvConfig, filepath.Join(dir, "nope.yaml"))

			_, err := config.Load(ctx)

			convey.Convey("Then loading fails with ErrLoadConfig", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When a value is invalid", func() {
			clearConfigEnvVars(t)
			t.Setenv("LINEUP_SEARCH__EPSILON", "1.5")

			_, err := config.Load(ctx)

			convey.Convey("Then loading fails with ErrInvalidConfig", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})
	})
}

func TestLoadRoster(t *testing.T) {
	convey.Convey("Given ratings files", t, func() {
		ctx := context.Background()
		dir := t.TempDir()

		convey.Convey("When players are nested and names contain dots", func() {
			path := writeFile(t, dir, "ratings.yaml", `
players:
  "J. Smith": {forward: 7, midfielder: [6, 8], defender: []}
  Ana: {forward: 10}
`)
			roster, err := config.LoadRoster(ctx, path)

			convey.Convey("Then scores are parsed and lists averaged", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(len(roster), convey.ShouldEqual, 2)
				convey.So(roster["J. Smith"]["midfielder"], convey.ShouldEqual, 7)
				convey.So(roster["J. Smith"]["defender"], convey.ShouldEqual, 0)
				convey.So(roster["Ana"]["forward"], convey.ShouldEqual, 10)
			})
		})

		convey.Convey("When the file is a top-level JSON object", func() {
			path := writeFile(t, dir, "ratings.json", `{"a": {"forward": 1.5}, "b": {"defender": 2}}`)
			roster, err := config.LoadRoster(ctx, path)

			convey.Convey("Then it is read as well", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(roster["a"]["forward"], convey.ShouldEqual, 1.5)
			})
		})

		convey.Convey("When a score is not numeric", func() {
			path := writeFile(t, dir, "bad.yaml", "a: {forward: high}\n")
			_, err := config.LoadRoster(ctx, path)

			convey.Convey("Then loading fails", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})
	})
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

// clearConfigEnvVars unsets every LINEUP_ variable for the duration of the test.
func clearConfigEnvVars(t *testing.T) {
	t.Helper()
	for _, kv := range os.Environ() {
		for i := 0; i < len(kv); i++ {
			if kv[i] != '=' {
				continue
			}
			key := kv[:i]
			if len(key) > len(config.EnvPrefix) && key[:len(config.EnvPrefix)] == config.EnvPrefix {
				t.Setenv(key, "")
				_ = os.Unsetenv(key)
			}
			break
		}
	}
}
