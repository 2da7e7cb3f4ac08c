package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Environment variables that steer loading itself.
const (
	EnvPrefix  = "LINEUP_"
	EnvConfig  = "LINEUP_CONFIG"
	EnvDotFile = "LINEUP_ENV_FILE"

	defaultDotFile = ".env"
)

// Load builds a Config by layering defaults, .env, an optional file and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. .env file (LINEUP_ENV_FILE, or ./.env when present); never overrides
//     variables already set in the process
//  3. file (YAML) if LINEUP_CONFIG is set
//  4. env (prefix LINEUP_, "__" separates nested keys: LINEUP_SEARCH__EPSILON)
func Load(_ context.Context) (*Config, error) {
	if err := loadDotEnv(); err != nil {
		return nil, err
	}

	k := koanf.New(".")

	if path := os.Getenv(EnvConfig); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: read %s: %w", ErrLoadConfig, path, err)
		}
	}

	envProvider := env.ProviderWithValue(EnvPrefix, ".", func(key, value string) (string, any) {
		key = strings.ToLower(key)
		key = strings.TrimPrefix(key, strings.ToLower(EnvPrefix))
		key = strings.ReplaceAll(key, "__", ".")
		if key == "categories" {
			return key, strings.Split(value, ",")
		}
		return key, value
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %w", ErrLoadConfig, err)
	}

	// Slices are decoded into place and would keep stale default elements,
	// so categories start empty and fall back to defaults afterwards.
	cfg := *New()
	defaults := cfg.Categories
	cfg.Categories = nil
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: decode: %w", ErrLoadConfig, err)
	}
	if len(cfg.Categories) == 0 {
		cfg.Categories = defaults
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func loadDotEnv() error {
	path, explicit := os.LookupEnv(EnvDotFile)
	// An empty value means "not set": fall back to the optional ./.env.
	explicit = explicit && path != ""
	if !explicit {
		path = defaultDotFile
	}
	err := godotenv.Load(path)
	switch {
	case err == nil:
		return nil
	case !explicit && errors.Is(err, fs.ErrNotExist):
		return nil
	default:
		return fmt.Errorf("%w: dotenv %s: %w", ErrLoadConfig, path, err)
	}
}
