package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):.
//  1. defaults (New())
//  2. file (YAML) if REVIEWFORGE_CONFIG is set
//  3. env (prefix REVIEWFORGE_)
func Load(ctx context.Context) (*Config, error) {
	// Start with defaults
	base := New()

	k := koanf.New(".")

	// Load from file if provided
	if path := os.Getenv("REVIEWFORGE_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
		}
	}

	// Environment variables: REVIEWFORGE_ADDR, REVIEWFORGE_TOTAL_EPOCHS, ...
	// Map env keys like REVIEWFORGE_TOTAL_EPOCHS -> total_epochs (flat keys)
	// Preserve underscores to match koanf tags on the struct.
	envProvider := env.Provider("REVIEWFORGE_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "reviewforge_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	// Unmarshal into a copy
	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	// Basic validation
	switch {
	case cfg.Addr == "":
		return nil, fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case cfg.DataDir == "":
		return nil, fmt.Errorf("%w: data_dir must not be empty", ErrInvalidConfig)
	case cfg.TotalEpochs <= 0:
		return nil, fmt.Errorf("%w: total_epochs must be positive", ErrInvalidConfig)
	case cfg.InitDelayMS < 0 || cfg.StepDelayMS < 0 || cfg.EpochDelayMS < 0:
		return nil, fmt.Errorf("%w: delays must not be negative", ErrInvalidConfig)
	}
	return &cfg, nil
}
