// Package cli holds the glue shared by the switchboard commands.
package cli

import (
	"context"

	"github.com/aretw0/switchboard/internal/config"
)

// GlobalOptions are the flags every command accepts.
type GlobalOptions struct {
	ConfigFile string
	DotEnv     string
	LogLevel   string
	Flow       string
}

// LoadConfig loads the configuration and applies flag overrides on top.
func LoadConfig(opts GlobalOptions) (*config.Config, error) {
	cfg, err := config.Load(config.Options{File: opts.ConfigFile, DotEnv: opts.DotEnv})
	if err != nil {
		return nil, err
	}
	if opts.LogLevel != "" {
		cfg.Log.Level = opts.LogLevel
	}
	if opts.Flow != "" {
		cfg.Engine.Flow = opts.Flow
	}
	return cfg, nil
}

// LoadStack loads the configuration and wires the engine.
func LoadStack(ctx context.Context, opts GlobalOptions) (*config.Stack, *config.Config, error) {
	cfg, err := LoadConfig(opts)
	if err != nil {
		return nil, nil, err
	}
	st, err := config.Build(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	return st, cfg, nil
}
