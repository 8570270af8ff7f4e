// Package config loads planner configuration from the environment and an
// optional config file. The sql packages never read configuration themselves;
// callers resolve a Config here and pass the values down.
package config

import (
	"strings"

	"github.com/spf13/viper"

	"github.com/driftdata/drift/errors"
)

const (
	// DefaultMaxPlanDepth bounds subquery, view and CTE nesting during
	// planning. Deep enough for any sane query, shallow enough that we fail
	// before the goroutine stack does.
	DefaultMaxPlanDepth = 512

	envPrefix = "drift"
)

const (
	ErrConfigFileUnreadable errors.Code = "ErrConfigFileUnreadable"
	ErrConfigInvalid        errors.Code = "ErrConfigInvalid"
)

// Config carries the tunables the SQL front end exposes.
type Config struct {
	// MaxPlanDepth is the maximum statement nesting depth the planner will
	// accept before giving up with a plan-too-deep error.
	MaxPlanDepth int `mapstructure:"max-plan-depth"`

	// Verbose enables debug-level planner logging.
	Verbose bool `mapstructure:"verbose"`
}

// NewDefaults returns a Config with all values at their defaults, suitable
// for library and test use without touching the environment.
func NewDefaults() *Config {
	return &Config{
		MaxPlanDepth: DefaultMaxPlanDepth,
		Verbose:      false,
	}
}

// Load resolves a Config from environment variables (DRIFT_ prefix) and,
// when path is non-empty, a TOML config file. File values override defaults;
// environment values override both.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetDefault("max-plan-depth", DefaultMaxPlanDepth)
	v.SetDefault("verbose", false)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.New(ErrConfigFileUnreadable, err.Error())
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.New(ErrConfigInvalid, err.Error())
	}
	if cfg.MaxPlanDepth < 1 {
		return nil, errors.New(ErrConfigInvalid, "max-plan-depth must be at least 1")
	}
	return cfg, nil
}
