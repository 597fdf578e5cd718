package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/Simplici0/furnicost/internal/costing"
)

const defaultDotEnv = ".env"

// Config holds application configuration sourced from environment variables.
type Config struct {
	AppEnv            string `env:"APP_ENV" envDefault:"development"`
	Port              string `env:"PORT" envDefault:"8080"`
	DBPath            string `env:"DB_PATH" envDefault:"./dev.db"`
	LogLevel          string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat         string `env:"LOG_FORMAT" envDefault:"console"`
	WastagePolicy     string `env:"WASTAGE_POLICY" envDefault:"flat"`
	RateLimitPerMin   int    `env:"RATE_LIMIT_PER_MINUTE" envDefault:"120"`
	SeedDefaults      bool   `env:"SEED_DEFAULTS" envDefault:"true"`
	AutoMigrateInProd bool   `env:"AUTO_MIGRATE" envDefault:"false"`
}

// Load reads the dotenv files (".env" when none are given) and then the
// process environment into a Config. Missing dotenv files are ignored and
// variables already set in the environment are never overwritten.
func Load(dotenvPaths ...string) (Config, error) {
	if len(dotenvPaths) == 0 {
		dotenvPaths = []string{defaultDotEnv}
	}
	for _, path := range dotenvPaths {
		if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load dotenv %s: %w", path, err)
		}
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	if _, err := costing.ParseWastagePolicy(cfg.WastagePolicy); err != nil {
		return Config{}, err
	}
	if cfg.RateLimitPerMin <= 0 {
		return Config{}, fmt.Errorf("RATE_LIMIT_PER_MINUTE must be positive, got %d", cfg.RateLimitPerMin)
	}

	return cfg, nil
}

// IsDev reports whether the application runs in a development environment.
func (c Config) IsDev() bool {
	return c.AppEnv == "development" || c.AppEnv == "local"
}

// ShouldMigrate reports whether pending migrations run at startup.
func (c Config) ShouldMigrate() bool {
	return c.IsDev() || c.AutoMigrateInProd
}

// Rules returns the costing rules selected by the configuration.
func (c Config) Rules() costing.Rules {
	policy, _ := costing.ParseWastagePolicy(c.WastagePolicy)
	return costing.Rules{Wastage: policy}
}
