package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config represents the complete application configuration
type Config struct {
	Evaluation EvaluationConfig
	Paths      PathConfig
	LogLevel   string
}

// EvaluationConfig holds the stochastic and sizing knobs of an evaluation run
type EvaluationConfig struct {
	Seed          int64 // base seed for all derived RNG streams
	Draws         int   // posterior draws per candidate
	SubsampleSize int   // replicate vectors per density overlay
	MaxParallel   int   // concurrent candidate fits
}

// PathConfig holds file system paths
type PathConfig struct {
	DataDir   string
	OutputDir string
}

// Load reads configuration from a .env file (when present) and environment
// variables, then validates it.
func Load() (*Config, error) {
	// .env is optional; real environments set variables directly
	_ = godotenv.Load()

	cfg := &Config{
		Evaluation: EvaluationConfig{
			Seed:          envInt64("MODELCHECK_SEED", 1),
			Draws:         envInt("MODELCHECK_DRAWS", 2000),
			SubsampleSize: envInt("MODELCHECK_SUBSAMPLE", 100),
			MaxParallel:   envInt("MODELCHECK_MAX_PARALLEL", 4),
		},
		Paths: PathConfig{
			DataDir:   envStr("MODELCHECK_DATA_DIR", "data"),
			OutputDir: envStr("MODELCHECK_OUTPUT_DIR", "out"),
		},
		LogLevel: envStr("LOG_LEVEL", "INFO"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// Validate checks the configuration is internally consistent
func (c *Config) Validate() error {
	if c.Evaluation.Draws <= 0 {
		return fmt.Errorf("MODELCHECK_DRAWS must be positive, got %d", c.Evaluation.Draws)
	}
	if c.Evaluation.SubsampleSize <= 0 {
		return fmt.Errorf("MODELCHECK_SUBSAMPLE must be positive, got %d", c.Evaluation.SubsampleSize)
	}
	if c.Evaluation.SubsampleSize > c.Evaluation.Draws {
		return fmt.Errorf("MODELCHECK_SUBSAMPLE (%d) cannot exceed MODELCHECK_DRAWS (%d)",
			c.Evaluation.SubsampleSize, c.Evaluation.Draws)
	}
	if c.Evaluation.MaxParallel <= 0 {
		return fmt.Errorf("MODELCHECK_MAX_PARALLEL must be positive, got %d", c.Evaluation.MaxParallel)
	}
	return nil
}

func envStr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envInt64(key string, def int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return def
}
