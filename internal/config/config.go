// Package config loads primepath settings: defaults, then an optional YAML
// file, then PRIMEPATH_* environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/kittclouds/primepath/internal/logger"
	"github.com/kittclouds/primepath/pkg/pathcode"
	"github.com/kittclouds/primepath/pkg/primes"
)

// EnvPrefix prefixes every environment override, e.g. PRIMEPATH_CODEC_BLOCK_SIZE.
const EnvPrefix = "PRIMEPATH"

// Config is the full application configuration.
type Config struct {
	Log        logger.Config    `yaml:"log" envconfig:"LOG"`
	Registry   primes.Config    `yaml:"registry" envconfig:"REGISTRY"`
	Codec      pathcode.Config  `yaml:"codec" envconfig:"CODEC"`
	Store      StoreConfig      `yaml:"store" envconfig:"STORE"`
	Similarity SimilarityConfig `yaml:"similarity" envconfig:"SIMILARITY"`
}

// StoreConfig selects the super-token store.
type StoreConfig struct {
	// DSN is a SQLite data source; ":memory:" keeps everything in process.
	DSN string `yaml:"dsn" envconfig:"DSN"`
}

// SimilarityConfig drives graph construction from embeddings.
type SimilarityConfig struct {
	K         int     `yaml:"k" envconfig:"K"`
	Threshold float32 `yaml:"threshold" envconfig:"THRESHOLD"`
	IndexPath string  `yaml:"index_path" envconfig:"INDEX_PATH"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Log:      logger.DefaultConfig(),
		Registry: primes.DefaultConfig(),
		Codec:    pathcode.DefaultConfig(),
		Store:    StoreConfig{DSN: ":memory:"},
		Similarity: SimilarityConfig{
			K:         8,
			Threshold: 0.75,
			IndexPath: "vectors.bin",
		},
	}
}

// Load builds the configuration. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("error parsing YAML: %w", err)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("error processing environment configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error

	if _, err := logger.New(c.Log); err != nil {
		errs = append(errs, fmt.Errorf("log: %w", err))
	}

	if c.Registry.MaxPrimes < 1 {
		errs = append(errs, fmt.Errorf("registry: max_primes %d < 1", c.Registry.MaxPrimes))
	}
	if c.Registry.PreseedCount < 0 || c.Registry.PreseedCount > c.Registry.MaxPrimes {
		errs = append(errs, fmt.Errorf("registry: preseed_count %d outside [0, %d]",
			c.Registry.PreseedCount, c.Registry.MaxPrimes))
	}

	if err := c.Codec.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("codec: %w", err))
	}

	if c.Store.DSN == "" {
		errs = append(errs, errors.New("store: empty dsn"))
	}

	if c.Similarity.K < 1 {
		errs = append(errs, fmt.Errorf("similarity: k %d < 1", c.Similarity.K))
	}
	if c.Similarity.Threshold < -1 || c.Similarity.Threshold > 1 {
		errs = append(errs, fmt.Errorf("similarity: threshold %g outside [-1, 1]", c.Similarity.Threshold))
	}

	return errors.Join(errs...)
}
