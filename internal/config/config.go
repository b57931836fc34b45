// Package config loads the qwire CLI configuration file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/qwire/internal/cost"
)

// DefaultPath is read when --config is not given. A missing default file is
// not an error.
const DefaultPath = "qwire.yaml"

// Config is the CLI configuration.
//
//	store:
//	  path: .qwire/history.db
//	cost:
//	  metric: t_count
//	  generalizers: [ignore_bookkeeping]
//	  max_depth: 0
//	  cache_size: 4096
//	format: text
type Config struct {
	Store  StoreConfig `yaml:"store"`
	Cost   CostConfig  `yaml:"cost"`
	Format string      `yaml:"format"`
}

// StoreConfig locates the report history database.
type StoreConfig struct {
	Path string `yaml:"path"`
}

// CostConfig sets the defaults of the cost engine.
type CostConfig struct {
	Metric       string   `yaml:"metric"`
	Generalizers []string `yaml:"generalizers"`
	MaxDepth     int      `yaml:"max_depth"`
	CacheSize    int      `yaml:"cache_size"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Store: StoreConfig{Path: ".qwire/history.db"},
		Cost: CostConfig{
			Metric:    cost.GateCounts.Name(),
			CacheSize: cost.DefaultCacheSize,
		},
		Format: "text",
	}
}

// Load reads path over the defaults. With explicit false, a missing file
// yields the defaults.
func Load(path string, explicit bool) (Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) && !explicit {
		return Default(), nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML over the defaults. Unknown fields are rejected.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Validate checks names and bounds.
func (c Config) Validate() error {
	if _, err := cost.MetricByName(c.Cost.Metric); err != nil {
		return fmt.Errorf("cost.metric: %w", err)
	}
	for i, name := range c.Cost.Generalizers {
		if _, ok := cost.GeneralizerByName(name); !ok {
			return fmt.Errorf("cost.generalizers[%d]: unknown generalizer %q", i, name)
		}
	}
	if c.Cost.MaxDepth < 0 {
		return fmt.Errorf("cost.max_depth must be non-negative")
	}
	if c.Cost.CacheSize <= 0 {
		return fmt.Errorf("cost.cache_size must be positive")
	}
	if c.Store.Path == "" {
		return fmt.Errorf("store.path is required")
	}
	switch c.Format {
	case "text", "json":
	default:
		return fmt.Errorf("format %q: must be text or json", c.Format)
	}
	return nil
}

// Metric resolves Cost.Metric.
func (c Config) Metric() (cost.Metric, error) {
	return cost.MetricByName(c.Cost.Metric)
}

// EngineOptions translates Cost into cost engine options.
func (c Config) EngineOptions() ([]cost.Option, error) {
	opts := []cost.Option{cost.WithCacheSize(c.Cost.CacheSize)}
	if c.Cost.MaxDepth > 0 {
		opts = append(opts, cost.WithMaxDepth(c.Cost.MaxDepth))
	}
	gens := make([]cost.Generalizer, 0, len(c.Cost.Generalizers))
	for _, name := range c.Cost.Generalizers {
		g, ok := cost.GeneralizerByName(name)
		if !ok {
			return nil, fmt.Errorf("unknown generalizer %q", name)
		}
		gens = append(gens, g)
	}
	if len(gens) > 0 {
		opts = append(opts, cost.WithGeneralizers(gens...))
	}
	return opts, nil
}
