package config

import (
	"fmt"
	"os"
	"time"

	"github.com/san-kum/segsim/internal/schelling"
	"gopkg.in/yaml.v3"
)

const (
	DefaultSize       = 50
	DefaultBlueRatio  = 0.45
	DefaultRedRatio   = 0.45
	DefaultEmptyRatio = 0.1
	DefaultMaxSteps   = 100000
	DefaultDelay      = time.Millisecond
	DefaultTheme      = "classic"
)

type Config struct {
	Size       int           `yaml:"size"`
	BlueRatio  float64       `yaml:"blue_ratio"`
	RedRatio   float64       `yaml:"red_ratio"`
	EmptyRatio float64       `yaml:"empty_ratio"`
	MaxSteps   int           `yaml:"max_steps"`
	Delay      time.Duration `yaml:"delay"`
	Seed       int64         `yaml:"seed"`
	Theme      string        `yaml:"theme"`
}

func DefaultConfig() *Config {
	return &Config{
		Size:       DefaultSize,
		BlueRatio:  DefaultBlueRatio,
		RedRatio:   DefaultRedRatio,
		EmptyRatio: DefaultEmptyRatio,
		MaxSteps:   DefaultMaxSteps,
		Delay:      DefaultDelay,
		Theme:      DefaultTheme,
	}
}

func Load(path string) (*Config, error) {
	return LoadOver(path, DefaultConfig())
}

// LoadOver overlays the file at path on a copy of base. Keys missing from the
// file keep base's values.
func LoadOver(path string, base *Config) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := *base
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Ratios() schelling.Ratios {
	return schelling.Ratios{Blue: c.BlueRatio, Red: c.RedRatio, Empty: c.EmptyRatio}
}

func (c *Config) SimConfig() schelling.Config {
	return schelling.Config{MaxSteps: c.MaxSteps, Delay: c.Delay}
}

// Validate checks everything that can be checked without building a grid.
// Errors wrap schelling.ErrInvalidConfiguration.
func (c *Config) Validate() error {
	if _, err := c.Ratios().Composition(c.Size); err != nil {
		return err
	}
	return c.SimConfig().Validate()
}
