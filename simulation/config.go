package simulation

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/o0olele/barneshut-go/math32"
	"github.com/o0olele/barneshut-go/octree"
)

var ErrInvalidConfig = errors.New("invalid config")

// Config describes a particle system and how it is stepped.
type Config struct {
	Kinds          int     `json:"kinds" yaml:"kinds"`
	Particles      int     `json:"particles" yaml:"particles"`
	Mass           float32 `json:"mass" yaml:"mass"`
	MaxForce       float32 `json:"max_force" yaml:"max_force"`
	MinDistanceExp int32   `json:"min_distance_exp" yaml:"min_distance_exp"`
	MaxDistanceExp int32   `json:"max_distance_exp" yaml:"max_distance_exp"`
	Theta          float32 `json:"theta" yaml:"theta"`
	SpawnMin       float32 `json:"spawn_min" yaml:"spawn_min"`
	SpawnMax       float32 `json:"spawn_max" yaml:"spawn_max"`
	Seed           int64   `json:"seed" yaml:"seed"`
	Dt             float32 `json:"dt" yaml:"dt"`
	MaxSpeed       float32 `json:"max_speed,omitempty" yaml:"max_speed,omitempty"`
	Workers        int     `json:"workers,omitempty" yaml:"workers,omitempty"`
	MaxDepth       uint8   `json:"max_depth" yaml:"max_depth"`
	MinSize        float32 `json:"min_size" yaml:"min_size"`
}

// DefaultConfig returns a four-kind system of 2000 unit-mass particles in the
// [-1, 1] cube.
func DefaultConfig() Config {
	return Config{
		Kinds:          4,
		Particles:      2000,
		Mass:           1,
		MaxForce:       1e-5,
		MinDistanceExp: -2,
		MaxDistanceExp: 1,
		Theta:          1.0,
		SpawnMin:       -1,
		SpawnMax:       1,
		Seed:           1,
		Dt:             1.0 / 60,
		MaxDepth:       octree.DefaultMaxDepth,
		MinSize:        octree.DefaultMinSize,
	}
}

// Validate reports the first invalid field, wrapping ErrInvalidConfig.
func (c *Config) Validate() error {
	switch {
	case c.Kinds <= 0:
		return fmt.Errorf("%w: kinds must be positive, got %d", ErrInvalidConfig, c.Kinds)
	case c.Particles < 0:
		return fmt.Errorf("%w: particles must not be negative, got %d", ErrInvalidConfig, c.Particles)
	case c.Mass <= 0 || !math32.IsFinite(c.Mass):
		return fmt.Errorf("%w: mass must be positive, got %v", ErrInvalidConfig, c.Mass)
	case c.MaxForce < 0 || !math32.IsFinite(c.MaxForce):
		return fmt.Errorf("%w: max force must not be negative, got %v", ErrInvalidConfig, c.MaxForce)
	case c.MinDistanceExp > c.MaxDistanceExp:
		return fmt.Errorf("%w: distance exponent range [%d, %d] is empty", ErrInvalidConfig, c.MinDistanceExp, c.MaxDistanceExp)
	case c.Theta < 0 || !math32.IsFinite(c.Theta):
		return fmt.Errorf("%w: theta must not be negative, got %v", ErrInvalidConfig, c.Theta)
	case !(c.SpawnMin < c.SpawnMax) || !math32.IsFinite(c.SpawnMin) || !math32.IsFinite(c.SpawnMax):
		return fmt.Errorf("%w: spawn range [%v, %v] is empty", ErrInvalidConfig, c.SpawnMin, c.SpawnMax)
	case c.Dt <= 0 || !math32.IsFinite(c.Dt):
		return fmt.Errorf("%w: dt must be positive, got %v", ErrInvalidConfig, c.Dt)
	case c.MaxSpeed < 0:
		return fmt.Errorf("%w: max speed must not be negative, got %v", ErrInvalidConfig, c.MaxSpeed)
	case c.Workers < 0:
		return fmt.Errorf("%w: workers must not be negative, got %d", ErrInvalidConfig, c.Workers)
	case c.MaxDepth == 0:
		return fmt.Errorf("%w: max depth must be positive", ErrInvalidConfig)
	case c.MinSize < 0:
		return fmt.Errorf("%w: min size must not be negative, got %v", ErrInvalidConfig, c.MinSize)
	}
	return nil
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// LoadConfig reads a YAML (.yaml, .yml) or JSON config. Fields missing from the
// file keep their DefaultConfig values.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := DefaultConfig()
	if isYAML(path) {
		err = yaml.Unmarshal(data, &cfg)
	} else {
		err = json.Unmarshal(data, &cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SaveConfig writes cfg as YAML or JSON depending on the extension of path.
func SaveConfig(cfg *Config, path string) error {
	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(cfg)
	} else {
		data, err = json.MarshalIndent(cfg, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}
