package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/go-gl/mathgl/mgl64"
)

var ErrInvalid = errors.New("config: invalid value")

type Config struct {
	World   WorldConfig   `toml:"world"`
	Solver  SolverConfig  `toml:"solver"`
	Logging LoggingConfig `toml:"logging"`
	Run     RunConfig     `toml:"run"`
}

type WorldConfig struct {
	Gravity  []float64 `toml:"gravity"`
	Substeps int       `toml:"substeps"`
	Workers  int       `toml:"workers"`
	CellSize float64   `toml:"cell_size"`
	NumCells int       `toml:"num_cells"`
}

type SolverConfig struct {
	Iterations int     `toml:"iterations"`
	TimeScale  float64 `toml:"time_scale"`
	Workers    int     `toml:"workers"`
	// empty means the world gravity
	Gravity []float64 `toml:"gravity"`
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "console"
}

type RunConfig struct {
	Dt    float64 `toml:"dt"`
	Steps int     `toml:"steps"`
}

// Load reads a TOML file over the defaults
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Default() *Config {
	return &Config{
		World: WorldConfig{
			Gravity:  []float64{0, -9.81, 0},
			Substeps: 1,
			Workers:  1,
			CellSize: 2.0,
			NumCells: 1024,
		},
		Solver: SolverConfig{
			Iterations: 8,
			TimeScale:  1.0,
			Workers:    1,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Run: RunConfig{
			Dt:    1.0 / 60.0,
			Steps: 600,
		},
	}
}

func (c *Config) Validate() error {
	switch {
	case len(c.World.Gravity) != 3:
		return fmt.Errorf("world.gravity needs 3 components, got %d: %w", len(c.World.Gravity), ErrInvalid)
	case len(c.Solver.Gravity) != 0 && len(c.Solver.Gravity) != 3:
		return fmt.Errorf("solver.gravity needs 3 components, got %d: %w", len(c.Solver.Gravity), ErrInvalid)
	case c.World.Substeps < 1:
		return fmt.Errorf("world.substeps = %d: %w", c.World.Substeps, ErrInvalid)
	case c.World.CellSize <= 0:
		return fmt.Errorf("world.cell_size = %v: %w", c.World.CellSize, ErrInvalid)
	case c.Solver.Iterations < 1:
		return fmt.Errorf("solver.iterations = %d: %w", c.Solver.Iterations, ErrInvalid)
	case c.Solver.TimeScale <= 0:
		return fmt.Errorf("solver.time_scale = %v: %w", c.Solver.TimeScale, ErrInvalid)
	case c.Run.Dt <= 0:
		return fmt.Errorf("run.dt = %v: %w", c.Run.Dt, ErrInvalid)
	case c.Run.Steps < 0:
		return fmt.Errorf("run.steps = %d: %w", c.Run.Steps, ErrInvalid)
	}
	return nil
}

func (w WorldConfig) GravityVec() mgl64.Vec3 {
	return mgl64.Vec3{w.Gravity[0], w.Gravity[1], w.Gravity[2]}
}

// GravityVec falls back to the world gravity when the solver has none
func (s SolverConfig) GravityVec(world WorldConfig) mgl64.Vec3 {
	if len(s.Gravity) != 3 {
		return world.GravityVec()
	}
	return mgl64.Vec3{s.Gravity[0], s.Gravity[1], s.Gravity[2]}
}
