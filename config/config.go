// Package config holds the YAML scenario configuration of the bemscatter
// driver and its conversion into library options.
package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/notargets/BEMKernel/linalg"
	"github.com/notargets/BEMKernel/operators"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Config is the complete driver configuration
type Config struct {
	Assembly   AssemblyConfig   `yaml:"assembly"`
	Solver     SolverConfig     `yaml:"solver"`
	Dielectric DielectricConfig `yaml:"dielectric"`
	Potential  PotentialConfig  `yaml:"potential"`
	Logging    LoggingConfig    `yaml:"logging"`
}

type AssemblyConfig struct {
	Assembler      string  `yaml:"assembler"` // "dense" or a registered backend
	Precision      string  `yaml:"precision"` // "", single, double
	Device         string  `yaml:"device"`    // OCCA property string, empty for CPU
	Workers        int     `yaml:"workers"`   // 0 uses GOMAXPROCS
	RegularOrder   int     `yaml:"regular_order"`
	NearFieldOrder int     `yaml:"near_field_order"`
	NearFieldRatio float64 `yaml:"near_field_ratio"`
}

type SolverConfig struct {
	Kind          string  `yaml:"kind"` // lu, gmres
	Tolerance     float64 `yaml:"tolerance"`
	Restart       int     `yaml:"restart"`
	MaxIterations int     `yaml:"max_iterations"`
	BlockJacobi   bool    `yaml:"block_jacobi"` // gmres only
}

type SphereConfig struct {
	Radius   float64    `yaml:"radius"`
	Center   [3]float64 `yaml:"center"`
	EpsilonR float64    `yaml:"epsilon_r"`
	MuR      float64    `yaml:"mu_r"`
}

type DielectricConfig struct {
	Frequency      float64         `yaml:"frequency"` // Hz
	MeshSize       float64         `yaml:"mesh_size"`
	Theta          float64         `yaml:"theta"` // incident angle in the xy plane, radians
	Polarization   [3]float64      `yaml:"polarization"`
	Spheres        []SphereConfig  `yaml:"spheres"`
	FarFieldAngles int             `yaml:"far_field_angles"`
	NearField      NearFieldConfig `yaml:"near_field"`
}

// NearFieldConfig is a regular grid of sample points in the plane z = 0
type NearFieldConfig struct {
	Extent float64 `yaml:"extent"` // samples cover [-extent, extent]²
	Points int     `yaml:"points"` // per axis
}

type PotentialConfig struct {
	Radius     float64   `yaml:"radius"`
	Refinement int       `yaml:"refinement"`
	Wavenumber float64   `yaml:"wavenumber"`
	Distances  []float64 `yaml:"distances"`
}

type LoggingConfig struct {
	Level       string `yaml:"level"` // debug, info, warn, error
	Development bool   `yaml:"development"`
}

// DefaultConfig is two Teflon spheres of radius 0.4 at x = ±1 under a
// z-polarized 300 MHz plane wave at 45 degrees
func DefaultConfig() *Config {
	teflon := func(x float64) SphereConfig {
		return SphereConfig{Radius: 0.4, Center: [3]float64{x, 0, 0}, EpsilonR: 2.1, MuR: 1}
	}
	return &Config{
		Assembly: AssemblyConfig{
			Assembler:      operators.DefaultAssembler,
			Precision:      "double",
			RegularOrder:   4,
			NearFieldOrder: 8,
			NearFieldRatio: 2,
		},
		Solver: SolverConfig{
			Kind:          "lu",
			Tolerance:     1e-8,
			Restart:       50,
			MaxIterations: 1000,
			BlockJacobi:   true,
		},
		Dielectric: DielectricConfig{
			Frequency:      300e6,
			MeshSize:       0.2,
			Theta:          math.Pi / 4,
			Polarization:   [3]float64{0, 0, 1},
			Spheres:        []SphereConfig{teflon(-1), teflon(1)},
			FarFieldAngles: 400,
			NearField:      NearFieldConfig{Extent: 2, Points: 40},
		},
		Potential: PotentialConfig{
			Radius:     1,
			Refinement: 2,
			Wavenumber: 2,
			Distances:  []float64{2, 4, 8, 16, 32},
		},
		Logging: LoggingConfig{Level: "info"},
	}
}

// Load reads a YAML file over DefaultConfig. A missing file yields the
// defaults. Environment overrides are applied before validation.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.applyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("BEMSCATTER_ASSEMBLER"); v != "" {
		c.Assembly.Assembler = v
	}
	if v := os.Getenv("BEMSCATTER_DEVICE"); v != "" {
		c.Assembly.Device = v
	}
	if v := os.Getenv("BEMSCATTER_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

// Validate checks everything that can be checked without building a grid.
// Errors wrap operators.ErrInvalidConfiguration.
func (c *Config) Validate() error {
	invalid := func(format string, args ...interface{}) error {
		return fmt.Errorf("%w: %s", operators.ErrInvalidConfiguration, fmt.Sprintf(format, args...))
	}
	a := c.Assembly
	if _, err := operators.ParsePrecision(a.Precision); err != nil {
		return err
	}
	if a.Workers < 0 || a.RegularOrder < 0 || a.NearFieldOrder < 0 || a.NearFieldRatio < 0 {
		return invalid("assembly parameters must not be negative")
	}

	switch c.Solver.Kind {
	case "lu", "gmres":
	default:
		return invalid("unknown solver %q", c.Solver.Kind)
	}
	if c.Solver.Tolerance < 0 {
		return invalid("solver tolerance %g is negative", c.Solver.Tolerance)
	}

	d := c.Dielectric
	if d.Frequency <= 0 || d.MeshSize <= 0 {
		return invalid("dielectric frequency and mesh size must be positive")
	}
	if len(d.Spheres) == 0 {
		return invalid("dielectric scenario has no spheres")
	}
	for i, s := range d.Spheres {
		if s.Radius <= 0 || s.EpsilonR <= 0 || s.MuR <= 0 {
			return invalid("sphere %d: radius and material parameters must be positive", i)
		}
		for j := 0; j < i; j++ {
			o := d.Spheres[j]
			dist := math.Sqrt(sq(s.Center[0]-o.Center[0]) + sq(s.Center[1]-o.Center[1]) + sq(s.Center[2]-o.Center[2]))
			if dist <= s.Radius+o.Radius {
				return invalid("spheres %d and %d overlap", j, i)
			}
		}
	}
	p := d.Polarization
	pn := math.Sqrt(sq(p[0]) + sq(p[1]) + sq(p[2]))
	if pn == 0 {
		return invalid("polarization is zero")
	}
	// the incident direction is (cos θ, sin θ, 0)
	if math.Abs(p[0]*math.Cos(d.Theta)+p[1]*math.Sin(d.Theta)) > 1e-8*pn {
		return invalid("polarization %v is not orthogonal to the incident direction", p)
	}
	if d.FarFieldAngles < 0 || d.NearField.Points < 0 || d.NearField.Extent < 0 {
		return invalid("sample counts must not be negative")
	}

	pc := c.Potential
	if pc.Radius <= 0 || pc.Refinement < 0 || pc.Wavenumber <= 0 {
		return invalid("potential scenario needs a positive radius and wavenumber")
	}
	for _, r := range pc.Distances {
		if r <= pc.Radius {
			return invalid("potential distance %g is not outside the sphere", r)
		}
	}

	if _, err := zap.ParseAtomicLevel(c.Logging.Level); err != nil {
		return invalid("log level: %v", err)
	}
	return nil
}

func sq(x float64) float64 { return x * x }

// Options converts the assembly section into library options
func (c *Config) Options() ([]operators.Option, error) {
	prec, err := operators.ParsePrecision(c.Assembly.Precision)
	if err != nil {
		return nil, err
	}
	params := operators.DefaultParameters()
	if c.Assembly.RegularOrder > 0 {
		params.RegularOrder = c.Assembly.RegularOrder
	}
	if c.Assembly.NearFieldOrder > 0 {
		params.NearFieldOrder = c.Assembly.NearFieldOrder
	}
	if c.Assembly.NearFieldRatio > 0 {
		params.NearFieldRatio = c.Assembly.NearFieldRatio
	}
	params.Workers = c.Assembly.Workers
	params.Logger = zap.L()
	return []operators.Option{
		operators.WithAssembler(c.Assembly.Assembler),
		operators.WithPrecision(prec),
		operators.WithParameters(params),
	}, nil
}

// NewSolver builds the configured linear solver. A block Jacobi
// preconditioner needs the assembled matrix and is attached by the caller.
func (c *Config) NewSolver(logger *zap.Logger) linalg.Solver {
	if c.Solver.Kind == "gmres" {
		return &linalg.GMRES{
			Restart:       c.Solver.Restart,
			MaxIterations: c.Solver.MaxIterations,
			Tolerance:     c.Solver.Tolerance,
			Logger:        logger,
		}
	}
	return &linalg.LU{Logger: logger}
}
