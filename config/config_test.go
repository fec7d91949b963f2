package config

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/notargets/BEMKernel/linalg"
	"github.com/notargets/BEMKernel/operators"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Len(t, cfg.Dielectric.Spheres, 2)
	assert.Equal(t, 300e6, cfg.Dielectric.Frequency)
	assert.InDelta(t, math.Pi/4, cfg.Dielectric.Theta, 1e-15)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	missing, err := Load(filepath.Join(dir, "missing.yaml"))
	require.NoError(t, err)
	if diff := cmp.Diff(DefaultConfig(), missing); diff != "" {
		t.Errorf("missing file should give defaults (-want +got):\n%s", diff)
	}

	path := filepath.Join(dir, "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
assembly:
  precision: single
  workers: 2
solver:
  kind: gmres
  tolerance: 1.0e-10
dielectric:
  frequency: 1.5e8
  spheres:
    - radius: 0.5
      center: [0, 0, 0]
      epsilon_r: 4
      mu_r: 1
`), 0644))
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "single", cfg.Assembly.Precision)
	assert.Equal(t, 2, cfg.Assembly.Workers)
	assert.Equal(t, operators.DefaultAssembler, cfg.Assembly.Assembler, "unset fields keep defaults")
	assert.Equal(t, "gmres", cfg.Solver.Kind)
	assert.Equal(t, 1.5e8, cfg.Dielectric.Frequency)
	require.Len(t, cfg.Dielectric.Spheres, 1)
	assert.Equal(t, 4., cfg.Dielectric.Spheres[0].EpsilonR)

	solver := cfg.NewSolver(nil)
	g, ok := solver.(*linalg.GMRES)
	require.True(t, ok)
	assert.Equal(t, 1e-10, g.Tolerance)

	// a saved configuration loads back unchanged
	saved := filepath.Join(dir, "nested", "saved.yaml")
	require.NoError(t, cfg.Save(saved))
	again, err := Load(saved)
	require.NoError(t, err)
	assert.Empty(t, cmp.Diff(cfg, again))

	require.NoError(t, os.WriteFile(path, []byte("solver: [unclosed"), 0644))
	_, err = Load(path)
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("BEMSCATTER_DEVICE", `{"mode": "Serial"}`)
	t.Setenv("BEMSCATTER_LOG_LEVEL", "debug")
	cfg, err := Load(filepath.Join(t.TempDir(), "none.yaml"))
	require.NoError(t, err)
	assert.Equal(t, `{"mode": "Serial"}`, cfg.Assembly.Device)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"precision", func(c *Config) { c.Assembly.Precision = "half" }},
		{"workers", func(c *Config) { c.Assembly.Workers = -1 }},
		{"solver", func(c *Config) { c.Solver.Kind = "cg" }},
		{"frequency", func(c *Config) { c.Dielectric.Frequency = 0 }},
		{"no spheres", func(c *Config) { c.Dielectric.Spheres = nil }},
		{"overlap", func(c *Config) { c.Dielectric.Spheres[1].Center = [3]float64{-0.5, 0, 0} }},
		{"material", func(c *Config) { c.Dielectric.Spheres[0].EpsilonR = 0 }},
		{"polarization", func(c *Config) { c.Dielectric.Polarization = [3]float64{1, 0, 0} }},
		{"zero polarization", func(c *Config) { c.Dielectric.Polarization = [3]float64{} }},
		{"distance", func(c *Config) { c.Potential.Distances = []float64{0.5} }},
		{"log level", func(c *Config) { c.Logging.Level = "chatty" }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), operators.ErrInvalidConfiguration)
		})
	}
}

func TestOptions(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Assembly.Precision = "single"
	cfg.Assembly.NearFieldOrder = 10
	opts, err := cfg.Options()
	require.NoError(t, err)
	o, err := operators.NewOptions(opts...)
	require.NoError(t, err)
	assert.Equal(t, operators.PrecisionSingle, o.Precision)
	assert.Equal(t, 10, o.Parameters.NearFieldOrder)
	assert.Equal(t, 4, o.Parameters.RegularOrder)

	_, ok := cfg.NewSolver(nil).(*linalg.LU)
	assert.True(t, ok)
}
