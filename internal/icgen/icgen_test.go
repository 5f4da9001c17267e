package icgen

import (
	"math"
	"testing"

	"github.com/comova/comova/internal/snapshot"
	"github.com/comova/comova/internal/units"
)

func baseConfig() Config {
	return Config{
		BoxSize:        1.0,
		NDim:           1,
		NPartSide:      64,
		ScaleFactor:    0.5,
		Profile:        Profile{Kind: ProfileUniform},
		TotalMass:      1e10,
		InternalEnergy: 100,
	}
}

func TestConfigValidation(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero box", func(c *Config) { c.BoxSize = 0 }},
		{"bad ndim", func(c *Config) { c.NDim = 4 }},
		{"zero side", func(c *Config) { c.NPartSide = 0 }},
		{"future scale factor", func(c *Config) { c.ScaleFactor = 1.5 }},
		{"huge perturbation", func(c *Config) { c.Perturbation = 0.5 }},
		{"no mass", func(c *Config) { c.TotalMass = 0 }},
		{"overdriven sine", func(c *Config) {
			c.Profile = Profile{Kind: ProfileSine, Amplitude: 1.5}
		}},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			cfg := baseConfig()
			tc.mutate(&cfg)
			if _, err := New(cfg); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestLatticeIsUniform(t *testing.T) {
	t.Parallel()
	cfg := baseConfig()
	cfg.NDim = 3
	cfg.NPartSide = 4
	g, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if g.NPart() != 64 {
		t.Fatalf("NPart = %d, want 64", g.NPart())
	}

	out, err := g.Generate()
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	vals := out.Coordinates.Values()
	for i := 0; i < len(vals); i++ {
		if vals[i] < 0 || vals[i] > cfg.BoxSize {
			t.Fatalf("coordinate %v outside box", vals[i])
		}
	}
	// First lattice point sits half a spacing from the origin.
	if got, want := vals[0], g.Spacing()/2; math.Abs(got-want) > 1e-12 {
		t.Errorf("first coordinate = %v, want %v", got, want)
	}
}

func TestPerturbationIsSeeded(t *testing.T) {
	t.Parallel()
	cfg := baseConfig()
	cfg.Perturbation = 0.2
	cfg.Seed = 42

	gen := func() []float64 {
		g, err := New(cfg)
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		out, err := g.Generate()
		if err != nil {
			t.Fatalf("Generate: %v", err)
		}
		return out.Coordinates.Values()
	}

	a, b := gen(), gen()
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("same seed diverged at %d: %v vs %v", i, a[i], b[i])
		}
	}

	cfg.Seed = 43
	c := gen()
	same := true
	for i := range a {
		if a[i] != c[i] {
			same = false
			break
		}
	}
	if same {
		t.Error("different seeds produced identical positions")
	}
}

func TestMassesFollowProfile(t *testing.T) {
	t.Parallel()
	cfg := baseConfig()
	cfg.Profile = Profile{Kind: ProfileSine, Amplitude: 0.5}
	g, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	out, err := g.Generate()
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	masses := out.Masses.Values()
	var sum, min, max float64
	min = math.Inf(1)
	for _, m := range masses {
		sum += m
		min = math.Min(min, m)
		max = math.Max(max, m)
	}
	if math.Abs(sum-cfg.TotalMass)/cfg.TotalMass > 1e-10 {
		t.Errorf("total mass = %v, want %v", sum, cfg.TotalMass)
	}
	if max/min < 2 {
		t.Errorf("sine profile barely modulates masses: min %v max %v", min, max)
	}
}

func TestRelaxationConverges(t *testing.T) {
	t.Parallel()
	cfg := baseConfig()
	cfg.NPartSide = 256
	cfg.Profile = Profile{Kind: ProfileGaussian, Amplitude: 0.5, Width: 0.1}
	cfg.MaxIterations = 20
	cfg.Tolerance = 1e-3
	g, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	out, err := g.Generate()
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if len(out.Stats) == 0 {
		t.Fatal("relaxation produced no iterations")
	}
	if len(out.Stats) > cfg.MaxIterations {
		t.Fatalf("ran %d iterations, bound is %d", len(out.Stats), cfg.MaxIterations)
	}
	first, last := out.Stats[0], out.Stats[len(out.Stats)-1]
	if last.DensityError >= first.DensityError {
		t.Errorf("density error did not improve: %v -> %v",
			first.DensityError, last.DensityError)
	}
	for i, s := range out.Stats {
		if s.Iteration != i+1 {
			t.Errorf("stats[%d].Iteration = %d", i, s.Iteration)
		}
	}
}

func TestUniformProfileSkipsRelaxation(t *testing.T) {
	t.Parallel()
	cfg := baseConfig()
	cfg.MaxIterations = 10
	g, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	out, err := g.Generate()
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(out.Stats) != 0 {
		t.Errorf("uniform profile relaxed %d times", len(out.Stats))
	}
}

func TestOutputTags(t *testing.T) {
	t.Parallel()
	g, err := New(baseConfig())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	out, err := g.Generate()
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	coords := out.Coordinates
	if !coords.Comoving() {
		t.Error("coordinates are not comoving")
	}
	f := coords.Factor()
	if f == nil {
		t.Fatal("coordinates carry no factor")
	}
	if f.AFactor() != 0.5 {
		t.Errorf("coordinate a-factor = %v, want 0.5", f.AFactor())
	}
	if mf := out.Masses.Factor(); mf == nil || mf.AFactor() != 1 {
		t.Error("masses should carry an a**0 factor")
	}
	if out.Velocities.Factor() != nil {
		t.Error("velocities should be exempt from scaling")
	}
}

func TestApplyFillsDataset(t *testing.T) {
	t.Parallel()
	g, err := New(baseConfig())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	out, err := g.Generate()
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	gas := snapshot.NewDataset(units.Cosmo(), snapshot.Gas)
	if err := out.Apply(gas); err != nil {
		t.Fatalf("Apply gas: %v", err)
	}
	if err := gas.CheckConsistent(); err != nil {
		t.Fatalf("CheckConsistent: %v", err)
	}
	if gas.NPart() != g.NPart() {
		t.Errorf("NPart = %d, want %d", gas.NPart(), g.NPart())
	}

	dm := snapshot.NewDataset(units.Cosmo(), snapshot.DarkMatter)
	if err := out.Apply(dm); err != nil {
		t.Fatalf("Apply dark matter: %v", err)
	}
	if dm.SmoothingLength() != nil {
		t.Error("dark matter picked up a gas-only field")
	}
}
