// Package params defines the TOML run-parameter file driving generation:
// box geometry, particle counts, the target density profile, relaxation
// bounds, and output settings.
package params

import (
	"fmt"
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/comova/comova/internal/icgen"
	"github.com/comova/comova/internal/units"
)

// DefaultPath is the conventional location for the run-parameter file.
const DefaultPath = "comova.toml"

// Run names the run and its output location.
type Run struct {
	Name      string `toml:"name"`
	OutputDir string `toml:"output_dir"`
}

// Box is the simulation volume.
type Box struct {
	Size        float64 `toml:"size_mpc"`
	ScaleFactor float64 `toml:"scale_factor"`
}

// Particles configures lattice placement and mass assignment.
type Particles struct {
	NDim           int     `toml:"n_dim"`
	NPartSide      int     `toml:"n_part_side"`
	Profile        string  `toml:"profile"`
	Perturbation   float64 `toml:"perturbation"`
	TotalMass      float64 `toml:"total_mass_msun"`
	InternalEnergy float64 `toml:"internal_energy"`
	Seed           int64   `toml:"seed"`
}

// Relax bounds the relaxation loop.
type Relax struct {
	MaxIterations int     `toml:"max_iterations"`
	Tolerance     float64 `toml:"tolerance"`
}

// Output selects the container's unit system and compression label.
type Output struct {
	System      string `toml:"system"`
	Compression string `toml:"compression"`
}

// Params is one run-parameter file.
type Params struct {
	Run       Run       `toml:"run"`
	Box       Box       `toml:"box"`
	Particles Particles `toml:"particles"`
	Relax     Relax     `toml:"relax"`
	Output    Output    `toml:"output"`
}

// Defaults returns a runnable parameter set: a unit box at z=1 with a
// 32**3 uniform lattice in the cosmological unit system.
func Defaults() *Params {
	return &Params{
		Run: Run{Name: "run", OutputDir: "."},
		Box: Box{Size: 1.0, ScaleFactor: 0.5},
		Particles: Particles{
			NDim:           3,
			NPartSide:      32,
			Profile:        "uniform",
			Perturbation:   0.1,
			TotalMass:      1e10,
			InternalEnergy: 100,
		},
		Relax:  Relax{MaxIterations: 20, Tolerance: 1e-3},
		Output: Output{System: "cosmo"},
	}
}

// Load reads a parameter file from the given path.
func Load(path string) (*Params, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("params: reading %s: %w", path, err)
	}
	var p Params
	if err := toml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("params: parsing %s: %w", path, err)
	}
	return &p, nil
}

// Save writes the parameter file to the given path, creating parent
// directories as needed.
func Save(path string, p *Params) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("params: creating directory %s: %w", dir, err)
	}
	data, err := toml.Marshal(p)
	if err != nil {
		return fmt.Errorf("params: marshaling: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("params: writing %s: %w", path, err)
	}
	return nil
}

// Validate checks the parameter set without running it: the unit system
// and profile must resolve, and the generator configuration must pass its
// own validation.
func (p *Params) Validate() error {
	if p.Run.Name == "" {
		return fmt.Errorf("params: run.name is required")
	}
	if _, err := units.SystemByName(p.Output.System); err != nil {
		return err
	}
	if _, err := p.GeneratorConfig(); err != nil {
		return err
	}
	return nil
}

// GeneratorConfig translates the particle and relaxation sections into a
// generator configuration.
func (p *Params) GeneratorConfig() (icgen.Config, error) {
	profile, err := icgen.ProfileByName(p.Particles.Profile)
	if err != nil {
		return icgen.Config{}, err
	}
	cfg := icgen.Config{
		BoxSize:        p.Box.Size,
		NDim:           p.Particles.NDim,
		NPartSide:      p.Particles.NPartSide,
		ScaleFactor:    p.Box.ScaleFactor,
		Profile:        profile,
		Seed:           p.Particles.Seed,
		Perturbation:   p.Particles.Perturbation,
		TotalMass:      p.Particles.TotalMass,
		InternalEnergy: p.Particles.InternalEnergy,
		MaxIterations:  p.Relax.MaxIterations,
		Tolerance:      p.Relax.Tolerance,
	}
	if _, err := icgen.New(cfg); err != nil {
		return icgen.Config{}, err
	}
	return cfg, nil
}

// SnapshotPath returns the container path for this run.
func (p *Params) SnapshotPath() string {
	return filepath.Join(p.Run.OutputDir, p.Run.Name+".snap")
}
