package icgen

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/comova/comova/internal/cosmo"
	"github.com/comova/comova/internal/cosmoarray"
	"github.com/comova/comova/internal/snapshot"
)

// Relaxation constants. The step damps the per-iteration displacement so
// the loop converges instead of oscillating between over- and
// under-corrected states.
const (
	relaxStep    = 0.5
	smoothingEta = 1.2348
)

// Config describes one generation run. Lengths are comoving Mpc, masses
// Msun, internal energies km**2/s**2.
type Config struct {
	BoxSize     float64
	NDim        int // occupied lattice axes, 1 to 3
	NPartSide   int // particles per occupied axis
	ScaleFactor float64
	Profile     Profile
	Seed        int64

	// Perturbation displaces lattice positions by up to this fraction of
	// the interparticle spacing. Zero leaves the lattice exact.
	Perturbation float64

	// TotalMass is distributed across the particles following the
	// profile.
	TotalMass float64

	// InternalEnergy is the uniform specific internal energy assigned to
	// gas particles.
	InternalEnergy float64

	// MaxIterations bounds the relaxation loop; Tolerance is the RMS
	// relative density error at which it stops early.
	MaxIterations int
	Tolerance     float64
}

// IterationStats records one relaxation pass.
type IterationStats struct {
	Iteration    int
	MaxShift     float64 // largest displacement, in units of the spacing
	DensityError float64 // RMS distance from equilibrium, in units of the spacing
}

// Output is a finished generation: tagged arrays ready for a snapshot
// dataset, plus the relaxation trace.
type Output struct {
	Coordinates      *cosmoarray.Array
	Velocities       *cosmoarray.Array
	Masses           *cosmoarray.Array
	SmoothingLengths *cosmoarray.Array
	InternalEnergies *cosmoarray.Array
	Stats            []IterationStats
}

// Generator produces particle initial conditions from a validated Config.
type Generator struct {
	cfg     Config
	nPart   int
	spacing float64
}

// New validates the configuration and returns a ready generator.
func New(cfg Config) (*Generator, error) {
	if cfg.BoxSize <= 0 {
		return nil, fmt.Errorf("icgen: box size must be positive, got %g", cfg.BoxSize)
	}
	if cfg.NDim < 1 || cfg.NDim > 3 {
		return nil, fmt.Errorf("icgen: dimensionality %d outside [1, 3]", cfg.NDim)
	}
	if cfg.NPartSide < 1 {
		return nil, fmt.Errorf("icgen: particles per side must be positive, got %d", cfg.NPartSide)
	}
	if cfg.ScaleFactor <= 0 || cfg.ScaleFactor > 1 {
		return nil, fmt.Errorf("icgen: scale factor %g outside (0, 1]", cfg.ScaleFactor)
	}
	if cfg.Perturbation < 0 || cfg.Perturbation >= 0.5 {
		return nil, fmt.Errorf("icgen: perturbation %g outside [0, 0.5)", cfg.Perturbation)
	}
	if cfg.TotalMass <= 0 {
		return nil, fmt.Errorf("icgen: total mass must be positive, got %g", cfg.TotalMass)
	}
	if err := cfg.Profile.validate(); err != nil {
		return nil, err
	}
	nPart := 1
	for i := 0; i < cfg.NDim; i++ {
		nPart *= cfg.NPartSide
	}
	return &Generator{
		cfg:     cfg,
		nPart:   nPart,
		spacing: cfg.BoxSize / float64(cfg.NPartSide),
	}, nil
}

// NPart returns the total particle count.
func (g *Generator) NPart() int { return g.nPart }

// Spacing returns the mean interparticle spacing along an occupied axis.
func (g *Generator) Spacing() float64 { return g.spacing }

// lattice places particles at cell centers of a uniform grid. Unoccupied
// axes sit at the box midplane.
func (g *Generator) lattice() [][3]float64 {
	coords := make([][3]float64, g.nPart)
	mid := g.cfg.BoxSize / 2
	for i := range coords {
		coords[i] = [3]float64{mid, mid, mid}
		idx := i
		for ax := 0; ax < g.cfg.NDim; ax++ {
			coords[i][ax] = (float64(idx%g.cfg.NPartSide) + 0.5) * g.spacing
			idx /= g.cfg.NPartSide
		}
	}
	return coords
}

// perturb displaces each occupied coordinate by a seeded uniform offset,
// wrapping periodically. The same seed always yields the same positions.
func (g *Generator) perturb(coords [][3]float64) {
	if g.cfg.Perturbation == 0 {
		return
	}
	rng := rand.New(rand.NewSource(g.cfg.Seed))
	amp := g.cfg.Perturbation * g.spacing
	for i := range coords {
		for ax := 0; ax < g.cfg.NDim; ax++ {
			coords[i][ax] = g.wrap(coords[i][ax] + amp*(2*rng.Float64()-1))
		}
	}
}

func (g *Generator) wrap(x float64) float64 {
	x = math.Mod(x, g.cfg.BoxSize)
	if x < 0 {
		x += g.cfg.BoxSize
	}
	return x
}

// relax moves particles along x toward the target profile by rank
// matching: particles are sorted by position and each rank is pulled a
// damped step toward the profile's inverse CDF at that rank's quantile.
// The loop is bounded by MaxIterations and stops early once the RMS
// displacement error drops below Tolerance.
func (g *Generator) relax(coords [][3]float64) []IterationStats {
	if g.cfg.MaxIterations == 0 || g.cfg.Profile.Kind == ProfileUniform {
		return nil
	}

	targets := g.quantilePositions()
	order := make([]int, len(coords))
	for i := range order {
		order[i] = i
	}

	var stats []IterationStats
	for it := 1; it <= g.cfg.MaxIterations; it++ {
		sort.Slice(order, func(a, b int) bool {
			return coords[order[a]][0] < coords[order[b]][0]
		})

		var sumSq, maxShift float64
		for rank, i := range order {
			dx := targets[rank] - coords[i][0]
			sumSq += dx * dx
			shift := relaxStep * dx
			if s := math.Abs(shift) / g.spacing; s > maxShift {
				maxShift = s
			}
			coords[i][0] += shift
		}
		rms := math.Sqrt(sumSq/float64(len(coords))) / g.spacing

		stats = append(stats, IterationStats{
			Iteration:    it,
			MaxShift:     maxShift,
			DensityError: rms,
		})
		if rms < g.cfg.Tolerance {
			break
		}
	}
	return stats
}

// quantilePositions inverts the profile's CDF on a fine grid, yielding the
// equilibrium x position for each particle rank.
func (g *Generator) quantilePositions() []float64 {
	const nGrid = 4096
	dx := g.cfg.BoxSize / nGrid

	cdf := make([]float64, nGrid+1)
	for i := 1; i <= nGrid; i++ {
		x := (float64(i) - 0.5) * dx
		cdf[i] = cdf[i-1] + g.cfg.Profile.Density(x, g.cfg.BoxSize)*dx
	}
	total := cdf[nGrid]

	targets := make([]float64, g.nPart)
	grid := 1
	for rank := range targets {
		q := (float64(rank) + 0.5) / float64(g.nPart) * total
		for grid <= nGrid && cdf[grid] < q {
			grid++
		}
		lo, hi := cdf[grid-1], cdf[grid]
		frac := (q - lo) / (hi - lo)
		targets[rank] = (float64(grid-1) + frac) * dx
	}
	return targets
}

// masses distributes TotalMass following the profile weight at each
// particle's x position.
func (g *Generator) masses(coords [][3]float64) []float64 {
	weights := make([]float64, len(coords))
	var sum float64
	for i := range coords {
		weights[i] = g.cfg.Profile.Density(coords[i][0], g.cfg.BoxSize)
		sum += weights[i]
	}
	for i := range weights {
		weights[i] *= g.cfg.TotalMass / sum
	}
	return weights
}

// Generate runs the full pipeline and assembles tagged arrays. Positions
// carry an a**1 exponent in the comoving frame; masses carry a**0; the
// remaining fields are exempt from cosmological scaling.
func (g *Generator) Generate() (*Output, error) {
	coords := g.lattice()
	g.perturb(coords)
	stats := g.relax(coords)

	lengthFactor := cosmo.NewFactor(cosmo.Exp(1), g.cfg.ScaleFactor)
	massFactor := cosmo.NewFactor(cosmo.Exp(0), g.cfg.ScaleFactor)

	coordArr, err := cosmoarray.NewVectors(coords, "Mpc", cosmoarray.WithFactor(lengthFactor))
	if err != nil {
		return nil, err
	}
	velArr, err := cosmoarray.NewVectors(make([][3]float64, g.nPart), "km/s")
	if err != nil {
		return nil, err
	}
	massArr, err := cosmoarray.New(g.masses(coords), "Msun", cosmoarray.WithFactor(massFactor))
	if err != nil {
		return nil, err
	}

	h := make([]float64, g.nPart)
	for i := range h {
		h[i] = smoothingEta * g.spacing
	}
	hArr, err := cosmoarray.New(h, "Mpc", cosmoarray.WithFactor(lengthFactor))
	if err != nil {
		return nil, err
	}

	u := make([]float64, g.nPart)
	for i := range u {
		u[i] = g.cfg.InternalEnergy
	}
	uArr, err := cosmoarray.New(u, "km**2/s**2")
	if err != nil {
		return nil, err
	}

	return &Output{
		Coordinates:      coordArr,
		Velocities:       velArr,
		Masses:           massArr,
		SmoothingLengths: hArr,
		InternalEnergies: uArr,
		Stats:            stats,
	}, nil
}

// Apply fills a snapshot dataset with the generated fields. Gas-only
// fields are skipped for other kinds.
func (o *Output) Apply(d *snapshot.Dataset) error {
	if err := d.SetCoordinates(o.Coordinates); err != nil {
		return err
	}
	if err := d.SetVelocities(o.Velocities); err != nil {
		return err
	}
	if err := d.SetMasses(o.Masses); err != nil {
		return err
	}
	if d.Kind() != snapshot.Gas {
		return nil
	}
	if err := d.SetSmoothingLength(o.SmoothingLengths); err != nil {
		return err
	}
	return d.SetInternalEnergy(o.InternalEnergies)
}
