// Package plot computes binned statistics over tagged arrays and renders
// them as terminal charts for quick diagnostics after generation or while
// inspecting a snapshot.
package plot

import (
	"fmt"
	"math"

	"github.com/comova/comova/internal/cosmoarray"
)

// Axis selects which coordinate component statistics are binned along.
type Axis int

const (
	AxisX Axis = iota
	AxisY
	AxisZ
)

func (a Axis) String() string {
	switch a {
	case AxisX:
		return "x"
	case AxisY:
		return "y"
	case AxisZ:
		return "z"
	default:
		return "?"
	}
}

// Bin is one entry of a binned statistic: the bin's center position, the
// sample count, and the mean and standard deviation of the binned values.
type Bin struct {
	Center float64
	Count  int
	Mean   float64
	Std    float64
}

// Profile is a binned statistic of one quantity against one coordinate
// axis, with the units both sides were measured in.
type Profile struct {
	Axis      Axis
	AxisUnit  string
	ValueUnit string
	Bins      []Bin
}

// BinnedStatistic bins values against the chosen component of coords over
// [0, span) and returns per-bin mean and scatter. Coordinates must be an
// (n, 3) array matching the values' leading axis.
func BinnedStatistic(coords, values *cosmoarray.Array, axis Axis, span float64, nBins int) (*Profile, error) {
	if coords == nil || values == nil {
		return nil, fmt.Errorf("%w: nil operand", cosmoarray.ErrInvalidConstruction)
	}
	if nBins < 1 {
		return nil, fmt.Errorf("plot: bin count must be positive, got %d", nBins)
	}
	if span <= 0 {
		return nil, fmt.Errorf("plot: span must be positive, got %g", span)
	}
	shape := coords.Shape()
	if len(shape) != 2 || shape[1] != 3 {
		return nil, fmt.Errorf("plot: coordinates must be (n, 3), got %v", shape)
	}
	if values.Rows() != shape[0] {
		return nil, fmt.Errorf("plot: %d values against %d coordinates", values.Rows(), shape[0])
	}

	cvals := coords.Values()
	vvals := values.Values()
	width := span / float64(nBins)

	sums := make([]float64, nBins)
	sumSqs := make([]float64, nBins)
	counts := make([]int, nBins)
	for i := 0; i < shape[0]; i++ {
		x := cvals[i*3+int(axis)]
		b := int(x / width)
		if b < 0 || b >= nBins {
			continue
		}
		v := vvals[i]
		sums[b] += v
		sumSqs[b] += v * v
		counts[b]++
	}

	p := &Profile{
		Axis:      axis,
		AxisUnit:  coords.Unit().String(),
		ValueUnit: values.Unit().String(),
		Bins:      make([]Bin, nBins),
	}
	for b := range p.Bins {
		bin := Bin{Center: (float64(b) + 0.5) * width, Count: counts[b]}
		if counts[b] > 0 {
			n := float64(counts[b])
			bin.Mean = sums[b] / n
			variance := sumSqs[b]/n - bin.Mean*bin.Mean
			if variance > 0 {
				bin.Std = math.Sqrt(variance)
			}
		}
		p.Bins[b] = bin
	}
	return p, nil
}

// DensityProfile bins particle masses along an axis and divides each bin's
// total by its slab volume, yielding a 1-D density run.
func DensityProfile(coords, masses *cosmoarray.Array, axis Axis, span float64, nBins int) (*Profile, error) {
	p, err := BinnedStatistic(coords, masses, axis, span, nBins)
	if err != nil {
		return nil, err
	}
	// Slab volume: bin width along the axis times the full cross section.
	volume := span / float64(nBins) * span * span
	for b := range p.Bins {
		n := float64(p.Bins[b].Count)
		p.Bins[b].Mean = p.Bins[b].Mean * n / volume
		p.Bins[b].Std = p.Bins[b].Std * n / volume
	}
	p.ValueUnit = p.ValueUnit + "/" + p.AxisUnit + "**3"
	return p, nil
}

// MaxMean returns the largest bin mean, for chart scaling.
func (p *Profile) MaxMean() float64 {
	var max float64
	for _, b := range p.Bins {
		if b.Mean > max {
			max = b.Mean
		}
	}
	return max
}
