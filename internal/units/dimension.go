// Package units implements the unit-quantity layer that tagged arrays are
// built on: a dimension vector over (mass, length, time, temperature),
// named units with CGS conversion factors, unit-expression parsing, unit
// systems, and the Quantity numeric buffer.
//
// The package deliberately covers only what the cosmology layer needs:
// construct a quantity with units, read its values, convert it between
// compatible units or to a system's base units, and fail with
// IncompatibleError when dimensions do not line up.
package units

import (
	"fmt"
	"strings"
)

// Dimension is a vector of integer powers over the four base dimensions.
// Velocity is {Length: 1, Time: -1}, density is {Mass: 1, Length: -3}.
type Dimension struct {
	Mass        int
	Length      int
	Time        int
	Temperature int
}

// Common dimensions used by snapshot fields.
var (
	Dimensionless  = Dimension{}
	DimMass        = Dimension{Mass: 1}
	DimLength      = Dimension{Length: 1}
	DimTime        = Dimension{Time: 1}
	DimTemperature = Dimension{Temperature: 1}
	DimVelocity    = Dimension{Length: 1, Time: -1}
	DimDensity     = Dimension{Mass: 1, Length: -3}
	// DimSpecificEnergy is energy per unit mass (internal energy field).
	DimSpecificEnergy = Dimension{Length: 2, Time: -2}
)

// Mul returns the dimension of a product of two quantities.
func (d Dimension) Mul(o Dimension) Dimension {
	return Dimension{
		Mass:        d.Mass + o.Mass,
		Length:      d.Length + o.Length,
		Time:        d.Time + o.Time,
		Temperature: d.Temperature + o.Temperature,
	}
}

// Div returns the dimension of a quotient of two quantities.
func (d Dimension) Div(o Dimension) Dimension {
	return Dimension{
		Mass:        d.Mass - o.Mass,
		Length:      d.Length - o.Length,
		Time:        d.Time - o.Time,
		Temperature: d.Temperature - o.Temperature,
	}
}

// Pow returns the dimension of a quantity raised to an integer power.
func (d Dimension) Pow(n int) Dimension {
	return Dimension{
		Mass:        d.Mass * n,
		Length:      d.Length * n,
		Time:        d.Time * n,
		Temperature: d.Temperature * n,
	}
}

// IsDimensionless reports whether all powers are zero.
func (d Dimension) IsDimensionless() bool {
	return d == Dimension{}
}

// String renders the dimension as a compact product, e.g. "M*L**-3".
func (d Dimension) String() string {
	if d.IsDimensionless() {
		return "1"
	}
	var parts []string
	for _, p := range []struct {
		sym string
		pow int
	}{
		{"M", d.Mass},
		{"L", d.Length},
		{"T", d.Time},
		{"K", d.Temperature},
	} {
		switch {
		case p.pow == 0:
		case p.pow == 1:
			parts = append(parts, p.sym)
		default:
			parts = append(parts, fmt.Sprintf("%s**%d", p.sym, p.pow))
		}
	}
	return strings.Join(parts, "*")
}

// IncompatibleError reports a dimensional mismatch between two units. It is
// returned unchanged through every layer above this package.
type IncompatibleError struct {
	Op   string
	From Dimension
	To   Dimension
}

func (e *IncompatibleError) Error() string {
	return fmt.Sprintf("units: %s: incompatible dimensions %s and %s", e.Op, e.From, e.To)
}
