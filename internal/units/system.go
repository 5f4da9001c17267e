package units

import (
	"fmt"
	"math"
)

// System is a set of base units, one per dimension, that quantities can be
// normalized into before writing to file.
type System struct {
	Name        string
	Mass        Unit
	Length      Unit
	Time        Unit
	Temperature Unit
}

// CGS is the centimetre-gram-second system. All registry scales are
// expressed relative to it, so its conversion factors are 1.
func CGS() System {
	return System{
		Name:        "cgs",
		Mass:        registry["g"],
		Length:      registry["cm"],
		Time:        registry["s"],
		Temperature: registry["K"],
	}
}

// Cosmo is the unit system conventionally used for cosmological snapshots:
// megaparsecs, 10^10 solar masses, gigayears.
func Cosmo() System {
	msun := registry["Msun"]
	return System{
		Name:        "cosmo",
		Mass:        Unit{Name: "1e10*Msun", Dim: DimMass, Scale: msun.Scale * 1e10},
		Length:      registry["Mpc"],
		Time:        registry["Gyr"],
		Temperature: registry["K"],
	}
}

// SystemByName resolves a system named in a parameter file.
func SystemByName(name string) (System, error) {
	switch name {
	case "cgs":
		return CGS(), nil
	case "cosmo", "":
		return Cosmo(), nil
	default:
		return System{}, fmt.Errorf("units: unknown unit system %q", name)
	}
}

// Base returns the system's unit for an arbitrary dimension vector, built
// as the product of the base units raised to the dimension's powers.
func (s System) Base(d Dimension) Unit {
	scale := math.Pow(s.Mass.Scale, float64(d.Mass)) *
		math.Pow(s.Length.Scale, float64(d.Length)) *
		math.Pow(s.Time.Scale, float64(d.Time)) *
		math.Pow(s.Temperature.Scale, float64(d.Temperature))
	name := ""
	for _, p := range []struct {
		u   Unit
		pow int
	}{
		{s.Mass, d.Mass}, {s.Length, d.Length}, {s.Time, d.Time}, {s.Temperature, d.Temperature},
	} {
		switch {
		case p.pow == 0:
		case p.pow == 1:
			name = joinNames(name, p.u.Name, "*")
		default:
			name = joinNames(name, fmt.Sprintf("%s**%d", p.u.Name, p.pow), "*")
		}
	}
	return Unit{Name: name, Dim: d, Scale: scale}
}

// CGSFactor returns the conversion factor from the system's base unit for
// the given dimension to CGS. These are the values written into a
// snapshot's units group.
func (s System) CGSFactor(d Dimension) float64 {
	return s.Base(d).Scale
}
