package units

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Unit is a named unit with a dimension vector and a multiplicative factor
// to the CGS equivalent. Units are plain values; combining them produces a
// new derived unit whose name records the expression.
type Unit struct {
	Name  string
	Dim   Dimension
	Scale float64 // factor converting one of this unit to CGS
}

// Seconds per year and related constants used by the registry.
const (
	cmPerMeter    = 100.0
	cmPerKm       = 1e5
	cmPerParsec   = 3.0856775814913673e18
	gPerKg        = 1000.0
	gPerMsun      = 1.98841e33
	secondsPerYr  = 3.1556952e7
	secondsPerGyr = secondsPerYr * 1e9
)

// registry holds the named base units the parser understands.
var registry = map[string]Unit{
	"":              {Name: "", Dim: Dimensionless, Scale: 1},
	"dimensionless": {Name: "", Dim: Dimensionless, Scale: 1},
	"g":             {Name: "g", Dim: DimMass, Scale: 1},
	"kg":            {Name: "kg", Dim: DimMass, Scale: gPerKg},
	"Msun":          {Name: "Msun", Dim: DimMass, Scale: gPerMsun},
	"cm":            {Name: "cm", Dim: DimLength, Scale: 1},
	"m":             {Name: "m", Dim: DimLength, Scale: cmPerMeter},
	"km":            {Name: "km", Dim: DimLength, Scale: cmPerKm},
	"pc":            {Name: "pc", Dim: DimLength, Scale: cmPerParsec},
	"kpc":           {Name: "kpc", Dim: DimLength, Scale: cmPerParsec * 1e3},
	"Mpc":           {Name: "Mpc", Dim: DimLength, Scale: cmPerParsec * 1e6},
	"s":             {Name: "s", Dim: DimTime, Scale: 1},
	"yr":            {Name: "yr", Dim: DimTime, Scale: secondsPerYr},
	"Myr":           {Name: "Myr", Dim: DimTime, Scale: secondsPerYr * 1e6},
	"Gyr":           {Name: "Gyr", Dim: DimTime, Scale: secondsPerGyr},
	"K":             {Name: "K", Dim: DimTemperature, Scale: 1},
}

// Parse resolves a unit expression such as "g/cm**3", "km/s" or "Msun".
// The grammar is a product of named units separated by "*", with at most
// one "/" splitting numerator and denominator, and optional integer
// exponents written "unit**n".
func Parse(expr string) (Unit, error) {
	expr = strings.TrimSpace(expr)
	if u, ok := registry[expr]; ok {
		return u, nil
	}

	num := expr
	den := ""
	if i := strings.Index(expr, "/"); i >= 0 {
		num, den = expr[:i], expr[i+1:]
		if strings.Contains(den, "/") {
			return Unit{}, fmt.Errorf("units: parse %q: more than one '/'", expr)
		}
	}

	out := Unit{Name: expr, Dim: Dimensionless, Scale: 1}
	apply := func(tok string, sign int) error {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			return nil
		}
		name, pow := tok, 1
		if i := strings.Index(tok, "**"); i >= 0 {
			name = tok[:i]
			p, err := strconv.Atoi(tok[i+2:])
			if err != nil {
				return fmt.Errorf("units: parse %q: bad exponent in %q", expr, tok)
			}
			pow = p
		}
		base, ok := registry[strings.TrimSpace(name)]
		if !ok {
			return fmt.Errorf("units: parse %q: unknown unit %q", expr, name)
		}
		pow *= sign
		out.Dim = out.Dim.Mul(base.Dim.Pow(pow))
		out.Scale *= math.Pow(base.Scale, float64(pow))
		return nil
	}

	// The split on "*" would re-split "cm**3"; protect exponents first.
	num = strings.ReplaceAll(num, "**", "^^")
	den = strings.ReplaceAll(den, "**", "^^")
	restore := func(s string) string { return strings.ReplaceAll(s, "^^", "**") }

	for _, tok := range strings.Split(num, "*") {
		if err := apply(restore(tok), 1); err != nil {
			return Unit{}, err
		}
	}
	if den != "" {
		for _, tok := range strings.Split(den, "*") {
			if err := apply(restore(tok), -1); err != nil {
				return Unit{}, err
			}
		}
	}
	return out, nil
}

// MustParse is Parse that panics on error, for static unit literals.
func MustParse(expr string) Unit {
	u, err := Parse(expr)
	if err != nil {
		panic(err)
	}
	return u
}

// Mul returns the product unit.
func (u Unit) Mul(o Unit) Unit {
	return Unit{
		Name:  joinNames(u.Name, o.Name, "*"),
		Dim:   u.Dim.Mul(o.Dim),
		Scale: u.Scale * o.Scale,
	}
}

// Div returns the quotient unit.
func (u Unit) Div(o Unit) Unit {
	return Unit{
		Name:  joinNames(u.Name, o.Name, "/"),
		Dim:   u.Dim.Div(o.Dim),
		Scale: u.Scale / o.Scale,
	}
}

// Pow returns the unit raised to an integer power.
func (u Unit) Pow(n int) Unit {
	name := u.Name
	if name != "" {
		name = fmt.Sprintf("(%s)**%d", name, n)
	}
	return Unit{Name: name, Dim: u.Dim.Pow(n), Scale: math.Pow(u.Scale, float64(n))}
}

// SameDimension reports whether two units can be converted into each other.
func (u Unit) SameDimension(o Unit) bool {
	return u.Dim == o.Dim
}

// IsDimensionless reports whether the unit carries no dimension.
func (u Unit) IsDimensionless() bool {
	return u.Dim.IsDimensionless()
}

func (u Unit) String() string {
	if u.Name == "" {
		return "dimensionless"
	}
	return u.Name
}

func joinNames(a, b, op string) string {
	switch {
	case a == "" && b == "":
		return ""
	case b == "":
		return a
	case a == "":
		if op == "/" {
			return "1/" + b
		}
		return b
	default:
		return a + op + b
	}
}
