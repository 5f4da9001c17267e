package cosmo

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"math"
)

// Factor ties a scale-factor exponent to the numeric scale factor the
// quantity was tagged at. It is the conversion from comoving to physical:
// physical = AFactor() * comoving. Factors are immutable; every
// combination returns a new value.
type Factor struct {
	exponent    Exponent
	scaleFactor float64
}

// NewFactor builds a factor for a quantity scaling as a^exponent at the
// given scale factor, e.g. NewFactor(cosmo.Exp(-3), 0.97) for a density.
func NewFactor(exponent Exponent, scaleFactor float64) Factor {
	return Factor{exponent: exponent, scaleFactor: scaleFactor}
}

// Exponent returns the scale-factor exponent.
func (f Factor) Exponent() Exponent { return f.exponent }

// ScaleFactor returns the numeric scale factor a the quantity was tagged at.
func (f Factor) ScaleFactor() float64 { return f.scaleFactor }

// AFactor evaluates a^exponent at the stored scale factor. For a density
// tagged a^-3 at a=0.5 this is 8.
func (f Factor) AFactor() float64 {
	return math.Pow(f.scaleFactor, f.exponent.Float())
}

// Redshift returns z = 1/a - 1 for the stored scale factor.
func (f Factor) Redshift() float64 {
	return 1.0/f.scaleFactor - 1.0
}

func (f Factor) String() string {
	return fmt.Sprintf("%s at a=%g", f.exponent, f.scaleFactor)
}

// ScaleMismatchError reports an attempt to additively combine two factors
// with different scale factors or different exponents. It carries both
// operands for diagnostics and is always fatal to the operation.
type ScaleMismatchError struct {
	Op   string
	A, B Factor
}

func (e *ScaleMismatchError) Error() string {
	if e.A.scaleFactor != e.B.scaleFactor {
		return fmt.Sprintf("cosmo: %s: mismatched scale factors %g and %g",
			e.Op, e.A.scaleFactor, e.B.scaleFactor)
	}
	return fmt.Sprintf("cosmo: %s: mismatched scale factor dependence %s and %s",
		e.Op, e.A.exponent, e.B.exponent)
}

// CombineAdditive combines two factors under addition or subtraction.
// Both the scale factor and the exponent must match exactly; the result
// carries them through unchanged.
func (f Factor) CombineAdditive(o Factor) (Factor, error) {
	if f.scaleFactor != o.scaleFactor {
		return Factor{}, &ScaleMismatchError{Op: "add", A: f, B: o}
	}
	if f.exponent != o.exponent {
		return Factor{}, &ScaleMismatchError{Op: "add", A: f, B: o}
	}
	return Factor{exponent: f.exponent, scaleFactor: f.scaleFactor}, nil
}

// CombineMultiplicative combines two factors under multiplication: the
// scale factors must match and the exponents add.
func (f Factor) CombineMultiplicative(o Factor) (Factor, error) {
	if f.scaleFactor != o.scaleFactor {
		return Factor{}, &ScaleMismatchError{Op: "multiply", A: f, B: o}
	}
	return Factor{exponent: f.exponent.Add(o.exponent), scaleFactor: f.scaleFactor}, nil
}

// CombineDivide combines two factors under division: the scale factors
// must match and the exponents subtract.
func (f Factor) CombineDivide(o Factor) (Factor, error) {
	if f.scaleFactor != o.scaleFactor {
		return Factor{}, &ScaleMismatchError{Op: "divide", A: f, B: o}
	}
	return Factor{exponent: f.exponent.Sub(o.exponent), scaleFactor: f.scaleFactor}, nil
}

// RaiseToPower raises the factor to a rational power: the exponent scales,
// the scale factor is unchanged.
func (f Factor) RaiseToPower(p Exponent) Factor {
	return Factor{exponent: f.exponent.MulRat(p), scaleFactor: f.scaleFactor}
}

// Invert returns the factor of the reciprocal quantity.
func (f Factor) Invert() Factor {
	return Factor{exponent: f.exponent.Neg(), scaleFactor: f.scaleFactor}
}

// Compare orders two factors by their numeric conversion value, not by
// their exponents symbolically. It returns -1, 0, or 1.
func (f Factor) Compare(o Factor) int {
	fa, oa := f.AFactor(), o.AFactor()
	switch {
	case fa < oa:
		return -1
	case fa > oa:
		return 1
	default:
		return 0
	}
}

// Equal reports whether two factors carry the same exponent and scale
// factor. This is stricter than Compare == 0, which only inspects the
// numeric conversion value.
func (f Factor) Equal(o Factor) bool {
	return f.exponent == o.exponent && f.scaleFactor == o.scaleFactor
}

// factorState is the gob wire form of a Factor.
type factorState struct {
	Num, Den    int64
	ScaleFactor float64
}

// GobEncode implements gob.GobEncoder.
func (f Factor) GobEncode() ([]byte, error) {
	var buf bytes.Buffer
	st := factorState{Num: f.exponent.num, Den: f.exponent.den, ScaleFactor: f.scaleFactor}
	if err := gob.NewEncoder(&buf).Encode(st); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// GobDecode implements gob.GobDecoder.
func (f *Factor) GobDecode(data []byte) error {
	var st factorState
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&st); err != nil {
		return err
	}
	f.exponent = Exponent{num: st.Num, den: st.Den}.normalize()
	f.scaleFactor = st.ScaleFactor
	return nil
}
