// Package cosmo implements the scale-factor exponent algebra: the rules
// for how a quantity's a^n tag combines under addition, multiplication,
// division, and exponentiation, and the numeric conversion factor between
// comoving and physical frames derived from it.
package cosmo

import "fmt"

// Exponent is the rational power n such that a quantity converts from
// comoving to physical by multiplying with a^n. Exponents are normalized
// (positive denominator, reduced by gcd) so equality is plain ==.
type Exponent struct {
	num int64
	den int64
}

// Exp returns the integer exponent n.
func Exp(n int64) Exponent {
	return Exponent{num: n, den: 1}
}

// ExpRat returns the rational exponent num/den. A zero denominator panics;
// exponents are static program values, not user input.
func ExpRat(num, den int64) Exponent {
	if den == 0 {
		panic("cosmo: exponent with zero denominator")
	}
	return Exponent{num: num, den: den}.normalize()
}

func (e Exponent) normalize() Exponent {
	if e.den < 0 {
		e.num, e.den = -e.num, -e.den
	}
	if e.num == 0 {
		e.den = 1
		return e
	}
	g := gcd(abs64(e.num), e.den)
	e.num /= g
	e.den /= g
	return e
}

// Add returns the sum of two exponents (a^m * a^n = a^(m+n)).
func (e Exponent) Add(o Exponent) Exponent {
	return Exponent{num: e.num*o.den + o.num*e.den, den: e.den * o.den}.normalize()
}

// Sub returns the difference of two exponents.
func (e Exponent) Sub(o Exponent) Exponent {
	return Exponent{num: e.num*o.den - o.num*e.den, den: e.den * o.den}.normalize()
}

// MulRat returns the exponent scaled by a rational power p, as in
// (a^n)^p = a^(n*p).
func (e Exponent) MulRat(p Exponent) Exponent {
	return Exponent{num: e.num * p.num, den: e.den * p.den}.normalize()
}

// Neg returns the negated exponent.
func (e Exponent) Neg() Exponent {
	return Exponent{num: -e.num, den: e.den}
}

// IsZero reports whether the exponent is zero, i.e. the quantity is
// invariant under the comoving/physical distinction.
func (e Exponent) IsZero() bool { return e.num == 0 }

// Float returns the exponent as a float64.
func (e Exponent) Float() float64 { return float64(e.num) / float64(e.den) }

func (e Exponent) String() string {
	if e.den == 1 {
		return fmt.Sprintf("a**%d", e.num)
	}
	return fmt.Sprintf("a**(%d/%d)", e.num, e.den)
}

func gcd(a, b int64) int64 {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

func abs64(n int64) int64 {
	if n < 0 {
		return -n
	}
	return n
}
