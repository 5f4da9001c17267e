// Package cosmoarray implements the tagged array at the heart of the
// toolkit: a unit-bearing numeric buffer annotated with a comoving flag, a
// scale-factor exponent, and an on-disk compression label, together with
// the dispatch rules that carry those tags through every elementwise
// operation.
//
// The tag is composed next to the buffer rather than subclassed onto it,
// and it is always copied by value: no two arrays ever share tag state, so
// converting one view can never flip another.
package cosmoarray

import (
	"errors"
	"fmt"

	"github.com/comova/comova/internal/cosmo"
	"github.com/comova/comova/internal/units"
)

// ErrInvalidConstruction is returned when a non-quantity operand is
// supplied where a tagged or unit-bearing value was required.
var ErrInvalidConstruction = errors.New("cosmoarray: operand is not a quantity")

// ErrMissingFactor is returned when a frame conversion is requested on an
// array that carries no scale-factor exponent.
var ErrMissingFactor = errors.New("cosmoarray: array has no cosmology factor")

// Array is a unit-bearing numeric buffer with a cosmology tag. Data is
// assumed comoving unless constructed otherwise. The factor may be nil for
// quantities exempt from cosmological scaling; arithmetic and frame
// conversion require it.
type Array struct {
	q           *units.Quantity
	comoving    bool
	factor      *cosmo.Factor
	compression string
}

// Option configures an Array at construction time.
type Option func(*Array)

// WithComoving overrides the default comoving flag.
func WithComoving(comoving bool) Option {
	return func(a *Array) { a.comoving = comoving }
}

// WithFactor attaches a scale-factor exponent. The factor is stored by
// value; the caller's copy is never aliased.
func WithFactor(f cosmo.Factor) Option {
	return func(a *Array) { fc := f; a.factor = &fc }
}

// WithCompression records the on-disk compression label. The label is
// informational and never participates in arithmetic.
func WithCompression(label string) Option {
	return func(a *Array) { a.compression = label }
}

// New builds a 1-D array from values and a unit expression. The comoving
// flag defaults to true.
func New(values []float64, unitExpr string, opts ...Option) (*Array, error) {
	u, err := units.Parse(unitExpr)
	if err != nil {
		return nil, err
	}
	return FromQuantity(units.NewQuantity(values, u), opts...)
}

// NewVectors builds an (n, 3) array from 3-vectors and a unit expression.
func NewVectors(vecs [][3]float64, unitExpr string, opts ...Option) (*Array, error) {
	u, err := units.Parse(unitExpr)
	if err != nil {
		return nil, err
	}
	return FromQuantity(units.FromVectors(vecs, u), opts...)
}

// FromQuantity converts a foreign unit quantity into a tagged array,
// carrying the optional cosmology metadata. The quantity is deep-copied.
func FromQuantity(q *units.Quantity, opts ...Option) (*Array, error) {
	if q == nil {
		return nil, fmt.Errorf("%w: nil quantity", ErrInvalidConstruction)
	}
	a := &Array{q: q.Copy(), comoving: true}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// FromValues converts a plain numeric slice plus an already-resolved unit
// into a tagged array. It is the second named conversion entry point, for
// callers that hold a units.Unit rather than an expression.
func FromValues(values []float64, u units.Unit, opts ...Option) (*Array, error) {
	if values == nil {
		return nil, fmt.Errorf("%w: nil values", ErrInvalidConstruction)
	}
	return FromQuantity(units.NewQuantity(values, u), opts...)
}

// Comoving reports whether the array is in comoving coordinates.
func (a *Array) Comoving() bool { return a.comoving }

// Factor returns a copy of the array's scale-factor exponent, or nil when
// the quantity is exempt from cosmological scaling.
func (a *Array) Factor() *cosmo.Factor {
	if a.factor == nil {
		return nil
	}
	f := *a.factor
	return &f
}

// Compression returns the on-disk compression label, if any.
func (a *Array) Compression() string { return a.compression }

// Unit returns the array's unit.
func (a *Array) Unit() units.Unit { return a.q.Unit() }

// Values returns a copy of the raw values in the array's current unit and
// frame.
func (a *Array) Values() []float64 { return a.q.Values() }

// At returns the i-th element in row-major order.
func (a *Array) At(i int) float64 { return a.q.At(i) }

// Len returns the total number of elements.
func (a *Array) Len() int { return a.q.Len() }

// Rows returns the length of the leading axis.
func (a *Array) Rows() int { return a.q.Rows() }

// Shape returns a copy of the shape vector.
func (a *Array) Shape() []int { return a.q.Shape() }

// DType returns the storage precision label.
func (a *Array) DType() units.DType { return a.q.DType() }

// Copy returns an independent deep copy: buffer, unit, and tag.
func (a *Array) Copy() *Array {
	c := &Array{q: a.q.Copy()}
	a.copyTagTo(c)
	return c
}

// copyTagTo copies the cosmology tag onto dst by value. Every shape and
// accessor wrapper funnels through here so propagation is uniform.
func (a *Array) copyTagTo(dst *Array) {
	dst.comoving = a.comoving
	if a.factor != nil {
		f := *a.factor
		dst.factor = &f
	} else {
		dst.factor = nil
	}
	dst.compression = a.compression
}

// ConvertToComoving converts the array's values to comoving coordinates
// in place. Already-comoving arrays are left untouched. The factor itself
// is not changed.
func (a *Array) ConvertToComoving() error {
	if a.comoving {
		return nil
	}
	if a.factor == nil {
		return ErrMissingFactor
	}
	a.q.ScaleValues(1.0 / a.factor.AFactor())
	a.comoving = true
	return nil
}

// ConvertToPhysical converts the array's values to physical coordinates
// in place. Already-physical arrays are left untouched.
func (a *Array) ConvertToPhysical() error {
	if !a.comoving {
		return nil
	}
	if a.factor == nil {
		return ErrMissingFactor
	}
	a.q.ScaleValues(a.factor.AFactor())
	a.comoving = false
	return nil
}

// ToComoving returns an independent comoving copy; the receiver is
// untouched.
func (a *Array) ToComoving() (*Array, error) {
	c := a.Copy()
	if err := c.ConvertToComoving(); err != nil {
		return nil, err
	}
	return c, nil
}

// ToPhysical returns an independent physical copy; the receiver is
// untouched.
func (a *Array) ToPhysical() (*Array, error) {
	c := a.Copy()
	if err := c.ConvertToPhysical(); err != nil {
		return nil, err
	}
	return c, nil
}

// CompatibleWithComoving reports whether the array can stand in for a
// comoving one: it already is comoving, it is exempt from scaling, or its
// conversion factor is exactly 1.
func (a *Array) CompatibleWithComoving() bool {
	return a.comoving || a.factor == nil || a.factor.AFactor() == 1.0
}

// CompatibleWithPhysical reports whether the array can stand in for a
// physical one.
func (a *Array) CompatibleWithPhysical() bool {
	return !a.comoving || a.factor == nil || a.factor.AFactor() == 1.0
}

// InUnits returns a copy converted to the given unit. A dimensional
// mismatch surfaces as the unit layer's IncompatibleError, unchanged.
func (a *Array) InUnits(u units.Unit) (*Array, error) {
	c := a.Copy()
	if err := c.q.ConvertTo(u); err != nil {
		return nil, err
	}
	return c, nil
}

// InBase returns a copy converted to the system's base unit for the
// array's dimension.
func (a *Array) InBase(s units.System) (*Array, error) {
	return a.InUnits(s.Base(a.q.Unit().Dim))
}

// AsType returns a copy carried at the given storage precision.
func (a *Array) AsType(d units.DType) *Array {
	c := &Array{q: a.q.AsType(d)}
	a.copyTagTo(c)
	return c
}

// Index returns the i-th entry along the leading axis with the tag copied
// onto it.
func (a *Array) Index(i int) (*Array, error) {
	q, err := a.q.Row(i)
	if err != nil {
		return nil, err
	}
	c := &Array{q: q}
	a.copyTagTo(c)
	return c, nil
}

// Slice returns rows [lo, hi) with the tag copied onto the result.
func (a *Array) Slice(lo, hi int) (*Array, error) {
	q, err := a.q.Slice(lo, hi)
	if err != nil {
		return nil, err
	}
	c := &Array{q: q}
	a.copyTagTo(c)
	return c, nil
}

// Take returns the rows selected by idx with the tag copied.
func (a *Array) Take(idx []int) (*Array, error) {
	q, err := a.q.Take(idx)
	if err != nil {
		return nil, err
	}
	c := &Array{q: q}
	a.copyTagTo(c)
	return c, nil
}

// Repeat returns a copy with each row repeated n times, tag copied.
func (a *Array) Repeat(n int) (*Array, error) {
	q, err := a.q.Repeat(n)
	if err != nil {
		return nil, err
	}
	c := &Array{q: q}
	a.copyTagTo(c)
	return c, nil
}

// Reshape returns a reshaped copy, tag copied.
func (a *Array) Reshape(shape ...int) (*Array, error) {
	q, err := a.q.Reshape(shape...)
	if err != nil {
		return nil, err
	}
	c := &Array{q: q}
	a.copyTagTo(c)
	return c, nil
}

// Transpose returns a transposed copy, tag copied.
func (a *Array) Transpose() *Array {
	c := &Array{q: a.q.Transpose()}
	a.copyTagTo(c)
	return c
}

// Flatten returns a 1-D copy, tag copied.
func (a *Array) Flatten() *Array {
	c := &Array{q: a.q.Flatten()}
	a.copyTagTo(c)
	return c
}

// Compressed returns a copy carrying the given on-disk compression label.
// The writer uses it to stamp arrays as they are persisted.
func (a *Array) Compressed(label string) *Array {
	c := a.Copy()
	c.compression = label
	return c
}

// Byteswap returns a copy with the tag carried through. Values are held in
// native byte order in memory, so the swap only matters for foreign-endian
// buffers at the I/O boundary; the accessor exists so byte-order changes
// propagate tags like every other wrapper.
func (a *Array) Byteswap() *Array {
	return a.Copy()
}

func (a *Array) String() string {
	frame := "(Physical)"
	if a.comoving {
		frame = "(Comoving)"
	}
	return fmt.Sprintf("%s %s", a.q, frame)
}
