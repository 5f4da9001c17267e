package units

import (
	"bytes"
	"encoding/gob"
	"fmt"
)

// DType labels the storage precision a quantity is carried at. Values are
// always held as float64 in memory; Float32 marks the quantity for
// single-precision rounding and on-disk storage.
type DType int

const (
	Float64 DType = iota
	Float32
)

func (d DType) String() string {
	if d == Float32 {
		return "float32"
	}
	return "float64"
}

// Quantity is a numeric buffer with a unit. It owns its values slice
// exclusively: constructors copy their input and accessors return copies,
// so no two quantities ever alias a buffer unless a caller goes through
// the explicit in-place mutators.
type Quantity struct {
	values []float64
	shape  []int
	unit   Unit
	dtype  DType
}

// NewQuantity builds a 1-D quantity from a copy of values.
func NewQuantity(values []float64, unit Unit) *Quantity {
	v := make([]float64, len(values))
	copy(v, values)
	return &Quantity{values: v, shape: []int{len(v)}, unit: unit}
}

// NewQuantity2D builds an (n, width) quantity from a copy of row-major values.
func NewQuantity2D(values []float64, width int, unit Unit) (*Quantity, error) {
	if width <= 0 || len(values)%width != 0 {
		return nil, fmt.Errorf("units: %d values do not fill rows of width %d", len(values), width)
	}
	v := make([]float64, len(values))
	copy(v, values)
	return &Quantity{values: v, shape: []int{len(v) / width, width}, unit: unit}, nil
}

// FromVectors builds an (n, 3) quantity from 3-vectors.
func FromVectors(vecs [][3]float64, unit Unit) *Quantity {
	v := make([]float64, 0, len(vecs)*3)
	for _, x := range vecs {
		v = append(v, x[0], x[1], x[2])
	}
	return &Quantity{values: v, shape: []int{len(vecs), 3}, unit: unit}
}

// Len returns the total number of elements.
func (q *Quantity) Len() int { return len(q.values) }

// Rows returns the length of the leading axis.
func (q *Quantity) Rows() int {
	if len(q.shape) == 0 {
		return 1
	}
	return q.shape[0]
}

// Shape returns a copy of the shape vector. A scalar has an empty shape.
func (q *Quantity) Shape() []int {
	s := make([]int, len(q.shape))
	copy(s, q.shape)
	return s
}

// Values returns a copy of the raw values in the quantity's current unit.
func (q *Quantity) Values() []float64 {
	v := make([]float64, len(q.values))
	copy(v, q.values)
	return v
}

// At returns the i-th element in row-major order.
func (q *Quantity) At(i int) float64 { return q.values[i] }

// Unit returns the quantity's unit.
func (q *Quantity) Unit() Unit { return q.unit }

// DType returns the storage precision label.
func (q *Quantity) DType() DType { return q.dtype }

// Copy returns an independent deep copy.
func (q *Quantity) Copy() *Quantity {
	c := &Quantity{
		values: make([]float64, len(q.values)),
		shape:  make([]int, len(q.shape)),
		unit:   q.unit,
		dtype:  q.dtype,
	}
	copy(c.values, q.values)
	copy(c.shape, q.shape)
	return c
}

// ScaleValues multiplies every element in place. This is the only value
// mutator; the comoving conversion protocol is built on it.
func (q *Quantity) ScaleValues(f float64) {
	for i := range q.values {
		q.values[i] *= f
	}
}

// ConvertTo converts the quantity in place to a compatible unit, or
// returns IncompatibleError when dimensions differ.
func (q *Quantity) ConvertTo(u Unit) error {
	if !q.unit.SameDimension(u) {
		return &IncompatibleError{Op: "convert to " + u.String(), From: q.unit.Dim, To: u.Dim}
	}
	f := q.unit.Scale / u.Scale
	if f != 1 {
		q.ScaleValues(f)
	}
	q.unit = u
	return nil
}

// InBase converts the quantity in place to the system's base unit for its
// dimension.
func (q *Quantity) InBase(s System) error {
	return q.ConvertTo(s.Base(q.unit.Dim))
}

// AsType returns a copy carried at the given precision. Converting to
// Float32 rounds every element through single precision.
func (q *Quantity) AsType(d DType) *Quantity {
	c := q.Copy()
	c.dtype = d
	if d == Float32 {
		for i, v := range c.values {
			c.values[i] = float64(float32(v))
		}
	}
	return c
}

// Reshape returns a copy with a new shape covering the same elements.
func (q *Quantity) Reshape(shape ...int) (*Quantity, error) {
	n := 1
	for _, s := range shape {
		if s <= 0 {
			return nil, fmt.Errorf("units: reshape: invalid axis length %d", s)
		}
		n *= s
	}
	if n != len(q.values) {
		return nil, fmt.Errorf("units: reshape: %d elements cannot fill shape %v", len(q.values), shape)
	}
	c := q.Copy()
	c.shape = append([]int(nil), shape...)
	return c, nil
}

// Transpose returns a transposed copy. Scalars and 1-D quantities are
// returned unchanged, matching ndarray semantics.
func (q *Quantity) Transpose() *Quantity {
	if len(q.shape) < 2 {
		return q.Copy()
	}
	rows, cols := q.shape[0], q.shape[1]
	c := q.Copy()
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			c.values[j*rows+i] = q.values[i*cols+j]
		}
	}
	c.shape = []int{cols, rows}
	return c
}

// Flatten returns a 1-D copy.
func (q *Quantity) Flatten() *Quantity {
	c := q.Copy()
	c.shape = []int{len(c.values)}
	return c
}

// Row returns a copy of the i-th entry along the leading axis: a scalar
// for 1-D quantities, a row vector for 2-D ones.
func (q *Quantity) Row(i int) (*Quantity, error) {
	if i < 0 || i >= q.Rows() {
		return nil, fmt.Errorf("units: index %d out of range [0, %d)", i, q.Rows())
	}
	if len(q.shape) < 2 {
		return &Quantity{values: []float64{q.values[i]}, shape: nil, unit: q.unit, dtype: q.dtype}, nil
	}
	w := q.shape[1]
	v := make([]float64, w)
	copy(v, q.values[i*w:(i+1)*w])
	return &Quantity{values: v, shape: []int{w}, unit: q.unit, dtype: q.dtype}, nil
}

// Slice returns a copy of rows [lo, hi) along the leading axis.
func (q *Quantity) Slice(lo, hi int) (*Quantity, error) {
	if lo < 0 || hi > q.Rows() || lo > hi {
		return nil, fmt.Errorf("units: slice [%d:%d] out of range [0, %d]", lo, hi, q.Rows())
	}
	w := 1
	if len(q.shape) >= 2 {
		w = q.shape[1]
	}
	v := make([]float64, (hi-lo)*w)
	copy(v, q.values[lo*w:hi*w])
	shape := []int{hi - lo}
	if len(q.shape) >= 2 {
		shape = append(shape, w)
	}
	return &Quantity{values: v, shape: shape, unit: q.unit, dtype: q.dtype}, nil
}

// Take returns a copy of the rows selected by idx, in order.
func (q *Quantity) Take(idx []int) (*Quantity, error) {
	w := 1
	if len(q.shape) >= 2 {
		w = q.shape[1]
	}
	v := make([]float64, 0, len(idx)*w)
	for _, i := range idx {
		if i < 0 || i >= q.Rows() {
			return nil, fmt.Errorf("units: take: index %d out of range [0, %d)", i, q.Rows())
		}
		v = append(v, q.values[i*w:(i+1)*w]...)
	}
	shape := []int{len(idx)}
	if len(q.shape) >= 2 {
		shape = append(shape, w)
	}
	return &Quantity{values: v, shape: shape, unit: q.unit, dtype: q.dtype}, nil
}

// Repeat returns a copy with every row repeated n times.
func (q *Quantity) Repeat(n int) (*Quantity, error) {
	if n <= 0 {
		return nil, fmt.Errorf("units: repeat: count %d must be positive", n)
	}
	w := 1
	if len(q.shape) >= 2 {
		w = q.shape[1]
	}
	v := make([]float64, 0, len(q.values)*n)
	for i := 0; i < q.Rows(); i++ {
		row := q.values[i*w : (i+1)*w]
		for j := 0; j < n; j++ {
			v = append(v, row...)
		}
	}
	shape := []int{q.Rows() * n}
	if len(q.shape) >= 2 {
		shape = append(shape, w)
	}
	return &Quantity{values: v, shape: shape, unit: q.unit, dtype: q.dtype}, nil
}

func (q *Quantity) String() string {
	return fmt.Sprintf("%v %s", q.values, q.unit)
}

// quantityState is the gob wire form of a Quantity.
type quantityState struct {
	Values []float64
	Shape  []int
	Name   string
	Dim    Dimension
	Scale  float64
	DType  DType
}

// GobEncode implements gob.GobEncoder.
func (q *Quantity) GobEncode() ([]byte, error) {
	var buf bytes.Buffer
	st := quantityState{
		Values: q.values,
		Shape:  q.shape,
		Name:   q.unit.Name,
		Dim:    q.unit.Dim,
		Scale:  q.unit.Scale,
		DType:  q.dtype,
	}
	if err := gob.NewEncoder(&buf).Encode(st); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// GobDecode implements gob.GobDecoder.
func (q *Quantity) GobDecode(data []byte) error {
	var st quantityState
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&st); err != nil {
		return err
	}
	q.values = st.Values
	q.shape = st.Shape
	q.unit = Unit{Name: st.Name, Dim: st.Dim, Scale: st.Scale}
	q.dtype = st.DType
	return nil
}
