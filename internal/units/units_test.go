package units

import (
	"bytes"
	"encoding/gob"
	"errors"
	"math"
	"testing"
)

func TestParse(t *testing.T) {
	t.Parallel()
	tests := []struct {
		expr      string
		wantDim   Dimension
		wantScale float64
	}{
		{"g", DimMass, 1},
		{"km/s", DimVelocity, 1e5},
		{"g/cm**3", DimDensity, 1},
		{"Msun/Mpc**3", DimDensity, gPerMsun / math.Pow(cmPerParsec*1e6, 3)},
		{"km**2/s**2", DimSpecificEnergy, 1e10},
		{"dimensionless", Dimensionless, 1},
		{"", Dimensionless, 1},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			u, err := Parse(tt.expr)
			if err != nil {
				t.Fatalf("Parse(%q): %v", tt.expr, err)
			}
			if u.Dim != tt.wantDim {
				t.Errorf("dim = %v, want %v", u.Dim, tt.wantDim)
			}
			if relDiff(u.Scale, tt.wantScale) > 1e-12 {
				t.Errorf("scale = %v, want %v", u.Scale, tt.wantScale)
			}
		})
	}

	if _, err := Parse("furlong"); err == nil {
		t.Error("unknown unit should fail")
	}
	if _, err := Parse("g/cm/s"); err == nil {
		t.Error("double slash should fail")
	}
}

func TestConvertTo(t *testing.T) {
	t.Parallel()
	q := NewQuantity([]float64{1, 2}, MustParse("km"))
	if err := q.ConvertTo(MustParse("m")); err != nil {
		t.Fatalf("ConvertTo: %v", err)
	}
	want := []float64{1000, 2000}
	for i, v := range q.Values() {
		if relDiff(v, want[i]) > 1e-12 {
			t.Errorf("values[%d] = %v, want %v", i, v, want[i])
		}
	}

	err := q.ConvertTo(MustParse("s"))
	var incompat *IncompatibleError
	if !errors.As(err, &incompat) {
		t.Fatalf("length to time: got %v, want IncompatibleError", err)
	}
}

func TestQuantityOwnsItsBuffer(t *testing.T) {
	t.Parallel()
	src := []float64{1, 2, 3}
	q := NewQuantity(src, MustParse("cm"))
	src[0] = 99
	if q.At(0) != 1 {
		t.Error("constructor aliased the caller's slice")
	}
	vals := q.Values()
	vals[1] = 99
	if q.At(1) != 2 {
		t.Error("Values() aliased the internal buffer")
	}
}

func TestShapeOps(t *testing.T) {
	t.Parallel()
	q := FromVectors([][3]float64{{1, 2, 3}, {4, 5, 6}}, MustParse("Mpc"))

	tr := q.Transpose()
	if got := tr.Shape(); got[0] != 3 || got[1] != 2 {
		t.Fatalf("transpose shape = %v, want [3 2]", got)
	}
	if tr.At(1) != 4 {
		t.Errorf("transpose[0,1] = %v, want 4", tr.At(1))
	}

	row, err := q.Row(1)
	if err != nil {
		t.Fatalf("Row: %v", err)
	}
	if got := row.Values(); got[0] != 4 || got[2] != 6 {
		t.Errorf("row 1 = %v", got)
	}

	sl, err := q.Slice(0, 1)
	if err != nil {
		t.Fatalf("Slice: %v", err)
	}
	if sl.Rows() != 1 || sl.At(2) != 3 {
		t.Errorf("slice = %v", sl.Values())
	}

	tk, err := q.Take([]int{1, 0})
	if err != nil {
		t.Fatalf("Take: %v", err)
	}
	if tk.At(0) != 4 || tk.At(3) != 1 {
		t.Errorf("take = %v", tk.Values())
	}

	rp, err := NewQuantity([]float64{7, 8}, MustParse("s")).Repeat(2)
	if err != nil {
		t.Fatalf("Repeat: %v", err)
	}
	if got := rp.Values(); len(got) != 4 || got[1] != 7 || got[2] != 8 {
		t.Errorf("repeat = %v", got)
	}

	if _, err := q.Reshape(5); err == nil {
		t.Error("bad reshape should fail")
	}
}

func TestAsTypeFloat32Rounds(t *testing.T) {
	t.Parallel()
	v := 1.0 + 1e-12
	q := NewQuantity([]float64{v}, Unit{Scale: 1}).AsType(Float32)
	if q.At(0) != float64(float32(v)) {
		t.Errorf("AsType(Float32) did not round through single precision")
	}
	if q.DType() != Float32 {
		t.Errorf("dtype = %v, want float32", q.DType())
	}
}

func TestSystemBase(t *testing.T) {
	t.Parallel()
	sys := Cosmo()
	base := sys.Base(DimVelocity)
	wantScale := (cmPerParsec * 1e6) / secondsPerGyr
	if relDiff(base.Scale, wantScale) > 1e-12 {
		t.Errorf("cosmo velocity base scale = %v, want %v", base.Scale, wantScale)
	}
	if got := sys.CGSFactor(DimMass); relDiff(got, gPerMsun*1e10) > 1e-12 {
		t.Errorf("U_M = %v, want %v", got, gPerMsun*1e10)
	}
	if got := CGS().CGSFactor(DimDensity); got != 1 {
		t.Errorf("cgs density factor = %v, want 1", got)
	}
}

func TestQuantityGobRoundTrip(t *testing.T) {
	t.Parallel()
	q := NewQuantity([]float64{1.5, 2.5}, MustParse("km/s")).AsType(Float32)

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(q); err != nil {
		t.Fatalf("encode: %v", err)
	}
	var got Quantity
	if err := gob.NewDecoder(&buf).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Unit().Dim != DimVelocity || got.DType() != Float32 {
		t.Errorf("metadata lost: unit %v dtype %v", got.Unit(), got.DType())
	}
	if v := got.Values(); v[0] != q.At(0) || v[1] != q.At(1) {
		t.Errorf("values lost: %v", v)
	}
}

func relDiff(a, b float64) float64 {
	if a == b {
		return 0
	}
	return math.Abs(a-b) / math.Max(math.Abs(a), math.Abs(b))
}
