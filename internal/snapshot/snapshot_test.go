package snapshot

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/comova/comova/internal/cosmo"
	"github.com/comova/comova/internal/cosmoarray"
	"github.com/comova/comova/internal/units"
)

func vectors(t *testing.T, n int, unit string, opts ...cosmoarray.Option) *cosmoarray.Array {
	t.Helper()
	vecs := make([][3]float64, n)
	for i := range vecs {
		vecs[i] = [3]float64{float64(i), float64(i) + 0.5, float64(i) + 0.25}
	}
	a, err := cosmoarray.NewVectors(vecs, unit, opts...)
	if err != nil {
		t.Fatalf("NewVectors: %v", err)
	}
	return a
}

func scalars(t *testing.T, n int, unit string, opts ...cosmoarray.Option) *cosmoarray.Array {
	t.Helper()
	vals := make([]float64, n)
	for i := range vals {
		vals[i] = 1 + float64(i)
	}
	a, err := cosmoarray.New(vals, unit, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return a
}

func fillGas(t *testing.T, d *Dataset, n int) {
	t.Helper()
	f := cosmo.NewFactor(cosmo.Exp(1), 0.5)
	if err := d.SetCoordinates(vectors(t, n, "Mpc", cosmoarray.WithFactor(f))); err != nil {
		t.Fatalf("SetCoordinates: %v", err)
	}
	if err := d.SetVelocities(vectors(t, n, "km/s")); err != nil {
		t.Fatalf("SetVelocities: %v", err)
	}
	if err := d.SetMasses(scalars(t, n, "Msun")); err != nil {
		t.Fatalf("SetMasses: %v", err)
	}
	if err := d.SetSmoothingLength(scalars(t, n, "Mpc")); err != nil {
		t.Fatalf("SetSmoothingLength: %v", err)
	}
	if err := d.SetInternalEnergy(scalars(t, n, "km**2/s**2")); err != nil {
		t.Fatalf("SetInternalEnergy: %v", err)
	}
}

func TestRequiredFieldsStatic(t *testing.T) {
	t.Parallel()
	gas := RequiredFields(Gas)
	if len(gas) != 6 {
		t.Errorf("gas has %d required fields, want 6", len(gas))
	}
	dm := RequiredFields(DarkMatter)
	if len(dm) != 4 {
		t.Errorf("dark matter has %d required fields, want 4", len(dm))
	}
	if Gas.GroupName() != "PartType0" || BlackHoles.GroupName() != "PartType5" {
		t.Error("group naming broken")
	}
}

func TestDatasetValidation(t *testing.T) {
	t.Parallel()
	d := NewDataset(units.Cosmo(), Gas)

	if !d.CheckEmpty() {
		t.Error("fresh dataset should be empty")
	}

	// Wrong dimension is a unit incompatibility.
	err := d.SetCoordinates(vectors(t, 4, "km/s"))
	var incompat *units.IncompatibleError
	if !errors.As(err, &incompat) {
		t.Fatalf("velocity as coordinates: got %v", err)
	}

	// Physical array with a-dependence is rejected.
	f := cosmo.NewFactor(cosmo.Exp(1), 0.5)
	phys := vectors(t, 4, "Mpc", cosmoarray.WithFactor(f), cosmoarray.WithComoving(false))
	if err := d.SetCoordinates(phys); !errors.Is(err, ErrFrameIncompatible) {
		t.Fatalf("physical coordinates: got %v", err)
	}

	// Scalar field where a vector is required.
	if err := d.SetCoordinates(scalars(t, 4, "Mpc")); err == nil {
		t.Error("1-wide coordinates should fail")
	}

	if err := d.SetCoordinates(vectors(t, 4, "Mpc")); err != nil {
		t.Fatalf("valid coordinates rejected: %v", err)
	}
	if d.CheckEmpty() {
		t.Error("dataset with coordinates is not empty")
	}

	// Missing fields fail consistency.
	if err := d.CheckConsistent(); err == nil || !strings.Contains(err.Error(), "velocities") {
		t.Errorf("CheckConsistent = %v, want missing velocities", err)
	}
}

func TestDatasetConsistency(t *testing.T) {
	t.Parallel()
	d := NewDataset(units.Cosmo(), Gas)
	fillGas(t, d, 8)

	if err := d.CheckConsistent(); err != nil {
		t.Fatalf("CheckConsistent: %v", err)
	}
	if d.NPart() != 8 {
		t.Errorf("NPart = %d, want 8", d.NPart())
	}
	if !d.RequiresIDs() {
		t.Error("dataset without IDs should require generation")
	}

	// Mismatched lengths are fatal.
	if err := d.SetMasses(scalars(t, 5, "Msun")); err != nil {
		t.Fatalf("SetMasses: %v", err)
	}
	if err := d.CheckConsistent(); err == nil {
		t.Error("mismatched particle counts should fail")
	}
}

func TestSmoothingLengthGasOnly(t *testing.T) {
	t.Parallel()
	d := NewDataset(units.Cosmo(), DarkMatter)
	if err := d.SetSmoothingLength(scalars(t, 4, "Mpc")); err == nil {
		t.Error("dark matter must reject smoothing lengths")
	}
}

func TestSetterNormalizesToBase(t *testing.T) {
	t.Parallel()
	d := NewDataset(units.CGS(), Gas)
	if err := d.SetMasses(scalars(t, 2, "kg")); err != nil {
		t.Fatalf("SetMasses: %v", err)
	}
	// 1 kg = 1000 g in the CGS base.
	if got := d.Masses().At(0); got != 1000 {
		t.Errorf("mass[0] = %v g, want 1000", got)
	}
}

func TestWriteReadRoundTrip(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "ics.snap")

	sys := units.Cosmo()
	box, err := cosmoarray.New([]float64{1, 1, 1}, "Mpc",
		cosmoarray.WithFactor(cosmo.NewFactor(cosmo.Exp(1), 0.5)))
	if err != nil {
		t.Fatalf("box: %v", err)
	}
	w, err := NewWriter(sys, box, 0.5, "gzip")
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}

	fillGas(t, w.Dataset(Gas), 8)
	dm := w.Dataset(DarkMatter)
	f := cosmo.NewFactor(cosmo.Exp(1), 0.5)
	if err := dm.SetCoordinates(vectors(t, 4, "Mpc", cosmoarray.WithFactor(f))); err != nil {
		t.Fatalf("dm coordinates: %v", err)
	}
	if err := dm.SetVelocities(vectors(t, 4, "km/s")); err != nil {
		t.Fatalf("dm velocities: %v", err)
	}
	if err := dm.SetMasses(scalars(t, 4, "Msun")); err != nil {
		t.Fatalf("dm masses: %v", err)
	}

	if err := w.Write(path); err != nil {
		t.Fatalf("Write: %v", err)
	}

	file, err := Read(path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if file.Header.NumPartTotal[Gas] != 8 || file.Header.NumPartTotal[DarkMatter] != 4 {
		t.Errorf("particle counts = %v", file.Header.NumPartTotal)
	}
	if file.Header.Redshift != 1.0 {
		t.Errorf("redshift = %v, want 1.0", file.Header.Redshift)
	}
	if file.Units.LengthCGS != sys.CGSFactor(units.DimLength) {
		t.Errorf("U_L = %v", file.Units.LengthCGS)
	}

	// IDs generated sequentially across groups, no duplicates.
	seen := map[int64]bool{}
	total := 0
	for _, g := range file.Groups {
		for _, id := range g.ParticleIDs {
			if seen[id] {
				t.Fatalf("duplicate particle ID %d", id)
			}
			seen[id] = true
			total++
		}
	}
	if total != 12 {
		t.Errorf("total IDs = %d, want 12", total)
	}

	// Tags survive the container round trip.
	var gas *Group
	for i := range file.Groups {
		if file.Groups[i].Kind == Gas {
			gas = &file.Groups[i]
		}
	}
	if gas == nil {
		t.Fatal("gas group missing")
	}
	coords := gas.Fields[FieldCoordinates]
	if coords == nil || !coords.Comoving() || coords.Factor() == nil {
		t.Error("coordinate tags lost in container")
	}
	if coords.Compression() != "gzip" {
		t.Errorf("compression label = %q, want gzip", coords.Compression())
	}

	// Sidecar exists and mentions the groups.
	sidecar, err := os.ReadFile(path + ".toml")
	if err != nil {
		t.Fatalf("sidecar: %v", err)
	}
	if !strings.Contains(string(sidecar), "PartType0") {
		t.Error("sidecar does not list PartType0")
	}
}

func TestSummaryFieldOrderStable(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	write := func(name string) []byte {
		box, err := cosmoarray.New([]float64{1, 1, 1}, "Mpc",
			cosmoarray.WithFactor(cosmo.NewFactor(cosmo.Exp(1), 0.5)))
		if err != nil {
			t.Fatalf("box: %v", err)
		}
		w, err := NewWriter(units.Cosmo(), box, 0.5, "")
		if err != nil {
			t.Fatalf("NewWriter: %v", err)
		}
		fillGas(t, w.Dataset(Gas), 8)
		path := filepath.Join(dir, name)
		if err := w.Write(path); err != nil {
			t.Fatalf("Write: %v", err)
		}
		data, err := os.ReadFile(path + ".toml")
		if err != nil {
			t.Fatalf("sidecar: %v", err)
		}
		return data
	}

	first := write("a.snap")
	for _, name := range []string{"b.snap", "c.snap"} {
		if other := write(name); !bytes.Equal(first, other) {
			t.Fatalf("sidecars differ between identical writes:\n%s\n---\n%s", first, other)
		}
	}

	var s Summary
	if err := toml.Unmarshal(first, &s); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if len(s.Groups) != 1 {
		t.Fatalf("groups = %d, want 1", len(s.Groups))
	}
	fields := s.Groups[0].Fields
	if len(fields) == 0 || fields[len(fields)-1] != FieldParticleIDs {
		t.Fatalf("fields = %v, want %s last", fields, FieldParticleIDs)
	}
	if !sort.StringsAreSorted(fields[:len(fields)-1]) {
		t.Errorf("field names not sorted: %v", fields)
	}
}

func TestWriteNothing(t *testing.T) {
	t.Parallel()
	box, _ := cosmoarray.New([]float64{1, 1, 1}, "Mpc")
	w, err := NewWriter(units.Cosmo(), box, 1.0, "")
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	if err := w.Write(filepath.Join(t.TempDir(), "empty.snap")); err == nil {
		t.Error("writing an empty snapshot should fail")
	}
}
