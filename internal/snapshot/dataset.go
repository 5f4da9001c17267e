package snapshot

import (
	"errors"
	"fmt"

	"github.com/comova/comova/internal/cosmoarray"
	"github.com/comova/comova/internal/units"
)

// ErrFrameIncompatible is returned when a dataset is handed an array that
// cannot stand in for a comoving quantity. Snapshots are written in
// comoving coordinates; callers must convert first.
var ErrFrameIncompatible = errors.New("snapshot: array is not compatible with comoving frame")

// Dataset accumulates the required arrays for one particle kind before a
// write. Each field has its own typed setter that validates the array's
// dimension, requires comoving compatibility, and normalizes the values
// into the writer's unit system.
type Dataset struct {
	kind   Kind
	system units.System

	coordinates     *cosmoarray.Array
	velocities      *cosmoarray.Array
	masses          *cosmoarray.Array
	smoothingLength *cosmoarray.Array
	internalEnergy  *cosmoarray.Array
	particleIDs     []int64

	// Populated by CheckConsistent.
	nPart       int
	requiresIDs bool
}

// NewDataset creates an empty dataset for the given kind, normalizing into
// the given unit system.
func NewDataset(system units.System, kind Kind) *Dataset {
	return &Dataset{kind: kind, system: system}
}

// Kind returns the dataset's particle kind.
func (d *Dataset) Kind() Kind { return d.kind }

// NPart returns the particle count established by CheckConsistent.
func (d *Dataset) NPart() int { return d.nPart }

// RequiresIDs reports whether particle IDs must be generated before the
// dataset can be written. Valid after CheckConsistent.
func (d *Dataset) RequiresIDs() bool { return d.requiresIDs }

// accept validates an incoming array against a field's expected dimension
// and width, then returns a copy normalized to the dataset's base units.
// The unit layer's IncompatibleError propagates unchanged.
func (d *Dataset) accept(f Field, a *cosmoarray.Array) (*cosmoarray.Array, error) {
	if a == nil {
		return nil, fmt.Errorf("%w: %s/%s", cosmoarray.ErrInvalidConstruction, d.kind.Name(), f.Name)
	}
	if a.Unit().Dim != f.Dim {
		return nil, &units.IncompatibleError{
			Op:   fmt.Sprintf("set %s/%s", d.kind.Name(), f.Name),
			From: a.Unit().Dim,
			To:   f.Dim,
		}
	}
	if !a.CompatibleWithComoving() {
		return nil, fmt.Errorf("%w: %s/%s", ErrFrameIncompatible, d.kind.Name(), f.Name)
	}
	shape := a.Shape()
	width := 1
	if len(shape) == 2 {
		width = shape[1]
	}
	if width != f.Width {
		return nil, fmt.Errorf("snapshot: %s/%s: per-particle width %d, want %d",
			d.kind.Name(), f.Name, width, f.Width)
	}
	return a.InBase(d.system)
}

// SetCoordinates stores the (n, 3) particle positions.
func (d *Dataset) SetCoordinates(a *cosmoarray.Array) error {
	c, err := d.accept(Field{Name: FieldCoordinates, Dim: units.DimLength, Width: 3}, a)
	if err != nil {
		return err
	}
	d.coordinates = c
	return nil
}

// SetVelocities stores the (n, 3) particle velocities.
func (d *Dataset) SetVelocities(a *cosmoarray.Array) error {
	c, err := d.accept(Field{Name: FieldVelocities, Dim: units.DimVelocity, Width: 3}, a)
	if err != nil {
		return err
	}
	d.velocities = c
	return nil
}

// SetMasses stores the particle masses.
func (d *Dataset) SetMasses(a *cosmoarray.Array) error {
	c, err := d.accept(Field{Name: FieldMasses, Dim: units.DimMass, Width: 1}, a)
	if err != nil {
		return err
	}
	d.masses = c
	return nil
}

// SetSmoothingLength stores the SPH smoothing lengths (gas only).
func (d *Dataset) SetSmoothingLength(a *cosmoarray.Array) error {
	if d.kind != Gas {
		return fmt.Errorf("snapshot: %s has no smoothing_length field", d.kind.Name())
	}
	c, err := d.accept(Field{Name: FieldSmoothingLength, Dim: units.DimLength, Width: 1}, a)
	if err != nil {
		return err
	}
	d.smoothingLength = c
	return nil
}

// SetInternalEnergy stores the specific internal energies (gas only).
func (d *Dataset) SetInternalEnergy(a *cosmoarray.Array) error {
	if d.kind != Gas {
		return fmt.Errorf("snapshot: %s has no internal_energy field", d.kind.Name())
	}
	c, err := d.accept(Field{Name: FieldInternalEnergy, Dim: units.DimSpecificEnergy, Width: 1}, a)
	if err != nil {
		return err
	}
	d.internalEnergy = c
	return nil
}

// SetParticleIDs stores explicit particle IDs. When absent, the writer
// generates sequential IDs across all groups.
func (d *Dataset) SetParticleIDs(ids []int64) {
	d.particleIDs = append([]int64(nil), ids...)
}

// Coordinates returns the stored positions, or nil.
func (d *Dataset) Coordinates() *cosmoarray.Array { return d.coordinates }

// Velocities returns the stored velocities, or nil.
func (d *Dataset) Velocities() *cosmoarray.Array { return d.velocities }

// Masses returns the stored masses, or nil.
func (d *Dataset) Masses() *cosmoarray.Array { return d.masses }

// SmoothingLength returns the stored smoothing lengths, or nil.
func (d *Dataset) SmoothingLength() *cosmoarray.Array { return d.smoothingLength }

// InternalEnergy returns the stored internal energies, or nil.
func (d *Dataset) InternalEnergy() *cosmoarray.Array { return d.internalEnergy }

// ParticleIDs returns the stored IDs, or nil.
func (d *Dataset) ParticleIDs() []int64 { return append([]int64(nil), d.particleIDs...) }

// fieldArray maps a field name to its stored array (IDs are handled
// separately since they carry no units).
func (d *Dataset) fieldArray(name string) *cosmoarray.Array {
	switch name {
	case FieldCoordinates:
		return d.coordinates
	case FieldVelocities:
		return d.velocities
	case FieldMasses:
		return d.masses
	case FieldSmoothingLength:
		return d.smoothingLength
	case FieldInternalEnergy:
		return d.internalEnergy
	default:
		return nil
	}
}

// CheckEmpty reports whether no required field has been set.
func (d *Dataset) CheckEmpty() bool {
	for _, f := range RequiredFields(d.kind) {
		if f.Name == FieldParticleIDs {
			if d.particleIDs != nil {
				return false
			}
			continue
		}
		if d.fieldArray(f.Name) != nil {
			return false
		}
	}
	return true
}

// CheckConsistent verifies that every required field except particle_ids
// is present and that all fields agree on the particle count. On success
// it records NPart and whether IDs must be generated before writing.
func (d *Dataset) CheckConsistent() error {
	d.requiresIDs = d.particleIDs == nil
	n := -1
	for _, f := range RequiredFields(d.kind) {
		if f.Name == FieldParticleIDs {
			if d.particleIDs != nil {
				if n >= 0 && len(d.particleIDs) != n {
					return fmt.Errorf("snapshot: %s: particle_ids has %d entries, want %d",
						d.kind.Name(), len(d.particleIDs), n)
				}
				if n < 0 {
					n = len(d.particleIDs)
				}
			}
			continue
		}
		a := d.fieldArray(f.Name)
		if a == nil {
			return fmt.Errorf("snapshot: %s: required dataset %s is not set", d.kind.Name(), f.Name)
		}
		rows := a.Rows()
		if n >= 0 && rows != n {
			return fmt.Errorf("snapshot: %s: %s has %d particles, want %d",
				d.kind.Name(), f.Name, rows, n)
		}
		if n < 0 {
			n = rows
		}
	}
	d.nPart = n
	return nil
}

// GenerateIDs assigns sequential particle IDs starting at offset and
// returns the next free ID.
func (d *Dataset) GenerateIDs(offset int64) int64 {
	ids := make([]int64, d.nPart)
	for i := range ids {
		ids[i] = offset + int64(i)
	}
	d.particleIDs = ids
	d.requiresIDs = false
	return offset + int64(d.nPart)
}
