// Package snapshot builds and persists initial-condition snapshots: typed
// per-kind particle datasets, header and unit metadata, and the on-disk
// container. Every dataset field is statically enumerated with its
// expected dimension; there is no runtime accessor generation.
package snapshot

import "github.com/comova/comova/internal/units"

// Kind identifies a particle type. The numeric values match the group
// numbering convention used by SPH snapshot files (PartType0 is gas).
type Kind int

const (
	Gas        Kind = 0
	DarkMatter Kind = 1
	Stars      Kind = 4
	BlackHoles Kind = 5
)

// numKinds spans the particle-count vectors in the header, including the
// reserved slots between Kind values.
const numKinds = 6

// Kinds returns every supported particle kind in group order.
func Kinds() []Kind {
	return []Kind{Gas, DarkMatter, Stars, BlackHoles}
}

// Name returns the underscored dataset name for the kind.
func (k Kind) Name() string {
	switch k {
	case Gas:
		return "gas"
	case DarkMatter:
		return "dark_matter"
	case Stars:
		return "stars"
	case BlackHoles:
		return "black_holes"
	default:
		return "unknown"
	}
}

// GroupName returns the on-disk group handle, e.g. "PartType0".
func (k Kind) GroupName() string {
	return "PartType" + string(rune('0'+int(k)))
}

// Field names shared across kinds.
const (
	FieldCoordinates     = "coordinates"
	FieldVelocities      = "velocities"
	FieldMasses          = "masses"
	FieldSmoothingLength = "smoothing_length"
	FieldInternalEnergy  = "internal_energy"
	FieldParticleIDs     = "particle_ids"
)

// Field describes one required dataset of a particle kind: its name, the
// dimension its values must carry, and the per-particle width (3 for
// vectors, 1 for scalars).
type Field struct {
	Name  string
	Dim   units.Dimension
	Width int
}

var commonFields = []Field{
	{Name: FieldCoordinates, Dim: units.DimLength, Width: 3},
	{Name: FieldVelocities, Dim: units.DimVelocity, Width: 3},
	{Name: FieldMasses, Dim: units.DimMass, Width: 1},
	{Name: FieldParticleIDs, Dim: units.Dimensionless, Width: 1},
}

var gasFields = []Field{
	{Name: FieldCoordinates, Dim: units.DimLength, Width: 3},
	{Name: FieldVelocities, Dim: units.DimVelocity, Width: 3},
	{Name: FieldMasses, Dim: units.DimMass, Width: 1},
	{Name: FieldSmoothingLength, Dim: units.DimLength, Width: 1},
	{Name: FieldInternalEnergy, Dim: units.DimSpecificEnergy, Width: 1},
	{Name: FieldParticleIDs, Dim: units.Dimensionless, Width: 1},
}

// RequiredFields returns the static field list for a kind.
func RequiredFields(k Kind) []Field {
	if k == Gas {
		return gasFields
	}
	return commonFields
}
