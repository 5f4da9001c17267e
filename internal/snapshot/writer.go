package snapshot

import (
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/comova/comova/internal/cosmoarray"
	"github.com/comova/comova/internal/units"
)

// Header carries the snapshot-level metadata written alongside the
// particle groups.
type Header struct {
	BoxSize          []float64
	NumPartTotal     [numKinds]int64
	NumPartHighWord  [numKinds]int64
	FlagEntropyICs   int
	ScaleFactor      float64
	Redshift         float64
	CompressionLabel string
}

// UnitsGroup records the CGS conversion factors of the snapshot's unit
// system, one per base dimension.
type UnitsGroup struct {
	MassCGS        float64 // U_M
	LengthCGS      float64 // U_L
	TimeCGS        float64 // U_t
	CurrentCGS     float64 // U_I, always 1: no current support
	TemperatureCGS float64 // U_T
}

// Group is one particle kind's payload in the container.
type Group struct {
	Kind        Kind
	Fields      map[string]*cosmoarray.Array
	ParticleIDs []int64
}

// File is the on-disk container: header, units, and particle groups.
type File struct {
	Header Header
	Units  UnitsGroup
	Groups []Group
}

// Writer assembles particle datasets and persists them as a snapshot
// container with a TOML summary sidecar.
type Writer struct {
	system      units.System
	boxSize     *cosmoarray.Array
	scaleFactor float64
	compression string
	datasets    map[Kind]*Dataset
}

// NewWriter creates a writer for the given unit system and box size. The
// box size must be a length array compatible with the comoving frame.
func NewWriter(system units.System, boxSize *cosmoarray.Array, scaleFactor float64, compression string) (*Writer, error) {
	if boxSize == nil {
		return nil, fmt.Errorf("%w: box size", cosmoarray.ErrInvalidConstruction)
	}
	if boxSize.Unit().Dim != units.DimLength {
		return nil, &units.IncompatibleError{Op: "box size", From: boxSize.Unit().Dim, To: units.DimLength}
	}
	if !boxSize.CompatibleWithComoving() {
		return nil, fmt.Errorf("%w: box size", ErrFrameIncompatible)
	}
	normalized, err := boxSize.InBase(system)
	if err != nil {
		return nil, err
	}
	w := &Writer{
		system:      system,
		boxSize:     normalized,
		scaleFactor: scaleFactor,
		compression: compression,
		datasets:    make(map[Kind]*Dataset, len(Kinds())),
	}
	for _, k := range Kinds() {
		w.datasets[k] = NewDataset(system, k)
	}
	return w, nil
}

// Dataset returns the writer's dataset for a kind.
func (w *Writer) Dataset(k Kind) *Dataset { return w.datasets[k] }

// Write validates every non-empty dataset, generates missing particle
// IDs, and persists the snapshot container plus its TOML summary.
func (w *Writer) Write(path string) error {
	var toWrite []*Dataset
	for _, k := range Kinds() {
		d := w.datasets[k]
		if d.CheckEmpty() {
			continue
		}
		if err := d.CheckConsistent(); err != nil {
			return err
		}
		toWrite = append(toWrite, d)
	}
	if len(toWrite) == 0 {
		return fmt.Errorf("snapshot: nothing to write")
	}

	// Sequential IDs across all groups that need them.
	var next int64
	for _, d := range toWrite {
		if !d.RequiresIDs() {
			for _, id := range d.particleIDs {
				if id >= next {
					next = id + 1
				}
			}
		}
	}
	for _, d := range toWrite {
		if d.RequiresIDs() {
			next = d.GenerateIDs(next)
		}
	}

	file := File{
		Header: Header{
			BoxSize:          w.boxSize.Values(),
			FlagEntropyICs:   0,
			ScaleFactor:      w.scaleFactor,
			Redshift:         1.0/w.scaleFactor - 1.0,
			CompressionLabel: w.compression,
		},
		Units: UnitsGroup{
			MassCGS:        w.system.CGSFactor(units.DimMass),
			LengthCGS:      w.system.CGSFactor(units.DimLength),
			TimeCGS:        w.system.CGSFactor(units.DimTime),
			CurrentCGS:     1,
			TemperatureCGS: w.system.CGSFactor(units.DimTemperature),
		},
	}
	for _, d := range toWrite {
		file.Header.NumPartTotal[d.kind] = int64(d.nPart)
		g := Group{
			Kind:        d.kind,
			Fields:      make(map[string]*cosmoarray.Array),
			ParticleIDs: d.ParticleIDs(),
		}
		for _, f := range RequiredFields(d.kind) {
			if f.Name == FieldParticleIDs {
				continue
			}
			arr := d.fieldArray(f.Name)
			if w.compression != "" && arr.Compression() == "" {
				// Stamp the on-disk label so readers see it on every array.
				arr = arr.Compressed(w.compression)
			}
			g.Fields[f.Name] = arr
		}
		file.Groups = append(file.Groups, g)
	}

	if err := writeContainer(path, &file); err != nil {
		return err
	}
	return writeSummary(path+".toml", &file)
}

func writeContainer(path string, file *File) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("snapshot: creating directory %s: %w", dir, err)
		}
	}
	fh, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("snapshot: creating %s: %w", path, err)
	}
	if err := gob.NewEncoder(fh).Encode(file); err != nil {
		fh.Close()
		return fmt.Errorf("snapshot: encoding %s: %w", path, err)
	}
	return fh.Close()
}

// Summary is the human-readable TOML sidecar written next to every
// container.
type Summary struct {
	BoxSize     []float64          `toml:"box_size"`
	ScaleFactor float64            `toml:"scale_factor"`
	Redshift    float64            `toml:"redshift"`
	Compression string             `toml:"compression,omitempty"`
	Units       map[string]float64 `toml:"units"`
	Groups      []GroupSummary     `toml:"group"`
}

// GroupSummary is one particle group's entry in the sidecar.
type GroupSummary struct {
	Name   string   `toml:"name"`
	NPart  int64    `toml:"n_part"`
	Fields []string `toml:"fields"`
}

func writeSummary(path string, file *File) error {
	s := Summary{
		BoxSize:     file.Header.BoxSize,
		ScaleFactor: file.Header.ScaleFactor,
		Redshift:    file.Header.Redshift,
		Compression: file.Header.CompressionLabel,
		Units: map[string]float64{
			"mass_cgs":        file.Units.MassCGS,
			"length_cgs":      file.Units.LengthCGS,
			"time_cgs":        file.Units.TimeCGS,
			"current_cgs":     file.Units.CurrentCGS,
			"temperature_cgs": file.Units.TemperatureCGS,
		},
	}
	for _, g := range file.Groups {
		gs := GroupSummary{Name: g.Kind.GroupName(), NPart: file.Header.NumPartTotal[g.Kind]}
		for name := range g.Fields {
			gs.Fields = append(gs.Fields, name)
		}
		sort.Strings(gs.Fields)
		gs.Fields = append(gs.Fields, FieldParticleIDs)
		s.Groups = append(s.Groups, gs)
	}

	data, err := toml.Marshal(s)
	if err != nil {
		return fmt.Errorf("snapshot: marshaling summary: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("snapshot: writing summary: %w", err)
	}
	return nil
}

// Read restores a snapshot container from disk.
func Read(path string) (*File, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("snapshot: opening %s: %w", path, err)
	}
	defer fh.Close()
	var file File
	if err := gob.NewDecoder(fh).Decode(&file); err != nil {
		return nil, fmt.Errorf("snapshot: decoding %s: %w", path, err)
	}
	return &file, nil
}
