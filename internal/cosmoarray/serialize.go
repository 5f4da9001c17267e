package cosmoarray

import (
	"bytes"
	"encoding/gob"
	"fmt"

	"github.com/comova/comova/internal/cosmo"
	"github.com/comova/comova/internal/units"
)

// tagRecord is the cosmology state serialized ahead of the base quantity
// state, mirroring the save/restore contract: the tag record is consumed
// first on decode and the remainder is handed to the quantity's own
// decoder.
type tagRecord struct {
	HasFactor   bool
	Factor      cosmo.Factor
	Comoving    bool
	Compression string
}

// GobEncode implements gob.GobEncoder. The wire form is the tag record
// followed by the quantity state.
func (a *Array) GobEncode() ([]byte, error) {
	var buf bytes.Buffer
	enc := gob.NewEncoder(&buf)

	rec := tagRecord{Comoving: a.comoving, Compression: a.compression}
	if a.factor != nil {
		rec.HasFactor = true
		rec.Factor = *a.factor
	}
	if err := enc.Encode(rec); err != nil {
		return nil, fmt.Errorf("cosmoarray: encoding tag record: %w", err)
	}
	if err := enc.Encode(a.q); err != nil {
		return nil, fmt.Errorf("cosmoarray: encoding quantity state: %w", err)
	}
	return buf.Bytes(), nil
}

// GobDecode implements gob.GobDecoder.
func (a *Array) GobDecode(data []byte) error {
	dec := gob.NewDecoder(bytes.NewReader(data))

	var rec tagRecord
	if err := dec.Decode(&rec); err != nil {
		return fmt.Errorf("cosmoarray: decoding tag record: %w", err)
	}
	var q units.Quantity
	if err := dec.Decode(&q); err != nil {
		return fmt.Errorf("cosmoarray: decoding quantity state: %w", err)
	}

	a.q = &q
	a.comoving = rec.Comoving
	a.compression = rec.Compression
	if rec.HasFactor {
		f := rec.Factor
		a.factor = &f
	} else {
		a.factor = nil
	}
	return nil
}
