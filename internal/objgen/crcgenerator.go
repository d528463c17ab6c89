package objgen

import (
	"encoding/binary"
	"fmt"
)

// CRCGenerator wraps a Generator, reserving the first 4 bytes of every
// produced value for a CRC32 checksum over the rest of the value stamped
// with the key (spec.md §4.G, original_source/obj_gen.h's
// crc_object_generator).
type CRCGenerator struct {
	*Generator
}

// NewCRC builds a CRCGenerator, additionally requiring every possible
// value size to have room for the 4-byte checksum prefix.
func NewCRC(opts ...Option) (*CRCGenerator, error) {
	base, err := New(opts...)
	if err != nil {
		return nil, err
	}
	if base.minValueSize() < 4 {
		return nil, fmt.Errorf("objgen: crc generator requires every value to be at least 4 bytes, got minimum %d", base.minValueSize())
	}
	return &CRCGenerator{Generator: base}, nil
}

// GetObject produces a value via the embedded Generator, then overwrites
// its first 4 bytes with CRC32(value[4:], key), big-endian. The returned
// value's length is unchanged.
func (g *CRCGenerator) GetObject(iter int) *DataObject {
	obj := g.Generator.GetObject(iter)
	if len(obj.Value) < 4 {
		return obj
	}
	sum := CRC32(obj.Value[4:], obj.Key)
	binary.BigEndian.PutUint32(obj.Value[0:4], sum)
	return obj
}

// GetActualValueSize reports the most recently produced value's length
// minus the 4-byte checksum prefix.
func (g *CRCGenerator) GetActualValueSize() int {
	return len(g.cur.Value) - 4
}

// ResetNextKey rewinds both positive-iterator cursors to 0, for
// verification passes that re-walk the key space from the start.
func (g *CRCGenerator) ResetNextKey() {
	g.nextKey[IterGet] = 0
	g.nextKey[IterSet] = 0
}

// Clone returns an independent CRCGenerator sharing no mutable state with
// the parent.
func (g *CRCGenerator) Clone() *CRCGenerator {
	return &CRCGenerator{Generator: g.Generator.Clone()}
}
