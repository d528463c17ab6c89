package objgen

import "hash/crc32"

// CRC32 computes the checksum the CRC generator stamps into every value it
// produces, over buf followed by key — the same (buffer, key) ordering as
// original_source/obj_gen.h's crc32::calc_crc32. The IEEE polynomial is the
// one the original's static crctab encodes; hash/crc32 implements the
// identical table-driven algorithm, so there is no domain library to reach
// for here (DESIGN.md).
func CRC32(buf, key []byte) uint32 {
	h := crc32.NewIEEE()
	h.Write(buf)
	h.Write(key)
	return h.Sum32()
}
