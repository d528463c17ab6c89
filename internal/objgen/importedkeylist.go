package objgen

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

// ImportedKeylist is a read-only vector of variable-length key records
// loaded once from a capture file (spec.md §3, §4.H). The capture's own
// framing is length-prefixed records of {len uint32, bytes}, matching
// original_source/obj_gen.h's imported_keylist.
type ImportedKeylist struct {
	keys [][]byte
}

// NewImportedKeylist returns an empty ImportedKeylist; call ReadKeys to
// populate it.
func NewImportedKeylist() *ImportedKeylist {
	return &ImportedKeylist{}
}

// ReadKeys loads every key record from path, replacing any previously
// loaded keys.
func (k *ImportedKeylist) ReadKeys(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("objgen: opening key capture %q: %w", path, err)
	}
	defer f.Close()

	r := bufio.NewReader(f)
	var keys [][]byte
	var lenBuf [4]byte
	for {
		if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
			if err == io.EOF {
				break
			}
			return fmt.Errorf("objgen: reading key length from %q: %w", path, err)
		}
		n := binary.BigEndian.Uint32(lenBuf[:])
		key := make([]byte, n)
		if _, err := io.ReadFull(r, key); err != nil {
			return fmt.Errorf("objgen: reading %d-byte key from %q: %w", n, path, err)
		}
		keys = append(keys, key)
	}

	k.keys = keys
	return nil
}

// Size reports how many keys were loaded.
func (k *ImportedKeylist) Size() int {
	return len(k.keys)
}

// Get returns the key at pos, or (nil, false) if pos is out of range.
func (k *ImportedKeylist) Get(pos int) ([]byte, bool) {
	if pos < 0 || pos >= len(k.keys) {
		return nil, false
	}
	return k.keys[pos], true
}
