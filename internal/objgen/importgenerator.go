package objgen

import "kvbench/internal/rng"

// ImportedItem is one streamed record from a FileReader: the raw
// (key, value, flags, expiry) tuple as captured.
type ImportedItem struct {
	Key    []byte
	Value  []byte
	Flags  uint32
	Expiry uint32
}

// FileReader is the host-provided adapter the import path replays from.
// Its interface alone is specified (spec.md §1, §6); this module ships no
// production implementation, only the contract and a test double in
// importgenerator_test.go.
type FileReader interface {
	Open() bool
	ReadNextItem() (*ImportedItem, bool)
	Rewind()
	Eof() bool
}

// ImportGenerator replays an externally captured workload: GetKey deals
// out keys from an ImportedKeylist, GetObject deals out successive
// records from a FileReader, rewinding on end-of-stream
// (original_source/obj_gen.h's import_object_generator).
type ImportGenerator struct {
	keys     *ImportedKeylist
	reader   FileReader
	noExpiry bool
	opened   bool

	useGaussianKey       bool
	keyStddev, keyMedian float64

	posCursor [numPositiveIterators]int
	rnd       *rng.Source

	cur DataObject
}

// NewImportGenerator pairs keys with reader. When noExpiry is set, every
// produced DataObject's expiry is forced to 0 regardless of what the
// capture recorded.
func NewImportGenerator(keys *ImportedKeylist, reader FileReader, noExpiry bool, seed int64, threadID int) *ImportGenerator {
	return &ImportGenerator{
		keys:     keys,
		reader:   reader,
		noExpiry: noExpiry,
		rnd:      rng.New(seed, threadID),
	}
}

// WithGaussianKeyPick switches GetKey's IterGaussian branch from a plain
// uniform pick to a Gaussian pick over the keylist's index range
// (stddev/median in index units), mirroring Generator's WithKeyDistribution.
func (g *ImportGenerator) WithGaussianKeyPick(stddev, median float64) *ImportGenerator {
	g.useGaussianKey = true
	g.keyStddev, g.keyMedian = stddev, median
	return g
}

// OpenFile opens the backing FileReader, if not already open.
func (g *ImportGenerator) OpenFile() bool {
	if g.opened {
		return true
	}
	g.opened = g.reader.Open()
	return g.opened
}

// GetKey returns the i-th imported key deterministically for iter >= 0
// (one independent cursor per positive iterator, wrapping modulo the
// keylist size); IterRandom draws a uniform index, and IterGaussian draws
// a Gaussian index once WithGaussianKeyPick has configured stddev/median
// (falling back to uniform otherwise).
func (g *ImportGenerator) GetKey(iter int) []byte {
	n := g.keys.Size()
	if n == 0 {
		return nil
	}
	var idx int
	switch {
	case iter >= 0:
		idx = g.posCursor[iter] % n
		g.posCursor[iter]++
	case iter == IterGaussian && g.useGaussianKey:
		idx = int(g.rnd.GaussianInRange(g.keyStddev, g.keyMedian, 0, uint64(n-1)))
	default:
		idx = int(g.rnd.UniformRange(0, uint64(n-1)))
	}
	key, _ := g.keys.Get(idx)
	return key
}

// GetObject returns the next streamed record, rewinding and retrying once
// if the stream was at end-of-file.
func (g *ImportGenerator) GetObject(iter int) *DataObject {
	g.OpenFile()

	item, ok := g.reader.ReadNextItem()
	if !ok {
		g.reader.Rewind()
		item, ok = g.reader.ReadNextItem()
		if !ok {
			return nil
		}
	}

	g.cur.Key = item.Key
	g.cur.Value = item.Value
	if g.noExpiry {
		g.cur.Expiry = 0
	} else {
		g.cur.Expiry = item.Expiry
	}
	return &g.cur
}
