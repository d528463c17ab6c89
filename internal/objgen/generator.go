// Package objgen implements the workload generator: DataObject, CRC32,
// the keyed ObjectGenerator/CRCObjectGenerator pair, and the imported-key
// replay path (spec.md §3, §4.D-H). It is ported field-for-field from
// memtier_benchmark's object_generator (original_source/obj_gen.h).
package objgen

import (
	"fmt"
	"math"
	"strconv"

	"go.uber.org/multierr"

	"kvbench/internal/rng"
)

// Iterator ids select how GetKey/GetObject choose the next key. Positive
// ids consume a monotonic per-iterator cursor; negative ids consult a
// distribution instead (spec.md §3 "Iterator IDs").
const (
	IterGet      = 0
	IterSet      = 1
	IterRandom   = -1
	IterGaussian = -2

	numPositiveIterators = 2
	keyScratchSize        = 250 // original_source/obj_gen.h: char m_key_buffer[250]
	valueBufferTailBytes  = 16
)

// SizePolicy selects how a generator sizes each value it produces.
type SizePolicy int

const (
	SizeFixed SizePolicy = iota
	SizeRange
	SizeWeighted
)

// config holds every generator setter's result; New validates it as a
// whole rather than failing on the first bad Option (spec.md §4.F "All
// inputs are validated at configuration time").
type config struct {
	prefix               string
	keyMin, keyMax       uint64
	keyStddev, keyMedian float64
	useGaussianKey       bool

	sizePolicy      SizePolicy
	sizePolicySet   bool
	sizeFixed       uint32
	sizeMin, sizeMax uint32
	sizeWeighted    []WeightedSize
	dataSizePattern []byte

	randomData       bool
	compressionRatio float32

	expiryMin, expiryMax uint32

	seed     int64
	threadID int
}

// Option configures a Generator at construction time.
type Option func(*config)

func WithKeyPrefix(prefix string) Option {
	return func(c *config) { c.prefix = prefix }
}

func WithKeyRange(min, max uint64) Option {
	return func(c *config) { c.keyMin, c.keyMax = min, max }
}

func WithKeyDistribution(stddev, median float64) Option {
	return func(c *config) { c.useGaussianKey = true; c.keyStddev, c.keyMedian = stddev, median }
}

func WithDataSizeFixed(size uint32) Option {
	return func(c *config) { c.sizePolicy, c.sizePolicySet, c.sizeFixed = SizeFixed, true, size }
}

func WithDataSizeRange(min, max uint32) Option {
	return func(c *config) { c.sizePolicy, c.sizePolicySet, c.sizeMin, c.sizeMax = SizeRange, true, min, max }
}

func WithDataSizeWeighted(list []WeightedSize) Option {
	return func(c *config) { c.sizePolicy, c.sizePolicySet, c.sizeWeighted = SizeWeighted, true, list }
}

// WithDataSizePattern carries forward an original_source/obj_gen.h feature
// the distilled spec dropped: a named byte pattern overlaid on the
// deterministic (non-random) tail of the value buffer, instead of the
// default single-repeated-byte filler.
func WithDataSizePattern(pattern string) Option {
	return func(c *config) { c.dataSizePattern = []byte(pattern) }
}

func WithRandomData(compressionRatio float32) Option {
	return func(c *config) { c.randomData, c.compressionRatio = true, compressionRatio }
}

func WithExpiryRange(min, max uint32) Option {
	return func(c *config) { c.expiryMin, c.expiryMax = min, max }
}

func WithSeed(seed int64, threadID int) Option {
	return func(c *config) { c.seed, c.threadID = seed, threadID }
}

// Generator produces DataObjects for a configured key range, size policy,
// and content policy. It is not safe for concurrent use; Clone gives each
// worker thread its own independent instance (spec.md §4.F, §5).
type Generator struct {
	cfg config

	nextKey [numPositiveIterators]uint64
	keyBuf  [keyScratchSize]byte

	valueBuf       []byte
	randomPartSize uint32
	mutationPos    uint32

	weighted weightedTable
	rnd      *rng.Source

	cur DataObject
}

// New builds a Generator from opts, validating the combined configuration
// and allocating its value buffer exactly once.
func New(opts ...Option) (*Generator, error) {
	var c config
	for _, opt := range opts {
		opt(&c)
	}

	if err := validate(&c); err != nil {
		return nil, err
	}

	g := &Generator{cfg: c, rnd: rng.New(c.seed, c.threadID)}
	if c.sizePolicy == SizeWeighted {
		g.weighted = buildWeightedTable(c.sizeWeighted)
	}
	g.allocValueBuffer()
	return g, nil
}

func validate(c *config) error {
	var err error

	if c.keyMax < c.keyMin {
		err = multierr.Append(err, fmt.Errorf("objgen: key range max (%d) < min (%d)", c.keyMax, c.keyMin))
	}
	maxKeyDigits := len(strconv.FormatUint(c.keyMax, 10))
	if len(c.prefix)+maxKeyDigits > keyScratchSize {
		err = multierr.Append(err, fmt.Errorf("objgen: prefix %q plus key digits exceeds the %d-byte key scratch", c.prefix, keyScratchSize))
	}

	if !c.sizePolicySet {
		err = multierr.Append(err, fmt.Errorf("objgen: no data size policy configured"))
	}
	switch c.sizePolicy {
	case SizeFixed:
		if c.sizeFixed == 0 {
			err = multierr.Append(err, fmt.Errorf("objgen: fixed data size must be > 0"))
		}
	case SizeRange:
		if c.sizeMin == 0 || c.sizeMax < c.sizeMin {
			err = multierr.Append(err, fmt.Errorf("objgen: invalid data size range [%d,%d]", c.sizeMin, c.sizeMax))
		}
	case SizeWeighted:
		if len(c.sizeWeighted) == 0 {
			err = multierr.Append(err, fmt.Errorf("objgen: weighted data size list is empty"))
		}
		for _, w := range c.sizeWeighted {
			if w.Size == 0 || w.Weight <= 0 {
				err = multierr.Append(err, fmt.Errorf("objgen: weighted data size entry {size:%d weight:%g} is invalid", w.Size, w.Weight))
			}
		}
	}

	if c.expiryMax < c.expiryMin {
		err = multierr.Append(err, fmt.Errorf("objgen: expiry range max (%d) < min (%d)", c.expiryMax, c.expiryMin))
	}
	if c.randomData && (c.compressionRatio < 0 || c.compressionRatio > 1) {
		err = multierr.Append(err, fmt.Errorf("objgen: compression ratio %g outside [0,1]", c.compressionRatio))
	}

	return err
}

func (g *Generator) maxValueSize() uint32 {
	switch g.cfg.sizePolicy {
	case SizeFixed:
		return g.cfg.sizeFixed
	case SizeRange:
		return g.cfg.sizeMax
	case SizeWeighted:
		var max uint32
		for _, w := range g.cfg.sizeWeighted {
			if w.Size > max {
				max = w.Size
			}
		}
		return max
	}
	return 0
}

// minValueSize reports the smallest value any call could produce, used by
// the CRC generator to validate that every value has room for its 4-byte
// checksum prefix.
func (g *Generator) minValueSize() uint32 {
	switch g.cfg.sizePolicy {
	case SizeFixed:
		return g.cfg.sizeFixed
	case SizeRange:
		return g.cfg.sizeMin
	case SizeWeighted:
		min := g.cfg.sizeWeighted[0].Size
		for _, w := range g.cfg.sizeWeighted {
			if w.Size < min {
				min = w.Size
			}
		}
		return min
	}
	return 0
}

// allocValueBuffer reproduces original_source/obj_gen.h's alloc_value_buffer:
// one allocation sized to the largest possible value plus tail overhead,
// with a random-seeded leading region and a deterministic repeating
// pattern for the rest, so the whole buffer's compressibility approaches
// the configured ratio.
func (g *Generator) allocValueBuffer() {
	size := g.maxValueSize() + valueBufferTailBytes
	g.valueBuf = make([]byte, size)

	if !g.cfg.randomData {
		g.randomPartSize = 0
	} else {
		g.randomPartSize = uint32(math.Ceil(float64(size) * float64(1-g.cfg.compressionRatio)))
		if g.randomPartSize > size {
			g.randomPartSize = size
		}
	}

	for i := uint32(0); i < g.randomPartSize; i++ {
		g.valueBuf[i] = byte(g.rnd.Uint64())
	}

	tail := g.valueBuf[g.randomPartSize:]
	if len(g.cfg.dataSizePattern) > 0 {
		for i := range tail {
			tail[i] = g.cfg.dataSizePattern[i%len(g.cfg.dataSizePattern)]
		}
	} else {
		for i := range tail {
			tail[i] = 'x'
		}
	}
}

func (g *Generator) nextKeyValue(iter int) uint64 {
	switch {
	case iter >= 0:
		idx := g.cfg.keyMin + g.nextKey[iter]%(g.cfg.keyMax-g.cfg.keyMin+1)
		g.nextKey[iter]++
		return idx
	case iter == IterRandom:
		return g.rnd.UniformRange(g.cfg.keyMin, g.cfg.keyMax)
	case iter == IterGaussian:
		return g.rnd.GaussianInRange(g.cfg.keyStddev, g.cfg.keyMedian, g.cfg.keyMin, g.cfg.keyMax)
	default:
		return g.cfg.keyMin
	}
}

// GetKey formats the key for iter ("{prefix}{index}") into the generator's
// 250-byte scratch buffer and returns a slice into it. The slice is valid
// until the next call on this generator.
func (g *Generator) GetKey(iter int) []byte {
	idx := g.nextKeyValue(iter)
	n := copy(g.keyBuf[:], g.cfg.prefix)
	return strconv.AppendUint(g.keyBuf[:n], idx, 10)
}

func (g *Generator) sizeForCall() uint32 {
	switch g.cfg.sizePolicy {
	case SizeFixed:
		return g.cfg.sizeFixed
	case SizeRange:
		return uint32(g.rnd.UniformRange(uint64(g.cfg.sizeMin), uint64(g.cfg.sizeMax)))
	case SizeWeighted:
		return g.weighted.draw(g.rnd)
	}
	return 0
}

func (g *Generator) expiryForCall() uint32 {
	if g.cfg.expiryMin == 0 && g.cfg.expiryMax == 0 {
		return 0
	}
	return uint32(g.rnd.UniformRange(uint64(g.cfg.expiryMin), uint64(g.cfg.expiryMax)))
}

// mutateValueBuffer refreshes one byte of the random region at the current
// mutation position, then advances the position modulo the region's size —
// the monotonic-cycling scheme spec.md §4.F and §5 describe, giving every
// call a unique value with zero per-request allocation.
func (g *Generator) mutateValueBuffer() {
	if g.randomPartSize == 0 {
		return
	}
	g.valueBuf[g.mutationPos] = byte(g.rnd.Uint64())
	g.mutationPos = (g.mutationPos + 1) % g.randomPartSize
}

// GetObject returns the DataObject for iter: a freshly produced key, a
// pointer into the value buffer sized per the configured policy, and a
// sampled expiry. The returned pointers are valid until the next call on
// this generator.
func (g *Generator) GetObject(iter int) *DataObject {
	key := g.GetKey(iter)
	size := g.sizeForCall()
	if max := uint32(len(g.valueBuf)); size > max {
		size = max
	}
	g.mutateValueBuffer()

	g.cur.Key = key
	g.cur.Value = g.valueBuf[:size]
	g.cur.Expiry = g.expiryForCall()
	return &g.cur
}

// Clone returns an independent Generator: a fresh PRNG stream seeded from
// this generator's next draw and its own copy of the value buffer, sharing
// no mutable state with the parent (spec.md §4.F "Cloning").
func (g *Generator) Clone() *Generator {
	clone := &Generator{
		cfg:            g.cfg,
		randomPartSize: g.randomPartSize,
		weighted:       g.weighted,
		rnd:            g.rnd.Clone(),
	}
	clone.valueBuf = make([]byte, len(g.valueBuf))
	copy(clone.valueBuf, g.valueBuf)
	return clone
}
