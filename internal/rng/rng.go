// Package rng provides the uniform and Gaussian draws the workload
// generator composes its key and value distributions from, grounded on
// memtier_benchmark's random_generator/gaussian_noise pair
// (original_source/obj_gen.h).
package rng

import (
	"encoding/binary"
	"math"
	"math/rand"

	"github.com/cespare/xxhash/v2"
)

// Source is a single-threaded PRNG stream. It is not safe for concurrent
// use; callers running one generator per worker thread construct one
// Source per thread via New, which mixes the seed with the thread id so
// concurrent streams never collide.
type Source struct {
	r *rand.Rand

	hasSpare bool
	spare    float64
}

// New derives a Source for the given thread/worker id from seed. Two
// threads with the same seed and different ids produce disjoint streams;
// the same (seed, id) pair always reproduces the same stream.
func New(seed int64, threadID int) *Source {
	var mix [16]byte
	binary.LittleEndian.PutUint64(mix[0:8], uint64(seed))
	binary.LittleEndian.PutUint64(mix[8:16], uint64(threadID))
	mixed := int64(xxhash.Sum64(mix[:]))
	return &Source{r: rand.New(rand.NewSource(mixed))}
}

// Clone derives an independent Source seeded from this one's next draw, so
// a cloned object generator never shares a mutable PRNG with its parent.
func (s *Source) Clone() *Source {
	salt := int64(s.r.Uint64())
	return New(salt, 0)
}

// Uint64 returns a uniform draw over the full 64-bit range.
func (s *Source) Uint64() uint64 {
	return s.r.Uint64()
}

// UniformRange returns a uniform draw in [min, max], inclusive.
func (s *Source) UniformRange(min, max uint64) uint64 {
	if max <= min {
		return min
	}
	span := max - min + 1
	return min + s.r.Uint64()%span
}

// gaussian draws one sample from a standard-deviation-stddev, zero-mean
// normal distribution using Marsaglia's polar method, caching the unused
// second value the way original_source/obj_gen.h's gaussian_noise does.
func (s *Source) gaussian(stddev float64) float64 {
	if s.hasSpare {
		s.hasSpare = false
		return s.spare * stddev
	}

	var u, v, sq float64
	for {
		u = 2*s.r.Float64() - 1
		v = 2*s.r.Float64() - 1
		sq = u*u + v*v
		if sq > 0 && sq < 1 {
			break
		}
	}
	mul := math.Sqrt(-2 * math.Log(sq) / sq)
	s.spare = v * mul
	s.hasSpare = true
	return u * mul * stddev
}

// GaussianInRange draws from N(median, stddev²), discarding and redrawing
// any sample that falls outside [min, max] — truncating the distribution
// rather than clipping it to the boundary, so probability mass doesn't pile
// up at the edges (spec.md §4.B).
func (s *Source) GaussianInRange(stddev, median float64, min, max uint64) uint64 {
	for {
		v := median + s.gaussian(stddev)
		if v < 0 {
			continue
		}
		iv := uint64(math.Round(v))
		if iv >= min && iv <= max {
			return iv
		}
	}
}

// NormalDistribution maps (min, max, stddev, median) to a key in range by
// drawing Gaussian, rounding, and truncating — the same operation as
// GaussianInRange, kept as a distinct name to mirror
// original_source/obj_gen.h's object_generator::normal_distribution.
func (s *Source) NormalDistribution(min, max uint64, stddev, median float64) uint64 {
	return s.GaussianInRange(stddev, median, min, max)
}
