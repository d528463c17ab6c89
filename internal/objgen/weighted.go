package objgen

import "kvbench/internal/rng"

// WeightedSize is one (size, weight) entry of a weighted value-size
// distribution (spec.md §4.F "weighted(list)"). Weights are relative, not
// required to sum to 1.
type WeightedSize struct {
	Size   uint32
	Weight float64
}

// weightedTable resolves a weighted size list to a cumulative-weight draw
// table, letting repeated draws do a single comparison walk instead of
// rebuilding state every call. This is the Open Question resolution noted
// in SPEC_FULL.md: cumulative-weight-with-uniform-sample, generalizing the
// proportional-repetition trick in mattrobenolt-go-memcached-siege's
// prefix-weight expansion (other_examples) to non-integer weights.
type weightedTable struct {
	sizes      []uint32
	cumulative []float64
	total      float64
}

func buildWeightedTable(list []WeightedSize) weightedTable {
	t := weightedTable{
		sizes:      make([]uint32, len(list)),
		cumulative: make([]float64, len(list)),
	}
	var running float64
	for i, w := range list {
		running += w.Weight
		t.sizes[i] = w.Size
		t.cumulative[i] = running
	}
	t.total = running
	return t
}

// draw picks one entry proportional to its configured weight.
func (t weightedTable) draw(s *rng.Source) uint32 {
	if t.total <= 0 || len(t.sizes) == 0 {
		return 0
	}
	target := (float64(s.Uint64()%1_000_000_007) / 1_000_000_007.0) * t.total
	for i, cum := range t.cumulative {
		if target < cum {
			return t.sizes[i]
		}
	}
	return t.sizes[len(t.sizes)-1]
}
