package objgen

import (
	"fmt"
	"math"
	"strings"
	"testing"
)

func newTestGenerator(t *testing.T, opts ...Option) *Generator {
	t.Helper()
	base := []Option{
		WithKeyPrefix("memtier-"),
		WithKeyRange(0, 999),
		WithDataSizeFixed(32),
		WithSeed(1, 0),
	}
	g, err := New(append(base, opts...)...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return g
}

func TestPositiveIteratorIsSequential(t *testing.T) {
	g := newTestGenerator(t, WithKeyRange(10, 14))
	for k := uint64(0); k < 12; k++ {
		want := fmt.Sprintf("memtier-%d", 10+k%5)
		got := string(g.GetKey(IterGet))
		if got != want {
			t.Fatalf("call %d: GetKey(IterGet) = %q, want %q", k, got, want)
		}
	}
}

func TestSetAndGetIteratorsAreIndependent(t *testing.T) {
	g := newTestGenerator(t, WithKeyRange(0, 99))
	setKey0 := string(g.GetKey(IterSet))
	getKey0 := string(g.GetKey(IterGet))
	setKey1 := string(g.GetKey(IterSet))
	if setKey0 != "memtier-0" || getKey0 != "memtier-0" || setKey1 != "memtier-1" {
		t.Fatalf("iterators must keep independent cursors: got %q %q %q", setKey0, getKey0, setKey1)
	}
}

func TestRandomIteratorCoversRangeUniformly(t *testing.T) {
	g := newTestGenerator(t, WithKeyRange(0, 9))
	const n = 1_000_000
	counts := make(map[string]int)
	for i := 0; i < n; i++ {
		counts[string(g.GetKey(IterRandom))]++
	}
	if len(counts) != 10 {
		t.Fatalf("expected all 10 keys to appear, saw %d distinct keys", len(counts))
	}
	expected := float64(n) / 10
	for k, c := range counts {
		if math.Abs(float64(c)-expected)/expected > 0.01 {
			t.Fatalf("key %q count %d deviates >1%% from expected %v", k, c, expected)
		}
	}
}

func TestGaussianIteratorStaysInRangeAndCentered(t *testing.T) {
	g := newTestGenerator(t, WithKeyRange(0, 100), WithKeyDistribution(10, 50))
	var sum float64
	const n = 200_000
	for i := 0; i < n; i++ {
		key := string(g.GetKey(IterGaussian))
		var v int
		fmt.Sscanf(key, "memtier-%d", &v)
		if v < 0 || v > 100 {
			t.Fatalf("gaussian key %d escaped [0,100]", v)
		}
		sum += float64(v)
	}
	mean := sum / n
	if math.Abs(mean-50) > 0.05*10 {
		t.Fatalf("sample mean %.3f too far from median 50", mean)
	}
}

func TestFixedSizeIsExact(t *testing.T) {
	g := newTestGenerator(t, WithDataSizeFixed(64))
	obj := g.GetObject(IterGet)
	if len(obj.Value) != 64 {
		t.Fatalf("len(Value) = %d, want 64", len(obj.Value))
	}
}

func TestRangeSizeStaysInBounds(t *testing.T) {
	g := newTestGenerator(t, WithDataSizeRange(10, 20))
	for i := 0; i < 1000; i++ {
		obj := g.GetObject(IterGet)
		if len(obj.Value) < 10 || len(obj.Value) > 20 {
			t.Fatalf("range size out of bounds: %d", len(obj.Value))
		}
	}
}

func TestWeightedSizeMatchesConfiguredDistribution(t *testing.T) {
	g := newTestGenerator(t, WithDataSizeWeighted([]WeightedSize{
		{Size: 10, Weight: 1},
		{Size: 100, Weight: 3},
	}))
	const n = 1_000_000
	counts := map[uint32]int{}
	for i := 0; i < n; i++ {
		obj := g.GetObject(IterGet)
		counts[uint32(len(obj.Value))]++
	}
	want := map[uint32]float64{10: 0.25, 100: 0.75}
	for size, frac := range want {
		got := float64(counts[size]) / n
		if math.Abs(got-frac) > 0.01 {
			t.Fatalf("size %d: got fraction %.4f, want %.4f", size, got, frac)
		}
	}
}

func TestExpiryZeroWhenBothZero(t *testing.T) {
	g := newTestGenerator(t)
	obj := g.GetObject(IterGet)
	if obj.Expiry != 0 {
		t.Fatalf("Expiry = %d, want 0", obj.Expiry)
	}
}

func TestExpiryWithinRange(t *testing.T) {
	g := newTestGenerator(t, WithExpiryRange(5, 10))
	for i := 0; i < 1000; i++ {
		obj := g.GetObject(IterGet)
		if obj.Expiry < 5 || obj.Expiry > 10 {
			t.Fatalf("Expiry out of range: %d", obj.Expiry)
		}
	}
}

func TestCloneProducesIndependentStream(t *testing.T) {
	g := newTestGenerator(t, WithKeyRange(0, 1_000_000), WithDataSizeRange(1, 64), WithRandomData(0.5))
	clone := g.Clone()

	// Mutating the parent's value buffer must not affect the clone's copy.
	parentVal := g.GetObject(IterRandom).Value
	cloneVal := clone.GetObject(IterRandom).Value
	if &parentVal[0] == &cloneVal[0] {
		t.Fatalf("clone must not share the parent's value buffer")
	}
}

func TestValidationAggregatesMultipleErrors(t *testing.T) {
	_, err := New(
		WithKeyRange(100, 0), // max < min
		WithExpiryRange(10, 1), // max < min
	)
	if err == nil {
		t.Fatalf("expected validation error")
	}
	// multierr joins with newlines; expect every complaint present.
	msg := err.Error()
	for _, want := range []string{"key range", "expiry range", "no data size policy"} {
		if !strings.Contains(msg, want) {
			t.Fatalf("expected error to mention %q, got: %s", want, msg)
		}
	}
}
