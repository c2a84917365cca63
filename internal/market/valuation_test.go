package market

import (
	"sort"
	"testing"
)

func TestValueConfigEnumerate(t *testing.T) {
	cfg := ValueConfig{Min: 10, Max: 30, Increment: 5}
	got := cfg.Enumerate()
	want := []float64{10, 15, 20, 25, 30}

	if len(got) != len(want) {
		t.Fatalf("expected %d values, got %d (%v)", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("value %d: expected %v, got %v", i, want[i], got[i])
		}
	}
}

func TestValueConfigValidate(t *testing.T) {
	cases := []struct {
		name string
		cfg  ValueConfig
		ok   bool
	}{
		{"valid range", ValueConfig{Min: 10, Max: 30, Increment: 5}, true},
		{"single value", ValueConfig{Min: 60, Max: 60, Increment: 1}, true},
		{"zero config", ValueConfig{}, false},
		{"inverted range", ValueConfig{Min: 60, Max: 50, Increment: 1}, false},
		{"zero min", ValueConfig{Min: 0, Max: 50, Increment: 1}, false},
		{"zero increment", ValueConfig{Min: 10, Max: 30, Increment: 0}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if tc.ok && err != nil {
				t.Errorf("expected valid, got %v", err)
			}
			if !tc.ok && err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestValueGeneratorDealsFullCycle(t *testing.T) {
	cfg := ValueConfig{Min: 10, Max: 50, Increment: 10}
	gen := NewValueGenerator(cfg, 42)

	var drawn []float64
	for i := 0; i < 5; i++ {
		drawn = append(drawn, gen.Next())
	}
	sort.Float64s(drawn)

	want := []float64{10, 20, 30, 40, 50}
	for i := range want {
		if drawn[i] != want[i] {
			t.Fatalf("first cycle must deal every value once, got %v", drawn)
		}
	}
}

func TestValueGeneratorReshufflesOnWrap(t *testing.T) {
	cfg := ValueConfig{Min: 1, Max: 3, Increment: 1}
	gen := NewValueGenerator(cfg, 7)

	seen := make(map[float64]int)
	for i := 0; i < 6; i++ {
		seen[gen.Next()]++
	}
	for v := 1.0; v <= 3; v++ {
		if seen[v] != 2 {
			t.Fatalf("expected each value twice over two cycles, got %v", seen)
		}
	}
}

func TestValueGeneratorDeterministicWithSeed(t *testing.T) {
	cfg := ValueConfig{Min: 10, Max: 100, Increment: 10}
	a := NewValueGenerator(cfg, 99)
	b := NewValueGenerator(cfg, 99)

	for i := 0; i < 10; i++ {
		if av, bv := a.Next(), b.Next(); av != bv {
			t.Fatalf("same seed must produce same sequence, diverged at draw %d: %v vs %v", i, av, bv)
		}
	}
}
