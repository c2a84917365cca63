package market

import (
	"fmt"
	"math/rand"
	"time"
)

// ValueConfig describes the range buyer valuations or seller costs are
// drawn from: every value from Min to Max at Increment steps appears once
// per cycle.
type ValueConfig struct {
	Min       float64 `yaml:"min" json:"min"`
	Max       float64 `yaml:"max" json:"max"`
	Increment float64 `yaml:"increment" json:"increment"`
}

// Validate rejects ranges the generator cannot deal: an empty or inverted
// range yields zero values, and a trader holding a zero valuation or cost
// can never submit a legal order.
func (c ValueConfig) Validate() error {
	if c.Min <= 0 {
		return fmt.Errorf("min must be positive, got %v", c.Min)
	}
	if c.Max < c.Min {
		return fmt.Errorf("max %v below min %v", c.Max, c.Min)
	}
	if c.Increment <= 0 {
		return fmt.Errorf("increment must be positive, got %v", c.Increment)
	}
	return nil
}

// Enumerate lists the values in the configured range, lowest first.
func (c ValueConfig) Enumerate() []float64 {
	step := c.Increment
	if step <= 0 {
		step = 1
	}
	var values []float64
	for v := c.Min; v <= c.Max+step/1e9; v += step {
		values = append(values, v)
	}
	return values
}

// ValueGenerator hands out valuations or costs by shuffled enumeration:
// the configured range is enumerated once, Fisher-Yates shuffled, and
// dealt in order. When the deck is exhausted it is reshuffled, so every
// value in the range is assigned once before any repeats.
type ValueGenerator struct {
	values []float64
	next   int
	rng    *rand.Rand
}

// NewValueGenerator builds a generator for the configured range. A zero
// seed uses the current time.
func NewValueGenerator(cfg ValueConfig, seed int64) *ValueGenerator {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	g := &ValueGenerator{
		values: cfg.Enumerate(),
		rng:    rand.New(rand.NewSource(seed)),
	}
	g.shuffle()
	return g
}

func (g *ValueGenerator) shuffle() {
	g.rng.Shuffle(len(g.values), func(i, j int) {
		g.values[i], g.values[j] = g.values[j], g.values[i]
	})
	g.next = 0
}

// Next returns the next value in the current shuffle.
func (g *ValueGenerator) Next() float64 {
	if len(g.values) == 0 {
		return 0
	}
	if g.next >= len(g.values) {
		g.shuffle()
	}
	v := g.values[g.next]
	g.next++
	return v
}
