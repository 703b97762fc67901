package metrics

import "github.com/san-kum/swervesim/internal/sim"

type counter struct {
	name  string
	count int
	match func(sim.Sample) bool
}

func (c *counter) Name() string { return c.name }

func (c *counter) Observe(s sim.Sample) {
	if c.match(s) {
		c.count++
	}
}

func (c *counter) Value() float64 { return float64(c.count) }
func (c *counter) Reset()         { c.count = 0 }

// NewFlipCount counts cycles where the target was turned around.
func NewFlipCount() sim.Metric {
	return &counter{name: "flips", match: func(s sim.Sample) bool { return s.Flipped }}
}

func NewDroppedCycles() sim.Metric {
	return &counter{name: "dropped", match: func(s sim.Sample) bool { return s.Dropped }}
}

// Default is the metric set attached to every stored run.
func Default() []sim.Metric {
	return []sim.Metric{
		NewHeadingError(),
		NewSpeedError(),
		NewControlEffort(),
		NewTracking(5),
		NewFlipCount(),
		NewDroppedCycles(),
	}
}
