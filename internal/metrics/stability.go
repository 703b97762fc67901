package metrics

import (
	"github.com/san-kum/swervesim/internal/sim"
)

// Tracking is the fraction of live cycles whose measured heading is within
// threshold degrees of the commanded heading.
type Tracking struct {
	name       string
	threshold  float64
	violations int
	samples    int
}

func NewTracking(thresholdDeg float64) *Tracking {
	return &Tracking{
		name:      "tracking",
		threshold: thresholdDeg,
	}
}

func (s *Tracking) Name() string {
	return s.name
}

func (s *Tracking) Observe(x sim.Sample) {
	if x.Dropped {
		return
	}
	s.samples++
	if headingError(x) > s.threshold {
		s.violations++
	}
}

func (s *Tracking) Value() float64 {
	if s.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(s.violations)/float64(s.samples)
}

func (s *Tracking) Reset() {
	s.violations = 0
	s.samples = 0
}
