package metrics

import (
	"math"

	"github.com/san-kum/swervesim/internal/sim"
	"github.com/san-kum/swervesim/internal/swerve"
)

func headingError(s sim.Sample) float64 {
	return math.Abs(swerve.FromDegrees(s.HeadingDeg).Minus(swerve.FromDegrees(s.CommandDeg)).Degrees())
}

// rms accumulates a root mean square over live cycles.
type rms struct {
	name    string
	sumSq   float64
	samples int
	err     func(sim.Sample) float64
}

func (r *rms) Name() string { return r.name }

func (r *rms) Observe(s sim.Sample) {
	if s.Dropped {
		return
	}
	e := r.err(s)
	r.sumSq += e * e
	r.samples++
}

func (r *rms) Value() float64 {
	if r.samples == 0 {
		return 0
	}
	return math.Sqrt(r.sumSq / float64(r.samples))
}

func (r *rms) Reset() {
	r.sumSq = 0
	r.samples = 0
}

// NewHeadingError is the RMS angle in degrees between the measured heading
// and the commanded (optimized) heading, taken the short way round.
func NewHeadingError() sim.Metric {
	return &rms{name: "heading_rms_deg", err: headingError}
}

// NewSpeedError is the RMS difference between measured and commanded speed.
func NewSpeedError() sim.Metric {
	return &rms{name: "speed_rms", err: func(s sim.Sample) float64 {
		return s.Speed - s.CommandSpeed
	}}
}
