package control

import (
	"fmt"
	"math"
)

// PID is evaluated once per control period. The period is fixed because the
// control loop runs at a fixed rate.
type PID struct {
	Kp     float64
	Ki     float64
	Kd     float64
	Period float64

	// IntegralLimit bounds |Ki*integral|. Zero means unbounded.
	IntegralLimit float64

	integral float64
	prevErr  float64
	first    bool
}

func NewPID(kp, ki, kd, period float64) *PID {
	if period <= 0 {
		period = 0.02
	}
	return &PID{
		Kp:     kp,
		Ki:     ki,
		Kd:     kd,
		Period: period,
		first:  true,
	}
}

func (p *PID) Calculate(measurement, setpoint float64) float64 {
	err := setpoint - measurement

	if p.first {
		p.prevErr = err
		p.first = false
	}

	p.integral += err * p.Period
	if p.IntegralLimit > 0 && p.Ki != 0 {
		bound := p.IntegralLimit / math.Abs(p.Ki)
		p.integral = clamp(p.integral, -bound, bound)
	}
	derivative := (err - p.prevErr) / p.Period
	p.prevErr = err

	return p.Kp*err + p.Ki*p.integral + p.Kd*derivative
}

// Reset clears integral and derivative state
func (p *PID) Reset() {
	p.integral = 0
	p.prevErr = 0
	p.first = true
}

// GetParams returns tunable parameters for live adjustment
func (p *PID) GetParams() map[string]float64 {
	return map[string]float64{
		"kp": p.Kp,
		"ki": p.Ki,
		"kd": p.Kd,
	}
}

// SetParam adjusts a PID parameter
func (p *PID) SetParam(name string, value float64) error {
	switch name {
	case "kp":
		p.Kp = value
	case "ki":
		p.Ki = value
	case "kd":
		p.Kd = value
	default:
		return fmt.Errorf("pid: unknown parameter %q", name)
	}
	return nil
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
