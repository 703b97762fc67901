package control

import (
	"fmt"

	"github.com/san-kum/swervesim/internal/dynamo"
)

var (
	_ dynamo.Configurable = (*Velocity)(nil)
	_ dynamo.Configurable = (*PID)(nil)
)

// Velocity drives a wheel velocity setpoint with feedforward plus PID
// correction, clamped to ±MaxVolts.
type Velocity struct {
	PID      *PID
	FF       Feedforward
	MaxVolts float64
}

func NewVelocity(pid *PID, ff Feedforward, maxVolts float64) *Velocity {
	return &Velocity{PID: pid, FF: ff, MaxVolts: maxVolts}
}

func (v *Velocity) Calculate(measurement, setpoint float64) float64 {
	out := v.FF.Calculate(setpoint, 0)
	if v.PID != nil {
		out += v.PID.Calculate(measurement, setpoint)
	}
	if v.MaxVolts > 0 {
		out = clamp(out, -v.MaxVolts, v.MaxVolts)
	}
	return out
}

// Reset clears the PID's accumulated state.
func (v *Velocity) Reset() {
	if v.PID != nil {
		v.PID.Reset()
	}
}

func (v *Velocity) GetParams() map[string]float64 {
	params := map[string]float64{
		"ks": v.FF.Ks,
		"kv": v.FF.Kv,
		"ka": v.FF.Ka,
	}
	if v.PID != nil {
		for k, val := range v.PID.GetParams() {
			params[k] = val
		}
	}
	return params
}

func (v *Velocity) SetParam(name string, value float64) error {
	switch name {
	case "ks":
		v.FF.Ks = value
	case "kv":
		v.FF.Kv = value
	case "ka":
		v.FF.Ka = value
	default:
		if v.PID == nil {
			return fmt.Errorf("velocity: unknown parameter %q", name)
		}
		return v.PID.SetParam(name, value)
	}
	return nil
}
