package control

import "math"

// Feedforward is the usual permanent-magnet DC motor model:
// V = Ks*sign(v) + Kv*v + Ka*a.
type Feedforward struct {
	Ks float64 // volts to overcome static friction
	Kv float64 // volts per m/s
	Ka float64 // volts per m/s²
}

func (f Feedforward) Calculate(velocity, acceleration float64) float64 {
	sign := 0.0
	if velocity > 0 {
		sign = 1
	} else if velocity < 0 {
		sign = -1
	}
	return f.Ks*sign + f.Kv*velocity + f.Ka*acceleration
}

// MaxVelocity is the steady-state speed reachable with volts.
func (f Feedforward) MaxVelocity(volts float64) float64 {
	if f.Kv == 0 {
		return math.Inf(1)
	}
	return (volts - f.Ks) / f.Kv
}
