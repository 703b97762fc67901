package dynamo

import (
	"fmt"
	"math"
)

// State is the plant state vector, laid out as the System defines.
type State []float64

// IsValid reports whether every component is finite.
func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Control holds one input per actuator, in volts for the wheel plant.
type Control []float64

// System is dX/dt = f(X, u, t).
type System interface {
	Derive(x State, u Control, t float64) State
	StateDim() int
	ControlDim() int
}

type Integrator interface {
	Step(dyn System, x State, u Control, t float64, dt float64) State
}

// Configurable is implemented by anything whose parameters can be changed
// by name while a loop is running.
type Configurable interface {
	GetParams() map[string]float64
	SetParam(name string, value float64) error
}

// Check verifies x and u fit sys and x is finite.
func Check(sys System, x State, u Control) error {
	if len(x) != sys.StateDim() {
		return fmt.Errorf("%w: state has %d components, system wants %d", ErrDimensionMismatch, len(x), sys.StateDim())
	}
	if len(u) != sys.ControlDim() {
		return fmt.Errorf("%w: control has %d components, system wants %d", ErrDimensionMismatch, len(u), sys.ControlDim())
	}
	if !x.IsValid() {
		return ErrInvalidState
	}
	return nil
}
