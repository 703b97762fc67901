package dynamo

import (
	"errors"
	"math"
	"testing"
)

func TestStateIsValid(t *testing.T) {
	tests := []struct {
		s     State
		valid bool
	}{
		{State{0, 1}, true},
		{State{math.NaN(), 1}, false},
		{State{1, math.Inf(-1)}, false},
		{State{}, true},
	}
	for _, tt := range tests {
		if got := tt.s.IsValid(); got != tt.valid {
			t.Errorf("IsValid(%v): expected %v, got %v", tt.s, tt.valid, got)
		}
	}
}

type twoByOne struct{}

func (twoByOne) Derive(x State, u Control, t float64) State { return State{x[1], u[0]} }
func (twoByOne) StateDim() int                              { return 2 }
func (twoByOne) ControlDim() int                            { return 1 }

func TestCheck(t *testing.T) {
	tests := []struct {
		name string
		x    State
		u    Control
		want error
	}{
		{"ok", State{0, 1}, Control{2}, nil},
		{"short state", State{0}, Control{2}, ErrDimensionMismatch},
		{"long control", State{0, 1}, Control{2, 3}, ErrDimensionMismatch},
		{"nan", State{math.NaN(), 1}, Control{2}, ErrInvalidState},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Check(twoByOne{}, tt.x, tt.u)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}
