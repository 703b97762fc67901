package sim

import (
	"fmt"
	"math"
	"sort"

	"github.com/san-kum/swervesim/internal/swerve"
)

type profileFunc struct {
	name string
	fn   func(t float64) swerve.ModuleState
}

func (p profileFunc) Name() string                        { return p.name }
func (p profileFunc) Target(t float64) swerve.ModuleState { return p.fn(t) }

type profileMaker func(speed, angleDeg float64) func(t float64) swerve.ModuleState

var profiles = map[string]profileMaker{
	// hold one target
	"constant": func(speed, deg float64) func(float64) swerve.ModuleState {
		st := swerve.ModuleState{Speed: speed, Angle: swerve.FromDegrees(deg)}
		return func(float64) swerve.ModuleState { return st }
	},
	// rest for half a second, then jump to the target
	"step": func(speed, deg float64) func(float64) swerve.ModuleState {
		st := swerve.ModuleState{Speed: speed, Angle: swerve.FromDegrees(deg)}
		return func(t float64) swerve.ModuleState {
			if t < 0.5 {
				return swerve.ModuleState{}
			}
			return st
		}
	},
	// heading turns at angleDeg per second
	"sweep": func(speed, deg float64) func(float64) swerve.ModuleState {
		return func(t float64) swerve.ModuleState {
			return swerve.ModuleState{Speed: speed, Angle: swerve.FromDegrees(deg * t)}
		}
	},
	// heading alternates between ±angleDeg every second, speed follows
	"square": func(speed, deg float64) func(float64) swerve.ModuleState {
		return func(t float64) swerve.ModuleState {
			if int(math.Floor(t))%2 == 0 {
				return swerve.ModuleState{Speed: speed, Angle: swerve.FromDegrees(deg)}
			}
			return swerve.ModuleState{Speed: -speed, Angle: swerve.FromDegrees(-deg)}
		}
	},
}

func NewProfile(name string, speed, angleDeg float64) (Profile, error) {
	mk, ok := profiles[name]
	if !ok {
		return nil, fmt.Errorf("unknown profile: %s", name)
	}
	return profileFunc{name: name, fn: mk(speed, angleDeg)}, nil
}

func ListProfiles() []string {
	names := make([]string, 0, len(profiles))
	for name := range profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
