package swerve

import (
	"fmt"
	"math"
	"strings"
)

// ModuleState is a wheel velocity and heading. The sign of Speed is the
// direction of travel along Angle.
type ModuleState struct {
	Speed float64  // m/s
	Angle Rotation
}

func (s ModuleState) String() string {
	return fmt.Sprintf("%.3f m/s @ %s", s.Speed, s.Angle)
}

// FlipPolicy decides what happens to the drive direction when Optimize turns
// the target heading around by π.
type FlipPolicy int

const (
	// FlipAngleOnly flips the heading and leaves Speed alone.
	FlipAngleOnly FlipPolicy = iota
	// FlipReverseDrive flips the heading and negates Speed, so the wheel
	// still pushes the robot the way the caller asked.
	FlipReverseDrive
)

func (p FlipPolicy) String() string {
	switch p {
	case FlipAngleOnly:
		return "angle_only"
	case FlipReverseDrive:
		return "reverse_drive"
	}
	return fmt.Sprintf("FlipPolicy(%d)", int(p))
}

func ParseFlipPolicy(s string) (FlipPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "angle_only":
		return FlipAngleOnly, nil
	case "reverse_drive":
		return FlipReverseDrive, nil
	}
	return FlipAngleOnly, fmt.Errorf("unknown flip policy %q (want angle_only or reverse_drive)", s)
}

// Optimize remaps target so the steering motor travels at most π/2 from
// heading. A target more than π/2 away is replaced by its antipode; policy
// decides whether Speed is negated along with it. Exactly π/2 is left alone.
func Optimize(target ModuleState, heading Rotation, policy FlipPolicy) ModuleState {
	delta := target.Angle.Minus(heading).Radians()
	if math.Abs(delta) <= math.Pi/2 {
		return target
	}

	flip := math.Pi
	if delta > 0 {
		flip = -math.Pi
	}
	out := ModuleState{
		Speed: target.Speed,
		Angle: FromRadians(target.Angle.Radians() + flip),
	}
	if policy == FlipReverseDrive {
		out.Speed = -out.Speed
	}
	return out
}

// Flipped reports whether Optimize turned target around.
func Flipped(target, optimized ModuleState) bool {
	return !target.Angle.Equal(optimized.Angle)
}
