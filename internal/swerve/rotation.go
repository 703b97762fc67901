package swerve

import (
	"fmt"
	"math"
)

const rotationEpsilon = 1e-9

// Rotation is a planar angle kept in canonical form, radians in (-π, π].
// Two rotations that differ by whole turns are the same value.
type Rotation struct {
	rad float64
}

func FromRadians(rad float64) Rotation {
	return Rotation{rad: wrapAngle(rad)}
}

func FromDegrees(deg float64) Rotation {
	return FromRadians(deg * math.Pi / 180)
}

func (r Rotation) Radians() float64 { return r.rad }
func (r Rotation) Degrees() float64 { return r.rad * 180 / math.Pi }

func (r Rotation) Plus(o Rotation) Rotation  { return FromRadians(r.rad + o.rad) }
func (r Rotation) Minus(o Rotation) Rotation { return FromRadians(r.rad - o.rad) }

// Equal compares canonical values, tolerating float noise near the ±π seam.
func (r Rotation) Equal(o Rotation) bool {
	return math.Abs(r.Minus(o).rad) < rotationEpsilon
}

func (r Rotation) String() string {
	return fmt.Sprintf("%.2f°", r.Degrees())
}

// wrapAngle maps any angle onto (-π, π].
func wrapAngle(rad float64) float64 {
	if math.IsNaN(rad) || math.IsInf(rad, 0) {
		return rad
	}
	r := math.Mod(rad+math.Pi, 2*math.Pi)
	if r <= 0 {
		r += 2 * math.Pi
	}
	return r - math.Pi
}
