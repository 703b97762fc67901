// Package sim drives one swerve module through a fixed-period control loop
// against a target profile and records what happened each cycle.
package sim

import (
	"github.com/san-kum/swervesim/internal/swerve"
)

// Module is the part of *swerve.Module the runner uses.
type Module interface {
	SetDesiredState(target swerve.ModuleState) error
	StateE() (swerve.ModuleState, error)
	LastCommand() (swerve.Command, bool)
}

// Plant advances simulated hardware. Hardware backends have none.
type Plant interface {
	Step(dt float64)
}

// VoltageReporter is implemented by plants that expose applied motor voltage.
type VoltageReporter interface {
	DriveVolts() float64
	SteerVolts() float64
}

type Profile interface {
	Name() string
	Target(t float64) swerve.ModuleState
}

type Metric interface {
	Name() string
	Observe(s Sample)
	Value() float64
	Reset()
}

type Observer interface {
	OnCycle(s Sample)
}

// Sample is one control cycle. Angles are in degrees.
type Sample struct {
	Time         float64 `json:"t" cbor:"1,keyasint"`
	TargetSpeed  float64 `json:"target_speed" cbor:"2,keyasint"`
	TargetDeg    float64 `json:"target_deg" cbor:"3,keyasint"`
	CommandSpeed float64 `json:"command_speed" cbor:"4,keyasint"`
	CommandDeg   float64 `json:"command_deg" cbor:"5,keyasint"`
	Speed        float64 `json:"speed" cbor:"6,keyasint"`
	HeadingDeg   float64 `json:"heading_deg" cbor:"7,keyasint"`
	DriveVolts   float64 `json:"drive_volts" cbor:"8,keyasint"`
	SteerVolts   float64 `json:"steer_volts" cbor:"9,keyasint"`
	Flipped      bool    `json:"flipped" cbor:"10,keyasint"`
	Dropped      bool    `json:"dropped" cbor:"11,keyasint"`
}

type Config struct {
	Period   float64 // s
	Duration float64 // s
	RealTime bool    // pace cycles against the wall clock
}

type Result struct {
	Samples []Sample
	Metrics map[string]float64
	Cycles  int
	Dropped int
}
