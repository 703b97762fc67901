package physics

import (
	"fmt"

	"github.com/san-kum/swervesim/internal/dynamo"
)

const (
	WheelPos = iota
	WheelVel
	SteerAngle
	SteerRate
)

// WheelModule models one swerve module as two independent motors.
// For each axis: V = Ks*sign(w) + Kv*w + Ka*dw/dt.
type WheelModule struct {
	DriveKs float64 // V
	DriveKv float64 // V per m/s
	DriveKa float64 // V per m/s²
	SteerKs float64
	SteerKv float64 // V per rad/s
	SteerKa float64 // V per rad/s²
}

func NewWheelModule() *WheelModule {
	return &WheelModule{
		DriveKs: 0.15,
		DriveKv: 2.3,
		DriveKa: 0.25,
		SteerKs: 0.1,
		SteerKv: 0.5,
		SteerKa: 0.015,
	}
}

func (w *WheelModule) StateDim() int {
	return 4
}

func (w *WheelModule) ControlDim() int {
	return 2
}

func (w *WheelModule) Derive(x dynamo.State, u dynamo.Control, t float64) dynamo.State {
	driveV, steerV := 0.0, 0.0
	if len(u) > 0 {
		driveV = u[0]
	}
	if len(u) > 1 {
		steerV = u[1]
	}

	vel := x[WheelVel]
	rate := x[SteerRate]

	return dynamo.State{
		vel,
		motorAccel(driveV, vel, w.DriveKs, w.DriveKv, w.DriveKa),
		rate,
		motorAccel(steerV, rate, w.SteerKs, w.SteerKv, w.SteerKa),
	}
}

// motorAccel solves V = Ks*sign(w) + Kv*w + Ka*a for a. Static friction
// holds a motor at rest until the voltage exceeds Ks.
func motorAccel(volts, w, ks, kv, ka float64) float64 {
	if ka <= 0 {
		return 0
	}
	if w == 0 {
		switch {
		case volts > ks:
			return (volts - ks) / ka
		case volts < -ks:
			return (volts + ks) / ka
		}
		return 0
	}
	friction := ks
	if w < 0 {
		friction = -ks
	}
	return (volts - friction - kv*w) / ka
}

// SteadyDriveVelocity is the wheel speed reached holding volts on the drive.
func (w *WheelModule) SteadyDriveVelocity(volts float64) float64 {
	switch {
	case volts > w.DriveKs:
		return (volts - w.DriveKs) / w.DriveKv
	case volts < -w.DriveKs:
		return (volts + w.DriveKs) / w.DriveKv
	}
	return 0
}

func (w *WheelModule) GetParams() map[string]float64 {
	return map[string]float64{
		"drive_ks": w.DriveKs,
		"drive_kv": w.DriveKv,
		"drive_ka": w.DriveKa,
		"steer_ks": w.SteerKs,
		"steer_kv": w.SteerKv,
		"steer_ka": w.SteerKa,
	}
}

func (w *WheelModule) SetParam(name string, value float64) error {
	switch name {
	case "drive_ks":
		w.DriveKs = value
	case "drive_kv":
		w.DriveKv = value
	case "drive_ka":
		w.DriveKa = value
	case "steer_ks":
		w.SteerKs = value
	case "steer_kv":
		w.SteerKv = value
	case "steer_ka":
		w.SteerKa = value
	default:
		return fmt.Errorf("unknown param: %s", name)
	}
	return nil
}
