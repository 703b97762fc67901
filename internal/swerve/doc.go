// Package swerve implements the control unit for a single swerve module: one
// drive motor, one steering motor and an absolute angle sensor on the
// steering axis.
//
// Each control cycle the caller hands the module a desired [ModuleState]. The
// module reads its current heading, remaps the target so the wheel never has
// to steer more than 90 degrees ([Optimize]), runs the drive velocity
// controller and writes a voltage to the drive motor and a position target to
// the steering motor.
//
// # Usage
//
//	m, err := swerve.New(provider, swerve.Channels{Drive: 1, Turn: 2, Sensor: 3}, cfg, ctrl)
//	if err != nil {
//		// *DeviceInitError: abort startup for this module
//	}
//	defer m.Close()
//
//	if err := m.SetDesiredState(swerve.ModuleState{Speed: 2.0, Angle: swerve.FromDegrees(170)}); err != nil {
//		// *DeviceIOError: drop this cycle, the next one retries
//	}
//
// # Thread Safety
//
// A Module is NOT safe for concurrent use. Drive it from one control loop.
package swerve
