// Package control provides the feedback and feedforward pieces used to turn a
// wheel velocity setpoint into a drive voltage:
//
//   - [PID]: Proportional-Integral-Derivative controller on a fixed period
//   - [Feedforward]: static + velocity + acceleration motor model
//   - [Velocity]: Feedforward plus PID, clamped to the supply voltage
//
// # Usage
//
//	ctrl := control.NewVelocity(control.NewPID(0.1, 0, 0, 0.02), control.Feedforward{Ks: 0.2, Kv: 2.3}, 12)
//	volts := ctrl.Calculate(measured, setpoint)
//
// PID and Velocity implement dynamo.Configurable for live tuning from the
// shell's gain command.
package control
