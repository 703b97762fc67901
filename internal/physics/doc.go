// Package physics provides the plant model behind the simulated swerve
// hardware.
//
// [WheelModule] implements [dynamo.System]: a drive motor spinning the wheel
// and a steering motor rotating it, each modelled as a first-order DC motor
// with inertia. State and control layout:
//
//	x = [wheel position m, wheel velocity m/s, steer angle rad, steer rate rad/s]
//	u = [drive volts, steer volts]
//
// The steer angle is continuous; it is not wrapped.
package physics
