package swerve

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownMotor indicates a Motor value that names no handle.
	ErrUnknownMotor = errors.New("swerve: unknown motor")

	// ErrInvalidConfig indicates a ModuleConfig that cannot drive hardware.
	ErrInvalidConfig = errors.New("swerve: invalid module config")
)

// DeviceInitError is returned by New when a device handle cannot be acquired
// or configured. The module is unusable.
type DeviceInitError struct {
	Device  string
	Channel int
	Err     error
}

func (e *DeviceInitError) Error() string {
	return fmt.Sprintf("swerve: init %s on channel %d: %v", e.Device, e.Channel, e.Err)
}

func (e *DeviceInitError) Unwrap() error {
	return e.Err
}

// DeviceIOError is a failed per-cycle read or write. The cycle is dropped and
// the module is unaffected.
type DeviceIOError struct {
	Op  string
	Err error
}

func (e *DeviceIOError) Error() string {
	return fmt.Sprintf("swerve: %s: %v", e.Op, e.Err)
}

func (e *DeviceIOError) Unwrap() error {
	return e.Err
}
