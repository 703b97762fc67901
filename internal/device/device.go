package device

import "errors"

var (
	// ErrNoDevice indicates nothing answered on the requested channel.
	ErrNoDevice = errors.New("device: no device on channel")

	// ErrTimeout indicates a bus transaction did not complete in time.
	ErrTimeout = errors.New("device: bus timeout")

	// ErrStale indicates a read found no recent status from the device.
	ErrStale = errors.New("device: stale status")

	// ErrInvalidChannel indicates a channel number outside the bus range.
	ErrInvalidChannel = errors.New("device: invalid channel")
)

// MaxChannel is the highest addressable device channel.
const MaxChannel = 62

type AbsoluteRange int

const (
	RangeUnsigned0To360 AbsoluteRange = iota
	RangeSigned180
)

func (r AbsoluteRange) String() string {
	switch r {
	case RangeUnsigned0To360:
		return "unsigned_0_to_360"
	case RangeSigned180:
		return "signed_pm180"
	}
	return "unknown"
}

type InitStrategy int

const (
	BootToAbsolute InitStrategy = iota
	BootToZero
)

func (s InitStrategy) String() string {
	switch s {
	case BootToAbsolute:
		return "boot_to_absolute"
	case BootToZero:
		return "boot_to_zero"
	}
	return "unknown"
}

// Gains is one closed-loop gain slot.
type Gains struct {
	P, I, D float64
}

// GainConfigurer programs closed-loop gains into a slot on the device.
type GainConfigurer interface {
	ConfigGains(slot int, g Gains) error
}

// TranslationActuator is the motor that drives the wheel.
// Velocity is reported in native counts per 100 ms.
type TranslationActuator interface {
	GainConfigurer
	SetVoltage(volts float64) error
	SetPositionCounter(counts float64) error
	VelocityCounts() (float64, error)
	ConfigVoltageCompensation(volts float64) error
	ConfigRamps(openLoopSec, closedLoopSec float64) error
}

// RotationActuator is the motor that steers the wheel. Its onboard position
// loop runs against a remote feedback sensor.
type RotationActuator interface {
	GainConfigurer
	SetPositionCommand(counts float64) error
	ConfigRemoteFeedback(sensorID int, coefficient float64) error
}

// AngleSensor is an absolute magnetic encoder on the steering axis.
// Angles are in degrees.
type AngleSensor interface {
	ID() int
	ConfigAbsoluteRange(r AbsoluteRange) error
	ConfigInitStrategy(s InitStrategy) error
	ConfigMagnetOffset(deg float64) error
	ConfigDirection(clockwisePositive bool) error
	SetPositionToAbsolute() error
	SetPosition(deg float64) error
	AbsolutePosition() (float64, error)
	Position() (float64, error)
}

// Provider hands out device handles by bus channel.
type Provider interface {
	TranslationActuator(channel int) (TranslationActuator, error)
	RotationActuator(channel int) (RotationActuator, error)
	AngleSensor(channel int) (AngleSensor, error)
}

// ValidChannel reports whether ch is addressable.
func ValidChannel(ch int) bool {
	return ch >= 0 && ch <= MaxChannel
}
