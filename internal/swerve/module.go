package swerve

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"

	"github.com/san-kum/swervesim/internal/device"
)

// VelocityController turns a drive velocity setpoint into a motor voltage.
// It is configured by the caller and owned by the module afterwards.
type VelocityController interface {
	Calculate(measurement, setpoint float64) float64
}

// Motor selects one of the module's actuators.
type Motor int

const (
	DriveMotor Motor = iota
	TurnMotor
)

func (m Motor) String() string {
	switch m {
	case DriveMotor:
		return "drive"
	case TurnMotor:
		return "turn"
	}
	return fmt.Sprintf("Motor(%d)", int(m))
}

func ParseMotor(s string) (Motor, error) {
	switch s {
	case "drive":
		return DriveMotor, nil
	case "turn":
		return TurnMotor, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownMotor, s)
}

// Channels are the bus addresses of the three devices of one module.
type Channels struct {
	Drive  int `yaml:"drive"`
	Turn   int `yaml:"turn"`
	Sensor int `yaml:"sensor"`
}

// ModuleConfig holds the calibration constants of one module. The module
// keeps its own copy.
type ModuleConfig struct {
	SensorOffsetDeg       float64
	SensorInverted        bool
	TurnKP                float64
	EncoderCPR            float64 // steering counts per revolution
	DriveDistancePerPulse float64 // metres per drive count
	VoltageCompSaturation float64
	OpenLoopRamp          float64 // seconds from neutral to full output
	ClosedLoopRamp        float64
	FlipPolicy            FlipPolicy
}

func DefaultModuleConfig() ModuleConfig {
	return ModuleConfig{
		SensorInverted:        true,
		TurnKP:                0.6,
		EncoderCPR:            4096,
		DriveDistancePerPulse: 0.1016 * math.Pi / (2048 * 6.75),
		VoltageCompSaturation: 10,
		OpenLoopRamp:          0.5,
		ClosedLoopRamp:        0.5,
		FlipPolicy:            FlipAngleOnly,
	}
}

func (c ModuleConfig) Validate() error {
	if c.EncoderCPR <= 0 {
		return fmt.Errorf("%w: encoder cpr must be positive, got %g", ErrInvalidConfig, c.EncoderCPR)
	}
	if c.DriveDistancePerPulse <= 0 {
		return fmt.Errorf("%w: drive distance per pulse must be positive, got %g", ErrInvalidConfig, c.DriveDistancePerPulse)
	}
	if c.VoltageCompSaturation <= 0 {
		return fmt.Errorf("%w: voltage compensation must be positive, got %g", ErrInvalidConfig, c.VoltageCompSaturation)
	}
	if c.OpenLoopRamp < 0 || c.ClosedLoopRamp < 0 {
		return fmt.Errorf("%w: ramps must not be negative", ErrInvalidConfig)
	}
	return nil
}

// Command is what the module last wrote to its actuators.
type Command struct {
	Target    ModuleState
	Optimized ModuleState
	Heading   Rotation
	Volts     float64
	Counts    float64
}

type Option func(*Module)

func WithLogger(l *slog.Logger) Option {
	return func(m *Module) {
		if l != nil {
			m.log = l
		}
	}
}

// Module is the control unit of one swerve module.
type Module struct {
	drive  device.TranslationActuator
	turn   device.RotationActuator
	sensor device.AngleSensor
	ctrl   VelocityController
	cfg    ModuleConfig
	log    *slog.Logger

	last    Command
	hasLast bool
}

// New acquires the three devices of a module from p and configures them. Any
// failure is reported as a *DeviceInitError; handles acquired before the
// failure are closed and no module is returned.
func New(p device.Provider, ch Channels, cfg ModuleConfig, ctrl VelocityController, opts ...Option) (*Module, error) {
	if err := cfg.Validate(); err != nil {
		return nil, &DeviceInitError{Device: "module", Channel: ch.Drive, Err: err}
	}
	if ctrl == nil {
		return nil, &DeviceInitError{Device: "module", Channel: ch.Drive, Err: errors.New("nil drive controller")}
	}

	m := &Module{
		ctrl: ctrl,
		cfg:  cfg,
		log:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(m)
	}

	var err error
	if m.drive, err = p.TranslationActuator(ch.Drive); err != nil {
		return nil, &DeviceInitError{Device: "drive motor", Channel: ch.Drive, Err: err}
	}
	if m.turn, err = p.RotationActuator(ch.Turn); err != nil {
		m.Close()
		return nil, &DeviceInitError{Device: "turn motor", Channel: ch.Turn, Err: err}
	}
	if m.sensor, err = p.AngleSensor(ch.Sensor); err != nil {
		m.Close()
		return nil, &DeviceInitError{Device: "angle sensor", Channel: ch.Sensor, Err: err}
	}

	if err := m.configure(ch); err != nil {
		m.Close()
		return nil, err
	}

	m.log.Info("swerve module ready",
		"drive", ch.Drive, "turn", ch.Turn, "sensor", ch.Sensor,
		"offset_deg", cfg.SensorOffsetDeg, "flip_policy", cfg.FlipPolicy.String())
	return m, nil
}

func (m *Module) configure(ch Channels) error {
	s := m.sensor
	steps := []struct {
		device  string
		channel int
		run     func() error
	}{
		{"angle sensor", ch.Sensor, func() error { return s.ConfigAbsoluteRange(device.RangeUnsigned0To360) }},
		{"angle sensor", ch.Sensor, func() error { return s.ConfigInitStrategy(device.BootToAbsolute) }},
		{"angle sensor", ch.Sensor, func() error { return s.ConfigMagnetOffset(m.cfg.SensorOffsetDeg) }},
		{"angle sensor", ch.Sensor, func() error { return s.ConfigDirection(m.cfg.SensorInverted) }},
		{"angle sensor", ch.Sensor, s.SetPositionToAbsolute},
		{"turn motor", ch.Turn, func() error { return m.turn.ConfigRemoteFeedback(s.ID(), 1.0) }},
		{"turn motor", ch.Turn, func() error { return m.turn.ConfigGains(0, device.Gains{P: m.cfg.TurnKP}) }},
		{"drive motor", ch.Drive, func() error { return m.drive.ConfigVoltageCompensation(m.cfg.VoltageCompSaturation) }},
		{"drive motor", ch.Drive, func() error { return m.drive.ConfigRamps(m.cfg.OpenLoopRamp, m.cfg.ClosedLoopRamp) }},
	}
	for _, st := range steps {
		if err := st.run(); err != nil {
			return &DeviceInitError{Device: st.device, Channel: st.channel, Err: err}
		}
	}
	return nil
}

// State reports the measured wheel velocity and heading. A failed read
// contributes a zero to the result instead of an error.
func (m *Module) State() ModuleState {
	st, err := m.StateE()
	if err != nil {
		m.log.Debug("state read degraded", "err", err)
	}
	return st
}

// StateE is State with the read error surfaced.
func (m *Module) StateE() (ModuleState, error) {
	var errs []error

	counts, err := m.drive.VelocityCounts()
	if err != nil {
		counts = 0
		errs = append(errs, fmt.Errorf("drive velocity: %w", err))
	}
	deg, err := m.sensor.AbsolutePosition()
	if err != nil {
		deg = 0
		errs = append(errs, fmt.Errorf("absolute position: %w", err))
	}

	st := ModuleState{
		Speed: DriveSpeed(counts, m.cfg.DriveDistancePerPulse),
		Angle: FromDegrees(deg),
	}
	if len(errs) > 0 {
		return st, &DeviceIOError{Op: "read state", Err: errors.Join(errs...)}
	}
	return st, nil
}

// SetDesiredState runs one control cycle toward target. On error nothing
// further is written this cycle and LastCommand keeps its previous value.
func (m *Module) SetDesiredState(target ModuleState) error {
	deg, err := m.sensor.AbsolutePosition()
	if err != nil {
		return &DeviceIOError{Op: "read heading", Err: err}
	}
	heading := FromDegrees(deg)

	opt := Optimize(target, heading, m.cfg.FlipPolicy)
	if Flipped(target, opt) {
		m.log.Debug("target flipped",
			"heading", heading.Degrees(), "target", target.Angle.Degrees(), "optimized", opt.Angle.Degrees())
	}

	counts, err := m.drive.VelocityCounts()
	if err != nil {
		return &DeviceIOError{Op: "read drive velocity", Err: err}
	}
	measured := DriveSpeed(counts, m.cfg.DriveDistancePerPulse)

	volts := m.ctrl.Calculate(measured, opt.Speed)
	turnCounts := AngleToCounts(opt.Angle.Radians(), m.cfg.EncoderCPR)

	if err := m.drive.SetVoltage(volts); err != nil {
		return &DeviceIOError{Op: "set drive voltage", Err: err}
	}
	if err := m.turn.SetPositionCommand(turnCounts); err != nil {
		return &DeviceIOError{Op: "set turn position", Err: err}
	}

	m.last = Command{
		Target:    target,
		Optimized: opt,
		Heading:   heading,
		Volts:     volts,
		Counts:    turnCounts,
	}
	m.hasLast = true
	return nil
}

// LastCommand returns the outputs of the last fully written cycle.
func (m *Module) LastCommand() (Command, bool) {
	return m.last, m.hasLast
}

// ResetEncoders zeroes the drive position counter and the sensor position
// counter. The sensor's absolute reading is unaffected.
func (m *Module) ResetEncoders() error {
	if err := m.drive.SetPositionCounter(0); err != nil {
		return &DeviceIOError{Op: "reset drive position", Err: err}
	}
	if err := m.sensor.SetPosition(0); err != nil {
		return &DeviceIOError{Op: "reset sensor position", Err: err}
	}
	return nil
}

// ConfigMotorPID writes gains to a slot on the selected motor.
func (m *Module) ConfigMotorPID(target Motor, slot int, p, i, d float64) error {
	var dev device.GainConfigurer
	switch target {
	case DriveMotor:
		dev = m.drive
	case TurnMotor:
		dev = m.turn
	default:
		return fmt.Errorf("%w: %d", ErrUnknownMotor, int(target))
	}
	if err := dev.ConfigGains(slot, device.Gains{P: p, I: i, D: d}); err != nil {
		return &DeviceIOError{Op: fmt.Sprintf("config %s slot %d", target, slot), Err: err}
	}
	return nil
}

func (m *Module) Config() ModuleConfig {
	return m.cfg
}

// Close releases every held handle that can be released.
func (m *Module) Close() error {
	var errs []error
	for _, h := range []any{m.drive, m.turn, m.sensor} {
		if c, ok := h.(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
