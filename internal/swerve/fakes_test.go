package swerve_test

import (
	"fmt"

	"github.com/san-kum/swervesim/internal/device"
)

// recorder logs every device call in order as "device.Method(args)".
type recorder struct {
	calls []string
}

func (r *recorder) add(dev, format string, args ...any) {
	r.calls = append(r.calls, dev+"."+fmt.Sprintf(format, args...))
}

type fakeMotor struct {
	name     string
	rec      *recorder
	velocity float64
	readErr  error
	writeErr error
	gainErr  error
	closed   bool
	volts    float64
	position float64
	gains    map[int]device.Gains
}

func (m *fakeMotor) SetVoltage(v float64) error {
	if m.writeErr != nil {
		return m.writeErr
	}
	m.volts = v
	m.rec.add(m.name, "SetVoltage(%g)", v)
	return nil
}

func (m *fakeMotor) SetPositionCommand(c float64) error {
	if m.writeErr != nil {
		return m.writeErr
	}
	m.position = c
	m.rec.add(m.name, "SetPositionCommand(%g)", c)
	return nil
}

func (m *fakeMotor) SetPositionCounter(c float64) error {
	if m.writeErr != nil {
		return m.writeErr
	}
	m.rec.add(m.name, "SetPositionCounter(%g)", c)
	return nil
}

func (m *fakeMotor) VelocityCounts() (float64, error) {
	if m.readErr != nil {
		return 0, m.readErr
	}
	return m.velocity, nil
}

func (m *fakeMotor) ConfigVoltageCompensation(v float64) error {
	m.rec.add(m.name, "ConfigVoltageCompensation(%g)", v)
	return nil
}

func (m *fakeMotor) ConfigRamps(open, closed float64) error {
	m.rec.add(m.name, "ConfigRamps(%g,%g)", open, closed)
	return nil
}

func (m *fakeMotor) ConfigRemoteFeedback(id int, coef float64) error {
	m.rec.add(m.name, "ConfigRemoteFeedback(%d,%g)", id, coef)
	return nil
}

func (m *fakeMotor) ConfigGains(slot int, g device.Gains) error {
	if m.gainErr != nil {
		return m.gainErr
	}
	if m.gains == nil {
		m.gains = make(map[int]device.Gains)
	}
	m.gains[slot] = g
	m.rec.add(m.name, "ConfigGains(%d,%g,%g,%g)", slot, g.P, g.I, g.D)
	return nil
}

func (m *fakeMotor) Close() error {
	m.closed = true
	return nil
}

type fakeSensor struct {
	id       int
	rec      *recorder
	absolute float64
	position float64
	readErr  error
	writeErr error
	closed   bool
}

func (s *fakeSensor) ID() int { return s.id }

func (s *fakeSensor) ConfigAbsoluteRange(r device.AbsoluteRange) error {
	s.rec.add("sensor", "ConfigAbsoluteRange(%s)", r)
	return nil
}

func (s *fakeSensor) ConfigInitStrategy(st device.InitStrategy) error {
	s.rec.add("sensor", "ConfigInitStrategy(%s)", st)
	return nil
}

func (s *fakeSensor) ConfigMagnetOffset(deg float64) error {
	s.rec.add("sensor", "ConfigMagnetOffset(%g)", deg)
	return nil
}

func (s *fakeSensor) ConfigDirection(cw bool) error {
	s.rec.add("sensor", "ConfigDirection(%t)", cw)
	return nil
}

func (s *fakeSensor) SetPositionToAbsolute() error {
	s.position = s.absolute
	s.rec.add("sensor", "SetPositionToAbsolute()")
	return nil
}

func (s *fakeSensor) SetPosition(deg float64) error {
	if s.writeErr != nil {
		return s.writeErr
	}
	s.position = deg
	s.rec.add("sensor", "SetPosition(%g)", deg)
	return nil
}

func (s *fakeSensor) AbsolutePosition() (float64, error) {
	if s.readErr != nil {
		return 0, s.readErr
	}
	return s.absolute, nil
}

func (s *fakeSensor) Position() (float64, error) { return s.position, nil }

func (s *fakeSensor) Close() error {
	s.closed = true
	return nil
}

type fakeProvider struct {
	rec    *recorder
	drive  *fakeMotor
	turn   *fakeMotor
	sensor *fakeSensor

	// missing names a device that reports ErrNoDevice.
	missing string
}

func newFakeProvider() *fakeProvider {
	rec := &recorder{}
	return &fakeProvider{
		rec:    rec,
		drive:  &fakeMotor{name: "drive", rec: rec},
		turn:   &fakeMotor{name: "turn", rec: rec},
		sensor: &fakeSensor{id: 3, rec: rec},
	}
}

func (p *fakeProvider) TranslationActuator(ch int) (device.TranslationActuator, error) {
	p.rec.add("provider", "TranslationActuator(%d)", ch)
	if p.missing == "drive" {
		return nil, device.ErrNoDevice
	}
	return p.drive, nil
}

func (p *fakeProvider) RotationActuator(ch int) (device.RotationActuator, error) {
	p.rec.add("provider", "RotationActuator(%d)", ch)
	if p.missing == "turn" {
		return nil, device.ErrNoDevice
	}
	return p.turn, nil
}

func (p *fakeProvider) AngleSensor(ch int) (device.AngleSensor, error) {
	p.rec.add("provider", "AngleSensor(%d)", ch)
	if p.missing == "sensor" {
		return nil, device.ErrNoDevice
	}
	return p.sensor, nil
}

// echoController returns setpoint*gain and records its inputs.
type echoController struct {
	gain        float64
	measurement float64
	setpoint    float64
}

func (c *echoController) Calculate(measurement, setpoint float64) float64 {
	c.measurement = measurement
	c.setpoint = setpoint
	return setpoint * c.gain
}
