package simdev

import (
	"fmt"
	"math"

	"github.com/san-kum/swervesim/internal/device"
	"github.com/san-kum/swervesim/internal/physics"
)

type role int

const (
	roleDrive role = iota
	roleTurn
)

type mode int

const (
	modeNeutral mode = iota
	modeVoltage
	modePosition
)

// fullScale is the closed-loop output that maps to 100% duty cycle.
const fullScale = 1023.0

const numSlots = 4

// Motor is a simulated brushless motor controller. In voltage mode it
// applies the commanded voltage; in position mode it runs a PID on its
// feedback sensor using the gains in slot 0.
type Motor struct {
	rig     *Rig
	channel int
	role    role
	claimed bool

	mode     mode
	volts    float64
	target   float64
	applied  float64
	posZero  float64
	gains    [numSlots]device.Gains
	vcomp    float64
	openRamp float64
	loopRamp float64

	remoteID   int
	remoteCoef float64
	hasRemote  bool
	integral   float64
	prevErr    float64
	primed     bool
}

func newMotor(r *Rig, channel int, ro role) *Motor {
	return &Motor{rig: r, channel: channel, role: ro, remoteCoef: 1}
}

func (m *Motor) SetVoltage(volts float64) error {
	if err := m.rig.fault("set voltage"); err != nil {
		return err
	}
	m.mode = modeVoltage
	m.volts = volts
	return nil
}

func (m *Motor) SetPositionCommand(counts float64) error {
	if err := m.rig.fault("set position"); err != nil {
		return err
	}
	if m.mode != modePosition {
		m.integral = 0
		m.primed = false
	}
	m.mode = modePosition
	m.target = counts
	return nil
}

func (m *Motor) SetPositionCounter(counts float64) error {
	m.posZero = m.rawPosition() - counts
	return nil
}

// Position reports the selected sensor position in native counts.
func (m *Motor) Position() float64 {
	return m.rawPosition() - m.posZero
}

func (m *Motor) VelocityCounts() (float64, error) {
	if err := m.rig.fault("read velocity"); err != nil {
		return 0, err
	}
	return m.rawVelocity(), nil
}

func (m *Motor) ConfigVoltageCompensation(volts float64) error {
	if volts <= 0 {
		return fmt.Errorf("simdev: voltage compensation must be positive, got %g", volts)
	}
	m.vcomp = volts
	return nil
}

func (m *Motor) ConfigRamps(openLoopSec, closedLoopSec float64) error {
	if openLoopSec < 0 || closedLoopSec < 0 {
		return fmt.Errorf("simdev: ramps must not be negative")
	}
	m.openRamp = openLoopSec
	m.loopRamp = closedLoopSec
	return nil
}

func (m *Motor) ConfigGains(slot int, g device.Gains) error {
	if slot < 0 || slot >= numSlots {
		return fmt.Errorf("simdev: gain slot %d out of range", slot)
	}
	m.gains[slot] = g
	return nil
}

func (m *Motor) ConfigRemoteFeedback(sensorID int, coefficient float64) error {
	if sensorID != m.rig.sensor.ID() {
		return fmt.Errorf("%w: remote sensor %d", device.ErrNoDevice, sensorID)
	}
	m.remoteID = sensorID
	m.remoteCoef = coefficient
	m.hasRemote = true
	return nil
}

func (m *Motor) Gains(slot int) device.Gains {
	if slot < 0 || slot >= numSlots {
		return device.Gains{}
	}
	return m.gains[slot]
}

func (m *Motor) Close() error {
	m.claimed = false
	m.mode = modeNeutral
	return nil
}

// feedback is the closed-loop sensor reading in native counts.
func (m *Motor) feedback() float64 {
	if m.hasRemote {
		return m.rig.sensor.positionDeg() * sensorCPR / 360 * m.remoteCoef
	}
	return m.Position()
}

func (m *Motor) rawPosition() float64 {
	if m.role == roleDrive {
		return m.rig.WheelPosition() / m.rig.params.DriveDistancePerPulse
	}
	return m.rig.SteerAngle() / (2 * math.Pi) * sensorCPR
}

// rawVelocity is in counts per 100 ms.
func (m *Motor) rawVelocity() float64 {
	if m.role == roleDrive {
		return m.rig.WheelVelocity() / m.rig.params.DriveDistancePerPulse / 10
	}
	return m.rig.x[physics.SteerRate] / (2 * math.Pi) * sensorCPR / 10
}

func (m *Motor) ceiling() float64 {
	if m.vcomp > 0 {
		return math.Min(m.vcomp, m.rig.params.SupplyVolts)
	}
	return m.rig.params.SupplyVolts
}

// output returns the voltage applied over the next dt.
func (m *Motor) output(dt float64) float64 {
	ceiling := m.ceiling()

	var demand, ramp float64
	switch m.mode {
	case modeVoltage:
		demand = m.volts
		ramp = m.openRamp
	case modePosition:
		demand = m.positionLoop(dt) / fullScale * ceiling
		ramp = m.loopRamp
	}
	demand = math.Max(-ceiling, math.Min(ceiling, demand))

	if ramp > 0 {
		step := ceiling / ramp * dt
		demand = math.Max(m.applied-step, math.Min(m.applied+step, demand))
	}
	m.applied = demand
	return demand
}

func (m *Motor) positionLoop(dt float64) float64 {
	g := m.gains[0]
	err := m.target - m.feedback()
	if !m.primed {
		m.prevErr = err
		m.primed = true
	}
	m.integral += err * dt
	deriv := (err - m.prevErr) / dt
	m.prevErr = err
	return g.P*err + g.I*m.integral + g.D*deriv
}
