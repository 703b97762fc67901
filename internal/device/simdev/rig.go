// Package simdev simulates the hardware of one swerve module: a drive
// motor, a steering motor with an onboard position loop, and an absolute
// magnetic encoder on the steering axis. All three share one plant from
// package physics and advance together when the rig is stepped.
//
// A Rig is NOT safe for concurrent use. Step it from the same goroutine that
// drives the module.
package simdev

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"github.com/san-kum/swervesim/internal/device"
	"github.com/san-kum/swervesim/internal/dynamo"
	"github.com/san-kum/swervesim/internal/integrators"
	"github.com/san-kum/swervesim/internal/physics"
)

// ErrClaimed indicates a device handle is already held by someone else.
var ErrClaimed = errors.New("simdev: device already claimed")

// sensorCPR is the native resolution of the simulated encoder as seen by a
// motor using it for remote feedback.
const sensorCPR = 4096.0

type Params struct {
	DriveChannel  int
	TurnChannel   int
	SensorChannel int

	DriveDistancePerPulse float64 // metres per drive count
	SupplyVolts           float64
	SensorMountDeg        float64 // magnet misalignment the offset must cancel
	InitialHeadingDeg     float64
	Substeps              int
	Integrator            string

	FaultRate float64 // probability a runtime read or write fails
	Seed      int64
}

func DefaultParams() Params {
	return Params{
		DriveChannel:          1,
		TurnChannel:           2,
		SensorChannel:         3,
		DriveDistancePerPulse: 0.1016 * math.Pi / (2048 * 6.75),
		SupplyVolts:           12,
		Substeps:              20,
		Integrator:            "rk4",
	}
}

// Rig owns the simulated devices of one module and implements
// device.Provider for them.
type Rig struct {
	params Params
	plant  *physics.WheelModule
	integ  dynamo.Integrator
	x      dynamo.State
	t      float64
	rng    *rand.Rand

	drive  *Motor
	turn   *Motor
	sensor *Encoder
}

func NewRig(plant *physics.WheelModule, p Params) (*Rig, error) {
	if plant == nil {
		plant = physics.NewWheelModule()
	}
	if p.Substeps <= 0 {
		p.Substeps = 1
	}
	if p.SupplyVolts <= 0 {
		p.SupplyVolts = 12
	}
	if p.DriveDistancePerPulse <= 0 {
		return nil, fmt.Errorf("simdev: drive distance per pulse must be positive, got %g", p.DriveDistancePerPulse)
	}
	if p.FaultRate < 0 || p.FaultRate > 1 {
		return nil, fmt.Errorf("simdev: fault rate must be within [0, 1], got %g", p.FaultRate)
	}
	integ, err := integrators.New(p.Integrator)
	if err != nil {
		return nil, err
	}

	r := &Rig{
		params: p,
		plant:  plant,
		integ:  integ,
		x:      dynamo.State{0, 0, p.InitialHeadingDeg * math.Pi / 180, 0},
		rng:    rand.New(rand.NewSource(p.Seed)),
	}
	if err := dynamo.Check(plant, r.x, dynamo.Control{0, 0}); err != nil {
		return nil, fmt.Errorf("simdev: initial state: %w", err)
	}
	r.drive = newMotor(r, p.DriveChannel, roleDrive)
	r.turn = newMotor(r, p.TurnChannel, roleTurn)
	r.sensor = newEncoder(r, p.SensorChannel)
	return r, nil
}

func (r *Rig) TranslationActuator(channel int) (device.TranslationActuator, error) {
	if err := claim(channel, r.params.DriveChannel, &r.drive.claimed); err != nil {
		return nil, err
	}
	return r.drive, nil
}

func (r *Rig) RotationActuator(channel int) (device.RotationActuator, error) {
	if err := claim(channel, r.params.TurnChannel, &r.turn.claimed); err != nil {
		return nil, err
	}
	return r.turn, nil
}

func (r *Rig) AngleSensor(channel int) (device.AngleSensor, error) {
	if err := claim(channel, r.params.SensorChannel, &r.sensor.claimed); err != nil {
		return nil, err
	}
	return r.sensor, nil
}

func claim(requested, present int, claimed *bool) error {
	if !device.ValidChannel(requested) {
		return fmt.Errorf("%w: %d", device.ErrInvalidChannel, requested)
	}
	if requested != present {
		return fmt.Errorf("%w: %d", device.ErrNoDevice, requested)
	}
	if *claimed {
		return fmt.Errorf("%w: channel %d", ErrClaimed, requested)
	}
	*claimed = true
	return nil
}

// Step advances the plant by dt, evaluating the motor outputs at every
// substep.
func (r *Rig) Step(dt float64) {
	if dt <= 0 {
		return
	}
	h := dt / float64(r.params.Substeps)
	for i := 0; i < r.params.Substeps; i++ {
		u := dynamo.Control{r.drive.output(h), r.turn.output(h)}
		next := r.integ.Step(r.plant, r.x, u, r.t, h)
		if !next.IsValid() {
			continue
		}
		r.x = next
		r.t += h
	}
}

func (r *Rig) Time() float64 { return r.t }

// WheelVelocity is the true wheel surface speed in m/s.
func (r *Rig) WheelVelocity() float64 { return r.x[physics.WheelVel] }

// WheelPosition is the true distance rolled in metres.
func (r *Rig) WheelPosition() float64 { return r.x[physics.WheelPos] }

// SteerAngle is the true, unwrapped steering angle in radians.
func (r *Rig) SteerAngle() float64 { return r.x[physics.SteerAngle] }

func (r *Rig) DriveVolts() float64 { return r.drive.applied }
func (r *Rig) SteerVolts() float64 { return r.turn.applied }

func (r *Rig) Plant() *physics.WheelModule { return r.plant }

// SetFaultRate changes the probability of runtime I/O failures.
func (r *Rig) SetFaultRate(rate float64) {
	r.params.FaultRate = math.Max(0, math.Min(1, rate))
}

func (r *Rig) fault(op string) error {
	if r.params.FaultRate > 0 && r.rng.Float64() < r.params.FaultRate {
		return fmt.Errorf("%w: simulated %s failure", device.ErrTimeout, op)
	}
	return nil
}
