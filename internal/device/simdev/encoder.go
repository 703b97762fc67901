package simdev

import (
	"fmt"
	"math"

	"github.com/san-kum/swervesim/internal/device"
)

// Encoder is a simulated absolute magnetic encoder. The magnet turns
// opposite to the steering axis and sits SensorMountDeg off true zero, so an
// inverted direction and a magnet offset of SensorMountDeg make the absolute
// reading equal the steering angle.
type Encoder struct {
	rig     *Rig
	channel int
	claimed bool

	absRange device.AbsoluteRange
	strategy device.InitStrategy
	offset   float64
	cwPos    bool
	posZero  float64
}

func newEncoder(r *Rig, channel int) *Encoder {
	e := &Encoder{rig: r, channel: channel}
	e.posZero = -e.reading()
	return e
}

func (e *Encoder) ID() int { return e.channel }

func (e *Encoder) ConfigAbsoluteRange(r device.AbsoluteRange) error {
	switch r {
	case device.RangeUnsigned0To360, device.RangeSigned180:
		e.absRange = r
		return nil
	}
	return fmt.Errorf("simdev: unknown absolute range %d", r)
}

func (e *Encoder) ConfigInitStrategy(s device.InitStrategy) error {
	switch s {
	case device.BootToAbsolute, device.BootToZero:
		e.strategy = s
		return nil
	}
	return fmt.Errorf("simdev: unknown init strategy %d", s)
}

func (e *Encoder) ConfigMagnetOffset(deg float64) error {
	e.offset = deg
	return nil
}

func (e *Encoder) ConfigDirection(clockwisePositive bool) error {
	e.cwPos = clockwisePositive
	return nil
}

func (e *Encoder) SetPositionToAbsolute() error {
	e.posZero = e.absolute() - e.reading()
	return nil
}

func (e *Encoder) SetPosition(deg float64) error {
	e.posZero = deg - e.reading()
	return nil
}

func (e *Encoder) AbsolutePosition() (float64, error) {
	if err := e.rig.fault("read absolute position"); err != nil {
		return 0, err
	}
	return e.absolute(), nil
}

func (e *Encoder) Position() (float64, error) {
	return e.positionDeg(), nil
}

func (e *Encoder) Close() error {
	e.claimed = false
	return nil
}

// reading is the continuous, direction-corrected magnet angle in degrees.
func (e *Encoder) reading() float64 {
	magnet := -e.rig.SteerAngle()*180/math.Pi + e.rig.params.SensorMountDeg
	if e.cwPos {
		return -magnet
	}
	return magnet
}

func (e *Encoder) positionDeg() float64 {
	return e.reading() + e.posZero
}

func (e *Encoder) absolute() float64 {
	deg := math.Mod(e.reading()+e.offset, 360)
	if deg < 0 {
		deg += 360
	}
	if e.absRange == device.RangeSigned180 && deg > 180 {
		deg -= 360
	}
	return deg
}
