// Package can talks to swerve module hardware over a CAN bus.
//
// Every device is addressed by a 29-bit extended identifier:
//
//	bits 16-23  device class (motor controller or encoder)
//	bits  8-15  api (command or status frame)
//	bits  0-7   channel
//
// Commands carry little-endian float32 arguments. Devices broadcast a
// status frame periodically; reads return the latest cached status.
package can

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

var (
	// ErrDataTooLong indicates a payload that does not fit a classic CAN frame.
	ErrDataTooLong = errors.New("can: data too long")

	// ErrShortFrame indicates a raw frame or payload that is truncated.
	ErrShortFrame = errors.New("can: short frame")
)

const maxData = 8

type Class uint8

const (
	ClassMotor   Class = 0x02
	ClassEncoder Class = 0x07
)

type API uint8

// Motor controller apis.
const (
	APISetVoltage   API = 0x01
	APISetPosition  API = 0x02
	APISetSensorPos API = 0x03
	APIConfigVComp  API = 0x10
	APIConfigRamps  API = 0x11
	APIConfigGain   API = 0x12
	APIConfigRemote API = 0x13
	APIStatus       API = 0x40
)

// Encoder apis.
const (
	APIConfigRange     API = 0x01
	APIConfigStrategy  API = 0x02
	APIConfigOffset    API = 0x03
	APIConfigDirection API = 0x04
	APISetToAbsolute   API = 0x05
	APISetEncoderPos   API = 0x06
)

// Gain terms in an APIConfigGain payload.
const (
	TermP uint8 = iota
	TermI
	TermD
)

// Frame is one CAN data frame with an extended identifier.
type Frame struct {
	ID   uint32
	Data []byte
}

func FrameID(c Class, api API, channel int) uint32 {
	return uint32(c)<<16 | uint32(api)<<8 | uint32(channel&0xff)
}

func SplitID(id uint32) (Class, API, int) {
	return Class(id >> 16 & 0xff), API(id >> 8 & 0xff), int(id & 0xff)
}

func (f Frame) String() string {
	c, api, ch := SplitID(f.ID)
	return fmt.Sprintf("id=%08x class=%02x api=%02x ch=%d data=% x", f.ID, uint8(c), uint8(api), ch, f.Data)
}

// Floats packs up to two float32 values.
func Floats(vals ...float64) []byte {
	buf := make([]byte, 4*len(vals))
	for i, v := range vals {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(float32(v)))
	}
	return buf
}

// Float reads the float32 at index i of a payload.
func Float(data []byte, i int) (float64, error) {
	if len(data) < (i+1)*4 {
		return 0, fmt.Errorf("%w: need %d bytes, have %d", ErrShortFrame, (i+1)*4, len(data))
	}
	return float64(math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))), nil
}

func gainPayload(slot int, term uint8, value float64) []byte {
	buf := make([]byte, 8)
	buf[0] = byte(slot)
	buf[1] = term
	binary.LittleEndian.PutUint32(buf[4:], math.Float32bits(float32(value)))
	return buf
}

func remotePayload(sensorID int, coefficient float64) []byte {
	buf := make([]byte, 8)
	buf[0] = byte(sensorID)
	binary.LittleEndian.PutUint32(buf[4:], math.Float32bits(float32(coefficient)))
	return buf
}
