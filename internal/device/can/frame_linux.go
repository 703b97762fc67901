package can

import (
	"encoding/binary"
	"fmt"

	"golang.org/x/sys/unix"
)

// frameSize is sizeof(struct can_frame).
const frameSize = 16

func (f Frame) marshal() ([]byte, error) {
	if len(f.Data) > maxData {
		return nil, fmt.Errorf("%w: %d bytes", ErrDataTooLong, len(f.Data))
	}
	raw := make([]byte, frameSize)
	binary.LittleEndian.PutUint32(raw[0:4], f.ID&unix.CAN_EFF_MASK|unix.CAN_EFF_FLAG)
	raw[4] = byte(len(f.Data))
	copy(raw[8:], f.Data)
	return raw, nil
}

func unmarshal(raw []byte) (Frame, error) {
	if len(raw) < frameSize {
		return Frame{}, fmt.Errorf("%w: %d bytes", ErrShortFrame, len(raw))
	}
	oid := binary.LittleEndian.Uint32(raw[0:4])

	var f Frame
	if oid&unix.CAN_EFF_FLAG != 0 {
		f.ID = oid & unix.CAN_EFF_MASK
	} else {
		f.ID = oid & unix.CAN_SFF_MASK
	}
	n := int(raw[4])
	if n > maxData {
		return Frame{}, fmt.Errorf("%w: dlc %d", ErrDataTooLong, n)
	}
	f.Data = append([]byte(nil), raw[8:8+n]...)
	return f, nil
}
