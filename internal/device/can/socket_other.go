//go:build !linux

package can

import (
	"errors"
	"log/slog"
	"time"
)

// SocketBus is only available on Linux.
type SocketBus struct{}

func Open(ifname string, log *slog.Logger) (*SocketBus, error) {
	return nil, errors.New("can: SocketCAN requires linux")
}

func (b *SocketBus) Send(f Frame) error { return errors.New("can: SocketCAN requires linux") }

func (b *SocketBus) Latest(id uint32) (Frame, time.Time, bool) { return Frame{}, time.Time{}, false }

func (b *SocketBus) Close() error { return nil }
