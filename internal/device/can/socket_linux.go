package can

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"sync"
	"time"

	"golang.org/x/sys/unix"
)

// SocketBus is a Bus on a Linux SocketCAN interface. The socket is
// non-blocking and owned by an *os.File, so Close wakes a pending read.
type SocketBus struct {
	f   *os.File
	log *slog.Logger

	mu     sync.Mutex
	latest map[uint32]stamped
	closed bool
	done   chan struct{}
}

func Open(ifname string, log *slog.Logger) (*SocketBus, error) {
	iface, err := net.InterfaceByName(ifname)
	if err != nil {
		return nil, fmt.Errorf("can: interface %s: %w", ifname, err)
	}

	fd, err := unix.Socket(unix.AF_CAN, unix.SOCK_RAW, unix.CAN_RAW)
	if err != nil {
		return nil, fmt.Errorf("can: socket: %w", err)
	}
	if err := unix.Bind(fd, &unix.SockaddrCAN{Ifindex: iface.Index}); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("can: bind %s: %w", ifname, err)
	}
	return newSocketBus(fd, "can:"+ifname, log)
}

func newSocketBus(fd int, name string, log *slog.Logger) (*SocketBus, error) {
	if err := unix.SetNonblock(fd, true); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("can: set nonblocking: %w", err)
	}
	b := &SocketBus{
		f:      os.NewFile(uintptr(fd), name),
		log:    log,
		latest: make(map[uint32]stamped),
		done:   make(chan struct{}),
	}
	go b.reader()
	return b, nil
}

func (b *SocketBus) Send(f Frame) error {
	raw, err := f.marshal()
	if err != nil {
		return err
	}
	if _, err := b.f.Write(raw); err != nil {
		return fmt.Errorf("can: write %s: %w", f, err)
	}
	return nil
}

func (b *SocketBus) Latest(id uint32) (Frame, time.Time, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	s, ok := b.latest[id]
	return s.frame, s.at, ok
}

func (b *SocketBus) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	b.mu.Unlock()

	err := b.f.Close()
	<-b.done
	return err
}

func (b *SocketBus) reader() {
	defer close(b.done)
	raw := make([]byte, frameSize)
	for {
		n, err := b.f.Read(raw)
		if err != nil {
			if errors.Is(err, os.ErrClosed) {
				return
			}
			b.mu.Lock()
			closed := b.closed
			b.mu.Unlock()
			if !closed && b.log != nil {
				b.log.Error("can read failed", "err", err)
			}
			return
		}
		f, err := unmarshal(raw[:n])
		if err != nil {
			if b.log != nil {
				b.log.Debug("dropping malformed frame", "err", err)
			}
			continue
		}
		b.mu.Lock()
		b.latest[f.ID] = stamped{frame: f, at: time.Now()}
		b.mu.Unlock()
	}
}
