package can

import "time"

// Bus sends frames and caches the most recent frame seen for each id.
type Bus interface {
	Send(f Frame) error
	Latest(id uint32) (Frame, time.Time, bool)
	Close() error
}

type stamped struct {
	frame Frame
	at    time.Time
}
