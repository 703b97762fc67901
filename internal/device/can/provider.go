package can

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/san-kum/swervesim/internal/device"
)

// Motor status frames carry position counts then velocity in counts per
// 100 ms. Encoder status frames carry absolute then relative degrees.
const (
	DefaultProbeTimeout = 250 * time.Millisecond
	DefaultStaleAfter   = 100 * time.Millisecond
	probeInterval       = 5 * time.Millisecond
)

// Provider hands out device handles on a Bus. A channel is considered
// populated once a status frame from it has been seen.
type Provider struct {
	bus          Bus
	log          *slog.Logger
	probeTimeout time.Duration
	staleAfter   time.Duration
	now          func() time.Time
	sleep        func(time.Duration)
}

type ProviderOption func(*Provider)

func WithProbeTimeout(d time.Duration) ProviderOption {
	return func(p *Provider) { p.probeTimeout = d }
}

func WithStaleAfter(d time.Duration) ProviderOption {
	return func(p *Provider) { p.staleAfter = d }
}

func WithClock(now func() time.Time, sleep func(time.Duration)) ProviderOption {
	return func(p *Provider) {
		p.now = now
		p.sleep = sleep
	}
}

func WithProviderLogger(l *slog.Logger) ProviderOption {
	return func(p *Provider) { p.log = l }
}

func NewProvider(bus Bus, opts ...ProviderOption) *Provider {
	p := &Provider{
		bus:          bus,
		probeTimeout: DefaultProbeTimeout,
		staleAfter:   DefaultStaleAfter,
		now:          time.Now,
		sleep:        time.Sleep,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Provider) TranslationActuator(channel int) (device.TranslationActuator, error) {
	return p.motor(channel)
}

func (p *Provider) RotationActuator(channel int) (device.RotationActuator, error) {
	return p.motor(channel)
}

func (p *Provider) AngleSensor(channel int) (device.AngleSensor, error) {
	if err := p.probe(ClassEncoder, channel); err != nil {
		return nil, err
	}
	return &Encoder{node{p: p, class: ClassEncoder, ch: channel}}, nil
}

func (p *Provider) motor(channel int) (*Motor, error) {
	if err := p.probe(ClassMotor, channel); err != nil {
		return nil, err
	}
	return &Motor{node{p: p, class: ClassMotor, ch: channel}}, nil
}

func (p *Provider) probe(c Class, channel int) error {
	if !device.ValidChannel(channel) {
		return fmt.Errorf("%w: %d", device.ErrInvalidChannel, channel)
	}
	id := FrameID(c, APIStatus, channel)
	deadline := p.now().Add(p.probeTimeout)
	for {
		if _, _, ok := p.bus.Latest(id); ok {
			return nil
		}
		if !p.now().Before(deadline) {
			return fmt.Errorf("%w: class %02x channel %d", device.ErrNoDevice, uint8(c), channel)
		}
		p.sleep(probeInterval)
	}
}

type node struct {
	p     *Provider
	class Class
	ch    int
}

func (n node) send(api API, data []byte) error {
	err := n.p.bus.Send(Frame{ID: FrameID(n.class, api, n.ch), Data: data})
	if err != nil && n.p.log != nil {
		n.p.log.Debug("can send failed", "class", uint8(n.class), "api", uint8(api), "channel", n.ch, "err", err)
	}
	return err
}

// status returns float i of the latest status frame, or ErrStale when the
// device has gone quiet.
func (n node) status(i int) (float64, error) {
	f, at, ok := n.p.bus.Latest(FrameID(n.class, APIStatus, n.ch))
	if !ok {
		return 0, device.ErrNoDevice
	}
	if age := n.p.now().Sub(at); age > n.p.staleAfter {
		return 0, fmt.Errorf("%w: channel %d last seen %s ago", device.ErrStale, n.ch, age)
	}
	return Float(f.Data, i)
}

// Motor is a motor controller on the bus.
type Motor struct{ node }

func (m *Motor) SetVoltage(volts float64) error {
	return m.send(APISetVoltage, Floats(volts))
}

func (m *Motor) SetPositionCommand(counts float64) error {
	return m.send(APISetPosition, Floats(counts))
}

func (m *Motor) SetPositionCounter(counts float64) error {
	return m.send(APISetSensorPos, Floats(counts))
}

func (m *Motor) Position() (float64, error) { return m.status(0) }

func (m *Motor) VelocityCounts() (float64, error) { return m.status(1) }

func (m *Motor) ConfigVoltageCompensation(volts float64) error {
	return m.send(APIConfigVComp, Floats(volts))
}

func (m *Motor) ConfigRamps(openLoopSec, closedLoopSec float64) error {
	return m.send(APIConfigRamps, Floats(openLoopSec, closedLoopSec))
}

func (m *Motor) ConfigGains(slot int, g device.Gains) error {
	if slot < 0 || slot > 3 {
		return fmt.Errorf("can: gain slot %d out of range", slot)
	}
	return errors.Join(
		m.send(APIConfigGain, gainPayload(slot, TermP, g.P)),
		m.send(APIConfigGain, gainPayload(slot, TermI, g.I)),
		m.send(APIConfigGain, gainPayload(slot, TermD, g.D)),
	)
}

func (m *Motor) ConfigRemoteFeedback(sensorID int, coefficient float64) error {
	if !device.ValidChannel(sensorID) {
		return fmt.Errorf("%w: remote sensor %d", device.ErrInvalidChannel, sensorID)
	}
	return m.send(APIConfigRemote, remotePayload(sensorID, coefficient))
}

// Encoder is an absolute magnetic encoder on the bus.
type Encoder struct{ node }

func (e *Encoder) ID() int { return e.ch }

func (e *Encoder) ConfigAbsoluteRange(r device.AbsoluteRange) error {
	return e.send(APIConfigRange, []byte{byte(r)})
}

func (e *Encoder) ConfigInitStrategy(s device.InitStrategy) error {
	return e.send(APIConfigStrategy, []byte{byte(s)})
}

func (e *Encoder) ConfigMagnetOffset(deg float64) error {
	return e.send(APIConfigOffset, Floats(deg))
}

func (e *Encoder) ConfigDirection(clockwisePositive bool) error {
	var b byte
	if clockwisePositive {
		b = 1
	}
	return e.send(APIConfigDirection, []byte{b})
}

func (e *Encoder) SetPositionToAbsolute() error {
	return e.send(APISetToAbsolute, nil)
}

func (e *Encoder) SetPosition(deg float64) error {
	return e.send(APISetEncoderPos, Floats(deg))
}

func (e *Encoder) AbsolutePosition() (float64, error) { return e.status(0) }

func (e *Encoder) Position() (float64, error) { return e.status(1) }
