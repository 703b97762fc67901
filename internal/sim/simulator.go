package sim

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/san-kum/swervesim/internal/swerve"
)

type Runner struct {
	mod       Module
	plant     Plant
	metrics   []Metric
	observers []Observer
	log       *slog.Logger
}

type Option func(*Runner)

func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.log = l
		}
	}
}

// New returns a runner for mod. plant may be nil when mod talks to real
// hardware.
func New(mod Module, plant Plant, opts ...Option) *Runner {
	r := &Runner{
		mod:   mod,
		plant: plant,
		log:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Runner) AddMetric(m Metric)     { r.metrics = append(r.metrics, m) }
func (r *Runner) AddObserver(o Observer) { r.observers = append(r.observers, o) }

func (r *Runner) Run(ctx context.Context, p Profile, cfg Config) (*Result, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	cycles := int(cfg.Duration/cfg.Period + 0.5)
	result := &Result{
		Samples: make([]Sample, 0, cycles),
		Metrics: make(map[string]float64),
	}
	for _, m := range r.metrics {
		m.Reset()
	}

	var tick <-chan time.Time
	if cfg.RealTime {
		ticker := time.NewTicker(time.Duration(cfg.Period * float64(time.Second)))
		defer ticker.Stop()
		tick = ticker.C
	}

	r.log.Info("run started", "profile", p.Name(), "period", cfg.Period, "duration", cfg.Duration)

	for i := 0; i < cycles; i++ {
		if tick != nil {
			select {
			case <-ctx.Done():
				return result, ctx.Err()
			case <-tick:
			}
		} else {
			select {
			case <-ctx.Done():
				return result, ctx.Err()
			default:
			}
		}

		t := float64(i) * cfg.Period
		s, err := r.Cycle(t, p.Target(t), cfg.Period)
		if err != nil {
			return result, err
		}
		result.Samples = append(result.Samples, s)
		result.Cycles++
		if s.Dropped {
			result.Dropped++
		}
	}

	for _, m := range r.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
	r.log.Info("run finished", "cycles", result.Cycles, "dropped", result.Dropped)
	return result, nil
}

// Cycle runs one control cycle at time t, advances the plant by period and
// reads back the module state. A *swerve.DeviceIOError drops the cycle and
// is not returned; any other error is.
func (r *Runner) Cycle(t float64, target swerve.ModuleState, period float64) (Sample, error) {
	s := Sample{
		Time:        t,
		TargetSpeed: target.Speed,
		TargetDeg:   target.Angle.Degrees(),
	}

	if err := r.mod.SetDesiredState(target); err != nil {
		var ioErr *swerve.DeviceIOError
		if !errors.As(err, &ioErr) {
			return s, fmt.Errorf("cycle at t=%.4f: %w", t, err)
		}
		r.log.Warn("cycle dropped", "t", t, "err", err)
		s.Dropped = true
	}

	if cmd, ok := r.mod.LastCommand(); ok {
		s.CommandSpeed = cmd.Optimized.Speed
		s.CommandDeg = cmd.Optimized.Angle.Degrees()
		if !s.Dropped {
			s.Flipped = swerve.Flipped(cmd.Target, cmd.Optimized)
		}
	}

	if r.plant != nil {
		r.plant.Step(period)
	}
	if vr, ok := r.plant.(VoltageReporter); ok {
		s.DriveVolts = vr.DriveVolts()
		s.SteerVolts = vr.SteerVolts()
	}

	st, err := r.mod.StateE()
	if err != nil {
		r.log.Debug("state read degraded", "t", t, "err", err)
	}
	s.Speed = st.Speed
	s.HeadingDeg = st.Angle.Degrees()

	for _, m := range r.metrics {
		m.Observe(s)
	}
	for _, o := range r.observers {
		o.OnCycle(s)
	}
	return s, nil
}

func validateConfig(cfg Config) error {
	if cfg.Period <= 0 {
		return fmt.Errorf("period must be positive, got %f", cfg.Period)
	}
	if cfg.Duration <= 0 {
		return fmt.Errorf("duration must be positive, got %f", cfg.Duration)
	}
	return nil
}
