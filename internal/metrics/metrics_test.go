package metrics

import (
	"math"
	"testing"

	"github.com/san-kum/swervesim/internal/sim"
)

func TestHeadingErrorWrapsTheShortWay(t *testing.T) {
	m := NewHeadingError()
	m.Observe(sim.Sample{HeadingDeg: 179, CommandDeg: -179})
	m.Observe(sim.Sample{HeadingDeg: 10, CommandDeg: 12})

	want := math.Sqrt((4 + 4) / 2.0)
	if math.Abs(m.Value()-want) > 1e-9 {
		t.Errorf("expected %f, got %f", want, m.Value())
	}

	m.Reset()
	if m.Value() != 0 {
		t.Error("expected zero after reset")
	}
}

func TestErrorsSkipDroppedCycles(t *testing.T) {
	m := NewSpeedError()
	m.Observe(sim.Sample{Speed: 1, CommandSpeed: 2})
	m.Observe(sim.Sample{Speed: 0, CommandSpeed: 50, Dropped: true})

	if m.Value() != 1 {
		t.Errorf("expected 1, got %f", m.Value())
	}
}

func TestControlEffort(t *testing.T) {
	m := NewControlEffort()
	m.Observe(sim.Sample{DriveVolts: -3, SteerVolts: 1})
	m.Observe(sim.Sample{DriveVolts: 2})

	if m.Value() != 3 {
		t.Errorf("expected 3, got %f", m.Value())
	}
}

func TestTracking(t *testing.T) {
	m := NewTracking(5)
	if m.Value() != 1 {
		t.Error("expected perfect tracking with no samples")
	}

	m.Observe(sim.Sample{HeadingDeg: 0, CommandDeg: 2})
	m.Observe(sim.Sample{HeadingDeg: 0, CommandDeg: 20})
	m.Observe(sim.Sample{HeadingDeg: 0, CommandDeg: 90, Dropped: true})

	if m.Value() != 0.5 {
		t.Errorf("expected 0.5, got %f", m.Value())
	}
}

func TestCounters(t *testing.T) {
	flips := NewFlipCount()
	dropped := NewDroppedCycles()
	for _, s := range []sim.Sample{{Flipped: true}, {Dropped: true}, {Flipped: true}, {}} {
		flips.Observe(s)
		dropped.Observe(s)
	}

	if flips.Value() != 2 {
		t.Errorf("expected 2 flips, got %f", flips.Value())
	}
	if dropped.Value() != 1 {
		t.Errorf("expected 1 dropped, got %f", dropped.Value())
	}
}

func TestDefaultNamesUnique(t *testing.T) {
	seen := make(map[string]bool)
	for _, m := range Default() {
		if seen[m.Name()] {
			t.Errorf("duplicate metric %s", m.Name())
		}
		seen[m.Name()] = true
	}
}
