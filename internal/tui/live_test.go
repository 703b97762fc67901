package tui

import (
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/swervesim/internal/sim"
	"github.com/san-kum/swervesim/internal/swerve"
)

type fakeStepper struct {
	targets []swerve.ModuleState
	err     error
}

func (f *fakeStepper) Cycle(t float64, target swerve.ModuleState, period float64) (sim.Sample, error) {
	if f.err != nil {
		return sim.Sample{}, f.err
	}
	f.targets = append(f.targets, target)
	return sim.Sample{Time: t, HeadingDeg: target.Angle.Degrees(), CommandDeg: target.Angle.Degrees(), Speed: target.Speed}, nil
}

type fakeFaulter struct{ rate float64 }

func (f *fakeFaulter) SetFaultRate(r float64) { f.rate = r }

func update(t *testing.T, m model, msg tea.Msg) model {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(model)
}

func key(s string) tea.KeyMsg {
	switch s {
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestTickRunsOneCycle(t *testing.T) {
	st := &fakeStepper{}
	m := newModel(st, Options{Period: 0.02, Speed: 1, AngleDeg: 30})

	m = update(t, m, tickMsg(time.Now()))
	m = update(t, m, tickMsg(time.Now()))

	if len(st.targets) != 2 {
		t.Fatalf("expected 2 cycles, got %d", len(st.targets))
	}
	if m.cycles != 2 || len(m.heading) != 2 {
		t.Errorf("history not recorded: cycles=%d heading=%d", m.cycles, len(m.heading))
	}
	if m.t < 0.039 || m.t > 0.041 {
		t.Errorf("expected t=0.04, got %f", m.t)
	}
}

func TestKeysAdjustTarget(t *testing.T) {
	m := newModel(&fakeStepper{}, Options{Speed: 1, AngleDeg: 170})

	m = update(t, m, key("left"))
	if m.angleDeg < -175.01 || m.angleDeg > -174.99 {
		t.Errorf("heading should wrap to -175, got %f", m.angleDeg)
	}
	m = update(t, m, key("up"))
	if m.speed != 1.25 {
		t.Errorf("expected speed 1.25, got %f", m.speed)
	}
	m = update(t, m, key("0"))
	if m.speed != 0 {
		t.Errorf("expected stop, got %f", m.speed)
	}
}

func TestPauseSkipsCycles(t *testing.T) {
	st := &fakeStepper{}
	m := newModel(st, Options{})
	m = update(t, m, key(" "))
	m = update(t, m, tickMsg(time.Now()))
	if len(st.targets) != 0 {
		t.Error("paused view should not cycle")
	}
}

func TestFaultToggle(t *testing.T) {
	f := &fakeFaulter{}
	m := newModel(&fakeStepper{}, Options{Faults: f})
	m = update(t, m, key("f"))
	if f.rate != faultRate {
		t.Errorf("expected fault rate %f, got %f", faultRate, f.rate)
	}
	m = update(t, m, key("f"))
	if f.rate != 0 {
		t.Error("second toggle should clear faults")
	}
}

func TestErrorStopsTicking(t *testing.T) {
	m := newModel(&fakeStepper{err: errors.New("bus off")}, Options{})
	next, cmd := m.Update(tickMsg(time.Now()))
	if cmd != nil {
		t.Error("expected ticking to stop after an error")
	}
	if !strings.Contains(next.(model).View(), "bus off") {
		t.Error("error should be shown")
	}
}

func TestViewShowsState(t *testing.T) {
	m := newModel(&fakeStepper{}, Options{Speed: 2, AngleDeg: 45})
	for i := 0; i < 3; i++ {
		m = update(t, m, tickMsg(time.Now()))
	}
	v := m.View()
	for _, want := range []string{"target", "command", "measured", "cycles 3"} {
		if !strings.Contains(v, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestSpeedKeysRespectMaxSpeed(t *testing.T) {
	m := newModel(&fakeStepper{}, Options{Speed: 1.9, MaxSpeed: 2})

	m = update(t, m, key("up"))
	if m.speed != 2 {
		t.Errorf("expected speed clamped at 2, got %f", m.speed)
	}
	for i := 0; i < 20; i++ {
		m = update(t, m, key("j"))
	}
	if m.speed != -2 {
		t.Errorf("expected speed clamped at -2, got %f", m.speed)
	}
}
