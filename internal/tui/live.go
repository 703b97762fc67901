// Package tui is a Bubble Tea live view of one simulated swerve module.
package tui

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/swervesim/internal/sim"
	"github.com/san-kum/swervesim/internal/swerve"
)

var (
	cyan    = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	white   = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	dim     = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	dimmer  = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
	green   = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	yellow  = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	magenta = lipgloss.NewStyle().Foreground(lipgloss.Color("213"))
	red     = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
)

const (
	historyLen = 120
	angleStep  = 15.0
	speedStep  = 0.25
	faultRate  = 0.05
)

// Stepper is one control cycle, normally (*sim.Runner).Cycle.
type Stepper interface {
	Cycle(t float64, target swerve.ModuleState, period float64) (sim.Sample, error)
}

// Faulter toggles simulated bus faults.
type Faulter interface {
	SetFaultRate(rate float64)
}

type Options struct {
	Period   float64
	Speed    float64
	AngleDeg float64
	Policy   swerve.FlipPolicy
	Faults   Faulter // optional

	// MaxSpeed bounds the target speed keys; zero means unbounded.
	MaxSpeed float64
}

type model struct {
	stepper Stepper
	opts    Options

	speed    float64
	angleDeg float64
	t        float64
	paused   bool
	faulty   bool

	last    sim.Sample
	err     error
	cycles  int
	dropped int
	flips   int

	heading []float64
	command []float64
	speeds  []float64

	width  int
	height int
}

func newModel(s Stepper, opts Options) model {
	if opts.Period <= 0 {
		opts.Period = 0.02
	}
	return model{
		stepper:  s,
		opts:     opts,
		speed:    opts.Speed,
		angleDeg: opts.AngleDeg,
		heading:  make([]float64, 0, historyLen),
		command:  make([]float64, 0, historyLen),
		speeds:   make([]float64, 0, historyLen),
		width:    80,
		height:   24,
	}
}

type tickMsg time.Time

func (m model) tick() tea.Cmd {
	d := time.Duration(m.opts.Period * float64(time.Second))
	return tea.Tick(d, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m model) Init() tea.Cmd { return m.tick() }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case tickMsg:
		if !m.paused && m.err == nil {
			m.step()
		}
		if m.err != nil {
			return m, nil
		}
		return m, m.tick()
	}
	return m, nil
}

func (m model) target() swerve.ModuleState {
	return swerve.ModuleState{Speed: m.speed, Angle: swerve.FromDegrees(m.angleDeg)}
}

func (m *model) step() {
	s, err := m.stepper.Cycle(m.t, m.target(), m.opts.Period)
	if err != nil {
		m.err = err
		return
	}
	m.t += m.opts.Period
	m.last = s
	m.cycles++
	if s.Dropped {
		m.dropped++
	}
	if s.Flipped {
		m.flips++
	}
	m.heading = push(m.heading, s.HeadingDeg)
	m.command = push(m.command, s.CommandDeg)
	m.speeds = push(m.speeds, s.Speed)
}

func push(buf []float64, v float64) []float64 {
	buf = append(buf, v)
	if len(buf) > historyLen {
		buf = buf[1:]
	}
	return buf
}

func (m model) handleKey(msg tea.KeyMsg) (model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case "left", "h":
		m.angleDeg = swerve.FromDegrees(m.angleDeg + angleStep).Degrees()
	case "right", "l":
		m.angleDeg = swerve.FromDegrees(m.angleDeg - angleStep).Degrees()
	case "up", "k":
		m.speed = m.clampSpeed(m.speed + speedStep)
	case "down", "j":
		m.speed = m.clampSpeed(m.speed - speedStep)
	case "0":
		m.speed = 0
	case "b":
		m.angleDeg = swerve.FromDegrees(m.angleDeg + 180).Degrees()
	case " ":
		m.paused = !m.paused
	case "f":
		if m.opts.Faults != nil {
			m.faulty = !m.faulty
			rate := 0.0
			if m.faulty {
				rate = faultRate
			}
			m.opts.Faults.SetFaultRate(rate)
		}
	}
	return m, nil
}

func (m model) clampSpeed(v float64) float64 {
	if m.opts.MaxSpeed <= 0 || math.IsInf(m.opts.MaxSpeed, 1) {
		return v
	}
	return math.Max(-m.opts.MaxSpeed, math.Min(m.opts.MaxSpeed, v))
}

func (m model) View() string {
	var b strings.Builder

	statusIcon := green.Render("●")
	statusText := green.Render("running")
	if m.paused {
		statusIcon = yellow.Render("○")
		statusText = yellow.Render("paused")
	}
	if m.err != nil {
		statusIcon = red.Render("✕")
		statusText = red.Render(m.err.Error())
	}
	b.WriteString(fmt.Sprintf("\n   %s %s  %s  %s\n",
		statusIcon, cyan.Render("swerve module"), statusText,
		dim.Render(fmt.Sprintf("t=%.2fs  policy=%s", m.t, m.opts.Policy))))
	b.WriteString(dimmer.Render("   "+strings.Repeat("─", 48)) + "\n\n")

	for _, row := range m.compass(31, 15) {
		b.WriteString("   " + string(row) + "\n")
	}
	b.WriteString("\n")

	b.WriteString("   " + dim.Render("target   ") +
		white.Render(fmt.Sprintf("%6.2f m/s @ %7.2f°", m.speed, m.angleDeg)) + "\n")
	b.WriteString("   " + dim.Render("command  ") +
		magenta.Render(fmt.Sprintf("%6.2f m/s @ %7.2f°", m.last.CommandSpeed, m.last.CommandDeg)))
	if m.last.Flipped {
		b.WriteString("  " + yellow.Render("flipped"))
	}
	b.WriteString("\n")
	b.WriteString("   " + dim.Render("measured ") +
		cyan.Render(fmt.Sprintf("%6.2f m/s @ %7.2f°", m.last.Speed, m.last.HeadingDeg)) + "\n")
	b.WriteString("   " + dim.Render("volts    ") +
		white.Render(fmt.Sprintf("drive %5.2f  steer %5.2f", m.last.DriveVolts, m.last.SteerVolts)) + "\n")

	faults := dim.Render("off")
	if m.faulty {
		faults = red.Render(fmt.Sprintf("%.0f%%", faultRate*100))
	}
	b.WriteString("   " + dim.Render(fmt.Sprintf("cycles %d  dropped %d  flips %d  faults ", m.cycles, m.dropped, m.flips)) + faults + "\n\n")

	if len(m.heading) > 1 {
		graph := asciigraph.PlotMany([][]float64{m.command, m.heading},
			asciigraph.Height(8),
			asciigraph.Width(60),
			asciigraph.SeriesColors(asciigraph.Magenta, asciigraph.Cyan),
			asciigraph.Caption("heading (cyan) vs command (magenta), deg"),
		)
		for _, line := range strings.Split(graph, "\n") {
			b.WriteString("   " + line + "\n")
		}
		b.WriteString(fmt.Sprintf("\n   %s %s\n", dim.Render("speed"), cyan.Render(sparkline(m.speeds, 40))))
	}

	b.WriteString("\n" + dim.Render("   ←→ heading  ↑↓ speed  b reverse  0 stop  f faults  space pause  q quit") + "\n")
	return b.String()
}

// compass draws the wheel seen from above: the measured heading as a line
// from the hub, the command as 'x' and the raw target as '+'.
func (m model) compass(w, h int) [][]rune {
	canvas := make([][]rune, h)
	for i := range canvas {
		canvas[i] = []rune(strings.Repeat(" ", w))
	}

	cx, cy := w/2, h/2
	rx, ry := float64(w/2-1), float64(h/2)
	for a := 0.0; a < 2*math.Pi; a += math.Pi / 24 {
		set(canvas, cx+int(math.Round(rx*math.Cos(a))), cy-int(math.Round(ry*math.Sin(a))), '·', w, h)
	}

	point := func(deg, scale float64) (int, int) {
		rad := deg * math.Pi / 180
		return cx + int(math.Round(scale*rx*math.Cos(rad))), cy - int(math.Round(scale*ry*math.Sin(rad)))
	}

	hx, hy := point(m.last.HeadingDeg, 0.8)
	drawLine(canvas, w, h, cx, cy, hx, hy, '█')
	tx, ty := point(m.angleDeg, 1)
	set(canvas, tx, ty, '+', w, h)
	ox, oy := point(m.last.CommandDeg, 1)
	set(canvas, ox, oy, 'x', w, h)
	set(canvas, cx, cy, 'O', w, h)
	return canvas
}

func sparkline(data []float64, width int) string {
	if len(data) == 0 {
		return ""
	}
	chars := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}
	minVal, maxVal := data[0], data[0]
	for _, v := range data {
		if v < minVal {
			minVal = v
		}
		if v > maxVal {
			maxVal = v
		}
	}
	rang := maxVal - minVal
	if rang == 0 {
		rang = 1
	}
	step := len(data) / width
	if step < 1 {
		step = 1
	}
	var sb strings.Builder
	for i := 0; i < width && i*step < len(data); i++ {
		v := data[i*step]
		idx := int((v - minVal) / rang * 7)
		if idx > 7 {
			idx = 7
		}
		if idx < 0 {
			idx = 0
		}
		sb.WriteRune(chars[idx])
	}
	return sb.String()
}

func set(canvas [][]rune, x, y int, c rune, w, h int) {
	if x >= 0 && x < w && y >= 0 && y < h {
		canvas[y][x] = c
	}
}

func drawLine(canvas [][]rune, w, h, x1, y1, x2, y2 int, c rune) {
	dx := intAbs(x2 - x1)
	dy := intAbs(y2 - y1)
	sx, sy := 1, 1
	if x1 > x2 {
		sx = -1
	}
	if y1 > y2 {
		sy = -1
	}
	err := dx - dy
	for {
		set(canvas, x1, y1, c, w, h)
		if x1 == x2 && y1 == y2 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x1 += sx
		}
		if e2 < dx {
			err += dx
			y1 += sy
		}
	}
}

func intAbs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func Run(s Stepper, opts Options) error {
	p := tea.NewProgram(newModel(s, opts), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
