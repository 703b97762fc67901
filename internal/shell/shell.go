// Package shell is an interactive REPL around one swerve module.
package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/chzyer/readline"

	"github.com/san-kum/swervesim/internal/dynamo"
	"github.com/san-kum/swervesim/internal/sim"
	"github.com/san-kum/swervesim/internal/swerve"
)

// Module is the part of *swerve.Module the shell drives.
type Module interface {
	State() swerve.ModuleState
	StateE() (swerve.ModuleState, error)
	LastCommand() (swerve.Command, bool)
	ResetEncoders() error
	ConfigMotorPID(target swerve.Motor, slot int, p, i, d float64) error
	Config() swerve.ModuleConfig
}

// Cycler runs one control cycle, normally (*sim.Runner).Cycle.
type Cycler interface {
	Cycle(t float64, target swerve.ModuleState, period float64) (sim.Sample, error)
}

var errQuit = errors.New("quit")

type Shell struct {
	mod    Module
	cycler Cycler
	period float64
	out    io.Writer

	tuner dynamo.Configurable

	t      float64
	target swerve.ModuleState
}

type Option func(*Shell)

// WithTuner exposes the drive velocity controller to the gain command.
func WithTuner(c dynamo.Configurable) Option {
	return func(s *Shell) { s.tuner = c }
}

func New(mod Module, c Cycler, period float64, out io.Writer, opts ...Option) *Shell {
	if period <= 0 {
		period = 0.02
	}
	s := &Shell{mod: mod, cycler: c, period: period, out: out}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run reads commands until EOF, quit or ctx is done.
func (s *Shell) Run(ctx context.Context) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "swerve> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return fmt.Errorf("failed to create readline: %w", err)
	}
	defer rl.Close()
	s.out = rl.Stdout()

	s.printHelp()
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		line, err := rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			return nil
		}
		if err := s.Exec(line); err != nil {
			if errors.Is(err, errQuit) {
				return nil
			}
			fmt.Fprintf(s.out, "error: %v\n", err)
		}
	}
}

// Exec runs one command line.
func (s *Shell) Exec(line string) error {
	parts := strings.Fields(strings.TrimSpace(line))
	if len(parts) == 0 {
		return nil
	}
	cmd, args := strings.ToLower(parts[0]), parts[1:]

	switch cmd {
	case "help", "?":
		s.printHelp()
		return nil
	case "quit", "exit", "q":
		return errQuit
	case "set":
		return s.cmdSet(args)
	case "step":
		return s.cmdStep(args)
	case "state":
		return s.cmdState()
	case "last":
		return s.cmdLast()
	case "reset":
		if err := s.mod.ResetEncoders(); err != nil {
			return err
		}
		fmt.Fprintln(s.out, "encoders reset")
		return nil
	case "pid":
		return s.cmdPID(args)
	case "gain":
		return s.cmdGain(args)
	case "optimize":
		return s.cmdOptimize(args)
	case "config":
		fmt.Fprintf(s.out, "%+v\n", s.mod.Config())
		return nil
	}
	return fmt.Errorf("unknown command %q (try help)", cmd)
}

func (s *Shell) printHelp() {
	fmt.Fprint(s.out, `commands:
  set <speed> <deg>                  set the target and run one cycle
  step [n]                           run n cycles toward the target (default 1)
  state                              measured speed and heading
  last                               last command written to the motors
  reset                              zero the relative encoders
  pid <drive|turn> <slot> <p> <i> <d>  write gains to a motor slot
  gain [name value]                  show or change drive controller gains
  optimize <heading> <speed> <deg>   show what a target would be turned into
  config                             module calibration
  help, quit
`)
}

func floats(args []string, names ...string) ([]float64, error) {
	if len(args) != len(names) {
		return nil, fmt.Errorf("want %d arguments: %s", len(names), strings.Join(names, " "))
	}
	vals := make([]float64, len(args))
	for i, a := range args {
		v, err := strconv.ParseFloat(a, 64)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", names[i], err)
		}
		vals[i] = v
	}
	return vals, nil
}

func (s *Shell) cmdSet(args []string) error {
	v, err := floats(args, "speed", "deg")
	if err != nil {
		return err
	}
	s.target = swerve.ModuleState{Speed: v[0], Angle: swerve.FromDegrees(v[1])}
	return s.run(1)
}

func (s *Shell) cmdStep(args []string) error {
	n := 1
	if len(args) > 0 {
		var err error
		n, err = strconv.Atoi(args[0])
		if err != nil || n < 1 {
			return fmt.Errorf("step count must be a positive integer, got %q", args[0])
		}
	}
	return s.run(n)
}

func (s *Shell) run(n int) error {
	var last sim.Sample
	dropped := 0
	for i := 0; i < n; i++ {
		smp, err := s.cycler.Cycle(s.t, s.target, s.period)
		if err != nil {
			return err
		}
		s.t += s.period
		if smp.Dropped {
			dropped++
		}
		last = smp
	}
	fmt.Fprintf(s.out, "t=%.2fs  command %.3f m/s @ %.2f°  measured %.3f m/s @ %.2f°",
		s.t, last.CommandSpeed, last.CommandDeg, last.Speed, last.HeadingDeg)
	if last.Flipped {
		fmt.Fprint(s.out, "  (flipped)")
	}
	if dropped > 0 {
		fmt.Fprintf(s.out, "  dropped %d", dropped)
	}
	fmt.Fprintln(s.out)
	return nil
}

func (s *Shell) cmdState() error {
	st, err := s.mod.StateE()
	fmt.Fprintln(s.out, st)
	if err != nil {
		fmt.Fprintf(s.out, "degraded: %v\n", err)
	}
	return nil
}

func (s *Shell) cmdLast() error {
	cmd, ok := s.mod.LastCommand()
	if !ok {
		fmt.Fprintln(s.out, "no command written yet")
		return nil
	}
	fmt.Fprintf(s.out, "target %s  optimized %s  heading %s  volts %.3f  counts %.1f\n",
		cmd.Target, cmd.Optimized, cmd.Heading, cmd.Volts, cmd.Counts)
	return nil
}

func (s *Shell) cmdPID(args []string) error {
	if len(args) != 5 {
		return errors.New("usage: pid <drive|turn> <slot> <p> <i> <d>")
	}
	motor, err := swerve.ParseMotor(args[0])
	if err != nil {
		return err
	}
	slot, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("slot: %w", err)
	}
	g, err := floats(args[2:], "p", "i", "d")
	if err != nil {
		return err
	}
	if err := s.mod.ConfigMotorPID(motor, slot, g[0], g[1], g[2]); err != nil {
		return err
	}
	fmt.Fprintf(s.out, "%s slot %d: p=%g i=%g d=%g\n", motor, slot, g[0], g[1], g[2])
	return nil
}

// cmdGain retunes the drive velocity controller. Its accumulated state is
// cleared after a change.
func (s *Shell) cmdGain(args []string) error {
	if s.tuner == nil {
		return errors.New("no drive controller attached")
	}
	switch len(args) {
	case 0:
		params := s.tuner.GetParams()
		names := make([]string, 0, len(params))
		for name := range params {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(s.out, "%-4s %g\n", name, params[name])
		}
		return nil
	case 2:
		v, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return fmt.Errorf("value: %w", err)
		}
		if err := s.tuner.SetParam(args[0], v); err != nil {
			return err
		}
		if r, ok := s.tuner.(interface{ Reset() }); ok {
			r.Reset()
		}
		fmt.Fprintf(s.out, "%s = %g\n", args[0], v)
		return nil
	}
	return errors.New("usage: gain [name value]")
}

func (s *Shell) cmdOptimize(args []string) error {
	v, err := floats(args, "heading", "speed", "deg")
	if err != nil {
		return err
	}
	target := swerve.ModuleState{Speed: v[1], Angle: swerve.FromDegrees(v[2])}
	out := swerve.Optimize(target, swerve.FromDegrees(v[0]), s.mod.Config().FlipPolicy)
	fmt.Fprintln(s.out, out)
	return nil
}
