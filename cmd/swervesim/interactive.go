package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/san-kum/swervesim/internal/logging"
	"github.com/san-kum/swervesim/internal/shell"
	"github.com/san-kum/swervesim/internal/swerve"
	"github.com/san-kum/swervesim/internal/tui"
)

func runLive(cmd *cobra.Command, args []string) error {
	if backend != "sim" {
		return fmt.Errorf("live view needs the sim backend")
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	policy, err := swerve.ParseFlipPolicy(cfg.Module.FlipPolicy)
	if err != nil {
		return err
	}

	// The alt screen owns the terminal; log lines would tear it.
	log := logging.Discard()
	b, err := openBench(cfg, log)
	if err != nil {
		return err
	}
	defer b.close()

	return tui.Run(wrapBench(b, log), tui.Options{
		Period:   cfg.Run.Period,
		Speed:    cfg.Run.Speed,
		AngleDeg: cfg.Run.AngleDeg,
		Policy:   policy,
		Faults:   b.rig,
		MaxSpeed: cfg.MaxSpeed(),
	})
}

func runShell(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	b, err := openBench(cfg, log)
	if err != nil {
		return err
	}
	defer b.close()

	r := wrapBench(b, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return shell.New(b.mod, r, cfg.Run.Period, os.Stdout, shell.WithTuner(b.ctrl)).Run(ctx)
}

func optimizeTarget(cmd *cobra.Command, args []string) error {
	vals := make([]float64, len(args))
	for i, a := range args {
		v, err := strconv.ParseFloat(a, 64)
		if err != nil {
			return fmt.Errorf("invalid number %q", a)
		}
		vals[i] = v
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	policy, err := swerve.ParseFlipPolicy(cfg.Module.FlipPolicy)
	if err != nil {
		return err
	}

	heading := swerve.FromDegrees(vals[0])
	target := swerve.ModuleState{Speed: vals[1], Angle: swerve.FromDegrees(vals[2])}
	opt := swerve.Optimize(target, heading, policy)

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "heading  %v\n", heading)
	fmt.Fprintf(out, "target   %v\n", target)
	fmt.Fprintf(out, "command  %v\n", opt)
	if swerve.Flipped(target, opt) {
		fmt.Fprintf(out, "flipped  (%s)\n", policy)
	}
	return nil
}
