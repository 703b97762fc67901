package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/san-kum/swervesim/internal/config"
	"github.com/san-kum/swervesim/internal/control"
	"github.com/san-kum/swervesim/internal/device/can"
	"github.com/san-kum/swervesim/internal/device/simdev"
	"github.com/san-kum/swervesim/internal/logging"
	"github.com/san-kum/swervesim/internal/sim"
	"github.com/san-kum/swervesim/internal/swerve"
)

// loadConfig layers defaults, preset, config file and explicitly set flags,
// in that order. Later layers set values, they never rescale earlier ones.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}
	if configFile != "" {
		loaded, err := config.LoadOver(configFile, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.LogLevel = logLevel
	}
	if flags.Changed("can-iface") {
		cfg.CAN.Interface = canIface
	}
	if flags.Changed("flip-policy") {
		cfg.Module.FlipPolicy = flipPolicy
	}
	if flags.Changed("period") {
		cfg.Run.Period = period
	}
	if flags.Changed("time") {
		cfg.Run.Duration = duration
	}
	if flags.Changed("speed") {
		cfg.Run.Speed = speed
	}
	if flags.Changed("angle") {
		cfg.Run.AngleDeg = angleDeg
	}
	if flags.Changed("seed") {
		cfg.Sim.Seed = seed
	}
	if flags.Changed("integrator") {
		cfg.Sim.Integrator = integrator
	}
	if flags.Changed("faults") {
		cfg.Sim.FaultRate = faultRate
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) (*slog.Logger, error) {
	return logging.New(cfg.LogLevel, os.Stderr)
}

// bench is one constructed module and whatever backs it.
type bench struct {
	mod   *swerve.Module
	ctrl  *control.Velocity
	rig   *simdev.Rig // nil on hardware
	close func()
}

func (b *bench) plant() sim.Plant {
	if b.rig == nil {
		return nil
	}
	return b.rig
}

func openBench(cfg *config.Config, log *slog.Logger) (*bench, error) {
	mc, err := cfg.SwerveConfig()
	if err != nil {
		return nil, err
	}
	ctrl := cfg.DriveController()
	ch := cfg.Module.Channels

	switch backend {
	case "sim":
		plant, err := cfg.Plant()
		if err != nil {
			return nil, err
		}
		rig, err := simdev.NewRig(plant, cfg.SimParams())
		if err != nil {
			return nil, err
		}
		mod, err := swerve.New(rig, ch, mc, ctrl, swerve.WithLogger(log))
		if err != nil {
			return nil, err
		}
		return &bench{mod: mod, ctrl: ctrl, rig: rig, close: func() { mod.Close() }}, nil

	case "can":
		bus, err := can.Open(cfg.CAN.Interface, log)
		if err != nil {
			return nil, err
		}
		p := can.NewProvider(bus,
			can.WithProbeTimeout(cfg.ProbeTimeout()),
			can.WithStaleAfter(cfg.StaleAfter()),
			can.WithProviderLogger(log),
		)
		mod, err := swerve.New(p, ch, mc, ctrl, swerve.WithLogger(log))
		if err != nil {
			bus.Close()
			return nil, err
		}
		return &bench{mod: mod, ctrl: ctrl, close: func() {
			mod.Close()
			bus.Close()
		}}, nil
	}
	return nil, fmt.Errorf("unknown backend %q (want sim or can)", backend)
}
