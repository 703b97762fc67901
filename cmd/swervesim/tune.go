package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/san-kum/swervesim/internal/logging"
	"github.com/san-kum/swervesim/internal/optim"
	"github.com/san-kum/swervesim/internal/sim"
)

func tuneGains(cmd *cobra.Command, args []string) error {
	if backend != "sim" {
		return fmt.Errorf("tune needs the sim backend")
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if len(args) > 0 {
		cfg.Run.Profile = args[0]
	}
	profile, err := sim.NewProfile(cfg.Run.Profile, cfg.Run.Speed, cfg.Run.AngleDeg)
	if err != nil {
		return err
	}

	kv := tuneKv
	if len(kv) == 0 {
		kv = []float64{cfg.Drive.Kv}
	}
	grid, err := optim.NewGridSearch(
		[]string{"drive_kp", "drive_kv", "turn_kp"},
		[][]float64{tuneKp, kv, tuneTurnKp},
	)
	if err != nil {
		return err
	}

	fmt.Printf("tuning %s over %d points, minimising %s\n", profile.Name(), grid.Size(), tuneMetric)

	log := logging.Discard()
	build := func(params map[string]float64) (*sim.Runner, func(), error) {
		trial := *cfg
		trial.Drive.Kp = params["drive_kp"]
		trial.Drive.Kv = params["drive_kv"]
		trial.Module.TurnKP = params["turn_kp"]
		return newRunner(&trial, log)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	simCfg := sim.Config{Period: cfg.Run.Period, Duration: cfg.Run.Duration}
	best, val, err := grid.Search(ctx, build, profile, simCfg, tuneMetric)
	if err != nil {
		return err
	}

	fmt.Printf("\nbest %s = %.4f\n", tuneMetric, val)
	fmt.Printf("  %-16s %g\n", "drive.kp", best["drive_kp"])
	fmt.Printf("  %-16s %g\n", "drive.kv", best["drive_kv"])
	fmt.Printf("  %-16s %g\n", "module.turn_kp", best["turn_kp"])
	return nil
}
