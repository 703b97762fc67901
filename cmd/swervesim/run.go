package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/san-kum/swervesim/internal/config"
	"github.com/san-kum/swervesim/internal/metrics"
	"github.com/san-kum/swervesim/internal/sim"
	"github.com/san-kum/swervesim/internal/storage"
)

func runProfile(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log, err := newLogger(cfg)
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
	if numRuns > 1 && backend != "sim" {
		return fmt.Errorf("--runs needs the sim backend")
	}

	simCfg := sim.Config{
		Period:   cfg.Run.Period,
		Duration: cfg.Run.Duration,
		RealTime: realTime || backend == "can",
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var results []*sim.Result
	if numRuns > 1 {
		fmt.Printf("running %d × %s (%.1fs @ %.0f Hz)\n", numRuns, profile.Name(), simCfg.Duration, 1/simCfg.Period)
		ens := sim.NewEnsemble(func(s int64) (*sim.Runner, func(), error) {
			member := *cfg
			member.Sim.Seed = s
			return newRunner(&member, log.With("seed", s))
		}, numRuns, cfg.Sim.Seed)
		results, err = ens.Run(ctx, profile, simCfg)
		if err != nil {
			return err
		}
	} else {
		fmt.Printf("running %s on %s (%.1fs @ %.0f Hz)\n", profile.Name(), backend, simCfg.Duration, 1/simCfg.Period)
		r, cleanup, err := newRunner(cfg, log)
		if err != nil {
			return err
		}
		res, err := r.Run(ctx, profile, simCfg)
		cleanup()
		if err != nil {
			return err
		}
		results = []*sim.Result{res}
	}

	store := storage.New(dataDir)
	if err := store.Init(); err != nil {
		return fmt.Errorf("failed to init storage: %w", err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSEED\tCYCLES\tDROPPED\tMETRICS")
	for i, res := range results {
		meta := storage.RunMetadata{
			Profile:    profile.Name(),
			Backend:    backend,
			Seed:       cfg.Sim.Seed + int64(i),
			Period:     simCfg.Period,
			Duration:   simCfg.Duration,
			Integrator: cfg.Sim.Integrator,
			FlipPolicy: cfg.Module.FlipPolicy,
		}
		id, err := store.Save(meta, res)
		if err != nil {
			return fmt.Errorf("failed to save run: %w", err)
		}
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%s\n", shortID(id), meta.Seed, res.Cycles, res.Dropped, formatMetrics(res.Metrics))
	}
	return w.Flush()
}

// newRunner opens a bench for cfg and wraps it in a runner.
func newRunner(cfg *config.Config, log *slog.Logger) (*sim.Runner, func(), error) {
	b, err := openBench(cfg, log)
	if err != nil {
		return nil, nil, err
	}
	return wrapBench(b, log), b.close, nil
}

// wrapBench returns a runner over b carrying the default metrics.
func wrapBench(b *bench, log *slog.Logger) *sim.Runner {
	r := sim.New(b.mod, b.plant(), sim.WithLogger(log))
	for _, m := range metrics.Default() {
		r.AddMetric(m)
	}
	return r
}

func formatMetrics(m map[string]float64) string {
	parts := make([]string, 0, len(m))
	for _, name := range sortedKeys(m) {
		parts = append(parts, fmt.Sprintf("%s=%.4g", name, m[name]))
	}
	return strings.Join(parts, " ")
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
