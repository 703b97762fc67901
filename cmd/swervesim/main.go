package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	dataDir    string
	configFile string
	preset     string
	logLevel   string
	backend    string
	canIface   string
	flipPolicy string

	period     float64
	duration   float64
	speed      float64
	angleDeg   float64
	seed       int64
	integrator string
	faultRate  float64
	numRuns    int
	realTime   bool
	outFile    string
	svgFile    string

	tuneKp     []float64
	tuneKv     []float64
	tuneTurnKp []float64
	tuneMetric string
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "swervesim",
		Short:         "swerve module control unit and bench",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&dataDir, "data", ".swervesim", "data directory")
	pf.StringVar(&configFile, "config", "", "config file path (yaml)")
	pf.StringVar(&preset, "preset", "", "start from a gearing preset")
	pf.StringVar(&logLevel, "log-level", "info", "debug|info|warn|error")
	pf.StringVar(&backend, "backend", "sim", "device backend: sim|can")
	pf.StringVar(&canIface, "can-iface", "can0", "SocketCAN interface for --backend can")
	pf.StringVar(&flipPolicy, "flip-policy", "angle_only", "angle_only|reverse_drive")

	runCmd := &cobra.Command{
		Use:   "run [profile]",
		Short: "drive one module through a target profile and store the run",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runProfile,
	}
	addLoopFlags(runCmd)
	runCmd.Flags().Float64Var(&duration, "time", 5.0, "duration (s)")
	runCmd.Flags().IntVar(&numRuns, "runs", 1, "independent seeded runs (sim only)")
	runCmd.Flags().BoolVar(&realTime, "realtime", false, "pace cycles against the wall clock")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot heading, speed and voltage of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&svgFile, "svg", "", "also write heading traces to an svg file")

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export a run as json",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}
	exportCmd.Flags().StringVarP(&outFile, "output", "o", "", "output file (default stdout)")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "steer a simulated module from a live terminal view",
		Args:  cobra.NoArgs,
		RunE:  runLive,
	}
	addLoopFlags(liveCmd)

	shellCmd := &cobra.Command{
		Use:   "shell",
		Short: "interactive shell around one module",
		Args:  cobra.NoArgs,
		RunE:  runShell,
	}
	addLoopFlags(shellCmd)

	optimizeCmd := &cobra.Command{
		Use:     "optimize <heading_deg> <speed> <angle_deg>",
		Short:   "show how a target is remapped for a given heading",
		Example: "  swervesim optimize 0 2 -170\n  swervesim optimize -- -90 1 95",
		Args:    cobra.ExactArgs(3),
		RunE:    optimizeTarget,
	}
	// numbers after the first positional argument may be negative
	optimizeCmd.Flags().SetInterspersed(false)

	tuneCmd := &cobra.Command{
		Use:   "tune [profile]",
		Short: "grid search drive and steering gains against the simulator",
		Args:  cobra.MaximumNArgs(1),
		RunE:  tuneGains,
	}
	addLoopFlags(tuneCmd)
	tuneCmd.Flags().Float64Var(&duration, "time", 3.0, "duration of each trial (s)")
	tuneCmd.Flags().Float64SliceVar(&tuneKp, "kp", []float64{0.5, 1, 2}, "drive kp candidates")
	tuneCmd.Flags().Float64SliceVar(&tuneKv, "kv", nil, "drive kv candidates (default: configured kv)")
	tuneCmd.Flags().Float64SliceVar(&tuneTurnKp, "turn-kp", []float64{0.3, 0.6, 1.2}, "steering kp candidates")
	tuneCmd.Flags().StringVar(&tuneMetric, "metric", "heading_rms_deg", "metric to minimise")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list gearing presets",
		Args:  cobra.NoArgs,
		RunE:  listPresets,
	}

	rootCmd.AddCommand(runCmd, listCmd, plotCmd, exportCmd, liveCmd, shellCmd, optimizeCmd, tuneCmd, presetsCmd)
	return rootCmd
}

func addLoopFlags(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&period, "period", 0.02, "control period (s)")
	cmd.Flags().Float64Var(&speed, "speed", 2.0, "target speed (m/s)")
	cmd.Flags().Float64Var(&angleDeg, "angle", 90, "target heading (deg)")
	cmd.Flags().Int64Var(&seed, "seed", 0, "simulator random seed")
	cmd.Flags().StringVar(&integrator, "integrator", "rk4", "plant integrator: rk4|euler")
	cmd.Flags().Float64Var(&faultRate, "faults", 0, "simulated bus fault probability per transaction")
}
