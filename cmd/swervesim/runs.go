package main

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/swervesim/internal/config"
	"github.com/san-kum/swervesim/internal/export"
	"github.com/san-kum/swervesim/internal/storage"
)

func listRuns(cmd *cobra.Command, args []string) error {
	store := storage.New(dataDir)
	runs, err := store.List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPROFILE\tBACKEND\tPOLICY\tTIMESTAMP\tCYCLES\tDROPPED\tHEADING RMS")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\t%d\t%.3f\n",
			shortID(run.ID),
			run.Profile,
			run.Backend,
			run.FlipPolicy,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Cycles,
			run.Dropped,
			run.Metrics["heading_rms_deg"],
		)
	}
	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	store := storage.New(dataDir)
	id, err := store.Resolve(args[0])
	if err != nil {
		return err
	}
	meta, err := store.Load(id)
	if err != nil {
		return err
	}
	samples, err := store.LoadSamples(id)
	if err != nil {
		return err
	}
	if len(samples) == 0 {
		return fmt.Errorf("run %s has no samples", shortID(id))
	}

	n := len(samples)
	heading := make([]float64, n)
	command := make([]float64, n)
	spd := make([]float64, n)
	target := make([]float64, n)
	drive := make([]float64, n)
	steer := make([]float64, n)
	for i, s := range samples {
		heading[i] = s.HeadingDeg
		command[i] = s.CommandDeg
		spd[i] = s.Speed
		target[i] = s.CommandSpeed
		drive[i] = s.DriveVolts
		steer[i] = s.SteerVolts
	}

	fmt.Printf("run %s  %s on %s, %d cycles, %d dropped\n\n", shortID(meta.ID), meta.Profile, meta.Backend, meta.Cycles, meta.Dropped)

	fmt.Println(asciigraph.PlotMany([][]float64{command, heading},
		asciigraph.Height(10),
		asciigraph.Width(80),
		asciigraph.SeriesColors(asciigraph.Magenta, asciigraph.Cyan),
		asciigraph.Caption("heading vs command (deg)"),
	))
	fmt.Println()
	fmt.Println(asciigraph.PlotMany([][]float64{target, spd},
		asciigraph.Height(10),
		asciigraph.Width(80),
		asciigraph.SeriesColors(asciigraph.Magenta, asciigraph.Cyan),
		asciigraph.Caption("speed vs command (m/s)"),
	))
	if meta.Backend == "sim" {
		fmt.Println()
		fmt.Println(asciigraph.PlotMany([][]float64{drive, steer},
			asciigraph.Height(8),
			asciigraph.Width(80),
			asciigraph.SeriesColors(asciigraph.Green, asciigraph.Yellow),
			asciigraph.Caption("drive / steer volts"),
		))
	}

	if svgFile != "" {
		f, err := os.Create(svgFile)
		if err != nil {
			return err
		}
		defer f.Close()
		times, series := export.HeadingSeries(samples)
		if err := export.TracesToSVG(f, times, series, 800, 300); err != nil {
			return err
		}
		fmt.Printf("\nwrote %s\n", svgFile)
	}

	if len(meta.Metrics) > 0 {
		fmt.Println()
		for _, name := range sortedKeys(meta.Metrics) {
			fmt.Printf("  %-18s %.4f\n", name, meta.Metrics[name])
		}
	}
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	store := storage.New(dataDir)
	id, err := store.Resolve(args[0])
	if err != nil {
		return err
	}

	w := os.Stdout
	if outFile != "" {
		f, err := os.Create(outFile)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	return store.ExportJSON(w, id)
}

func listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tRATIO\tWHEEL (m)\tDESCRIPTION")
	for _, name := range config.ListPresets() {
		g := config.Presets[name]
		fmt.Fprintf(w, "%s\t%.2f\t%.4f\t%s\n", name, g.DriveRatio, g.WheelDiameter, g.Description)
	}
	return w.Flush()
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
