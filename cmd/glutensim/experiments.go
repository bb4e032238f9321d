package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"os/signal"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/san-kum/glutensim/internal/analysis"
	"github.com/san-kum/glutensim/internal/automation"
	"github.com/san-kum/glutensim/internal/metrics"
	"github.com/san-kum/glutensim/internal/optim"
	"github.com/san-kum/glutensim/internal/physics"
	"github.com/san-kum/glutensim/internal/sim"
	"github.com/san-kum/glutensim/internal/storage"
	"github.com/spf13/cobra"
)

func analyzeRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	samples, err := st.LoadSamples(runID)
	if err != nil {
		return err
	}
	if len(samples) < 2 {
		return fmt.Errorf("need at least 2 samples, have %d", len(samples))
	}

	series := metrics.NewSeries(0)
	for _, s := range samples {
		series.Add(s)
	}
	times := series.Column(func(s metrics.Sample) float64 { return s.Time })
	modulus := series.Column(func(s metrics.Sample) float64 { return s.Modulus })
	bonds := series.Column(func(s metrics.Sample) float64 { return float64(s.Bonds) })

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("samples: %d over %.2fs\n\n", len(samples), times[len(times)-1]-times[0])

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SERIES\tMEAN\tSTD\tMIN\tMAX\tTREND/s\tSETTLED AT")
	for _, row := range []struct {
		name string
		y    []float64
		tol  float64
	}{
		{"modulus", modulus, 0.05},
		{"bonds", bonds, 2},
	} {
		s := analysis.Summarize(times, row.y)
		settled := "-"
		// tolerance is relative to the series mean for modulus
		tol := row.tol
		if row.name == "modulus" {
			tol = math.Max(row.tol*s.Mean, 1e-9)
		}
		if i := analysis.SettleIndex(row.y, tol, 10); i >= 0 {
			settled = fmt.Sprintf("%.2fs", times[i])
		}
		fmt.Fprintf(w, "%s\t%.4f\t%.4f\t%.4f\t%.4f\t%+.4f\t%s\n", row.name, s.Mean, s.Std, s.Min, s.Max, s.Slope, settled)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	rate := 1 / (times[1] - times[0])
	peaks := analysis.Spectrum(modulus, rate).Peaks(3)
	fmt.Printf("\nmodulus spectrum (%.0f samples/s):\n", rate)
	if len(peaks) == 0 {
		fmt.Println("  flat")
	}
	for _, p := range peaks {
		fmt.Printf("  %7.3f Hz  power %.4g\n", p.Freq, p.Power)
	}

	if speed := meta.Params["mixer_speed"]; speed > 0 {
		m := physics.NewMixer()
		fmt.Printf("mixer lines: %.3f Hz (x), %.3f Hz (z)\n",
			m.FreqX*speed/(2*math.Pi), m.FreqZ*speed/(2*math.Pi))
	}
	return nil
}

func runScenario(cmd *cobra.Command, args []string) error {
	log := NewLogger(logLevel, os.Stderr)

	scenario, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	e, err := newEngine(cfg, log)
	if err != nil {
		return err
	}
	rec := storage.NewRecorder()
	e.AddObserver(rec)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	name := scenario.Name
	if name == "" {
		name = "scenario"
	}
	fmt.Printf("%s: %d phases, %.1fs\n", name, len(scenario.Phases), scenario.Duration())
	if scenario.Description != "" {
		fmt.Println(scenario.Description)
	}
	fmt.Println()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PHASE\tEND\tBONDS\tBROKEN\tMODULUS")
	_, runErr := automation.RunScenario(ctx, scenario, e, func(i int, r automation.PhaseResult) {
		fmt.Fprintf(w, "%s\t%.2fs\t%d (%+d)\t%d\t%.4f\n",
			r.Phase, r.End.Time, r.End.Bonds, r.End.Bonds-r.Start.Bonds, r.End.Broken, r.End.Modulus)
	})
	if err := w.Flush(); err != nil {
		return err
	}
	if runErr != nil {
		log.Warnf("scenario stopped: %v", runErr)
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}
	stats := e.Stats()
	runID, err := st.Save(storage.RunMetadata{
		Preset:   strings.Join(strings.Fields(strings.ToLower(name)), "-"),
		Seed:     cfg.Seed,
		Agents:   stats.Agents,
		Workers:  cfg.Workers,
		Dt:       cfg.Dt,
		Duration: stats.Time,
		Ticks:    stats.Tick,
		Params:   e.GetParams(),
		Metrics:  map[string]float64{"final_modulus": stats.Modulus, "final_bonds": float64(stats.Bonds)},
	}, rec.Samples())
	if err != nil {
		return err
	}
	writeArtifacts(st, runID, e.Snapshot(), rec.Samples(), log)
	fmt.Printf("\nrun id: %s\n", runID)
	return runErr
}

func runSweep(cmd *cobra.Command, args []string) error {
	specs, err := cmd.Flags().GetStringArray("param")
	if err != nil {
		return err
	}
	if len(specs) == 0 {
		return fmt.Errorf("at least one --param is required")
	}
	objName, _ := cmd.Flags().GetString("objective")
	obj, ok := optim.Objectives[objName]
	if !ok {
		return fmt.Errorf("unknown objective: %s", objName)
	}
	top, _ := cmd.Flags().GetInt("top")

	axes := make([]optim.Axis, 0, len(specs))
	names := make([]string, 0, len(specs))
	for _, s := range specs {
		a, err := optim.ParseAxis(s)
		if err != nil {
			return err
		}
		axes = append(axes, a)
		names = append(names, a.Name)
	}

	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	ecfg, err := cfg.ToEngine()
	if err != nil {
		return err
	}

	g := optim.NewGridSearch(axes)
	fmt.Printf("sweeping %d combinations, %.1fs each, objective %s\n\n", g.Size(), cfg.Duration, objName)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	points, err := g.Search(ctx, func() (*sim.Engine, error) { return sim.New(ecfg) }, cfg.Duration, obj)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, strings.ToUpper(strings.Join(names, "\t"))+"\tSCORE\tBONDS\tBROKEN\tMODULUS")
	for i, p := range points {
		if i >= top {
			break
		}
		for _, n := range names {
			fmt.Fprintf(w, "%g\t", p.Params[n])
		}
		fmt.Fprintf(w, "%.4f\t%d\t%d\t%.4f\n", p.Score, p.Final.Bonds, p.Final.Broken, p.Final.Modulus)
	}
	return w.Flush()
}

func runEnsemble(cmd *cobra.Command, args []string) error {
	n, _ := cmd.Flags().GetInt("seeds")
	if n < 1 {
		return fmt.Errorf("seeds must be positive, got %d", n)
	}

	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	seeds := make([]int64, n)
	for i := range seeds {
		seeds[i] = cfg.Seed + int64(i)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	results, err := automation.RunEnsemble(ctx, seeds, cfg.Duration, func(seed int64) (*sim.Engine, error) {
		c := *cfg
		c.Seed = seed
		return newEngine(&c, NewLogger(logLevel, os.Stderr))
	})
	if err != nil {
		return err
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Seed < results[j].Seed })
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SEED\tBONDS\tBROKEN\tMODULUS")
	for _, r := range results {
		fmt.Fprintf(w, "%d\t%d\t%d\t%.4f\n", r.Seed, r.Final.Bonds, r.Final.Broken, r.Final.Modulus)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	mean, std := automation.EnsembleStats(results)
	fmt.Printf("\nmodulus: %.4f ± %.4f over %d seeds\n", mean, std, len(results))
	return nil
}

