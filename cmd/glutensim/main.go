package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/glutensim/internal/config"
	"github.com/san-kum/glutensim/internal/dynamo"
	"github.com/san-kum/glutensim/internal/export"
	"github.com/san-kum/glutensim/internal/metrics"
	"github.com/san-kum/glutensim/internal/particles"
	"github.com/san-kum/glutensim/internal/physics"
	"github.com/san-kum/glutensim/internal/sim"
	"github.com/san-kum/glutensim/internal/storage"
	"github.com/san-kum/glutensim/internal/tui"
	"github.com/spf13/cobra"
)

var (
	dataDir     string
	logLevel    string
	logFile     string
	configFile  string
	preset      string
	agents      int
	duration    float64
	dt          float64
	seed        int64
	workers     int
	gravity     string
	temperature float64
	bondProb    float64
	noMixer     bool
	debug       bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "glutensim",
		Short:         "dough and gluten network simulator",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".glutensim", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run a headless simulation and save its samples",
		Args:  cobra.NoArgs,
		RunE:  runSimulation,
	}
	addEngineFlags(runCmd)

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "interactive dashboard",
		Args:  cobra.NoArgs,
		RunE:  runLive,
	}
	addEngineFlags(liveCmd)
	liveCmd.Flags().StringVar(&logFile, "log-file", "", "write logs here instead of discarding them")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list saved runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot modulus and bond count of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "write a run's samples as csv to stdout",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "write a run's metadata and samples as json to stdout",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list configuration presets",
		RunE:  listPresets,
	}

	benchCmd := &cobra.Command{
		Use:   "bench",
		Short: "measure ticks per second across population sizes",
		RunE:  bench,
	}
	benchCmd.Flags().Int("ticks", 100, "ticks per measurement")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "summary statistics and modulus spectrum of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}

	scenarioCmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "run a scripted sequence of phases from a yaml file",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}
	addEngineFlags(scenarioCmd)

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "grid search over tunables",
		Args:  cobra.NoArgs,
		RunE:  runSweep,
	}
	addEngineFlags(sweepCmd)
	sweepCmd.Flags().StringArray("param", nil, "axis as name=v1,v2 or name=lo:hi:n (repeatable)")
	sweepCmd.Flags().String("objective", "modulus", "modulus, bonds or stability")
	sweepCmd.Flags().Int("top", 10, "rows to print")

	ensembleCmd := &cobra.Command{
		Use:   "ensemble",
		Short: "repeat a run over several seeds",
		Args:  cobra.NoArgs,
		RunE:  runEnsemble,
	}
	addEngineFlags(ensembleCmd)
	ensembleCmd.Flags().Int("seeds", 5, "number of seeds, counting up from --seed")

	rootCmd.AddCommand(runCmd, liveCmd, listCmd, plotCmd, exportCSVCmd, exportJSONCmd, presetsCmd, benchCmd,
		analyzeCmd, scenarioCmd, sweepCmd, ensembleCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func addEngineFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&configFile, "config", "", "yaml config file")
	f.StringVar(&preset, "preset", "", "named preset (see presets)")
	f.IntVar(&agents, "agents", config.DefaultAgents, "number of agents")
	f.Float64Var(&duration, "time", config.DefaultDuration, "simulated seconds")
	f.Float64Var(&dt, "dt", config.DefaultDt, "fixed step")
	f.Int64Var(&seed, "seed", config.DefaultSeed, "population seed")
	f.IntVar(&workers, "workers", 0, "worker goroutines (0 = GOMAXPROCS)")
	f.StringVar(&gravity, "gravity", "none", "environment force: none, gravity, central")
	f.Float64Var(&temperature, "temperature", 25, "brownian temperature")
	f.Float64Var(&bondProb, "bond-prob", 0.1, "bond formation probability")
	f.BoolVar(&noMixer, "no-mixer", false, "disable the mixer rod")
	f.BoolVar(&debug, "debug", false, "validate the bond graph after every tick")
}

// buildConfig layers defaults, preset, config file and explicitly set flags,
// in that order.
func buildConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("agents") {
		cfg.Agents = agents
	}
	if flags.Changed("time") {
		cfg.Duration = duration
	}
	if flags.Changed("dt") {
		cfg.Dt = dt
	}
	if flags.Changed("seed") {
		cfg.Seed = seed
	}
	if flags.Changed("workers") {
		cfg.Workers = workers
	}
	if flags.Changed("gravity") {
		cfg.Params.Gravity = gravity
	}
	if flags.Changed("temperature") {
		cfg.Params.Temperature = temperature
	}
	if flags.Changed("bond-prob") {
		cfg.Params.BondProbability = bondProb
	}
	if flags.Changed("no-mixer") {
		cfg.Mixer = !noMixer
	}
	if flags.Changed("debug") {
		cfg.Debug = debug
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newEngine(cfg *config.Config, log dynamo.Logger) (*sim.Engine, error) {
	ecfg, err := cfg.ToEngine()
	if err != nil {
		return nil, err
	}
	e, err := sim.New(ecfg)
	if err != nil {
		return nil, err
	}
	e.SetLogger(log)
	return e, nil
}

func runSimulation(cmd *cobra.Command, args []string) error {
	log := NewLogger(logLevel, os.Stderr)

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

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	log.Infof("running %d agents for %.2fs (dt=%g, seed=%d)", cfg.Agents, cfg.Duration, cfg.Dt, cfg.Seed)
	start := time.Now()
	if err := e.Run(ctx, cfg.Duration); err != nil {
		log.Warnf("run interrupted, saving partial results: %v", err)
	}
	elapsed := time.Since(start)

	stats := e.Stats()
	m := e.Metrics()
	m["final_modulus"] = stats.Modulus
	m["final_bonds"] = float64(stats.Bonds)

	runID, err := st.Save(storage.RunMetadata{
		Preset:   preset,
		Seed:     cfg.Seed,
		Agents:   stats.Agents,
		Workers:  cfg.Workers,
		Dt:       cfg.Dt,
		Duration: stats.Time,
		Ticks:    stats.Tick,
		Elapsed:  elapsed,
		Params:   e.GetParams(),
		Metrics:  m,
	}, rec.Samples())
	if err != nil {
		return err
	}
	writeArtifacts(st, runID, e.Snapshot(), rec.Samples(), log)

	fmt.Printf("completed in %v\n", elapsed.Round(time.Millisecond))
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("ticks: %d (%.0f/s)\n", stats.Tick, float64(stats.Tick)/elapsed.Seconds())
	fmt.Printf("bonds: %d  broken: %d  modulus: %.4f\n", stats.Bonds, stats.Broken, stats.Modulus)
	if stats.Outside > 0 {
		fmt.Printf("agents outside grid: %d\n", stats.Outside)
	}

	fmt.Println("\nagents:")
	counts := categoryCounts(e.Snapshot())
	for _, c := range []particles.Category{particles.Builder, particles.Linker, particles.Filler} {
		fmt.Printf("  %-8s %d\n", c, counts[c])
	}

	fmt.Println("\nmetrics:")
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("  %s: %.6f\n", name, m[name])
	}

	return nil
}

func writeArtifacts(st *storage.Store, runID string, snap sim.Snapshot, samples []metrics.Sample, log *Logger) {
	artifacts := map[string]string{
		"final_top.svg":  export.SnapshotToSVG(snap, 600, export.TopView),
		"final_side.svg": export.SnapshotToSVG(snap, 600, export.SideView),
	}
	if len(samples) > 1 {
		series := metrics.NewSeries(0)
		for _, s := range samples {
			series.Add(s)
		}
		artifacts["modulus.svg"] = export.SeriesToSVG(
			series.Column(func(s metrics.Sample) float64 { return s.Time }),
			series.Column(func(s metrics.Sample) float64 { return s.Modulus }),
			800, 300, "#ff5f87")
	}
	for name, svg := range artifacts {
		if err := st.WriteArtifact(runID, name, []byte(svg)); err != nil {
			log.Warnf("write %s: %v", name, err)
		}
	}
}

func categoryCounts(s sim.Snapshot) map[particles.Category]int {
	counts := make(map[particles.Category]int)
	for _, c := range s.Categories {
		counts[c]++
	}
	return counts
}

func runLive(cmd *cobra.Command, args []string) error {
	var w io.Writer = io.Discard
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}

	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	e, err := newEngine(cfg, NewLogger(logLevel, w))
	if err != nil {
		return err
	}

	title := "glutensim"
	if preset != "" {
		title += " · " + preset
	}
	return tui.RunLive(e, title)
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPRESET\tTIME\tAGENTS\tDURATION\tTICKS\tBONDS\tMODULUS")

	for _, run := range runs {
		p := run.Preset
		if p == "" {
			p = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%.2fs\t%d\t%.0f\t%.4f\n",
			run.ID,
			p,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Agents,
			run.Duration,
			run.Ticks,
			run.Metrics["final_bonds"],
			run.Metrics["final_modulus"],
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
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
	if len(samples) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("samples: %d\n\n", len(samples))

	series := metrics.NewSeries(0)
	for _, s := range samples {
		series.Add(s)
	}

	plots := []struct {
		caption string
		field   func(metrics.Sample) float64
	}{
		{"modulus", func(s metrics.Sample) float64 { return s.Modulus }},
		{"bonds", func(s metrics.Sample) float64 { return float64(s.Bonds) }},
		{"broken bonds", func(s metrics.Sample) float64 { return float64(s.Broken) }},
	}
	for _, p := range plots {
		graph := asciigraph.Plot(series.Column(p.field),
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(p.caption),
		)
		fmt.Println(graph)
		fmt.Println()
	}
	return nil
}

func exportCSV(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	samples, err := st.LoadSamples(args[0])
	if err != nil {
		return err
	}
	if len(samples) == 0 {
		return fmt.Errorf("no data to export")
	}
	return storage.WriteSamplesCSV(os.Stdout, samples)
}

func exportJSON(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	samples, err := st.LoadSamples(args[0])
	if err != nil {
		return err
	}
	return storage.ExportJSON(os.Stdout, *meta, samples)
}

func listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tDURATION\tGRAVITY\tMIXER\tTEMP\tBOND P")
	for _, name := range config.ListPresets() {
		c := config.GetPreset(name)
		mixer := "off"
		if c.Mixer {
			mixer = fmt.Sprintf("%.1f", c.Params.MixerSpeed)
		}
		fmt.Fprintf(w, "%s\t%.0fs\t%s\t%s\t%.0f\t%.2f\n",
			name, c.Duration, c.Params.Gravity, mixer, c.Params.Temperature, c.Params.BondProbability)
	}
	return w.Flush()
}

func bench(cmd *cobra.Command, args []string) error {
	ticks, err := cmd.Flags().GetInt("ticks")
	if err != nil {
		return err
	}
	if ticks < 1 {
		return fmt.Errorf("ticks must be positive, got %d", ticks)
	}

	sizes := []int{250, 500, 1000, 2000, 4000}
	workerCounts := []int{1, dynamo.DefaultWorkers()}
	if workerCounts[1] == 1 {
		workerCounts = workerCounts[:1]
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "AGENTS\tWORKERS\tTICKS\tTIME\tTICKS/SEC\tBONDS")

	for _, n := range sizes {
		for _, wk := range workerCounts {
			cfg := sim.DefaultConfig()
			cfg.Agents = n
			cfg.Workers = wk
			cfg.Params.Gravity = physics.GravityDown
			e, err := sim.New(cfg)
			if err != nil {
				return err
			}

			start := time.Now()
			for i := 0; i < ticks; i++ {
				e.Tick(cfg.FixedStep)
			}
			elapsed := time.Since(start)

			fmt.Fprintf(w, "%d\t%d\t%d\t%v\t%.0f\t%d\n",
				n, wk, ticks, elapsed.Round(time.Microsecond), float64(ticks)/elapsed.Seconds(), e.Stats().Bonds)
		}
	}
	return w.Flush()
}
