package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/fluidsim/internal/analysis"
	"github.com/san-kum/fluidsim/internal/compute"
	"github.com/san-kum/fluidsim/internal/config"
	"github.com/san-kum/fluidsim/internal/export"
	"github.com/san-kum/fluidsim/internal/gui"
	"github.com/san-kum/fluidsim/internal/metrics"
	"github.com/san-kum/fluidsim/internal/sim"
	"github.com/san-kum/fluidsim/internal/storage"
	"github.com/san-kum/fluidsim/internal/viz"
)

var (
	dataDir  string
	logLevel string

	configFile string
	frames     int
	width      int
	height     int
	dt         float64
	iterations int
	backend    string

	series    string
	outFile   string
	palette   string
	scale     int
	theme     string
	benchRuns int
	sweep     string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "fluidsim",
		Short: "2d smoke simulation lab",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			setupLogging(logLevel)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return viz.RunInteractive(theme)
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".fluidsim", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug|info|warn|error)")
	rootCmd.Flags().StringVar(&theme, "theme", "smoke", "color theme")

	runCmd := &cobra.Command{
		Use:   "run [preset]",
		Short: "run simulation headless and save the result",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSimulation,
	}
	addSimFlags(runCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot frame metrics",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&series, "series", "", "single metric to plot (default: all)")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "summary statistics and spectrum",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export frame metrics to csv",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return storage.New(dataDir).ExportCSV(os.Stdout, args[0])
		},
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run to json",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return storage.New(dataDir).ExportJSON(os.Stdout, args[0])
		},
	}

	exportSVGCmd := &cobra.Command{
		Use:   "export-svg [run_id]",
		Short: "export density contour or a metric chart to svg",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSVG,
	}
	exportSVGCmd.Flags().StringVar(&series, "series", "", "metric to chart instead of the density contour")
	exportSVGCmd.Flags().StringVar(&outFile, "out", "", "output file (default <run_id>.svg)")

	snapshotCmd := &cobra.Command{
		Use:   "snapshot [run_id]",
		Short: "render final density to png",
		Args:  cobra.ExactArgs(1),
		RunE:  snapshotRun,
	}
	snapshotCmd.Flags().StringVar(&outFile, "out", "", "output file (default <run_id>.png)")
	snapshotCmd.Flags().StringVar(&palette, "palette", "smoke", "palette ("+strings.Join(viz.PaletteNames(), "|")+")")
	snapshotCmd.Flags().IntVar(&scale, "scale", 4, "pixels per cell")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list presets",
		Run: func(cmd *cobra.Command, args []string) {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tGRID\tFRAMES\tBACKEND\tJACOBI\tOBSTACLE")
			for _, name := range config.ListPresets() {
				p := config.GetPreset(name)
				fmt.Fprintf(w, "%s\t%dx%d\t%d\t%s\t%d\t%.2f\n",
					name, p.Grid.Width, p.Grid.Height, p.Frames, p.Backend,
					p.Solver.JacobiIterations, p.Obstacle.Radius)
			}
			w.Flush()
		},
	}

	benchCmd := &cobra.Command{
		Use:   "bench",
		Short: "benchmark frames per second across grid sizes and backends",
		RunE:  benchSim,
	}
	benchCmd.Flags().IntVar(&benchRuns, "frames", 20, "frames per measurement")
	benchCmd.Flags().IntVar(&iterations, "iterations", 50, "jacobi iterations")

	compareCmd := &cobra.Command{
		Use:   "compare [preset]",
		Short: "compare divergence residual across jacobi iteration counts",
		Args:  cobra.MaximumNArgs(1),
		RunE:  compareIterations,
	}
	addSimFlags(compareCmd)
	compareCmd.Flags().StringVar(&sweep, "sweep", "5,20,50", "comma separated jacobi iteration counts")

	liveCmd := &cobra.Command{
		Use:   "live [preset]",
		Short: "run simulation with live terminal view",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLive,
	}
	addSimFlags(liveCmd)
	liveCmd.Flags().StringVar(&theme, "theme", "smoke", "color theme ("+strings.Join(viz.ThemeNames(), "|")+")")

	guiCmd := &cobra.Command{
		Use:   "gui [preset]",
		Short: "run simulation in a window",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runGUI,
	}
	addSimFlags(guiCmd)

	rootCmd.AddCommand(runCmd, listCmd, plotCmd, analyzeCmd, exportCSVCmd, exportJSONCmd,
		exportSVGCmd, snapshotCmd, presetsCmd, benchCmd, compareCmd, liveCmd, guiCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addSimFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().IntVar(&frames, "frames", config.DefaultFrames, "number of frames")
	cmd.Flags().IntVar(&width, "width", config.DefaultWidth, "grid width")
	cmd.Flags().IntVar(&height, "height", config.DefaultHeight, "grid height")
	cmd.Flags().Float64Var(&dt, "dt", 0.125, "timestep")
	cmd.Flags().IntVar(&iterations, "iterations", 50, "jacobi iterations")
	cmd.Flags().StringVar(&backend, "backend", config.DefaultBackend, "compute backend ("+strings.Join(compute.Names(), "|")+")")
}

func setupLogging(level string) {
	var lv slog.Level
	if err := lv.UnmarshalText([]byte(level)); err != nil {
		lv = slog.LevelWarn
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lv})))
}

// resolveConfig layers preset, config file and explicitly set flags, in
// that order.
func resolveConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if len(args) > 0 {
		cfg = config.GetPreset(args[0])
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", args[0], config.ListPresets())
		}
	}

	if configFile != "" {
		loaded, err := config.LoadInto(configFile, cfg)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("frames") {
		cfg.Frames = frames
	}
	if flags.Changed("width") {
		cfg.Grid.Width = width
	}
	if flags.Changed("height") {
		cfg.Grid.Height = height
	}
	if flags.Changed("dt") {
		cfg.Dt = dt
	}
	if flags.Changed("iterations") {
		cfg.Solver.JacobiIterations = iterations
	}
	if flags.Changed("backend") {
		cfg.Backend = backend
	}
	if cfg.Name == "" {
		cfg.Name = "custom"
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newSimulator(cfg *config.Config) (*sim.Simulator, error) {
	be, err := compute.Lookup(cfg.Backend)
	if err != nil {
		return nil, err
	}
	p, err := cfg.SimParams()
	if err != nil {
		return nil, err
	}
	return sim.New(cfg.GridSize(), p, be, sim.WithLogger(slog.Default()))
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}

	s, err := newSimulator(cfg)
	if err != nil {
		return err
	}
	for _, m := range metrics.Standard() {
		s.AddMetric(m)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Printf("running %s: %s grid, %d frames, backend %s\n", cfg.Name, s.Grid(), cfg.Frames, s.Backend().Name())

	result, err := s.Run(ctx, cfg.Frames)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	if errors.Is(err, context.Canceled) {
		fmt.Printf("interrupted after %d frames\n", result.StepsTaken)
	}

	st := storage.New(dataDir)
	runID, err := st.Save(cfg, s.Backend().Name(), result, s.Density())
	if err != nil {
		return err
	}

	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("frames: %d\n", result.StepsTaken)
	fmt.Printf("elapsed: %.2fs", result.Elapsed)
	if result.Elapsed > 0 {
		fmt.Printf(" (%.1f frames/s)", float64(result.StepsTaken)/result.Elapsed)
	}
	fmt.Println()
	fmt.Println("metrics:")
	for _, name := range metrics.Names() {
		if v, ok := result.Metrics[name]; ok {
			fmt.Printf("  %s: %.6g\n", name, v)
		}
	}
	return nil
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
	fmt.Fprintln(w, "ID\tPRESET\tTIME\tGRID\tFRAMES\tDT\tJACOBI\tBACKEND")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%dx%d\t%d\t%.4f\t%d\t%s\n",
			run.ID,
			run.Preset,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Width, run.Height,
			run.Frames,
			run.Dt,
			run.JacobiIterations,
			run.Backend,
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

	rows, err := st.LoadFrames(runID)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("preset: %s\n", meta.Preset)
	fmt.Printf("frames: %d\n\n", len(rows))

	names := metrics.Names()
	if series != "" {
		names = []string{series}
	}

	for _, name := range names {
		data := storage.Series(rows, name)
		if data == nil {
			return fmt.Errorf("unknown series: %s (available: %v)", name, metrics.Names())
		}
		graph := asciigraph.Plot(data,
			asciigraph.Height(10),
			asciigraph.Width(70),
			asciigraph.Caption(name),
		)
		fmt.Println(graph)
		fmt.Println()
	}

	return nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	rows, err := st.LoadFrames(runID)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return fmt.Errorf("no data")
	}

	fmt.Printf("analysis: %s\n", meta.ID)
	fmt.Printf("preset: %s, grid %dx%d, %d frames\n\n", meta.Preset, meta.Width, meta.Height, len(rows))

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "METRIC\tMEAN\tSTDDEV\tMIN\tMAX\tFINAL\tSLOPE")
	for _, name := range metrics.Names() {
		s := analysis.Summarize(storage.Series(rows, name))
		fmt.Fprintf(w, "%s\t%.4g\t%.4g\t%.4g\t%.4g\t%.4g\t%.3g\n",
			name, s.Mean, s.StdDev, s.Min, s.Max, s.Final, s.Slope)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Println()

	energy := storage.Series(rows, metrics.NameKineticEnergy)
	ps := analysis.PowerSpectrum(energy)
	if len(ps) > 2 {
		graph := asciigraph.Plot(ps[1:],
			asciigraph.Height(12),
			asciigraph.Width(70),
			asciigraph.Caption("power spectrum ("+metrics.NameKineticEnergy+")"),
		)
		fmt.Println(graph)
		fmt.Println()
	}

	freq, power := analysis.DominantFrequency(energy, meta.Dt)
	fmt.Printf("dominant frequency: %.4f (power %.4g)\n", freq, power)
	if freq > 0 {
		fmt.Printf("period: %.3f time units\n", 1.0/freq)
	}
	return nil
}

func snapshotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	pal := viz.GetPalette(palette)
	if pal == nil {
		return fmt.Errorf("unknown palette: %s (available: %v)", palette, viz.PaletteNames())
	}
	if scale < 1 {
		return fmt.Errorf("scale must be at least 1")
	}

	st := storage.New(dataDir)
	density, err := st.LoadDensity(runID)
	if err != nil {
		return err
	}

	out := outFile
	if out == "" {
		out = runID + ".png"
	}

	img := viz.Render(density, nil, pal, scale, 0)
	if err := viz.SavePNG(out, img); err != nil {
		return err
	}
	b := img.Bounds()
	fmt.Printf("wrote %s (%dx%d)\n", out, b.Dx(), b.Dy())
	return nil
}

func exportSVG(cmd *cobra.Command, args []string) error {
	runID := args[0]
	st := storage.New(dataDir)

	var svg string
	if series != "" {
		rows, err := st.LoadFrames(runID)
		if err != nil {
			return err
		}
		data := storage.Series(rows, series)
		if data == nil {
			return fmt.Errorf("unknown series: %s (available: %v)", series, metrics.Names())
		}
		svg = export.SeriesSVG(data, 800, 300, "#00ff9f")
	} else {
		density, err := st.LoadDensity(runID)
		if err != nil {
			return err
		}
		g := density.Grid()
		c := viz.NewCanvas((g.Width+1)/2, (g.Height+3)/4)
		c.Plot(density, 0.1*float64(density.MaxAbs()))
		svg = export.CanvasSVG(c, 4, "#e0e0e0")
	}
	if svg == "" {
		return fmt.Errorf("not enough data for %s", runID)
	}

	out := outFile
	if out == "" {
		out = runID + ".svg"
	}
	if err := os.WriteFile(out, []byte(svg), 0644); err != nil {
		return fmt.Errorf("write svg: %w", err)
	}
	fmt.Printf("wrote %s\n", out)
	return nil
}

func benchSim(cmd *cobra.Command, args []string) error {
	sizes := []int{32, 64, 128, 256}
	backends := []string{"serial", "cpu"}

	fmt.Printf("benchmarking %d frames, %d jacobi iterations\n\n", benchRuns, iterations)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "GRID\tBACKEND\tFRAMES\tTIME\tFRAMES/SEC\tJACOBI\tMEM")

	for _, n := range sizes {
		for _, name := range backends {
			cfg := config.DefaultConfig()
			cfg.Name = "bench"
			cfg.Grid.Width, cfg.Grid.Height = n, n
			cfg.Backend = name
			cfg.Solver.JacobiIterations = iterations

			s, err := newSimulator(cfg)
			if err != nil {
				return err
			}

			start := time.Now()
			for i := 0; i < benchRuns; i++ {
				if err := s.Step(); err != nil {
					return err
				}
			}
			elapsed := time.Since(start)
			s.Backend().Cleanup()

			fps := float64(benchRuns) / elapsed.Seconds()
			jacobi := s.Timings()[sim.StageJacobi]
			fmt.Fprintf(w, "%dx%d\t%s\t%d\t%v\t%.1f\t%v\t%.1f KiB\n",
				n, n, name, benchRuns, elapsed.Round(time.Millisecond), fps,
				jacobi.Round(time.Microsecond), float64(s.Bytes())/1024)
		}
	}

	return w.Flush()
}

func parseSweep(s string) ([]int, error) {
	var out []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid iteration count %q: %w", part, err)
		}
		out = append(out, n)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no iteration counts given")
	}
	sort.Ints(out)
	return out, nil
}

func compareIterations(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}
	counts, err := parseSweep(sweep)
	if err != nil {
		return err
	}

	base, err := cfg.SimParams()
	if err != nil {
		return err
	}
	variants := make([]sim.Params, len(counts))
	for i, n := range counts {
		variants[i] = base
		variants[i].Solver.JacobiIterations = n
	}

	be, err := compute.Lookup(cfg.Backend)
	if err != nil {
		return err
	}

	fmt.Printf("comparing jacobi iterations on %s (%dx%d, %d frames)\n\n", cfg.Name, cfg.Grid.Width, cfg.Grid.Height, cfg.Frames)

	ens := sim.NewEnsemble(cfg.GridSize(), be, variants, metrics.Standard, sim.WithLogger(slog.Default()))
	results, err := ens.Run(cmd.Context(), cfg.Frames)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "JACOBI\tDIV RESIDUAL\tKINETIC\tMAX SPEED\tDENSITY\tTIME")
	for i, r := range results {
		fmt.Fprintf(w, "%d\t%.3e\t%.4g\t%.4g\t%.4g\t%.2fs\n",
			counts[i],
			r.Metrics[metrics.NameDivergence],
			r.Metrics[metrics.NameKineticEnergy],
			r.Metrics[metrics.NameMaxSpeed],
			r.Metrics[metrics.NameTotalDensity],
			r.Elapsed,
		)
	}
	return w.Flush()
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}
	s, err := newSimulator(cfg)
	if err != nil {
		return err
	}
	return viz.RunLive(s, cfg.Name, theme)
}

func runGUI(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}
	s, err := newSimulator(cfg)
	if err != nil {
		return err
	}
	gui.Run(s, cfg.Name, slog.Default())
	return nil
}
