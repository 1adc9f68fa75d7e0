package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/segsim/internal/automation"
	"github.com/san-kum/segsim/internal/config"
	"github.com/san-kum/segsim/internal/experiment"
	"github.com/san-kum/segsim/internal/export"
	"github.com/san-kum/segsim/internal/metrics"
	"github.com/san-kum/segsim/internal/schelling"
	"github.com/san-kum/segsim/internal/storage"
	"github.com/san-kum/segsim/internal/tui"
	"github.com/san-kum/segsim/internal/viz"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	dataDir string
	verbose bool

	size       int
	blueRatio  float64
	redRatio   float64
	emptyRatio float64
	maxSteps   int
	delay      time.Duration
	seed       int64
	theme      string
	configFile string
	preset     string

	// run output
	quiet     bool
	plot      bool
	save      bool
	frameRate int
	plain     bool

	// sweep
	emptyRatios []float64
	seeds       int
	workers     int

	// show / export-svg
	asJSON  bool
	outFile string
	scale   float64

	log = logrus.New()
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "segsim",
		Short: "schelling segregation simulator",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			log.SetOutput(os.Stderr)
			log.SetLevel(logrus.WarnLevel)
			if verbose {
				log.SetLevel(logrus.DebugLevel)
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return viz.RunMenu(config.DefaultConfig())
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".segsim", "data directory")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run a simulation in the terminal",
		Args:  cobra.NoArgs,
		RunE:  runSimulation,
	}
	addConfigFlags(runCmd)
	runCmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "do not draw the grid")
	runCmd.Flags().BoolVar(&plot, "plot", false, "plot the unhappy count after the run")
	runCmd.Flags().BoolVar(&save, "save", false, "store the run summary and final grid")
	runCmd.Flags().IntVar(&frameRate, "fps", 30, "maximum frames per second (0 draws every step)")
	runCmd.Flags().BoolVar(&plain, "plain", false, "draw with ascii glyphs instead of colours")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "run simulation with live visualization",
		Args:  cobra.NoArgs,
		RunE:  runLive,
	}
	addConfigFlags(liveCmd)
	liveCmd.Flags().BoolVar(&save, "save", false, "store the run when the view closes")

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "sweep empty ratios over several seeds",
		Args:  cobra.NoArgs,
		RunE:  runSweep,
	}
	addConfigFlags(sweepCmd)
	sweepCmd.Flags().Float64SliceVar(&emptyRatios, "empty-ratios", []float64{0.02, 0.05, 0.1, 0.2, 0.3, 0.4}, "empty ratios to try")
	sweepCmd.Flags().IntVar(&seeds, "seeds", 5, "runs per empty ratio")
	sweepCmd.Flags().IntVar(&workers, "workers", runtime.NumCPU(), "seeds run at the same time")
	sweepCmd.Flags().BoolVar(&plot, "plot", false, "plot mean similarity against empty ratio")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	showCmd := &cobra.Command{
		Use:   "show [run_id]",
		Short: "show a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  showRun,
	}
	showCmd.Flags().BoolVar(&asJSON, "json", false, "print summary and grid as JSON")

	svgCmd := &cobra.Command{
		Use:   "export-svg [run_id]",
		Short: "render the final grid of a run as SVG",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSVG,
	}
	svgCmd.Flags().StringVarP(&outFile, "out", "o", "", "output file (default <run_id>.svg)")
	svgCmd.Flags().Float64Var(&scale, "scale", 10, "pixels per cell")
	svgCmd.Flags().StringVar(&theme, "theme", "", "colour theme (default classic white/blue/red)")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tSIZE\tBLUE\tRED\tEMPTY\tMAX STEPS\tDELAY")
			for _, name := range config.ListPresets() {
				p := config.GetPreset(name)
				fmt.Fprintf(w, "%s\t%d\t%.2f\t%.2f\t%.2f\t%d\t%v\n",
					name, p.Size, p.BlueRatio, p.RedRatio, p.EmptyRatio, p.MaxSteps, p.Delay)
			}
			return w.Flush()
		},
	}

	initCmd := &cobra.Command{
		Use:   "init-config [path]",
		Short: "write a config file with the default parameters",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.DefaultConfig()
			if preset != "" {
				if cfg = config.GetPreset(preset); cfg == nil {
					return fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
				}
			}
			if err := config.Save(args[0], cfg); err != nil {
				return err
			}
			fmt.Printf("wrote %s\n", args[0])
			return nil
		},
	}
	initCmd.Flags().StringVar(&preset, "preset", "", "start from a preset")

	scenarioCmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "run the steps of a yaml scenario in order",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}

	rootCmd.AddCommand(runCmd, liveCmd, sweepCmd, scenarioCmd, listCmd, showCmd, svgCmd, presetsCmd, initCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addConfigFlags(cmd *cobra.Command) {
	d := config.DefaultConfig()
	cmd.Flags().IntVarP(&size, "size", "n", d.Size, "grid side length")
	cmd.Flags().Float64Var(&blueRatio, "blue", d.BlueRatio, "share of group A agents")
	cmd.Flags().Float64Var(&redRatio, "red", d.RedRatio, "share of group B agents")
	cmd.Flags().Float64Var(&emptyRatio, "empty", d.EmptyRatio, "share of empty cells")
	cmd.Flags().IntVar(&maxSteps, "max-steps", d.MaxSteps, "step budget")
	cmd.Flags().DurationVar(&delay, "delay", d.Delay, "pause between moves")
	cmd.Flags().Int64Var(&seed, "seed", time.Now().UnixNano(), "random seed")
	cmd.Flags().StringVar(&theme, "theme", d.Theme, "colour theme for the live view")
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
}

// resolveConfig layers defaults, preset, config file and explicitly set flags,
// later sources winning.
func resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	cfg.Seed = seed

	if preset != "" {
		p := config.GetPreset(preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
		p.Seed = seed
		cfg = p
	}

	if configFile != "" {
		fileCfg, err := config.LoadOver(configFile, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = fileCfg
		// a seed of zero in the file means "not set"
		if cfg.Seed == 0 {
			cfg.Seed = seed
		}
	}

	flags := cmd.Flags()
	if flags.Changed("size") {
		cfg.Size = size
	}
	if flags.Changed("blue") {
		cfg.BlueRatio = blueRatio
	}
	if flags.Changed("red") {
		cfg.RedRatio = redRatio
	}
	if flags.Changed("empty") {
		cfg.EmptyRatio = emptyRatio
	}
	if flags.Changed("max-steps") {
		cfg.MaxSteps = maxSteps
	}
	if flags.Changed("delay") {
		cfg.Delay = delay
	}
	if flags.Changed("seed") {
		cfg.Seed = seed
	}
	if flags.Changed("theme") {
		cfg.Theme = theme
	}

	log.WithFields(logrus.Fields{
		"preset": preset,
		"config": configFile,
		"seed":   cfg.Seed,
	}).Debug("configuration resolved")
	return cfg, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	var observers []schelling.Observer
	var renderer *tui.Renderer
	if !quiet {
		renderer = tui.NewRenderer(os.Stdout, frameRate, plain)
		observers = append(observers, renderer)
	}
	var trace *metrics.Trace
	if plot {
		stride := max(1, cfg.MaxSteps/2000)
		trace = metrics.NewTrace(stride)
		observers = append(observers, trace)
	}

	exp := experiment.New(cfg, log)
	if err := exp.Setup(metrics.Default(), observers...); err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()

	if renderer != nil {
		renderer.Start()
	}
	start := time.Now()
	result, err := exp.Run(ctx)
	if renderer != nil {
		renderer.Stop()
	}
	if result == nil {
		return err
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	elapsed := time.Since(start)

	fmt.Printf("\n%s\n", result.Message())
	fmt.Printf("seed: %d\n", cfg.Seed)
	fmt.Printf("steps: %d  moves: %d  elapsed: %v\n", result.Steps, result.Moves, elapsed.Round(time.Millisecond))
	printMetrics(result.Metrics)

	if trace != nil && len(trace.Values()) > 1 {
		graph := asciigraph.Plot(trace.Values(),
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption("unhappy agents vs step"),
		)
		fmt.Println()
		fmt.Println(graph)
	}

	if save {
		return saveRun(cfg, result)
	}
	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	result, err := viz.RunLive(cfg)
	if err != nil {
		return err
	}
	if result != nil {
		fmt.Println(result.Message())
		if save {
			return saveRun(cfg, result)
		}
	}
	return nil
}

func saveRun(cfg *config.Config, result *schelling.Result) error {
	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}
	runID, err := st.Save(cfg, result)
	if err != nil {
		return err
	}
	log.WithField("dir", dataDir).Debug("run saved")
	fmt.Printf("run id: %s\n", runID)
	return nil
}

func printMetrics(m map[string]float64) {
	if len(m) == 0 {
		return
	}
	fmt.Println("\nmetrics:")
	for _, name := range []string{"similarity", "unhappy_share", "moves"} {
		if v, ok := m[name]; ok {
			fmt.Printf("  %s: %.6f\n", name, v)
		}
	}
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	if len(emptyRatios) == 0 {
		return fmt.Errorf("no empty ratios given")
	}

	ctx, stop := signalContext()
	defer stop()

	fmt.Printf("sweeping %d empty ratios x %d seeds on a %dx%d grid...\n", len(emptyRatios), seeds, cfg.Size, cfg.Size)
	start := time.Now()
	sweep := experiment.NewSweep(emptyRatios, seeds, log)
	sweep.SetWorkers(workers)
	points, err := sweep.Run(ctx, cfg)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "EMPTY\tRUNS\tCONVERGED\tINVALID\tMEAN STEPS\tSIMILARITY")
	for _, p := range points {
		fmt.Fprintf(w, "%.2f\t%d\t%.0f%%\t%d\t%.0f\t%.3f\n",
			p.EmptyRatio, p.Runs, 100*p.ConvergenceRate(), p.Invalid, p.MeanSteps, p.MeanSimilarity)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Printf("completed in %v\n", time.Since(start).Round(time.Millisecond))

	if plot && len(points) > 1 {
		data := make([]float64, len(points))
		for i, p := range points {
			data[i] = p.MeanSimilarity
		}
		fmt.Println()
		fmt.Println(asciigraph.Plot(data,
			asciigraph.Height(10),
			asciigraph.Caption("mean similarity by empty ratio"),
		))
	}
	return nil
}

func runScenario(cmd *cobra.Command, args []string) error {
	sc, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()

	fmt.Printf("scenario %s: %d steps\n", sc.Name, len(sc.Steps))
	results, runErr := automation.RunScenario(ctx, sc, st, log)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STEP\tSIZE\tEMPTY\tSEED\tSTATUS\tSTEPS\tSIMILARITY\tRUN ID")
	for _, r := range results {
		fmt.Fprintf(w, "%s\t%d\t%.2f\t%d\t%s\t%d\t%.3f\t%s\n",
			r.Step, r.Config.Size, r.Config.EmptyRatio, r.Config.Seed,
			r.Result.Status, r.Result.Steps, r.Result.Metrics["similarity"], r.RunID)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	return runErr
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
	fmt.Fprintln(w, "ID\tTIME\tSIZE\tEMPTY\tSEED\tSTATUS\tSTEPS")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%d\t%.2f\t%d\t%s\t%d\n",
			run.ID,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Size,
			run.EmptyRatio,
			run.Seed,
			run.Status,
			run.Steps,
		)
	}

	return w.Flush()
}

func showRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	g, err := st.LoadGrid(args[0])
	if err != nil {
		return err
	}

	if asJSON {
		return storage.ExportJSON(os.Stdout, meta, g)
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("time: %s\n", meta.Timestamp.Format(time.RFC3339))
	fmt.Printf("grid: %dx%d  blue %.2f  red %.2f  empty %.2f  seed %d\n",
		meta.Size, meta.Size, meta.BlueRatio, meta.RedRatio, meta.EmptyRatio, meta.Seed)
	fmt.Printf("status: %s  steps: %d  moves: %d\n", meta.Status, meta.Steps, meta.Moves)
	printMetrics(meta.Metrics)
	fmt.Println()
	fmt.Print(g.String())
	return nil
}

func exportSVG(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	g, err := st.LoadGrid(runID)
	if err != nil {
		return err
	}

	palette := export.DefaultPalette
	if theme != "" {
		th := viz.GetTheme(theme)
		palette = export.Palette{Empty: string(th.Empty), GroupA: string(th.GroupA), GroupB: string(th.GroupB)}
	}

	title := fmt.Sprintf("%s (%s, %d steps)", meta.ID, meta.Status, meta.Steps)
	svg := export.GridToSVG(g, scale, title, palette)

	path := outFile
	if path == "" {
		path = runID + ".svg"
	}
	if err := os.WriteFile(path, []byte(svg), 0644); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", path)
	return nil
}
