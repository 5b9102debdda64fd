package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"github.com/marblesim/marble-game/internal/calculation"
	"github.com/marblesim/marble-game/internal/config"
	"github.com/marblesim/marble-game/internal/domain"
	"github.com/marblesim/marble-game/internal/logging"
	"github.com/marblesim/marble-game/internal/output"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// options holds the flags shared by the simulation commands.
type options struct {
	configFile string
	preset     string
	format     string
	outputDir  string
	logLevel   string
	debug      bool

	equity      float64
	riskPercent float64
	draws       int
	simulations int
	buckets     int
	seed        int64
	workers     int
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "marbles",
		Short:         "Marble game trading risk simulator",
		Long:          "Draw marbles with R-multiple payoffs to see how position sizing shapes equity, drawdown and luck.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&opts.configFile, "config", "c", "", "Simulation config file (YAML)")
	pf.StringVarP(&opts.preset, "preset", "p", "", "Trading system preset (see `marbles presets`)")
	pf.StringVarP(&opts.format, "format", "f", "console", "Output format (console, json, csv, detailed-csv)")
	pf.StringVarP(&opts.outputDir, "output", "o", "", "Write the report to a timestamped file in this directory instead of stdout")
	pf.StringVar(&opts.logLevel, "log-level", "WARN", "Log level (DEBUG, INFO, WARN, ERROR)")
	pf.BoolVar(&opts.debug, "debug", false, "Log every draw and enable debug logging")
	pf.Float64Var(&opts.equity, "equity", 0, "Starting equity (overrides config)")
	pf.Float64Var(&opts.riskPercent, "risk", 0, "Percent of equity risked per draw (overrides config)")
	pf.IntVarP(&opts.draws, "draws", "n", 0, "Draws per run (overrides config)")
	pf.Int64Var(&opts.seed, "seed", 0, "Random seed; 0 picks one and prints it with the report")

	root.AddCommand(runCmd(opts))
	root.AddCommand(monteCarloCmd(opts))
	root.AddCommand(compareCmd(opts))
	root.AddCommand(validateCmd())
	root.AddCommand(presetsCmd())
	root.AddCommand(initCmd())
	root.AddCommand(serveCmd(opts))
	root.AddCommand(versionCmd())
	return root
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "marbles %s (commit %s, built %s)\n", version, commit, date)
			if info := buildInfo(); info != "" {
				fmt.Fprintln(cmd.OutOrStdout(), info)
			}
		},
	}
}

func buildInfo() string {
	if bi, ok := debug.ReadBuildInfo(); ok && bi != nil {
		return bi.Main.Path + " " + bi.GoVersion
	}
	return ""
}

// logger builds the zap logger for a command. --debug forces DEBUG.
func (o *options) logger(cmd *cobra.Command) (*zap.Logger, error) {
	level := o.logLevel
	if o.debug {
		level = "DEBUG"
	}
	return logging.NewWithWriter(level, cmd.ErrOrStderr())
}

// loadConfiguration reads --config (if any), applies the preset and flag
// overrides, fills defaults and validates the result.
func (o *options) loadConfiguration(cmd *cobra.Command) (*domain.Configuration, error) {
	parser := config.NewInputParser()
	cfg := &domain.Configuration{}
	if o.configFile != "" {
		loaded, err := parser.LoadFromFile(o.configFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if o.preset != "" {
		cfg.Preset = o.preset
		cfg.Outcomes = nil
	}

	flags := cmd.Flags()
	if flags.Changed("equity") {
		cfg.Run.StartingEquity = decimal.NewFromFloat(o.equity)
	}
	if flags.Changed("risk") {
		cfg.Run.RiskPercent = decimal.NewFromFloat(o.riskPercent)
	}
	if flags.Changed("draws") {
		cfg.Run.Draws = o.draws
	}
	if flags.Changed("seed") {
		cfg.MonteCarlo.Seed = o.seed
	}
	if flags.Lookup("simulations") != nil && flags.Changed("simulations") {
		cfg.MonteCarlo.Simulations = o.simulations
	}
	if flags.Lookup("buckets") != nil && flags.Changed("buckets") {
		cfg.MonteCarlo.HistogramBuckets = o.buckets
	}
	if flags.Lookup("workers") != nil && flags.Changed("workers") {
		cfg.MonteCarlo.Workers = o.workers
	}

	config.ApplyDefaults(cfg)
	if err := parser.ValidateConfiguration(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if cfg.MonteCarlo.Seed == 0 {
		cfg.MonteCarlo.Seed = calculation.DefaultSeed()
	}
	return cfg, nil
}

func (o *options) engine(cfg *domain.Configuration, logger *zap.Logger) *calculation.CalculationEngine {
	engine := calculation.NewCalculationEngine()
	engine.SetLogger(logger.Sugar())
	engine.Debug = o.debug
	if cfg.MonteCarlo.BatchSize > 0 {
		engine.BatchSize = cfg.MonteCarlo.BatchSize
	}
	if cfg.MonteCarlo.Workers > 0 {
		engine.Workers = cfg.MonteCarlo.Workers
	}
	return engine
}

// emit prints the report or, with --output, writes it to a file.
func (o *options) emit(cmd *cobra.Command, report *output.Report) error {
	if o.outputDir != "" {
		if err := os.MkdirAll(o.outputDir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
		path, err := output.GenerateReport(report, o.format, o.outputDir)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Report written to %s\n", path)
		return nil
	}
	return output.Render(cmd.OutOrStdout(), report, o.format)
}

func title(cfg *domain.Configuration) string {
	switch {
	case cfg.Name != "":
		return cfg.Name
	case cfg.Preset != "":
		return cfg.Preset
	default:
		return "Custom marble bag"
	}
}

func runCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Play one game and show every draw",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := opts.logger(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			cfg, err := opts.loadConfiguration(cmd)
			if err != nil {
				return err
			}
			dist, err := config.BuildDistribution(cfg)
			if err != nil {
				return err
			}

			result, err := opts.engine(cfg, logger).RunSingle(dist, cfg.Run.RunParameters(), cfg.MonteCarlo.Seed)
			if err != nil {
				return err
			}
			perf := calculation.Analyze(*result)
			return opts.emit(cmd, &output.Report{
				Title:       title(cfg),
				Seed:        cfg.MonteCarlo.Seed,
				Outcomes:    dist.Outcomes(),
				Single:      result,
				Performance: &perf,
			})
		},
	}
}

func monteCarloCmd(opts *options) *cobra.Command {
	var csvDir string
	var progress bool
	cmd := &cobra.Command{
		Use:   "montecarlo",
		Short: "Run many games and summarize the spread of outcomes",
		Example: `  marbles montecarlo --preset "Trend Following Pro" --simulations 5000
  marbles montecarlo -c bag.yaml --workers 8 --csv-dir reports/`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := opts.logger(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			cfg, err := opts.loadConfiguration(cmd)
			if err != nil {
				return err
			}
			dist, err := config.BuildDistribution(cfg)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			var onProgress calculation.ProgressFunc
			if progress {
				onProgress = func(done, total int) {
					fmt.Fprintf(cmd.ErrOrStderr(), "\r%d/%d runs", done, total)
					if done == total {
						fmt.Fprintln(cmd.ErrOrStderr())
					}
				}
			}

			mc := cfg.MonteCarlo
			result, err := opts.engine(cfg, logger).RunMonteCarlo(ctx, dist, cfg.Run.RunParameters(),
				mc.Simulations, mc.HistogramBuckets, mc.Seed, onProgress)
			if err != nil {
				return err
			}

			if csvDir != "" {
				if err := os.MkdirAll(csvDir, 0755); err != nil {
					return fmt.Errorf("failed to create CSV directory: %w", err)
				}
				report := &output.MonteCarloCSVReport{Result: result}
				files, err := report.GenerateAllCSVReports(csvDir)
				if err != nil {
					return err
				}
				for _, f := range files {
					logger.Info("wrote CSV report", zap.String("path", f))
				}
			}

			return opts.emit(cmd, &output.Report{
				Title:      title(cfg),
				Seed:       mc.Seed,
				Outcomes:   dist.Outcomes(),
				MonteCarlo: result,
			})
		},
	}
	cmd.Flags().IntVarP(&opts.simulations, "simulations", "s", config.DefaultSimulations, "Number of simulated games")
	cmd.Flags().IntVar(&opts.buckets, "buckets", config.DefaultHistogramBuckets, "Histogram bucket count")
	cmd.Flags().IntVarP(&opts.workers, "workers", "w", 1, "Games run concurrently within a batch")
	cmd.Flags().StringVar(&csvDir, "csv-dir", "", "Also write the CSV report bundle to this directory")
	cmd.Flags().BoolVar(&progress, "progress", false, "Print progress to stderr after every batch")
	return cmd
}

func compareCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "compare",
		Short: "Play one shared draw sequence for every player",
		Long: `Compare players that see the same marbles but risk different fractions of equity.
Players come from the config file; without any, Vic, Cassie, William and Alex play.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := opts.logger(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			cfg, err := opts.loadConfiguration(cmd)
			if err != nil {
				return err
			}
			dist, err := config.BuildDistribution(cfg)
			if err != nil {
				return err
			}

			params := cfg.Run.RunParameters()
			result, err := opts.engine(cfg, logger).RunComparison(dist, params.StartingEquity, params.DrawCount,
				config.Players(cfg), cfg.MonteCarlo.Seed)
			if err != nil {
				return err
			}
			return opts.emit(cmd, &output.Report{
				Title:      title(cfg),
				Seed:       cfg.MonteCarlo.Seed,
				Outcomes:   dist.Outcomes(),
				Comparison: result,
			})
		},
	}
}

func validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [input-file]",
		Short: "Validate a configuration file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.NewInputParser().LoadFromFile(args[0])
			if err != nil {
				return err
			}
			dist, err := config.BuildDistribution(cfg)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Configuration file %s is valid\n", args[0])
			fmt.Fprintf(cmd.OutOrStdout(), "Expectancy: %sR, win probability %s\n",
				output.Fixed(dist.TheoreticalExpectancy(), 3), output.Percent(dist.WinProbabilityPercent()))
			return nil
		},
	}
}

func presetsCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "presets",
		Short: "List the built-in trading system presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			presets := config.Presets()
			w := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				return enc.Encode(presets)
			}
			for _, p := range presets {
				fmt.Fprintf(w, "%-24s win %5s%%  expectancy %+.2fR\n", p.Name, output.Fixed(p.WinRatePercent, 1), p.Expectancy)
				fmt.Fprintf(w, "  %s\n", p.Description)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the presets with their outcomes as JSON")
	return cmd
}

func initCmd() *cobra.Command {
	var preset string
	var force bool
	cmd := &cobra.Command{
		Use:   "init [output-file]",
		Short: "Write an editable configuration file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "marbles.yaml"
			if len(args) == 1 {
				path = args[0]
			}
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}
			cfg, err := config.ConfigurationFromPreset(preset)
			if err != nil {
				return err
			}
			if err := config.SaveConfiguration(cfg, path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s from preset %q\n", path, cfg.Name)
			return nil
		},
	}
	cmd.Flags().StringVar(&preset, "from", config.DefaultPresetName, "Preset to start from")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")
	return cmd
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
