package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"portSched/internal/anneal"
	"portSched/internal/bnb"
	"portSched/internal/config"
	"portSched/internal/greedy"
	"portSched/internal/opt"
	"portSched/internal/portfolio"
	"portSched/internal/sched"
	"portSched/internal/tabu"
)

var logger zerolog.Logger

var rootCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Portfolio time-slice scheduler",
	Long:  "Computes per-unit (configuration, cutoff) slice schedules that maximize solved instances within a time budget.",
}

var solveCmd = &cobra.Command{
	Use:   "solve",
	Short: "Compute a schedule from a runtime matrix CSV",
	RunE:  runSolve,
}

var (
	flagLogLevel string
	flagConfig   string

	flagFacts   string
	flagOut     string
	flagUnits   int
	flagBudget  float64
	flagSolver  string
	flagSeed    int64
	flagTimeout time.Duration
)

func init() {
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "log level: trace|debug|info|warn|error")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "path to YAML run configuration")

	solveCmd.Flags().StringVar(&flagFacts, "facts", "", "runtime matrix CSV: instance,config,runtime")
	solveCmd.Flags().StringVar(&flagOut, "out", "", "write the schedule CSV here (optional)")
	solveCmd.Flags().IntVar(&flagUnits, "units", 0, "number of execution units (overrides config)")
	solveCmd.Flags().Float64Var(&flagBudget, "budget", 0, "per-unit time budget (overrides config)")
	solveCmd.Flags().StringVar(&flagSolver, "solver", "", "strategy: bnb|greedy|anneal|tabu (overrides config)")
	solveCmd.Flags().Int64Var(&flagSeed, "seed", 0, "random seed for stochastic strategies (overrides config)")
	solveCmd.Flags().DurationVar(&flagTimeout, "timeout", 0, "search deadline; 0 = none")
	_ = solveCmd.MarkFlagRequired("facts")

	rootCmd.AddCommand(solveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func setupLogger() error {
	level, err := zerolog.ParseLevel(flagLogLevel)
	if err != nil {
		return fmt.Errorf("parse log level: %w", err)
	}
	logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().Timestamp().Logger()
	return nil
}

func runSolve(cmd *cobra.Command, args []string) error {
	if err := setupLogger(); err != nil {
		return err
	}

	cfg, err := config.Load(flagConfig)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("units") {
		cfg.Units = flagUnits
	}
	if cmd.Flags().Changed("budget") {
		cfg.Budget = flagBudget
	}
	if cmd.Flags().Changed("solver") {
		cfg.Solver = flagSolver
	}
	if cmd.Flags().Changed("seed") {
		cfg.Seed = flagSeed
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	facts, extras, err := readFacts(flagFacts)
	if err != nil {
		return fmt.Errorf("read facts: %w", err)
	}
	cat, err := portfolio.NewCatalog(facts, extras...)
	if err != nil {
		return err
	}
	logger.Info().
		Int("instances", cat.NumInstances()).
		Int("configs", cat.NumConfigs()).
		Int("facts", len(facts)).
		Msg("runtime catalog loaded")

	prob := &opt.Problem{Catalog: cat, Units: cfg.Units, Budget: cfg.Budget}
	if err := prob.Validate(); err != nil {
		return err
	}

	solver, err := buildSolver(cfg)
	if err != nil {
		return err
	}

	ctx := context.Background()
	if flagTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, flagTimeout)
		defer cancel()
	}

	logger.Info().
		Str("solver", cfg.Solver).
		Int("units", cfg.Units).
		Float64("budget", cfg.Budget).
		Msg("search started")

	res, err := solver.Solve(ctx, prob)
	if err != nil {
		return err
	}

	logger.Info().
		Int("solved", res.Solved).
		Float64("quad_cost", res.QuadCost).
		Bool("complete", res.Complete).
		Int64("nodes", res.Nodes).
		Dur("elapsed", res.Duration).
		Msg("search finished")

	entries := sched.Export(res.Schedule)
	for _, e := range entries {
		fmt.Printf("unit %d: %s for %.6f\n", e.Unit, e.Config, e.Cutoff)
	}
	if len(entries) == 0 {
		fmt.Println("empty schedule: nothing solvable within the budget")
	}

	if flagOut != "" {
		sum := sched.Summary{Solved: res.Solved, QuadCost: res.QuadCost, Complete: res.Complete}
		if err := sched.WriteCSV(flagOut, entries, sum); err != nil {
			return fmt.Errorf("write schedule: %w", err)
		}
		logger.Info().Str("path", flagOut).Msg("schedule written")
	}
	return nil
}

func buildSolver(cfg config.Config) (opt.Optimizer, error) {
	switch cfg.Solver {
	case "bnb":
		return bnb.New(cfg.BnBNative())
	case "greedy":
		return greedy.New(), nil
	case "anneal":
		return anneal.New(cfg.AnnealNative(), rand.New(rand.NewSource(cfg.Seed)))
	case "tabu":
		return tabu.New(cfg.TabuNative(), rand.New(rand.NewSource(cfg.Seed)))
	default:
		return nil, fmt.Errorf("unknown solver %q", cfg.Solver)
	}
}
