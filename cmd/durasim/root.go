package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"durasim/internal/config"
	"durasim/internal/metrics"
	"durasim/internal/placement"
	"durasim/internal/report"
	"durasim/internal/simulation"
)

const (
	formatText = "text"
	formatJSON = "json"
)

type flags struct {
	nodes       int
	copies      int
	records     int
	kill        int
	capacity    int
	seed        uint64
	random      bool
	mirror      bool
	mode        string
	ordered     bool
	kills       string
	curve       bool
	configPath  string
	parallel    int
	format      string
	metricsFile string
	envFile     string
	logLevel    string
	vnodes      int
}

func newRootCmd() *cobra.Command {
	f := &flags{}
	def := config.Default()

	cmd := &cobra.Command{
		Use:   "durasim",
		Short: "Simulates a failure on a distributed database.",
		Long: `durasim places records redundantly on a set of simulated nodes, then
fails every possible set of k nodes and reports the percentage of failure
sets that lose at least one record.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, f)
		},
	}

	fs := cmd.Flags()
	fs.IntVarP(&f.nodes, "nodes", "n", def.Nodes, "number of nodes to simulate")
	fs.IntVarP(&f.copies, "copies", "c", def.Replication, "how many copies of one record are stored at once")
	fs.IntVarP(&f.records, "records", "r", def.Records, "how many records are written to the store")
	fs.IntVarP(&f.kill, "kill", "k", def.FailureSetSize, "number of nodes to fail at once")
	fs.IntVar(&f.capacity, "capacity", 0, "records per node (default nodes*copies+1)")
	fs.Uint64Var(&f.seed, "seed", 0, "seed for random placement")
	fs.BoolVar(&f.random, "random", false, "store records on random nodes")
	fs.BoolVar(&f.mirror, "mirror", false, "store records in mirrored order (the default)")
	fs.StringVar(&f.mode, "mode", "", "placement mode: mirror, random or ring")
	fs.BoolVar(&f.ordered, "ordered", false, "enumerate ordered failure tuples instead of combinations")
	fs.StringVar(&f.kills, "kills", "", "comma-separated failure set sizes or ranges, e.g. 1,2,4-6")
	fs.BoolVar(&f.curve, "curve", false, "estimate loss for every failure set size from 0 to nodes")
	fs.StringVar(&f.configPath, "config", "", "YAML scenario file to sweep")
	fs.IntVar(&f.parallel, "parallel", 0, "scenarios run at once in a sweep (default GOMAXPROCS)")
	fs.StringVar(&f.format, "format", formatText, "output format: text or json")
	fs.StringVar(&f.metricsFile, "metrics-file", "", "write metrics in Prometheus text format to this file")
	fs.StringVar(&f.envFile, "env-file", ".env", "file with DURASIM_* variables")
	fs.StringVar(&f.logLevel, "log-level", "warn", "log level")
	fs.IntVar(&f.vnodes, "vnodes", 0, "virtual nodes per node for ring placement")

	cmd.MarkFlagsMutuallyExclusive("random", "mirror", "mode")
	cmd.MarkFlagsMutuallyExclusive("curve", "kills", "config")

	return cmd
}

// cmdFormat returns the requested output format, falling back to text when
// flags were never parsed.
func cmdFormat(cmd *cobra.Command) string {
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return formatText
	}
	return format
}

// scenario layers defaults, the environment and explicitly set flags.
func (f *flags) scenario(cmd *cobra.Command) (config.Scenario, error) {
	s, err := config.FromEnv(config.Default())
	if err != nil {
		return config.Scenario{}, err
	}

	changed := cmd.Flags().Changed
	if changed("nodes") {
		s.Nodes = f.nodes
	}
	if changed("copies") {
		s.Replication = f.copies
	}
	if changed("records") {
		s.Records = f.records
	}
	if changed("kill") {
		s.FailureSetSize = f.kill
	}
	if changed("capacity") {
		s.Capacity = f.capacity
	}
	if changed("seed") {
		s.Seed = f.seed
	}
	if changed("ordered") {
		s.Ordered = f.ordered
	}

	switch {
	case f.random:
		s.Mode = placement.Random
	case f.mirror:
		s.Mode = placement.Mirror
	case f.mode != "":
		m, err := placement.ParseMode(f.mode)
		if err != nil {
			return config.Scenario{}, errors.Mark(err, config.ErrInvalid)
		}
		s.Mode = m
	}

	return s, nil
}

func run(cmd *cobra.Command, f *flags) error {
	if f.format != formatText && f.format != formatJSON {
		return errors.Wrapf(config.ErrInvalid, "unknown format %q", f.format)
	}

	if err := config.LoadDotEnv(f.envFile); err != nil {
		return err
	}

	level := f.logLevel
	if env := os.Getenv("LOG_LEVEL"); env != "" && !cmd.Flags().Changed("log-level") {
		level = env
	}
	logger, err := initLogger(level)
	if err != nil {
		return errors.Mark(errors.Wrap(err, "initializing logger"), config.ErrInvalid)
	}
	defer func() { _ = logger.Sync() }()

	base, err := f.scenario(cmd)
	if err != nil {
		return err
	}

	opts := simulation.Options{Logger: logger, VNodes: f.vnodes}
	var rec *metrics.Recorder
	if f.metricsFile != "" {
		rec = metrics.NewRecorder()
		opts.Observers = rec
	}

	results, err := simulate(cmd, f, base, opts, logger)
	if err != nil {
		return err
	}

	if rec != nil {
		if err := rec.WriteFile(f.metricsFile); err != nil {
			return errors.Wrap(err, "writing metrics")
		}
		logger.Info("metrics written", zap.String("path", f.metricsFile))
	}

	return render(cmd.OutOrStdout(), f, results)
}

func simulate(
	cmd *cobra.Command, f *flags, base config.Scenario, opts simulation.Options, logger *zap.Logger,
) ([]simulation.Result, error) {
	switch {
	case f.configPath != "":
		scenarios, err := config.LoadScenarios(f.configPath, base, logger)
		if err != nil {
			return nil, err
		}
		return simulation.Sweep(cmd.Context(), scenarios, f.parallel, opts)

	case f.curve:
		return simulation.Curve(base, opts)

	case f.kills != "":
		sizes, err := config.ParseFailureSizes(f.kills)
		if err != nil {
			return nil, err
		}
		if len(sizes) == 0 {
			return nil, errors.Wrapf(config.ErrInvalid, "no failure set sizes in %q", f.kills)
		}
		return simulation.Estimates(base, sizes, opts)

	default:
		r, err := simulation.Run(base, opts)
		if err != nil {
			return nil, err
		}
		return []simulation.Result{r}, nil
	}
}

func render(w io.Writer, f *flags, results []simulation.Result) error {
	if f.format == formatJSON {
		b, err := report.JSON(results)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(b))
		return err
	}

	if f.configPath == "" {
		if len(results) == 1 {
			_, err := fmt.Fprintln(w, report.Summary(results[0]))
			return err
		}
		_, err := fmt.Fprint(w, report.Table(results))
		return err
	}

	blocks := make([]string, 0, len(results))
	for _, r := range results {
		block := report.Summary(r)
		if r.Scenario.Name != "" {
			block = fmt.Sprintf("[%s]\n%s", r.Scenario.Name, block)
		}
		blocks = append(blocks, block)
	}
	_, err := fmt.Fprintln(w, strings.Join(blocks, "\n\n"))
	return err
}
