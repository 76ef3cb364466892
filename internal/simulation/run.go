package simulation

import (
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"durasim/internal/cluster"
	"durasim/internal/config"
	"durasim/internal/storage"
)

// ObserverFactory hands out an observer per placement mode.
type ObserverFactory interface {
	Observer(mode string) cluster.Observer
}

// Options are shared by every run.
type Options struct {
	Logger    *zap.Logger
	Observers ObserverFactory
	// VNodes sets the ring size for ring placement; zero uses the default.
	VNodes int
}

// Result is the outcome of one estimate.
type Result struct {
	RunID    string
	Scenario config.Scenario
	Estimate cluster.Estimate
	Elapsed  time.Duration
}

// Run populates a store for s and estimates loss at s.FailureSetSize.
func Run(s config.Scenario, opts Options) (Result, error) {
	results, err := Estimates(s, []int{s.FailureSetSize}, opts)
	if err != nil {
		return Result{}, err
	}
	return results[0], nil
}

// Curve estimates loss for every failure set size from 0 to s.Nodes on a
// single populated store.
func Curve(s config.Scenario, opts Options) ([]Result, error) {
	sizes := make([]int, 0, s.Nodes+1)
	for k := 0; k <= s.Nodes; k++ {
		sizes = append(sizes, k)
	}
	return Estimates(s, sizes, opts)
}

// Estimates populates one store for s and estimates loss at each size.
func Estimates(s config.Scenario, sizes []int, opts Options) ([]Result, error) {
	runID := uuid.NewString()
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("run_id", runID))
	if s.Name != "" {
		logger = logger.With(zap.String("scenario", s.Name))
	}

	store, err := populate(s, opts, logger)
	if err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(sizes))
	for _, k := range sizes {
		start := time.Now()
		est, err := store.Estimate(k)
		if err != nil {
			return nil, errors.Wrapf(err, "estimating loss for %d failed nodes", k)
		}
		r := Result{
			RunID:    runID,
			Scenario: s,
			Estimate: est,
			Elapsed:  time.Since(start),
		}
		r.Scenario.FailureSetSize = k
		results = append(results, r)

		logger.Info("estimate",
			zap.Int("kill", k),
			zap.Int("trials", est.Trials),
			zap.Int("failed_trials", est.FailedTrials),
			zap.Int("percent", est.Percent),
			zap.Duration("elapsed", r.Elapsed))
	}
	return results, nil
}

func populate(s config.Scenario, opts Options, logger *zap.Logger) (*cluster.ReplicatedStore, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	enumeration := cluster.Unordered
	if s.Ordered {
		enumeration = cluster.Ordered
	}
	storeOpts := []cluster.Option{
		cluster.WithSeed(s.Seed),
		cluster.WithEnumeration(enumeration),
		cluster.WithLogger(logger),
		cluster.WithVNodes(opts.VNodes),
	}
	if opts.Observers != nil {
		storeOpts = append(storeOpts, cluster.WithObserver(opts.Observers.Observer(s.Mode.String())))
	}

	store, err := cluster.New(s.Nodes, s.NodeCapacity(), storeOpts...)
	if err != nil {
		return nil, err
	}

	logger.Info("populating store",
		zap.Int("nodes", s.Nodes),
		zap.Int("capacity", s.NodeCapacity()),
		zap.Int("replication", s.Replication),
		zap.Int("records", s.Records),
		zap.Stringer("mode", s.Mode),
		zap.Uint64("seed", s.Seed))

	for i := 0; i < s.Records; i++ {
		if err := store.Store(storage.RecordID(i), s.Replication, s.Mode); err != nil {
			return nil, errors.Wrapf(err, "storing record %d of %d", i, s.Records)
		}
	}
	return store, nil
}
