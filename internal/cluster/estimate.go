package cluster

import (
	"math"
	"time"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/stat/combin"
)

// Estimate is the outcome of one exhaustive failure sweep.
type Estimate struct {
	FailureSetSize int
	Enumeration    Enumeration
	Trials         int
	FailedTrials   int
	// Percent is 100*FailedTrials/Trials rounded half to even.
	Percent int
}

// EstimateLossProbability returns the percentage of failure sets of size k
// under which at least one record is lost.
func (s *ReplicatedStore) EstimateLossProbability(k int) (int, error) {
	est, err := s.Estimate(k)
	if err != nil {
		return 0, err
	}
	return est.Percent, nil
}

// Estimate stops every failure set of size k in turn and checks integrity
// after each. All nodes are running again when it returns.
func (s *ReplicatedStore) Estimate(k int) (Estimate, error) {
	n := len(s.nodes)
	if k < 0 || k > n {
		return Estimate{}, errors.Wrapf(ErrInvalidFailureSetSize,
			"cannot fail %d of %d nodes", k, n)
	}

	start := time.Now()
	defer s.RestoreAll()

	est := Estimate{FailureSetSize: k, Enumeration: s.enumeration}
	s.enumerate(k, func(failed []int) {
		s.RestoreAll()
		for _, idx := range failed {
			s.nodes[idx].Stop()
		}
		lost := !s.VerifyIntegrity()
		est.Trials++
		if lost {
			est.FailedTrials++
		}
		s.observer.TrialCompleted(lost)
	})

	if est.Trials == 0 {
		return Estimate{}, errors.Wrapf(ErrInvalidFailureSetSize,
			"no failure sets of size %d among %d nodes", k, n)
	}
	est.Percent = percent(est.FailedTrials, est.Trials)

	s.logger.Debug("estimate completed",
		zap.Int("failure_set_size", k),
		zap.Stringer("enumeration", s.enumeration),
		zap.Int("trials", est.Trials),
		zap.Int("failed_trials", est.FailedTrials),
		zap.Int("percent", est.Percent),
		zap.Duration("elapsed", time.Since(start)),
	)
	s.observer.EstimateCompleted(k, est.Percent)
	return est, nil
}

// enumerate calls fn with every failure set of size k over the store's
// node indices. The slice passed to fn is reused between calls.
func (s *ReplicatedStore) enumerate(k int, fn func(failed []int)) {
	n := len(s.nodes)
	tuple := make([]int, k)

	switch s.enumeration {
	case Ordered:
		gen := combin.NewPermutationGenerator(n, k)
		for gen.Next() {
			fn(gen.Permutation(tuple))
		}
	default:
		gen := combin.NewCombinationGenerator(n, k)
		for gen.Next() {
			fn(gen.Combination(tuple))
		}
	}
}

// percent matches round-half-to-even on the exact ratio, so 12.5 rounds to 12.
func percent(failed, trials int) int {
	return int(math.RoundToEven(float64(100*failed) / float64(trials)))
}
