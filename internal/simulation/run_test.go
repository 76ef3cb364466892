package simulation

import (
	"context"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"durasim/internal/cluster"
	"durasim/internal/config"
	"durasim/internal/metrics"
	"durasim/internal/placement"
)

func TestRun_DefaultScenario(t *testing.T) {
	r, err := Run(config.Default(), Options{})
	require.NoError(t, err)

	assert.Equal(t, 11, r.Estimate.Percent)
	assert.Equal(t, 45, r.Estimate.Trials)
	assert.Equal(t, 2, r.Scenario.FailureSetSize)
	assert.NotEmpty(t, r.RunID)
}

func TestRun_OrderedMatchesDefault(t *testing.T) {
	s := config.Default()
	s.Ordered = true

	r, err := Run(s, Options{})
	require.NoError(t, err)
	assert.Equal(t, 11, r.Estimate.Percent)
	assert.Equal(t, 90, r.Estimate.Trials)
	assert.Equal(t, cluster.Ordered, r.Estimate.Enumeration)
}

func TestRun_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Scenario)
		target error
	}{
		{"replication exceeds nodes", func(s *config.Scenario) { s.Nodes = 3; s.Replication = 4 }, cluster.ErrCapacityExhausted},
		{"too many failures", func(s *config.Scenario) { s.FailureSetSize = 11 }, cluster.ErrInvalidFailureSetSize},
		{"too little capacity", func(s *config.Scenario) { s.Capacity = 5 }, cluster.ErrCapacityExhausted},
		{"no records", func(s *config.Scenario) { s.Records = 0 }, config.ErrInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := config.Default()
			tt.mutate(&s)
			_, err := Run(s, Options{})
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.target), "%v", err)
		})
	}
}

func TestCurve_MonotonicAndComplete(t *testing.T) {
	for _, mode := range []placement.Mode{placement.Mirror, placement.Random, placement.Ring} {
		t.Run(mode.String(), func(t *testing.T) {
			s := config.Default()
			s.Mode = mode
			s.Seed = 11

			points, err := Curve(s, Options{})
			require.NoError(t, err)
			require.Len(t, points, s.Nodes+1)

			prev := 0
			for k, p := range points {
				assert.Equal(t, k, p.Scenario.FailureSetSize)
				assert.GreaterOrEqual(t, p.Estimate.Percent, prev, "k=%d", k)
				prev = p.Estimate.Percent
			}
			assert.Equal(t, 0, points[0].Estimate.Percent)
			assert.Equal(t, 100, points[s.Nodes].Estimate.Percent)
			// One store backs the whole curve.
			assert.Equal(t, points[0].RunID, points[s.Nodes].RunID)
		})
	}
}

func TestEstimates_SharesObserver(t *testing.T) {
	rec := metrics.NewRecorder()
	_, err := Estimates(config.Default(), []int{1, 2}, Options{Observers: rec})
	require.NoError(t, err)
	// C(10,1) + C(10,2)
	assert.Equal(t, 55.0, testutil.ToFloat64(rec.Trials.WithLabelValues("mirror")))
	assert.Equal(t, 5.0, testutil.ToFloat64(rec.LossTrials.WithLabelValues("mirror")))
}

func TestSweep_MatchesSequentialRuns(t *testing.T) {
	var scenarios []config.Scenario
	for _, mode := range []placement.Mode{placement.Mirror, placement.Random, placement.Ring} {
		for k := 1; k <= 4; k++ {
			s := config.Default()
			s.Mode = mode
			s.FailureSetSize = k
			s.Seed = uint64(k)
			scenarios = append(scenarios, s)
		}
	}

	got, err := Sweep(context.Background(), scenarios, 4, Options{})
	require.NoError(t, err)
	require.Len(t, got, len(scenarios))

	for i, s := range scenarios {
		want, err := Run(s, Options{})
		require.NoError(t, err)
		assert.Equal(t, want.Estimate, got[i].Estimate, "scenario %d", i)
		assert.Equal(t, s, got[i].Scenario)
	}
}

func TestSweep_FirstErrorAborts(t *testing.T) {
	bad := config.Default()
	bad.Name = "bad"
	bad.FailureSetSize = 20

	_, err := Sweep(context.Background(), []config.Scenario{config.Default(), bad}, 0, Options{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, cluster.ErrInvalidFailureSetSize))
	assert.Contains(t, err.Error(), `"bad"`)
}

func TestSweep_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Sweep(ctx, []config.Scenario{config.Default()}, 1, Options{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}
