package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"durasim/internal/cluster"
	"durasim/internal/placement"
	"durasim/internal/storage"
)

func TestRecorder_ObservesStore(t *testing.T) {
	rec := NewRecorder()

	s, err := cluster.New(10, 21, cluster.WithObserver(rec.Observer("mirror")))
	require.NoError(t, err)
	for i := 0; i < 100; i++ {
		require.NoError(t, s.Store(storage.RecordID(i), 2, placement.Mirror))
	}
	pct, err := s.EstimateLossProbability(2)
	require.NoError(t, err)
	require.Equal(t, 11, pct)

	assert.Equal(t, 100.0, testutil.ToFloat64(rec.RecordsPlaced.WithLabelValues("mirror")))
	assert.Equal(t, 200.0, testutil.ToFloat64(rec.ReplicasPlaced.WithLabelValues("mirror")))
	assert.Equal(t, 45.0, testutil.ToFloat64(rec.Trials.WithLabelValues("mirror")))
	assert.Equal(t, 5.0, testutil.ToFloat64(rec.LossTrials.WithLabelValues("mirror")))
	assert.Equal(t, 11.0, testutil.ToFloat64(rec.LossPercent.WithLabelValues("mirror", "2")))
}

func TestRecorder_WriteFile(t *testing.T) {
	rec := NewRecorder()
	obs := rec.Observer("random")
	obs.TrialCompleted(true)
	obs.TrialCompleted(false)

	path := filepath.Join(t.TempDir(), "durasim.prom")
	require.NoError(t, rec.WriteFile(path))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(b)
	assert.True(t, strings.Contains(out, `durasim_trials_total{mode="random"} 2`), out)
	assert.True(t, strings.Contains(out, `durasim_loss_trials_total{mode="random"} 1`), out)
}
