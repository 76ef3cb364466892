package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"durasim/internal/cluster"
)

// Recorder holds the simulator's metrics on a private registry. Nothing is
// served over the network; WriteFile dumps the current values.
type Recorder struct {
	registry *prometheus.Registry

	RecordsPlaced  *prometheus.CounterVec
	ReplicasPlaced *prometheus.CounterVec
	Trials         *prometheus.CounterVec
	LossTrials     *prometheus.CounterVec
	LossPercent    *prometheus.GaugeVec
}

// NewRecorder creates a Recorder with all collectors registered.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		RecordsPlaced: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "durasim_records_placed_total", Help: "Records placed on the simulated store"},
			[]string{"mode"},
		),
		ReplicasPlaced: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "durasim_replicas_placed_total", Help: "Record replicas written to nodes"},
			[]string{"mode"},
		),
		Trials: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "durasim_trials_total", Help: "Failure sets evaluated"},
			[]string{"mode"},
		),
		LossTrials: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "durasim_loss_trials_total", Help: "Failure sets that lost at least one record"},
			[]string{"mode"},
		),
		LossPercent: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{Name: "durasim_loss_percent", Help: "Last estimated loss percentage"},
			[]string{"mode", "kill"},
		),
	}
	r.registry.MustRegister(r.RecordsPlaced, r.ReplicasPlaced, r.Trials, r.LossTrials, r.LossPercent)
	return r
}

// Registry returns the registry backing the recorder.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Observer returns a cluster.Observer that records events under mode.
func (r *Recorder) Observer(mode string) cluster.Observer {
	return &observer{
		records:  r.RecordsPlaced.WithLabelValues(mode),
		replicas: r.ReplicasPlaced.WithLabelValues(mode),
		trials:   r.Trials.WithLabelValues(mode),
		losses:   r.LossTrials.WithLabelValues(mode),
		percent:  r.LossPercent.MustCurryWith(prometheus.Labels{"mode": mode}),
	}
}

// WriteFile writes the metrics in text exposition format to path.
func (r *Recorder) WriteFile(path string) error {
	return prometheus.WriteToTextfile(path, r.registry)
}

type observer struct {
	records  prometheus.Counter
	replicas prometheus.Counter
	trials   prometheus.Counter
	losses   prometheus.Counter
	percent  *prometheus.GaugeVec
}

func (o *observer) RecordPlaced(replicas int) {
	o.records.Inc()
	o.replicas.Add(float64(replicas))
}

func (o *observer) TrialCompleted(lost bool) {
	o.trials.Inc()
	if lost {
		o.losses.Inc()
	}
}

func (o *observer) EstimateCompleted(failureSetSize, percent int) {
	o.percent.WithLabelValues(strconv.Itoa(failureSetSize)).Set(float64(percent))
}
