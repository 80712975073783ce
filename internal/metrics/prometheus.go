// Package metrics exports pipeline activity as Prometheus series.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"AlphaScreener/internal/domain"
	"AlphaScreener/internal/ports"
)

// Recorder implements ports.RunMetrics.
type Recorder struct {
	transitions *prometheus.CounterVec
	runs        *prometheus.CounterVec
	duration    prometheus.Histogram
}

var _ ports.RunMetrics = (*Recorder)(nil)

// NewRecorder registers the collectors with reg.
func NewRecorder(reg prometheus.Registerer) (*Recorder, error) {
	r := &Recorder{
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "alphascreener",
			Name:      "state_transitions_total",
			Help:      "Analysis state transitions by target state.",
		}, []string{"state"}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "alphascreener",
			Name:      "runs_total",
			Help:      "Analysis requests by outcome.",
		}, []string{"outcome"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "alphascreener",
			Name:      "run_duration_seconds",
			Help:      "Wall time of analysis requests.",
			Buckets:   []float64{0.01, 0.1, 1, 5, 15, 30, 60, 120, 300},
		}),
	}
	for _, c := range []prometheus.Collector{r.transitions, r.runs, r.duration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Recorder) ObserveTransition(state domain.AnalysisState) {
	r.transitions.WithLabelValues(string(state)).Inc()
}

func (r *Recorder) ObserveRun(outcome string, elapsed time.Duration) {
	r.runs.WithLabelValues(outcome).Inc()
	r.duration.Observe(elapsed.Seconds())
}
