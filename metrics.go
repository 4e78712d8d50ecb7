package bqloadbench

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/xerrors"
)

type loadMetrics struct {
	seconds *prometheus.HistogramVec
}

func newLoadMetrics(r prometheus.Registerer) (*loadMetrics, error) {
	m := &loadMetrics{
		seconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "bqloadbench",
			Name:      "load_seconds",
			Help:      "Service side duration of BigQuery load jobs",
			Buckets:   prometheus.ExponentialBuckets(0.5, 2, 10),
		}, []string{"format", "rows", "duplicate"}),
	}

	if err := r.Register(m.seconds); err != nil {
		return nil, xerrors.Errorf("failed to register load metrics: %w", err)
	}

	return m, nil
}

func (m *loadMetrics) observe(f Format, rows, duplicate int, seconds float64) {
	if m == nil {
		return
	}
	m.seconds.
		WithLabelValues(f.String(), strconv.Itoa(rows), strconv.Itoa(duplicate)).
		Observe(seconds)
}
