package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts ingestion outcomes. A nil *Metrics is a no-op.
type Metrics struct {
	Runs          *prometheus.CounterVec
	Records       *prometheus.CounterVec
	PagesFetched  prometheus.Counter
	RunDuration   prometheus.Histogram
	LastSuccessTS prometheus.Gauge
}

func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Runs: f.NewCounterVec(prometheus.CounterOpts{
			Name: "findme_ingestion_runs_total",
			Help: "Ingestion runs by outcome (ok, skipped, failed)",
		}, []string{"outcome"}),
		Records: f.NewCounterVec(prometheus.CounterOpts{
			Name: "findme_ingestion_records_total",
			Help: "Upstream records processed by result (saved, duplicate, failed)",
		}, []string{"result"}),
		PagesFetched: f.NewCounter(prometheus.CounterOpts{
			Name: "findme_ingestion_pages_fetched_total",
			Help: "Upstream pages fetched",
		}),
		RunDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "findme_ingestion_run_duration_seconds",
			Help:    "Wall time of ingestion runs",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
		}),
		LastSuccessTS: f.NewGauge(prometheus.GaugeOpts{
			Name: "findme_ingestion_last_success_timestamp_seconds",
			Help: "Unix time of the last run that completed without error",
		}),
	}
}

func (m *Metrics) ObserveRun(outcome string, d time.Duration, at time.Time) {
	if m == nil {
		return
	}
	m.Runs.WithLabelValues(outcome).Inc()
	m.RunDuration.Observe(d.Seconds())
	if outcome == "ok" {
		m.LastSuccessTS.Set(float64(at.Unix()))
	}
}

func (m *Metrics) IncPages() {
	if m == nil {
		return
	}
	m.PagesFetched.Inc()
}

func (m *Metrics) AddRecords(result string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.Records.WithLabelValues(result).Add(float64(n))
}
