package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func TestMetrics_Counts(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveRun("ok", 2*time.Second, time.Unix(1700000000, 0))
	m.IncPages()
	m.AddRecords("saved", 3)
	m.AddRecords("duplicate", 0)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	got := map[string]float64{}
	for _, f := range families {
		for _, mt := range f.GetMetric() {
			switch {
			case mt.GetCounter() != nil:
				got[f.GetName()] += mt.GetCounter().GetValue()
			case mt.GetGauge() != nil:
				got[f.GetName()] = mt.GetGauge().GetValue()
			}
		}
	}
	if got["findme_ingestion_runs_total"] != 1 || got["findme_ingestion_records_total"] != 3 {
		t.Fatalf("unexpected counters: %v", got)
	}
	if got["findme_ingestion_last_success_timestamp_seconds"] != 1700000000 {
		t.Fatalf("unexpected last success: %v", got)
	}
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	m.ObserveRun("failed", time.Second, time.Now())
	m.IncPages()
	m.AddRecords("saved", 1)
}
