package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func TestPrometheusObserveOperation(t *testing.T) {
	registry := prometheus.NewRegistry()
	recorder := NewPrometheus(registry)

	recorder.ObserveOperation("cast_vote", "ok", 3*time.Millisecond)
	recorder.ObserveOperation("cast_vote", "ok", 5*time.Millisecond)
	recorder.ObserveOperation("cast_vote", "already_voted", time.Millisecond)

	families, err := registry.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	counts := map[string]float64{}
	var samples uint64
	for _, family := range families {
		switch family.GetName() {
		case "leadership_operations_total":
			for _, metric := range family.GetMetric() {
				labels := map[string]string{}
				for _, pair := range metric.GetLabel() {
					labels[pair.GetName()] = pair.GetValue()
				}
				counts[labels["operation"]+"/"+labels["outcome"]] = metric.GetCounter().GetValue()
			}
		case "leadership_operation_duration_seconds":
			for _, metric := range family.GetMetric() {
				samples += metric.GetHistogram().GetSampleCount()
			}
		}
	}
	if counts["cast_vote/ok"] != 2 || counts["cast_vote/already_voted"] != 1 {
		t.Fatalf("unexpected counters %v", counts)
	}
	if samples != 3 {
		t.Fatalf("expected 3 latency samples, got %d", samples)
	}
}

func TestPrometheusNilReceiverIsSafe(t *testing.T) {
	var recorder *Prometheus
	recorder.ObserveOperation("finalize_election", "ok", time.Millisecond)
	Noop{}.ObserveOperation("finalize_election", "ok", time.Millisecond)
}
