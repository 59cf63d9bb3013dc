package metrics

import (
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestJobMetricsExportsCountersAndHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewJobMetrics(reg)
	job := "cart_session_sweep"
	metrics.ObserveDuration(job, 250*time.Millisecond)
	metrics.IncSuccess(job)
	metrics.IncFailure(job)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "storefront_job_success_total", "job", job); err != nil {
		t.Fatalf("fetch success: %v", err)
	} else if got != 1 {
		t.Fatalf("expected success=1, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "storefront_job_failure_total", "job", job); err != nil {
		t.Fatalf("fetch failure: %v", err)
	} else if got != 1 {
		t.Fatalf("expected failure=1, got %f", got)
	}

	if got, err := fetchHistogramSum(mfs, "storefront_job_duration_seconds", "job", job); err != nil {
		t.Fatalf("fetch duration: %v", err)
	} else if got <= 0 {
		t.Fatalf("expected duration sum > 0, got %f", got)
	}
}

func TestCartMetricsCountsOperationsAndSessions(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewCartMetrics(reg)
	metrics.IncOperation(OpAdd)
	metrics.IncOperation(OpAdd)
	metrics.IncOperation("")
	metrics.SetActiveSessions(3)
	metrics.IncSessionEnded("idle")

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "storefront_cart_operations_total", "op", OpAdd); err != nil {
		t.Fatalf("fetch add: %v", err)
	} else if got != 2 {
		t.Fatalf("expected add=2, got %f", got)
	}
	if got, err := fetchCounterValue(mfs, "storefront_cart_operations_total", "op", "unknown"); err != nil {
		t.Fatalf("fetch unknown: %v", err)
	} else if got != 1 {
		t.Fatalf("expected unknown=1, got %f", got)
	}
	if got, err := fetchCounterValue(mfs, "storefront_cart_sessions_ended_total", "reason", "idle"); err != nil {
		t.Fatalf("fetch ended: %v", err)
	} else if got != 1 {
		t.Fatalf("expected idle=1, got %f", got)
	}

	gauge := findMetricFamily(mfs, "storefront_cart_active_sessions")
	if gauge == nil || len(gauge.GetMetric()) != 1 {
		t.Fatalf("active sessions gauge missing")
	}
	if got := gauge.GetMetric()[0].GetGauge().GetValue(); got != 3 {
		t.Fatalf("expected 3 active sessions, got %f", got)
	}
}

func TestNilRegistererIsNoop(t *testing.T) {
	cart := NewCartMetrics(nil)
	cart.IncOperation(OpClear)
	cart.SetActiveSessions(1)

	var nilCart *CartMetrics
	nilCart.IncOperation(OpAdd)

	jobs := NewJobMetrics(nil)
	jobs.IncSuccess("sweep")
}

func fetchCounterValue(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetCounter().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("metric %q missing label %s=%s", name, label, value)
}

func fetchHistogramSum(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetHistogram().GetSampleSum(), nil
		}
	}
	return 0, fmt.Errorf("histogram %q missing label %s=%s", name, label, value)
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func matchesLabel(labels []*dto.LabelPair, name, value string) bool {
	for _, label := range labels {
		if label.GetName() == name && label.GetValue() == value {
			return true
		}
	}
	return false
}
