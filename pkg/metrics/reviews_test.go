package metrics

import (
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestReviewMetricsExportsCountersAndHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewReviewMetrics(reg)

	metrics.IncSubmission("accepted")
	metrics.IncImage("uploaded")
	metrics.IncImage("skipped")
	metrics.IncClassifierFallback()
	metrics.ObserveDuration(250 * time.Millisecond)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "review_submissions_total", "result", "accepted"); err != nil {
		t.Fatalf("fetch submissions: %v", err)
	} else if got != 1 {
		t.Fatalf("expected submissions=1, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "review_images_total", "outcome", "skipped"); err != nil {
		t.Fatalf("fetch images: %v", err)
	} else if got != 1 {
		t.Fatalf("expected skipped=1, got %f", got)
	}

	mf := findMetricFamily(mfs, "review_classifier_fallbacks_total")
	if mf == nil {
		t.Fatal("classifier fallback counter not exported")
	}
	if got := mf.GetMetric()[0].GetCounter().GetValue(); got != 1 {
		t.Fatalf("expected fallbacks=1, got %f", got)
	}

	hf := findMetricFamily(mfs, "review_submission_duration_seconds")
	if hf == nil {
		t.Fatal("duration histogram not exported")
	}
	if sum := hf.GetMetric()[0].GetHistogram().GetSampleSum(); sum <= 0 {
		t.Fatalf("expected duration sum > 0, got %f", sum)
	}
}

func TestReviewMetricsNilSafe(t *testing.T) {
	var metrics *ReviewMetrics
	metrics.IncSubmission("accepted")
	metrics.IncImage("uploaded")
	metrics.IncClassifierFallback()
	metrics.ObserveDuration(time.Second)

	empty := NewReviewMetrics(nil)
	empty.IncSubmission("")
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

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func matchesLabel(pairs []*dto.LabelPair, label, value string) bool {
	for _, pair := range pairs {
		if pair.GetName() == label && pair.GetValue() == value {
			return true
		}
	}
	return false
}
