package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ReviewMetrics records submission pipeline outcomes.
type ReviewMetrics struct {
	submissions         *prometheus.CounterVec
	images              *prometheus.CounterVec
	classifierFallbacks prometheus.Counter
	duration            prometheus.Histogram
}

// NewReviewMetrics registers the review metrics on the provided registerer.
func NewReviewMetrics(reg prometheus.Registerer) *ReviewMetrics {
	if reg == nil {
		return &ReviewMetrics{}
	}
	submissions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "review_submissions_total",
		Help: "Review submissions by terminal result.",
	}, []string{"result"})
	images := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "review_images_total",
		Help: "Per-image processing outcomes.",
	}, []string{"outcome"})
	classifierFallbacks := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "review_classifier_fallbacks_total",
		Help: "Classifications that fell back to the positive default.",
	})
	duration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "review_submission_duration_seconds",
		Help:    "End-to-end submission processing time in seconds.",
		Buckets: prometheus.DefBuckets,
	})
	reg.MustRegister(submissions, images, classifierFallbacks, duration)
	return &ReviewMetrics{
		submissions:         submissions,
		images:              images,
		classifierFallbacks: classifierFallbacks,
		duration:            duration,
	}
}

// IncSubmission increments the submission counter for the given result.
func (m *ReviewMetrics) IncSubmission(result string) {
	if m == nil || m.submissions == nil {
		return
	}
	m.submissions.WithLabelValues(normalizeLabel(result)).Inc()
}

// IncImage increments the per-image counter for the given outcome.
func (m *ReviewMetrics) IncImage(outcome string) {
	if m == nil || m.images == nil {
		return
	}
	m.images.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// IncClassifierFallback counts one fail-open classification.
func (m *ReviewMetrics) IncClassifierFallback() {
	if m == nil || m.classifierFallbacks == nil {
		return
	}
	m.classifierFallbacks.Inc()
}

// ObserveDuration records the duration of one submission.
func (m *ReviewMetrics) ObserveDuration(duration time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.Observe(duration.Seconds())
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
