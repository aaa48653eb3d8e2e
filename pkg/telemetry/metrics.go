// Package telemetry exposes prometheus metrics for the huddle daemon.
package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var registry = prometheus.NewRegistry()

var (
	// CapturesTotal counts successful screen captures
	CapturesTotal = promauto.With(registry).NewCounter(prometheus.CounterOpts{
		Name: "huddle_captures_total",
		Help: "Number of screenshots captured and stored",
	})

	// CaptureFailuresTotal counts failed capture attempts
	CaptureFailuresTotal = promauto.With(registry).NewCounter(prometheus.CounterOpts{
		Name: "huddle_capture_failures_total",
		Help: "Number of capture attempts that failed",
	})

	// EvictionsTotal counts screenshots evicted from the bounded buffer
	EvictionsTotal = promauto.With(registry).NewCounter(prometheus.CounterOpts{
		Name: "huddle_screenshot_evictions_total",
		Help: "Number of screenshots evicted from the buffer",
	})

	// AnswersTotal counts answers by mode
	AnswersTotal = promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
		Name: "huddle_answers_total",
		Help: "Number of answers generated, by mode",
	}, []string{"mode"})

	// AnalysisFailuresTotal counts failed vision-model calls
	AnalysisFailuresTotal = promauto.With(registry).NewCounter(prometheus.CounterOpts{
		Name: "huddle_analysis_failures_total",
		Help: "Number of failed screen-analysis calls",
	})

	// RealtimeConnections tracks open websocket connections
	RealtimeConnections = promauto.With(registry).NewGauge(prometheus.GaugeOpts{
		Name: "huddle_realtime_connections",
		Help: "Currently open realtime connections",
	})

	// RealtimeMessagesTotal counts inbound realtime messages by type
	RealtimeMessagesTotal = promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
		Name: "huddle_realtime_messages_total",
		Help: "Inbound realtime messages, by type",
	}, []string{"type"})
)

// Handler returns the HTTP handler serving the metrics registry.
func Handler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
