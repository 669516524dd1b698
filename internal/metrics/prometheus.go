package metrics

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	VQADuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "seesound_vqa_duration_seconds",
			Help:    "VQA inference duration in seconds",
			Buckets: []float64{0.5, 1, 2, 5, 10, 30},
		},
	)

	VQATotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "seesound_vqa_requests_total",
			Help: "Total VQA requests by outcome",
		},
		[]string{"status"},
	)

	SpeechTokenTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "seesound_speech_token_requests_total",
			Help: "Total speech token requests by outcome",
		},
		[]string{"status"},
	)

	PreferencesSaved = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "seesound_preferences_saved_total",
			Help: "Total preference save requests",
		},
	)

	QueryLogFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "seesound_query_log_failures_total",
			Help: "Query log appends that were dropped",
		},
	)
)

func Init() {
	prometheus.MustRegister(VQADuration)
	prometheus.MustRegister(VQATotal)
	prometheus.MustRegister(SpeechTokenTotal)
	prometheus.MustRegister(PreferencesSaved)
	prometheus.MustRegister(QueryLogFailures)
}

func MetricsHandler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
