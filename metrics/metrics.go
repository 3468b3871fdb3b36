// Package metrics holds the Prometheus collectors of the loan service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	PredictionsTotal    *prometheus.CounterVec
	PredictionDuration  prometheus.Histogram
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	gatherer prometheus.Gatherer
}

// New registers the collectors on reg and serves them from the same registry.
func New(reg *prometheus.Registry) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		PredictionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "loan_predictions_total",
				Help: "Total number of loan predictions by outcome and verdict",
			},
			[]string{"outcome", "verdict"},
		),
		PredictionDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "loan_prediction_duration_seconds",
				Help:    "Time spent inside the model per prediction",
				Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
			},
		),
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"route", "method", "code"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "http_request_duration_seconds",
				Help: "Duration of HTTP requests in seconds",
			},
			[]string{"route"},
		),
		gatherer: reg,
	}
}

// ObservePrediction is safe to call on a nil *Metrics.
func (m *Metrics) ObservePrediction(outcome, verdict string, d time.Duration) {
	if m == nil {
		return
	}
	m.PredictionsTotal.WithLabelValues(outcome, verdict).Inc()
	m.PredictionDuration.Observe(d.Seconds())
}

func (m *Metrics) ObserveRequest(route, method string, code int, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(route, method, strconv.Itoa(code)).Inc()
	m.HTTPRequestDuration.WithLabelValues(route).Observe(d.Seconds())
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
