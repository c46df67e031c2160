// Package metrics — prometheus-коллекторы сервиса.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cymarker_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cymarker_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// Аутентификация
	AuthAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cymarker_auth_attempts_total",
			Help: "Sign-in and token validation attempts by outcome",
		},
		[]string{"kind", "outcome"}, // kind: signin|token, outcome: ok|fail
	)

	// Уведомления
	WSConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cymarker_ws_connections",
			Help: "Current number of connected WebSocket clients",
		},
	)

	NotifierEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cymarker_notifier_events_total",
			Help: "Change events by type and delivery outcome",
		},
		[]string{"event", "outcome"}, // outcome: queued|dropped
	)

	WSSlowClients = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cymarker_ws_slow_clients_total",
			Help: "Clients disconnected because their send buffer was full",
		},
	)
)

// RecordAPIRequest учитывает завершённый HTTP-запрос.
func RecordAPIRequest(method, route string, status int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordAuth учитывает попытку входа или проверки токена.
func RecordAuth(kind string, ok bool) {
	outcome := "fail"
	if ok {
		outcome = "ok"
	}
	AuthAttempts.WithLabelValues(kind, outcome).Inc()
}

// RecordNotifierEvent учитывает событие уведомителя.
func RecordNotifierEvent(event string, queued bool) {
	outcome := "dropped"
	if queued {
		outcome = "queued"
	}
	NotifierEvents.WithLabelValues(event, outcome).Inc()
}
