package handler

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics for the glucose alert pipeline: queue consumption and the realtime
// doctor feed
var (
	AlertsConsumedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alerts_consumed_total",
			Help: "Total number of glucose alert events consumed from the queue",
		},
		[]string{"status"},
	)

	AlertsBroadcastTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alerts_broadcast_total",
			Help: "Total number of glucose alerts pushed to the realtime feed",
		},
		[]string{"recipients"},
	)

	WebSocketConnections = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "websocket_connections",
			Help: "Currently open alert-feed WebSocket connections by role",
		},
		[]string{"role"},
	)

	RabbitMQConsumeDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rabbitmq_consume_duration_seconds",
			Help:    "Time to persist and forward a consumed glucose alert",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"status"},
	)
)

// RegisterAlertConsumerMetrics registers the alert pipeline metrics with the
// default registry. Called once by the alerts worker.
func RegisterAlertConsumerMetrics() {
	prometheus.MustRegister(AlertsConsumedTotal)
	prometheus.MustRegister(AlertsBroadcastTotal)
	prometheus.MustRegister(WebSocketConnections)
	prometheus.MustRegister(RabbitMQConsumeDuration)
}
