// Package observability provides logging, metrics, and tracing.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrors counts Redis errors by operation type.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kforum_redis_error_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// SubmissionsEvaluated counts post submissions by verdict outcome
	// (accepted, rejected_banned, rejected_abusive).
	SubmissionsEvaluated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kforum_submissions_evaluated_total",
		Help: "Total post submissions evaluated by the moderation pipeline, by outcome",
	}, []string{"outcome"})

	// StrikesIssued counts strikes recorded against users.
	StrikesIssued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kforum_moderation_strikes_total",
		Help: "Total strikes issued by the moderation pipeline",
	})

	// BansIssued counts bans triggered by reaching the strike threshold.
	BansIssued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kforum_moderation_bans_total",
		Help: "Total bans issued by the moderation pipeline",
	})

	// ClassifierResults counts classifier outcomes (safe, abusive, unavailable).
	ClassifierResults = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kforum_classifier_results_total",
		Help: "Total classifier calls by result",
	}, []string{"result"})

	// ClassifierLatency records classifier round-trip latency.
	ClassifierLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "kforum_classifier_latency_seconds",
		Help:    "Content classifier round-trip latency in seconds",
		Buckets: prometheus.DefBuckets,
	})

	// MailQueueDepth is the gauge of emails waiting for async delivery.
	MailQueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "kforum_mail_queue_depth",
		Help: "Number of emails currently queued for delivery",
	})

	// MailDeliveries counts outbound email attempts by result.
	MailDeliveries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kforum_mail_deliveries_total",
		Help: "Total outbound email deliveries by result",
	}, []string{"result"})

	// WebSocketDrops counts realtime messages dropped by backpressure handling.
	WebSocketDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kforum_websocket_drops_total",
		Help: "Total websocket messages dropped, by reason",
	}, []string{"reason"})

	// DatabaseQueryLatency records database query latency by statement verb.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "kforum_database_query_latency_seconds",
		Help:    "Database query latency in seconds, by statement verb",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})
)

// ObserveClassifier records one classifier call.
func ObserveClassifier(result string, start time.Time) {
	ClassifierResults.WithLabelValues(result).Inc()
	ClassifierLatency.Observe(time.Since(start).Seconds())
}
