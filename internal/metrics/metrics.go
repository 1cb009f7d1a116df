// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Update results.
const (
	UpdateProcessed = "processed"
	UpdateDuplicate = "duplicate"
	UpdateIgnored   = "ignored"
	UpdateRejected  = "rejected"
	UpdateFailed    = "failed"
)

var (
	// Inbound Telegram updates by result.
	UpdatesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bot_updates_total",
		Help: "Telegram updates received, by handling result.",
	}, []string{"result"})

	// Resolved messages by outcome (official_archive, ai_fallback, quota_exceeded, ...).
	ResolutionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bot_resolutions_total",
		Help: "Message resolutions, by outcome.",
	}, []string{"outcome"})

	ProviderDurationSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "bot_provider_duration_seconds",
		Help:    "Duration of completion provider calls.",
		Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 40, 60, 120},
	})

	DeliveryFailuresTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "bot_delivery_failures_total",
		Help: "Replies that could not be delivered to Telegram.",
	})

	ArchiveRecords = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "bot_archive_records",
		Help: "Records in the currently loaded archive snapshot.",
	})
)

// MustRegister registers every collector on reg.
func MustRegister(reg prometheus.Registerer) {
	reg.MustRegister(
		UpdatesTotal,
		ResolutionsTotal,
		ProviderDurationSeconds,
		DeliveryFailuresTotal,
		ArchiveRecords,
	)
}
