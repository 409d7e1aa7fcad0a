// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TripsStarted counts started trips by type.
	TripsStarted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "edutransit",
		Name:      "trips_started_total",
		Help:      "Trips started, by trip type.",
	}, []string{"trip_type"})

	// TripsEnded counts end-trip requests.
	TripsEnded = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "edutransit",
		Name:      "trips_ended_total",
		Help:      "End-trip requests handled.",
	})

	// BoardingAttempts counts boarding scans by outcome.
	BoardingAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "edutransit",
		Name:      "boarding_attempts_total",
		Help:      "QR boarding attempts, by outcome.",
	}, []string{"outcome"})

	// LocationUpdates counts accepted GPS updates.
	LocationUpdates = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "edutransit",
		Name:      "location_updates_total",
		Help:      "Accepted bus location updates.",
	})

	// AlertsSent counts missed-boarding alert emails by trip type.
	AlertsSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "edutransit",
		Name:      "missed_boarding_alerts_total",
		Help:      "Missed-boarding alert emails sent, by trip type.",
	}, []string{"trip_type"})

	// Deliveries counts outbound email and push deliveries by channel and result.
	Deliveries = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "edutransit",
		Name:      "deliveries_total",
		Help:      "Outbound notification deliveries, by channel and result.",
	}, []string{"channel", "result"})

	// NotifierRunDuration observes the missed-boarding job run time.
	NotifierRunDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "edutransit",
		Name:      "notifier_run_duration_seconds",
		Help:      "Duration of missed-boarding notifier runs.",
		Buckets:   prometheus.DefBuckets,
	})
)

// Boarding outcomes.
const (
	OutcomeBoarded        = "boarded"
	OutcomeAlreadyBoarded = "already_boarded"
	OutcomeExpired        = "expired"
	OutcomeInvalid        = "invalid"
	OutcomeNoActiveTrip   = "no_active_trip"
	OutcomeRejected       = "rejected"
)

// RecordDelivery counts one delivery attempt.
func RecordDelivery(channel string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	Deliveries.WithLabelValues(channel, result).Inc()
}
