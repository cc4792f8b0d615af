// Package metrics holds the service's prometheus collectors, served by the
// private router's /metrics endpoint.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ChangesAppended counts successfully appended changes.
	ChangesAppended = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "penflow",
		Subsystem: "changelog",
		Name:      "changes_appended_total",
		Help:      "Changes appended across all changesets.",
	})

	// SyncConflicts counts lost append races, including the retried ones.
	SyncConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "penflow",
		Subsystem: "changelog",
		Name:      "sync_conflicts_total",
		Help:      "Position conflicts hit while appending changes.",
	})

	// ActiveConnections tracks live websocket connections.
	ActiveConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "penflow",
		Subsystem: "websocket",
		Name:      "active_connections",
		Help:      "Currently open sync connections.",
	})
)
