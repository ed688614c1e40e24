// internal/metrics/prom.go
// Package metrics centralises Prometheus metric registration for the
// GroupCast worker and master processes. It exposes typed collectors so that
// code can remain import-cycle‑free. The package registers with the global
// prometheus.DefaultRegisterer, which callers typically expose via the
// /metrics HTTP handler from the Prometheus client library.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	// Gauge metrics ---------------------------------------------------------
	Subscribers = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "groupcast",
		Subsystem: "backend",
		Name:      "subscribers",
		Help:      "Current number of subscriber queues per group, on this worker.",
	}, []string{"group"})

	LiveWorkers = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "groupcast",
		Subsystem: "orchestrator",
		Name:      "live_workers",
		Help:      "Number of worker namespaces currently present in the shared worker list.",
	})

	// Counter metrics -------------------------------------------------------
	MessagesFannedOutTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "groupcast",
		Subsystem: "forwarder",
		Name:      "messages_fanned_out_total",
		Help:      "Total SendMessage RPCs dispatched to a worker stub by the forwarder.",
	}, []string{"worker", "outcome"})

	QueueDropsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "groupcast",
		Subsystem: "backend",
		Name:      "queue_drops_total",
		Help:      "Messages dropped because a subscriber queue was full (drop-oldest policy).",
	}, []string{"group"})

	WorkerRestartsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "groupcast",
		Subsystem: "orchestrator",
		Name:      "worker_restarts_total",
		Help:      "Total number of times the orchestrator has restarted a crashed worker.",
	})
)

// Register exports all metrics; safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			Subscribers,
			LiveWorkers,
			MessagesFannedOutTotal,
			QueueDropsTotal,
			WorkerRestartsTotal,
		)
	})
}
