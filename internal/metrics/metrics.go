package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "washdesk",
			Name:      "http_requests_total",
			Help:      "HTTP requests by endpoint.",
		},
		[]string{"endpoint"},
	)

	mutations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "washdesk",
			Name:      "booking_mutations_total",
			Help:      "Booking status mutations by target status and outcome.",
		},
		[]string{"status", "outcome"},
	)

	refreshes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "washdesk",
			Name:      "view_refreshes_total",
			Help:      "Full list reloads by view.",
		},
		[]string{"view"},
	)

	pollerTicks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "washdesk",
			Name:      "poller_ticks_total",
			Help:      "Dashboard poller ticks by result.",
		},
		[]string{"result"},
	)

	exportJobs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "washdesk",
			Name:      "export_jobs_total",
			Help:      "Sheet export jobs by outcome.",
		},
		[]string{"outcome"},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, mutations, refreshes, pollerTicks, exportJobs)
	})
}

// IncHTTP increments the counter for an endpoint label.
func IncHTTP(endpoint string) {
	httpRequests.WithLabelValues(endpoint).Inc()
}

// MutationCommitted counts a mutation the backend accepted.
func MutationCommitted(status string) {
	mutations.WithLabelValues(status, "committed").Inc()
}

// MutationRolledBack counts a mutation reverted after a backend failure.
func MutationRolledBack(status string) {
	mutations.WithLabelValues(status, "rolled_back").Inc()
}

// IncRefresh counts a full reload of a view's list.
func IncRefresh(view string) {
	refreshes.WithLabelValues(view).Inc()
}

// PollerTick counts a poller cycle: "ok", "error" or "skipped".
func PollerTick(result string) {
	pollerTicks.WithLabelValues(result).Inc()
}

// ExportJob counts an export job outcome: "done", "retry" or "dead".
func ExportJob(outcome string) {
	exportJobs.WithLabelValues(outcome).Inc()
}
