package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	resolverQueries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "storehours",
			Name:      "resolver_queries_total",
			Help:      "Count of open/closed resolutions by result.",
		},
		[]string{"result"},
	)

	scheduleFetches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "storehours",
			Name:      "schedule_fetches_total",
			Help:      "Count of schedule/override fetches by source.",
		},
		[]string{"endpoint", "source"},
	)

	remindersSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "storehours",
			Name:      "reminders_sent_total",
			Help:      "Count of opening reminders by outcome.",
		},
		[]string{"status"},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "storehours",
			Name:      "http_requests_total",
			Help:      "Count of API requests by handler.",
		},
		[]string{"handler"},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(resolverQueries, scheduleFetches, remindersSent, httpRequests)
	})
}

func IncResolverQuery(open bool) {
	result := "closed"
	if open {
		result = "open"
	}
	resolverQueries.WithLabelValues(result).Inc()
}

func IncScheduleFetch(endpoint, source string) {
	scheduleFetches.WithLabelValues(endpoint, source).Inc()
}

func IncReminderSent(status string) {
	remindersSent.WithLabelValues(status).Inc()
}

func IncHTTP(handler string) {
	httpRequests.WithLabelValues(handler).Inc()
}
