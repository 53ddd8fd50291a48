package metrics

import "github.com/prometheus/client_golang/prometheus"

// Shorthand accessors for the hot-path metrics recorded by the HTTP query
// layer and the database plugin.

func ExternalAPIRequestsTotal() *prometheus.CounterVec {
	return GetMetrics().ExternalAPI.RequestsTotal
}

func ExternalAPILatency() *prometheus.HistogramVec {
	return GetMetrics().ExternalAPI.Latency
}

func ConcurrentRequestsActive() prometheus.Gauge {
	return GetMetrics().ExternalAPI.ConcurrentActive
}

func SemaphoreWaitDuration() prometheus.Histogram {
	return GetMetrics().ExternalAPI.SemaphoreWaitDuration
}

func RateLimitHitsTotal() *prometheus.CounterVec {
	return GetMetrics().ExternalAPI.RateLimitHitsTotal
}

func DBQueriesTotal() *prometheus.CounterVec {
	return GetMetrics().Database.QueriesTotal
}

func DBQueryDuration() *prometheus.HistogramVec {
	return GetMetrics().Database.QueryDuration
}

func DBRowsAffected() *prometheus.HistogramVec {
	return GetMetrics().Database.RowsAffected
}
