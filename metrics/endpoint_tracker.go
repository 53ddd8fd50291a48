package metrics

import (
	"sort"
	"sync"
	"time"
)

const (
	updateInterval = 5 * time.Minute
	staleAfter     = 10 * time.Minute
	// per-endpoint sliding window of recorded durations
	maxSamples = 1000
	// endpoints below this p99 are not worth a label
	minTrackedP99 = 0.1
	// cardinality cap on the TopEndpoints gauge
	topEndpointLimit = 20
)

// EndpointTracker keeps a sliding window of request durations per path and
// periodically publishes the p99 of the slowest paths.
type EndpointTracker struct {
	mu        sync.RWMutex
	endpoints map[string]*endpointStats
	ticker    *time.Ticker
	done      chan struct{}
}

type endpointStats struct {
	durations []float64
	lastSeen  time.Time
}

var globalTracker *EndpointTracker

func StartEndpointTracking() {
	if globalTracker != nil {
		return
	}

	globalTracker = &EndpointTracker{
		endpoints: make(map[string]*endpointStats),
		ticker:    time.NewTicker(updateInterval),
		done:      make(chan struct{}),
	}

	go globalTracker.run()
}

func StopEndpointTracking() {
	if globalTracker != nil {
		close(globalTracker.done)
		globalTracker.ticker.Stop()
		globalTracker = nil
	}
}

// TrackEndpoint records one request duration for the path.
func TrackEndpoint(path string, duration float64) {
	if globalTracker == nil {
		return
	}

	globalTracker.mu.Lock()
	defer globalTracker.mu.Unlock()

	stats, exists := globalTracker.endpoints[path]
	if !exists {
		stats = &endpointStats{durations: make([]float64, 0, maxSamples)}
		globalTracker.endpoints[path] = stats
	}

	stats.durations = append(stats.durations, duration)
	stats.lastSeen = time.Now()

	if len(stats.durations) > maxSamples {
		stats.durations = stats.durations[len(stats.durations)-maxSamples:]
	}
}

func (et *EndpointTracker) run() {
	for {
		select {
		case <-et.ticker.C:
			et.updateTopEndpoints()
		case <-et.done:
			return
		}
	}
}

func (et *EndpointTracker) updateTopEndpoints() {
	et.mu.RLock()
	defer et.mu.RUnlock()

	type endpointP99 struct {
		path string
		p99  float64
	}

	var slowest []endpointP99
	cutoff := time.Now().Add(-staleAfter)

	for path, stats := range et.endpoints {
		// ignore inactive and low-traffic paths
		if stats.lastSeen.Before(cutoff) || len(stats.durations) < 10 {
			continue
		}

		durations := make([]float64, len(stats.durations))
		copy(durations, stats.durations)
		sort.Float64s(durations)

		idx := int(float64(len(durations)) * 0.99)
		if idx >= len(durations) {
			idx = len(durations) - 1
		}

		if p99 := durations[idx]; p99 > minTrackedP99 {
			slowest = append(slowest, endpointP99{path: path, p99: p99})
		}
	}

	sort.Slice(slowest, func(i, j int) bool {
		return slowest[i].p99 > slowest[j].p99
	})

	GetMetrics().HTTP.TopEndpoints.Reset()

	limit := topEndpointLimit
	if len(slowest) < limit {
		limit = len(slowest)
	}
	for i := 0; i < limit; i++ {
		GetMetrics().HTTP.TopEndpoints.WithLabelValues(slowest[i].path).Set(slowest[i].p99)
	}
}
