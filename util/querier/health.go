package querier

import (
	"sync"
	"time"
)

const (
	// consecutive failures before an endpoint is considered unhealthy
	failureThreshold = 3
	// how long an unhealthy endpoint is skipped before it is retried
	recoveryTimeout = 5 * time.Minute
)

// endpointHealth is a minimal circuit breaker per endpoint URL.
type endpointHealth struct {
	failures      int
	lastFailureAt time.Time
}

var (
	healthMu      sync.Mutex
	healthTracker = make(map[string]*endpointHealth)
)

// recordEndpointSuccess resets the endpoint to healthy state
func recordEndpointSuccess(endpoint string) {
	healthMu.Lock()
	defer healthMu.Unlock()
	delete(healthTracker, endpoint)
}

// recordEndpointFailure increments the failure count and stamps the failure time
func recordEndpointFailure(endpoint string) {
	healthMu.Lock()
	defer healthMu.Unlock()
	h, ok := healthTracker[endpoint]
	if !ok {
		h = &endpointHealth{}
		healthTracker[endpoint] = h
	}
	h.failures++
	h.lastFailureAt = time.Now()
}

// isEndpointHealthy checks if an endpoint is healthy enough to use
func isEndpointHealthy(endpoint string) bool {
	healthMu.Lock()
	defer healthMu.Unlock()
	h, ok := healthTracker[endpoint]
	if !ok || h.failures < failureThreshold {
		return true
	}
	// past the threshold, allow a probe once the recovery window elapses
	return time.Since(h.lastFailureAt) >= recoveryTimeout
}

// findHealthyEndpoint returns the index of the first healthy endpoint, or 0
// when every endpoint is tripped so rotation still makes progress.
func findHealthyEndpoint(endpoints []string) int {
	for i, endpoint := range endpoints {
		if isEndpointHealthy(endpoint) {
			return i
		}
	}
	return 0
}
