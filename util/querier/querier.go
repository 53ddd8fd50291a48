package querier

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/gofiber/fiber/v2"

	"github.com/declog/declog/config"
	"github.com/declog/declog/sentry_integration"
	"github.com/declog/declog/util"
)

const (
	queryTimeout     = 5 * time.Second
	maxRetriesPerURL = 5
	coolingDuration  = 100 * time.Millisecond
)

// Querier issues JSON-RPC requests against the configured execution nodes,
// rotating between endpoints when one misbehaves.
type Querier struct {
	ChainId     string
	JsonRpcUrls []string
	Environment string

	client *fiber.Client
}

func NewQuerier(cfg *config.ChainConfig) *Querier {
	return &Querier{
		ChainId:     cfg.ChainId,
		JsonRpcUrls: cfg.JsonRpcUrls,
		Environment: cfg.Environment,
		client:      fiber.AcquireClient(),
	}
}

func extractResponse[T any](response []byte) (T, error) {
	var t T
	if err := json.Unmarshal(response, &t); err != nil {
		return t, err
	}
	return t, nil
}

// requestFunc is a function type that performs an HTTP request with a given endpoint URL
type requestFunc[T any] func(ctx context.Context, endpointURL string) (*T, error)

// post issues a JSON POST against the endpoint through the shared HTTP
// helper, which enforces the concurrency limiter and rate-limit backoff.
// Endpoint rotation policy stays in executeWithEndpointRotation.
func (q *Querier) post(ctx context.Context, endpointURL string, payload any, timeout time.Duration) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	return util.Post(q.client, coolingDuration, timeout, endpointURL, "", payload, nil)
}

// executeWithEndpointRotation executes a request function with endpoint rotation and backoff.
// It rotates through the provided endpoints when maxRetriesPerURL is exceeded for the current
// endpoint, preferring endpoints the circuit breaker considers healthy.
func executeWithEndpointRotation[T any](ctx context.Context, endpoints []string, requestFn requestFunc[T]) (*T, error) {
	if len(endpoints) == 0 {
		return nil, fmt.Errorf("no endpoints configured")
	}

	// Track retries per endpoint
	startEndpointIndex := findHealthyEndpoint(endpoints)
	currentEndpointIndex := startEndpointIndex
	retriesPerEndpoint := 0
	totalRetries := 0
	loopSize := len(endpoints) * maxRetriesPerURL
	var lastErr error

	for {
		// Check if context is cancelled before proceeding
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		// Rotate endpoint if we've exceeded maxRetriesPerURL for current endpoint
		if retriesPerEndpoint >= maxRetriesPerURL {
			// Perform backoff before rotating to next endpoint
			backoffDelay := util.BackoffDelay(retriesPerEndpoint)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoffDelay):
			}

			// Rotate to next endpoint
			currentEndpointIndex = (currentEndpointIndex + 1) % len(endpoints)
			retriesPerEndpoint = 0

			// If we've looped through all endpoints, we've exhausted all options
			if currentEndpointIndex == startEndpointIndex {
				return nil, fmt.Errorf("exhausted all endpoints: %w", lastErr)
			}
		}

		// Execute the request with current endpoint
		res, err := requestFn(ctx, endpoints[currentEndpointIndex])
		if err == nil {
			recordEndpointSuccess(endpoints[currentEndpointIndex])
			return res, nil
		}

		// Request failed (including timeout), increment retry counters
		recordEndpointFailure(endpoints[currentEndpointIndex])
		lastErr = err
		retriesPerEndpoint++
		totalRetries++

		if totalRetries == loopSize {
			sentry_integration.CaptureCurrentHubException(lastErr, sentry.LevelError)
			// If we've exhausted all retries, return the last error
			return nil, fmt.Errorf("exhausted all retries: %w", lastErr)
		}

		// Perform backoff before retrying
		backoffDelay := util.BackoffDelay(retriesPerEndpoint)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoffDelay):
		}
	}
}
