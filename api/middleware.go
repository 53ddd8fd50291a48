package api

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/declog/declog/metrics"
)

// metricsMiddleware records request counts, latency and slow-request detail
// for every route, keyed by handler pattern to keep cardinality bounded.
func metricsMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		m := metrics.GetMetrics().HTTPMetrics()
		m.RequestsInFlight.Inc()
		defer m.RequestsInFlight.Dec()

		start := time.Now()
		err := c.Next()
		duration := time.Since(start).Seconds()

		status := c.Response().StatusCode()
		if err != nil {
			var fiberErr *fiber.Error
			if errors.As(err, &fiberErr) {
				status = fiberErr.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}

		method := c.Method()
		pattern := metrics.GetHandlerPattern(c.Path())
		statusClass := metrics.GetStatusClass(status)

		m.RequestsTotal.WithLabelValues(method, pattern, statusClass).Inc()
		m.RequestDuration.WithLabelValues(method, pattern).Observe(duration)
		if status >= fiber.StatusBadRequest {
			m.ErrorsTotal.WithLabelValues(pattern, statusClass).Inc()
		}

		if metrics.ShouldTrackDetailed(duration, c.Path()) {
			if bucket := metrics.GetDurationBucket(duration); bucket != "" {
				m.SlowRequests.WithLabelValues(method, c.Path(), bucket).Inc()
			}
			metrics.TrackEndpoint(c.Path(), duration)
		}

		return err
	}
}
