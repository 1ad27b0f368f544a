// Package metrics exposes Prometheus collectors for the HTTP layer and the
// checkout/settlement flows.
package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// RequestCounter counts all HTTP requests with labels
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"service", "method", "path", "status"},
	)

	// RequestDurationHistogram records request duration in seconds
	RequestDurationHistogram = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service", "method", "path", "status"},
	)

	StatusCodeCategoryCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_status_category_total",
			Help: "Total number of responses by status category (2xx, 4xx, 5xx)",
		},
		[]string{"service", "category"},
	)

	// CheckoutCounter counts recorded checkouts by outcome.
	CheckoutCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "medimart_checkouts_total",
			Help: "Checkouts processed, by outcome",
		},
		[]string{"outcome"},
	)

	// SettlementsCreated counts seller payments fanned out from checkouts.
	SettlementsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "medimart_seller_payments_created_total",
			Help: "Seller payments created by checkout fan-out",
		},
	)

	// SettlementsAccepted counts admin accepts by entry point.
	SettlementsAccepted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "medimart_settlements_accepted_total",
			Help: "Settlement accepts, by entry point",
		},
		[]string{"via"},
	)
)

var registerOnce sync.Once

// Register adds every collector to the default registry; safe to call repeatedly.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			RequestCounter,
			RequestDurationHistogram,
			StatusCodeCategoryCounter,
			CheckoutCounter,
			SettlementsCreated,
			SettlementsAccepted,
		)
	})
}

func category(status int) string {
	switch {
	case status >= 200 && status < 300:
		return "2xx"
	case status >= 300 && status < 400:
		return "3xx"
	case status >= 400 && status < 500:
		return "4xx"
	case status >= 500:
		return "5xx"
	}
	return ""
}

// Middleware records count, latency and status category per route.
func Middleware(service string) fiber.Handler {
	Register()
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else if status < 400 {
				status = fiber.StatusInternalServerError
			}
		}
		path := c.Route().Path
		statusStr := strconv.Itoa(status)

		RequestCounter.WithLabelValues(service, c.Method(), path, statusStr).Inc()
		RequestDurationHistogram.WithLabelValues(service, c.Method(), path, statusStr).
			Observe(time.Since(start).Seconds())
		if cat := category(status); cat != "" {
			StatusCodeCategoryCounter.WithLabelValues(service, cat).Inc()
		}
		return err
	}
}
