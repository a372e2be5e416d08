// Package metrics collects Prometheus metrics for the cache and the security pipeline.
package metrics

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is the metrics surface used by services and middleware.
type Recorder interface {
	RecordCacheHit(region string)
	RecordCacheMiss(region string)
	RecordCacheError(region string)
	RecordCacheEviction(region string)
	RecordTokenRejected(reason string)
	RecordAccessDenied(statusCode int)
}

// Collector is the Prometheus implementation of Recorder.
type Collector struct {
	cacheRequests   *prometheus.CounterVec
	cacheEvictions  *prometheus.CounterVec
	tokenRejections *prometheus.CounterVec
	accessDenied    *prometheus.CounterVec
}

// NewCollector creates a Collector and registers its metrics on reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		cacheRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ecom_cache_requests_total",
			Help: "Cache lookups by region and result (hit, miss, error).",
		}, []string{"region", "result"}),
		cacheEvictions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ecom_cache_evictions_total",
			Help: "Cache evictions by region.",
		}, []string{"region"}),
		tokenRejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ecom_auth_token_rejections_total",
			Help: "Bearer tokens rejected during validation, by reason.",
		}, []string{"reason"}),
		accessDenied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ecom_auth_access_denied_total",
			Help: "Requests rejected by the authorization policy, by status code.",
		}, []string{"status_code"}),
	}

	reg.MustRegister(
		c.cacheRequests,
		c.cacheEvictions,
		c.tokenRejections,
		c.accessDenied,
	)
	return c
}

func (c *Collector) RecordCacheHit(region string) {
	c.cacheRequests.WithLabelValues(region, "hit").Inc()
}

func (c *Collector) RecordCacheMiss(region string) {
	c.cacheRequests.WithLabelValues(region, "miss").Inc()
}

func (c *Collector) RecordCacheError(region string) {
	c.cacheRequests.WithLabelValues(region, "error").Inc()
}

func (c *Collector) RecordCacheEviction(region string) {
	c.cacheEvictions.WithLabelValues(region).Inc()
}

func (c *Collector) RecordTokenRejected(reason string) {
	c.tokenRejections.WithLabelValues(reason).Inc()
}

func (c *Collector) RecordAccessDenied(statusCode int) {
	c.accessDenied.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// Nop discards every measurement.
type Nop struct{}

func (Nop) RecordCacheHit(string)      {}
func (Nop) RecordCacheMiss(string)     {}
func (Nop) RecordCacheError(string)    {}
func (Nop) RecordCacheEviction(string) {}
func (Nop) RecordTokenRejected(string) {}
func (Nop) RecordAccessDenied(int)     {}

// Handler exposes the gatherer as a Fiber handler for the /metrics scrape endpoint.
func Handler(gatherer prometheus.Gatherer) fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
}
