// Package metrics exposes Prometheus counters for auth, cache and HTTP traffic.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is what services and middleware depend on.
type Recorder interface {
	AuthOperation(op string, err error)
	FeaturedCache(result string)
	HTTPStatus(status int)
}

const (
	CacheHit   = "hit"
	CacheMiss  = "miss"
	CacheError = "error"
)

type Collector struct {
	authOps    *prometheus.CounterVec
	featured   *prometheus.CounterVec
	httpStatus *prometheus.CounterVec
}

func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		authOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "shop_auth_operations_total",
			Help: "Auth operations by operation and result.",
		}, []string{"op", "result"}),
		featured: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "shop_featured_cache_total",
			Help: "Featured products cache lookups by result.",
		}, []string{"result"}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "shop_http_requests_total",
			Help: "HTTP responses by status code.",
		}, []string{"status"}),
	}

	reg.MustRegister(c.authOps, c.featured, c.httpStatus)
	return c
}

func (c *Collector) AuthOperation(op string, err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	c.authOps.WithLabelValues(op, result).Inc()
}

func (c *Collector) FeaturedCache(result string) {
	c.featured.WithLabelValues(result).Inc()
}

func (c *Collector) HTTPStatus(status int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(status)).Inc()
}

// Handler serves the metrics gathered by reg.
func Handler(reg prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

type Nop struct{}

func (Nop) AuthOperation(string, error) {}
func (Nop) FeaturedCache(string)        {}
func (Nop) HTTPStatus(int)              {}
