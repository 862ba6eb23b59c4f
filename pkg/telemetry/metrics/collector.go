package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"mercator-hq/curator/pkg/config"
)

const (
	// maxRoutes bounds the distinct route label values. Requests on any
	// further route are counted under RouteOther.
	maxRoutes = 100

	// RouteUnmatched labels requests no route matched.
	RouteUnmatched = "unmatched"
	// RouteOther labels requests past the maxRoutes limit.
	RouteOther = "other"
)

// Collector owns the Prometheus registry and every curator metric. It
// satisfies retention.Recorder. Record calls are dropped when metrics are
// disabled in config.
type Collector struct {
	enabled  bool
	registry *prometheus.Registry

	retention *RetentionMetrics
	http      *HTTPMetrics

	mu     sync.Mutex
	routes map[string]struct{}
}

// NewCollector registers curator's metrics on registry. A nil registry gets
// a fresh one with the Go runtime and process collectors attached. Empty
// namespace and bucket settings fall back to the config defaults.
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	opts := *cfg
	if opts.Namespace == "" {
		opts.Namespace = config.DefaultMetricsNamespace
	}
	if len(opts.RunDurationBuckets) == 0 {
		opts.RunDurationBuckets = config.DefaultRunDurationBuckets
	}
	if len(opts.RequestDurationBuckets) == 0 {
		opts.RequestDurationBuckets = config.DefaultRequestDurationBuckets
	}

	return &Collector{
		enabled:   cfg.Enabled,
		registry:  registry,
		retention: NewRetentionMetrics(&opts, registry),
		http:      NewHTTPMetrics(&opts, registry),
		routes:    make(map[string]struct{}),
	}
}

// RecordRun records a finished retention run: what triggered it, its outcome,
// how long it took, how many top-level projects were evaluated and selected,
// and when it finished.
func (c *Collector) RecordRun(trigger, outcome string, duration time.Duration, evaluated, candidates int, finished time.Time) {
	if c.enabled {
		c.retention.RecordRun(trigger, outcome, duration, evaluated, candidates, finished)
	}
}

// RecordAction records one deactivate or delete with status success or failure.
func (c *Collector) RecordAction(action, status string) {
	if c.enabled {
		c.retention.RecordAction(action, status)
	}
}

// RecordHTTPRequest records an admin API request by route pattern.
func (c *Collector) RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	if c.enabled {
		c.http.RecordRequest(method, c.routeLabel(route), status, duration)
	}
}

func (c *Collector) routeLabel(route string) string {
	if route == "" {
		return RouteUnmatched
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.routes[route]; ok {
		return route
	}
	if len(c.routes) >= maxRoutes {
		return RouteOther
	}
	c.routes[route] = struct{}{}
	return route
}

// Registry returns the registry the collector's metrics live on.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format. A failing
// collector does not hide the others.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
		ErrorHandling:     promhttp.ContinueOnError,
	})
}

// WriteTextfile writes the registry to path for the node_exporter textfile
// collector. One-shot cleanup runs use it since nothing scrapes them.
func (c *Collector) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, c.registry)
}
