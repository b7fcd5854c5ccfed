package metrics

import (
	"database/sql"
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "placemap",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests processed",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "placemap",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{"method", "path"})

	// ResolveTotal counts resolution outcomes by strategy ("none" for misses).
	ResolveTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "placemap",
		Subsystem: "resolver",
		Name:      "resolve_total",
		Help:      "Coordinate resolutions by strategy",
	}, []string{"strategy"})

	ResolveFlagged = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "placemap",
		Subsystem: "resolver",
		Name:      "flagged_total",
		Help:      "Resolutions farther than the sanity threshold from the reference point",
	})

	SearchRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "placemap",
		Subsystem: "kakao",
		Name:      "requests_total",
		Help:      "Kakao Local API requests",
	}, []string{"endpoint", "result"})

	SearchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "placemap",
		Subsystem: "kakao",
		Name:      "request_duration_seconds",
		Help:      "Kakao Local API latency",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
	}, []string{"endpoint"})

	// SDKState is 0 unloaded, 1 loading, 2 ready, 3 failed.
	SDKState = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "placemap",
		Subsystem: "sdk",
		Name:      "state",
		Help:      "Map SDK loader state",
	})

	ActiveOverlays = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "placemap",
		Subsystem: "map",
		Name:      "active_overlays",
		Help:      "Overlays currently on live maps",
	}, []string{"kind"})

	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "placemap",
		Subsystem: "map",
		Name:      "active_sessions",
		Help:      "Open map page sessions",
	})

	WorkerRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "placemap",
		Subsystem: "worker",
		Name:      "requests_total",
		Help:      "Resolve requests handled by the background worker",
	}, []string{"result"})

	CacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "placemap",
		Subsystem: "cache",
		Name:      "hits_total",
		Help:      "Total cache hits",
	}, []string{"operation"})

	CacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "placemap",
		Subsystem: "cache",
		Name:      "misses_total",
		Help:      "Total cache misses",
	}, []string{"operation"})
)

// RegisterDBStats экспортирует статистику пула соединений хранилища координат.
// Повторная регистрация той же базы игнорируется.
func RegisterDBStats(db *sql.DB, dbName string) error {
	err := prometheus.Register(collectors.NewDBStatsCollector(db, dbName))
	var already prometheus.AlreadyRegisteredError
	if errors.As(err, &already) {
		return nil
	}
	return err
}

// Middleware records request metrics.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		status := strconv.Itoa(c.Response().StatusCode())
		path := c.Route().Path
		if path == "" {
			path = c.Path()
		}
		method := c.Method()

		httpRequestsTotal.WithLabelValues(method, path, status).Inc()
		httpRequestDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())

		return err
	}
}

// Handler returns a Fiber handler serving the Prometheus /metrics endpoint.
func Handler() fiber.Handler {
	handler := fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler())
	return func(c *fiber.Ctx) error {
		handler(c.Context())
		return nil
	}
}
