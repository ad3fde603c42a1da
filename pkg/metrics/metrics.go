package metrics

import (
	"AapdaMitra/pkg/errors"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP请求指标
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// 存储指标
	storeOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "store_operations_total",
			Help: "Local store operations by collection, operation and result",
		},
		[]string{"collection", "op", "result"},
	)

	// 指南缓存指标
	guideLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "guide_lookups_total",
			Help: "Survival guide lookups by the source that answered",
		},
		[]string{"source"},
	)

	// 网状网络模拟指标
	meshSendsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mesh_sos_sends_total",
			Help: "Simulated mesh SOS sends by outcome",
		},
		[]string{"outcome"},
	)
)

// RecordHTTPRequest 记录HTTP请求指标
func RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// ObserveStore counts one store call; err is classified by its code.
func ObserveStore(collection, op string, err error) {
	result := "ok"
	switch {
	case err == nil:
	case errors.IsValidation(err):
		result = "invalid"
	default:
		result = "error"
	}
	storeOperationsTotal.WithLabelValues(collection, op, result).Inc()
}

// Guide lookup sources.
const (
	GuideSourceMemory = "memory"
	GuideSourceStore  = "store"
	GuideSourceOracle = "oracle"
	GuideSourceStale  = "stale"
	GuideSourceFailed = "failed"
)

func ObserveGuideLookup(source string) {
	guideLookupsTotal.WithLabelValues(source).Inc()
}

// ObserveMeshSend takes "delivered", "no_gateway" or "cancelled".
func ObserveMeshSend(outcome string) {
	meshSendsTotal.WithLabelValues(outcome).Inc()
}
