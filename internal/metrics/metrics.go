package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"staffattendance/internal/calendar"
)

// Metrics groups the service's collectors.
type Metrics struct {
	CheckIns      *prometheus.CounterVec
	StoreFailures *prometheus.CounterVec
	StaffCount    prometheus.Gauge
	HTTPDuration  *prometheus.HistogramVec
}

// New registers the collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		CheckIns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "attendance",
			Name:      "checkins_total",
			Help:      "Recorded check-ins by derived status.",
		}, []string{"status"}),
		StoreFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "attendance",
			Name:      "store_failures_total",
			Help:      "Storage errors surfaced to callers, by operation.",
		}, []string{"op"}),
		StaffCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "attendance",
			Name:      "staff_members",
			Help:      "Roster size including the admin entry.",
		}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "attendance",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP latency by route and status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "code"}),
	}
	reg.MustRegister(m.CheckIns, m.StoreFailures, m.StaffCount, m.HTTPDuration)
	return m
}

func (m *Metrics) CheckIn(status calendar.Status) {
	m.CheckIns.WithLabelValues(string(status)).Inc()
}

func (m *Metrics) StoreFailure(op string) {
	m.StoreFailures.WithLabelValues(op).Inc()
}

// GinMiddleware observes request latency keyed by the matched route.
func (m *Metrics) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.HTTPDuration.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}
