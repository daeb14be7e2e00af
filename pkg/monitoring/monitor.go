package monitoring

import (
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5},
		},
		[]string{"method", "endpoint"},
	)

	MessagesScored = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "simulator_messages_scored_total",
			Help: "Agent messages scored by the conversation simulator",
		},
		[]string{"scenario"},
	)

	SimulationScore = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "simulator_session_total_score",
			Help:    "Total score of completed simulation sessions",
			Buckets: []float64{20, 40, 60, 70, 80, 90, 100},
		},
		[]string{"scenario"},
	)

	CSATSamples = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "csat_samples_total",
			Help: "Recorded customer satisfaction samples",
		},
		[]string{"category", "score"},
	)

	BadgesAwarded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gamification_badges_awarded_total",
			Help: "Badges awarded to users",
		},
		[]string{"rarity"},
	)
)

var initOnce sync.Once

func Init() {
	initOnce.Do(func() {
		prometheus.MustRegister(
			RequestCounter,
			RequestDuration,
			MessagesScored,
			SimulationScore,
			CSATSamples,
			BadgesAwarded,
		)
	})
}

func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start).Seconds()
		status := c.Writer.Status()

		RequestCounter.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			strconv.Itoa(status),
		).Inc()

		RequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
		).Observe(duration)
	}
}

func PrometheusHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
