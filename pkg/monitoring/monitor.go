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

	// 业务指标
	QuizAttempts = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ecole_quiz_attempts_total",
		Help: "Recorded quiz attempts",
	})

	LessonsCompleted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ecole_lessons_completed_total",
		Help: "Lessons marked as completed",
	})

	AchievementsUnlocked = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ecole_achievements_unlocked_total",
			Help: "Achievements granted, by rarity",
		},
		[]string{"rarity"},
	)

	AuthFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ecole_auth_failures_total",
			Help: "Rejected authentications, by reason code",
		},
		[]string{"reason"},
	)

	LevelsReconciled = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ecole_levels_reconciled_total",
		Help: "Users whose stored level was corrected by the reconciliation job",
	})
)

var initOnce sync.Once

func Init() {
	initOnce.Do(func() {
		prometheus.MustRegister(
			RequestCounter,
			RequestDuration,
			QuizAttempts,
			LessonsCompleted,
			AchievementsUnlocked,
			AuthFailures,
			LevelsReconciled,
		)
	})
}

func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start).Seconds()
		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}

		RequestCounter.WithLabelValues(
			c.Request.Method,
			endpoint,
			strconv.Itoa(c.Writer.Status()),
		).Inc()

		RequestDuration.WithLabelValues(
			c.Request.Method,
			endpoint,
		).Observe(duration)
	}
}

func PrometheusHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
