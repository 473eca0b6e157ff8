package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
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
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	activeConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_active_connections",
			Help: "Number of active HTTP connections",
		},
	)

	queuesCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "lead_queues_created_total",
			Help: "Total number of lead distribution queues built",
		},
	)

	leadPurchases = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "lead_purchases_total",
			Help: "Total number of exclusive lead purchases",
		},
	)

	offerResponses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lead_offer_responses_total",
			Help: "Total number of offer responses by outcome",
		},
		[]string{"outcome"},
	)

	offersExpired = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "lead_offers_expired_total",
			Help: "Total number of offers expired by the sweeper",
		},
	)
)

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		activeConnections.Inc()
		defer activeConnections.Dec()

		rw := &responseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(rw.statusCode)

		httpRequestsTotal.WithLabelValues(r.Method, r.URL.Path, status).Inc()
		httpRequestDuration.WithLabelValues(r.Method, r.URL.Path).Observe(duration)
	})
}

func RecordQueueCreated() {
	queuesCreated.Inc()
}

func RecordLeadPurchase() {
	leadPurchases.Inc()
}

func RecordOfferResponse(outcome string) {
	offerResponses.WithLabelValues(outcome).Inc()
}

func RecordOffersExpired(n int) {
	offersExpired.Add(float64(n))
}
