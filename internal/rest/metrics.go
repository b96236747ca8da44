package rest

import (
	"bufio"
	"errors"
	"net"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "invigil_http_requests_total",
		Help: "HTTP requests handled, by method and status.",
	}, []string{"method", "status"})

	incidentsReported = promauto.NewCounter(prometheus.CounterOpts{
		Name: "invigil_incidents_reported_total",
		Help: "Incident reports accepted.",
	})

	lookupsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "invigil_student_lookups_total",
		Help: "Student lookups, by outcome.",
	}, []string{"outcome"})
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Hijack lets WebSocket upgrades pass through the wrapper.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("underlying writer does not support hijacking")
	}
	return hj.Hijack()
}

// MetricsMiddleware counts requests by method and response status.
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		requestsTotal.WithLabelValues(r.Method, strconv.Itoa(rec.status)).Inc()
	})
}
