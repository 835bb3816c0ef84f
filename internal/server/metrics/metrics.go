// Package metrics holds the server's Prometheus collectors and the admin
// HTTP endpoint that exposes them.
package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
)

// Metrics is a set of collectors bound to one registry.
type Metrics struct {
	Registry *prometheus.Registry

	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	UploadsPrepared prometheus.Counter
	ItemsCreated    *prometheus.CounterVec
	ItemsDeleted    prometheus.Counter
	PresignFailures *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "safelocker",
				Name:      "requests_total",
				Help:      "Total number of gRPC requests",
			},
			[]string{"method", "code"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "safelocker",
				Name:      "request_duration_seconds",
				Help:      "gRPC request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method"},
		),
		UploadsPrepared: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "safelocker",
			Name:      "uploads_prepared_total",
			Help:      "Presigned upload URLs issued",
		}),
		ItemsCreated: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "safelocker",
				Name:      "items_created_total",
				Help:      "Catalog records created",
			},
			[]string{"folder"},
		),
		ItemsDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "safelocker",
			Name:      "items_deleted_total",
			Help:      "Catalog records deleted",
		}),
		PresignFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "safelocker",
				Name:      "presign_failures_total",
				Help:      "Object store calls that failed",
			},
			[]string{"op"},
		),
	}

	m.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.RequestsTotal,
		m.RequestDuration,
		m.UploadsPrepared,
		m.ItemsCreated,
		m.ItemsDeleted,
		m.PresignFailures,
	)
	return m
}

func (m *Metrics) record(method string, err error, elapsed time.Duration) {
	m.RequestsTotal.WithLabelValues(method, status.Code(err).String()).Inc()
	m.RequestDuration.WithLabelValues(method).Observe(elapsed.Seconds())
}

// UnaryInterceptor counts and times unary calls.
func (m *Metrics) UnaryInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	m.record(info.FullMethod, err, time.Since(start))
	return resp, err
}

// StreamInterceptor counts subscriptions when they end.
func (m *Metrics) StreamInterceptor(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
	start := time.Now()
	err := handler(srv, ss)
	m.record(info.FullMethod, err, time.Since(start))
	return err
}
