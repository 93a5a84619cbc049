package store

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

// ObservableMetrics holds the prometheus collectors of an ObservableStore.
type ObservableMetrics struct {
	operationCounter  *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
}

// NewObservableMetrics creates the collectors and registers them with reg.
// name prefixes every metric.
func NewObservableMetrics(name string, reg prometheus.Registerer) (*ObservableMetrics, error) {
	metrics := &ObservableMetrics{
		operationCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: name + "_operations_total",
				Help: "Total number of store operations",
			},
			[]string{"operation", "status"},
		),
		operationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    name + "_operation_duration_seconds",
				Help:    "Duration of store operations in seconds",
				Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0},
			},
			[]string{"operation"},
		),
	}

	for _, c := range []prometheus.Collector{metrics.operationCounter, metrics.operationDuration} {
		if err := reg.Register(c); err != nil {
			return nil, errors.WithMessage(err, "prometheus.Register failed")
		}
	}
	return metrics, nil
}

// ObservableStore decorates a Store with operation counters and latency
// histograms. Get results are labelled hit, miss or error.
type ObservableStore[V any] struct {
	store   Store[V]
	metrics *ObservableMetrics
}

func NewObservableStore[V any](store Store[V], metrics *ObservableMetrics) *ObservableStore[V] {
	return &ObservableStore[V]{store: store, metrics: metrics}
}

func (obs *ObservableStore[V]) Set(ctx context.Context, key string, value V, opts ...SetOption) error {
	start := time.Now()
	err := obs.store.Set(ctx, key, value, opts...)

	status := "success"
	switch {
	case err == ErrConditionFailed:
		status = "conflict"
	case err != nil:
		status = "error"
	}
	obs.observe("set", status, start)
	return err
}

func (obs *ObservableStore[V]) Get(ctx context.Context, key string) (V, error) {
	start := time.Now()
	value, err := obs.store.Get(ctx, key)

	status := "hit"
	switch {
	case err == ErrKeyNotFound:
		status = "miss"
	case err != nil:
		status = "error"
	}
	obs.observe("get", status, start)
	return value, err
}

func (obs *ObservableStore[V]) Close() error {
	return obs.store.Close()
}

func (obs *ObservableStore[V]) observe(operation, status string, start time.Time) {
	obs.metrics.operationCounter.WithLabelValues(operation, status).Inc()
	obs.metrics.operationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}
