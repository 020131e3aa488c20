package objectclient

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/markdave123-py/storagegate/internal/core"
)

var (
	storageOperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storagegate_storage_operations_total",
			Help: "Total number of object storage calls by result.",
		},
		[]string{"backend", "op", "result"},
	)

	storageOperationDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "storagegate_storage_operation_duration_seconds",
			Help:    "Object storage call latency.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"backend", "op"},
	)
)

func init() {
	prometheus.MustRegister(storageOperationsTotal, storageOperationDurationSeconds)
}

// InstrumentedClient records a counter and a latency sample for every call
// made through the wrapped client.
type InstrumentedClient struct {
	next    core.ObjectClient
	backend string
}

func Instrument(backend string, next core.ObjectClient) *InstrumentedClient {
	return &InstrumentedClient{next: next, backend: backend}
}

func (c *InstrumentedClient) UploadFile(ctx context.Context, key string, data []byte, opts core.PutOptions) (string, error) {
	start := time.Now()
	url, err := c.next.UploadFile(ctx, key, data, opts)
	c.observe("put", start, err)
	return url, err
}

func (c *InstrumentedClient) GetFile(ctx context.Context, key string) ([]byte, error) {
	start := time.Now()
	data, err := c.next.GetFile(ctx, key)
	c.observe("get", start, err)
	return data, err
}

func (c *InstrumentedClient) DeleteFile(ctx context.Context, key string) error {
	start := time.Now()
	err := c.next.DeleteFile(ctx, key)
	c.observe("delete", start, err)
	return err
}

func (c *InstrumentedClient) ObjectURL(key string) string {
	return c.next.ObjectURL(key)
}

func (c *InstrumentedClient) Ping(ctx context.Context) error {
	start := time.Now()
	err := c.next.Ping(ctx)
	c.observe("ping", start, err)
	return err
}

func (c *InstrumentedClient) observe(op string, start time.Time, err error) {
	result := "ok"
	if err != nil {
		result = core.KindOf(err).String()
	}
	storageOperationsTotal.WithLabelValues(c.backend, op, result).Inc()
	storageOperationDurationSeconds.WithLabelValues(c.backend, op).Observe(time.Since(start).Seconds())
}
