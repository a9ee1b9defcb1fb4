// Package prommetrics exports vpdb operation metrics to Prometheus.
//
//	reg := prometheus.NewRegistry()
//	db, _ := vpdb.Open(ctx, "./index", vpdb.WithMetricsCollector(prommetrics.New(reg)))
//	http.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
package prommetrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/hupe1980/vpdb"
)

const namespace = "vpdb"

// Collector implements vpdb.MetricsCollector with Prometheus metrics.
type Collector struct {
	opLatency   *prometheus.HistogramVec
	comparisons prometheus.Histogram
	batchItems  *prometheus.CounterVec
	shardBytes  *prometheus.CounterVec
	shardWrites prometheus.Histogram
	splits      prometheus.Counter
}

var _ vpdb.MetricsCollector = (*Collector)(nil)

// New registers the vpdb metrics with reg. A nil reg means the default
// registerer. Registering twice on one registerer panics.
func New(reg prometheus.Registerer) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)

	return &Collector{
		opLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_latency_seconds",
			Help:      "Latency of index operations",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op", "status"}),
		comparisons: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_comparisons",
			Help:      "Stored records compared per search",
			Buckets:   prometheus.ExponentialBuckets(16, 4, 10),
		}),
		batchItems: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batch_records_total",
			Help:      "Records submitted through batch inserts by outcome",
		}, []string{"outcome"}),
		shardBytes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "shard",
			Name:      "bytes_total",
			Help:      "Shard blob bytes read and written",
		}, []string{"direction"}),
		shardWrites: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "shard",
			Name:      "write_seconds",
			Help:      "Latency of atomic shard rewrites",
			Buckets:   prometheus.DefBuckets,
		}),
		splits: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "leaf_splits_total",
			Help:      "Full leaves rebuilt as internal nodes",
		}),
	}
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// RecordInsert implements vpdb.MetricsCollector.
func (c *Collector) RecordInsert(d time.Duration, err error) {
	c.opLatency.WithLabelValues("insert", status(err)).Observe(d.Seconds())
}

// RecordBatchInsert implements vpdb.MetricsCollector.
func (c *Collector) RecordBatchInsert(count, persisted int, d time.Duration, err error) {
	c.opLatency.WithLabelValues("insert_batch", status(err)).Observe(d.Seconds())
	c.batchItems.WithLabelValues("persisted").Add(float64(persisted))
	if lost := count - persisted; lost > 0 {
		c.batchItems.WithLabelValues("lost").Add(float64(lost))
	}
}

// RecordSearch implements vpdb.MetricsCollector.
func (c *Collector) RecordSearch(_ int, comparisons uint64, d time.Duration, err error) {
	c.opLatency.WithLabelValues("search", status(err)).Observe(d.Seconds())
	if err == nil {
		c.comparisons.Observe(float64(comparisons))
	}
}

// RecordShardRead implements vpdb.MetricsCollector.
func (c *Collector) RecordShardRead(bytes int) {
	c.shardBytes.WithLabelValues("read").Add(float64(bytes))
}

// RecordShardWrite implements vpdb.MetricsCollector.
func (c *Collector) RecordShardWrite(bytes int, d time.Duration) {
	c.shardBytes.WithLabelValues("write").Add(float64(bytes))
	c.shardWrites.Observe(d.Seconds())
}

// RecordSplit implements vpdb.MetricsCollector.
func (c *Collector) RecordSplit(int) {
	c.splits.Inc()
}
