package vpdb

import (
	"sync/atomic"
	"time"

	"github.com/hupe1980/vpdb/internal/tree"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems; package
// prommetrics provides a Prometheus implementation.
type MetricsCollector interface {
	// RecordInsert is called after each single insert.
	RecordInsert(duration time.Duration, err error)

	// RecordBatchInsert is called after each batch insert. count is the
	// number of records submitted, persisted the number that reached the
	// store.
	RecordBatchInsert(count, persisted int, duration time.Duration, err error)

	// RecordSearch is called after each search with the number of records
	// the search compared against the target.
	RecordSearch(k int, comparisons uint64, duration time.Duration, err error)

	// RecordShardRead is called for every shard blob loaded.
	RecordShardRead(bytes int)

	// RecordShardWrite is called for every shard blob written.
	RecordShardWrite(bytes int, duration time.Duration)

	// RecordSplit is called when a full leaf becomes an internal node.
	RecordSplit(records int)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordInsert(time.Duration, error)                {}
func (NoopMetricsCollector) RecordBatchInsert(int, int, time.Duration, error) {}
func (NoopMetricsCollector) RecordSearch(int, uint64, time.Duration, error)   {}
func (NoopMetricsCollector) RecordShardRead(int)                              {}
func (NoopMetricsCollector) RecordShardWrite(int, time.Duration)              {}
func (NoopMetricsCollector) RecordSplit(int)                                  {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	InsertCount          atomic.Int64
	InsertErrors         atomic.Int64
	InsertTotalNanos     atomic.Int64
	BatchInsertCount     atomic.Int64
	BatchInsertItems     atomic.Int64
	BatchInsertLost      atomic.Int64
	SearchCount          atomic.Int64
	SearchErrors         atomic.Int64
	SearchTotalNanos     atomic.Int64
	SearchComparisons    atomic.Int64
	ShardReads           atomic.Int64
	ShardReadBytes       atomic.Int64
	ShardWrites          atomic.Int64
	ShardWriteBytes      atomic.Int64
	ShardWriteTotalNanos atomic.Int64
	Splits               atomic.Int64
}

// RecordInsert implements MetricsCollector.
func (b *BasicMetricsCollector) RecordInsert(duration time.Duration, err error) {
	b.InsertCount.Add(1)
	b.InsertTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.InsertErrors.Add(1)
	}
}

// RecordBatchInsert implements MetricsCollector.
func (b *BasicMetricsCollector) RecordBatchInsert(count, persisted int, _ time.Duration, _ error) {
	b.BatchInsertCount.Add(1)
	b.BatchInsertItems.Add(int64(count))
	b.BatchInsertLost.Add(int64(count - persisted))
}

// RecordSearch implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSearch(_ int, comparisons uint64, duration time.Duration, err error) {
	b.SearchCount.Add(1)
	b.SearchTotalNanos.Add(duration.Nanoseconds())
	b.SearchComparisons.Add(int64(comparisons))
	if err != nil {
		b.SearchErrors.Add(1)
	}
}

// RecordShardRead implements MetricsCollector.
func (b *BasicMetricsCollector) RecordShardRead(bytes int) {
	b.ShardReads.Add(1)
	b.ShardReadBytes.Add(int64(bytes))
}

// RecordShardWrite implements MetricsCollector.
func (b *BasicMetricsCollector) RecordShardWrite(bytes int, duration time.Duration) {
	b.ShardWrites.Add(1)
	b.ShardWriteBytes.Add(int64(bytes))
	b.ShardWriteTotalNanos.Add(duration.Nanoseconds())
}

// RecordSplit implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSplit(int) {
	b.Splits.Add(1)
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		InsertCount:       b.InsertCount.Load(),
		InsertErrors:      b.InsertErrors.Load(),
		InsertAvgNanos:    avg(b.InsertTotalNanos.Load(), b.InsertCount.Load()),
		BatchInsertCount:  b.BatchInsertCount.Load(),
		BatchInsertItems:  b.BatchInsertItems.Load(),
		BatchInsertLost:   b.BatchInsertLost.Load(),
		SearchCount:       b.SearchCount.Load(),
		SearchErrors:      b.SearchErrors.Load(),
		SearchAvgNanos:    avg(b.SearchTotalNanos.Load(), b.SearchCount.Load()),
		SearchAvgCompared: avg(b.SearchComparisons.Load(), b.SearchCount.Load()),
		ShardReads:        b.ShardReads.Load(),
		ShardReadBytes:    b.ShardReadBytes.Load(),
		ShardWrites:       b.ShardWrites.Load(),
		ShardWriteBytes:   b.ShardWriteBytes.Load(),
		Splits:            b.Splits.Load(),
	}
}

func avg(total, count int64) int64 {
	if count == 0 {
		return 0
	}
	return total / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	InsertCount       int64
	InsertErrors      int64
	InsertAvgNanos    int64
	BatchInsertCount  int64
	BatchInsertItems  int64
	BatchInsertLost   int64
	SearchCount       int64
	SearchErrors      int64
	SearchAvgNanos    int64
	SearchAvgCompared int64
	ShardReads        int64
	ShardReadBytes    int64
	ShardWrites       int64
	ShardWriteBytes   int64
	Splits            int64
}

// metricsObserver forwards tree events to a MetricsCollector.
type metricsObserver struct {
	mc MetricsCollector
}

func (o metricsObserver) OnShardRead(_ string, bytes int) {
	o.mc.RecordShardRead(bytes)
}

func (o metricsObserver) OnShardWrite(_ string, bytes int, d time.Duration) {
	o.mc.RecordShardWrite(bytes, d)
}

func (o metricsObserver) OnSplit(_ tree.Path, records int) {
	o.mc.RecordSplit(records)
}
