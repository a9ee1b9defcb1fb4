package prommetrics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/vpdb"
	"github.com/hupe1980/vpdb/blobstore"
	"github.com/hupe1980/vpdb/descriptor"
)

func TestCollector(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(reg)

	c.RecordInsert(time.Millisecond, nil)
	c.RecordInsert(time.Millisecond, errors.New("boom"))
	c.RecordBatchInsert(10, 6, time.Second, errors.New("boom"))
	c.RecordShardRead(100)
	c.RecordShardWrite(40, time.Millisecond)
	c.RecordSplit(9)

	assert.Equal(t, 3, testutil.CollectAndCount(c.opLatency))
	assert.InDelta(t, 6, testutil.ToFloat64(c.batchItems.WithLabelValues("persisted")), 0)
	assert.InDelta(t, 4, testutil.ToFloat64(c.batchItems.WithLabelValues("lost")), 0)
	assert.InDelta(t, 100, testutil.ToFloat64(c.shardBytes.WithLabelValues("read")), 0)
	assert.InDelta(t, 40, testutil.ToFloat64(c.shardBytes.WithLabelValues("write")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(c.splits), 0)

	assert.Panics(t, func() { New(reg) })
}

func TestCollectorWithDB(t *testing.T) {
	ctx := context.Background()
	reg := prometheus.NewRegistry()
	c := New(reg)

	db, err := vpdb.Open(ctx, "",
		vpdb.WithStore(blobstore.NewMemoryStore()),
		vpdb.WithMetricsCollector(c),
	)
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.Insert(ctx, descriptor.Record{ID: 1}))
	_, err = db.Search(ctx, descriptor.Descriptor{}, 1)
	require.NoError(t, err)

	assert.Positive(t, testutil.ToFloat64(c.shardBytes.WithLabelValues("write")))
	assert.Positive(t, testutil.ToFloat64(c.shardBytes.WithLabelValues("read")))

	n, err := testutil.GatherAndCount(reg, "vpdb_operation_latency_seconds")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}
