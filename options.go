package vpdb

import (
	"log/slog"
	"math/rand/v2"

	"github.com/hupe1980/vpdb/blobstore"
	"github.com/hupe1980/vpdb/internal/tree"
	"github.com/hupe1980/vpdb/resource"
)

const (
	// DefaultLeafCapacity is the number of records a leaf holds before it
	// splits.
	DefaultLeafCapacity = tree.DefaultLeafCapacity
	// DefaultShardDepth is the number of logical levels stored per shard.
	DefaultShardDepth = tree.DefaultShardDepth
	// DefaultK is the neighbour count used by the CLI when none is given.
	DefaultK = 100
	// MaxK is the largest neighbour count a search returns.
	MaxK = 1000
	// DefaultProgressInterval is the number of records between InsertBatch
	// progress log lines.
	DefaultProgressInterval = 1_000_000
)

type options struct {
	cfg              tree.Config
	rng              *rand.Rand
	store            blobstore.Store
	compression      blobstore.Compression
	rc               *resource.Controller
	searchWorkers    int
	metricsCollector MetricsCollector
	logger           *Logger
	progressInterval int
}

// Option configures Open.
type Option func(*options)

// WithLeafCapacity sets the number of records a leaf holds before it
// splits.
func WithLeafCapacity(n int) Option {
	return func(o *options) {
		o.cfg.LeafCapacity = n
	}
}

// WithShardDepth sets the number of logical tree levels stored per shard
// blob. Smaller values mean more, smaller shards.
func WithShardDepth(n int) Option {
	return func(o *options) {
		o.cfg.ShardDepth = n
	}
}

// WithFlushEvery sets how many records InsertBatch buffers between shard
// writes. Zero writes only once at the end of the batch.
func WithFlushEvery(n int) Option {
	return func(o *options) {
		o.cfg.FlushEvery = n
	}
}

// WithExactPruning makes searches prune with the triangle inequality on
// Euclidean distances. Results then always equal an exhaustive scan, at the
// cost of visiting more of the tree.
func WithExactPruning(enabled bool) Option {
	return func(o *options) {
		o.cfg.ExactPruning = enabled
	}
}

// WithSeed seeds the random source used to pick split vantage points.
// Identical seeds and insertion orders produce identical shards.
func WithSeed(seed uint64) Option {
	return func(o *options) {
		o.rng = rand.New(rand.NewPCG(seed, seed))
	}
}

// WithRand sets the random source used to pick split vantage points.
func WithRand(r *rand.Rand) Option {
	return func(o *options) {
		o.rng = r
	}
}

// WithStore replaces the local shard directory with s. The dir argument
// of Open is ignored.
func WithStore(s blobstore.Store) Option {
	return func(o *options) {
		o.store = s
	}
}

// WithCompression compresses shard blobs on write. Uncompressed shards
// written earlier stay readable.
func WithCompression(c blobstore.Compression) Option {
	return func(o *options) {
		o.compression = c
	}
}

// WithResourceController bounds resident shard memory, search parallelism
// and shard write bandwidth.
//
// Example:
//
//	rc := resource.NewController(resource.Config{
//	    MemoryLimitBytes:   512 << 20,
//	    MaxSearchWorkers:   8,
//	    IOLimitBytesPerSec: 64 << 20,
//	})
//	db, _ := vpdb.Open(ctx, "./index", vpdb.WithResourceController(rc))
func WithResourceController(rc *resource.Controller) Option {
	return func(o *options) {
		o.rc = rc
	}
}

// WithSearchWorkers sets how many queries SearchBatch runs at once.
// Values below 1 mean GOMAXPROCS.
func WithSearchWorkers(n int) Option {
	return func(o *options) {
		o.searchWorkers = n
	}
}

// WithMetricsCollector configures a metrics collector for monitoring operations.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &vpdb.BasicMetricsCollector{}
//	db, _ := vpdb.Open(ctx, "./index", vpdb.WithMetricsCollector(metrics))
//	// ... use db ...
//	stats := metrics.GetStats()
//	fmt.Printf("Searches: %d, avg compared: %d\n", stats.SearchCount, stats.SearchAvgCompared)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := vpdb.NewJSONLogger(slog.LevelInfo)
//	db, _ := vpdb.Open(ctx, "./index", vpdb.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithProgressInterval sets how often InsertBatch logs its progress.
// Values below 1 disable progress logging.
func WithProgressInterval(n int) Option {
	return func(o *options) {
		o.progressInterval = n
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		cfg:              tree.DefaultConfig(),
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
		progressInterval: DefaultProgressInterval,
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}
