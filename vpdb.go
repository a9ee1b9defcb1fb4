package vpdb

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hupe1980/vpdb/blobstore"
	"github.com/hupe1980/vpdb/descriptor"
	"github.com/hupe1980/vpdb/internal/tree"
	"github.com/hupe1980/vpdb/resource"
)

// VerifyReport summarizes a consistency walk over every reachable shard.
type VerifyReport = tree.Report

// DB is an open descriptor index.
//
// Searches may run concurrently with each other and with one writer.
// Writers of one DB are serialized. Two processes writing the same store
// are not coordinated and will lose updates.
type DB struct {
	mu       sync.Mutex // serializes writers
	tree     *tree.Tree
	rc       *resource.Controller
	metrics  MetricsCollector
	logger   *Logger
	workers  int
	progress int
	closed   atomic.Bool
}

// Open opens the index stored in dir, creating the directory if needed.
// An empty index needs no files: the root shard is written by the first
// insert.
func Open(ctx context.Context, dir string, optFns ...Option) (*DB, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	opts := applyOptions(optFns)

	store := opts.store
	if store == nil {
		if dir == "" {
			return nil, errors.New("vpdb: no directory and no store given")
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("vpdb: create index directory: %w", err)
		}
		store = blobstore.NewLocalStore(dir)
	}
	if opts.rc != nil && opts.rc.Config().IOLimitBytesPerSec > 0 {
		store = blobstore.NewThrottled(store, opts.rc)
	}
	// Always wrapped so compressed shards stay readable after compression
	// is switched off. Outside the throttle, the IO limit counts stored bytes.
	store = blobstore.NewCompressed(store, opts.compression)

	treeOpts := []tree.Option{
		tree.WithLogger(opts.logger.Logger),
		tree.WithResources(opts.rc),
		tree.WithObserver(metricsObserver{mc: opts.metricsCollector}),
	}
	if opts.rng != nil {
		treeOpts = append(treeOpts, tree.WithRand(opts.rng))
	}

	t, err := tree.New(store, opts.cfg, treeOpts...)
	if err != nil {
		return nil, translateError(err)
	}

	workers := opts.searchWorkers
	if workers < 1 {
		workers = runtime.GOMAXPROCS(0)
	}

	opts.logger.DebugContext(ctx, "index opened",
		"dir", dir,
		"leaf_capacity", opts.cfg.LeafCapacity,
		"shard_depth", opts.cfg.ShardDepth,
		"exact_pruning", opts.cfg.ExactPruning,
		"compression", opts.compression.String(),
	)

	return &DB{
		tree:     t,
		rc:       opts.rc,
		metrics:  opts.metricsCollector,
		logger:   opts.logger,
		workers:  workers,
		progress: opts.progressInterval,
	}, nil
}

// Insert adds one record. Every shard the insert touches is rewritten
// before Insert returns. Identifiers are not checked for uniqueness.
func (db *DB) Insert(ctx context.Context, rec descriptor.Record) error {
	if db.closed.Load() {
		return ErrClosed
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	start := time.Now()
	err := translateError(db.tree.Insert(ctx, rec))
	db.metrics.RecordInsert(time.Since(start), err)
	db.logger.LogInsert(ctx, rec.ID, err)
	return err
}

// InsertBatch adds records in order. Touched shards stay in memory and are
// written once per flush interval and at the end of the batch.
//
// It returns the number of records that reached the store. On failure the
// records after the last flush are lost; the shards on disk stay
// consistent.
func (db *DB) InsertBatch(ctx context.Context, records []descriptor.Record) (int, error) {
	if db.closed.Load() {
		return 0, ErrClosed
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	start := time.Now()
	persisted, err := db.insertBatch(ctx, records)
	err = translateError(err)

	db.metrics.RecordBatchInsert(len(records), persisted, time.Since(start), err)
	db.logger.LogBatchInsert(ctx, len(records), persisted, err)
	return persisted, err
}

func (db *DB) insertBatch(ctx context.Context, records []descriptor.Record) (int, error) {
	s := db.tree.Begin()
	persisted := 0

	for i, rec := range records {
		if err := ctx.Err(); err != nil {
			s.Abort()
			return persisted, err
		}
		if err := s.Insert(ctx, rec); err != nil {
			s.Abort()
			return persisted, err
		}
		if s.Pending() == 0 {
			persisted = i + 1
		}
		if db.progress > 0 && (i+1)%db.progress == 0 {
			db.logger.LogProgress(ctx, i+1, len(records))
		}
	}

	if err := s.Close(ctx); err != nil {
		return persisted, err
	}
	return len(records), nil
}

// Size returns the number of stored records. It reads every shard.
func (db *DB) Size(ctx context.Context) (uint64, error) {
	if db.closed.Load() {
		return 0, ErrClosed
	}
	n, err := db.tree.Size(ctx)
	return n, translateError(err)
}

// DebugPrint writes an outline of the shard stored under fileName to w.
// Only the base name matters; characters other than the known directions
// are read as unused steps.
func (db *DB) DebugPrint(ctx context.Context, w io.Writer, fileName string) error {
	if db.closed.Load() {
		return ErrClosed
	}
	return translateError(db.tree.Print(ctx, w, fileName))
}

// Verify walks every reachable shard and checks the radius invariant of
// every internal node. Corrupt shards abort the walk with an error.
func (db *DB) Verify(ctx context.Context) (*VerifyReport, error) {
	if db.closed.Load() {
		return nil, ErrClosed
	}
	report, err := db.tree.Verify(ctx)
	err = translateError(err)
	db.logger.LogVerify(ctx, report, err)
	return report, err
}

// Store returns the shard store, including any compression or throttling
// wrappers.
func (db *DB) Store() blobstore.Store {
	return db.tree.Store()
}
