package vpdb

import (
	"context"
	"math"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/vpdb/descriptor"
	"github.com/hupe1980/vpdb/internal/tree"
)

// NoMatchID and NoMatchDistance form the neighbour Best reports for an
// empty index.
const (
	NoMatchID       = math.MaxUint64
	NoMatchDistance = math.MaxUint32
)

// Neighbor is one search hit.
type Neighbor struct {
	ID       uint64
	Distance uint32
}

// SearchResult holds the neighbours of one query, nearest first.
type SearchResult struct {
	// Comparisons is the number of stored records the search compared
	// against the target.
	Comparisons uint64
	Neighbors   []Neighbor
}

// Best returns the nearest neighbour. For an empty result it returns the
// no-match neighbour and false.
func (r *SearchResult) Best() (Neighbor, bool) {
	if r == nil || len(r.Neighbors) == 0 {
		return Neighbor{ID: NoMatchID, Distance: NoMatchDistance}, false
	}
	return r.Neighbors[0], true
}

// IDs returns the neighbour identifiers in result order.
func (r *SearchResult) IDs() []uint64 {
	ids := make([]uint64, len(r.Neighbors))
	for i, n := range r.Neighbors {
		ids[i] = n.ID
	}
	return ids
}

// Search returns up to k records nearest to target. k above MaxK is
// clamped.
func (db *DB) Search(ctx context.Context, target descriptor.Descriptor, k int) (*SearchResult, error) {
	if db.closed.Load() {
		return nil, ErrClosed
	}
	k, err := clampK(k)
	if err != nil {
		return nil, err
	}
	return db.search(ctx, target, k)
}

// SearchBatch runs one search per target in parallel and returns the
// results in target order. The first failing search cancels the others.
func (db *DB) SearchBatch(ctx context.Context, targets []descriptor.Descriptor, k int) ([]*SearchResult, error) {
	if db.closed.Load() {
		return nil, ErrClosed
	}
	k, err := clampK(k)
	if err != nil {
		return nil, err
	}

	results := make([]*SearchResult, len(targets))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(db.workers)
	for i, target := range targets {
		g.Go(func() error {
			if err := db.rc.AcquireWorker(gctx); err != nil {
				return err
			}
			defer db.rc.ReleaseWorker()

			res, err := db.search(gctx, target, k)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (db *DB) search(ctx context.Context, target descriptor.Descriptor, k int) (*SearchResult, error) {
	start := time.Now()
	found, comparisons, err := db.tree.Search(ctx, target, k)
	err = translateError(err)

	db.metrics.RecordSearch(k, comparisons, time.Since(start), err)
	db.logger.LogSearch(ctx, k, len(found), comparisons, err)
	if err != nil {
		return nil, err
	}
	return newSearchResult(found, comparisons), nil
}

func newSearchResult(found []tree.Neighbor, comparisons uint64) *SearchResult {
	res := &SearchResult{
		Comparisons: comparisons,
		Neighbors:   make([]Neighbor, len(found)),
	}
	for i, n := range found {
		res.Neighbors[i] = Neighbor{ID: n.Record.ID, Distance: n.Distance}
	}
	return res
}

func clampK(k int) (int, error) {
	if k <= 0 {
		return 0, ErrInvalidK
	}
	return min(k, MaxK), nil
}
