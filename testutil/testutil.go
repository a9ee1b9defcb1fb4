package testutil

import (
	"math/rand/v2"
	"sort"
	"sync"

	"github.com/hupe1980/vpdb/descriptor"
)

// SearchResult represents a search result.
type SearchResult struct {
	ID       uint64
	Distance uint32
}

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	src  *rand.PCG
	rand *rand.Rand
	seed uint64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed uint64) *RNG {
	src := rand.NewPCG(seed, seed)
	return &RNG{
		src:  src,
		rand: rand.New(src),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.src.Seed(r.seed, r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() uint64 {
	return r.seed
}

// Rand returns an independent generator derived from this RNG, for APIs
// that take a *rand.Rand. The result is not thread-safe.
func (r *RNG) Rand() *rand.Rand {
	r.mu.Lock()
	defer r.mu.Unlock()
	return rand.New(rand.NewPCG(r.rand.Uint64(), r.rand.Uint64()))
}

// IntN returns a non-negative pseudo-random number in [0,n).
func (r *RNG) IntN(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.IntN(n)
}

// Descriptor returns a uniformly random descriptor.
func (r *RNG) Descriptor() descriptor.Descriptor {
	r.mu.Lock()
	defer r.mu.Unlock()
	return descriptor.Random(r.rand)
}

// Records returns n records with consecutive IDs starting at startID and
// uniformly random descriptors.
func (r *RNG) Records(n int, startID uint64) []descriptor.Record {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]descriptor.Record, n)
	for i := range out {
		out[i] = descriptor.Record{ID: startID + uint64(i), Descriptor: descriptor.Random(r.rand)}
	}
	return out
}

// ClusteredRecords returns n records grouped around the given number of
// random centers. Each byte deviates from its center by at most spread,
// which mimics near-duplicate image features.
func (r *RNG) ClusteredRecords(n, clusters int, spread uint8, startID uint64) []descriptor.Record {
	r.mu.Lock()
	defer r.mu.Unlock()

	centers := make([]descriptor.Descriptor, clusters)
	for i := range centers {
		centers[i] = descriptor.Random(r.rand)
	}

	out := make([]descriptor.Record, n)
	for i := range out {
		d := centers[r.rand.IntN(clusters)]
		for j := range d {
			delta := r.rand.IntN(2*int(spread)+1) - int(spread)
			d[j] = byte(min(255, max(0, int(d[j])+delta)))
		}
		out[i] = descriptor.Record{ID: startID + uint64(i), Descriptor: d}
	}
	return out
}

// ExactTopK scans records exhaustively and returns the k nearest to target,
// ascending by distance. Ties are broken by ID.
func ExactTopK(target descriptor.Descriptor, records []descriptor.Record, k int) []SearchResult {
	all := make([]SearchResult, len(records))
	for i, rec := range records {
		all[i] = SearchResult{ID: rec.ID, Distance: descriptor.Distance(target, rec.Descriptor)}
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].Distance != all[j].Distance {
			return all[i].Distance < all[j].Distance
		}
		return all[i].ID < all[j].ID
	})
	if k < len(all) {
		all = all[:k]
	}
	return all
}

// Distances projects results onto their distances.
func Distances(results []SearchResult) []uint32 {
	out := make([]uint32, len(results))
	for i, r := range results {
		out[i] = r.Distance
	}
	return out
}

// ComputeRecall returns the fraction of ground-truth IDs present in the
// approximate results.
func ComputeRecall(groundTruth, approximate []SearchResult) float64 {
	if len(groundTruth) == 0 {
		return 1
	}
	found := make(map[uint64]struct{}, len(approximate))
	for _, r := range approximate {
		found[r.ID] = struct{}{}
	}
	hits := 0
	for _, r := range groundTruth {
		if _, ok := found[r.ID]; ok {
			hits++
		}
	}
	return float64(hits) / float64(len(groundTruth))
}
