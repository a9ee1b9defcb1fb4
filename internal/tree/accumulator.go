package tree

import (
	"math"

	"github.com/hupe1980/vpdb/descriptor"
	"github.com/hupe1980/vpdb/internal/queue"
)

// Neighbor is a search hit.
type Neighbor struct {
	Record   descriptor.Record
	Distance uint32
}

// Accumulator keeps the k closest records offered during one search.
type Accumulator struct {
	target      descriptor.Descriptor
	k           int
	heap        *queue.PriorityQueue
	comparisons uint64
}

// NewAccumulator returns an empty accumulator for the k nearest neighbors of
// target. k must be positive.
func NewAccumulator(target descriptor.Descriptor, k int) *Accumulator {
	return &Accumulator{
		target: target,
		k:      k,
		heap:   queue.NewMax(k),
	}
}

// Target returns the search target.
func (a *Accumulator) Target() descriptor.Descriptor { return a.target }

// Len returns the number of records currently kept.
func (a *Accumulator) Len() int { return a.heap.Len() }

// Comparisons returns the number of records offered so far.
func (a *Accumulator) Comparisons() uint64 { return a.comparisons }

// Offer considers rec for the result set.
func (a *Accumulator) Offer(rec descriptor.Record) {
	a.comparisons++

	d := descriptor.Distance(a.target, rec.Descriptor)
	if a.heap.Len() < a.k {
		a.heap.PushItem(queue.Item{Record: rec, Distance: d})
		return
	}
	if top, _ := a.heap.TopItem(); d < top.Distance {
		a.heap.ReplaceTop(queue.Item{Record: rec, Distance: d})
	}
}

// WorstDistance returns the largest kept distance once k records are held,
// and math.MaxUint32 before that. Nothing can be pruned against a partial
// result set.
func (a *Accumulator) WorstDistance() uint32 {
	if a.heap.Len() < a.k {
		return math.MaxUint32
	}
	top, _ := a.heap.TopItem()
	return top.Distance
}

// Drain empties the accumulator and returns the kept records ordered by
// ascending distance along with the comparison count.
func (a *Accumulator) Drain() ([]Neighbor, uint64) {
	items := a.heap.DrainAscending()
	out := make([]Neighbor, len(items))
	for i, it := range items {
		out[i] = Neighbor{Record: it.Record, Distance: it.Distance}
	}
	return out, a.comparisons
}

// canSkip decides whether the secondary child of an internal node can be
// skipped. worst is the accumulator bound, d the target's distance to the
// vantage and r the radius, all squared distances.
//
// The default test applies the triangle inequality to squared distances
// directly. exact applies it to the Euclidean distances instead:
//
//	near side: sqrt(w) + sqrt(d) <  sqrt(r)
//	far side:  sqrt(r) + sqrt(w) <= sqrt(d)
//
// squared out in 64-bit integers, so no record that could enter the result
// set is ever skipped.
func canSkip(isNear bool, worst, d, r uint32, exact bool) bool {
	if worst == math.MaxUint32 {
		return false
	}
	w, dd, rr := int64(worst), int64(d), int64(r)

	if !exact {
		if isNear {
			return w+dd < rr
		}
		return rr+w <= dd
	}

	if isNear {
		gap := rr - w - dd
		return gap > 0 && 4*w*dd < gap*gap
	}
	gap := dd - rr - w
	return gap >= 0 && 4*rr*w <= gap*gap
}
