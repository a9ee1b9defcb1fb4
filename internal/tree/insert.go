package tree

import (
	"context"
	"slices"

	"github.com/hupe1980/vpdb/descriptor"
)

// maxVantageAttempts bounds how many edge points a split tries before it
// gives up and lets the leaf overflow.
const maxVantageAttempts = 8

// writer carries one mutating traversal. Touched shards stay resident and
// dirty until the caller flushes the root, so each is written at most once
// per flush.
type writer struct {
	t   *Tree
	ctx context.Context
}

// insert adds rec to the node in slot, replacing the node in place when a
// leaf grows into a shard or an internal node. It reports whether the
// encoding of the slot changed.
func (w *writer) insert(slot *Node, rec descriptor.Record, path Path) (bool, error) {
	switch n := (*slot).(type) {
	case *Leaf:
		if path.AtShardBoundary(w.t.cfg.ShardDepth) {
			w.t.logger.Debug("forking shard", "path", path.String())
			*slot = newForkedShard(path)
			for _, old := range n.Records {
				if _, err := w.insert(slot, old, path); err != nil {
					return true, err
				}
			}
			_, err := w.insert(slot, rec, path)
			return true, err
		}

		if len(n.Records)+1 > w.t.cfg.LeafCapacity {
			if split, err := w.split(n, rec, path); err != nil {
				return true, err
			} else if split != nil {
				*slot = split
				_, err := w.insert(slot, rec, path)
				return true, err
			}
		}

		n.Records = append(n.Records, rec)
		return true, nil

	case *Internal:
		if descriptor.Distance(rec.Descriptor, n.Vantage) < n.Radius {
			return w.insert(&n.Near, rec, path.Append(Near))
		}
		return w.insert(&n.Far, rec, path.Append(Far))

	case *Shard:
		return false, w.insertShard(n, rec, path)

	default:
		return false, corrupt(0, "unknown node type %T", n)
	}
}

// insertShard delegates to the shard content. The parent never observes a
// change: the shard reference itself stays the same.
func (w *writer) insertShard(s *Shard, rec descriptor.Record, path Path) error {
	if s.content == nil {
		if err := w.t.open(w.ctx, s); err != nil {
			return err
		}
	}

	changed, err := w.insert(&s.content, rec, path.Append(ShardMark))
	if changed {
		s.dirty = true
	}
	return err
}

// newForkedShard returns a resident, empty shard for a leaf that crossed a
// shard boundary. The store is not consulted: a blob already at that path
// can only be left over from a failed write and is overwritten on flush.
func newForkedShard(path Path) *Shard {
	s := NewShard(path)
	s.content = &Leaf{}
	s.dirty = true
	return s
}

// split rebuilds a full leaf as an internal node around a random edge
// vantage and the median distance. The vantage is chosen over the leaf
// records plus incoming, but only the leaf records are moved; the caller
// inserts incoming afterwards. It returns nil when no vantage separates the
// candidates, e.g. when all descriptors are identical.
func (w *writer) split(leaf *Leaf, incoming descriptor.Record, path Path) (Node, error) {
	candidates := append(leaf.Records[:len(leaf.Records):len(leaf.Records)], incoming)
	vantage, radius, ok := w.chooseSplit(candidates)
	if !ok {
		w.t.logger.Debug("leaf cannot be split, overflowing",
			"path", path.String(),
			"records", len(leaf.Records),
		)
		return nil, nil
	}

	w.t.logger.Debug("splitting leaf",
		"path", path.String(),
		"records", len(leaf.Records),
		"radius", radius,
	)
	w.t.observer.OnSplit(path, len(leaf.Records))

	var node Node = &Internal{
		Vantage: vantage,
		Radius:  radius,
		Near:    &Leaf{},
		Far:     &Leaf{},
	}
	records := leaf.Records
	leaf.Records = nil
	for _, rec := range records {
		if _, err := w.insert(&node, rec, path); err != nil {
			return nil, err
		}
	}
	return node, nil
}

func (w *writer) chooseSplit(records []descriptor.Record) (descriptor.Descriptor, uint32, bool) {
	if allIdentical(records) {
		return descriptor.Descriptor{}, 0, false
	}

	dists := make([]uint32, len(records))
	for attempt := 0; attempt < maxVantageAttempts; attempt++ {
		vantage := descriptor.RandomEdge(w.t.rng)
		for i, rec := range records {
			dists[i] = descriptor.Distance(rec.Descriptor, vantage)
		}
		slices.Sort(dists)

		radius := dists[len(dists)/2]
		if radius == dists[0] {
			// The median equals the minimum, so nothing would fall below it.
			// Use the smallest distance above the minimum instead.
			i, _ := slices.BinarySearch(dists, dists[0]+1)
			if i == len(dists) {
				continue
			}
			radius = dists[i]
		}
		return vantage, radius, true
	}
	return descriptor.Descriptor{}, 0, false
}

func allIdentical(records []descriptor.Record) bool {
	for _, rec := range records[1:] {
		if rec.Descriptor != records[0].Descriptor {
			return false
		}
	}
	return true
}
