package tree

import (
	"context"
	"fmt"
	"strings"

	"github.com/RoaringBitmap/roaring/v2/roaring64"

	"github.com/hupe1980/vpdb/descriptor"
)

// maxReportedViolations caps Report.Violations; Report.ViolationCount keeps
// the full number.
const maxReportedViolations = 100

// Report summarizes a full walk of the tree.
type Report struct {
	Shards       int
	Internals    int
	Leaves       int
	Records      uint64
	MaxDepth     int
	DistinctIDs  uint64
	DuplicateIDs uint64
	// OrphanShards lists shard blobs no reachable shard references, e.g.
	// leftovers of a write that failed before its parent was saved.
	OrphanShards   []string
	ViolationCount int
	Violations     []string
}

// OK reports whether the walk found no invariant violations.
func (r *Report) OK() bool { return r.ViolationCount == 0 }

type bound struct {
	vantage descriptor.Descriptor
	radius  uint32
	near    bool
}

type verifier struct {
	t       *Tree
	report  *Report
	ids     *roaring64.Bitmap
	visited map[string]struct{}
}

// Verify walks every reachable shard, decoding each blob and checking that
// every record lies on the correct side of every internal node above it.
// Decoding failures abort the walk; invariant violations are collected.
func (t *Tree) Verify(ctx context.Context) (*Report, error) {
	v := &verifier{
		t:       t,
		report:  &Report{},
		ids:     roaring64.New(),
		visited: make(map[string]struct{}),
	}
	if err := v.walk(ctx, t.Root(), nil, nil); err != nil {
		return nil, err
	}
	v.report.DistinctIDs = v.ids.GetCardinality()

	names, err := t.store.List(ctx, fileNamePrefix)
	if err != nil {
		return nil, fmt.Errorf("list shards: %w", err)
	}
	for _, name := range names {
		if !strings.HasSuffix(name, fileNameSuffix) {
			continue
		}
		if _, ok := v.visited[name]; !ok {
			v.report.OrphanShards = append(v.report.OrphanShards, name)
		}
	}
	return v.report, nil
}

func (v *verifier) walk(ctx context.Context, n Node, path Path, bounds []bound) error {
	switch n := n.(type) {
	case *Leaf:
		v.report.Leaves++
		v.report.MaxDepth = max(v.report.MaxDepth, path.Depth())
		for _, rec := range n.Records {
			v.report.Records++
			if v.ids.Contains(rec.ID) {
				v.report.DuplicateIDs++
			} else {
				v.ids.Add(rec.ID)
			}
			v.check(rec, path, bounds)
		}
		return nil

	case *Internal:
		v.report.Internals++
		near := append(bounds[:len(bounds):len(bounds)], bound{vantage: n.Vantage, radius: n.Radius, near: true})
		if err := v.walk(ctx, n.Near, path.Append(Near), near); err != nil {
			return err
		}
		far := append(bounds[:len(bounds):len(bounds)], bound{vantage: n.Vantage, radius: n.Radius, near: false})
		return v.walk(ctx, n.Far, path.Append(Far), far)

	case *Shard:
		name := n.FileName()
		if _, seen := v.visited[name]; seen {
			v.violation("shard %s referenced twice", name)
			return nil
		}
		v.visited[name] = struct{}{}
		v.report.Shards++

		content, reserved, err := v.t.load(ctx, n.Path)
		if err != nil {
			return err
		}
		defer v.t.rc.ReleaseMemory(reserved)
		return v.walk(ctx, content, path.Append(ShardMark), bounds)

	default:
		return corrupt(0, "unknown node type %T", n)
	}
}

func (v *verifier) check(rec descriptor.Record, path Path, bounds []bound) {
	for _, b := range bounds {
		d := descriptor.Distance(rec.Descriptor, b.vantage)
		if b.near && d >= b.radius {
			v.violation("record %d at %q: distance %d to vantage not below radius %d", rec.ID, path.String(), d, b.radius)
		} else if !b.near && d < b.radius {
			v.violation("record %d at %q: distance %d to vantage below radius %d", rec.ID, path.String(), d, b.radius)
		}
	}
}

func (v *verifier) violation(format string, args ...any) {
	v.report.ViolationCount++
	if len(v.report.Violations) < maxReportedViolations {
		v.report.Violations = append(v.report.Violations, fmt.Sprintf(format, args...))
	}
}
