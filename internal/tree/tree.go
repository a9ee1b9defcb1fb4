package tree

import (
	"context"
	"io"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/hupe1980/vpdb/blobstore"
	"github.com/hupe1980/vpdb/descriptor"
	"github.com/hupe1980/vpdb/resource"
)

// Observer receives shard-level events.
type Observer interface {
	OnShardRead(name string, bytes int)
	OnShardWrite(name string, bytes int, duration time.Duration)
	OnSplit(path Path, records int)
}

type noopObserver struct{}

func (noopObserver) OnShardRead(string, int)                 {}
func (noopObserver) OnShardWrite(string, int, time.Duration) {}
func (noopObserver) OnSplit(Path, int)                       {}

// Option configures a Tree.
type Option func(*Tree)

// WithRand sets the random source used to pick vantage points.
func WithRand(r *rand.Rand) Option {
	return func(t *Tree) { t.rng = r }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(t *Tree) { t.logger = l }
}

// WithResources sets the controller that accounts resident shard memory.
func WithResources(rc *resource.Controller) Option {
	return func(t *Tree) { t.rc = rc }
}

// WithObserver sets the shard event observer.
func WithObserver(o Observer) Option {
	return func(t *Tree) { t.observer = o }
}

// Tree is a vantage-point tree persisted in a blob store.
type Tree struct {
	cfg      Config
	store    blobstore.Store
	rng      *rand.Rand
	logger   *slog.Logger
	rc       *resource.Controller
	observer Observer
}

// New creates a tree over store. No blob is touched until the first insert
// or search.
func New(store blobstore.Store, cfg Config, opts ...Option) (*Tree, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	t := &Tree{
		cfg:      cfg,
		store:    store,
		observer: noopObserver{},
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.rng == nil {
		t.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if t.logger == nil {
		t.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return t, nil
}

// Config returns the tree configuration.
func (t *Tree) Config() Config { return t.cfg }

// Store returns the backing store.
func (t *Tree) Store() blobstore.Store { return t.store }

// Root returns a fresh reference to the root shard.
func (t *Tree) Root() *Shard {
	return NewShard(RootPath())
}

// Insert adds rec to the tree. Every shard the insert changes is rewritten
// exactly once, children before parents, before Insert returns.
func (t *Tree) Insert(ctx context.Context, rec descriptor.Record) error {
	w := &writer{t: t, ctx: ctx}
	root := t.Root()
	var slot Node = root
	if _, err := w.insert(&slot, rec, nil); err != nil {
		t.discard(root)
		return err
	}
	if err := t.flush(ctx, root); err != nil {
		t.discard(root)
		return err
	}
	return nil
}

// Search returns the k nearest records to target, ascending by distance,
// and the number of records compared. An empty tree yields no neighbors.
func (t *Tree) Search(ctx context.Context, target descriptor.Descriptor, k int) ([]Neighbor, uint64, error) {
	acc := NewAccumulator(target, k)
	if err := t.SearchInto(ctx, acc); err != nil {
		return nil, 0, err
	}
	neighbors, comparisons := acc.Drain()
	return neighbors, comparisons, nil
}

// SearchInto runs a search from the root into acc.
func (t *Tree) SearchInto(ctx context.Context, acc *Accumulator) error {
	return t.search(ctx, t.Root(), acc)
}

func (t *Tree) search(ctx context.Context, n Node, acc *Accumulator) error {
	switch n := n.(type) {
	case *Leaf:
		for _, rec := range n.Records {
			acc.Offer(rec)
		}
		return nil

	case *Internal:
		d := descriptor.Distance(acc.Target(), n.Vantage)
		isNear := d < n.Radius

		primary, secondary := n.Far, n.Near
		if isNear {
			primary, secondary = n.Near, n.Far
		}
		if err := t.search(ctx, primary, acc); err != nil {
			return err
		}
		if canSkip(isNear, acc.WorstDistance(), d, n.Radius, t.cfg.ExactPruning) {
			return nil
		}
		return t.search(ctx, secondary, acc)

	case *Shard:
		if n.content != nil {
			return t.search(ctx, n.content, acc)
		}
		content, reserved, err := t.load(ctx, n.Path)
		if err != nil {
			return err
		}
		defer t.rc.ReleaseMemory(reserved)
		return t.search(ctx, content, acc)

	default:
		return corrupt(0, "unknown node type %T", n)
	}
}

// Size counts the records stored under the root.
func (t *Tree) Size(ctx context.Context) (uint64, error) {
	return t.size(ctx, t.Root())
}

func (t *Tree) size(ctx context.Context, n Node) (uint64, error) {
	switch n := n.(type) {
	case *Leaf:
		return uint64(len(n.Records)), nil

	case *Internal:
		near, err := t.size(ctx, n.Near)
		if err != nil {
			return 0, err
		}
		far, err := t.size(ctx, n.Far)
		if err != nil {
			return 0, err
		}
		return near + far, nil

	case *Shard:
		if n.content != nil {
			return t.size(ctx, n.content)
		}
		content, reserved, err := t.load(ctx, n.Path)
		if err != nil {
			return 0, err
		}
		defer t.rc.ReleaseMemory(reserved)
		return t.size(ctx, content)

	default:
		return 0, corrupt(0, "unknown node type %T", n)
	}
}
