package tree

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hupe1980/vpdb/blobstore"
)

// load reads and decodes the shard at p. An absent or empty blob yields an
// empty leaf. The returned byte count is reserved in the resource
// controller and must be released by the caller.
func (t *Tree) load(ctx context.Context, p Path) (Node, int64, error) {
	name := p.FileName()

	data, err := blobstore.ReadAll(ctx, t.store, name)
	if errors.Is(err, blobstore.ErrNotFound) {
		return &Leaf{}, 0, nil
	}
	if err != nil {
		return nil, 0, fmt.Errorf("shard %s: %w", name, err)
	}
	t.observer.OnShardRead(name, len(data))
	if len(data) == 0 {
		return &Leaf{}, 0, nil
	}

	reserved := int64(len(data))
	if err := t.rc.AcquireMemory(reserved); err != nil {
		return nil, 0, fmt.Errorf("shard %s: %w", name, err)
	}

	node, err := Decode(data)
	if err != nil {
		t.rc.ReleaseMemory(reserved)
		return nil, 0, fmt.Errorf("shard %s: %w", name, err)
	}
	return node, reserved, nil
}

// open makes the shard content resident.
func (t *Tree) open(ctx context.Context, s *Shard) error {
	content, reserved, err := t.load(ctx, s.Path)
	if err != nil {
		return err
	}
	s.content = content
	s.reserved = reserved
	s.dirty = false
	return nil
}

// write atomically replaces the shard blob with the resident content.
func (t *Tree) write(ctx context.Context, s *Shard) error {
	name := s.FileName()
	data := Encode(s.content)

	start := time.Now()
	if err := t.store.Put(ctx, name, data); err != nil {
		return fmt.Errorf("shard %s: %w", name, err)
	}
	elapsed := time.Since(start)

	s.dirty = false
	t.observer.OnShardWrite(name, len(data), elapsed)
	t.logger.Debug("rewrote shard", "shard", name, "bytes", len(data), "duration", elapsed)
	return nil
}

// evict drops the resident content without writing it.
func (t *Tree) evict(s *Shard) {
	t.rc.ReleaseMemory(s.reserved)
	s.content = nil
	s.reserved = 0
	s.dirty = false
}

// flush writes every dirty resident shard under n, children before parents,
// and evicts them.
func (t *Tree) flush(ctx context.Context, n Node) error {
	switch n := n.(type) {
	case *Internal:
		if err := t.flush(ctx, n.Near); err != nil {
			return err
		}
		return t.flush(ctx, n.Far)

	case *Shard:
		if n.content == nil {
			return nil
		}
		if err := t.flush(ctx, n.content); err != nil {
			return err
		}
		if n.dirty {
			if err := t.write(ctx, n); err != nil {
				return err
			}
		}
		t.evict(n)
		return nil

	default:
		return nil
	}
}

// discard evicts every resident shard under n without writing.
func (t *Tree) discard(n Node) {
	switch n := n.(type) {
	case *Internal:
		t.discard(n.Near)
		t.discard(n.Far)
	case *Shard:
		if n.content != nil {
			t.discard(n.content)
			t.evict(n)
		}
	}
}
