package tree

import (
	"context"
	"errors"

	"github.com/hupe1980/vpdb/descriptor"
)

// ErrSessionClosed is returned by a Session after Close.
var ErrSessionClosed = errors.New("tree: session closed")

// Session batches inserts. Shards touched by a session stay resident and
// are written once per flush instead of once per insert. Until a flush,
// concurrent readers see the state of the last flush.
//
// A Session is not safe for concurrent use, and no other writer may touch
// the tree while it is open.
type Session struct {
	t       *Tree
	root    *Shard
	pending int
	closed  bool
}

// Begin opens a batch insert session.
func (t *Tree) Begin() *Session {
	return &Session{t: t, root: t.Root()}
}

// Insert adds rec. The session flushes on its own every Config.FlushEvery
// inserts.
func (s *Session) Insert(ctx context.Context, rec descriptor.Record) error {
	if s.closed {
		return ErrSessionClosed
	}

	w := &writer{t: s.t, ctx: ctx}
	var root Node = s.root
	if _, err := w.insert(&root, rec, nil); err != nil {
		// Resident shards may be half-updated; drop them so the store keeps
		// the last flushed state.
		s.t.discard(s.root)
		s.pending = 0
		return err
	}

	s.pending++
	if every := s.t.cfg.FlushEvery; every > 0 && s.pending >= every {
		return s.Flush(ctx)
	}
	return nil
}

// Pending returns the number of inserts since the last flush.
func (s *Session) Pending() int { return s.pending }

// Flush writes all dirty shards and releases their memory.
func (s *Session) Flush(ctx context.Context) error {
	if s.closed {
		return ErrSessionClosed
	}
	if err := s.t.flush(ctx, s.root); err != nil {
		s.t.discard(s.root)
		s.pending = 0
		return err
	}
	s.pending = 0
	return nil
}

// Close flushes the session. Closing twice is a no-op.
func (s *Session) Close(ctx context.Context) error {
	if s.closed {
		return nil
	}
	err := s.Flush(ctx)
	s.closed = true
	return err
}

// Abort drops all unflushed inserts.
func (s *Session) Abort() {
	if s.closed {
		return
	}
	s.t.discard(s.root)
	s.pending = 0
	s.closed = true
}
