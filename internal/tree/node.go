package tree

import "github.com/hupe1980/vpdb/descriptor"

// Node is one of *Leaf, *Internal or *Shard.
type Node interface {
	isNode()
}

// Leaf is an unordered bucket of records.
type Leaf struct {
	Records []descriptor.Record
}

// Internal partitions its subtree around Vantage.
type Internal struct {
	Vantage descriptor.Descriptor
	Radius  uint32
	Near    Node
	Far     Node
}

// Shard references the subtree stored in the blob named by Path.FileName.
type Shard struct {
	Path Path

	// Resident state while a traversal or batch session holds the shard open.
	content  Node
	dirty    bool
	reserved int64
}

func (*Leaf) isNode()     {}
func (*Internal) isNode() {}
func (*Shard) isNode()    {}

// NewShard returns an unresolved reference to the shard at p.
func NewShard(p Path) *Shard {
	return &Shard{Path: p.Clone()}
}

// FileName returns the blob name backing the shard.
func (s *Shard) FileName() string {
	return s.Path.FileName()
}
