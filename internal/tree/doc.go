// Package tree implements the disk-resident vantage-point tree.
//
// The tree is a sum type of three node kinds:
//
//   - *Leaf holds up to Config.LeafCapacity records.
//   - *Internal partitions records around a vantage descriptor: records whose
//     squared distance to the vantage is below Radius live under Near, all
//     others under Far.
//   - *Shard references a subtree stored in its own blob. Shard content is
//     loaded for one traversal and dropped again; mutating traversals rewrite
//     the whole blob atomically.
//
// Every node is addressed by a Path of direction symbols. The path decides
// the blob name of a shard and when a growing leaf forks into a new shard
// instead of splitting in place.
//
// A Tree is safe for concurrent readers. Writers (Insert and Session) must be
// serialized by the caller.
package tree
