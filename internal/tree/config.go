package tree

import (
	"errors"
	"fmt"
)

const (
	// DefaultLeafCapacity is the number of records a leaf holds before it splits.
	DefaultLeafCapacity = 8192
	// DefaultShardDepth is the number of logical levels stored per shard blob.
	DefaultShardDepth = 8
	// DefaultFlushEvery is the number of session inserts between flushes.
	DefaultFlushEvery = 100_000
)

// Config holds the structural parameters of a tree.
type Config struct {
	// LeafCapacity is the largest number of records a leaf holds.
	LeafCapacity int
	// ShardDepth is the number of logical levels between shard boundaries.
	ShardDepth int
	// ExactPruning tests the triangle inequality on Euclidean instead of
	// squared distances. Searches then always match an exhaustive scan.
	ExactPruning bool
	// FlushEvery bounds how many inserts a Session buffers before it writes
	// its dirty shards. Zero disables periodic flushing.
	FlushEvery int
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		LeafCapacity: DefaultLeafCapacity,
		ShardDepth:   DefaultShardDepth,
		FlushEvery:   DefaultFlushEvery,
	}
}

// ErrInvalidConfig is returned for unusable configurations.
var ErrInvalidConfig = errors.New("tree: invalid config")

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.LeafCapacity < 1 {
		return fmt.Errorf("%w: leaf capacity %d", ErrInvalidConfig, c.LeafCapacity)
	}
	if c.ShardDepth < 1 {
		return fmt.Errorf("%w: shard depth %d", ErrInvalidConfig, c.ShardDepth)
	}
	if c.FlushEvery < 0 {
		return fmt.Errorf("%w: flush interval %d", ErrInvalidConfig, c.FlushEvery)
	}
	return nil
}
