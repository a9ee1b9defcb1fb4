package tree

import (
	"encoding/binary"
	"fmt"
	"path/filepath"
	"strings"
)

// Direction is one step of a Path.
type Direction byte

const (
	Near      Direction = 'n'
	Far       Direction = 'a'
	ShardMark Direction = 'l'
	// Unused stands in for unrecognized characters in a decoded file name.
	Unused Direction = 'u'
)

const (
	fileNamePrefix = "vp_tree."
	fileNameSuffix = ".database"
)

// Path is the ordered sequence of directions from the root to a node.
// Paths are values: Append never modifies its receiver.
type Path []Direction

// RootPath is the path of the canonical root shard.
func RootPath() Path { return Path{ShardMark} }

// Append returns a copy of p extended by d.
func (p Path) Append(d Direction) Path {
	out := make(Path, len(p)+1)
	copy(out, p)
	out[len(p)] = d
	return out
}

// Clone returns a copy of p.
func (p Path) Clone() Path {
	return append(Path(nil), p...)
}

// Depth counts the non-shard directions of p.
func (p Path) Depth() int {
	depth := 0
	for _, d := range p {
		if d != ShardMark {
			depth++
		}
	}
	return depth
}

// AtShardBoundary reports whether a leaf at p must become a shard: the
// logical depth is a nonzero multiple of shardDepth and p does not already
// end inside a freshly opened shard.
func (p Path) AtShardBoundary(shardDepth int) bool {
	depth := p.Depth()
	if depth == 0 || shardDepth <= 0 || depth%shardDepth != 0 {
		return false
	}
	return p[len(p)-1] != ShardMark
}

// String renders p as its direction characters.
func (p Path) String() string {
	var b strings.Builder
	b.Grow(len(p))
	for _, d := range p {
		b.WriteByte(byte(d))
	}
	return b.String()
}

// FileName returns the blob name of the shard stored at p.
func (p Path) FileName() string {
	return fileNamePrefix + p.String() + fileNameSuffix
}

// ParsePath converts direction characters into a Path.
// Unrecognized characters become Unused.
func ParsePath(s string) Path {
	p := make(Path, 0, len(s))
	for i := 0; i < len(s); i++ {
		switch d := Direction(s[i]); d {
		case Near, Far, ShardMark:
			p = append(p, d)
		default:
			p = append(p, Unused)
		}
	}
	return p
}

// PathFromFileName recovers the path of a shard from its file name.
// Leading directories are ignored.
func PathFromFileName(name string) (Path, error) {
	parts := strings.Split(filepath.Base(name), ".")
	if len(parts) < 2 {
		return nil, fmt.Errorf("tree: %q is not a shard file name", name)
	}
	return ParsePath(parts[1]), nil
}

// appendBinary appends the length-prefixed direction bytes of p.
func (p Path) appendBinary(dst []byte) []byte {
	dst = binary.LittleEndian.AppendUint64(dst, uint64(len(p)))
	for _, d := range p {
		dst = append(dst, byte(d))
	}
	return dst
}
