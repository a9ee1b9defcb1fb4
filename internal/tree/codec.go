package tree

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/hupe1980/vpdb/descriptor"
)

// Node signatures.
var (
	tagLeaf     = [4]byte{'l', 'e', 'a', 'f'}
	tagInternal = [4]byte{'i', 'n', 't', 'r'}
	tagShard    = [4]byte{'f', 'i', 'l', 'e'}
)

const (
	tagSize          = 4
	leafHeaderSize   = tagSize + 8
	internalHeadSize = tagSize + 4 + descriptor.Size
	shardHeaderSize  = tagSize + 8
)

// ErrCorrupt is matched by every decoding failure.
var ErrCorrupt = errors.New("tree: corrupt node")

// CorruptError describes where decoding failed.
type CorruptError struct {
	// Offset is the byte position, relative to the start of the blob.
	Offset int64
	Reason string
}

func (e *CorruptError) Error() string {
	return fmt.Sprintf("tree: corrupt node at offset %d: %s", e.Offset, e.Reason)
}

func (e *CorruptError) Unwrap() error { return ErrCorrupt }

func corrupt(off int64, format string, args ...any) error {
	return &CorruptError{Offset: off, Reason: fmt.Sprintf(format, args...)}
}

// Encode serializes n. Shards encode their path only; their content lives in
// their own blob.
func Encode(n Node) []byte {
	return AppendNode(make([]byte, 0, encodedSizeHint(n)), n)
}

// AppendNode appends the encoding of n to dst.
func AppendNode(dst []byte, n Node) []byte {
	switch n := n.(type) {
	case *Leaf:
		dst = append(dst, tagLeaf[:]...)
		dst = binary.LittleEndian.AppendUint64(dst, uint64(len(n.Records)))
		for _, r := range n.Records {
			dst = r.AppendBinary(dst)
		}
	case *Internal:
		dst = append(dst, tagInternal[:]...)
		dst = binary.LittleEndian.AppendUint32(dst, n.Radius)
		dst = append(dst, n.Vantage[:]...)
		dst = appendChild(dst, n.Near)
		dst = appendChild(dst, n.Far)
	case *Shard:
		dst = append(dst, tagShard[:]...)
		dst = n.Path.appendBinary(dst)
	default:
		panic(fmt.Sprintf("tree: unknown node type %T", n))
	}
	return dst
}

// appendChild writes a u64 length prefix followed by the child encoding.
func appendChild(dst []byte, child Node) []byte {
	at := len(dst)
	dst = binary.LittleEndian.AppendUint64(dst, 0)
	dst = AppendNode(dst, child)
	binary.LittleEndian.PutUint64(dst[at:], uint64(len(dst)-at-8))
	return dst
}

func encodedSizeHint(n Node) int {
	switch n := n.(type) {
	case *Leaf:
		return leafHeaderSize + len(n.Records)*descriptor.RecordSize
	case *Internal:
		return internalHeadSize + 16 + encodedSizeHint(n.Near) + encodedSizeHint(n.Far)
	case *Shard:
		return shardHeaderSize + len(n.Path)
	default:
		return 0
	}
}

// Decode parses a node encoded by Encode. The whole input must be consumed.
func Decode(b []byte) (Node, error) {
	return decodeAt(b, 0)
}

func decodeAt(b []byte, base int64) (Node, error) {
	if len(b) < tagSize {
		return nil, corrupt(base, "truncated signature (%d bytes)", len(b))
	}

	switch [4]byte(b[:tagSize]) {
	case tagLeaf:
		return decodeLeaf(b, base)
	case tagInternal:
		return decodeInternal(b, base)
	case tagShard:
		return decodeShard(b, base)
	default:
		return nil, corrupt(base, "unknown signature %q", b[:tagSize])
	}
}

func decodeLeaf(b []byte, base int64) (Node, error) {
	if len(b) < leafHeaderSize {
		return nil, corrupt(base, "truncated leaf header")
	}
	count := binary.LittleEndian.Uint64(b[tagSize:])
	body := uint64(len(b) - leafHeaderSize)
	if count > body/descriptor.RecordSize || count*descriptor.RecordSize != body {
		return nil, corrupt(base, "leaf of %d records has %d body bytes", count, body)
	}

	leaf := &Leaf{Records: make([]descriptor.Record, count)}
	for i := range leaf.Records {
		off := leafHeaderSize + i*descriptor.RecordSize
		rec, err := descriptor.DecodeRecord(b[off : off+descriptor.RecordSize])
		if err != nil {
			return nil, corrupt(base+int64(off), "%v", err)
		}
		leaf.Records[i] = rec
	}
	return leaf, nil
}

func decodeInternal(b []byte, base int64) (Node, error) {
	if len(b) < internalHeadSize {
		return nil, corrupt(base, "truncated internal header")
	}
	n := &Internal{Radius: binary.LittleEndian.Uint32(b[tagSize:])}
	copy(n.Vantage[:], b[tagSize+4:internalHeadSize])

	rest := b[internalHeadSize:]
	off := base + internalHeadSize

	var err error
	n.Near, rest, off, err = decodeChild(rest, off, "near")
	if err != nil {
		return nil, err
	}
	n.Far, rest, off, err = decodeChild(rest, off, "far")
	if err != nil {
		return nil, err
	}
	if len(rest) != 0 {
		return nil, corrupt(off, "%d trailing bytes after internal node", len(rest))
	}
	return n, nil
}

func decodeChild(b []byte, off int64, side string) (Node, []byte, int64, error) {
	if len(b) < 8 {
		return nil, nil, off, corrupt(off, "truncated %s length", side)
	}
	size := binary.LittleEndian.Uint64(b)
	if size > uint64(len(b)-8) {
		return nil, nil, off, corrupt(off, "%s block of %d bytes exceeds remaining %d", side, size, len(b)-8)
	}
	end := 8 + int(size)
	child, err := decodeAt(b[8:end], off+8)
	if err != nil {
		return nil, nil, off, err
	}
	return child, b[end:], off + int64(end), nil
}

func decodeShard(b []byte, base int64) (Node, error) {
	if len(b) < shardHeaderSize {
		return nil, corrupt(base, "truncated shard header")
	}
	size := binary.LittleEndian.Uint64(b[tagSize:])
	if size != uint64(len(b)-shardHeaderSize) {
		return nil, corrupt(base, "shard path of %d bytes has %d body bytes", size, len(b)-shardHeaderSize)
	}
	p := make(Path, size)
	for i, c := range b[shardHeaderSize:] {
		switch d := Direction(c); d {
		case Near, Far, ShardMark:
			p[i] = d
		default:
			return nil, corrupt(base+shardHeaderSize+int64(i), "invalid direction %q in shard path", c)
		}
	}
	return &Shard{Path: p}, nil
}
