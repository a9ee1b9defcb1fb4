package descriptor

import (
	"encoding/hex"
	"fmt"
	"math/rand/v2"
)

// Size is the length of a descriptor in bytes.
const Size = 32

// MaxDistance is the largest value Distance can return (32 * 255²).
const MaxDistance uint32 = Size * 255 * 255

// Descriptor is an immutable fixed-length feature vector.
type Descriptor [Size]byte

// Distance returns the squared Euclidean distance between a and b.
// The result is symmetric, zero iff a == b and never exceeds MaxDistance.
func Distance(a, b Descriptor) uint32 {
	var sum uint32
	for i := 0; i < Size; i++ {
		d := int32(a[i]) - int32(b[i])
		sum += uint32(d * d)
	}
	return sum
}

// Distance returns the squared Euclidean distance to other.
func (d Descriptor) Distance(other Descriptor) uint32 {
	return Distance(d, other)
}

// String renders the descriptor as lowercase hex.
func (d Descriptor) String() string {
	return hex.EncodeToString(d[:])
}

// FromBytes copies b into a Descriptor. b must be exactly Size bytes.
func FromBytes(b []byte) (Descriptor, error) {
	var d Descriptor
	if len(b) != Size {
		return d, fmt.Errorf("descriptor: expected %d bytes, got %d", Size, len(b))
	}
	copy(d[:], b)
	return d, nil
}

// Parse decodes a 64 character hex string.
func Parse(s string) (Descriptor, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return Descriptor{}, fmt.Errorf("descriptor: %w", err)
	}
	return FromBytes(b)
}

// Random returns a descriptor with uniformly random bytes.
func Random(r *rand.Rand) Descriptor {
	var d Descriptor
	for i := 0; i < Size; i += 8 {
		v := r.Uint64()
		for j := 0; j < 8; j++ {
			d[i+j] = byte(v >> (8 * j))
		}
	}
	return d
}

// RandomEdge returns a descriptor whose bytes are each independently 0 or 255.
// Edge points make better vantage points than interior ones.
func RandomEdge(r *rand.Rand) Descriptor {
	var d Descriptor
	bits := r.Uint64()
	for i := 0; i < Size; i++ {
		if bits&(1<<i) != 0 {
			d[i] = 255
		}
	}
	return d
}
