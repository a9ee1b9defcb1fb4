package descriptor

import (
	"encoding/binary"
	"fmt"
)

// RecordSize is the encoded length of a Record: 8-byte id + descriptor.
const RecordSize = 8 + Size

// Record is the stored unit: a caller-assigned identifier and its descriptor.
// The identifier is opaque to the index.
type Record struct {
	ID         uint64
	Descriptor Descriptor
}

// AppendBinary appends the little-endian encoding of r to dst.
func (r Record) AppendBinary(dst []byte) []byte {
	dst = binary.LittleEndian.AppendUint64(dst, r.ID)
	return append(dst, r.Descriptor[:]...)
}

// DecodeRecord decodes a record from exactly RecordSize bytes.
func DecodeRecord(b []byte) (Record, error) {
	if len(b) != RecordSize {
		return Record{}, fmt.Errorf("descriptor: record needs %d bytes, got %d", RecordSize, len(b))
	}
	var r Record
	r.ID = binary.LittleEndian.Uint64(b[:8])
	copy(r.Descriptor[:], b[8:])
	return r, nil
}
