package blobstore

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression defines the algorithm used by a Compressed store.
type Compression uint8

const (
	// CompressionNone stores blobs as-is.
	CompressionNone Compression = 0
	// CompressionLZ4 uses LZ4 block compression (fast, good for hot data).
	CompressionLZ4 Compression = 1
	// CompressionZSTD uses ZSTD (better ratio, good for cold data).
	CompressionZSTD Compression = 2
)

// String returns the lowercase algorithm name.
func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZSTD:
		return "zstd"
	default:
		return fmt.Sprintf("compression(%d)", uint8(c))
	}
}

// ParseCompression parses "none", "lz4" or "zstd".
func ParseCompression(s string) (Compression, error) {
	switch s {
	case "", "none":
		return CompressionNone, nil
	case "lz4":
		return CompressionLZ4, nil
	case "zstd":
		return CompressionZSTD, nil
	default:
		return CompressionNone, fmt.Errorf("blobstore: unknown compression %q", s)
	}
}

// ErrBadEnvelope is returned when a compressed blob cannot be decoded.
var ErrBadEnvelope = errors.New("blobstore: bad compression envelope")

// Envelope layout: [magic "vpz" 3B][algorithm 1B][uncompressed size u64 LE][payload].
// Shard payloads start with an ASCII node tag, so plain blobs never carry the magic.
var envelopeMagic = [3]byte{'v', 'p', 'z'}

const envelopeHeaderSize = 12

// ZSTD encoder/decoder pools for efficiency
var (
	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder() *zstd.Encoder {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder)
	}
	enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	return enc
}

func getZstdDecoder() *zstd.Decoder {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder)
	}
	dec, _ := zstd.NewReader(nil)
	return dec
}

// Compressed wraps a Store and compresses blobs on Put.
// Reads detect the envelope, so a Compressed store also reads plain blobs
// written before compression was enabled.
type Compressed struct {
	inner Store
	algo  Compression
}

// NewCompressed returns a Store that compresses blobs with algo.
func NewCompressed(inner Store, algo Compression) *Compressed {
	return &Compressed{inner: inner, algo: algo}
}

// Unwrap returns the wrapped store.
func (c *Compressed) Unwrap() Store { return c.inner }

// Open reads and decompresses the whole blob.
func (c *Compressed) Open(ctx context.Context, name string) (Blob, error) {
	data, err := c.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	return &bytesBlob{data: data}, nil
}

// Get reads and decompresses the whole blob.
func (c *Compressed) Get(ctx context.Context, name string) ([]byte, error) {
	raw, err := ReadAll(ctx, c.inner, name)
	if err != nil {
		return nil, err
	}
	data, err := Decompress(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return data, nil
}

// Put compresses data and writes it to the wrapped store.
func (c *Compressed) Put(ctx context.Context, name string, data []byte) error {
	enc, err := Compress(data, c.algo)
	if err != nil {
		return err
	}
	return c.inner.Put(ctx, name, enc)
}

// Delete removes a blob from the wrapped store.
func (c *Compressed) Delete(ctx context.Context, name string) error {
	return c.inner.Delete(ctx, name)
}

// List lists the wrapped store.
func (c *Compressed) List(ctx context.Context, prefix string) ([]string, error) {
	return c.inner.List(ctx, prefix)
}

// Compress wraps data in a compression envelope.
// Data that does not shrink by at least 10% is returned unchanged.
func Compress(data []byte, algo Compression) ([]byte, error) {
	if algo == CompressionNone || len(data) == 0 {
		return data, nil
	}

	out := make([]byte, envelopeHeaderSize, envelopeHeaderSize+len(data)/2)
	copy(out, envelopeMagic[:])
	out[3] = byte(algo)
	binary.LittleEndian.PutUint64(out[4:], uint64(len(data)))

	switch algo {
	case CompressionLZ4:
		buf := make([]byte, lz4.CompressBlockBound(len(data)))
		n, err := lz4.CompressBlock(data, buf, nil)
		if err != nil {
			return nil, err
		}
		if n == 0 {
			return data, nil // Incompressible
		}
		out = append(out, buf[:n]...)
	case CompressionZSTD:
		enc := getZstdEncoder()
		out = enc.EncodeAll(data, out)
		zstdEncoderPool.Put(enc)
	default:
		return nil, fmt.Errorf("blobstore: unknown compression %d", algo)
	}

	if float64(len(out)) > float64(len(data))*0.9 {
		return data, nil
	}
	return out, nil
}

// IsCompressed reports whether b carries a compression envelope.
func IsCompressed(b []byte) bool {
	return len(b) >= envelopeHeaderSize &&
		b[0] == envelopeMagic[0] && b[1] == envelopeMagic[1] && b[2] == envelopeMagic[2]
}

// Decompress undoes Compress. Blobs without an envelope are returned as-is.
func Decompress(b []byte) ([]byte, error) {
	if !IsCompressed(b) {
		return b, nil
	}

	algo := Compression(b[3])
	size := binary.LittleEndian.Uint64(b[4:])
	payload := b[envelopeHeaderSize:]

	switch algo {
	case CompressionLZ4:
		// An LZ4 block expands at most ~255x.
		if size > uint64(len(payload))*255+16 {
			return nil, fmt.Errorf("%w: implausible size %d", ErrBadEnvelope, size)
		}
		out := make([]byte, size)
		n, err := lz4.UncompressBlock(payload, out)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadEnvelope, err)
		}
		if uint64(n) != size {
			return nil, fmt.Errorf("%w: decompressed size mismatch", ErrBadEnvelope)
		}
		return out, nil
	case CompressionZSTD:
		dec := getZstdDecoder()
		defer zstdDecoderPool.Put(dec)

		out, err := dec.DecodeAll(payload, nil)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadEnvelope, err)
		}
		if uint64(len(out)) != size {
			return nil, fmt.Errorf("%w: decompressed size mismatch", ErrBadEnvelope)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: unknown algorithm %d", ErrBadEnvelope, algo)
	}
}
