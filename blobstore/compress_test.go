package blobstore

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func compressible() []byte {
	var buf bytes.Buffer
	buf.WriteString("leaf")
	for i := 0; i < 2000; i++ {
		buf.Write([]byte{byte(i), 0, 0, 0, 0, 0, 0, 0})
		buf.Write(bytes.Repeat([]byte{0xff}, 16))
		buf.Write(make([]byte, 16))
	}
	return buf.Bytes()
}

func TestCompressRoundTrip(t *testing.T) {
	data := compressible()

	for _, algo := range []Compression{CompressionLZ4, CompressionZSTD} {
		t.Run(algo.String(), func(t *testing.T) {
			enc, err := Compress(data, algo)
			require.NoError(t, err)
			assert.True(t, IsCompressed(enc))
			assert.Less(t, len(enc), len(data))

			dec, err := Decompress(enc)
			require.NoError(t, err)
			assert.Equal(t, data, dec)
		})
	}
}

func TestCompressPassThrough(t *testing.T) {
	plain := []byte("leaf\x00\x00\x00\x00\x00\x00\x00\x00")

	enc, err := Compress(plain, CompressionNone)
	require.NoError(t, err)
	assert.Equal(t, plain, enc)

	// Too small to shrink
	enc, err = Compress(plain, CompressionZSTD)
	require.NoError(t, err)
	assert.Equal(t, plain, enc)

	dec, err := Decompress(plain)
	require.NoError(t, err)
	assert.Equal(t, plain, dec)
}

func TestDecompressCorrupt(t *testing.T) {
	enc, err := Compress(compressible(), CompressionZSTD)
	require.NoError(t, err)

	bad := append([]byte(nil), enc...)
	bad[3] = 9
	_, err = Decompress(bad)
	assert.ErrorIs(t, err, ErrBadEnvelope)

	_, err = Decompress(enc[:len(enc)/2])
	assert.ErrorIs(t, err, ErrBadEnvelope)
}

func TestParseCompression(t *testing.T) {
	for _, s := range []string{"none", "lz4", "zstd"} {
		c, err := ParseCompression(s)
		require.NoError(t, err)
		assert.Equal(t, s, c.String())
	}
	_, err := ParseCompression("brotli")
	assert.Error(t, err)
}

func TestCompressedStore(t *testing.T) {
	ctx := context.Background()
	mem := NewMemoryStore()
	store := NewCompressed(mem, CompressionLZ4)
	data := compressible()

	require.NoError(t, store.Put(ctx, "vp_tree.l.database", data))

	raw, err := mem.Get(ctx, "vp_tree.l.database")
	require.NoError(t, err)
	assert.True(t, IsCompressed(raw))

	got, err := ReadAll(ctx, store, "vp_tree.l.database")
	require.NoError(t, err)
	assert.Equal(t, data, got)

	// Plain blobs remain readable.
	require.NoError(t, mem.Put(ctx, "plain", []byte("file")))
	blob, err := store.Open(ctx, "plain")
	require.NoError(t, err)
	assert.Equal(t, int64(4), blob.Size())

	names, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"plain", "vp_tree.l.database"}, names)
}
