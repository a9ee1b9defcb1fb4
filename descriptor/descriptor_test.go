package descriptor

import (
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDistance(t *testing.T) {
	var zero, full, mixed Descriptor
	for i := range full {
		full[i] = 255
	}
	mixed[0] = 10
	mixed[31] = 3

	tests := []struct {
		name     string
		a, b     Descriptor
		expected uint32
	}{
		{"Identical", mixed, mixed, 0},
		{"Zero", zero, zero, 0},
		{"Maximal", zero, full, MaxDistance},
		{"Mixed", zero, mixed, 100 + 9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Distance(tt.a, tt.b))
			assert.Equal(t, tt.expected, tt.b.Distance(tt.a))
		})
	}

	assert.Equal(t, uint32(2_080_800), MaxDistance)
}

func TestDistanceProperties(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))
	for i := 0; i < 1000; i++ {
		a, b := Random(r), Random(r)
		d := Distance(a, b)
		assert.Equal(t, d, Distance(b, a))
		assert.LessOrEqual(t, d, MaxDistance)
		if a == b {
			assert.Zero(t, d)
		} else {
			assert.NotZero(t, d)
		}
		assert.Zero(t, Distance(a, a))
	}
}

func TestRandomEdge(t *testing.T) {
	r := rand.New(rand.NewPCG(7, 7))
	for i := 0; i < 100; i++ {
		d := RandomEdge(r)
		for _, b := range d {
			require.True(t, b == 0 || b == 255, "byte %d is not an edge value", b)
		}
	}
}

func TestSeededGeneratorsAreReproducible(t *testing.T) {
	a := rand.New(rand.NewPCG(42, 0))
	b := rand.New(rand.NewPCG(42, 0))
	for i := 0; i < 10; i++ {
		assert.Equal(t, Random(a), Random(b))
		assert.Equal(t, RandomEdge(a), RandomEdge(b))
	}
}

func TestParse(t *testing.T) {
	t.Run("RoundTrip", func(t *testing.T) {
		d := Random(rand.New(rand.NewPCG(3, 4)))
		got, err := Parse(d.String())
		require.NoError(t, err)
		assert.Equal(t, d, got)
	})

	t.Run("WrongLength", func(t *testing.T) {
		_, err := Parse("abcd")
		require.Error(t, err)
	})

	t.Run("NotHex", func(t *testing.T) {
		_, err := Parse(strings.Repeat("zz", Size))
		require.Error(t, err)
	})
}

func TestRecordBinary(t *testing.T) {
	rec := Record{ID: 0x0102030405060708, Descriptor: Descriptor{1, 2, 3}}
	buf := rec.AppendBinary(nil)
	require.Len(t, buf, RecordSize)
	assert.Equal(t, byte(0x08), buf[0], "identifier is little-endian")
	assert.Equal(t, byte(1), buf[8])

	got, err := DecodeRecord(buf)
	require.NoError(t, err)
	assert.Equal(t, rec, got)

	_, err = DecodeRecord(buf[:RecordSize-1])
	require.Error(t, err)
}
