package queue

import (
	"math/rand/v2"
	"sort"
	"testing"

	"github.com/hupe1980/vpdb/descriptor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func item(id uint64, dist uint32) Item {
	return Item{Record: descriptor.Record{ID: id}, Distance: dist}
}

func TestPriorityQueue(t *testing.T) {
	t.Run("MaxHeap", func(t *testing.T) {
		pq := NewMax(4)
		for i, d := range []uint32{5, 1, 9, 3} {
			pq.PushItem(item(uint64(i), d))
		}
		top, ok := pq.TopItem()
		require.True(t, ok)
		assert.Equal(t, uint32(9), top.Distance)

		var got []uint32
		for pq.Len() > 0 {
			it, _ := pq.PopItem()
			got = append(got, it.Distance)
		}
		assert.Equal(t, []uint32{9, 5, 3, 1}, got)
	})

	t.Run("MinHeap", func(t *testing.T) {
		pq := NewMin(4)
		for i, d := range []uint32{5, 1, 9, 3} {
			pq.PushItem(item(uint64(i), d))
		}
		top, ok := pq.TopItem()
		require.True(t, ok)
		assert.Equal(t, uint32(1), top.Distance)
	})

	t.Run("Empty", func(t *testing.T) {
		pq := NewMax(0)
		_, ok := pq.TopItem()
		assert.False(t, ok)
		_, ok = pq.PopItem()
		assert.False(t, ok)
		assert.Empty(t, pq.DrainAscending())
	})

	t.Run("ReplaceTop", func(t *testing.T) {
		pq := NewMax(3)
		pq.PushItem(item(1, 10))
		pq.PushItem(item(2, 20))
		pq.PushItem(item(3, 30))
		pq.ReplaceTop(item(4, 5))

		top, _ := pq.TopItem()
		assert.Equal(t, uint32(20), top.Distance)
		assert.Equal(t, 3, pq.Len())
	})

	t.Run("Reset", func(t *testing.T) {
		pq := NewMin(2)
		pq.PushItem(item(1, 1))
		pq.Reset()
		assert.Equal(t, 0, pq.Len())
	})
}

func TestDrainAscending(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 1))
	for _, maxHeap := range []bool{true, false} {
		var pq *PriorityQueue
		if maxHeap {
			pq = NewMax(64)
		} else {
			pq = NewMin(64)
		}
		want := make([]uint32, 0, 64)
		for i := 0; i < 64; i++ {
			d := r.Uint32N(1000)
			want = append(want, d)
			pq.PushItem(item(uint64(i), d))
		}
		sort.Slice(want, func(i, j int) bool { return want[i] < want[j] })

		drained := pq.DrainAscending()
		got := make([]uint32, len(drained))
		for i, it := range drained {
			got[i] = it.Distance
		}
		assert.Equal(t, want, got)
		assert.Equal(t, 0, pq.Len())
	}
}
