package cmap

import (
	"sort"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
)

func hashInts(k int) uint64 {
	return XXHash(strconv.Itoa(k))
}

func TestMap(t *testing.T) {
	m := New[int, int](DefaultShardCount, hashInts)
	assert.True(t, m.Add(5, 7))
	assert.True(t, m.Add(7, 5))
	assert.Equal(t, 7, m.Get(5))
	assert.Equal(t, 5, m.Get(7))
	vals := m.Values()
	sort.Ints(vals)
	assert.Equal(t, []int{5, 7}, vals)
}

func TestGetMissing(t *testing.T) {
	m := New[int, int](DefaultShardCount, hashInts)
	assert.Equal(t, 0, m.Get(42))
}

func TestGetOrWait(t *testing.T) {
	m := New[int, int](DefaultShardCount, hashInts)
	v, ch, first := m.GetOrWait(5)
	assert.Equal(t, 0, v)
	assert.True(t, first)
	go func() {
		m.Set(5, 7)
	}()
	<-ch
	v, ch, first = m.GetOrWait(5)
	assert.Nil(t, ch)
	assert.Equal(t, 7, v)
	assert.False(t, first)
}

func TestReAdd(t *testing.T) {
	m := New[int, int](DefaultShardCount, hashInts)
	assert.True(t, m.Add(5, 7))
	assert.False(t, m.Add(5, 7))
	assert.Equal(t, 7, m.Get(5))
	m.Set(5, 8)
	assert.Equal(t, 8, m.Get(5))
}

func TestShardCount(t *testing.T) {
	New[int, int](4, hashInts)
	assert.Panics(t, func() {
		New[int, int](3, hashInts)
	})
}

func TestLen(t *testing.T) {
	m := New[int, int](DefaultShardCount, hashInts)
	for i := 0; i < 50; i++ {
		m.Set(i, i)
	}
	assert.Equal(t, 50, m.Len())
}

func TestResize(t *testing.T) {
	for n := 10; n <= 1000; n *= 10 {
		t.Run(strconv.Itoa(n), func(t *testing.T) {
			m := New[int, int](1, hashInts)
			for i := 0; i < n; i++ {
				m.Set(i, i)
			}
			for i := 0; i < n; i++ {
				v, ch, first := m.GetOrWait(i)
				assert.Equal(t, i, v, "key %d appears to be not set or set incorrectly", i)
				assert.Nil(t, ch)
				assert.False(t, first)
			}
		})
	}
}

func BenchmarkMapInserts(b *testing.B) {
	m := New[int, int](DefaultShardCount, hashInts)
	for i := 0; i < b.N; i++ {
		m.Set(i, i)
	}
}
