package queue

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTopK_KeepsBest(t *testing.T) {
	q := NewTopK(3)
	scores := []float32{0.1, 0.9, 0.5, 0.3, 0.7, 0.2}
	for row, s := range scores {
		q.Offer(Item{Row: row, Score: s})
	}

	require.Equal(t, 3, q.Len())
	worst, ok := q.Worst()
	require.True(t, ok)
	assert.Equal(t, float32(0.5), worst.Score)

	got := q.Sorted()
	assert.Equal(t, []Item{{Row: 1, Score: 0.9}, {Row: 4, Score: 0.7}, {Row: 2, Score: 0.5}}, got)
	assert.Equal(t, 0, q.Len())
}

func TestTopK_TiesPreferLowerRow(t *testing.T) {
	q := NewTopK(2)
	for _, row := range []int{5, 3, 9, 1} {
		q.Offer(Item{Row: row, Score: 1})
	}
	assert.Equal(t, []Item{{Row: 1, Score: 1}, {Row: 3, Score: 1}}, q.Sorted())
}

func TestTopK_FewerThanK(t *testing.T) {
	q := NewTopK(10)
	assert.True(t, q.Offer(Item{Row: 0, Score: -1}))
	assert.True(t, q.Offer(Item{Row: 1, Score: 2}))
	assert.Equal(t, []Item{{Row: 1, Score: 2}, {Row: 0, Score: -1}}, q.Sorted())

	_, ok := q.Worst()
	assert.False(t, ok)
}

func TestTopK_RejectsWorse(t *testing.T) {
	q := NewTopK(1)
	require.True(t, q.Offer(Item{Row: 0, Score: 0.5}))
	assert.False(t, q.Offer(Item{Row: 1, Score: 0.5}))
	assert.False(t, q.Offer(Item{Row: 2, Score: 0.1}))
	assert.True(t, q.Offer(Item{Row: 3, Score: 0.6}))
	assert.Equal(t, 1, q.Cap())
}
